package storage

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Storage = (*LocalStorage)(nil)

func TestLocalStorageSaveAndRemove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	const avatar = "profile_photos/reader/avatar.jpg"
	require.NoError(t, store.Save(avatar, strings.NewReader("first")))
	require.NoError(t, store.Save(avatar, strings.NewReader("second")))

	dir := filepath.Join(root, "profile_photos", "reader")
	content, err := os.ReadFile(filepath.Join(dir, "avatar.jpg"))
	require.NoError(t, err)
	require.Equal(t, "second", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary upload files must not be left behind")

	require.NoError(t, store.Remove(avatar))
	require.NoError(t, store.Remove(avatar))

	_, err = os.Stat(filepath.Join(dir, "avatar.jpg"))
	require.True(t, os.IsNotExist(err))
}

func TestLocalStorageRejectsEscapes(t *testing.T) {
	t.Parallel()

	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.Error(t, store.Save("../outside.jpg", strings.NewReader("x")))
	require.Error(t, store.Save("/", strings.NewReader("x")))
	require.Error(t, store.Remove(""))
	require.Error(t, store.Remove("profile_photos/../../etc/passwd"))
}

func TestLocalStorageServe(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)
	require.NoError(t, store.Save("profile_photos/reader/avatar.jpg", strings.NewReader("jpeg-bytes")))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".secret"), []byte("x"), 0o600))

	serve := func(method string, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/", nil)
		req.URL.Path = path
		rec := httptest.NewRecorder()
		store.ServeHTTP(rec, req)
		return rec
	}

	ok := serve(http.MethodGet, "profile_photos/reader/avatar.jpg")
	assert.Equal(t, http.StatusOK, ok.Code)
	assert.Equal(t, "jpeg-bytes", ok.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "profile_photos/reader").Code)
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "").Code)
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, ".secret").Code)
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "profile_photos/missing.jpg").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(http.MethodDelete, "profile_photos/reader/avatar.jpg").Code)
}
