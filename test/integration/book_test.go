//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bookshelf-api/internal/model"
	"go-bookshelf-api/pkg/apierror"
)

func createAuthor(t *testing.T, baseURL string, token string, name string) model.Author {
	t.Helper()

	resp, env := doJSON(t, http.MethodPost, baseURL+"/api/v1/authors/", map[string]string{"name": name}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var author model.Author
	decodeData(t, env, &author)
	return author
}

func TestBookLifecycleAndPermissions(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	adminToken := login(t, server, adminUsername, adminPassword)
	viewerToken := register(t, server, "viewer", "viewer-pass")

	herbert := createAuthor(t, server.URL, adminToken, "Frank Herbert")
	booksURL := server.URL + "/api/v1/books/"

	resp, env := doJSON(t, http.MethodPost, booksURL, map[string]any{
		"title": "Dune", "publication_year": 1965, "author": herbert.ID,
	}, adminToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var dune model.Book
	decodeData(t, env, &dune)
	bookURL := fmt.Sprintf("%s%d/", booksURL, dune.ID)

	t.Run("anonymous create is rejected without side effects", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodPost, booksURL, map[string]any{
			"title": "Dune Messiah", "publication_year": 1969, "author": herbert.ID,
		}, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Token", resp.Header.Get("WWW-Authenticate"))

		_, env := doJSON(t, http.MethodGet, booksURL, nil, "")
		require.NotNil(t, env.Meta)
		assert.Equal(t, 1, env.Meta.Total)
	})

	t.Run("case-insensitive duplicate is rejected", func(t *testing.T) {
		resp, env := doJSON(t, http.MethodPost, booksURL, map[string]any{
			"title": "dune", "publication_year": 1965, "author": herbert.ID,
		}, adminToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Error.Fields[apierror.NonFieldKey], "already exists")
	})

	t.Run("future year is rejected", func(t *testing.T) {
		resp, env := doJSON(t, http.MethodPatch, bookURL, map[string]any{"publication_year": 3000}, adminToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, env.Error.Fields["publication_year"], "cannot be in the future")
	})

	t.Run("viewer reads but cannot edit or delete", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodGet, bookURL, nil, viewerToken)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodPatch, bookURL, map[string]any{"title": "Changed"}, viewerToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodDelete, bookURL, nil, viewerToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		_, env := doJSON(t, http.MethodGet, bookURL, nil, viewerToken)
		var book model.Book
		decodeData(t, env, &book)
		assert.Equal(t, "Dune", book.Title)
	})

	t.Run("author detail aggregates books", func(t *testing.T) {
		resp, env := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/authors/%d/", server.URL, herbert.ID), nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var detail model.AuthorDetail
		decodeData(t, env, &detail)
		assert.Equal(t, 1, detail.BooksCount)
		require.NotNil(t, detail.LatestPublicationYear)
		assert.Equal(t, 1965, *detail.LatestPublicationYear)
	})

	t.Run("admin deletes", func(t *testing.T) {
		resp, _ := doJSON(t, http.MethodDelete, bookURL, nil, adminToken)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = doJSON(t, http.MethodGet, bookURL, nil, adminToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestBookListFiltersAndOrdering(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	adminToken := login(t, server, adminUsername, adminPassword)

	herbert := createAuthor(t, server.URL, adminToken, "Frank Herbert")
	leguin := createAuthor(t, server.URL, adminToken, "Ursula K. Le Guin")
	for _, book := range []map[string]any{
		{"title": "Dune", "publication_year": 1965, "author": herbert.ID},
		{"title": "Children of Dune", "publication_year": 1976, "author": herbert.ID},
		{"title": "The Dispossessed", "publication_year": 1974, "author": leguin.ID},
	} {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/books/", book, adminToken)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	_, env := doJSON(t, http.MethodGet, server.URL+"/api/v1/books/", nil, "")
	var books []model.Book
	decodeData(t, env, &books)
	require.Len(t, books, 3)
	assert.Equal(t, "Children of Dune", books[0].Title, "default ordering is newest first")

	_, env = doJSON(t, http.MethodGet, server.URL+"/api/v1/books/?search=le%20guin", nil, "")
	decodeData(t, env, &books)
	require.Len(t, books, 1)
	assert.Equal(t, "The Dispossessed", books[0].Title)

	_, env = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/v1/books/?author=%d&ordering=title", server.URL, herbert.ID), nil, "")
	decodeData(t, env, &books)
	require.Len(t, books, 2)
	assert.Equal(t, "Children of Dune", books[0].Title)

	_, env = doJSON(t, http.MethodGet, server.URL+"/api/v1/books/?publication_year=1974", nil, "")
	decodeData(t, env, &books)
	require.Len(t, books, 1)

	_, env = doJSON(t, http.MethodGet, server.URL+"/api/v1/books/?page_size=2&page=2", nil, "")
	require.NotNil(t, env.Meta)
	assert.Equal(t, model.Meta{Page: 2, PageSize: 2, Total: 3, TotalPages: 2}, *env.Meta)
}
