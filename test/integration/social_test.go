//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-bookshelf-api/internal/model"
)

func TestFollowPostLikeNotify(t *testing.T) {
	server := newTestServer(t, testConfig(t))
	aliceToken := register(t, server, "alice", "alice-pass")
	bobToken := register(t, server, "bob", "bob-pass")

	_, env := doJSON(t, http.MethodGet, server.URL+"/api/v1/profile/", nil, aliceToken)
	var alice model.UserResponse
	decodeData(t, env, &alice)

	resp, _ := doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/users/%d/follow/", server.URL, alice.ID), nil, bobToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/users/%d/follow/", server.URL, alice.ID), nil, bobToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/users/%d/follow/", server.URL, alice.ID), nil, aliceToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env = doJSON(t, http.MethodPost, server.URL+"/api/v1/posts/", map[string]string{
		"title": "Reading Dune again", "content": "Still great.",
	}, aliceToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post model.Post
	decodeData(t, env, &post)
	assert.Equal(t, "reading-dune-again", post.Slug)
	postURL := fmt.Sprintf("%s/api/v1/posts/%d/", server.URL, post.ID)

	_, env = doJSON(t, http.MethodGet, server.URL+"/api/v1/feed/", nil, bobToken)
	var feed []model.Post
	decodeData(t, env, &feed)
	require.Len(t, feed, 1)
	assert.Equal(t, post.ID, feed[0].ID)

	resp, _ = doJSON(t, http.MethodPatch, postURL, map[string]string{"title": "Hijacked"}, bobToken)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env = doJSON(t, http.MethodPost, postURL+"like/", nil, bobToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var liked model.LikeResult
	decodeData(t, env, &liked)
	assert.Equal(t, 1, liked.LikesCount)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/api/v1/comments/", map[string]any{
		"post": post.ID, "content": "Agreed!",
	}, bobToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, env = doJSON(t, http.MethodGet, postURL, nil, bobToken)
	var detail model.PostDetail
	decodeData(t, env, &detail)
	assert.True(t, detail.IsLiked)
	assert.Len(t, detail.Comments, 1)

	resp, env = doJSON(t, http.MethodGet, server.URL+"/api/v1/notifications/", nil, aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list model.NotificationList
	decodeData(t, env, &list)
	assert.Equal(t, 3, list.UnreadCount)
	require.Len(t, list.Items, 3)

	resp, _ = doJSON(t, http.MethodPost, fmt.Sprintf("%s/api/v1/notifications/%d/read/", server.URL, list.Items[0].ID), nil, bobToken)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "other users' notifications are invisible")

	resp, env = doJSON(t, http.MethodPost, server.URL+"/api/v1/notifications/read-all/", nil, aliceToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var marked model.MessageResponse
	decodeData(t, env, &marked)
	assert.Equal(t, "Marked 3 notifications as read.", marked.Message)

	resp, _ = doJSON(t, http.MethodPost, postURL+"unlike/", nil, bobToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPost, postURL+"unlike/", nil, bobToken)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
