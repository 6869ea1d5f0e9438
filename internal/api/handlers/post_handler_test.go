package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaaystones/social-media-microservice/internal/api/dto"
	"github.com/Jaaystones/social-media-microservice/internal/api/middleware"
	"github.com/Jaaystones/social-media-microservice/internal/domain"
)

func TestCreatePost(t *testing.T) {
	engine, repo := newPostRig()

	body := `{"content":"hello world","mediaIds":["m1"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(body))
	req.Header.Set(middleware.UserIDHeader, "user-1")
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp dto.PostResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "user-1", resp.AuthorID)
	assert.Equal(t, "hello world", resp.Content)
	assert.Equal(t, []string{"m1"}, resp.MediaIDs)

	// Persisted, not just echoed
	stored, err := repo.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", stored.Content)
}

func TestCreatePost_InvalidBody(t *testing.T) {
	engine, _ := newPostRig()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ``},
		{name: "missing content", body: `{"mediaIds":["m1"]}`},
		{name: "malformed json", body: `{"content":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(tt.body))
			req.Header.Set(middleware.UserIDHeader, "user-1")
			req.Header.Set("Content-Type", "application/json")
			engine.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreatePost_ContentTooLong(t *testing.T) {
	engine, _ := newPostRig()

	body, err := json.Marshal(dto.CreatePostRequest{
		Content: strings.Repeat("a", domain.MaxContentLength+1),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", strings.NewReader(string(body)))
	req.Header.Set(middleware.UserIDHeader, "user-1")
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPost(t *testing.T) {
	engine, repo := newPostRig()

	post := &domain.Post{
		ID:        "p1",
		AuthorID:  "user-1",
		Content:   "stored post",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), post))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/p1", nil)
	req.Header.Set(middleware.UserIDHeader, "user-2")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.PostResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp.ID)
	assert.Equal(t, "stored post", resp.Content)
}

func TestGetPost_NotFound(t *testing.T) {
	engine, _ := newPostRig()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts/missing", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Post not found")
}

func TestListPosts_Pagination(t *testing.T) {
	engine, repo := newPostRig()

	base := time.Now().UTC()
	for i := 0; i < 15; i++ {
		require.NoError(t, repo.Create(context.Background(), &domain.Post{
			ID:        "p" + string(rune('a'+i)),
			AuthorID:  "user-1",
			Content:   "post content",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts?page=2&limit=10", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.PostListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(15), resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Len(t, resp.Posts, 5)
	assert.Equal(t, int64(2), resp.TotalPages)
}

func TestListPosts_BadParamsFallBackToDefaults(t *testing.T) {
	engine, repo := newPostRig()

	require.NoError(t, repo.Create(context.Background(), &domain.Post{
		ID:        "p1",
		AuthorID:  "user-1",
		Content:   "post content",
		CreatedAt: time.Now().UTC(),
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts?page=-3&limit=zero", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.PostListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 10, resp.Limit)
}

func TestDeletePost(t *testing.T) {
	engine, repo := newPostRig()

	require.NoError(t, repo.Create(context.Background(), &domain.Post{
		ID:        "p1",
		AuthorID:  "user-1",
		Content:   "to be removed",
		CreatedAt: time.Now().UTC(),
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/posts/p1", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	_, err := repo.GetByID(context.Background(), "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletePost_WrongAuthor(t *testing.T) {
	engine, repo := newPostRig()

	require.NoError(t, repo.Create(context.Background(), &domain.Post{
		ID:        "p1",
		AuthorID:  "user-1",
		Content:   "someone else's post",
		CreatedAt: time.Now().UTC(),
	}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/posts/p1", nil)
	req.Header.Set(middleware.UserIDHeader, "user-2")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)

	// Still there
	_, err := repo.GetByID(context.Background(), "p1")
	assert.NoError(t, err)
}

func TestDeletePost_NotFound(t *testing.T) {
	engine, _ := newPostRig()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/posts/missing", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
