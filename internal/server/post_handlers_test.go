package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"devlink/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestCreatePost(t *testing.T) {
	s, userRepo, _, postRepo := newTestServer(t)
	app := fiber.New()
	app.Post("/api/posts", withUser(3), s.CreatePost)

	userRepo.On("GetByID", mock.Anything, uint(3)).
		Return(&models.User{ID: 3, Name: "Jo Dev", Avatar: "https://example.com/a.png"}, nil)
	postRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *models.Post) bool {
		// Author name and avatar are snapshotted at creation time.
		return p.UserID == 3 && p.Name == "Jo Dev" && p.Avatar == "https://example.com/a.png"
	})).Return(nil)

	resp := postJSON(t, app, "/api/posts", map[string]string{"text": "hello world"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "hello world", body["text"])
	postRepo.AssertExpectations(t)
}

func TestCreatePost_EmptyText(t *testing.T) {
	s, _, _, postRepo := newTestServer(t)
	app := fiber.New()
	app.Post("/api/posts", withUser(3), s.CreatePost)

	resp := postJSON(t, app, "/api/posts", map[string]string{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	postRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeletePost(t *testing.T) {
	post := &models.Post{ID: 5, UserID: 3, Text: "mine"}

	tests := []struct {
		name           string
		userID         uint
		path           string
		mockSetup      func(repo *MockPostRepository)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "Author deletes own post",
			userID: 3,
			path:   "/api/posts/5",
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).Return(post, nil)
				repo.On("Delete", mock.Anything, uint(5)).Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   "Post removed.",
		},
		{
			name:   "Non-author is rejected and the post remains",
			userID: 9,
			path:   "/api/posts/5",
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(5)).Return(post, nil)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "User not authorized.",
		},
		{
			name:   "Missing post",
			userID: 3,
			path:   "/api/posts/99",
			mockSetup: func(repo *MockPostRepository) {
				repo.On("GetByID", mock.Anything, uint(99)).Return(nil, nil)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "Post not found.",
		},
		{
			name:           "Malformed id normalizes to not found",
			userID:         3,
			path:           "/api/posts/abc",
			mockSetup:      func(repo *MockPostRepository) {},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "Post not found.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _, postRepo := newTestServer(t)
			app := fiber.New()
			app.Delete("/api/posts/:id", withUser(tt.userID), s.DeletePost)

			tt.mockSetup(postRepo)

			resp := testRequest(t, app, http.MethodDelete, tt.path)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedBody, body["message"])
			} else {
				assert.Equal(t, tt.expectedBody, body["error"])
				postRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
			}
			postRepo.AssertExpectations(t)
		})
	}
}

func TestLikePost(t *testing.T) {
	post := &models.Post{ID: 5, UserID: 3}

	t.Run("First like succeeds with updated list", func(t *testing.T) {
		s, _, _, postRepo := newTestServer(t)
		app := fiber.New()
		app.Put("/api/posts/like/:id", withUser(9), s.LikePost)

		postRepo.On("GetByID", mock.Anything, uint(5)).Return(post, nil)
		postRepo.On("Like", mock.Anything, uint(5), uint(9)).Return(nil)
		postRepo.On("Likes", mock.Anything, uint(5)).
			Return([]models.Like{{ID: 1, PostID: 5, UserID: 9}}, nil)

		resp := testRequest(t, app, http.MethodPut, "/api/posts/like/5")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		defer func() { _ = resp.Body.Close() }()
		var likes []models.Like
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&likes))
		assert.Len(t, likes, 1)
	})

	t.Run("Second like fails with 400", func(t *testing.T) {
		s, _, _, postRepo := newTestServer(t)
		app := fiber.New()
		app.Put("/api/posts/like/:id", withUser(9), s.LikePost)

		postRepo.On("GetByID", mock.Anything, uint(5)).Return(post, nil)
		postRepo.On("Like", mock.Anything, uint(5), uint(9)).
			Return(models.NewValidationError("Post already liked."))

		resp := testRequest(t, app, http.MethodPut, "/api/posts/like/5")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Post already liked.", decodeBody(t, resp)["error"])
	})
}

func TestUnlikePost_NeverLiked(t *testing.T) {
	s, _, _, postRepo := newTestServer(t)
	app := fiber.New()
	app.Put("/api/posts/unlike/:id", withUser(9), s.UnlikePost)

	postRepo.On("GetByID", mock.Anything, uint(5)).Return(&models.Post{ID: 5}, nil)
	postRepo.On("Unlike", mock.Anything, uint(5), uint(9)).
		Return(models.NewValidationError("Post has not yet been liked."))

	resp := testRequest(t, app, http.MethodPut, "/api/posts/unlike/5")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Post has not yet been liked.", decodeBody(t, resp)["error"])
}

func TestAddComment(t *testing.T) {
	s, userRepo, _, postRepo := newTestServer(t)
	app := fiber.New()
	app.Post("/api/posts/:id/comment", withUser(9), s.AddComment)

	postRepo.On("GetByID", mock.Anything, uint(5)).Return(&models.Post{ID: 5}, nil)
	userRepo.On("GetByID", mock.Anything, uint(9)).
		Return(&models.User{ID: 9, Name: "Sam", Avatar: "a"}, nil)
	postRepo.On("AddComment", mock.Anything, mock.MatchedBy(func(cm *models.Comment) bool {
		return cm.PostID == 5 && cm.UserID == 9 && cm.Name == "Sam"
	})).Return(nil)
	postRepo.On("Comments", mock.Anything, uint(5)).
		Return([]models.Comment{{ID: 2, PostID: 5, UserID: 9, Text: "nice"}}, nil)

	resp := postJSON(t, app, "/api/posts/5/comment", map[string]string{"text": "nice"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	defer func() { _ = resp.Body.Close() }()
	var comments []models.Comment
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&comments))
	assert.Len(t, comments, 1)
	postRepo.AssertExpectations(t)
}

func TestRemoveComment(t *testing.T) {
	post := &models.Post{ID: 5, UserID: 3}
	comment := &models.Comment{ID: 2, PostID: 5, UserID: 9}

	tests := []struct {
		name           string
		userID         uint
		expectedStatus int
	}{
		{"Comment author may remove", 9, http.StatusOK},
		{"Post author may remove", 3, http.StatusOK},
		{"Anyone else is rejected", 7, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _, postRepo := newTestServer(t)
			app := fiber.New()
			app.Delete("/api/posts/:id/comment/:commentId", withUser(tt.userID), s.RemoveComment)

			postRepo.On("GetByID", mock.Anything, uint(5)).Return(post, nil)
			postRepo.On("GetComment", mock.Anything, uint(5), uint(2)).Return(comment, nil)
			if tt.expectedStatus == http.StatusOK {
				postRepo.On("RemoveComment", mock.Anything, uint(5), uint(2)).Return(nil)
				postRepo.On("Comments", mock.Anything, uint(5)).Return([]models.Comment{}, nil)
			}

			resp := testRequest(t, app, http.MethodDelete, "/api/posts/5/comment/2")
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusUnauthorized {
				postRepo.AssertNotCalled(t, "RemoveComment", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGetPosts(t *testing.T) {
	s, _, _, postRepo := newTestServer(t)
	app := fiber.New()
	app.Get("/api/posts", withUser(3), s.GetPosts)

	postRepo.On("List", mock.Anything).Return([]models.Post{
		{ID: 2, Text: "newer"},
		{ID: 1, Text: "older"},
	}, nil)

	resp := testRequest(t, app, http.MethodGet, "/api/posts")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	defer func() { _ = resp.Body.Close() }()
	var posts []models.Post
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&posts))
	require.Len(t, posts, 2)
	assert.Equal(t, "newer", posts[0].Text)
}
