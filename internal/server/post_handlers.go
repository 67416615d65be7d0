package server

import (
	"log/slog"

	"devlink/internal/models"
	"devlink/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Text string `json:"text"`
}

// GetPosts handles GET /api/posts. Newest first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postRepo.List(c.UserContext())
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

// GetPost handles GET /api/posts/:id.
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, ok := s.parseID(c, "id", "Post not found.")
	if !ok {
		return nil
	}

	post, err := s.postRepo.GetByID(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if post == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post not found."))
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

// CreatePost handles POST /api/posts. The author's name and avatar are
// snapshotted onto the post so it survives later account changes.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if errs := validation.PostText(req.Text); len(errs) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, errs)
	}

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(nil))
	}

	post := &models.Post{
		UserID: userID,
		Name:   user.Name,
		Avatar: user.Avatar,
		Text:   req.Text,
	}

	if err := s.postRepo.Create(c.UserContext(), post); err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

// DeletePost handles DELETE /api/posts/:id. Only the author may delete.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	postID, ok := s.parseID(c, "id", "Post not found.")
	if !ok {
		return nil
	}

	post, err := s.postRepo.GetByID(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if post == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post not found."))
	}

	if post.UserID != userID {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("User not authorized."))
	}

	if err := s.postRepo.Delete(c.UserContext(), postID); err != nil {
		return respondAppError(c, err)
	}

	slog.InfoContext(c.UserContext(), "post deleted", "post_id", postID, "user_id", userID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Post removed."})
}

// LikePost handles PUT /api/posts/like/:id. Responds with the post's
// updated like list.
func (s *Server) LikePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	postID, ok := s.parseID(c, "id", "Post not found.")
	if !ok {
		return nil
	}

	post, err := s.postRepo.GetByID(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if post == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post not found."))
	}

	if err := s.postRepo.Like(c.UserContext(), postID, userID); err != nil {
		return respondAppError(c, err)
	}

	return s.respondWithLikes(c, postID)
}

// UnlikePost handles PUT /api/posts/unlike/:id.
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	postID, ok := s.parseID(c, "id", "Post not found.")
	if !ok {
		return nil
	}

	post, err := s.postRepo.GetByID(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if post == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post not found."))
	}

	if err := s.postRepo.Unlike(c.UserContext(), postID, userID); err != nil {
		return respondAppError(c, err)
	}

	return s.respondWithLikes(c, postID)
}

func (s *Server) respondWithLikes(c *fiber.Ctx, postID uint) error {
	likes, err := s.postRepo.Likes(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(likes)
}

// AddComment handles POST /api/posts/:id/comment. Responds with the post's
// updated comment list, newest first.
func (s *Server) AddComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	postID, ok := s.parseID(c, "id", "Post not found.")
	if !ok {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if errs := validation.PostText(req.Text); len(errs) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, errs)
	}

	post, err := s.postRepo.GetByID(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if post == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post not found."))
	}

	user, err := s.userRepo.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(nil))
	}

	comment := &models.Comment{
		PostID: postID,
		UserID: userID,
		Name:   user.Name,
		Avatar: user.Avatar,
		Text:   req.Text,
	}

	if err := s.postRepo.AddComment(c.UserContext(), comment); err != nil {
		return respondAppError(c, err)
	}

	return s.respondWithComments(c, postID)
}

// RemoveComment handles DELETE /api/posts/:id/comment/:commentId. The
// comment's author and the post's author may both remove it.
func (s *Server) RemoveComment(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	postID, ok := s.parseID(c, "id", "Post not found.")
	if !ok {
		return nil
	}
	commentID, ok := s.parseID(c, "commentId", "Comment not found.")
	if !ok {
		return nil
	}

	post, err := s.postRepo.GetByID(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	if post == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Post not found."))
	}

	comment, err := s.postRepo.GetComment(c.UserContext(), postID, commentID)
	if err != nil {
		return respondAppError(c, err)
	}
	if comment == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Comment not found."))
	}

	if comment.UserID != userID && post.UserID != userID {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("User not authorized."))
	}

	if err := s.postRepo.RemoveComment(c.UserContext(), postID, commentID); err != nil {
		return respondAppError(c, err)
	}

	return s.respondWithComments(c, postID)
}

func (s *Server) respondWithComments(c *fiber.Ctx, postID uint) error {
	comments, err := s.postRepo.Comments(c.UserContext(), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(comments)
}
