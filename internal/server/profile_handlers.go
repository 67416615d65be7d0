package server

import (
	"errors"
	"log/slog"
	"time"

	"devlink/internal/github"
	"devlink/internal/models"
	"devlink/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// profileRequest uses pointers for the optional scalar fields so an upsert
// only touches the fields the request actually carries. Status and skills are
// required on every upsert; the social handles are rebuilt wholesale.
type profileRequest struct {
	Company   *string `json:"company"`
	Website   *string `json:"website"`
	Location  *string `json:"location"`
	Bio       *string `json:"bio"`
	Status    string  `json:"status"`
	Skills    string  `json:"skills"`
	Github    string  `json:"github"`
	Linkedin  string  `json:"linkedin"`
	Twitter   string  `json:"twitter"`
	Facebook  string  `json:"facebook"`
	Instagram string  `json:"instagram"`
	Youtube   string  `json:"youtube"`
}

type experienceRequest struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Current     bool   `json:"current"`
}

type educationRequest struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"field_of_study"`
	Description  string `json:"description"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Current      bool   `json:"current"`
}

// parseDate accepts both date-only and full RFC 3339 timestamps since
// clients send whichever their date picker produces.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// GetMyProfile handles GET /api/profile/me.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	profile, err := s.profileRepo.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	if profile == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("There is no profile for this user."))
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

// UpsertProfile handles POST /api/profile. Creates the caller's profile or
// applies the supplied fields to the existing one; omitted fields keep their
// stored values, so successive upserts with overlapping field sets merge.
func (s *Server) UpsertProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if errs := validation.Profile(req.Status, req.Skills); len(errs) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, errs)
	}

	profile, err := s.profileRepo.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}

	isNew := profile == nil
	if isNew {
		profile = &models.Profile{UserID: userID}
	}

	if req.Company != nil {
		profile.Company = *req.Company
	}
	if req.Website != nil {
		profile.Website = *req.Website
	}
	if req.Location != nil {
		profile.Location = *req.Location
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	profile.Status = req.Status
	profile.Skills = validation.ParseSkills(req.Skills)
	profile.Social = models.SocialHandles{
		Github:    req.Github,
		Linkedin:  req.Linkedin,
		Twitter:   req.Twitter,
		Facebook:  req.Facebook,
		Instagram: req.Instagram,
		Youtube:   req.Youtube,
	}

	if isNew {
		err = s.profileRepo.Create(c.UserContext(), profile)
	} else {
		err = s.profileRepo.Update(c.UserContext(), profile)
	}
	if err != nil {
		return respondAppError(c, err)
	}

	// Re-read so the response carries the joined user and entry lists.
	saved, err := s.profileRepo.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(saved)
}

// ListProfiles handles GET /api/profile. Public.
func (s *Server) ListProfiles(c *fiber.Ctx) error {
	profiles, err := s.profileRepo.List(c.UserContext())
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(profiles)
}

// GetProfileByUserID handles GET /api/profile/:userId. Public. A malformed
// user id gets the same not-found response as an unknown one.
func (s *Server) GetProfileByUserID(c *fiber.Ctx) error {
	userID, ok := s.parseID(c, "userId", "Profile not found.")
	if !ok {
		return nil
	}

	profile, err := s.profileRepo.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	if profile == nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Profile not found."))
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

// DeleteAccount handles DELETE /api/profile. Removes the caller's posts,
// profile, and user record in that order so a partial failure never leaves
// content pointing at a deleted author.
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	ctx := c.UserContext()

	if err := s.postRepo.DeleteByUserID(ctx, userID); err != nil {
		return respondAppError(c, err)
	}
	if err := s.profileRepo.DeleteByUserID(ctx, userID); err != nil {
		return respondAppError(c, err)
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return respondAppError(c, err)
	}

	slog.InfoContext(ctx, "account deleted", "user_id", userID)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "User deleted."})
}

// requireProfile loads the caller's profile for entry mutations.
func (s *Server) requireProfile(c *fiber.Ctx, userID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return nil, respondAppError(c, err)
	}
	if profile == nil {
		return nil, models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("There is no profile for this user."))
	}
	return profile, nil
}

// AddExperience handles PUT /api/profile/experience.
func (s *Server) AddExperience(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req experienceRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	startDate, hasStart := parseDate(req.StartDate)
	if errs := validation.Experience(req.Title, req.Company, hasStart); len(errs) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, errs)
	}

	profile, err := s.requireProfile(c, userID)
	if profile == nil {
		return err
	}

	entry := &models.Experience{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		Description: req.Description,
		StartDate:   startDate,
		Current:     req.Current,
	}
	if endDate, ok := parseDate(req.EndDate); ok && !req.Current {
		entry.EndDate = &endDate
	}

	if err := s.profileRepo.AddExperience(c.UserContext(), profile, entry); err != nil {
		return respondAppError(c, err)
	}

	return s.respondWithProfile(c, userID)
}

// RemoveExperience handles DELETE /api/profile/experience/:id.
func (s *Server) RemoveExperience(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	entryID, ok := s.parseID(c, "id", "Experience entry not found.")
	if !ok {
		return nil
	}

	profile, err := s.requireProfile(c, userID)
	if profile == nil {
		return err
	}

	if err := s.profileRepo.RemoveExperience(c.UserContext(), profile, entryID); err != nil {
		return respondAppError(c, err)
	}

	return s.respondWithProfile(c, userID)
}

// AddEducation handles PUT /api/profile/education.
func (s *Server) AddEducation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req educationRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	startDate, hasStart := parseDate(req.StartDate)
	if errs := validation.Education(req.School, req.Degree, req.FieldOfStudy, hasStart); len(errs) > 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, errs)
	}

	profile, err := s.requireProfile(c, userID)
	if profile == nil {
		return err
	}

	entry := &models.Education{
		School:       req.School,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		Description:  req.Description,
		StartDate:    startDate,
		Current:      req.Current,
	}
	if endDate, ok := parseDate(req.EndDate); ok && !req.Current {
		entry.EndDate = &endDate
	}

	if err := s.profileRepo.AddEducation(c.UserContext(), profile, entry); err != nil {
		return respondAppError(c, err)
	}

	return s.respondWithProfile(c, userID)
}

// RemoveEducation handles DELETE /api/profile/education/:id.
func (s *Server) RemoveEducation(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	entryID, ok := s.parseID(c, "id", "Education entry not found.")
	if !ok {
		return nil
	}

	profile, err := s.requireProfile(c, userID)
	if profile == nil {
		return err
	}

	if err := s.profileRepo.RemoveEducation(c.UserContext(), profile, entryID); err != nil {
		return respondAppError(c, err)
	}

	return s.respondWithProfile(c, userID)
}

// respondWithProfile returns the caller's fresh profile after a mutation.
func (s *Server) respondWithProfile(c *fiber.Ctx, userID uint) error {
	profile, err := s.profileRepo.GetByUserID(c.UserContext(), userID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(profile)
}

// GetGithubRepos handles GET /api/profile/github/:username. Public. Any
// upstream failure is reported as the username not being found rather than
// leaking GitHub API details.
func (s *Server) GetGithubRepos(c *fiber.Ctx) error {
	username := c.Params("username")

	repos, err := s.github.ListRepositories(c.UserContext(), username)
	if err != nil {
		var notFound *github.ErrUserNotFound
		if errors.As(err, &notFound) {
			return models.RespondWithError(c, fiber.StatusNotFound,
				models.NewNotFoundError(notFound.Error()))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusOK).JSON(repos)
}
