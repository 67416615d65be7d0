package state

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"devlink/internal/github"
	"devlink/internal/models"
)

// APIError is a decoded failure response: the HTTP status, the server's
// message, and the field-level list when the server returned one.
type APIError struct {
	Status  int                 `json:"status"`
	Message string              `json:"message"`
	Errors  []models.FieldError `json:"errors,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client is a typed client for the REST API. The token provider is
// consulted per request so a login mid-session takes effect immediately.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
}

// NewClient creates an API client. tokenFn may be nil for anonymous use.
func NewClient(baseURL string, tokenFn func() string) *Client {
	if tokenFn == nil {
		tokenFn = func() string { return "" }
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      tokenFn,
	}
}

// do performs one request and decodes the response into out (when non-nil).
// Non-2xx responses are decoded into an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) *APIError {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &APIError{Status: 0, Message: err.Error()}
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &APIError{Status: 0, Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Status: 0, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &APIError{Status: resp.StatusCode, Message: err.Error()}
		}
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var body struct {
		Error  string              `json:"error"`
		Errors []models.FieldError `json:"errors"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			apiErr.Message = body.Error
		}
		apiErr.Errors = body.Errors
	}
	return apiErr
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenBody struct {
	Token string `json:"token"`
}

// Register creates an account and returns the issued token.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, *APIError) {
	var body tokenBody
	if err := c.do(ctx, http.MethodPost, "/api/users", credentials{Name: name, Email: email, Password: password}, &body); err != nil {
		return "", err
	}
	return body.Token, nil
}

// Login authenticates and returns the issued token.
func (c *Client) Login(ctx context.Context, email, password string) (string, *APIError) {
	var body tokenBody
	if err := c.do(ctx, http.MethodPost, "/api/auth", credentials{Email: email, Password: password}, &body); err != nil {
		return "", err
	}
	return body.Token, nil
}

// CurrentUser fetches the authenticated user's record.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, *APIError) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ProfileFields is the upsert request shape. Skills is the raw
// comma-separated string; the server splits it.
type ProfileFields struct {
	Company   string `json:"company,omitempty"`
	Website   string `json:"website,omitempty"`
	Location  string `json:"location,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Status    string `json:"status"`
	Skills    string `json:"skills"`
	Github    string `json:"github,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Youtube   string `json:"youtube,omitempty"`
}

// EntryFields is the experience/education entry request shape. Unused
// fields are omitted per entry kind.
type EntryFields struct {
	Title        string `json:"title,omitempty"`
	Company      string `json:"company,omitempty"`
	School       string `json:"school,omitempty"`
	Degree       string `json:"degree,omitempty"`
	FieldOfStudy string `json:"field_of_study,omitempty"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date,omitempty"`
	Current      bool   `json:"current"`
}

func (c *Client) OwnProfile(ctx context.Context) (*models.Profile, *APIError) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) Profiles(ctx context.Context) ([]models.Profile, *APIError) {
	var profiles []models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (c *Client) ProfileByUser(ctx context.Context, userID uint) (*models.Profile, *APIError) {
	var profile models.Profile
	path := fmt.Sprintf("/api/profile/%d", userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpsertProfile(ctx context.Context, fields ProfileFields) (*models.Profile, *APIError) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPost, "/api/profile", fields, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) DeleteAccount(ctx context.Context) *APIError {
	return c.do(ctx, http.MethodDelete, "/api/profile", nil, nil)
}

func (c *Client) AddExperience(ctx context.Context, entry EntryFields) (*models.Profile, *APIError) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile/experience", entry, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) RemoveExperience(ctx context.Context, entryID uint) (*models.Profile, *APIError) {
	var profile models.Profile
	path := fmt.Sprintf("/api/profile/experience/%d", entryID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) AddEducation(ctx context.Context, entry EntryFields) (*models.Profile, *APIError) {
	var profile models.Profile
	if err := c.do(ctx, http.MethodPut, "/api/profile/education", entry, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) RemoveEducation(ctx context.Context, entryID uint) (*models.Profile, *APIError) {
	var profile models.Profile
	path := fmt.Sprintf("/api/profile/education/%d", entryID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) GithubRepos(ctx context.Context, username string) ([]github.Repository, *APIError) {
	var repos []github.Repository
	if err := c.do(ctx, http.MethodGet, "/api/profile/github/"+username, nil, &repos); err != nil {
		return nil, err
	}
	return repos, nil
}

type postBody struct {
	Text string `json:"text"`
}

func (c *Client) Posts(ctx context.Context) ([]models.Post, *APIError) {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, "/api/posts", nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) Post(ctx context.Context, postID uint) (*models.Post, *APIError) {
	var post models.Post
	path := fmt.Sprintf("/api/posts/%d", postID)
	if err := c.do(ctx, http.MethodGet, path, nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) CreatePost(ctx context.Context, text string) (*models.Post, *APIError) {
	var post models.Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", postBody{Text: text}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, postID uint) *APIError {
	path := fmt.Sprintf("/api/posts/%d", postID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) Like(ctx context.Context, postID uint) ([]models.Like, *APIError) {
	var likes []models.Like
	path := fmt.Sprintf("/api/posts/like/%d", postID)
	if err := c.do(ctx, http.MethodPut, path, nil, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

func (c *Client) Unlike(ctx context.Context, postID uint) ([]models.Like, *APIError) {
	var likes []models.Like
	path := fmt.Sprintf("/api/posts/unlike/%d", postID)
	if err := c.do(ctx, http.MethodPut, path, nil, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

func (c *Client) AddComment(ctx context.Context, postID uint, text string) ([]models.Comment, *APIError) {
	var comments []models.Comment
	path := fmt.Sprintf("/api/posts/%d/comment", postID)
	if err := c.do(ctx, http.MethodPost, path, postBody{Text: text}, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) RemoveComment(ctx context.Context, postID, commentID uint) ([]models.Comment, *APIError) {
	var comments []models.Comment
	path := fmt.Sprintf("/api/posts/%d/comment/%d", postID, commentID)
	if err := c.do(ctx, http.MethodDelete, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
