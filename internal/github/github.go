// Package github fetches a user's public repositories from the GitHub API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"devlink/internal/middleware"
)

// Repository is the subset of the upstream repository object the API exposes.
type Repository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	HTMLURL     string `json:"html_url"`
	Stargazers  int    `json:"stargazers_count"`
	Watchers    int    `json:"watchers_count"`
	Forks       int    `json:"forks_count"`
	CreatedAt   string `json:"created_at"`
}

// ErrUserNotFound is returned for any upstream failure: from the caller's
// perspective an unreachable or erroring upstream is the same as an unknown
// username.
type ErrUserNotFound struct {
	Username string
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("We couldn't find any user matching '%s'.", e.Username)
}

// Client lists repositories for a username with fixed pagination and
// application credentials. BaseURL is injectable for tests.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient creates a GitHub API client.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

// ListRepositories fetches the user's 5 oldest repositories, sorted by
// creation date ascending.
func (c *Client) ListRepositories(ctx context.Context, username string) ([]Repository, error) {
	q := url.Values{}
	q.Set("per_page", "5")
	q.Set("sort", "created:asc")
	if c.clientID != "" {
		q.Set("client_id", c.clientID)
		q.Set("client_secret", c.clientSecret)
	}
	endpoint := fmt.Sprintf("%s/users/%s/repos?%s", c.baseURL, url.PathEscape(username), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "devlink-api")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		middleware.GithubLookups.WithLabelValues("error").Inc()
		return nil, &ErrUserNotFound{Username: username}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		middleware.GithubLookups.WithLabelValues("not_found").Inc()
		return nil, &ErrUserNotFound{Username: username}
	}

	var repos []Repository
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		middleware.GithubLookups.WithLabelValues("error").Inc()
		return nil, &ErrUserNotFound{Username: username}
	}

	middleware.GithubLookups.WithLabelValues("ok").Inc()
	return repos, nil
}
