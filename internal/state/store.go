package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultAlertTimeout is how long an alert stays visible unless the
// caller overrides it.
const DefaultAlertTimeout = 5 * time.Second

// Store holds the application state and is the only mutation path: every
// change goes through dispatch, which reduces each slice in turn.
type Store struct {
	mu          sync.Mutex
	state       State
	client      *Client
	storage     *TokenStorage
	alertTimers map[string]*time.Timer
	subscribers []func(State)
}

// NewStore creates a store backed by the given API base URL and token
// storage. The API client reads the current session token from the store,
// so authenticated calls pick up a fresh login immediately.
func NewStore(baseURL string, storage *TokenStorage) *Store {
	s := &Store{
		state:       initialState(),
		storage:     storage,
		alertTimers: make(map[string]*time.Timer),
	}
	s.client = NewClient(baseURL, s.Token)
	return s
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the current session token.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Session.Token
}

// Subscribe registers a callback invoked with the new state after every
// dispatch. Callbacks run synchronously under the store lock and must not
// dispatch.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) dispatch(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = reduce(s.state, action)
	for _, fn := range s.subscribers {
		fn(s.state)
	}
}

// AddAlert adds a transient alert and schedules its removal. The optional
// timeout overrides DefaultAlertTimeout.
func (s *Store) AddAlert(message string, kind AlertKind, timeout ...time.Duration) string {
	ttl := DefaultAlertTimeout
	if len(timeout) > 0 {
		ttl = timeout[0]
	}

	id := uuid.NewString()
	s.dispatch(alertAdded{alert: Alert{ID: id, Message: message, Kind: kind}})

	s.mu.Lock()
	s.alertTimers[id] = time.AfterFunc(ttl, func() { s.RemoveAlert(id) })
	s.mu.Unlock()

	return id
}

// RemoveAlert dismisses an alert before its timer fires.
func (s *Store) RemoveAlert(id string) {
	s.mu.Lock()
	if t, ok := s.alertTimers[id]; ok {
		t.Stop()
		delete(s.alertTimers, id)
	}
	s.mu.Unlock()

	s.dispatch(alertRemoved{id: id})
}

// alertValidationErrors surfaces one alert per field-level error; failures
// without a field list get a single alert with the server's message.
func (s *Store) alertValidationErrors(err *APIError) {
	if len(err.Errors) == 0 {
		s.AddAlert(err.Message, AlertDanger)
		return
	}
	for _, fe := range err.Errors {
		s.AddAlert(fe.Message, AlertDanger)
	}
}

// persistToken mirrors the token into durable storage, tolerating storage
// failures since the in-memory session still works.
func (s *Store) persistToken(token string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(token); err != nil {
		slog.Warn("failed to persist session token", "error", err)
	}
}

func (s *Store) clearToken() {
	if s.storage == nil {
		return
	}
	if err := s.storage.Clear(); err != nil {
		slog.Warn("failed to clear session token", "error", err)
	}
}

// LoadUser rehydrates the session at startup: reads the stored token, then
// asks the server to confirm the identity. Any failure resets to an
// unauthenticated session.
func (s *Store) LoadUser(ctx context.Context) {
	if s.storage != nil {
		token, err := s.storage.Load()
		if err == nil && token != "" {
			s.dispatch(authSucceeded{token: token})
		}
	}

	if s.Token() == "" {
		s.dispatch(authFailed{})
		return
	}

	user, apiErr := s.client.CurrentUser(ctx)
	if apiErr != nil {
		s.clearToken()
		s.dispatch(authFailed{})
		return
	}
	s.dispatch(userLoaded{user: user})
}

// Register creates an account, stores the session, and confirms the
// identity. Returns false when registration failed.
func (s *Store) Register(ctx context.Context, name, email, password string) bool {
	token, apiErr := s.client.Register(ctx, name, email, password)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(authFailed{})
		return false
	}

	s.persistToken(token)
	s.dispatch(authSucceeded{token: token})
	s.LoadUser(ctx)
	return true
}

// Login authenticates and stores the session.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	token, apiErr := s.client.Login(ctx, email, password)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(authFailed{})
		return false
	}

	s.persistToken(token)
	s.dispatch(authSucceeded{token: token})
	s.LoadUser(ctx)
	return true
}

// Logout clears the session, the stored token, and user-scoped slices.
func (s *Store) Logout() {
	s.clearToken()
	s.dispatch(loggedOut{})
}

// FetchOwnProfile loads the caller's profile. A 404 is an expected state
// (no profile yet), surfaced through the error slot rather than an alert.
func (s *Store) FetchOwnProfile(ctx context.Context) {
	profile, apiErr := s.client.OwnProfile(ctx)
	if apiErr != nil {
		s.dispatch(profileErrored{err: apiErr})
		return
	}
	s.dispatch(profileLoaded{profile: profile})
}

// FetchProfiles loads the public profile directory.
func (s *Store) FetchProfiles(ctx context.Context) {
	profiles, apiErr := s.client.Profiles(ctx)
	if apiErr != nil {
		s.dispatch(profileErrored{err: apiErr})
		return
	}
	s.dispatch(profilesLoaded{profiles: profiles})
}

// FetchProfile loads another user's profile.
func (s *Store) FetchProfile(ctx context.Context, userID uint) {
	profile, apiErr := s.client.ProfileByUser(ctx, userID)
	if apiErr != nil {
		s.dispatch(profileErrored{err: apiErr})
		return
	}
	s.dispatch(profileLoaded{profile: profile})
}

// SaveProfile creates or updates the caller's profile.
func (s *Store) SaveProfile(ctx context.Context, fields ProfileFields, isNew bool) bool {
	profile, apiErr := s.client.UpsertProfile(ctx, fields)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(profileErrored{err: apiErr})
		return false
	}

	s.dispatch(profileLoaded{profile: profile})
	if isNew {
		s.AddAlert("Profile Created", AlertSuccess)
	} else {
		s.AddAlert("Profile Updated", AlertSuccess)
	}
	return true
}

// AddExperience appends a work-history entry to the caller's profile.
func (s *Store) AddExperience(ctx context.Context, entry EntryFields) bool {
	profile, apiErr := s.client.AddExperience(ctx, entry)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(profileErrored{err: apiErr})
		return false
	}
	s.dispatch(profileLoaded{profile: profile})
	s.AddAlert("Experience Added", AlertSuccess)
	return true
}

// RemoveExperience deletes a work-history entry.
func (s *Store) RemoveExperience(ctx context.Context, entryID uint) bool {
	profile, apiErr := s.client.RemoveExperience(ctx, entryID)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(profileErrored{err: apiErr})
		return false
	}
	s.dispatch(profileLoaded{profile: profile})
	s.AddAlert("Experience Removed", AlertSuccess)
	return true
}

// AddEducation appends a schooling entry to the caller's profile.
func (s *Store) AddEducation(ctx context.Context, entry EntryFields) bool {
	profile, apiErr := s.client.AddEducation(ctx, entry)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(profileErrored{err: apiErr})
		return false
	}
	s.dispatch(profileLoaded{profile: profile})
	s.AddAlert("Education Added", AlertSuccess)
	return true
}

// RemoveEducation deletes a schooling entry.
func (s *Store) RemoveEducation(ctx context.Context, entryID uint) bool {
	profile, apiErr := s.client.RemoveEducation(ctx, entryID)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(profileErrored{err: apiErr})
		return false
	}
	s.dispatch(profileLoaded{profile: profile})
	s.AddAlert("Education Removed", AlertSuccess)
	return true
}

// FetchRepos loads a GitHub user's repository list for profile display.
func (s *Store) FetchRepos(ctx context.Context, username string) {
	repos, apiErr := s.client.GithubRepos(ctx, username)
	if apiErr != nil {
		s.dispatch(profileErrored{err: apiErr})
		return
	}
	s.dispatch(reposLoaded{repos: repos})
}

// DeleteAccount removes the account, its profile and posts, then resets
// the session.
func (s *Store) DeleteAccount(ctx context.Context) bool {
	if apiErr := s.client.DeleteAccount(ctx); apiErr != nil {
		s.alertValidationErrors(apiErr)
		return false
	}

	s.clearToken()
	s.dispatch(profileCleared{})
	s.dispatch(loggedOut{})
	s.AddAlert("Your account has been permanently deleted", AlertDanger)
	return true
}

// FetchPosts loads the feed.
func (s *Store) FetchPosts(ctx context.Context) {
	posts, apiErr := s.client.Posts(ctx)
	if apiErr != nil {
		s.dispatch(postsErrored{err: apiErr})
		return
	}
	s.dispatch(postsLoaded{posts: posts})
}

// FetchPost loads one post for detail view.
func (s *Store) FetchPost(ctx context.Context, postID uint) {
	post, apiErr := s.client.Post(ctx, postID)
	if apiErr != nil {
		s.dispatch(postsErrored{err: apiErr})
		return
	}
	s.dispatch(postLoaded{post: post})
}

// CreatePost publishes a post and prepends it to the feed.
func (s *Store) CreatePost(ctx context.Context, text string) bool {
	post, apiErr := s.client.CreatePost(ctx, text)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(postsErrored{err: apiErr})
		return false
	}
	s.dispatch(postCreated{post: post})
	s.AddAlert("Post Created", AlertSuccess)
	return true
}

// DeletePost removes the caller's post from the feed.
func (s *Store) DeletePost(ctx context.Context, postID uint) bool {
	if apiErr := s.client.DeletePost(ctx, postID); apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(postsErrored{err: apiErr})
		return false
	}
	s.dispatch(postDeleted{id: postID})
	s.AddAlert("Post Removed", AlertSuccess)
	return true
}

// LikePost adds the caller's like and reconciles the post's like list.
func (s *Store) LikePost(ctx context.Context, postID uint) {
	likes, apiErr := s.client.Like(ctx, postID)
	if apiErr != nil {
		s.dispatch(postsErrored{err: apiErr})
		return
	}
	s.dispatch(likesUpdated{postID: postID, likes: likes})
}

// UnlikePost removes the caller's like.
func (s *Store) UnlikePost(ctx context.Context, postID uint) {
	likes, apiErr := s.client.Unlike(ctx, postID)
	if apiErr != nil {
		s.dispatch(postsErrored{err: apiErr})
		return
	}
	s.dispatch(likesUpdated{postID: postID, likes: likes})
}

// AddComment adds a comment and reconciles the post's comment list.
func (s *Store) AddComment(ctx context.Context, postID uint, text string) bool {
	comments, apiErr := s.client.AddComment(ctx, postID, text)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(postsErrored{err: apiErr})
		return false
	}
	s.dispatch(commentsUpdated{postID: postID, comments: comments})
	s.AddAlert("Comment Added", AlertSuccess)
	return true
}

// RemoveComment deletes a comment.
func (s *Store) RemoveComment(ctx context.Context, postID, commentID uint) bool {
	comments, apiErr := s.client.RemoveComment(ctx, postID, commentID)
	if apiErr != nil {
		s.alertValidationErrors(apiErr)
		s.dispatch(postsErrored{err: apiErr})
		return false
	}
	s.dispatch(commentsUpdated{postID: postID, comments: comments})
	s.AddAlert("Comment Removed", AlertSuccess)
	return true
}
