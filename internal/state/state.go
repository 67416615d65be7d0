// Package state implements the client-side application state: a single
// state tree with four independently reduced slices (alerts, session,
// profile, posts), updated only by dispatching actions from a closed set.
package state

import (
	"devlink/internal/github"
	"devlink/internal/models"
)

// AlertKind classifies an alert for presentation.
type AlertKind string

const (
	AlertSuccess AlertKind = "success"
	AlertDanger  AlertKind = "danger"
)

// Alert is a transient user-facing notification. Each alert is removed
// automatically a fixed delay after it was added.
type Alert struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Kind    AlertKind `json:"kind"`
}

// Session is the auth slice: the bearer token and the confirmed identity.
type Session struct {
	Token         string       `json:"token"`
	Authenticated bool         `json:"authenticated"`
	Loading       bool         `json:"loading"`
	User          *models.User `json:"user,omitempty"`
}

// ProfileState is the profile slice.
type ProfileState struct {
	Profile  *models.Profile     `json:"profile,omitempty"`
	Profiles []models.Profile    `json:"profiles"`
	Repos    []github.Repository `json:"repos"`
	Loading  bool                `json:"loading"`
	Err      *APIError           `json:"error,omitempty"`
}

// PostsState is the posts slice.
type PostsState struct {
	Posts   []models.Post `json:"posts"`
	Post    *models.Post  `json:"post,omitempty"`
	Loading bool          `json:"loading"`
	Err     *APIError     `json:"error,omitempty"`
}

// State is the full application state tree.
type State struct {
	Alerts  []Alert      `json:"alerts"`
	Session Session      `json:"session"`
	Profile ProfileState `json:"profile"`
	Posts   PostsState   `json:"posts"`
}

func initialState() State {
	return State{
		Session: Session{Loading: true},
		Profile: ProfileState{Loading: true},
		Posts:   PostsState{Loading: true},
	}
}

// Action is one member of the closed set of state transitions. The
// unexported marker keeps the set closed to this package.
type Action interface {
	isAction()
}

// Alert slice actions.
type (
	alertAdded   struct{ alert Alert }
	alertRemoved struct{ id string }
)

// Session slice actions.
type (
	authSucceeded struct{ token string } // register or login
	authFailed    struct{}               // failed login/register/loadUser or a 401/403
	userLoaded    struct{ user *models.User }
	loggedOut     struct{}
)

// Profile slice actions.
type (
	profileLoaded  struct{ profile *models.Profile }
	profilesLoaded struct{ profiles []models.Profile }
	reposLoaded    struct{ repos []github.Repository }
	profileCleared struct{}
	profileErrored struct{ err *APIError }
)

// Posts slice actions.
type (
	postsLoaded    struct{ posts []models.Post }
	postLoaded     struct{ post *models.Post }
	postCreated    struct{ post *models.Post }
	postDeleted    struct{ id uint }
	likesUpdated   struct {
		postID uint
		likes  []models.Like
	}
	commentsUpdated struct {
		postID   uint
		comments []models.Comment
	}
	postsErrored struct{ err *APIError }
)

func (alertAdded) isAction()      {}
func (alertRemoved) isAction()    {}
func (authSucceeded) isAction()   {}
func (authFailed) isAction()      {}
func (userLoaded) isAction()      {}
func (loggedOut) isAction()       {}
func (profileLoaded) isAction()   {}
func (profilesLoaded) isAction()  {}
func (reposLoaded) isAction()     {}
func (profileCleared) isAction()  {}
func (profileErrored) isAction()  {}
func (postsLoaded) isAction()     {}
func (postLoaded) isAction()      {}
func (postCreated) isAction()     {}
func (postDeleted) isAction()     {}
func (likesUpdated) isAction()    {}
func (commentsUpdated) isAction() {}
func (postsErrored) isAction()    {}

// reduce produces the next state. Reducers never mutate the previous
// state's slices; every change is applied to a copy.
func reduce(prev State, action Action) State {
	return State{
		Alerts:  reduceAlerts(prev.Alerts, action),
		Session: reduceSession(prev.Session, action),
		Profile: reduceProfile(prev.Profile, action),
		Posts:   reducePosts(prev.Posts, action),
	}
}

func reduceAlerts(prev []Alert, action Action) []Alert {
	switch a := action.(type) {
	case alertAdded:
		next := make([]Alert, 0, len(prev)+1)
		next = append(next, prev...)
		return append(next, a.alert)
	case alertRemoved:
		next := make([]Alert, 0, len(prev))
		for _, al := range prev {
			if al.ID != a.id {
				next = append(next, al)
			}
		}
		return next
	default:
		return prev
	}
}

func reduceSession(prev Session, action Action) Session {
	switch a := action.(type) {
	case authSucceeded:
		return Session{Token: a.token, Authenticated: true, Loading: false, User: prev.User}
	case userLoaded:
		return Session{Token: prev.Token, Authenticated: true, Loading: false, User: a.user}
	case authFailed, loggedOut:
		return Session{}
	default:
		return prev
	}
}

func reduceProfile(prev ProfileState, action Action) ProfileState {
	switch a := action.(type) {
	case profileLoaded:
		return ProfileState{Profile: a.profile, Profiles: prev.Profiles, Repos: prev.Repos}
	case profilesLoaded:
		return ProfileState{Profile: prev.Profile, Profiles: a.profiles, Repos: prev.Repos}
	case reposLoaded:
		return ProfileState{Profile: prev.Profile, Profiles: prev.Profiles, Repos: a.repos}
	case profileCleared, loggedOut, authFailed:
		return ProfileState{}
	case profileErrored:
		return ProfileState{Profiles: prev.Profiles, Repos: prev.Repos, Err: a.err}
	default:
		return prev
	}
}

func reducePosts(prev PostsState, action Action) PostsState {
	switch a := action.(type) {
	case postsLoaded:
		return PostsState{Posts: a.posts}
	case postLoaded:
		return PostsState{Posts: prev.Posts, Post: a.post}
	case postCreated:
		next := make([]models.Post, 0, len(prev.Posts)+1)
		next = append(next, *a.post)
		next = append(next, prev.Posts...)
		return PostsState{Posts: next, Post: prev.Post}
	case postDeleted:
		next := make([]models.Post, 0, len(prev.Posts))
		for _, p := range prev.Posts {
			if p.ID != a.id {
				next = append(next, p)
			}
		}
		return PostsState{Posts: next, Post: prev.Post}
	case likesUpdated:
		next := make([]models.Post, len(prev.Posts))
		copy(next, prev.Posts)
		for i := range next {
			if next[i].ID == a.postID {
				next[i].Likes = a.likes
			}
		}
		post := prev.Post
		if post != nil && post.ID == a.postID {
			updated := *post
			updated.Likes = a.likes
			post = &updated
		}
		return PostsState{Posts: next, Post: post}
	case commentsUpdated:
		next := make([]models.Post, len(prev.Posts))
		copy(next, prev.Posts)
		for i := range next {
			if next[i].ID == a.postID {
				next[i].Comments = a.comments
			}
		}
		post := prev.Post
		if post != nil && post.ID == a.postID {
			updated := *post
			updated.Comments = a.comments
			post = &updated
		}
		return PostsState{Posts: next, Post: post}
	case loggedOut, authFailed:
		return PostsState{}
	case postsErrored:
		return PostsState{Posts: prev.Posts, Post: prev.Post, Err: a.err}
	default:
		return prev
	}
}
