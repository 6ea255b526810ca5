// internal/router/router.go
package router

import (
	"context"
	"sync"

	"talent-intake/internal/common/logger"
	"talent-intake/internal/models"
)

// View is one of the mutually exclusive screens of the application.
type View string

const (
	ViewForm          View = "form"
	ViewLogin         View = "login"
	ViewAdmin         View = "admin"
	ViewPublicProfile View = "public-profile"
)

// CandidateFetcher loads one application read-only. A missing id returns nil, nil.
type CandidateFetcher interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
}

// State is what the front end renders.
type State struct {
	View         View                `json:"view"`
	Session      *models.Session     `json:"session,omitempty"`
	Capabilities Capabilities        `json:"capabilities"`
	Candidate    *models.Application `json:"candidate,omitempty"`
	SelectedID   string              `json:"selectedCandidateId,omitempty"`
}

// Router selects the current view from the session, an optional candidate id and user
// navigation. It is safe for concurrent use.
type Router struct {
	fetcher CandidateFetcher
	logger  logger.Logger

	mu        sync.Mutex
	view      View
	session   *models.Session
	candidate *models.Application
	selected  string
}

// New returns a router on the form view for the given session, which may be nil.
func New(fetcher CandidateFetcher, session *models.Session, log logger.Logger) *Router {
	return &Router{
		fetcher: fetcher,
		logger:  logger.ForComponent(log, "router"),
		view:    ViewForm,
		session: session,
	}
}

func (r *Router) stateLocked() State {
	role := models.RoleGuest
	if r.session != nil {
		role = r.session.Role
	}
	return State{
		View:         r.view,
		Session:      r.session,
		Capabilities: CapabilitiesFor(role),
		Candidate:    r.candidate,
		SelectedID:   r.selected,
	}
}

// Current returns the current state.
func (r *Router) Current() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

// Resolve picks the initial view. With a session the candidate id becomes the selected
// row on the admin view. Without one, a candidate id opens its public profile; a missing
// record or a failed fetch falls back to the form.
func (r *Router) Resolve(ctx context.Context, candidateID string) State {
	r.mu.Lock()
	session := r.session
	r.mu.Unlock()

	if session != nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.view = ViewAdmin
		r.candidate = nil
		r.selected = candidateID
		return r.stateLocked()
	}

	if candidateID == "" {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.view = ViewForm
		r.candidate = nil
		return r.stateLocked()
	}

	app, err := r.fetcher.GetApplication(ctx, candidateID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidate = nil
	switch {
	case err != nil:
		r.logger.Warn("public profile unavailable", map[string]interface{}{
			"candidateId": candidateID,
			"error":       err,
		})
		r.view = ViewForm
	case app == nil:
		r.view = ViewForm
	default:
		r.view = ViewPublicProfile
		r.candidate = app
	}
	return r.stateLocked()
}

// Navigate moves to view. The admin view requires a session and redirects to login
// otherwise.
func (r *Router) Navigate(view View) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if view == ViewAdmin && r.session == nil {
		view = ViewLogin
	}
	if view != ViewPublicProfile {
		r.candidate = nil
	}
	if view != ViewAdmin {
		r.selected = ""
	}
	r.view = view
	return r.stateLocked()
}

// LoginSucceeded records the new session and opens the dashboard.
func (r *Router) LoginSucceeded(session *models.Session) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = session
	r.view = ViewAdmin
	r.candidate = nil
	return r.stateLocked()
}

// Logout drops the session and returns to the form.
func (r *Router) Logout() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	r.view = ViewForm
	r.candidate = nil
	r.selected = ""
	return r.stateLocked()
}

// HandleSessionChange applies an event from the session observer. Events for other
// sessions of the same user update the role only.
func (r *Router) HandleSessionChange(event models.SessionEvent) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session == nil || event.UserID != r.session.UserID {
		return r.stateLocked()
	}

	switch event.Type {
	case models.SessionSignedOut:
		if event.SessionID != "" && event.SessionID != r.session.ID {
			break
		}
		r.session = nil
		if r.view == ViewAdmin {
			r.view = ViewForm
			r.selected = ""
		}
	case models.SessionRoleChanged, models.SessionSignedIn:
		if event.Role != "" {
			updated := *r.session
			updated.Role = event.Role
			r.session = &updated
		}
	}
	return r.stateLocked()
}
