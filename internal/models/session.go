package models

import "time"

// Session is an authenticated recruiter session, held in Redis and passed explicitly to consumers.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	Role         UserRole  `json:"role"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// StoredSession is the Redis form of a session; unlike Session it serializes the tokens.
type StoredSession struct {
	Session
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ToStored converts s for storage.
func (s *Session) ToStored() StoredSession {
	return StoredSession{Session: *s, AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

// ToSession restores the tokens onto the embedded session.
func (r StoredSession) ToSession() *Session {
	sess := r.Session
	sess.AccessToken = r.AccessToken
	sess.RefreshToken = r.RefreshToken
	return &sess
}

// IsExpired checks if session has expired
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// SessionEventType names a change in authentication state.
type SessionEventType string

const (
	SessionSignedIn    SessionEventType = "signed_in"
	SessionSignedOut   SessionEventType = "signed_out"
	SessionRoleChanged SessionEventType = "role_changed"
)

// SessionEvent is published whenever a session starts, ends or changes role.
type SessionEvent struct {
	Type      SessionEventType `json:"type"`
	SessionID string           `json:"sessionId,omitempty"`
	UserID    string           `json:"userId"`
	Role      UserRole         `json:"role,omitempty"`
	At        time.Time        `json:"at"`
}
