// Package session carries the caller's identity and agency through a context.
package session

import "context"

type sessionKey struct{}

// Session describes who is calling and under which agency.
// An empty UserID means no authenticated user.
type Session struct {
	UserID   string
	AgencyID string
	Isolated bool
}

// Authenticated reports whether a user is present
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// UsesRemote reports whether records should go to the shared remote store:
// only authenticated users on non-isolated agencies do
func (s *Session) UsesRemote() bool {
	return s.Authenticated() && !s.Isolated
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session in ctx, or nil
func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	if s, ok := ctx.Value(sessionKey{}).(*Session); ok {
		return s
	}
	return nil
}
