// Package session carries the user context mutation operations run under.
// It replaces ambient "who is logged in" state with an explicit value so
// the engine stays deterministic under test.
package session

// Session identifies the user a request acts for. UserID is an opaque
// identifier understood by the remote store; an empty UserID means the
// session is unauthenticated and only local state is touched.
type Session struct {
	UserID string
}

// Authenticated reports whether the session has a user attached.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
