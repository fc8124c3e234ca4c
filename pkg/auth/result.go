package auth

import (
	"net/url"

	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

// Messages shown on the login page.
const (
	MsgBadCredentials = "Username or Password is incorrect"
	MsgLoggedOut      = "You have been successfully logged out"
	MsgLogoutFailed   = "Logout failed, please try again"
)

// Outcome is the result kind of a login or logout.
// The zero value is Failure.
type Outcome int

const (
	Failure Outcome = iota
	Success
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// Result describes where to send the client after a login or logout.
type Result struct {
	// Session is the created session on successful login, nil otherwise.
	Session        *session.Session
	RedirectTarget string
	Message        string
	Outcome        Outcome
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Outcome == Success
}

// Message returns the login page banner for the query flags set by
// failed logins (?error) and logouts (?logout).
func Message(q url.Values) string {
	switch {
	case q.Has("error"):
		return MsgBadCredentials
	case q.Has("logout"):
		return MsgLoggedOut
	default:
		return ""
	}
}
