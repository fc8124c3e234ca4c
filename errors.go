package gatekeeper

import "errors"

var (
	ErrNoCookies         = errors.New("gatekeeper: cookie manager or secret required")
	ErrNoEngine          = errors.New("gatekeeper: policy engine required")
	ErrNoAuthenticator   = errors.New("gatekeeper: authenticator required")
	ErrLoginPathMismatch = errors.New("gatekeeper: policy and authenticator login paths differ")
	ErrServerRunning     = errors.New("gatekeeper: server already running")
)
