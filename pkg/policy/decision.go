package policy

// Outcome is the result kind of an evaluation.
// The zero value is Deny.
type Outcome int

const (
	// Deny rejects the request.
	Deny Outcome = iota
	// Allow lets the request through.
	Allow
	// Redirect sends the client to the login entry point.
	Redirect
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "deny"
	}
}

// Reasons attached to decisions, suitable for logs.
const (
	ReasonLoginPage       = "login page"
	ReasonPublic          = "public"
	ReasonAuthenticated   = "authenticated"
	ReasonUnauthenticated = "authentication required"
	ReasonMissingRole     = "missing role"
	ReasonDenied          = "denied by rule"
	ReasonDefaultAllow    = "default allow"
	ReasonDefaultDeny     = "default deny"
)

// Decision is the outcome of evaluating a request.
type Decision struct {
	// Location is the login path for Redirect decisions.
	Location string
	// Continue is the originally requested path (with query) to forward
	// to after a successful login. Set for Redirect decisions only.
	Continue string
	// Pattern is the pattern of the deciding rule, empty when the default applied.
	Pattern string
	Reason  string
	Outcome Outcome
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}
