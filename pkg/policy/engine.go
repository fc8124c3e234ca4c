package policy

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

// DefaultLoginPath is the login entry point used when none is configured.
const DefaultLoginPath = "/login"

// Default is the outcome for requests no rule matches.
type Default int

const (
	// DefaultDeny rejects unmatched requests.
	DefaultDeny Default = iota
	// DefaultAllow lets unmatched requests through.
	DefaultAllow
)

// String returns the configuration name of the default.
func (d Default) String() string {
	if d == DefaultAllow {
		return "allow"
	}
	return "deny"
}

// Option configures an Engine.
type Option func(*config)

type config struct {
	loginPath    string
	defaultCount int
	def          Default
	noLoginAllow bool
}

// WithDefault sets the outcome for unmatched requests.
// Default: DefaultDeny. Setting it twice is a configuration error.
func WithDefault(d Default) Option {
	return func(c *config) {
		c.def = d
		c.defaultCount++
	}
}

// WithLoginPath sets the login entry point that unauthenticated requests
// are redirected to.
// Default: "/login".
func WithLoginPath(p string) Option {
	return func(c *config) {
		c.loginPath = p
	}
}

// WithoutLoginPermit stops the engine from implicitly allowing the login
// path. Rules must then grant access to it explicitly.
func WithoutLoginPermit() Option {
	return func(c *config) {
		c.noLoginAllow = true
	}
}

// Engine classifies requests against an ordered rule list.
// It is immutable after New and safe for concurrent use.
type Engine struct {
	loginPath   string
	rules       []compiledRule
	def         Default
	permitLogin bool
}

// New compiles rules into an Engine. Rules are evaluated in the given
// order and the first match decides.
//
// Every problem is reported as a *ConfigError wrapping ErrMalformedPattern,
// ErrInvalidRule, ErrDuplicateDefault or ErrInvalidConfig.
//
// Example:
//
//	engine, err := policy.New([]policy.Rule{
//	    policy.Authenticate("/dashboard"),
//	    policy.Permit("/"),
//	    policy.Permit("/holidays/**"),
//	}, policy.WithDefault(policy.DefaultDeny))
func New(rules []Rule, opts ...Option) (*Engine, error) {
	cfg := &config{loginPath: DefaultLoginPath}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.defaultCount > 1 {
		return nil, &ConfigError{Err: ErrDuplicateDefault, Index: -1, Detail: "WithDefault given more than once"}
	}
	if _, kind, detail := parsePattern(cfg.loginPath); detail != "" || kind != matchExact {
		if detail == "" {
			detail = "login path must not contain wildcards"
		}
		return nil, &ConfigError{Err: ErrInvalidConfig, Index: -1, Pattern: cfg.loginPath, Detail: "login path: " + detail}
	}

	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		cr, err := compileRule(i, r)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, cr)
	}

	return &Engine{
		rules:       compiled,
		def:         cfg.def,
		loginPath:   cfg.loginPath,
		permitLogin: !cfg.noLoginAllow,
	}, nil
}

// MustNew is like New but panics on configuration errors.
// Use for rule sets declared in code.
func MustNew(rules []Rule, opts ...Option) *Engine {
	e, err := New(rules, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Request is the input to Evaluate.
type Request struct {
	Session *session.Session // nil = no session
	Method  string           // empty = GET
	Path    string
	Query   string // raw query, preserved for post-login forwarding
}

// FromHTTP builds a Request from an HTTP request and its session, if any.
func FromHTTP(r *http.Request, sess *session.Session) Request {
	return Request{
		Session: sess,
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
	}
}

// Evaluate classifies req. It is a pure function of the rule set and the
// request, never fails and never panics: anything unexpected falls through
// to the configured default.
func (e *Engine) Evaluate(req Request) Decision {
	p := normalizePath(req.Path)
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	if e.permitLogin && p == e.loginPath {
		return Decision{Outcome: Allow, Pattern: e.loginPath, Reason: ReasonLoginPage}
	}

	for i := range e.rules {
		cr := &e.rules[i]
		if !cr.matches(method, p) {
			continue
		}
		return e.decide(cr, req, p)
	}

	if e.def == DefaultAllow {
		return Decision{Outcome: Allow, Reason: ReasonDefaultAllow}
	}
	return Decision{Outcome: Deny, Reason: ReasonDefaultDeny}
}

func (e *Engine) decide(cr *compiledRule, req Request, p string) Decision {
	d := Decision{Pattern: cr.rule.Pattern}

	switch cr.rule.Access {
	case Public:
		d.Outcome, d.Reason = Allow, ReasonPublic
	case Authenticated:
		switch {
		case !req.Session.IsValid():
			d.Outcome, d.Reason = Redirect, ReasonUnauthenticated
			d.Location = e.loginPath
			d.Continue = continueTarget(p, req.Query)
		case !req.Session.HasAnyRole(cr.rule.Roles...):
			d.Outcome, d.Reason = Deny, ReasonMissingRole
		default:
			d.Outcome, d.Reason = Allow, ReasonAuthenticated
		}
	default:
		d.Outcome, d.Reason = Deny, ReasonDenied
	}

	return d
}

// Rules returns a copy of the compiled rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	for i, cr := range e.rules {
		r := cr.rule
		r.Methods = append([]string(nil), r.Methods...)
		r.Roles = append([]string(nil), r.Roles...)
		out[i] = r
	}
	return out
}

// LoginPath returns the login entry point.
func (e *Engine) LoginPath() string {
	return e.loginPath
}

// Default returns the outcome for unmatched requests.
func (e *Engine) Default() Default {
	return e.def
}

// normalizePath makes p absolute and clean, so "/dashboard/" and
// "/x/../dashboard" are matched as "/dashboard".
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

func continueTarget(p, rawQuery string) string {
	target := (&url.URL{Path: p}).EscapedPath()
	if rawQuery == "" {
		return target
	}
	if _, err := url.ParseQuery(rawQuery); err != nil {
		return target
	}
	return target + "?" + rawQuery
}
