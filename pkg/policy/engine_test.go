package policy_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/policy"
	"github.com/dmitrymomot/gatekeeper/pkg/session"
)

func newSession(t *testing.T, roles ...string) *session.Session {
	t.Helper()
	s, err := session.New("user", roles, time.Hour)
	require.NoError(t, err)
	return s
}

func TestEngine_Scenario(t *testing.T) {
	t.Parallel()

	engine, err := policy.New([]policy.Rule{
		policy.Permit("/"),
		policy.Authenticate("/dashboard"),
	}, policy.WithDefault(policy.DefaultDeny))
	require.NoError(t, err)

	d := engine.Evaluate(policy.Request{Path: "/"})
	require.Equal(t, policy.Allow, d.Outcome)

	d = engine.Evaluate(policy.Request{Path: "/dashboard"})
	require.Equal(t, policy.Redirect, d.Outcome)
	require.Equal(t, "/login", d.Location)
	require.Equal(t, "/dashboard", d.Continue)

	d = engine.Evaluate(policy.Request{Path: "/unknown"})
	require.Equal(t, policy.Deny, d.Outcome)
	require.Equal(t, policy.ReasonDefaultDeny, d.Reason)
	require.Empty(t, d.Pattern)

	d = engine.Evaluate(policy.Request{Path: "/dashboard", Session: newSession(t, "USER")})
	require.Equal(t, policy.Allow, d.Outcome)
	require.Equal(t, "/dashboard", d.Pattern)
}

func TestEngine_FirstMatchWins(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{
		policy.Authenticate("/admin/**"),
		policy.Permit("/admin/public"),
	})

	d := engine.Evaluate(policy.Request{Path: "/admin/public"})
	require.Equal(t, policy.Redirect, d.Outcome)
	require.Equal(t, "/admin/**", d.Pattern)

	reordered := policy.MustNew([]policy.Rule{
		policy.Permit("/admin/public"),
		policy.Authenticate("/admin/**"),
	})

	d = reordered.Evaluate(policy.Request{Path: "/admin/public"})
	require.Equal(t, policy.Allow, d.Outcome)
	require.Equal(t, "/admin/public", d.Pattern)
}

func TestEngine_PublicIgnoresSession(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{policy.Permit("/about")})

	expired := newSession(t)
	expired.ExpiresAt = time.Now().Add(-time.Minute)

	for _, sess := range []*session.Session{nil, newSession(t), expired} {
		d := engine.Evaluate(policy.Request{Path: "/about", Session: sess})
		require.Equal(t, policy.Allow, d.Outcome)
	}
}

func TestEngine_DeniedIgnoresSession(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{policy.DenyAll("/internal/**")}, policy.WithDefault(policy.DefaultAllow))

	d := engine.Evaluate(policy.Request{Path: "/internal/x", Session: newSession(t, "ADMIN")})
	require.Equal(t, policy.Deny, d.Outcome)
	require.Equal(t, policy.ReasonDenied, d.Reason)
}

func TestEngine_ExpiredSessionIsNoSession(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{policy.Authenticate("/dashboard")})

	sess := newSession(t)
	sess.ExpiresAt = time.Now().Add(-time.Second)

	d := engine.Evaluate(policy.Request{Path: "/dashboard", Session: sess})
	require.Equal(t, policy.Redirect, d.Outcome)
	require.Equal(t, policy.ReasonUnauthenticated, d.Reason)
}

func TestEngine_Roles(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{
		policy.RequireRole("/admin/**", "ADMIN", "OPS"),
		policy.Authenticate("/dashboard"),
	})

	tests := []struct {
		name    string
		path    string
		roles   []string
		outcome policy.Outcome
		reason  string
	}{
		{"admin allowed", "/admin/users", []string{"USER", "ADMIN"}, policy.Allow, policy.ReasonAuthenticated},
		{"any of roles", "/admin", []string{"OPS"}, policy.Allow, policy.ReasonAuthenticated},
		{"missing role", "/admin/users", []string{"USER"}, policy.Deny, policy.ReasonMissingRole},
		{"no roles", "/admin/users", nil, policy.Deny, policy.ReasonMissingRole},
		{"no role needed", "/dashboard", nil, policy.Allow, policy.ReasonAuthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := engine.Evaluate(policy.Request{Path: tt.path, Session: newSession(t, tt.roles...)})
			require.Equal(t, tt.outcome, d.Outcome)
			require.Equal(t, tt.reason, d.Reason)
		})
	}

	d := engine.Evaluate(policy.Request{Path: "/admin/users"})
	require.Equal(t, policy.Redirect, d.Outcome)
}

func TestEngine_Patterns(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{
		policy.Permit("/holidays/**"),
		policy.Permit("/assets/*"),
		policy.Permit("/contact"),
	})

	tests := []struct {
		path    string
		outcome policy.Outcome
	}{
		{"/holidays", policy.Allow},
		{"/holidays/all", policy.Allow},
		{"/holidays/a/b/c", policy.Allow},
		{"/holidaysx", policy.Deny},
		{"/assets/app.css", policy.Allow},
		{"/assets", policy.Deny},
		{"/assets/img/logo.png", policy.Deny},
		{"/contact", policy.Allow},
		{"/contact/", policy.Allow},
		{"/contact/more", policy.Deny},
		{"/x/../contact", policy.Allow},
		{"contact", policy.Allow},
		{"", policy.Deny},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.outcome, engine.Evaluate(policy.Request{Path: tt.path}).Outcome)
		})
	}
}

func TestEngine_RootWildcards(t *testing.T) {
	t.Parallel()

	all := policy.MustNew([]policy.Rule{policy.Permit("/**")})
	require.Equal(t, policy.Allow, all.Evaluate(policy.Request{Path: "/"}).Outcome)
	require.Equal(t, policy.Allow, all.Evaluate(policy.Request{Path: "/a/b"}).Outcome)

	top := policy.MustNew([]policy.Rule{policy.Permit("/*")})
	require.Equal(t, policy.Allow, top.Evaluate(policy.Request{Path: "/about"}).Outcome)
	require.Equal(t, policy.Deny, top.Evaluate(policy.Request{Path: "/"}).Outcome)
	require.Equal(t, policy.Deny, top.Evaluate(policy.Request{Path: "/a/b"}).Outcome)
}

func TestEngine_Methods(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{
		policy.Permit("/saveMsg", http.MethodPost),
		policy.DenyAll("/saveMsg"),
	})

	require.Equal(t, policy.Allow, engine.Evaluate(policy.Request{Method: "post", Path: "/saveMsg"}).Outcome)
	require.Equal(t, policy.Deny, engine.Evaluate(policy.Request{Method: http.MethodGet, Path: "/saveMsg"}).Outcome)
	require.Equal(t, policy.Deny, engine.Evaluate(policy.Request{Path: "/saveMsg"}).Outcome)
}

func TestEngine_Default(t *testing.T) {
	t.Parallel()

	deny := policy.MustNew(nil)
	require.Equal(t, policy.DefaultDeny, deny.Default())
	require.Equal(t, policy.Deny, deny.Evaluate(policy.Request{Path: "/anything"}).Outcome)

	allow := policy.MustNew(nil, policy.WithDefault(policy.DefaultAllow))
	d := allow.Evaluate(policy.Request{Path: "/anything"})
	require.Equal(t, policy.Allow, d.Outcome)
	require.Equal(t, policy.ReasonDefaultAllow, d.Reason)
}

func TestEngine_LoginPath(t *testing.T) {
	t.Parallel()

	t.Run("implicitly allowed", func(t *testing.T) {
		t.Parallel()

		engine := policy.MustNew([]policy.Rule{policy.Authenticate("/**")})
		d := engine.Evaluate(policy.Request{Path: "/login"})
		require.Equal(t, policy.Allow, d.Outcome)
		require.Equal(t, policy.ReasonLoginPage, d.Reason)

		d = engine.Evaluate(policy.Request{Path: "/dashboard"})
		require.Equal(t, policy.Redirect, d.Outcome)
		require.Equal(t, "/login", d.Location)
	})

	t.Run("custom path", func(t *testing.T) {
		t.Parallel()

		engine := policy.MustNew([]policy.Rule{policy.Authenticate("/**")}, policy.WithLoginPath("/signin"))
		require.Equal(t, "/signin", engine.LoginPath())
		require.Equal(t, policy.Allow, engine.Evaluate(policy.Request{Path: "/signin"}).Outcome)

		d := engine.Evaluate(policy.Request{Path: "/x"})
		require.Equal(t, "/signin", d.Location)
	})

	t.Run("without permit", func(t *testing.T) {
		t.Parallel()

		engine := policy.MustNew(nil, policy.WithoutLoginPermit())
		require.Equal(t, policy.Deny, engine.Evaluate(policy.Request{Path: "/login"}).Outcome)
	})
}

func TestEngine_ContinueKeepsQuery(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{policy.Authenticate("/dashboard")})

	req := httptest.NewRequest(http.MethodGet, "/dashboard/?tab=messages", nil)
	d := engine.Evaluate(policy.FromHTTP(req, nil))
	require.Equal(t, policy.Redirect, d.Outcome)
	require.Equal(t, "/dashboard?tab=messages", d.Continue)
}

func TestEngine_ContinueIsEscaped(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{policy.Authenticate("/notes/**")})

	req := httptest.NewRequest(http.MethodGet, "/notes/a%20b/c%3Fd?x=1", nil)
	d := engine.Evaluate(policy.FromHTTP(req, nil))
	require.Equal(t, policy.Redirect, d.Outcome)
	require.Equal(t, "/notes/a%20b/c%3Fd?x=1", d.Continue)
}

func TestEngine_ConcurrentEvaluate(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{
		policy.Permit("/"),
		policy.RequireRole("/admin/**", "ADMIN"),
	})
	admin := newSession(t, "ADMIN")

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			assert.Equal(t, policy.Allow, engine.Evaluate(policy.Request{Path: "/"}).Outcome)
			assert.Equal(t, policy.Allow, engine.Evaluate(policy.Request{Path: "/admin/x", Session: admin}).Outcome)
			assert.Equal(t, policy.Redirect, engine.Evaluate(policy.Request{Path: "/admin/x"}).Outcome)
		})
	}
	wg.Wait()
}

func TestNew_ConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		rules []policy.Rule
		opts  []policy.Option
		want  error
	}{
		{"empty pattern", []policy.Rule{policy.Permit("")}, nil, policy.ErrMalformedPattern},
		{"relative pattern", []policy.Rule{policy.Permit("admin")}, nil, policy.ErrMalformedPattern},
		{"inner wildcard", []policy.Rule{policy.Permit("/a/*/b")}, nil, policy.ErrMalformedPattern},
		{"partial wildcard", []policy.Rule{policy.Permit("/a/b*")}, nil, policy.ErrMalformedPattern},
		{"trailing slash", []policy.Rule{policy.Permit("/a/")}, nil, policy.ErrMalformedPattern},
		{"dot segment", []policy.Rule{policy.Permit("/a/../b")}, nil, policy.ErrMalformedPattern},
		{"query", []policy.Rule{policy.Permit("/a?x=1")}, nil, policy.ErrMalformedPattern},
		{"no access", []policy.Rule{{Pattern: "/a"}}, nil, policy.ErrInvalidRule},
		{"roles on public", []policy.Rule{{Pattern: "/a", Access: policy.Public, Roles: []string{"ADMIN"}}}, nil, policy.ErrInvalidRule},
		{"empty role", []policy.Rule{policy.RequireRole("/a", " ")}, nil, policy.ErrInvalidRule},
		{"unknown method", []policy.Rule{policy.Permit("/a", "FETCH")}, nil, policy.ErrInvalidRule},
		{"duplicate default", nil, []policy.Option{policy.WithDefault(policy.DefaultDeny), policy.WithDefault(policy.DefaultAllow)}, policy.ErrDuplicateDefault},
		{"wildcard login path", nil, []policy.Option{policy.WithLoginPath("/login/**")}, policy.ErrInvalidConfig},
		{"relative login path", nil, []policy.Option{policy.WithLoginPath("login")}, policy.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine, err := policy.New(tt.rules, tt.opts...)
			require.Nil(t, engine)
			require.ErrorIs(t, err, tt.want)
			require.True(t, policy.IsConfigError(err))
		})
	}
}

func TestNew_ConfigErrorIndex(t *testing.T) {
	t.Parallel()

	_, err := policy.New([]policy.Rule{
		policy.Permit("/"),
		policy.Permit("/a/**/b"),
	})

	var ce *policy.ConfigError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, 1, ce.Index)
	require.Equal(t, "/a/**/b", ce.Pattern)
	require.Contains(t, ce.Error(), "rule #1")
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		policy.MustNew([]policy.Rule{policy.Permit("bad")})
	})
}

func TestEngine_RulesIsCopy(t *testing.T) {
	t.Parallel()

	engine := policy.MustNew([]policy.Rule{policy.RequireRole("/admin/**", "ADMIN")})

	rules := engine.Rules()
	require.Len(t, rules, 1)
	rules[0].Roles[0] = "USER"

	d := engine.Evaluate(policy.Request{Path: "/admin", Session: newSession(t, "USER")})
	require.Equal(t, policy.Deny, d.Outcome)
}

func TestParseAccess(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]policy.Access{
		"public":        policy.Public,
		"PERMIT_ALL":    policy.Public,
		"authenticated": policy.Authenticated,
		" denied ":      policy.Denied,
		"deny_all":      policy.Denied,
	} {
		got, err := policy.ParseAccess(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := policy.ParseAccess("maybe")
	require.ErrorIs(t, err, policy.ErrInvalidRule)
}
