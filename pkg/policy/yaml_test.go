package policy_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/gatekeeper/pkg/policy"
)

const siteYAML = `
default: deny
login_path: /login
rules:
  - pattern: /dashboard
    access: authenticated
  - pattern: /admin/**
    access: authenticated
    roles: [ADMIN]
  - pattern: /saveMsg
    access: public
    methods: [post]
  - pattern: /
    access: permit_all
  - pattern: /holidays/**
    access: public
`

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	engine, err := policy.LoadYAML(strings.NewReader(siteYAML))
	require.NoError(t, err)

	rules := engine.Rules()
	require.Len(t, rules, 5)
	require.Equal(t, []string{"POST"}, rules[2].Methods)
	require.Equal(t, []string{"ADMIN"}, rules[1].Roles)

	require.Equal(t, policy.Redirect, engine.Evaluate(policy.Request{Path: "/dashboard"}).Outcome)
	require.Equal(t, policy.Allow, engine.Evaluate(policy.Request{Path: "/holidays/all"}).Outcome)
	require.Equal(t, policy.Allow, engine.Evaluate(policy.Request{Method: "POST", Path: "/saveMsg"}).Outcome)
	require.Equal(t, policy.Deny, engine.Evaluate(policy.Request{Path: "/saveMsg"}).Outcome)
	require.Equal(t, policy.Deny, engine.Evaluate(policy.Request{Path: "/nowhere"}).Outcome)
	require.Equal(t, policy.Allow, engine.Evaluate(policy.Request{Path: "/login"}).Outcome)
}

func TestLoadYAML_DefaultAllow(t *testing.T) {
	t.Parallel()

	engine, err := policy.LoadYAML(strings.NewReader("default: allow\nrules: []\n"))
	require.NoError(t, err)
	require.Equal(t, policy.DefaultAllow, engine.Default())
}

func TestLoadYAML_DuplicateDefaultWithOption(t *testing.T) {
	t.Parallel()

	_, err := policy.LoadYAML(strings.NewReader("default: allow\n"), policy.WithDefault(policy.DefaultDeny))
	require.ErrorIs(t, err, policy.ErrDuplicateDefault)
}

func TestLoadYAML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", "", policy.ErrInvalidConfig},
		{"unknown field", "rulez: []\n", policy.ErrInvalidConfig},
		{"bad default", "default: sometimes\n", policy.ErrInvalidConfig},
		{"bad access", "rules:\n  - pattern: /\n    access: maybe\n", policy.ErrInvalidRule},
		{"bad pattern", "rules:\n  - pattern: /a/**/b\n    access: public\n", policy.ErrMalformedPattern},
		{"bad login path", "login_path: /login/*\n", policy.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := policy.LoadYAML(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, tt.want)
			require.True(t, policy.IsConfigError(err))
		})
	}
}
