package policy

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the declarative form of an Engine.
//
//	default: deny
//	login_path: /login
//	rules:
//	  - pattern: /dashboard
//	    access: authenticated
//	  - pattern: /admin/**
//	    access: authenticated
//	    roles: [ADMIN]
//	  - pattern: /saveMsg
//	    access: public
//	    methods: [POST]
type Config struct {
	Default   string       `yaml:"default"`
	LoginPath string       `yaml:"login_path"`
	Rules     []RuleConfig `yaml:"rules"`
}

// RuleConfig is the declarative form of a Rule.
type RuleConfig struct {
	Pattern string   `yaml:"pattern"`
	Access  string   `yaml:"access"`
	Methods []string `yaml:"methods,omitempty"`
	Roles   []string `yaml:"roles,omitempty"`
}

// ParseYAML decodes a policy configuration. Unknown fields are rejected.
func ParseYAML(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ConfigError{Err: ErrInvalidConfig, Index: -1, Detail: "empty document"}
		}
		return nil, &ConfigError{Err: ErrInvalidConfig, Index: -1, Detail: err.Error()}
	}
	return &cfg, nil
}

// Engine builds an Engine from the configuration. Extra options are
// applied after the ones derived from the configuration.
func (c *Config) Engine(opts ...Option) (*Engine, error) {
	rules := make([]Rule, 0, len(c.Rules))
	for i, rc := range c.Rules {
		access, err := ParseAccess(rc.Access)
		if err != nil {
			return nil, ruleError(ErrInvalidRule, i, rc.Pattern, fmt.Sprintf("unknown access %q", rc.Access))
		}
		rules = append(rules, Rule{
			Pattern: rc.Pattern,
			Methods: rc.Methods,
			Roles:   rc.Roles,
			Access:  access,
		})
	}

	var base []Option
	switch strings.ToLower(strings.TrimSpace(c.Default)) {
	case "":
	case "deny", "denied", "deny_all":
		base = append(base, WithDefault(DefaultDeny))
	case "allow", "public", "permit_all":
		base = append(base, WithDefault(DefaultAllow))
	default:
		return nil, &ConfigError{Err: ErrInvalidConfig, Index: -1, Detail: fmt.Sprintf("unknown default %q", c.Default)}
	}
	if c.LoginPath != "" {
		base = append(base, WithLoginPath(c.LoginPath))
	}

	return New(rules, append(base, opts...)...)
}

// LoadYAML parses a configuration and builds an Engine from it.
func LoadYAML(r io.Reader, opts ...Option) (*Engine, error) {
	cfg, err := ParseYAML(r)
	if err != nil {
		return nil, err
	}
	return cfg.Engine(opts...)
}
