package policy

import (
	"errors"
	"fmt"
)

// Configuration errors. They are fatal and surface only from New and
// ParseYAML, never from Evaluate.
var (
	ErrMalformedPattern = errors.New("policy: malformed path pattern")
	ErrInvalidRule      = errors.New("policy: invalid rule")
	ErrDuplicateDefault = errors.New("policy: default policy configured more than once")
	ErrInvalidConfig    = errors.New("policy: invalid configuration")
)

// ConfigError describes a configuration problem found while building an
// engine. Index is the position of the offending rule, or -1 when the
// problem is not tied to a rule.
type ConfigError struct {
	Err     error
	Pattern string
	Detail  string
	Index   int
}

func (e *ConfigError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("%v: rule #%d %q: %s", e.Err, e.Index, e.Pattern, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func ruleError(err error, index int, pattern, detail string) *ConfigError {
	return &ConfigError{Err: err, Index: index, Pattern: pattern, Detail: detail}
}
