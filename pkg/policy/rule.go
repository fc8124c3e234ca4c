package policy

import (
	"fmt"
	"net/http"
	"path"
	"strings"
)

// Access is the requirement a rule places on matching requests.
type Access int

const (
	// Public requests are always allowed; the session is never consulted.
	Public Access = iota + 1
	// Authenticated requests need a valid session, and one of the rule's
	// roles when any are listed.
	Authenticated
	// Denied requests are always rejected.
	Denied
)

// String returns the configuration name of the access level.
func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case Denied:
		return "denied"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// ParseAccess parses an access level name. Besides the canonical names it
// accepts "permit_all" and "deny_all".
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public", "permit_all", "permitall":
		return Public, nil
	case "authenticated":
		return Authenticated, nil
	case "denied", "deny_all", "denyall":
		return Denied, nil
	default:
		return 0, fmt.Errorf("%w: unknown access %q", ErrInvalidRule, s)
	}
}

// Rule pairs a path pattern with an access requirement.
//
// Pattern is an absolute, clean path. A trailing "/**" segment matches the
// base path and anything beneath it; a trailing "/*" segment matches exactly
// one segment beneath the base. Wildcards are not allowed elsewhere.
type Rule struct {
	Pattern string
	Methods []string // empty = any method
	Roles   []string // any-of, Authenticated rules only
	Access  Access
}

// Permit returns a Public rule for pattern.
func Permit(pattern string, methods ...string) Rule {
	return Rule{Pattern: pattern, Methods: methods, Access: Public}
}

// Authenticate returns an Authenticated rule for pattern.
func Authenticate(pattern string, methods ...string) Rule {
	return Rule{Pattern: pattern, Methods: methods, Access: Authenticated}
}

// RequireRole returns an Authenticated rule for pattern that additionally
// needs one of roles.
func RequireRole(pattern string, roles ...string) Rule {
	return Rule{Pattern: pattern, Roles: roles, Access: Authenticated}
}

// DenyAll returns a Denied rule for pattern.
func DenyAll(pattern string, methods ...string) Rule {
	return Rule{Pattern: pattern, Methods: methods, Access: Denied}
}

type matchKind int

const (
	matchExact matchKind = iota
	matchSubtree
	matchChild
)

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodConnect: {},
	http.MethodOptions: {},
	http.MethodTrace:   {},
}

// compiledRule is a validated Rule ready for matching.
type compiledRule struct {
	methods map[string]struct{}
	rule    Rule
	base    string
	kind    matchKind
}

func compileRule(index int, r Rule) (compiledRule, error) {
	base, kind, detail := parsePattern(r.Pattern)
	if detail != "" {
		return compiledRule{}, ruleError(ErrMalformedPattern, index, r.Pattern, detail)
	}

	switch r.Access {
	case Public, Denied:
		if len(r.Roles) > 0 {
			return compiledRule{}, ruleError(ErrInvalidRule, index, r.Pattern, "roles require authenticated access")
		}
	case Authenticated:
	default:
		return compiledRule{}, ruleError(ErrInvalidRule, index, r.Pattern, "access is not set")
	}

	for _, role := range r.Roles {
		if strings.TrimSpace(role) == "" {
			return compiledRule{}, ruleError(ErrInvalidRule, index, r.Pattern, "empty role name")
		}
	}

	cr := compiledRule{base: base, kind: kind}

	if len(r.Methods) > 0 {
		cr.methods = make(map[string]struct{}, len(r.Methods))
		methods := make([]string, 0, len(r.Methods))
		for _, m := range r.Methods {
			m = strings.ToUpper(strings.TrimSpace(m))
			if _, ok := knownMethods[m]; !ok {
				return compiledRule{}, ruleError(ErrInvalidRule, index, r.Pattern, fmt.Sprintf("unknown method %q", m))
			}
			if _, dup := cr.methods[m]; !dup {
				cr.methods[m] = struct{}{}
				methods = append(methods, m)
			}
		}
		r.Methods = methods
	}

	r.Roles = append([]string(nil), r.Roles...)
	cr.rule = r
	return cr, nil
}

// parsePattern splits a pattern into its literal base and wildcard kind.
// A non-empty detail reports why the pattern is malformed.
func parsePattern(pattern string) (base string, kind matchKind, detail string) {
	switch {
	case pattern == "":
		return "", 0, "empty pattern"
	case !strings.HasPrefix(pattern, "/"):
		return "", 0, "pattern must be an absolute path"
	}

	base, kind = pattern, matchExact
	switch {
	case pattern == "/**":
		base, kind = "/", matchSubtree
	case pattern == "/*":
		base, kind = "/", matchChild
	case strings.HasSuffix(pattern, "/**"):
		base, kind = strings.TrimSuffix(pattern, "/**"), matchSubtree
	case strings.HasSuffix(pattern, "/*"):
		base, kind = strings.TrimSuffix(pattern, "/*"), matchChild
	}

	if strings.Contains(base, "*") {
		return "", 0, "wildcard is only allowed as the last segment"
	}
	if path.Clean(base) != base {
		return "", 0, "pattern must be a clean path (no empty, '.' or '..' segments, no trailing slash)"
	}
	if strings.ContainsAny(base, "?#") {
		return "", 0, "pattern must not contain a query or fragment"
	}

	return base, kind, ""
}

func (c *compiledRule) matches(method, p string) bool {
	if c.methods != nil {
		if _, ok := c.methods[method]; !ok {
			return false
		}
	}

	switch c.kind {
	case matchSubtree:
		return c.base == "/" || p == c.base || strings.HasPrefix(p, c.base+"/")
	case matchChild:
		prefix := c.base + "/"
		if c.base == "/" {
			prefix = "/"
		}
		rest, ok := strings.CutPrefix(p, prefix)
		return ok && rest != "" && !strings.Contains(rest, "/")
	default:
		return p == c.base
	}
}
