// Package policy decides, for each incoming request, whether it is allowed,
// denied, or must be redirected to the login entry point.
//
// An Engine holds an ordered list of rules. Each rule pairs a path pattern
// (optionally limited to HTTP methods) with an access requirement: Public,
// Authenticated (optionally with any-of roles) or Denied. The first rule
// whose pattern matches decides; later rules are never consulted. When no
// rule matches, the configured default applies (deny unless set otherwise).
//
// Patterns are absolute paths. A trailing "/**" matches the base and its
// whole subtree, a trailing "/*" matches exactly one segment below the base:
//
//	/holidays/**   matches /holidays, /holidays/all, /holidays/a/b
//	/assets/*      matches /assets/app.css, not /assets or /assets/img/x.png
//
// Request paths are cleaned before matching, so "/dashboard/" is evaluated
// as "/dashboard".
//
// The login path itself is always allowed unless WithoutLoginPermit is set,
// so unauthenticated clients can reach the page they are redirected to.
//
// Usage:
//
//	engine, err := policy.New([]policy.Rule{
//	    policy.Permit("/"),
//	    policy.Authenticate("/dashboard"),
//	    policy.RequireRole("/admin/**", "ADMIN"),
//	}, policy.WithDefault(policy.DefaultDeny))
//	if err != nil {
//	    return err
//	}
//
//	d := engine.Evaluate(policy.FromHTTP(r, sess))
//	switch d.Outcome {
//	case policy.Allow:
//	    next.ServeHTTP(w, r)
//	case policy.Redirect:
//	    http.Redirect(w, r, d.Location, http.StatusFound)
//	default:
//	    http.Error(w, "forbidden", http.StatusForbidden)
//	}
//
// Engines can also be loaded from YAML with LoadYAML.
package policy
