// Package gatekeeper puts a policy engine and an authenticator in front of
// an HTTP handler.
//
// Every request passes through [Gatekeeper.Middleware]. Requests for a
// non-canonical path (dot segments, repeated or trailing slashes, encoded
// slashes or dots) are redirected to the clean path, or rejected for
// unsafe methods, before anything else happens. The session token is
// read from a signed cookie and resolved through the authenticator, the
// policy engine classifies the request, and the middleware acts on the
// decision:
//
//   - Allow: the request proceeds with the session in its context.
//   - Redirect: the client is sent to the login page; GET and HEAD request
//     URIs are remembered in an encrypted cookie so a successful login can
//     continue there.
//   - Deny: the forbidden handler responds (403 by default).
//
// [Gatekeeper.HandleLogin] and [Gatekeeper.HandleLogout] serve the login
// form submission and logout. [Gatekeeper.Routes] mounts both on a chi
// router:
//
//	engine, err := policy.New(rules)
//	if err != nil {
//	    return err
//	}
//	authn := auth.New(users, session.NewMemoryStore())
//	gk, err := gatekeeper.New(engine, authn, gatekeeper.WithCookieSecret(secret))
//	if err != nil {
//	    return err
//	}
//
//	r := chi.NewRouter()
//	r.Use(gk.Middleware)
//	gk.Routes(r)
//	r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
//	    fmt.Fprintf(w, "hello %s", gatekeeper.Principal(r.Context()))
//	})
//
// [Server] runs the resulting handler with graceful shutdown.
package gatekeeper
