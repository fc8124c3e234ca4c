// Package auth implements the login and logout flows on top of a
// credential source and a session store.
//
//	a := auth.New(src, store, auth.WithLogger(log))
//
//	res := a.Login(ctx, auth.Credentials{Identity: "user", Secret: "12345"}, "/dashboard")
//	if res.OK() {
//	    // set res.Session.Token as the session cookie
//	}
//	http.Redirect(w, r, res.RedirectTarget, http.StatusFound)
//
// Failed logins never reveal whether the identity exists: every failure
// carries the same message and redirect target. Verification is bounded by
// a timeout; a source that stops answering turns into a failed login, not
// a hung request.
package auth
