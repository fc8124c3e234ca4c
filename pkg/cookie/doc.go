// Package cookie reads and writes HTTP cookies with shared attributes and
// optional integrity or confidentiality.
//
//	m, err := cookie.New(os.Getenv("COOKIE_SECRET"), cookie.WithSecure(true))
//	if err != nil {
//	    return err
//	}
//
//	// Session token: signed, readable by nothing but this server.
//	_ = m.SetSigned(w, "session", token, 30*24*time.Hour)
//	token, err := m.GetSigned(r, "session")
//
//	// Saved request URI: encrypted, paths are not exposed to the client.
//	_ = m.SetEncrypted(w, "saved_request", "/dashboard?tab=1", 10*time.Minute)
//
// Keys for signing and encryption are derived from the secret with HKDF,
// so one secret serves both. Cookies default to Path=/, HttpOnly and
// SameSite=Lax.
package cookie
