// Package internal holds HTTP plumbing shared by the gatekeeper facade:
// session and saved-request cookies, client address extraction and a
// status-recording response writer.
package internal
