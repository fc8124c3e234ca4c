// Package credentials verifies identity/secret pairs against a user store.
//
// Sources:
//
//   - [Memory]: users held in memory with bcrypt hashes, typically loaded
//     with [LoadUsersYAML].
//   - [Postgres]: users in a PostgreSQL table; apply [Migrations] with
//     db.Migrate before use.
//   - [Breaker]: wraps any Source with a sony/gobreaker circuit breaker so a
//     failing store is not hammered on every login attempt.
//
// Every Source reports a wrong password and an unknown identity with the
// same [ErrInvalidCredentials], and store failures with [ErrUnavailable].
// Identities are compared after [NormalizeIdentity].
//
//	users, err := credentials.LoadUsersYAML(f)
//	if err != nil {
//	    return err
//	}
//	src, err := credentials.NewMemory(users...)
package credentials
