// Package db connects to PostgreSQL through pgxpool and applies goose
// migrations. It backs the PostgreSQL credential source.
//
//	pool, err := db.Connect(ctx, db.Config{URL: os.Getenv("DATABASE_URL"), RetryAttempts: 3})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := db.Migrate(ctx, pool, credentials.Migrations(), "gatekeeper_migrations", log); err != nil {
//	    return err
//	}
//
// Errors are sentinel values joined with the underlying driver error via
// [errors.Join], so both can be matched with [errors.Is].
package db
