package credentials

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations returns the goose migrations creating the users table,
// rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// DB is the subset of pgxpool.Pool used by Postgres.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresOption configures a Postgres source.
type PostgresOption func(*Postgres)

// WithTable overrides the users table name.
// Default: "users".
func WithTable(name string) PostgresOption {
	return func(p *Postgres) {
		p.table = pgx.Identifier{name}.Sanitize()
	}
}

// Postgres is a Source backed by a PostgreSQL users table
// (username, password_hash, roles text[]). Usernames are stored normalized.
type Postgres struct {
	db    DB
	table string
}

// NewPostgres creates a Postgres source.
func NewPostgres(db DB, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db, table: pgx.Identifier{"users"}.Sanitize()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Verify implements Source. Query failures other than a missing row or a
// canceled context are reported as ErrUnavailable.
func (p *Postgres) Verify(ctx context.Context, identity, secret string) ([]string, error) {
	var (
		hash  string
		roles []string
	)

	query := fmt.Sprintf("SELECT password_hash, roles FROM %s WHERE username = $1", p.table)
	err := p.db.QueryRow(ctx, query, NormalizeIdentity(identity)).Scan(&hash, &roles)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_ = compare(dummyHash(), secret)
		return nil, ErrInvalidCredentials
	case errors.Is(err, context.Canceled):
		return nil, err
	case err != nil:
		return nil, errors.Join(ErrUnavailable, err)
	}

	if secret == "" {
		return nil, ErrInvalidCredentials
	}
	if err := compare(hash, secret); err != nil {
		return nil, err
	}
	return slices.Clone(roles), nil
}

// CreateUser inserts u. PasswordHash must be a bcrypt hash.
// Returns ErrDuplicateUser if the username is taken.
func (p *Postgres) CreateUser(ctx context.Context, u User) error {
	identity := NormalizeIdentity(u.Identity)
	if identity == "" {
		return ErrEmptyIdentity
	}
	if !validHash(u.PasswordHash) {
		return ErrInvalidHash
	}

	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}

	query := fmt.Sprintf("INSERT INTO %s (username, password_hash, roles) VALUES ($1, $2, $3)", p.table)
	if _, err := p.db.Exec(ctx, query, identity, u.PasswordHash, roles); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %q", ErrDuplicateUser, u.Identity)
		}
		return errors.Join(ErrCreateUser, err)
	}
	return nil
}

// SeedUsers inserts users, skipping identities that already exist.
func (p *Postgres) SeedUsers(ctx context.Context, users ...User) error {
	for _, u := range users {
		if err := p.CreateUser(ctx, u); err != nil && !errors.Is(err, ErrDuplicateUser) {
			return err
		}
	}
	return nil
}

var _ Source = (*Postgres)(nil)
