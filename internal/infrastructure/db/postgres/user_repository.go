package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/mapgate/mapgate/internal/core/domain"
)

const userColumns = `id, username, email, password_hash, created_at`

// UserRepository implements ports.CredentialStore on the users table.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// withConn runs fn on a single pooled connection that is always returned to
// the pool afterwards.
func (r *UserRepository) withConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := r.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	defer conn.Close()

	return fn(conn)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

// FindByUsernameOrEmail returns any user holding either identifier.
func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 OR email = $2 LIMIT 1`, username, email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	err := r.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &user, query, args...)
	})
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, domain.ErrUserNotFound
	default:
		return nil, classify(err)
	}
}

// Insert creates the user and returns its id. A unique violation on username
// or email is reported as domain.ErrUserExists.
func (r *UserRepository) Insert(ctx context.Context, username, email, passwordHash string) (int64, error) {
	var id int64
	err := r.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.QueryRowxContext(ctx,
			`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
			username, email, passwordHash,
		).Scan(&id)
	})
	if err != nil {
		return 0, classify(err)
	}
	return id, nil
}

// classify maps a driver error onto the domain. Errors without a server
// SQLSTATE never reached Postgres and count as the store being unavailable;
// data exceptions (22xxx) are the caller's input.
func classify(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%w: db error: %w", domain.ErrStoreUnavailable, err)
	}
	switch {
	case pgErr.Code == pgerrcode.UniqueViolation:
		return domain.ErrUserExists
	case pgerrcode.IsDataException(pgErr.Code):
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	case pgerrcode.IsConnectionException(pgErr.Code),
		pgerrcode.IsOperatorIntervention(pgErr.Code),
		pgerrcode.IsInsufficientResources(pgErr.Code):
		return fmt.Errorf("%w: db error: %w", domain.ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
