package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/user/expenses-go/apperror"
	"github.com/user/expenses-go/db"
)

// UserStore persists users. Lookups by username are exact, case-sensitive
// matches. Missing rows are reported as NotFound.
type UserStore interface {
	CreateUser(ctx context.Context, username, digest string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id int64) (*User, error)
}

// PostgresUserStore is the pgx implementation of UserStore.
type PostgresUserStore struct {
	db db.DBTX
}

// NewPostgresUserStore creates a store backed by conn.
func NewPostgresUserStore(conn db.DBTX) *PostgresUserStore {
	return &PostgresUserStore{db: conn}
}

var _ UserStore = (*PostgresUserStore)(nil)

// CreateUser inserts a user. A unique violation on username becomes
// DuplicateAccount, which covers two signups racing for the same name.
func (s *PostgresUserStore) CreateUser(ctx context.Context, username, digest string) (*User, error) {
	query := `INSERT INTO users (username, password)
              VALUES ($1, $2)
              RETURNING id, username, password, created_at`

	var user User
	err := s.db.QueryRow(ctx, query, username, digest).
		Scan(&user.ID, &user.Username, &user.PasswordDigest, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == db.PgUniqueViolation {
			return nil, apperror.NewDuplicateAccountError("User already exists", nil)
		}
		return nil, apperror.NewStorageError("failed to create user", err)
	}
	return &user, nil
}

// GetUserByUsername returns the user with exactly this username.
func (s *PostgresUserStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT id, username, password, created_at FROM users WHERE username = $1`
	return s.getOne(ctx, query, username)
}

// GetUserByID returns the user with the given id.
func (s *PostgresUserStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT id, username, password, created_at FROM users WHERE id = $1`
	return s.getOne(ctx, query, id)
}

func (s *PostgresUserStore) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	err := s.db.QueryRow(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.PasswordDigest, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError("user not found", nil)
		}
		return nil, apperror.NewStorageError("failed to get user", err)
	}
	return &user, nil
}
