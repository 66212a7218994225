package postgres

import (
	"context"
	"errors"
	"fmt"

	"polychat-backend/internal/models"
	"polychat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

// Querier is the subset of pgx used by the store. *pgxpool.Pool, pgx.Tx and
// pgxmock pools all satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db     Querier
	logger *zap.Logger
}

func NewPostgresStore(db Querier, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (id, email, hashed_password)
VALUES ($1, $2, $3)
RETURNING created_at, updated_at;
`

// CreateUser inserts a new user record into the database.
// Returns store.ErrDuplicate if the email is already registered.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	s.logger.Debug("[PostgresStore] CreateUser called", zap.String("email", user.Email), zap.Stringer("user_id", user.ID))

	err := s.db.QueryRow(ctx, createUser, user.ID, user.Email, user.HashedPassword).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == uniqueViolation {
				return store.ErrDuplicate
			}
			s.logger.Error("[PostgresStore] CreateUser: PostgreSQL error executing insert",
				zap.String("email", user.Email),
				zap.String("code", pgErr.Code),
				zap.String("message", pgErr.Message),
				zap.String("detail", pgErr.Detail),
			)
		} else {
			s.logger.Error("[PostgresStore] CreateUser: Failed to execute insert", zap.String("email", user.Email), zap.Error(err))
		}
		return fmt.Errorf("database error creating user: %w", err)
	}
	return nil
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT id, email, hashed_password, created_at, updated_at
FROM users
WHERE email = $1;
`

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, getUserByEmail, email)
}

const getUserByID = `-- name: GetUserByID :one
SELECT id, email, hashed_password, created_at, updated_at
FROM users
WHERE id = $1;
`

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, getUserByID, id)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		s.logger.Error("[PostgresStore] Failed to query/scan user", zap.Any("key", arg), zap.Error(err))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}
