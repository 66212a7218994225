// Package sqlite is a single-file store backend for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"polychat-backend/internal/models"
	"polychat-backend/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check to ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id              TEXT PRIMARY KEY,
    email           TEXT NOT NULL UNIQUE,
    hashed_password TEXT NOT NULL,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS conversations (
    id             TEXT PRIMARY KEY,
    owner_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title          TEXT NOT NULL,
    model_provider TEXT NOT NULL,
    model_name     TEXT NOT NULL,
    messages       TEXT NOT NULL DEFAULT '[]',
    version        INTEGER NOT NULL DEFAULT 1,
    created_at     INTEGER NOT NULL,
    updated_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversations_owner_updated ON conversations (owner_id, updated_at DESC);
`

// SQLiteStore keeps timestamps as unix nanoseconds and ids as text.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at path with foreign keys enabled.
// Use ":memory:" for an ephemeral database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// A single connection serializes writers and keeps in-memory databases alive.
	db.SetMaxOpenConns(1)
	return db, nil
}

func NewSQLiteStore(db *sql.DB, logger *zap.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, hashed_password, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.Email, user.HashedPassword, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return store.ErrDuplicate
		}
		s.logger.Error("[SQLiteStore] CreateUser: insert failed", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("database error creating user: %w", err)
	}
	user.CreatedAt, user.UpdatedAt = now, now
	return nil
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, email, hashed_password, created_at, updated_at FROM users WHERE email = ?`, email)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, email, hashed_password, created_at, updated_at FROM users WHERE id = ?`, id.String())
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user             models.User
		id               string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&id, &user.Email, &user.HashedPassword, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	user.CreatedAt, user.UpdatedAt = fromNanos(created), fromNanos(updated)
	return &user, nil
}

func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	messages, err := marshalMessages(conv.Messages)
	if err != nil {
		return err
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, owner_id, title, model_provider, model_name, messages, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		conv.ID.String(), conv.OwnerID.String(), conv.Title, string(conv.ModelProvider), conv.ModelName, messages,
		now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		s.logger.Error("[SQLiteStore] CreateConversation: insert failed", zap.Stringer("conversation_id", conv.ID), zap.Error(err))
		return fmt.Errorf("database error creating conversation: %w", err)
	}
	conv.Version, conv.CreatedAt, conv.UpdatedAt = 1, now, now
	return nil
}

func (s *SQLiteStore) GetConversationByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Conversation, error) {
	var (
		conv             models.Conversation
		provider, raw    string
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT title, model_provider, model_name, messages, version, created_at, updated_at
		 FROM conversations WHERE id = ? AND owner_id = ?`,
		id.String(), ownerID.String(),
	).Scan(&conv.Title, &provider, &conv.ModelName, &raw, &conv.Version, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning conversation: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &conv.Messages); err != nil {
		return nil, fmt.Errorf("error unmarshaling messages: %w", err)
	}
	if conv.Messages == nil {
		conv.Messages = []models.Message{}
	}
	conv.ID, conv.OwnerID = id, ownerID
	conv.ModelProvider = models.ModelProvider(provider)
	conv.CreatedAt, conv.UpdatedAt = fromNanos(created), fromNanos(updated)
	return &conv, nil
}

func (s *SQLiteStore) ListConversationSummaries(ctx context.Context, ownerID uuid.UUID) ([]models.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, model_provider, model_name, created_at, updated_at
		 FROM conversations WHERE owner_id = ? ORDER BY updated_at DESC`,
		ownerID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	items := []models.ConversationSummary{}
	for rows.Next() {
		var (
			i                models.ConversationSummary
			id, provider     string
			created, updated int64
		)
		if err := rows.Scan(&id, &i.Title, &provider, &i.ModelName, &created, &updated); err != nil {
			return nil, fmt.Errorf("error scanning conversation summary: %w", err)
		}
		if i.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid conversation id %q: %w", id, err)
		}
		i.ModelProvider = models.ModelProvider(provider)
		i.CreatedAt, i.UpdatedAt = fromNanos(created), fromNanos(updated)
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversation rows: %w", err)
	}
	return items, nil
}

func (s *SQLiteStore) UpdateConversation(ctx context.Context, conv *models.Conversation) error {
	messages, err := marshalMessages(conv.Messages)
	if err != nil {
		return err
	}
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = ?, messages = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND owner_id = ? AND version = ?`,
		conv.Title, messages, now.UnixNano(), conv.ID.String(), conv.OwnerID.String(), conv.Version,
	)
	if err != nil {
		s.logger.Error("[SQLiteStore] UpdateConversation: update failed", zap.Stringer("conversation_id", conv.ID), zap.Error(err))
		return fmt.Errorf("database error updating conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("database error updating conversation: %w", err)
	}
	if affected == 1 {
		conv.Version++
		conv.UpdatedAt = now
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = ? AND owner_id = ?)`,
		conv.ID.String(), conv.OwnerID.String(),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("database error checking conversation: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrConflict
}

func (s *SQLiteStore) DeleteConversation(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND owner_id = ?`, id.String(), ownerID.String())
	if err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func marshalMessages(messages []models.Message) (string, error) {
	if messages == nil {
		messages = []models.Message{}
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("error marshaling messages: %w", err)
	}
	return string(b), nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
