package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/coderooms-server/internal/store"
)

const memoryPath = ":memory:"

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file, or ":memory:".
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		return Migrate(context.Background(), db)
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to seed data or apply a custom schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// An in-memory database lives in a single connection.
	if dbPath == memoryPath {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(4)
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func dsn(dbPath string) string {
	return dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ==== RoomStore implementation ====

// CreateRoom inserts a new room.
func (s *SQLiteStore) CreateRoom(ctx context.Context, room *store.Room) error {
	query := `
		INSERT INTO rooms (id, name, slug, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, room.ID, room.Name, room.Slug, room.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert room %q: %w", room.Slug, store.ErrConflict)
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// GetRoomByID retrieves a room by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id string) (*store.Room, error) {
	return s.getRoom(ctx, `SELECT id, name, slug, created_at FROM rooms WHERE id = ?`, id)
}

// GetRoomBySlug retrieves a room by slug.
func (s *SQLiteStore) GetRoomBySlug(ctx context.Context, slug string) (*store.Room, error) {
	return s.getRoom(ctx, `SELECT id, name, slug, created_at FROM rooms WHERE slug = ?`, slug)
}

// GetRoomByName retrieves the oldest room with the given name.
func (s *SQLiteStore) GetRoomByName(ctx context.Context, name string) (*store.Room, error) {
	return s.getRoom(ctx, `
		SELECT id, name, slug, created_at
		FROM rooms
		WHERE name = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, name)
}

func (s *SQLiteStore) getRoom(ctx context.Context, query string, arg string) (*store.Room, error) {
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&room.ID,
		&room.Name,
		&room.Slug,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %q: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &room, nil
}

// ListRooms lists all rooms sorted by name.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	query := `
		SELECT id, name, slug, created_at
		FROM rooms
		ORDER BY name ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*store.Room, 0)
	for rows.Next() {
		var room store.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Slug, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}
	return rooms, rows.Err()
}

// ==== MessageStore implementation ====

// SaveMessage persists a message to storage.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (id, room_id, caption, language, code, author, created_at, ip_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.RoomID, msg.Caption, msg.Language, msg.Code, msg.Author, msg.CreatedAt, msg.OriginHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert message %q: %w", msg.ID, store.ErrConflict)
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	query := `
		SELECT id, room_id, caption, language, code, author, created_at, ip_hash
		FROM messages
		WHERE id = ?
	`
	var msg store.Message
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID, &msg.RoomID, &msg.Caption, &msg.Language, &msg.Code, &msg.Author, &msg.CreatedAt, &msg.OriginHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message %q: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return &msg, nil
}

// ListMessages retrieves messages of a room newer than since, newest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string, since int64, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, room_id, caption, language, code, author, created_at, ip_hash
		FROM messages
		WHERE room_id = ? AND created_at > ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID, &msg.RoomID, &msg.Caption, &msg.Language, &msg.Code, &msg.Author, &msg.CreatedAt, &msg.OriginHash,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// LatestMessageTime returns the newest created_at in a room.
func (s *SQLiteStore) LatestMessageTime(ctx context.Context, roomID string) (int64, error) {
	var latest int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(created_at), 0) FROM messages WHERE room_id = ?`, roomID,
	).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("query latest message: %w", err)
	}
	return latest, nil
}

// DeleteMessage removes a message by ID.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("delete message: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
