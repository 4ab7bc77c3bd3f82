package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vovakirdan/coderooms-server/internal/store"
)

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_rooms_name ON rooms(name);

CREATE TABLE IF NOT EXISTS messages (
	id         TEXT PRIMARY KEY,
	room_id    TEXT NOT NULL REFERENCES rooms(id),
	caption    TEXT NOT NULL DEFAULT '',
	language   TEXT NOT NULL DEFAULT '',
	code       TEXT NOT NULL,
	author     TEXT NOT NULL DEFAULT 'anon',
	created_at BIGINT NOT NULL,
	ip_hash    TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_messages_room_created ON messages(room_id, created_at DESC, id DESC);
`

// PostgresStore implements store.Store on a pgx connection pool.
type PostgresStore struct {
	db *pgxpool.Pool
}

// New connects to databaseURL, verifies the connection and applies the schema.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateRoom inserts a new room. A taken id or slug yields store.ErrConflict.
func (s *PostgresStore) CreateRoom(ctx context.Context, room *store.Room) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO rooms (id, name, slug, created_at) VALUES ($1, $2, $3, $4)`,
		room.ID, room.Name, room.Slug, room.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert room %q: %w", room.Slug, store.ErrConflict)
		}
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// GetRoomByID retrieves a room by ID.
func (s *PostgresStore) GetRoomByID(ctx context.Context, id string) (*store.Room, error) {
	return s.getRoom(ctx, `SELECT id, name, slug, created_at FROM rooms WHERE id=$1`, id)
}

// GetRoomBySlug retrieves a room by slug.
func (s *PostgresStore) GetRoomBySlug(ctx context.Context, slug string) (*store.Room, error) {
	return s.getRoom(ctx, `SELECT id, name, slug, created_at FROM rooms WHERE slug=$1`, slug)
}

// GetRoomByName retrieves the oldest room with the given name.
func (s *PostgresStore) GetRoomByName(ctx context.Context, name string) (*store.Room, error) {
	return s.getRoom(ctx,
		`SELECT id, name, slug, created_at FROM rooms WHERE name=$1 ORDER BY created_at ASC LIMIT 1`, name)
}

func (s *PostgresStore) getRoom(ctx context.Context, query, arg string) (*store.Room, error) {
	var rm store.Room
	err := s.db.QueryRow(ctx, query, arg).Scan(&rm.ID, &rm.Name, &rm.Slug, &rm.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("room %q: %w", arg, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &rm, nil
}

// ListRooms lists all rooms sorted by name.
func (s *PostgresStore) ListRooms(ctx context.Context) ([]*store.Room, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, slug, created_at FROM rooms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]*store.Room, 0)
	for rows.Next() {
		var rm store.Room
		if err := rows.Scan(&rm.ID, &rm.Name, &rm.Slug, &rm.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &rm)
	}
	return rooms, rows.Err()
}

// SaveMessage persists a message. A taken id yields store.ErrConflict.
func (s *PostgresStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (id, room_id, caption, language, code, author, created_at, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		msg.ID, msg.RoomID, msg.Caption, msg.Language, msg.Code, msg.Author, msg.CreatedAt, msg.OriginHash)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert message %q: %w", msg.ID, store.ErrConflict)
		}
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *PostgresStore) GetMessage(ctx context.Context, id string) (*store.Message, error) {
	var msg store.Message
	err := s.db.QueryRow(ctx, `
		SELECT id, room_id, caption, language, code, author, created_at, ip_hash
		FROM messages WHERE id=$1`, id).
		Scan(&msg.ID, &msg.RoomID, &msg.Caption, &msg.Language, &msg.Code, &msg.Author, &msg.CreatedAt, &msg.OriginHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("message %q: %w", id, store.ErrNotFound)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return &msg, nil
}

// ListMessages retrieves messages of a room newer than since, newest first.
func (s *PostgresStore) ListMessages(ctx context.Context, roomID string, since int64, limit int) ([]*store.Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, room_id, caption, language, code, author, created_at, ip_hash
		FROM messages
		WHERE room_id=$1 AND created_at > $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, roomID, since, limit)
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

// LatestMessageTime returns the newest created_at in a room, or 0.
func (s *PostgresStore) LatestMessageTime(ctx context.Context, roomID string) (int64, error) {
	var latest int64
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(created_at), 0) FROM messages WHERE room_id=$1`, roomID).Scan(&latest)
	if err != nil {
		return 0, fmt.Errorf("query latest message: %w", err)
	}
	return latest, nil
}

// DeleteMessage removes a message by ID and reports how many rows went away.
func (s *PostgresStore) DeleteMessage(ctx context.Context, id string) (int64, error) {
	cmd, err := s.db.Exec(ctx, `DELETE FROM messages WHERE id=$1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete message: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
