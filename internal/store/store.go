package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint (room slug, record id) is violated.
	ErrConflict = errors.New("conflict")
)

// Room represents a message board room.
type Room struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt int64 // unix milliseconds
}

// Message represents a persisted snippet posted to a room.
type Message struct {
	ID         string
	RoomID     string
	Author     string
	Caption    string
	Language   string
	Code       string
	CreatedAt  int64 // unix milliseconds
	OriginHash string
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom inserts a new room. Returns ErrConflict if the id or slug is taken.
	CreateRoom(ctx context.Context, room *Room) error

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id string) (*Room, error)

	// GetRoomBySlug retrieves a room by its normalized slug.
	GetRoomBySlug(ctx context.Context, slug string) (*Room, error)

	// GetRoomByName retrieves the first room with exactly this name.
	GetRoomByName(ctx context.Context, name string) (*Room, error)

	// ListRooms lists all rooms ordered by name, then id.
	ListRooms(ctx context.Context) ([]*Room, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message in a single statement.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetMessage retrieves a message by ID, including its origin hash.
	GetMessage(ctx context.Context, id string) (*Message, error)

	// ListMessages returns messages of a room created strictly after since,
	// newest first by (created_at, id), at most limit rows.
	ListMessages(ctx context.Context, roomID string, since int64, limit int) ([]*Message, error)

	// LatestMessageTime returns the highest created_at in a room, or 0 when empty.
	LatestMessageTime(ctx context.Context, roomID string) (int64, error)

	// DeleteMessage removes a message and reports how many rows were deleted.
	DeleteMessage(ctx context.Context, id string) (int64, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	RoomStore
	MessageStore

	// Ping checks that the underlying database is reachable.
	Ping(ctx context.Context) error

	// Close closes the underlying database connection.
	Close() error
}
