package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/vovakirdan/coderooms-server/internal/store"
	"github.com/vovakirdan/coderooms-server/internal/utils"
)

// newTestStore connects to CODEROOMS_TEST_POSTGRES_URL or skips.
func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	url := os.Getenv("CODEROOMS_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("CODEROOMS_TEST_POSTGRES_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := New(ctx, url)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresRoomAndMessageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	slug := "pg-" + utils.NewID(8)
	room := &store.Room{ID: utils.NewID(utils.RoomIDSize), Name: slug, Slug: slug, CreatedAt: time.Now().UnixMilli()}
	if err := s.CreateRoom(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	dup := &store.Room{ID: utils.NewID(utils.RoomIDSize), Name: slug, Slug: slug, CreatedAt: room.CreatedAt}
	if err := s.CreateRoom(ctx, dup); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	for i, id := range []string{"a", "b"} {
		msg := &store.Message{
			ID:        room.ID + id,
			RoomID:    room.ID,
			Code:      "print(1)",
			Author:    "anon",
			CreatedAt: int64(10 + i),
		}
		if err := s.SaveMessage(ctx, msg); err != nil {
			t.Fatalf("save message: %v", err)
		}
	}

	got, err := s.ListMessages(ctx, room.ID, 0, 10)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(got) != 2 || got[0].ID != room.ID+"b" {
		t.Fatalf("unexpected messages: %+v", got)
	}

	n, err := s.DeleteMessage(ctx, room.ID+"a")
	if err != nil || n != 1 {
		t.Fatalf("delete: %d, %v", n, err)
	}
}
