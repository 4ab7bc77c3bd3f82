package core

import (
	"context"
	"errors"
	"testing"

	"github.com/vovakirdan/coderooms-server/internal/auth"
	"github.com/vovakirdan/coderooms-server/internal/ratelimit"
	"github.com/vovakirdan/coderooms-server/internal/store"
	"github.com/vovakirdan/coderooms-server/internal/store/sqlite"
	"github.com/vovakirdan/coderooms-server/internal/trace"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestBoard(t *testing.T, limiter ratelimit.Limiter, adminToken string) (*Board, store.Store) {
	t.Helper()

	st := newTestStore(t)
	admin, err := auth.NewAdminCredential(adminToken)
	if err != nil {
		t.Fatalf("failed to create admin credential: %v", err)
	}
	return NewBoard(st, limiter, trace.NewFingerprinter("test-salt"), admin, nil), st
}

func mustRoom(t *testing.T, b *Board, name string) *store.Room {
	t.Helper()

	room, err := b.CreateRoom(context.Background(), name)
	if err != nil {
		t.Fatalf("failed to create room %q: %v", name, err)
	}
	return room
}

func mustKind(t *testing.T, err error, kind Kind) *CoreError {
	t.Helper()

	var ce *CoreError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CoreError of kind %d, got %v", kind, err)
	}
	if ce.Kind != kind {
		t.Fatalf("expected kind %d, got %d (%v)", kind, ce.Kind, err)
	}
	return ce
}

func intPtr(n int) *int { return &n }
