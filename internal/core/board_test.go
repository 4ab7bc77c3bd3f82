package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vovakirdan/coderooms-server/internal/ratelimit"
	"github.com/vovakirdan/coderooms-server/internal/trace"
)

type failingLimiter struct{}

func (failingLimiter) Admit(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestBoardRateLimitsThirteenthPost(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	limiter := ratelimit.NewMemoryWithClock(12, time.Minute, clock)
	board, _ := newTestBoard(t, limiter, "")
	ctx := context.Background()
	room := mustRoom(t, board, "lab")

	for i := range 12 {
		if _, err := board.Post(ctx, "203.0.113.7", room.ID, Post{Code: "x"}); err != nil {
			t.Fatalf("post %d: %v", i+1, err)
		}
	}

	_, err := board.Post(ctx, "203.0.113.7", room.ID, Post{Code: "x"})
	ce := mustKind(t, err, KindRateLimited)
	if ce.RetryAfter != time.Minute {
		t.Fatalf("expected retry after 1m, got %v", ce.RetryAfter)
	}

	// A different origin has its own window.
	if _, err := board.Post(ctx, "198.51.100.1", room.ID, Post{Code: "x"}); err != nil {
		t.Fatalf("other origin: %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := board.Post(ctx, "203.0.113.7", room.ID, Post{Code: "x"}); err != nil {
		t.Fatalf("post after rollover: %v", err)
	}
}

func TestBoardInvalidPostConsumesQuota(t *testing.T) {
	limiter := ratelimit.NewMemory(1, time.Minute)
	board, st := newTestBoard(t, limiter, "")
	ctx := context.Background()
	room := mustRoom(t, board, "lab")

	_, err := board.Post(ctx, "203.0.113.7", room.ID, Post{Code: "   "})
	mustKind(t, err, KindValidation)

	_, err = board.Post(ctx, "203.0.113.7", room.ID, Post{Code: "valid"})
	mustKind(t, err, KindRateLimited)

	all, _ := st.ListMessages(ctx, room.ID, 0, MaxLimit)
	if len(all) != 0 {
		t.Fatalf("expected nothing persisted, got %d", len(all))
	}
}

func TestBoardAttachesFingerprint(t *testing.T) {
	board, st := newTestBoard(t, nil, "")
	ctx := context.Background()
	room := mustRoom(t, board, "lab")

	msg, err := board.Post(ctx, "203.0.113.7", room.Slug, Post{Code: "x", OriginHash: "spoofed"})
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	want := trace.NewFingerprinter("test-salt").Fingerprint("203.0.113.7")
	stored, err := st.GetMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if stored.OriginHash != want {
		t.Fatalf("expected fingerprint %s, got %s", want, stored.OriginHash)
	}
}

func TestBoardLimiterFailureIsStorageError(t *testing.T) {
	board, _ := newTestBoard(t, failingLimiter{}, "")
	room := mustRoom(t, board, "lab")

	_, err := board.Post(context.Background(), "203.0.113.7", room.ID, Post{Code: "x"})
	mustKind(t, err, KindStorage)
}

func TestBoardDeleteForbiddenWhenUnconfigured(t *testing.T) {
	board, _ := newTestBoard(t, nil, "")
	ctx := context.Background()
	room := mustRoom(t, board, "lab")
	msg, _ := board.Post(ctx, "203.0.113.7", room.ID, Post{Code: "x"})

	_, err := board.Delete(ctx, "203.0.113.7", msg.ID, "guess")
	mustKind(t, err, KindForbidden)
}

func TestBoardHealth(t *testing.T) {
	board, st := newTestBoard(t, nil, "")
	if err := board.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}

	_ = st.Close()
	mustKind(t, board.Health(context.Background()), KindStorage)
}
