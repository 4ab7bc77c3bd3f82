package core

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderooms-server/internal/auth"
	"github.com/vovakirdan/coderooms-server/internal/ratelimit"
	"github.com/vovakirdan/coderooms-server/internal/store"
	"github.com/vovakirdan/coderooms-server/internal/trace"
)

// Board sequences rate limiting, validation, fingerprinting and persistence
// for every inbound operation. It holds no state of its own.
type Board struct {
	store    store.Store
	rooms    *Rooms
	messages *Messages
	limiter  ratelimit.Limiter
	tracer   *trace.Fingerprinter
	log      *zerolog.Logger
}

// NewBoard wires the registry and message log over st.
func NewBoard(
	st store.Store,
	limiter ratelimit.Limiter,
	tracer *trace.Fingerprinter,
	admin *auth.AdminCredential,
	logger *zerolog.Logger,
) *Board {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}
	if tracer == nil {
		tracer = trace.NewFingerprinter("")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	rooms := NewRooms(st)
	return &Board{
		store:    st,
		rooms:    rooms,
		messages: NewMessages(st, rooms, admin),
		limiter:  limiter,
		tracer:   tracer,
		log:      logger,
	}
}

// Seed creates the configured default rooms.
func (b *Board) Seed(ctx context.Context, names []string) (int, error) {
	return b.rooms.Seed(ctx, names)
}

// Rooms lists all rooms.
func (b *Board) Rooms(ctx context.Context) ([]*store.Room, error) {
	return b.rooms.List(ctx)
}

// Room resolves a room by id or slug.
func (b *Board) Room(ctx context.Context, ref string) (*store.Room, error) {
	return b.rooms.Get(ctx, ref)
}

// CreateRoom returns the room for name, creating it when its slug is new.
func (b *Board) CreateRoom(ctx context.Context, name string) (*store.Room, error) {
	return b.rooms.CreateOrGet(ctx, name)
}

// Messages lists messages of a room, newest first.
func (b *Board) Messages(ctx context.Context, roomRef string, q Query) ([]*store.Message, error) {
	return b.messages.Query(ctx, roomRef, q)
}

// Post appends a message on behalf of the writer at origin. The rate limit is
// charged before validation, so rejected posts still consume the quota.
func (b *Board) Post(ctx context.Context, origin, roomRef string, post Post) (*store.Message, error) {
	fingerprint := b.tracer.Fingerprint(origin)

	decision, err := b.limiter.Admit(ctx, fingerprint)
	if err != nil {
		return nil, storageError(fmt.Errorf("rate limiter: %w", err))
	}
	if !decision.Allowed {
		b.log.Debug().Str("origin", fingerprint).Dur("retry_after", decision.RetryAfter).Msg("post rate limited")
		return nil, &CoreError{
			Kind:       KindRateLimited,
			Code:       ErrCodeRateLimited,
			Message:    "too many posts, slow down",
			RetryAfter: decision.RetryAfter,
		}
	}

	post.OriginHash = fingerprint
	return b.messages.Append(ctx, roomRef, post)
}

// Delete removes a message with the admin credential. Every attempt is audited.
func (b *Board) Delete(ctx context.Context, origin, messageID, credential string) (int64, error) {
	n, err := b.messages.Delete(ctx, messageID, credential)

	event := b.log.Info()
	if err != nil {
		event = b.log.Warn().Err(err)
	}
	event.
		Str("audit", "delete_message").
		Str("message_id", messageID).
		Str("origin", b.tracer.Fingerprint(origin)).
		Int64("deleted", n).
		Msg("privileged delete attempt")

	return n, err
}

// Inspect returns a message with its origin fingerprint for moderation.
func (b *Board) Inspect(ctx context.Context, origin, messageID, credential string) (*store.Message, error) {
	msg, err := b.messages.Inspect(ctx, messageID, credential)

	event := b.log.Info()
	if err != nil {
		event = b.log.Warn().Err(err)
	}
	event.
		Str("audit", "inspect_message").
		Str("message_id", messageID).
		Str("origin", b.tracer.Fingerprint(origin)).
		Msg("privileged inspect attempt")

	return msg, err
}

// Health reports whether the storage layer is reachable.
func (b *Board) Health(ctx context.Context) error {
	if err := b.store.Ping(ctx); err != nil {
		return storageError(err)
	}
	return nil
}
