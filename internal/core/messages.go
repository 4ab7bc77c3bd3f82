package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vovakirdan/coderooms-server/internal/auth"
	"github.com/vovakirdan/coderooms-server/internal/store"
	"github.com/vovakirdan/coderooms-server/internal/utils"
)

// idAttempts bounds regeneration of a message id that collided on insert.
const idAttempts = 3

// roomClock serializes appends to one room and keeps its timestamps strictly increasing.
type roomClock struct {
	mu     sync.Mutex
	loaded bool
	last   int64
}

// Messages is the room-scoped message log.
type Messages struct {
	store store.MessageStore
	rooms *Rooms
	admin *auth.AdminCredential
	now   func() time.Time
	// clocks maps room id to *roomClock. Rooms never share a lock.
	clocks sync.Map
}

// NewMessages constructs the message log. A nil admin credential disables Delete.
func NewMessages(st store.MessageStore, rooms *Rooms, admin *auth.AdminCredential) *Messages {
	return &Messages{
		store: st,
		rooms: rooms,
		admin: admin,
		now:   time.Now,
	}
}

// Append validates post and stores it in the room referenced by roomRef.
func (m *Messages) Append(ctx context.Context, roomRef string, post Post) (*store.Message, error) {
	post, err := post.normalize()
	if err != nil {
		return nil, err
	}

	room, err := m.rooms.Get(ctx, roomRef)
	if err != nil {
		return nil, err
	}

	clock := m.clockFor(room.ID)
	clock.mu.Lock()
	defer clock.mu.Unlock()

	if !clock.loaded {
		latest, err := m.store.LatestMessageTime(ctx, room.ID)
		if err != nil {
			return nil, storageError(err)
		}
		clock.last = latest
		clock.loaded = true
	}

	stamp := m.now().UnixMilli()
	if stamp <= clock.last {
		stamp = clock.last + 1
	}

	msg := &store.Message{
		RoomID:     room.ID,
		Author:     post.Author,
		Caption:    post.Caption,
		Language:   post.Language,
		Code:       post.Code,
		CreatedAt:  stamp,
		OriginHash: post.OriginHash,
	}
	for attempt := 1; ; attempt++ {
		msg.ID = utils.NewID(utils.MessageIDSize)
		err = m.store.SaveMessage(ctx, msg)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConflict) || attempt == idAttempts {
			return nil, storageError(err)
		}
	}

	clock.last = stamp
	return msg, nil
}

func (m *Messages) clockFor(roomID string) *roomClock {
	if c, ok := m.clocks.Load(roomID); ok {
		return c.(*roomClock)
	}
	c, _ := m.clocks.LoadOrStore(roomID, &roomClock{})
	return c.(*roomClock)
}

// Query returns the room's messages newer than q.Since, newest first.
func (m *Messages) Query(ctx context.Context, roomRef string, q Query) ([]*store.Message, error) {
	room, err := m.rooms.Get(ctx, roomRef)
	if err != nil {
		return nil, err
	}

	since := max(q.Since, 0)
	msgs, err := m.store.ListMessages(ctx, room.ID, since, q.EffectiveLimit())
	if err != nil {
		return nil, storageError(err)
	}
	return msgs, nil
}

// Delete removes a message. It always fails with KindForbidden when no admin
// credential is configured, and with KindAuth when credential does not match.
func (m *Messages) Delete(ctx context.Context, messageID, credential string) (int64, error) {
	if err := m.authorize(credential); err != nil {
		return 0, err
	}
	n, err := m.store.DeleteMessage(ctx, messageID)
	if err != nil {
		return 0, storageError(err)
	}
	return n, nil
}

// Inspect returns a stored message including its origin fingerprint.
// It requires the admin credential.
func (m *Messages) Inspect(ctx context.Context, messageID, credential string) (*store.Message, error) {
	if err := m.authorize(credential); err != nil {
		return nil, err
	}
	msg, err := m.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, coreError(KindNotFound, ErrCodeNotFound, "message not found")
		}
		return nil, storageError(err)
	}
	return msg, nil
}

func (m *Messages) authorize(credential string) error {
	err := m.admin.Verify(credential)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrDisabled):
		return coreError(KindForbidden, ErrCodeDeleteDisabled, "privileged operations disabled (no admin token set)")
	default:
		return coreError(KindAuth, ErrCodeUnauthorized, "invalid admin token")
	}
}
