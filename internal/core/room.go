package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/vovakirdan/coderooms-server/internal/store"
	"github.com/vovakirdan/coderooms-server/internal/utils"
)

// MaxRoomNameLength bounds room display names, in characters.
const MaxRoomNameLength = 80

// Rooms is the room registry. Slugs are unique; creation is idempotent per slug.
type Rooms struct {
	store store.RoomStore
	now   func() time.Time
	group singleflight.Group
}

// NewRooms constructs a registry over st.
func NewRooms(st store.RoomStore) *Rooms {
	return &Rooms{store: st, now: time.Now}
}

type createResult struct {
	room    *store.Room
	created bool
}

// CreateOrGet returns the room whose slug matches name, creating it if needed.
func (r *Rooms) CreateOrGet(ctx context.Context, name string) (*store.Room, error) {
	res, err := r.create(ctx, name)
	if err != nil {
		return nil, err
	}
	return res.room, nil
}

func (r *Rooms) create(ctx context.Context, name string) (createResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return createResult{}, validationError(ErrCodeNameRequired, "room name required")
	}
	if utf8.RuneCountInString(name) > MaxRoomNameLength {
		return createResult{}, validationError(ErrCodeFieldTooLong, fmt.Sprintf("room name too long (max %d chars)", MaxRoomNameLength))
	}
	slug := Slugify(name)
	if slug == "" {
		return createResult{}, validationError(ErrCodeInvalidName, "room name must contain letters or digits")
	}

	// Concurrent creates of one slug in this process share a single insert,
	// so it must not die with whichever caller happened to start it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(slug, func() (any, error) {
		return r.createOrGet(shared, name, slug)
	})
	if err != nil {
		return createResult{}, err
	}
	return v.(createResult), nil
}

func (r *Rooms) createOrGet(ctx context.Context, name, slug string) (createResult, error) {
	existing, err := r.store.GetRoomBySlug(ctx, slug)
	if err == nil {
		return createResult{room: existing}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return createResult{}, storageError(err)
	}

	room := &store.Room{
		ID:        utils.NewID(utils.RoomIDSize),
		Name:      name,
		Slug:      slug,
		CreatedAt: r.now().UnixMilli(),
	}
	if err := r.store.CreateRoom(ctx, room); err != nil {
		if !errors.Is(err, store.ErrConflict) {
			return createResult{}, storageError(err)
		}
		// Lost a race with another writer; return the winner.
		existing, err := r.store.GetRoomBySlug(ctx, slug)
		if err != nil {
			return createResult{}, storageError(err)
		}
		return createResult{room: existing}, nil
	}
	return createResult{room: room, created: true}, nil
}

// List returns all rooms sorted by name.
func (r *Rooms) List(ctx context.Context) ([]*store.Room, error) {
	rooms, err := r.store.ListRooms(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return rooms, nil
}

// Get resolves ref as a room id first, then as a slug.
func (r *Rooms) Get(ctx context.Context, ref string) (*store.Room, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, coreError(KindNotFound, ErrCodeRoomNotFound, "room not found")
	}

	room, err := r.store.GetRoomByID(ctx, ref)
	if err == nil {
		return room, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storageError(err)
	}

	room, err = r.store.GetRoomBySlug(ctx, ref)
	if err == nil {
		return room, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, coreError(KindNotFound, ErrCodeRoomNotFound, "room not found")
	}
	return nil, storageError(err)
}

// Seed creates the configured rooms. Names that already exist verbatim are
// skipped; others go through CreateOrGet. Returns how many rooms were created.
func (r *Rooms) Seed(ctx context.Context, names []string) (int, error) {
	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		_, err := r.store.GetRoomByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, storageError(err)
		}

		res, err := r.create(ctx, name)
		if err != nil {
			return created, fmt.Errorf("seed room %q: %w", name, err)
		}
		if res.created {
			created++
		}
	}
	return created, nil
}
