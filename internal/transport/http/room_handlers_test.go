package http

import (
	"net/http"
	"testing"

	"github.com/vovakirdan/coderooms-server/internal/core"
	"github.com/vovakirdan/coderooms-server/internal/proto"
)

func TestCreateRoom(t *testing.T) {
	srv := createTestServer(t, testOptions{})

	room := srv.createRoom(t, "BCS Section A")
	if room.Slug != "bcs-section-a" {
		t.Errorf("expected slug 'bcs-section-a', got %q", room.Slug)
	}
	if len(room.ID) != 10 {
		t.Errorf("expected 10-char id, got %q", room.ID)
	}
	if room.CreatedAt == 0 {
		t.Error("expected created_at to be set")
	}

	// Same slug returns the existing room.
	again := srv.createRoom(t, "  bcs section a ")
	if again.ID != room.ID {
		t.Errorf("expected existing room %q, got %q", room.ID, again.ID)
	}

	resp := srv.do(t, http.MethodPost, "/api/rooms", map[string]string{"name": "   "}, nil)
	expectError(t, resp, http.StatusBadRequest, core.ErrCodeNameRequired)

	resp = srv.do(t, http.MethodPost, "/api/rooms", map[string]string{"name": "!!!"}, nil)
	expectError(t, resp, http.StatusBadRequest, core.ErrCodeInvalidName)

	resp = srv.do(t, http.MethodPost, "/api/rooms", "{not json", nil)
	expectError(t, resp, http.StatusBadRequest, errCodeBadRequest)
}

func TestListRooms(t *testing.T) {
	srv := createTestServer(t, testOptions{})

	resp := srv.do(t, http.MethodGet, "/api/rooms", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if body := resp.Body.String(); body != "[]" {
		t.Fatalf("expected empty array, got %s", body)
	}

	srv.createRoom(t, "zeta")
	srv.createRoom(t, "alpha")

	resp = srv.do(t, http.MethodGet, "/api/rooms", nil, nil)
	var rooms []proto.Room
	decode(t, resp, &rooms)
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Name != "alpha" || rooms[1].Name != "zeta" {
		t.Errorf("expected rooms sorted by name, got %q, %q", rooms[0].Name, rooms[1].Name)
	}
}

func TestGetRoom(t *testing.T) {
	srv := createTestServer(t, testOptions{})
	room := srv.createRoom(t, "Go Snippets")

	for _, ref := range []string{room.ID, room.Slug} {
		resp := srv.do(t, http.MethodGet, "/api/rooms/"+ref, nil, nil)
		if resp.Code != http.StatusOK {
			t.Fatalf("get %q: expected 200, got %d", ref, resp.Code)
		}
		var got proto.Room
		decode(t, resp, &got)
		if got.ID != room.ID {
			t.Errorf("get %q: expected %q, got %q", ref, room.ID, got.ID)
		}
	}

	resp := srv.do(t, http.MethodGet, "/api/rooms/missing", nil, nil)
	expectError(t, resp, http.StatusNotFound, core.ErrCodeRoomNotFound)
}

func TestHealthAndRequestID(t *testing.T) {
	srv := createTestServer(t, testOptions{})

	resp := srv.do(t, http.MethodGet, "/api/health", nil, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var health proto.Health
	decode(t, resp, &health)
	if !health.OK || health.APIVersion != proto.APIVersion {
		t.Errorf("unexpected health body %s", resp.Body.String())
	}
	if resp.Header().Get(HeaderRequestID) == "" {
		t.Error("expected generated request id header")
	}

	resp = srv.do(t, http.MethodGet, "/api/health", nil, map[string]string{HeaderRequestID: "abc-123"})
	if got := resp.Header().Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("expected request id to be echoed, got %q", got)
	}
}

func TestHealthReportsStorageFailure(t *testing.T) {
	srv := createTestServer(t, testOptions{})
	_ = srv.store.Close()

	resp := srv.do(t, http.MethodGet, "/api/health", nil, nil)
	expectError(t, resp, http.StatusServiceUnavailable, core.ErrCodeStorage)
}

func TestUnknownRoute(t *testing.T) {
	srv := createTestServer(t, testOptions{})

	resp := srv.do(t, http.MethodGet, "/api/nope", nil, nil)
	expectError(t, resp, http.StatusNotFound, core.ErrCodeNotFound)
}
