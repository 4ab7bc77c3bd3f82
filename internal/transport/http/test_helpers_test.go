package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderooms-server/internal/auth"
	"github.com/vovakirdan/coderooms-server/internal/config"
	"github.com/vovakirdan/coderooms-server/internal/core"
	"github.com/vovakirdan/coderooms-server/internal/proto"
	"github.com/vovakirdan/coderooms-server/internal/ratelimit"
	"github.com/vovakirdan/coderooms-server/internal/store"
	"github.com/vovakirdan/coderooms-server/internal/store/sqlite"
	"github.com/vovakirdan/coderooms-server/internal/trace"
)

type testServer struct {
	router *gin.Engine
	board  *core.Board
	store  store.Store
}

type testOptions struct {
	adminToken     string
	limiter        ratelimit.Limiter
	maxBodyBytes   int64
	trustedProxies []string
}

const testSalt = "test-salt"

// defaultPeer is the transport address httptest.NewRequest assigns.
const defaultPeer = "192.0.2.1:1234"

// createTestServer builds a router over an in-memory SQLite store.
func createTestServer(t *testing.T, opts testOptions) *testServer {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	admin, err := auth.NewAdminCredential(opts.adminToken)
	if err != nil {
		t.Fatalf("failed to create admin credential: %v", err)
	}

	disabledLogger := zerolog.Nop()
	board := core.NewBoard(st, opts.limiter, trace.NewFingerprinter(testSalt), admin, &disabledLogger)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	if opts.maxBodyBytes != 0 {
		cfg.MaxBodyBytes = opts.maxBodyBytes
	}
	cfg.TrustedProxies = opts.trustedProxies

	return &testServer{
		router: NewRouter(board, &cfg, &disabledLogger),
		board:  board,
		store:  st,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return s.doFrom(t, defaultPeer, method, target, body, headers)
}

// doFrom sends a request arriving from the transport address peer.
func (s *testServer) doFrom(t *testing.T, peer, method, target string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = peer
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *testServer) createRoom(t *testing.T, name string) proto.Room {
	t.Helper()

	resp := s.do(t, http.MethodPost, "/api/rooms", map[string]string{"name": name}, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("create room %q: expected 200, got %d: %s", name, resp.Code, resp.Body.String())
	}
	var room proto.Room
	decode(t, resp, &room)
	return room
}

func decode(t *testing.T, resp *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", resp.Body.String(), err)
	}
}

func expectError(t *testing.T, resp *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	if resp.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, resp.Code, resp.Body.String())
	}
	var body proto.Error
	decode(t, resp, &body)
	if body.Code != code {
		t.Fatalf("expected error code %q, got %q (%s)", code, body.Code, body.Error)
	}
}
