package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"explain-it/internal/config"
	"explain-it/internal/game"
	"explain-it/internal/roomcode"
	"explain-it/internal/store"
)

const testSecret = "test-secret"

var (
	ann   = game.Identity{ID: "p1", Name: "Ann"}
	bob   = game.Identity{ID: "p2", Name: "Bob"}
	cid   = game.Identity{ID: "p3", Name: "Cid"}
	admin = game.Identity{ID: "root", Name: "Root", Admin: true}
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecret = testSecret
	alloc, err := roomcode.NewAllocator(roomcode.NewMemoryRegistry(), cfg.RoomCodeDigits, cfg.RoomCodeMaxAttempts)
	if err != nil {
		t.Fatalf("allocator: %v", err)
	}
	mem := store.NewMemory()
	svc := game.NewService(mem, alloc, game.Options{Ledger: mem, LogUpdates: true})
	t.Cleanup(svc.Wait)
	srv := New(svc, cfg, zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func tokenFor(t *testing.T, id game.Identity) string {
	t.Helper()
	token, err := SignToken([]byte(testSecret), id, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, ts *httptest.Server, as *game.Identity, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *as))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func decodeInto(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func assertString(t *testing.T, value any) string {
	t.Helper()
	s, ok := value.(string)
	if !ok {
		t.Fatalf("expected string, got %T", value)
	}
	return s
}

func createGame(t *testing.T, ts *httptest.Server, owner game.Identity, players ...game.Player) game.Created {
	t.Helper()
	resp := doRequest(t, ts, &owner, http.MethodPost, "/api/games", map[string]any{"players": players})
	expectStatus(t, resp, http.StatusCreated)
	var created game.Created
	decodeInto(t, resp, &created)
	return created
}

func getSession(t *testing.T, ts *httptest.Server, as game.Identity, gameID string) game.Session {
	t.Helper()
	resp := doRequest(t, ts, &as, http.MethodGet, "/api/games/"+gameID, nil)
	expectStatus(t, resp, http.StatusOK)
	var session game.Session
	decodeInto(t, resp, &session)
	return session
}
