package handler

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"dancefloor/internal/app/presence"
	"dancefloor/internal/app/spawn"
	"dancefloor/internal/configs"
	"dancefloor/internal/pkg/errs"
)

const indexHTML = "<!doctype html><title>dance floor</title>"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "static"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "static", "app.js"), []byte("console.log('dance')"), 0o644); err != nil {
		t.Fatalf("write app.js: %v", err)
	}

	cfg := &configs.AppConfig{
		Environment:    "development",
		StaticDir:      dir,
		FloorWidth:     1217,
		FloorHeight:    768,
		SpawnRegion:    spawn.Quad{{X: 340, Y: 490}, {X: 885, Y: 490}, {X: 935, Y: 770}, {X: 280, Y: 770}},
		Avatars:        []string{"a.gif", "b.gif"},
		MaxDisplayName: 64,
	}

	sampler, err := spawn.NewSampler(cfg.SpawnRegion)
	if err != nil {
		t.Fatalf("NewSampler: %v", err)
	}
	catalog, err := presence.NewCatalog(cfg.Avatars)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}

	floor := presence.NewFloor(presence.NewRegistry(presence.RegistryConfig{
		Bounds:         presence.Bounds{Width: cfg.FloorWidth, Height: cfg.FloorHeight},
		Sampler:        sampler,
		Catalog:        catalog,
		MaxDisplayName: cfg.MaxDisplayName,
		Rand:           rand.New(rand.NewPCG(9, 9)),
	}))
	floor.Start()

	ctx, cancel := context.WithCancel(context.Background())
	server := httptest.NewServer(Router(ctx, &AppDeps{Floor: floor, Config: cfg}))

	t.Cleanup(func() {
		floor.Shutdown()
		server.Close()
		cancel()
	})

	return server
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()

	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res.StatusCode, string(body)
}

func TestStaticBundleAndFallback(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/", http.StatusOK, indexHTML},
		{"/static/app.js", http.StatusOK, "console.log('dance')"},
		{"/rooms/disco/floor", http.StatusOK, indexHTML},
		{"/static/missing.js", http.StatusOK, indexHTML},
		{"/ws/anything", http.StatusNotFound, ""},
		{"/api/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, body := get(t, server.URL+tt.path)
			if status != tt.wantStatus {
				t.Fatalf("GET %s status = %d, want %d", tt.path, status, tt.wantStatus)
			}
			if tt.wantBody != "" && body != tt.wantBody {
				t.Fatalf("GET %s body = %q, want %q", tt.path, body, tt.wantBody)
			}
		})
	}
}

func TestStaticRejectsOtherMethods(t *testing.T) {
	server := newTestServer(t)

	res, err := http.Post(server.URL+"/somewhere", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	res.Body.Close()

	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST status = %d, want 405", res.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	status, body := get(t, server.URL+"/health")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}

	var parsed struct {
		Code int `json:"code"`
		Data struct {
			Status       string `json:"status"`
			Participants int    `json:"participants"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	if parsed.Code != 0 || parsed.Data.Status != "ok" || parsed.Data.Participants != 0 {
		t.Fatalf("unexpected health body: %s", body)
	}
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + WebSocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, eventType presence.EventType, payload any) {
	t.Helper()

	msg, err := presence.EncodeEvent(eventType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", eventType, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		t.Fatalf("write %s: %v", eventType, err)
	}
}

func read[T any](t *testing.T, conn *websocket.Conn, want presence.EventType) T {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}

	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read %s: %v", want, err)
	}

	env, err := presence.DecodeEnvelope(msg)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != want {
		t.Fatalf("got %s (%s), want %s", env.Type, env.Payload, want)
	}

	v, err := presence.DecodePayload[T](env)
	if err != nil {
		t.Fatalf("decode %s payload: %v", want, err)
	}
	return v
}

func TestWebSocketSession(t *testing.T) {
	server := newTestServer(t)

	alice := dial(t, server)
	if users := read[[]presence.Participant](t, alice, presence.EventInitialUsers); len(users) != 0 {
		t.Fatalf("initialUsers = %+v, want empty", users)
	}

	send(t, alice, presence.EventJoin, "Alice")
	joined := read[presence.Participant](t, alice, presence.EventNewUser)
	if joined.Name != "Alice" || joined.ID == "" {
		t.Fatalf("newUser = %+v", joined)
	}

	bob := dial(t, server)
	users := read[[]presence.Participant](t, bob, presence.EventInitialUsers)
	if len(users) != 1 || users[0] != joined {
		t.Fatalf("initialUsers = %+v, want [%+v]", users, joined)
	}

	send(t, alice, presence.EventMove, map[string]float64{"x": -50, "y": 2000})
	moved := read[presence.UserMovedPayload](t, bob, presence.EventUserMoved)
	if moved.ID != joined.ID || moved.X != 0 || moved.Y != 768 || moved.AvatarURL != "" {
		t.Fatalf("userMoved = %+v, want %s at (0, 768)", moved, joined.ID)
	}

	send(t, alice, presence.EventChangeAvatar, nil)
	changed := read[presence.UserMovedPayload](t, bob, presence.EventUserMoved)
	if changed.AvatarURL == "" || changed.AvatarURL == joined.AvatarURL {
		t.Fatalf("avatar change = %+v, previous avatar %q", changed, joined.AvatarURL)
	}

	alice.Close()
	if gone := read[string](t, bob, presence.EventUserDisconnected); gone != joined.ID {
		t.Fatalf("userDisconnected = %q, want %q", gone, joined.ID)
	}
}

func TestWebSocketDuplicateJoin(t *testing.T) {
	server := newTestServer(t)

	conn := dial(t, server)
	read[[]presence.Participant](t, conn, presence.EventInitialUsers)

	send(t, conn, presence.EventJoin, "Alice")
	read[presence.Participant](t, conn, presence.EventNewUser)

	send(t, conn, presence.EventJoin, "Alice")
	rejection := read[presence.ErrorPayload](t, conn, presence.EventError)
	if rejection.Code != errs.ErrAlreadyJoined {
		t.Fatalf("error code = %d, want %d", rejection.Code, errs.ErrAlreadyJoined)
	}
}

func TestWebSocketMalformedFrames(t *testing.T) {
	server := newTestServer(t)

	conn := dial(t, server)
	read[[]presence.Participant](t, conn, presence.EventInitialUsers)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if e := read[presence.ErrorPayload](t, conn, presence.EventError); e.Code != errs.ErrInvalidJSONFormat {
		t.Fatalf("error code = %d, want %d", e.Code, errs.ErrInvalidJSONFormat)
	}

	send(t, conn, presence.EventMove, map[string]float64{"x": 10})
	if e := read[presence.ErrorPayload](t, conn, presence.EventError); e.Code != errs.ErrInvalidParams {
		t.Fatalf("error code = %d, want %d", e.Code, errs.ErrInvalidParams)
	}

	// The connection survives bad frames.
	send(t, conn, presence.EventJoin, "Alice")
	read[presence.Participant](t, conn, presence.EventNewUser)
}

func TestParticipantsEndpoint(t *testing.T) {
	server := newTestServer(t)

	conn := dial(t, server)
	read[[]presence.Participant](t, conn, presence.EventInitialUsers)
	send(t, conn, presence.EventJoin, "Alice")
	read[presence.Participant](t, conn, presence.EventNewUser)

	status, body := get(t, server.URL+"/api/participants")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body %s", status, body)
	}

	var parsed struct {
		Data struct {
			Participants []presence.Participant `json:"participants"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		t.Fatalf("decode: %v (%s)", err, body)
	}
	if got := parsed.Data.Participants; len(got) != 1 || got[0].Name != "Alice" {
		t.Fatalf("participants = %+v", got)
	}
}

func TestAPIRateLimited(t *testing.T) {
	server := newTestServer(t)

	limited := false
	for range APIBurst + 5 {
		status, body := get(t, server.URL+"/api/participants")
		if status == http.StatusTooManyRequests {
			if !strings.Contains(body, `"code":1007`) {
				t.Fatalf("429 body = %s, want code 1007", body)
			}
			limited = true
			break
		}
		if status != http.StatusOK {
			t.Fatalf("status = %d, body %s", status, body)
		}
	}

	if !limited {
		t.Fatalf("no request was rate limited after %d calls", APIBurst+5)
	}
}
