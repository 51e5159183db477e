package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/chatstream/chatstream-server/internal/auth"
	"github.com/chatstream/chatstream-server/internal/config"
	"github.com/chatstream/chatstream-server/internal/core"
	"github.com/chatstream/chatstream-server/internal/proto"
	"github.com/chatstream/chatstream-server/internal/store/sqlite"
)

type testEnv struct {
	ts    *httptest.Server
	store *sqlite.SQLiteStore
	auth  *auth.Service
	hub   *core.Hub
	cfg   *config.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	cfg := config.Default()
	cfg.JWTSecret = "test-secret"
	cfg.WSRateLimit = 0

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Hour,
	})

	logger := zerolog.Nop()
	hub := core.NewHub(st, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := NewServer(hub, authService, st, &cfg, &logger)
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(func() {
		ts.Close()
		cancel()
		st.Close()
	})

	return &testEnv{ts: ts, store: st, auth: authService, hub: hub, cfg: &cfg}
}

// postJSON sends a JSON request and decodes the response body into out.
func (e *testEnv) postJSON(t *testing.T, path string, body, out any) int {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := stdhttp.Post(e.ts.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// postAuthedJSON sends a JSON request with a Bearer token and decodes
// the response body into out.
func (e *testEnv) postAuthedJSON(t *testing.T, path, token string, body, out any) int {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := stdhttp.NewRequest(stdhttp.MethodPost, e.ts.URL+path, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// getJSON sends an authenticated GET and decodes the response body into out.
func (e *testEnv) getJSON(t *testing.T, path, token string, out any) int {
	t.Helper()

	req, err := stdhttp.NewRequest(stdhttp.MethodGet, e.ts.URL+path, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := stdhttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

// registerUser registers a user through the API and returns the token.
func (e *testEnv) registerUser(t *testing.T, username string) string {
	t.Helper()

	var resp AuthResponse
	status := e.postJSON(t, "/api/register", RegisterRequest{Username: username, Password: "password123"}, &resp)
	if status != stdhttp.StatusCreated {
		t.Fatalf("register %s: status %d", username, status)
	}
	if resp.Token == "" {
		t.Fatalf("register %s: empty token", username)
	}
	return resp.Token
}

// dialWS opens a websocket connection authenticated with token.
func (e *testEnv) dialWS(t *testing.T, ctx context.Context, token string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "test done") })
	return conn
}

// wsEnvelope mirrors proto.Outbound with the data left raw for decoding
// per event type.
type wsEnvelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *proto.Error    `json:"error,omitempty"`
}

// sendWS writes one inbound envelope.
func sendWS(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s data: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readEvent reads envelopes until one with the given event name arrives.
// Session-level noise like user_connected is skipped.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) wsEnvelope {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	for {
		var env wsEnvelope
		if err := wsjson.Read(readCtx, conn, &env); err != nil {
			t.Fatalf("waiting for %q: %v", event, err)
		}
		if env.Type == proto.OutboundTypeError {
			t.Fatalf("waiting for %q, got error: %+v", event, env.Error)
		}
		if env.Event == event {
			return env
		}
	}
}

// readErrorEvent reads envelopes until an error envelope arrives,
// skipping regular events.
func readErrorEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) wsEnvelope {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	for {
		var env wsEnvelope
		if err := wsjson.Read(readCtx, conn, &env); err != nil {
			t.Fatalf("waiting for error envelope: %v", err)
		}
		if env.Type == proto.OutboundTypeError {
			return env
		}
	}
}
