package http

import (
	"context"
	stdhttp "net/http"
	"strconv"
	"testing"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := stdhttp.Get(env.ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRegisterLoginGuest(t *testing.T) {
	env := newTestEnv(t)

	token := env.registerUser(t, "alice")
	claims, err := env.auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.DisplayName != "alice" || claims.IsGuest {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// Duplicate registration conflicts.
	var errResp ErrorResponse
	status := env.postJSON(t, "/api/register", RegisterRequest{Username: "alice", Password: "password456"}, &errResp)
	if status != stdhttp.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", status)
	}

	// Wrong password rejected.
	status = env.postJSON(t, "/api/login", LoginRequest{Username: "alice", Password: "wrong"}, &errResp)
	if status != stdhttp.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", status)
	}

	var login AuthResponse
	status = env.postJSON(t, "/api/login", LoginRequest{Username: "alice", Password: "password123"}, &login)
	if status != stdhttp.StatusOK || login.Token == "" {
		t.Fatalf("login status = %d, token %q", status, login.Token)
	}

	var guest AuthResponse
	status = env.postJSON(t, "/api/guest", struct{}{}, &guest)
	if status != stdhttp.StatusCreated {
		t.Fatalf("guest status = %d, want 201", status)
	}
	guestClaims, err := env.auth.ValidateToken(guest.Token)
	if err != nil {
		t.Fatalf("validate guest token: %v", err)
	}
	if !guestClaims.IsGuest {
		t.Fatalf("guest claim not set: %+v", guestClaims)
	}
}

func TestAuthedEndpointsRequireToken(t *testing.T) {
	env := newTestEnv(t)

	if status := env.getJSON(t, "/api/rooms", "", nil); status != stdhttp.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", status)
	}
	if status := env.getJSON(t, "/api/rooms", "garbage", nil); status != stdhttp.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", status)
	}
}

func TestRoomEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token := env.registerUser(t, "alice")
	claims, err := env.auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if _, err := env.store.SaveMessage(ctx, "general", claims.UserID, "hello"); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	var rooms []RoomResponse
	if status := env.getJSON(t, "/api/rooms", token, &rooms); status != stdhttp.StatusOK {
		t.Fatalf("list rooms status = %d", status)
	}
	if len(rooms) != 1 || rooms[0].Name != "general" {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}

	var msgs []MessageResponse
	if status := env.getJSON(t, "/api/rooms/general/messages", token, &msgs); status != stdhttp.StatusOK {
		t.Fatalf("messages status = %d", status)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" || msgs[0].SenderName != "alice" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}

	if status := env.getJSON(t, "/api/rooms/general/messages?limit=0", token, nil); status != stdhttp.StatusBadRequest {
		t.Fatalf("invalid limit should be rejected")
	}
}

func TestStreamEndpoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token := env.registerUser(t, "sara")
	claims, err := env.auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	sess, err := env.store.CreateStreamSession(ctx, claims.UserID, "Show", "desc")
	if err != nil {
		t.Fatalf("seed stream: %v", err)
	}

	var streams []StreamResponse
	if status := env.getJSON(t, "/api/streams", token, &streams); status != stdhttp.StatusOK {
		t.Fatalf("list streams status = %d", status)
	}
	if len(streams) != 1 || streams[0].StreamerName != "sara" || streams[0].Status != "live" {
		t.Fatalf("unexpected streams: %+v", streams)
	}
	if streams[0].ViewerCount != 0 {
		t.Fatalf("fresh stream has viewers: %+v", streams[0])
	}

	var one StreamResponse
	if status := env.getJSON(t, "/api/streams/"+strconv.FormatInt(sess.ID, 10), token, &one); status != stdhttp.StatusOK {
		t.Fatalf("get stream status = %d", status)
	}
	if one.Title != "Show" {
		t.Fatalf("unexpected stream: %+v", one)
	}

	if status := env.getJSON(t, "/api/streams/9999", token, nil); status != stdhttp.StatusNotFound {
		t.Fatalf("missing stream should 404")
	}
}

func TestMeAndRefresh(t *testing.T) {
	env := newTestEnv(t)

	token := env.registerUser(t, "alice")

	var me MeResponse
	if status := env.getJSON(t, "/api/me", token, &me); status != stdhttp.StatusOK {
		t.Fatalf("me status = %d", status)
	}
	if me.DisplayName != "alice" || me.IsGuest || me.ID == 0 {
		t.Fatalf("unexpected identity: %+v", me)
	}

	var refreshed AuthResponse
	status := env.postJSON(t, "/api/refresh", RefreshRequest{Token: token}, &refreshed)
	if status != stdhttp.StatusOK || refreshed.Token == "" {
		t.Fatalf("refresh status = %d, token %q", status, refreshed.Token)
	}
	claims, err := env.auth.ValidateToken(refreshed.Token)
	if err != nil {
		t.Fatalf("validate refreshed token: %v", err)
	}
	if claims.UserID != me.ID {
		t.Fatalf("refreshed token is for another user: %+v", claims)
	}

	if status := env.postJSON(t, "/api/refresh", RefreshRequest{Token: "garbage"}, nil); status != stdhttp.StatusUnauthorized {
		t.Fatalf("garbage refresh status = %d, want 401", status)
	}
}

func TestCreateRoom(t *testing.T) {
	env := newTestEnv(t)

	token := env.registerUser(t, "alice")

	var room RoomResponse
	status := env.postAuthedJSON(t, "/api/rooms", token, CreateRoomRequest{Name: "projects"}, &room)
	if status != stdhttp.StatusCreated || room.Name != "projects" || room.ID == 0 {
		t.Fatalf("create room status = %d, room %+v", status, room)
	}

	// Same name again resolves to the same room.
	var again RoomResponse
	status = env.postAuthedJSON(t, "/api/rooms", token, CreateRoomRequest{Name: "Projects"}, &again)
	if status != stdhttp.StatusCreated || again.ID != room.ID {
		t.Fatalf("duplicate create status = %d, room %+v", status, again)
	}

	// Guests cannot create rooms.
	var guest AuthResponse
	if status := env.postJSON(t, "/api/guest", struct{}{}, &guest); status != stdhttp.StatusCreated {
		t.Fatalf("guest status = %d", status)
	}
	status = env.postAuthedJSON(t, "/api/rooms", guest.Token, CreateRoomRequest{Name: "nope"}, nil)
	if status != stdhttp.StatusUnauthorized {
		t.Fatalf("guest create status = %d, want 401", status)
	}
}

func TestValidateStreamKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	token := env.registerUser(t, "sara")
	claims, err := env.auth.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	sess, err := env.store.CreateStreamSession(ctx, claims.UserID, "Show", "")
	if err != nil {
		t.Fatalf("seed stream: %v", err)
	}

	var resp ValidateKeyResponse
	status := env.postJSON(t, "/api/streams/validate-key", ValidateKeyRequest{StreamKey: sess.StreamKey}, &resp)
	if status != stdhttp.StatusOK || !resp.IsValid || resp.StreamID != sess.ID {
		t.Fatalf("live key: status = %d, resp %+v", status, resp)
	}

	status = env.postJSON(t, "/api/streams/validate-key", ValidateKeyRequest{StreamKey: "WRONGKEY00000000"}, &resp)
	if status != stdhttp.StatusOK || resp.IsValid {
		t.Fatalf("unknown key: status = %d, resp %+v", status, resp)
	}

	// A key stops validating once the session ends.
	if _, err := env.store.EndStreamSession(ctx, sess.ID, claims.UserID); err != nil {
		t.Fatalf("end stream: %v", err)
	}
	status = env.postJSON(t, "/api/streams/validate-key", ValidateKeyRequest{StreamKey: sess.StreamKey}, &resp)
	if status != stdhttp.StatusOK || resp.IsValid {
		t.Fatalf("ended key: status = %d, resp %+v", status, resp)
	}
}
