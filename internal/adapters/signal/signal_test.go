package signal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	router "github.com/kamleshbaheti/Smart-Interview/internal/adapters/http"
	"github.com/kamleshbaheti/Smart-Interview/internal/adapters/signal"
	"github.com/kamleshbaheti/Smart-Interview/internal/app"
	"github.com/kamleshbaheti/Smart-Interview/internal/config"
	"github.com/kamleshbaheti/Smart-Interview/internal/detect"
	"github.com/kamleshbaheti/Smart-Interview/internal/hub"
	"github.com/kamleshbaheti/Smart-Interview/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	rooms := hub.New()
	registry := app.NewRegistry(st)
	pipeline := app.NewPipeline(registry, st, rooms)
	relay := app.NewRelay(rooms)
	gateway := app.NewGateway(pipeline, detect.Disabled(), time.Second)

	handlers := &router.Handlers{
		Registry:  registry,
		Pipeline:  pipeline,
		Gateway:   gateway,
		Store:     st,
		UploadDir: t.TempDir(),
	}
	ws := signal.NewController(rooms, pipeline, relay, gateway, 1<<20)

	cfg := &config.Config{Mode: "release", Secret: "test-secret", StaticPath: t.TempDir()}
	srv := httptest.NewServer(router.SetupRouter(context.Background(), cfg, handlers, ws))
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// waitFor reads envelopes until one arrives on the wanted channel,
// skipping unrelated traffic (join notices of later members, etc.).
func waitFor(t *testing.T, conn *websocket.Conn, channel string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var env hub.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			t.Fatalf("waiting for %q: %v", channel, err)
		}
		if env.Type == channel {
			data, _ := env.Data.(map[string]any)
			return data
		}
	}
	t.Fatalf("no %q envelope arrived", channel)
	return nil
}

// join performs the join handshake and returns the connection id the
// server assigned.
func join(t *testing.T, conn *websocket.Conn, sessionID, role, name string) string {
	t.Helper()
	send(t, conn, map[string]any{"type": "join", "sessionId": sessionID, "role": role, "name": name})
	reply := waitFor(t, conn, hub.ChannelYourID)
	id, _ := reply["connectionId"].(string)
	if id == "" {
		t.Fatal("join reply carried no connection id")
	}
	return id
}

func postJSON(t *testing.T, srv *httptest.Server, path string, payload map[string]any) map[string]any {
	t.Helper()
	body, _ := json.Marshal(payload)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %s status = %d", path, resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestScenario_LogEventReachesJoinedConnection(t *testing.T) {
	srv := newTestServer(t)

	postJSON(t, srv, "/start-session", map[string]any{"sessionId": "sess-1", "name": "Exam"})

	conn := dialWS(t, srv)
	join(t, conn, "sess-1", "proctor", "Bob")

	postJSON(t, srv, "/log", map[string]any{
		"sessionId": "sess-1",
		"role":      "candidate",
		"name":      "Alice",
		"type":      "no_face_detected",
		"detail":    map[string]any{"message": "No face found"},
	})

	var got map[string]any
	for {
		got = waitFor(t, conn, hub.ChannelEvent)
		if got["type"] == "no_face_detected" {
			break
		}
		// skip the system join notice
	}
	if got["role"] != "candidate" {
		t.Errorf("role = %v, want candidate", got["role"])
	}
	detail, _ := got["detail"].(map[string]any)
	if detail["message"] != "No face found" {
		t.Errorf("detail = %v", detail)
	}

	// Durability before visibility: the broadcast event must already be
	// queryable from the persisted log.
	resp, err := http.Get(srv.URL + "/report/sess-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	defer resp.Body.Close()
	var report struct {
		Total  int `json:"total"`
		Events []struct {
			ID   float64 `json:"id"`
			Type string  `json:"type"`
		} `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Total != 1 {
		t.Fatalf("persisted events = %d, want exactly 1", report.Total)
	}
	if report.Events[0].Type != "no_face_detected" {
		t.Errorf("persisted type = %q", report.Events[0].Type)
	}
	wantID, _ := got["id"].(float64)
	if report.Events[0].ID != wantID {
		t.Errorf("broadcast id %v not the persisted id %v", wantID, report.Events[0].ID)
	}
}

func TestChatEcho(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv)
	bob := dialWS(t, srv)
	join(t, alice, "sess-1", "candidate", "Alice")
	join(t, bob, "sess-1", "proctor", "Bob")

	send(t, alice, map[string]any{"type": "chat", "sessionId": "sess-1", "message": "hello", "name": "Alice"})

	for _, conn := range []*websocket.Conn{alice, bob} {
		msg := waitFor(t, conn, hub.ChannelChat)
		if msg["message"] != "hello" {
			t.Errorf("message = %v, want hello", msg["message"])
		}
	}
}

func TestSignalingFanOut(t *testing.T) {
	srv := newTestServer(t)

	alice := dialWS(t, srv)
	bob := dialWS(t, srv)
	aliceID := join(t, alice, "sess-1", "candidate", "Alice")
	join(t, bob, "sess-1", "proctor", "Bob")

	send(t, alice, map[string]any{"type": "webrtc-offer", "sessionId": "sess-1", "sdp": "v=0 test offer"})

	// Delivered to the peer with the payload and sender id untouched.
	offer := waitFor(t, bob, hub.ChannelOffer)
	if offer["sdp"] != "v=0 test offer" {
		t.Errorf("sdp = %v", offer["sdp"])
	}
	if offer["from"] != aliceID {
		t.Errorf("from = %v, want %v", offer["from"], aliceID)
	}

	// The sender is structurally eligible too; filtering by "from" is
	// the client's job.
	echo := waitFor(t, alice, hub.ChannelOffer)
	if echo["from"] != aliceID {
		t.Errorf("sender echo from = %v, want %v", echo["from"], aliceID)
	}
}

func TestMalformedFrameDoesNotCloseConnection(t *testing.T) {
	srv := newTestServer(t)

	conn := dialWS(t, srv)
	join(t, conn, "sess-1", "candidate", "Alice")

	send(t, conn, map[string]any{"type": "frame", "sessionId": "sess-1", "name": "Alice", "frame": "garbage!!"})

	// The connection must survive; a ping still gets answered.
	send(t, conn, map[string]any{"type": "ping"})
	waitFor(t, conn, "pong")

	resp, err := http.Get(srv.URL + "/report/sess-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	defer resp.Body.Close()
	var report struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Total != 0 {
		t.Errorf("malformed frame persisted %d events", report.Total)
	}
}

func TestEventOverWSIsPersistedBeforeBroadcast(t *testing.T) {
	srv := newTestServer(t)

	sender := dialWS(t, srv)
	watcher := dialWS(t, srv)
	join(t, sender, "sess-1", "candidate", "Alice")
	join(t, watcher, "sess-1", "proctor", "Bob")

	send(t, sender, map[string]any{
		"type": "event",
		"data": map[string]any{
			"sessionId": "sess-1",
			"role":      "candidate",
			"name":      "Alice",
			"type":      "looking_away",
			"detail":    map[string]any{"direction": "left"},
		},
	})

	var got map[string]any
	for {
		got = waitFor(t, watcher, hub.ChannelEvent)
		if got["type"] == "looking_away" {
			break
		}
	}
	if id, _ := got["id"].(float64); id == 0 {
		t.Error("broadcast carried no store-assigned id")
	}

	resp, err := http.Get(srv.URL + "/report/sess-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	defer resp.Body.Close()
	var report struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.Total != 1 {
		t.Errorf("persisted events = %d, want 1", report.Total)
	}
}

func TestUploadVideoAttachesPath(t *testing.T) {
	srv := newTestServer(t)
	postJSON(t, srv, "/start-session", map[string]any{"sessionId": "sess-1"})

	var buf bytes.Buffer
	mw := newMultipart(t, &buf, map[string]string{"sessionId": "sess-1", "name": "Alice"}, "video", "rec.webm", []byte("webm-bytes"))

	resp, err := http.Post(srv.URL+"/upload-video", mw, &buf)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var out struct {
		Status string `json:"status"`
		Path   string `json:"path"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "ok" || out.Path == "" {
		t.Errorf("response = %+v", out)
	}
}

func newMultipart(t *testing.T, buf *bytes.Buffer, fields map[string]string, fileField, fileName string, fileBytes []byte) string {
	t.Helper()
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	fw, err := w.CreateFormFile(fileField, fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(fileBytes); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return w.FormDataContentType()
}
