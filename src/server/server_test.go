package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mt5-bridge/src/gateway"
	"mt5-bridge/src/helpers"
	"mt5-bridge/src/logger"
	"mt5-bridge/src/marshal"
	"mt5-bridge/src/metrics"
	"mt5-bridge/src/models"
	"mt5-bridge/src/platform/sim"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*BridgeServer, *httptest.Server, *sim.SimTerminal) {
	t.Helper()

	cfg := &models.MConfig{
		Name:               "test-bridge",
		Host:               "127.0.0.1",
		Port:               18812,
		IdleTimeoutSeconds: 5,
		RingCapacity:       20,
	}
	log := logger.NewLogger("INFO", "test")
	term := sim.NewSimTerminal(123456)
	ms := metrics.NewMetricsState(cfg.RingCapacity)
	gw := gateway.NewProxyGateway(term, marshal.NewMaterializer(log), log, ms, cfg)

	s := NewBridgeServer(cfg, log, gw, ms, nil)
	go s.runHub()

	ts := httptest.NewServer(s.engine)
	t.Cleanup(func() {
		ts.Close()
		s.Stop(time.Second)
	})
	return s, ts, term
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// -----------------------------------------------------------------------------

func TestWebSocketRoundTrip(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn := dialWS(t, ts)

	if err := conn.WriteJSON(&models.MRequest{ID: 7, Capability: "get_account"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var resp models.MResponse
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if resp.ID != 7 {
		t.Errorf("ID = %d, want 7", resp.ID)
	}
	if !resp.OK {
		t.Fatalf("OK = false, error: %+v", resp.Error)
	}
	account, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("Result = %T, want object", resp.Result)
	}
	if login, _ := account["login"].(float64); int64(login) != 123456 {
		t.Errorf("login = %v, want 123456", account["login"])
	}
	if resp.ElapsedMs < 0 {
		t.Errorf("ElapsedMs = %g, want >= 0", resp.ElapsedMs)
	}
}

func TestWebSocketSequentialRequests(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn := dialWS(t, ts)

	for id := int64(1); id <= 3; id++ {
		if err := conn.WriteJSON(&models.MRequest{ID: id, Capability: "get_tick", Symbol: "EURUSD"}); err != nil {
			t.Fatalf("write %d failed: %v", id, err)
		}
	}

	// One session's responses come back in request order.
	for id := int64(1); id <= 3; id++ {
		var resp models.MResponse
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read %d failed: %v", id, err)
		}
		if resp.ID != id {
			t.Errorf("response order: got ID %d, want %d", resp.ID, id)
		}
	}
}

func TestWebSocketErrorResponse(t *testing.T) {
	_, ts, term := newTestServer(t)
	term.FailInit = true
	conn := dialWS(t, ts)

	if err := conn.WriteJSON(&models.MRequest{ID: 1, Capability: "get_account"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var resp models.MResponse
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if resp.OK {
		t.Fatal("OK = true for a failed init")
	}
	if resp.Error == nil || resp.Error.Kind != helpers.KindPlatformUnavailable {
		t.Errorf("Error = %+v, want kind PLATFORM_UNAVAILABLE", resp.Error)
	}
	if resp.Error != nil && resp.Error.Code == 0 {
		t.Error("platform error should carry the native code")
	}
}

func TestWebSocketMalformedFrame(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn := dialWS(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var resp models.MResponse
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if resp.OK || resp.Error == nil || resp.Error.Kind != helpers.KindValidationFailure {
		t.Errorf("resp = %+v, want VALIDATION_FAILURE", resp)
	}

	// The session survives and keeps serving.
	if err := conn.WriteJSON(&models.MRequest{ID: 2, Capability: "get_account"}); err != nil {
		t.Fatalf("follow-up write failed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("follow-up read failed: %v", err)
	}
	if !resp.OK {
		t.Errorf("follow-up request failed: %+v", resp.Error)
	}
}

// -----------------------------------------------------------------------------

func TestSessionCountTracksConnections(t *testing.T) {
	s, ts, _ := newTestServer(t)

	c1 := dialWS(t, ts)
	c2 := dialWS(t, ts)

	waitFor(t, func() bool { return s.Metrics.Snapshot().ActiveSessions == 2 })

	c1.Close()
	waitFor(t, func() bool { return s.Metrics.Snapshot().ActiveSessions == 1 })

	c2.Close()
	waitFor(t, func() bool { return s.Metrics.Snapshot().ActiveSessions == 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached within deadline")
}

// -----------------------------------------------------------------------------

func TestStopDeliversInflightResponse(t *testing.T) {
	s, ts, term := newTestServer(t)
	term.CallDelay = 200 * time.Millisecond
	conn := dialWS(t, ts)

	waitFor(t, func() bool { return s.Metrics.Snapshot().ActiveSessions == 1 })

	if err := conn.WriteJSON(&models.MRequest{ID: 9, Capability: "get_account"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	// Let the dispatch reach the terminal before shutdown starts.
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop(3 * time.Second) }()

	// The in-flight request completes and its response arrives ahead of the
	// close frame.
	var resp models.MResponse
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("in-flight response lost during shutdown: %v", err)
	}
	if !resp.OK || resp.ID != 9 {
		t.Errorf("resp = %+v, want OK with ID 9", resp)
	}

	// The very next read is the server's close frame.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("after the response, read = %v, want going-away close", err)
	}

	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop() = %v", err)
		}
	case <-time.After(4 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestStopDrainsIdleSessionsBeforeGrace(t *testing.T) {
	s, ts, _ := newTestServer(t)
	conn := dialWS(t, ts)

	waitFor(t, func() bool { return s.Metrics.Snapshot().ActiveSessions == 1 })

	start := time.Now()
	stopped := make(chan error, 1)
	go func() { stopped <- s.Stop(5 * time.Second) }()

	// An idle session is asked to close and the registry drains; Stop must
	// not sit out the full grace period.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("idle session read = %v, want going-away close", err)
	}

	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop() = %v", err)
		}
	case <-time.After(4 * time.Second):
		t.Fatal("Stop did not return")
	}
	if elapsed := time.Since(start); elapsed >= 4*time.Second {
		t.Errorf("Stop took %v, should return once sessions drain", elapsed)
	}
	if n := s.Metrics.Snapshot().ActiveSessions; n != 0 {
		t.Errorf("active sessions after Stop = %d, want 0", n)
	}
}

// -----------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
	if _, ok := body["platform_connected"]; !ok {
		t.Error("health body missing platform_connected")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t)
	conn := dialWS(t, ts)

	if err := conn.WriteJSON(&models.MRequest{ID: 1, Capability: "get_account"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	var wsResp models.MResponse
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&wsResp); err != nil {
		t.Fatalf("read failed: %v", err)
	}

	resp, err := ts.Client().Get(ts.URL + "/api/metrics")
	if err != nil {
		t.Fatalf("GET /api/metrics failed: %v", err)
	}
	defer resp.Body.Close()

	var snap models.MMetricsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if snap.TotalRequests != 1 {
		t.Errorf("TotalRequests = %d, want 1", snap.TotalRequests)
	}
	if len(snap.Events) == 0 {
		t.Error("ring should carry the dispatch events")
	}
}

func TestRequestsEndpointWithoutJournal(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/requests")
	if err != nil {
		t.Fatalf("GET /api/requests failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var entries []models.MJournalEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0 with storage disabled", len(entries))
	}
}

func TestConfigEndpointHidesSecrets(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/config")
	if err != nil {
		t.Fatalf("GET /api/config failed: %v", err)
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	platform, _ := body["platform"].(map[string]interface{})
	if platform == nil {
		t.Fatal("config body missing platform section")
	}
	if _, leaked := platform["password"]; leaked {
		t.Error("config endpoint must not expose the password")
	}
}
