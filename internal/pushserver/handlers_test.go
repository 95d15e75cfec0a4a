package pushserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/parkgate-realtime/internal/api"
	"github.com/dgnsrekt/parkgate-realtime/internal/realtime"
)

type testServer struct {
	*httptest.Server
	hub     *Hub
	catalog *Catalog
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logger)
	go hub.Run(ctx)

	catalog := NewCatalog(2)
	srv := httptest.NewServer(NewRouter(NewServer(hub, catalog, logger), logger))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{Server: srv, hub: hub, catalog: catalog}
}

func (s *testServer) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (s *testServer) subscribe(t *testing.T, conn *websocket.Conn, gate string) {
	t.Helper()
	frame := `{"type":"subscribe","payload":{"gateId":"` + gate + `"}}`
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	waitFor(t, func() bool { return s.hub.Subscribers(gate) > 0 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func readEvent(t *testing.T, conn *websocket.Conn) realtime.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	ev, err := realtime.DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return ev
}

func TestPublishZoneUpdate_OnlySubscribedGate(t *testing.T) {
	srv := newTestServer(t)

	subscribed := srv.dial(t)
	other := srv.dial(t)
	srv.subscribe(t, subscribed, "gate_1")
	srv.subscribe(t, other, "gate_2")

	resp, err := http.Post(srv.URL+"/api/v1/gates/gate_1/zone-updates", "application/json",
		strings.NewReader(`{"id":"zone_1","occupied":42}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var body publishResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Delivered != 1 {
		t.Errorf("expected 1 delivery, got %d", body.Delivered)
	}

	ev := readEvent(t, subscribed)
	zu, ok := ev.(realtime.ZoneUpdate)
	if !ok {
		t.Fatalf("expected ZoneUpdate, got %T", ev)
	}
	var zone api.Zone
	if err := json.Unmarshal(zu.Payload, &zone); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if zone.ID != "zone_1" || zone.Occupied != 42 {
		t.Errorf("unexpected payload: %+v", zone)
	}
}

func TestPublishZoneUpdate_InvalidBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/gates/gate_1/zone-updates", "application/json",
		strings.NewReader(`{not json`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPublishAdminEvent_BroadcastsAndClosesZone(t *testing.T) {
	srv := newTestServer(t)

	conn := srv.dial(t)
	waitFor(t, func() bool { return srv.hub.ClientCount() == 1 })

	resp, err := http.Post(srv.URL+"/api/v1/admin/events", "application/json",
		strings.NewReader(`{"adminId":"admin_1","action":"zone-closed","targetType":"zone","targetId":"zone_2"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	ev := readEvent(t, conn)
	au, ok := ev.(realtime.AdminUpdate)
	if !ok {
		t.Fatalf("expected AdminUpdate, got %T", ev)
	}
	if au.Action != realtime.ActionZoneClosed || au.TargetID != "zone_2" {
		t.Errorf("unexpected admin update: %+v", au)
	}
	if au.Timestamp == "" {
		t.Error("expected timestamp to be filled in")
	}

	zone, _ := srv.catalog.Zone("zone_2")
	if zone.Open {
		t.Error("expected zone_2 to be closed")
	}
}

func TestPublishAdminEvent_Rejects(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"unknown action", `{"action":"zone-painted","targetType":"zone","targetId":"zone_1"}`, http.StatusBadRequest},
		{"unknown target", `{"action":"rush-updated","targetType":"moon","targetId":"x"}`, http.StatusBadRequest},
		{"unknown zone", `{"action":"zone-opened","targetType":"zone","targetId":"zone_99"}`, http.StatusNotFound},
		{"bad json", `[`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/v1/admin/events", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestMasterDataEndpoints(t *testing.T) {
	srv := newTestServer(t)
	client := api.NewClient(srv.URL+"/api/v1", "", 50, 5*time.Second, 10*time.Millisecond, 0, zap.NewNop())
	ctx := context.Background()

	zones, err := client.GetZones(ctx, "gate_2")
	if err != nil {
		t.Fatalf("zones: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones for gate_2, got %d", len(zones))
	}
	for _, z := range zones {
		if !z.HasGate("gate_2") {
			t.Errorf("zone %s not reachable from gate_2", z.ID)
		}
	}

	cats, err := client.GetCategories(ctx)
	if err != nil || len(cats) == 0 {
		t.Errorf("categories: %v %v", cats, err)
	}
	rush, err := client.GetRushHours(ctx)
	if err != nil || len(rush) == 0 {
		t.Errorf("rush hours: %v %v", rush, err)
	}
	vac, err := client.GetVacations(ctx)
	if err != nil || len(vac) == 0 {
		t.Errorf("vacations: %v %v", vac, err)
	}
}

func TestUnsubscribeLeavesGate(t *testing.T) {
	srv := newTestServer(t)

	conn := srv.dial(t)
	srv.subscribe(t, conn, "gate_1")

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"unsubscribe","payload":{"gateId":"gate_1"}}`))
	waitFor(t, func() bool { return srv.hub.Subscribers("gate_1") == 0 })

	if gates := srv.hub.ActiveGates(); len(gates) != 0 {
		t.Errorf("expected no active gates, got %v", gates)
	}
}

func TestDisconnectUnregistersClient(t *testing.T) {
	srv := newTestServer(t)

	conn := srv.dial(t)
	srv.subscribe(t, conn, "gate_1")
	conn.Close()

	waitFor(t, func() bool { return srv.hub.ClientCount() == 0 })
	if n := srv.hub.Subscribers("gate_1"); n != 0 {
		t.Errorf("expected gate emptied, got %d subscribers", n)
	}
}
