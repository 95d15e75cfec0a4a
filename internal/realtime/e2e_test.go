package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/parkgate-realtime/internal/api"
	"github.com/dgnsrekt/parkgate-realtime/internal/cache"
	"github.com/dgnsrekt/parkgate-realtime/internal/pushserver"
	"github.com/dgnsrekt/parkgate-realtime/internal/realtime"
)

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestEndToEnd_PushServer(t *testing.T) {
	logger := zap.NewNop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := pushserver.NewHub(logger)
	go hub.Run(ctx)
	catalog := pushserver.NewCatalog(2)
	srv := httptest.NewServer(pushserver.NewRouter(pushserver.NewServer(hub, catalog, logger), logger))
	defer srv.Close()

	store := cache.NewStore(logger)
	data := api.NewCachedClient(api.NewClient(srv.URL+"/api/v1", "", 100, 5*time.Second, 10*time.Millisecond, 0, logger), store)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	transport := realtime.NewWebSocketTransport(realtime.DefaultWebSocketConfig(wsURL), logger)
	client := realtime.New(realtime.DefaultConfig(), transport, store, logger)
	defer client.Close()

	events := make(chan realtime.Event, 8)
	client.AddConsumer(func(ev realtime.Event) { events <- ev })

	// Warm the cache before any push traffic.
	zones, err := data.GetZones(ctx, "gate_1")
	if err != nil {
		t.Fatalf("zones: %v", err)
	}
	if !zones[0].Open {
		t.Fatal("expected fixture zone open")
	}
	if _, err := data.GetRushHours(ctx); err != nil {
		t.Fatalf("rush hours: %v", err)
	}

	client.Subscribe("gate_1")
	client.Connect()
	waitUntil(t, "open", func() bool { return client.State() == realtime.StateOpen })
	waitUntil(t, "server subscription", func() bool { return hub.Subscribers("gate_1") == 1 })

	post(t, srv.URL+"/api/v1/admin/events",
		`{"adminId":"admin_1","action":"zone-closed","targetType":"zone","targetId":"`+zones[0].ID+`"}`)

	select {
	case ev := <-events:
		au, ok := ev.(realtime.AdminUpdate)
		if !ok || au.Action != realtime.ActionZoneClosed {
			t.Fatalf("expected zone-closed admin update, got %#v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("admin update not received")
	}

	if !store.Stale(cache.Zones) {
		t.Error("expected Zones stale after zone-closed")
	}
	if store.Stale(cache.RushHours) {
		t.Error("zone-closed must not invalidate RushHours")
	}

	refreshed, err := data.GetZones(ctx, "gate_1")
	if err != nil {
		t.Fatalf("zones: %v", err)
	}
	if refreshed[0].Open {
		t.Error("expected refetched zone to be closed")
	}
	if store.Stale(cache.Zones) {
		t.Error("expected Zones fresh after refetch")
	}

	// Zone updates only reach subscribers of that gate.
	post(t, srv.URL+"/api/v1/gates/gate_2/zone-updates", `{"id":"zone_3"}`)
	post(t, srv.URL+"/api/v1/gates/gate_1/zone-updates", `{"id":"zone_1"}`)

	select {
	case ev := <-events:
		zu, ok := ev.(realtime.ZoneUpdate)
		if !ok || !strings.Contains(string(zu.Payload), "zone_1") {
			t.Fatalf("expected zone_1 update, got %#v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("zone update not received")
	}

	client.Unsubscribe("gate_1")
	waitUntil(t, "server unsubscription", func() bool { return hub.Subscribers("gate_1") == 0 })

	client.Disconnect()
	waitUntil(t, "server disconnect", func() bool { return hub.ClientCount() == 0 })
	if client.State() != realtime.StateClosed {
		t.Errorf("expected closed, got %s", client.State())
	}
}

func post(t *testing.T, url, body string) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("post %s: status %d", url, resp.StatusCode)
	}
}
