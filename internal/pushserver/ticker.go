package pushserver

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/parkgate-realtime/internal/realtime"
)

// ZoneTicker simulates traffic: on every tick each gate with subscribers
// gets one zone-update for a zone it reaches.
type ZoneTicker struct {
	hub      *Hub
	catalog  *Catalog
	interval time.Duration
	logger   *zap.Logger
}

// NewZoneTicker creates a ZoneTicker.
func NewZoneTicker(hub *Hub, catalog *Catalog, interval time.Duration, logger *zap.Logger) *ZoneTicker {
	return &ZoneTicker{
		hub:      hub,
		catalog:  catalog,
		interval: interval,
		logger:   logger,
	}
}

// Run starts the tick loop. Call in a goroutine.
// Returns when context is cancelled.
func (t *ZoneTicker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info("zone ticker started", zap.Duration("interval", t.interval))

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("zone ticker stopping")
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *ZoneTicker) tick() {
	for _, gate := range t.hub.ActiveGates() {
		zone, ok := t.catalog.Churn(gate)
		if !ok {
			continue
		}

		payload, err := json.Marshal(zone)
		if err != nil {
			t.logger.Debug("failed to marshal zone", zap.String("zone", zone.ID), zap.Error(err))
			continue
		}
		frame, err := realtime.EncodeEvent(realtime.ZoneUpdate{Payload: payload})
		if err != nil {
			t.logger.Debug("failed to encode zone update", zap.Error(err))
			continue
		}

		sent := t.hub.BroadcastGate(gate, frame)
		t.logger.Debug("broadcast zone update",
			zap.String("gate", gate),
			zap.String("zone", zone.ID),
			zap.Int("occupied", zone.Occupied),
			zap.Int("clients", sent),
		)
	}
}
