package realtime

import (
	"testing"

	"go.uber.org/zap"

	"github.com/dgnsrekt/parkgate-realtime/internal/cache"
)

func TestPartitionsFor(t *testing.T) {
	tests := []struct {
		action AdminAction
		want   []cache.Partition
	}{
		{ActionZoneOpened, []cache.Partition{cache.Zones}},
		{ActionZoneClosed, []cache.Partition{cache.Zones}},
		{ActionCategoryRatesChanged, []cache.Partition{cache.Zones, cache.Categories}},
		{ActionVacationAdded, []cache.Partition{cache.Zones, cache.Vacations}},
		{ActionRushUpdated, []cache.Partition{cache.Zones, cache.RushHours}},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			got := PartitionsFor(AdminUpdate{Action: tt.action})
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}

	if got := PartitionsFor(ZoneUpdate{}); len(got) != 1 || got[0] != cache.Zones {
		t.Errorf("zone update: expected [Zones], got %v", got)
	}
}

func TestCacheInvalidator_Handle(t *testing.T) {
	store := newRecordingStore()
	log := NewAdminLog(AdminLogCapacity)
	ci := NewCacheInvalidator(store, log, zap.NewNop())

	ci.Handle(AdminUpdate{Action: ActionRushUpdated, TargetType: TargetRush, TargetID: "r1"})

	if store.count(cache.Zones) != 1 || store.count(cache.RushHours) != 1 {
		t.Errorf("expected Zones and RushHours invalidated, got %v", store.counts)
	}
	if store.count(cache.Categories) != 0 || store.count(cache.Vacations) != 0 {
		t.Errorf("unexpected invalidation: %v", store.counts)
	}
	if log.Len() != 1 {
		t.Errorf("expected admin update logged, got %d", log.Len())
	}

	ci.Handle(ZoneUpdate{})
	if store.count(cache.Zones) != 2 {
		t.Errorf("expected zone update to invalidate Zones, got %d", store.count(cache.Zones))
	}
	if log.Len() != 1 {
		t.Error("zone updates must not be logged as admin updates")
	}
}
