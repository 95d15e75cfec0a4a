package pushserver

import "testing"

func TestNewCatalog_GateLayout(t *testing.T) {
	c := NewCatalog(3)

	if got := len(c.Zones("")); got != 4 {
		t.Fatalf("expected 4 zones, got %d", got)
	}
	for i := 1; i <= 3; i++ {
		if got := len(c.Zones(GateID(i))); got != 2 {
			t.Errorf("gate %d: expected 2 zones, got %d", i, got)
		}
	}
}

func TestCatalog_SetOpen(t *testing.T) {
	c := NewCatalog(1)

	if !c.SetOpen("zone_1", false) {
		t.Fatal("expected zone_1 to exist")
	}
	z, _ := c.Zone("zone_1")
	if z.Open || z.AvailableForVisitors != 0 || z.AvailableForSubscribers != 0 {
		t.Errorf("closed zone should have no availability: %+v", z)
	}

	if c.SetOpen("zone_42", true) {
		t.Error("expected unknown zone to report false")
	}
}

func TestCatalog_ChurnSkipsClosedZones(t *testing.T) {
	c := NewCatalog(1)
	c.SetOpen("zone_1", false)
	c.SetOpen("zone_2", false)

	if _, ok := c.Churn("gate_1"); ok {
		t.Error("expected no churn when every zone is closed")
	}

	c.SetOpen("zone_2", true)
	for i := 0; i < 20; i++ {
		z, ok := c.Churn("gate_1")
		if !ok || z.ID != "zone_2" {
			t.Fatalf("expected churn on zone_2, got %+v ok=%v", z, ok)
		}
		if z.Free != z.TotalSlots-z.Occupied {
			t.Errorf("free out of sync: %+v", z)
		}
		if z.Occupied < 0 || z.Occupied > z.TotalSlots {
			t.Errorf("occupancy out of range: %d", z.Occupied)
		}
	}
}
