package waypoint_test

import (
	"fmt"
	"testing"

	"github.com/switchbackmaps/switchback/internal/waypoint"
)

// sequentialIDs returns a deterministic id generator for tests.
func sequentialIDs() waypoint.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("wpt_%03d", n)
	}
}

func newTestStore() *waypoint.Store {
	return waypoint.NewStore(waypoint.StoreConfig{IDGenerator: sequentialIDs()})
}

// assertOrderInvariant checks that Order equals the index for every waypoint,
// with no gaps or duplicates.
func assertOrderInvariant(t *testing.T, s *waypoint.Store) {
	t.Helper()
	for i, wp := range s.Snapshot() {
		if wp.Order != i {
			t.Errorf("waypoint %q at index %d has order %d", wp.ID, i, wp.Order)
		}
	}
}

func TestStore_Add(t *testing.T) {
	s := newTestStore()

	wp := s.Add(-80.8, 35.2, waypoint.AddOptions{Label: "Start"})
	if wp.ID != "wpt_001" {
		t.Errorf("expected id wpt_001, got %q", wp.ID)
	}
	if wp.Order != 0 {
		t.Errorf("expected order 0, got %d", wp.Order)
	}

	wp2 := s.Add(-80.7, 35.3, waypoint.AddOptions{})
	if wp2.Order != 1 {
		t.Errorf("expected order 1, got %d", wp2.Order)
	}

	if s.Len() != 2 {
		t.Fatalf("expected 2 waypoints, got %d", s.Len())
	}
	if s.Version() != 2 {
		t.Errorf("expected version 2 after 2 mutations, got %d", s.Version())
	}
	assertOrderInvariant(t, s)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore()
	a := s.Add(-80.8, 35.2, waypoint.AddOptions{})
	b := s.Add(-80.7, 35.3, waypoint.AddOptions{})
	c := s.Add(-80.6, 35.4, waypoint.AddOptions{})

	if !s.Remove(b.ID) {
		t.Fatal("expected remove to succeed")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 waypoints, got %d", s.Len())
	}

	snap := s.Snapshot()
	if snap[0].ID != a.ID || snap[1].ID != c.ID {
		t.Errorf("unexpected sequence after remove: %q, %q", snap[0].ID, snap[1].ID)
	}
	assertOrderInvariant(t, s)
}

func TestStore_Remove_UnknownIDIsNoop(t *testing.T) {
	s := newTestStore()
	s.Add(-80.8, 35.2, waypoint.AddOptions{})
	version := s.Version()

	if s.Remove("wpt_missing") {
		t.Error("expected remove of unknown id to report false")
	}
	if s.Version() != version {
		t.Error("no-op remove must not bump the version")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 waypoint, got %d", s.Len())
	}
}

func TestStore_Update(t *testing.T) {
	s := newTestStore()
	wp := s.Add(-80.8, 35.2, waypoint.AddOptions{})

	if !s.Update(wp.ID, -80.75, 35.25) {
		t.Fatal("expected update to succeed")
	}

	got := s.Snapshot()[0]
	if got.Lng != -80.75 || got.Lat != 35.25 {
		t.Errorf("expected updated coordinates, got (%f, %f)", got.Lng, got.Lat)
	}
	if !got.UserModified {
		t.Error("expected UserModified to be set after update")
	}

	if s.Update("wpt_missing", 0, 0) {
		t.Error("expected update of unknown id to report false")
	}
}

func TestStore_Reorder(t *testing.T) {
	s := newTestStore()
	a := s.Add(-80.8, 35.2, waypoint.AddOptions{})
	b := s.Add(-80.7, 35.3, waypoint.AddOptions{})
	c := s.Add(-80.6, 35.4, waypoint.AddOptions{})

	if !s.Reorder(0, 2) {
		t.Fatal("expected reorder to succeed")
	}

	snap := s.Snapshot()
	want := []string{b.ID, c.ID, a.ID}
	for i, id := range want {
		if snap[i].ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, snap[i].ID)
		}
	}
	assertOrderInvariant(t, s)
}

func TestStore_Reorder_OutOfRangeIsNoop(t *testing.T) {
	s := newTestStore()
	s.Add(-80.8, 35.2, waypoint.AddOptions{})
	s.Add(-80.7, 35.3, waypoint.AddOptions{})
	version := s.Version()

	tests := []struct {
		name     string
		from, to int
	}{
		{"negative from", -1, 0},
		{"from past end", 2, 0},
		{"negative to", 0, -1},
		{"to past end", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if s.Reorder(tt.from, tt.to) {
				t.Errorf("expected Reorder(%d, %d) to be a no-op", tt.from, tt.to)
			}
		})
	}

	if s.Version() != version {
		t.Error("no-op reorders must not bump the version")
	}
	assertOrderInvariant(t, s)
}

func TestStore_Reorder_SameIndexSucceedsUnchanged(t *testing.T) {
	s := newTestStore()
	a := s.Add(-80.8, 35.2, waypoint.AddOptions{})
	b := s.Add(-80.7, 35.3, waypoint.AddOptions{})
	version := s.Version()

	if !s.Reorder(1, 1) {
		t.Fatal("expected same-index reorder to report success")
	}
	if s.Version() != version {
		t.Error("same-index reorder must not bump the version")
	}

	snap := s.Snapshot()
	if snap[0].ID != a.ID || snap[1].ID != b.ID {
		t.Errorf("unexpected sequence after same-index reorder: %q, %q", snap[0].ID, snap[1].ID)
	}
	assertOrderInvariant(t, s)
}

func TestStore_OrderInvariantUnderMixedOperations(t *testing.T) {
	s := newTestStore()

	ids := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		wp := s.Add(-80.8+float64(i)*0.01, 35.2, waypoint.AddOptions{})
		ids = append(ids, wp.ID)
	}

	ops := []func(){
		func() { s.Remove(ids[2]) },
		func() { s.Reorder(0, 3) },
		func() { s.Remove(ids[5]) },
		func() { s.Reorder(3, 1) },
		func() { s.Add(-80.0, 35.0, waypoint.AddOptions{}) },
		func() { s.Reorder(4, 0) },
	}
	for _, op := range ops {
		op()
		assertOrderInvariant(t, s)
	}
}

func TestStore_AddFromSegment(t *testing.T) {
	s := newTestStore()

	seg := waypoint.ConnectableSegment{
		ID:        "seg_42",
		Name:      "Blood Mountain Rd",
		Start:     waypoint.Coordinate{Lng: -83.92, Lat: 34.73},
		End:       waypoint.Coordinate{Lng: -83.90, Lat: 34.74},
		Curvature: 1250,
	}

	if !s.AddFromSegment(seg) {
		t.Fatal("expected first AddFromSegment to succeed")
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 waypoints from segment, got %d", s.Len())
	}

	snap := s.Snapshot()
	for i, wp := range snap {
		if wp.OriginSegmentID != "seg_42" {
			t.Errorf("waypoint %d: expected origin segment seg_42, got %q", i, wp.OriginSegmentID)
		}
		if wp.Curvature == nil || *wp.Curvature != 1250 {
			t.Errorf("waypoint %d: expected inherited curvature 1250", i)
		}
	}
	if snap[0].Lng != seg.Start.Lng || snap[1].Lng != seg.End.Lng {
		t.Error("expected start then end order for segment waypoints")
	}
}

func TestStore_AddFromSegment_DuplicateRejected(t *testing.T) {
	s := newTestStore()
	seg := waypoint.ConnectableSegment{
		ID:    "seg_42",
		Start: waypoint.Coordinate{Lng: -83.92, Lat: 34.73},
		End:   waypoint.Coordinate{Lng: -83.90, Lat: 34.74},
	}

	s.AddFromSegment(seg)
	version := s.Version()

	if s.AddFromSegment(seg) {
		t.Error("expected duplicate segment to be rejected")
	}
	if s.Len() != 2 {
		t.Errorf("expected sequence length unchanged at 2, got %d", s.Len())
	}
	if s.Version() != version {
		t.Error("rejected duplicate must not bump the version")
	}
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore()
	s.Add(-80.8, 35.2, waypoint.AddOptions{})
	s.Add(-80.7, 35.3, waypoint.AddOptions{})

	s.Clear()

	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d waypoints", s.Len())
	}
	if s.Version() != 0 {
		t.Errorf("expected version reset to 0, got %d", s.Version())
	}
	if s.LastSegment() != nil {
		t.Error("expected chain state to be cleared")
	}
}

func TestStore_Restore(t *testing.T) {
	s := newTestStore()
	s.Add(-80.8, 35.2, waypoint.AddOptions{})

	curv := 800.0
	s.Restore([]waypoint.Waypoint{
		{ID: "old_1", Lng: -83.92, Lat: 34.73, UserModified: true, Curvature: &curv},
		{ID: "old_2", Lng: -83.90, Lat: 34.74},
	})

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 restored waypoints, got %d", len(snap))
	}
	for i, wp := range snap {
		if wp.ID == "old_1" || wp.ID == "old_2" {
			t.Errorf("waypoint %d: expected fresh id, got %q", i, wp.ID)
		}
		if wp.UserModified {
			t.Errorf("waypoint %d: expected UserModified cleared", i)
		}
	}
	assertOrderInvariant(t, s)
}
