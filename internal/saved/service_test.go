package saved

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/pkg/polyline"
)

func testInput(name string) SaveInput {
	return SaveInput{
		Name: name,
		Waypoints: []StoredWaypoint{
			{Lng: -80.84313, Lat: 35.22709, Order: 0, Label: "Start"},
			{Lng: -80.83680, Lat: 35.23150, Order: 1, Label: "End"},
		},
		Geometry: polyline.Encode([]polyline.Coordinate{
			{Lng: -80.84313, Lat: 35.22709},
			{Lng: -80.83680, Lat: 35.23150},
		}),
		DistanceMeters:   4200,
		DurationSeconds:  380,
		CurvatureTotal:   1300,
		CurvatureAverage: 650,
		Rating:           "spirited",
	}
}

func TestService_SaveAndGet(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), zerolog.Nop())

	route, err := svc.Save(context.Background(), "ses_1", testInput("Blue Ridge Loop"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(route.ID, "rte_") {
		t.Errorf("expected rte_ id prefix, got %q", route.ID)
	}
	if route.Slug != "blue-ridge-loop" {
		t.Errorf("expected slug blue-ridge-loop, got %q", route.Slug)
	}

	got, err := svc.Get(context.Background(), "ses_1", route.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Blue Ridge Loop" || len(got.Waypoints) != 2 {
		t.Errorf("unexpected route %+v", got)
	}
}

func TestService_Save_SlugConflictGetsSuffix(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), zerolog.Nop())

	first, err := svc.Save(context.Background(), "ses_1", testInput("Blue Ridge Loop"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Save(context.Background(), "ses_1", testInput("Blue Ridge Loop"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second.Slug == first.Slug {
		t.Errorf("expected distinct slugs, both %q", first.Slug)
	}
	if !strings.HasPrefix(second.Slug, "blue-ridge-loop-") {
		t.Errorf("expected suffixed slug, got %q", second.Slug)
	}
}

func TestService_GetBySlug_Visibility(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), zerolog.Nop())

	input := testInput("Private Run")
	route, err := svc.Save(context.Background(), "ses_owner", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The owner resolves a private route; others do not.
	if _, err := svc.GetBySlug(context.Background(), "ses_owner", route.Slug); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	if _, err := svc.GetBySlug(context.Background(), "ses_other", route.Slug); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("expected ErrRouteNotFound for non-owner, got %v", err)
	}

	public := true
	if _, err := svc.Update(context.Background(), "ses_owner", route.ID, UpdateInput{IsPublic: &public}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetBySlug(context.Background(), "ses_other", route.Slug); err != nil {
		t.Errorf("expected public route visible to everyone, got %v", err)
	}
}

func TestService_Update_SlugStableAcrossRename(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), zerolog.Nop())

	route, err := svc.Save(context.Background(), "ses_1", testInput("Old Name"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	name := "New Name"
	updated, err := svc.Update(context.Background(), "ses_1", route.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Name != "New Name" {
		t.Errorf("expected renamed route, got %q", updated.Name)
	}
	if updated.Slug != route.Slug {
		t.Errorf("expected slug unchanged, got %q", updated.Slug)
	}
}

func TestService_Delete(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), zerolog.Nop())

	route, err := svc.Save(context.Background(), "ses_1", testInput("Doomed"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(context.Background(), "ses_1", route.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), "ses_1", route.ID); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("expected ErrRouteNotFound after delete, got %v", err)
	}

	if err := svc.Delete(context.Background(), "ses_1", route.ID); !errors.Is(err, ErrRouteNotFound) {
		t.Errorf("expected ErrRouteNotFound for repeated delete, got %v", err)
	}
}

func TestService_List_ScopedToSession(t *testing.T) {
	svc := NewService(NewInMemoryRepository(), zerolog.Nop())

	if _, err := svc.Save(context.Background(), "ses_a", testInput("A One")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Save(context.Background(), "ses_a", testInput("A Two")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Save(context.Background(), "ses_b", testInput("B One")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.List(context.Background(), "ses_a", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Errorf("expected 2 routes for ses_a, got %d", len(result.Items))
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Blue Ridge Loop", "blue-ridge-loop"},
		{"punctuation collapsed", "Tail of the Dragon! (US-129)", "tail-of-the-dragon-us-129"},
		{"trailing separators trimmed", "Sunday Drive  ", "sunday-drive"},
		{"empty falls back", "!!!", "route"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slugify(tt.in); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
