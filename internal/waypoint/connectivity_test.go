package waypoint_test

import (
	"testing"

	"github.com/switchbackmaps/switchback/internal/waypoint"
)

func TestConnects(t *testing.T) {
	prev := waypoint.ConnectableSegment{
		ID:  "seg_a",
		End: waypoint.Coordinate{Lng: 10.00000, Lat: 20.00000},
	}

	tests := []struct {
		name      string
		candidate waypoint.ConnectableSegment
		want      bool
	}{
		{
			name: "start within tolerance",
			candidate: waypoint.ConnectableSegment{
				Start: waypoint.Coordinate{Lng: 10.000005, Lat: 20.000005},
				End:   waypoint.Coordinate{Lng: 11, Lat: 21},
			},
			want: true,
		},
		{
			name: "end within tolerance (reversed traversal)",
			candidate: waypoint.ConnectableSegment{
				Start: waypoint.Coordinate{Lng: 11, Lat: 21},
				End:   waypoint.Coordinate{Lng: 10.000005, Lat: 20.000005},
			},
			want: true,
		},
		{
			name: "exact endpoint match",
			candidate: waypoint.ConnectableSegment{
				Start: waypoint.Coordinate{Lng: 10, Lat: 20},
				End:   waypoint.Coordinate{Lng: 11, Lat: 21},
			},
			want: true,
		},
		{
			name: "outside tolerance",
			candidate: waypoint.ConnectableSegment{
				Start: waypoint.Coordinate{Lng: 10.001, Lat: 20.001},
				End:   waypoint.Coordinate{Lng: 11, Lat: 21},
			},
			want: false,
		},
		{
			name: "only longitude matches",
			candidate: waypoint.ConnectableSegment{
				Start: waypoint.Coordinate{Lng: 10, Lat: 20.5},
				End:   waypoint.Coordinate{Lng: 11, Lat: 21},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := waypoint.Connects(prev, tt.candidate); got != tt.want {
				t.Errorf("Connects() = %v, want %v", got, tt.want)
			}
		})
	}
}
