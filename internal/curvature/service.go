package curvature

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/pkg/polyline"
)

// Service provides segment catalog operations.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new curvature service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Get retrieves a segment by ID.
func (s *Service) Get(ctx context.Context, segmentID string) (*Segment, error) {
	return s.repo.Get(ctx, segmentID)
}

// ListInBounds retrieves segments inside the bounding box.
func (s *Service) ListInBounds(ctx context.Context, bounds Bounds, opts ListOptions) ([]*Segment, error) {
	return s.repo.ListInBounds(ctx, bounds, opts)
}

// FeatureCollection is a GeoJSON feature collection of segments for map
// display.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON segment feature.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   FeatureGeometry   `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// FeatureGeometry is a GeoJSON LineString. Positions are [lng, lat].
type FeatureGeometry struct {
	Type        string       `json:"type"`
	Coordinates [][2]float64 `json:"coordinates"`
}

// FeatureProperties carries the segment attributes used for styling and
// chaining on the client.
type FeatureProperties struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Curvature    float64 `json:"curvature"`
	Level        Level   `json:"level"`
	LengthMeters float64 `json:"length_meters"`
	Paved        bool    `json:"paved"`
}

// ToGeoJSON renders segments as a GeoJSON feature collection.
func ToGeoJSON(segments []*Segment) *FeatureCollection {
	fc := &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(segments)),
	}

	for _, segment := range segments {
		decoded := polyline.Decode(segment.Geometry)
		coords := make([][2]float64, 0, len(decoded))
		for _, p := range decoded {
			coords = append(coords, [2]float64{p.Lng, p.Lat})
		}
		// Segments without stored geometry render as a straight line
		// between their endpoints.
		if len(coords) == 0 {
			coords = [][2]float64{
				{segment.StartLng, segment.StartLat},
				{segment.EndLng, segment.EndLat},
			}
		}

		fc.Features = append(fc.Features, Feature{
			Type: "Feature",
			Geometry: FeatureGeometry{
				Type:        "LineString",
				Coordinates: coords,
			},
			Properties: FeatureProperties{
				ID:           segment.ID,
				Name:         segment.Name,
				Curvature:    segment.Curvature,
				Level:        segment.Level(),
				LengthMeters: segment.LengthMeters,
				Paved:        segment.Paved,
			},
		})
	}

	return fc
}
