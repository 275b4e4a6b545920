// Package models provides request and response models for the Switchback API.
package models

import "time"

// Coordinate represents a geographic point.
type Coordinate struct {
	Lng float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Lat float64 `json:"lat" validate:"required,gte=-90,lte=90"`
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLng float64 `json:"minLng" validate:"required,gte=-180,lte=180"`
	MinLat float64 `json:"minLat" validate:"required,gte=-90,lte=90"`
	MaxLng float64 `json:"maxLng" validate:"required,gte=-180,lte=180"`
	MaxLat float64 `json:"maxLat" validate:"required,gte=-90,lte=90"`
}

// PagedResponseMeta contains pagination metadata.
type PagedResponseMeta struct {
	Limit      int     `json:"limit"`
	NextCursor *string `json:"nextCursor,omitempty"`
}

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// ExportFormat identifies a saved route export format.
type ExportFormat string

const (
	ExportFormatGPX ExportFormat = "gpx"
	ExportFormatKML ExportFormat = "kml"
)

// Timestamp is a helper type for time.Time with custom JSON formatting.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	// Remove quotes
	s := string(data[1 : len(data)-1])
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
