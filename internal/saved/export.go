package saved

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/switchbackmaps/switchback/pkg/polyline"
)

// gpx is the document root for GPX 1.1 export.
type gpx struct {
	XMLName   xml.Name    `xml:"gpx"`
	Version   string      `xml:"version,attr"`
	Creator   string      `xml:"creator,attr"`
	Namespace string      `xml:"xmlns,attr"`
	Metadata  gpxMetadata `xml:"metadata"`
	Waypoints []gpxPoint  `xml:"wpt"`
	Track     gpxTrack    `xml:"trk"`
}

type gpxMetadata struct {
	Name string `xml:"name"`
	Time string `xml:"time"`
}

type gpxPoint struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Name string  `xml:"name,omitempty"`
}

type gpxTrack struct {
	Name    string     `xml:"name"`
	Segment gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

// ExportGPX renders the route as a GPX 1.1 document: the stops as
// waypoints and the road-snapped geometry as a single track.
func ExportGPX(route *Route) ([]byte, error) {
	doc := gpx{
		Version:   "1.1",
		Creator:   "switchback",
		Namespace: "http://www.topografix.com/GPX/1/1",
		Metadata: gpxMetadata{
			Name: route.Name,
			Time: route.CreatedAt.UTC().Format(time.RFC3339),
		},
		Track: gpxTrack{Name: route.Name},
	}

	for _, wp := range route.Waypoints {
		name := wp.Label
		if name == "" {
			name = fmt.Sprintf("Stop %d", wp.Order+1)
		}
		doc.Waypoints = append(doc.Waypoints, gpxPoint{Lat: wp.Lat, Lon: wp.Lng, Name: name})
	}

	for _, p := range polyline.Decode(route.Geometry) {
		doc.Track.Segment.Points = append(doc.Track.Segment.Points, gpxPoint{Lat: p.Lat, Lon: p.Lng})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// kml is the document root for KML export.
type kml struct {
	XMLName   xml.Name    `xml:"kml"`
	Namespace string      `xml:"xmlns,attr"`
	Document  kmlDocument `xml:"Document"`
}

type kmlDocument struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name       string         `xml:"name"`
	Point      *kmlGeometry   `xml:"Point,omitempty"`
	LineString *kmlLineString `xml:"LineString,omitempty"`
}

type kmlGeometry struct {
	Coordinates string `xml:"coordinates"`
}

type kmlLineString struct {
	Tessellate  int    `xml:"tessellate"`
	Coordinates string `xml:"coordinates"`
}

// ExportKML renders the route as a KML document: one placemark per stop
// and a tessellated line string for the geometry. KML coordinate order
// is lng,lat.
func ExportKML(route *Route) ([]byte, error) {
	doc := kml{
		Namespace: "http://www.opengis.net/kml/2.2",
		Document:  kmlDocument{Name: route.Name},
	}

	for _, wp := range route.Waypoints {
		name := wp.Label
		if name == "" {
			name = fmt.Sprintf("Stop %d", wp.Order+1)
		}
		doc.Document.Placemarks = append(doc.Document.Placemarks, kmlPlacemark{
			Name:  name,
			Point: &kmlGeometry{Coordinates: fmt.Sprintf("%f,%f", wp.Lng, wp.Lat)},
		})
	}

	points := polyline.Decode(route.Geometry)
	if len(points) > 0 {
		var coords strings.Builder
		for i, p := range points {
			if i > 0 {
				coords.WriteByte(' ')
			}
			fmt.Fprintf(&coords, "%f,%f", p.Lng, p.Lat)
		}
		doc.Document.Placemarks = append(doc.Document.Placemarks, kmlPlacemark{
			Name:       route.Name,
			LineString: &kmlLineString{Tessellate: 1, Coordinates: coords.String()},
		})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
