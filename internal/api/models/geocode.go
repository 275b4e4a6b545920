package models

// Place is a geocoding result.
type Place struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"displayName"`
	Lng         float64 `json:"lng"`
	Lat         float64 `json:"lat"`
	Category    string  `json:"category,omitempty"`
	Type        string  `json:"type,omitempty"`
}

// GeocodeSearchResponse contains place search results.
type GeocodeSearchResponse struct {
	Query  string  `json:"query"`
	Places []Place `json:"places"`
}
