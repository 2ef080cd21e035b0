package domain

// Spot is one parking location from the curated catalog. The catalog is
// loaded from a city-keyed YAML file and normalized by the mapper; a
// Spot always carries valid coordinates (rows without them are dropped
// at load time).
//
// A Spot is uniquely identified by its location key.
type Spot struct {
	// ID is derived from the rounded coordinates, so reloading the
	// catalog keeps IDs stable across edits to names or details.
	ID string `json:"id"`

	Name    string `json:"name"`
	Details string `json:"details,omitempty"`
	Address string `json:"address,omitempty"`
	Link    string `json:"link,omitempty"`

	// City is the catalog group the spot belongs to.
	City string `json:"city"`

	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`

	// Opening and Closing keep the source text ("6:00 AM", "24/7");
	// open-now is computed per request, never stored.
	Opening string `json:"opening,omitempty"`
	Closing string `json:"closing,omitempty"`

	Guarded       bool    `json:"guards"`
	CCTV          bool    `json:"cctvs"`
	InitialRate   float64 `json:"initial_rate"`
	PWDDiscount   bool    `json:"pwd_discount"`
	StreetParking bool    `json:"street_parking"`
}

// OpenAt reports whether the spot is open during the given hour of day.
func (s Spot) OpenAt(hour int) bool {
	return OpenAt(s.Opening, s.Closing, hour)
}
