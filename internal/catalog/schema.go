package catalog

// SpotsConfig represents the top-level structure of spots.yaml:
// city/area names keyed to their parking spot rows.
type SpotsConfig map[string][]SpotProps

// SpotProps is one raw catalog row. The yes/no, discount and rate
// columns come from hand-maintained sheets, so they stay loosely typed
// here and are normalized by the mapper.
type SpotProps struct {
	Name    string `yaml:"name"`
	Details string `yaml:"details,omitempty"`
	Address string `yaml:"address,omitempty"`
	Opening string `yaml:"opening,omitempty"`
	Closing string `yaml:"closing,omitempty"`
	Link    string `yaml:"link,omitempty"`

	// Rows without coordinates are dropped by the mapper.
	Lat *float64 `yaml:"lat"`
	Lng *float64 `yaml:"lng"`

	Guards        interface{} `yaml:"guards,omitempty"`
	CCTVs         interface{} `yaml:"cctvs,omitempty"`
	InitialRate   interface{} `yaml:"initial_rate,omitempty"`
	PWDDiscount   interface{} `yaml:"pwd_discount,omitempty"`
	StreetParking interface{} `yaml:"street_parking,omitempty"`
}
