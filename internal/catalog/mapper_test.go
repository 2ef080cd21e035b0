package catalog

import (
	"testing"

	"github.com/clsdenji/Spark/internal/domain"
)

func TestMapperMapSpots(t *testing.T) {
	config := SpotsConfig{
		"Manila": {
			{
				Name:          "Quiapo Parking",
				Address:       "Quezon Blvd, Quiapo",
				Opening:       "6:00 AM",
				Closing:       "10:00 PM",
				Lat:           domain.Coord(14.5995),
				Lng:           domain.Coord(120.9842),
				Guards:        "YES",
				CCTVs:         "NO",
				InitialRate:   "50 first 3 hours",
				PWDDiscount:   "20% DISCOUNT",
				StreetParking: "NO",
			},
		},
		"Makati": {
			{
				Name: "Glorietta Parking",
				Lat:  domain.Coord(14.5513),
				Lng:  domain.Coord(121.0251),
			},
		},
	}

	mapper := NewMapper()
	spots, err := mapper.MapSpots(config)
	if err != nil {
		t.Fatalf("MapSpots() error = %v", err)
	}

	if len(spots) != 2 {
		t.Fatalf("MapSpots() returned %v spots, want 2", len(spots))
	}

	found := false
	for _, s := range spots {
		if s.Name != "Quiapo Parking" {
			continue
		}
		found = true
		if s.City != "Manila" {
			t.Errorf("spot City = %v, want Manila", s.City)
		}
		if s.ID != domain.LocationKey(14.5995, 120.9842) {
			t.Errorf("spot ID = %v, want location key for coordinates", s.ID)
		}
		if !s.Guarded {
			t.Error("spot Guarded = false, want true")
		}
		if s.CCTV {
			t.Error("spot CCTV = true, want false")
		}
		if s.InitialRate != 50 {
			t.Errorf("spot InitialRate = %v, want 50", s.InitialRate)
		}
		if !s.PWDDiscount {
			t.Error("spot PWDDiscount = false, want true")
		}
		if s.StreetParking {
			t.Error("spot StreetParking = true, want false")
		}
	}
	if !found {
		t.Error("MapSpots() did not find Quiapo Parking")
	}
}

func TestMapperMapSpotsEmptyConfig(t *testing.T) {
	config := SpotsConfig{}
	mapper := NewMapper()
	spots, err := mapper.MapSpots(config)

	// Empty config should return an error
	if err == nil {
		t.Error("MapSpots() with empty config should return error")
	}

	if spots != nil {
		t.Errorf("MapSpots() with empty config should return nil spots, got %v", len(spots))
	}
}

func TestMapperMapSpotsSkipsUnmappableRows(t *testing.T) {
	config := SpotsConfig{
		"Manila": {
			{
				Name: "No Coordinates Lot",
			},
			{
				Name: "Half Coordinates Lot",
				Lat:  domain.Coord(14.6),
			},
			{
				// Unnamed row
				Lat: domain.Coord(14.6),
				Lng: domain.Coord(121.0),
			},
			{
				Name: "Good Lot",
				Lat:  domain.Coord(14.6),
				Lng:  domain.Coord(121.0),
			},
		},
	}

	mapper := NewMapper()
	spots, err := mapper.MapSpots(config)
	if err != nil {
		t.Fatalf("MapSpots() error = %v", err)
	}

	if len(spots) != 1 {
		t.Fatalf("MapSpots() returned %v spots, want 1", len(spots))
	}
	if spots[0].Name != "Good Lot" {
		t.Errorf("spot Name = %v, want Good Lot", spots[0].Name)
	}
}

func TestMapperMapSpotsAllRowsInvalid(t *testing.T) {
	config := SpotsConfig{
		"Manila": {
			{Name: "No Coordinates Lot"},
		},
	}

	mapper := NewMapper()
	spots, err := mapper.MapSpots(config)

	if err == nil {
		t.Error("MapSpots() should return error when no valid spots found")
	}
	if spots != nil {
		t.Errorf("MapSpots() should return nil when no valid spots, got %v spots", len(spots))
	}
}

func TestYnToBool(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected bool
	}{
		{"uppercase yes", "YES", true},
		{"lowercase yes", "yes", true},
		{"single letter", "Y", true},
		{"padded yes", "  Yes, with guards  ", true},
		{"uppercase no", "NO", false},
		{"empty string", "", false},
		{"nil", nil, false},
		{"bool true", true, true},
		{"int one", 1, true},
		{"int zero", 0, false},
		{"float one", 1.0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ynToBool(tt.input); got != tt.expected {
				t.Errorf("ynToBool(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDiscountToBool(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected bool
	}{
		{"percent discount", "20% DISCOUNT", true},
		{"exempted", "EXEMPTED", true},
		{"lowercase exempt", "exempt", true},
		{"plain yes", "YES", true},
		{"plain no", "NO", false},
		{"not applicable", "N/A", false},
		{"nil", nil, false},
		{"bool true", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := discountToBool(tt.input); got != tt.expected {
				t.Errorf("discountToBool(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRateToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
	}{
		{"rate with prose", "50 first 3 hours", 50},
		{"thousands separator", "1,500/month", 1500},
		{"decimal", "45.50", 45.5},
		{"currency prefix", "P40 flat", 40},
		{"free text", "free", 0},
		{"empty string", "", 0},
		{"nil", nil, 0},
		{"int", 40, 40},
		{"float", 35.5, 35.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rateToFloat(tt.input); got != tt.expected {
				t.Errorf("rateToFloat(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
