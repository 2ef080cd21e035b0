package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/clsdenji/Spark/internal/domain"
)

// Mapper converts raw catalog rows to domain.Spot entities
type Mapper struct{}

// NewMapper creates a new mapper instance
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapSpots converts SpotsConfig to []domain.Spot, normalizing the
// free-text columns and dropping rows that cannot be placed on a map.
func (m *Mapper) MapSpots(config SpotsConfig) ([]domain.Spot, error) {
	var spots []domain.Spot

	for city, rows := range config {
		for _, props := range rows {
			if props.Name == "" {
				continue
			}
			// Skip rows without coordinates
			if props.Lat == nil || props.Lng == nil {
				continue
			}

			spot := domain.Spot{
				ID:            domain.LocationKey(*props.Lat, *props.Lng),
				Name:          props.Name,
				Details:       props.Details,
				Address:       props.Address,
				Opening:       props.Opening,
				Closing:       props.Closing,
				Link:          props.Link,
				City:          city,
				Lat:           *props.Lat,
				Lng:           *props.Lng,
				Guarded:       ynToBool(props.Guards),
				CCTV:          ynToBool(props.CCTVs),
				InitialRate:   rateToFloat(props.InitialRate),
				PWDDiscount:   discountToBool(props.PWDDiscount),
				StreetParking: ynToBool(props.StreetParking),
			}

			spots = append(spots, spot)
		}
	}

	if len(spots) == 0 {
		return nil, fmt.Errorf("no valid parking spots found in catalog")
	}

	return spots, nil
}

// ynToBool normalizes YES/NO style cells. Anything that doesn't clearly
// say yes counts as no.
func ynToBool(val interface{}) bool {
	switch v := val.(type) {
	case string:
		return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(v)), "Y")
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	}
	return false
}

// discountToBool normalizes PWD/SC discount cells, which tend to read
// like "20% DISCOUNT" or "EXEMPTED" rather than a plain yes.
func discountToBool(val interface{}) bool {
	if s, ok := val.(string); ok {
		u := strings.ToUpper(s)
		return strings.Contains(u, "EXEMPT") ||
			strings.Contains(u, "DISCOUNT") ||
			strings.Contains(u, "YES")
	}
	return ynToBool(val)
}

var rateRe = regexp.MustCompile(`\d+(\.\d+)?`)

// rateToFloat extracts a numeric initial rate from cells like
// "₱50 first 3 hours" or "1,500/month"; missing or unreadable is 0.
func rateToFloat(val interface{}) float64 {
	switch v := val.(type) {
	case int:
		return float64(v)
	case float64:
		return v
	case string:
		if m := rateRe.FindString(strings.ReplaceAll(v, ",", "")); m != "" {
			if f, err := strconv.ParseFloat(m, 64); err == nil {
				return f
			}
		}
	}
	return 0
}
