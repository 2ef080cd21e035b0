package storage

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/clsdenji/Spark/internal/domain"
)

var validate = validator.New()

// EncodePlaces serializes a list snapshot to its storage blob: a plain
// JSON array, readable by any client of the underlying store.
func EncodePlaces(places []domain.Place) ([]byte, error) {
	data, err := json.Marshal(places)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entries: %w", err)
	}
	return data, nil
}

// DecodePlaces parses a storage blob back into entries. Every entry is
// validated; one malformed entry rejects the whole blob, so a corrupted
// mirror reads as a load failure instead of half a list.
func DecodePlaces(data []byte) ([]domain.Place, error) {
	var places []domain.Place
	if err := json.Unmarshal(data, &places); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entries: %w", err)
	}

	for i := range places {
		if err := validate.Struct(places[i]); err != nil {
			return nil, fmt.Errorf("invalid entry at index %d: %w", i, err)
		}
	}

	return places, nil
}
