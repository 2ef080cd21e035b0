package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Place represents one remembered location: a past search or a saved
// parking spot. It is the canonical entry shape shared by both lists.
//
// A Place is uniquely identified by its ID within a single list.
type Place struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier.
	// History entries get a generated ID (insertion millis + random
	// suffix); saved entries derive it from their coordinates so the
	// same physical spot always maps to the same ID.
	ID string `json:"id" validate:"required"`

	// Name is the display label the user searched for or saved.
	// Example: "SM Mall of Asia"
	Name string `json:"name" validate:"required"`

	// ─────────────────────────────
	// Location (optional)
	// ─────────────────────────────

	// Address is the human-readable address, when known.
	Address string `json:"address,omitempty"`

	// Lat and Lng are WGS84 coordinates. Pointers: absence and 0.0
	// are different things, and both must survive a round-trip
	// through storage.
	Lat *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// Timestamp is the insertion time in milliseconds since epoch.
	// Set once when the entry is created, never updated.
	Timestamp int64 `json:"timestamp" validate:"required"`
}

// PlaceInput is what callers hand to a list: the fields a user action
// carries. Identity and timestamp are filled in by the list.
type PlaceInput struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name" validate:"required"`
	Address string   `json:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng     *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
}

// NewPlace builds the stored entry for an input, stamping identity and
// insertion time.
func NewPlace(in PlaceInput, id string, now time.Time) Place {
	return Place{
		ID:        id,
		Name:      in.Name,
		Address:   in.Address,
		Lat:       in.Lat,
		Lng:       in.Lng,
		Timestamp: now.UnixMilli(),
	}
}

// NewHistoryID generates an identifier for a history entry: insertion
// millis plus a short random suffix, so two searches in the same
// millisecond still get distinct IDs.
func NewHistoryID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s", now.UnixMilli(), suffix)
}

// SavedID derives the deterministic identifier for a saved spot.
// Coordinates are rounded to 5 decimals (~1m) before hashing, so tiny
// GPS jitter on the same spot still yields the same ID. Inputs without
// coordinates fall back to the normalized name, keeping toggle total.
func SavedID(in PlaceInput) string {
	if in.Lat != nil && in.Lng != nil {
		return LocationKey(*in.Lat, *in.Lng)
	}
	return shortHash("name:" + strings.ToLower(strings.TrimSpace(in.Name)))
}

// LocationKey creates a stable ID from rounded coordinates using a
// SHA-256 hash. The same physical location always produces the same ID.
func LocationKey(lat, lng float64) string {
	return shortHash(fmt.Sprintf("%.5f,%.5f", lat, lng))
}

func shortHash(s string) string {
	hash := sha256.Sum256([]byte(s))
	// First 16 characters of hex encoding (sufficient for uniqueness)
	return hex.EncodeToString(hash[:])[:16]
}

// Coord is a convenience for building optional coordinate fields.
func Coord(v float64) *float64 { return &v }
