package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/clsdenji/Spark/internal/domain"
	"github.com/clsdenji/Spark/internal/httpserver/deps"
	"github.com/clsdenji/Spark/internal/logger"
)

const defaultSpotLimit = 5

var (
	errMissing    = errors.New("missing")
	errOutOfRange = errors.New("out of range")
)

type spotsResponse struct {
	Spots []domain.RankedSpot `json:"spots"`
}

// Spots returns catalog spots ranked by distance from the caller's
// position. The client passes its local hour so open-now reflects the
// user's clock, not the server's; it defaults to server time when
// omitted.
//
// Query parameters: lat, lng (required), limit (default 5), hour
// (0-23), open (true = only spots open at that hour).
func Spots(d deps.Deps) http.HandlerFunc {
	now := d.TimeNow
	if now == nil {
		now = time.Now
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if d.Catalog == nil {
			writeError(w, http.StatusServiceUnavailable, "parking catalog not configured")
			return
		}

		q := r.URL.Query()

		lat, err := parseCoord(q.Get("lat"), 90)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid lat: "+err.Error())
			return
		}
		lng, err := parseCoord(q.Get("lng"), 180)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid lng: "+err.Error())
			return
		}

		limit := defaultSpotLimit
		if v := q.Get("limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil || limit < 1 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
		}

		hour := now().Hour()
		if v := q.Get("hour"); v != "" {
			hour, err = strconv.Atoi(v)
			if err != nil || hour < 0 || hour > 23 {
				writeError(w, http.StatusBadRequest, "invalid hour, want 0-23")
				return
			}
		}

		openOnly := false
		if v := q.Get("open"); v != "" {
			openOnly, err = strconv.ParseBool(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid open flag")
				return
			}
		}

		ranked := d.Catalog.Nearest(lat, lng, hour, limit, openOnly)

		d.Logger.Debug("spots lookup",
			logger.Float64("lat", lat),
			logger.Float64("lng", lng),
			logger.Int("hour", hour),
			logger.Int("results", len(ranked)))

		if ranked == nil {
			ranked = []domain.RankedSpot{}
		}
		writeJSON(w, http.StatusOK, spotsResponse{Spots: ranked})
	}
}

func parseCoord(s string, bound float64) (float64, error) {
	if s == "" {
		return 0, errMissing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < -bound || v > bound {
		return 0, errOutOfRange
	}
	return v, nil
}
