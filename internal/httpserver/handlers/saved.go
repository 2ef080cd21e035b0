package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clsdenji/Spark/internal/domain"
	"github.com/clsdenji/Spark/internal/httpserver/deps"
	"github.com/clsdenji/Spark/internal/logger"
)

type toggleResponse struct {
	Saved bool         `json:"saved"`
	Entry domain.Place `json:"entry"`
}

// SavedList returns the saved parking spots, most recently saved first.
func SavedList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newEntriesResponse(d.Saved.Snapshot()))
	}
}

// SavedToggle flips bookmark state for a spot. The spot's identity is
// derived from its coordinates, so tapping the same location twice
// saves and then unsaves it regardless of request timing.
func SavedToggle(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodePlaceInput(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		entry, saved := d.Saved.Toggle(in)

		d.Logger.Debug("saved spot toggled",
			logger.String("id", entry.ID),
			logger.String("name", entry.Name),
			logger.Bool("saved", saved))

		writeJSON(w, http.StatusOK, toggleResponse{Saved: saved, Entry: entry})
	}
}

// SavedRemove unsaves one spot by id.
func SavedRemove(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Saved.Remove(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// SavedClear unsaves everything, including the persisted copy.
func SavedClear(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Saved.Clear()

		d.Logger.Info("saved spots cleared",
			logger.String("remote_ip", r.RemoteAddr))

		w.WriteHeader(http.StatusNoContent)
	}
}
