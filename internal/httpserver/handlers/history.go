package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clsdenji/Spark/internal/domain"
	"github.com/clsdenji/Spark/internal/httpserver/deps"
	"github.com/clsdenji/Spark/internal/logger"
)

type entriesResponse struct {
	Entries []domain.Place `json:"entries"`
}

func newEntriesResponse(entries []domain.Place) entriesResponse {
	if entries == nil {
		entries = []domain.Place{}
	}
	return entriesResponse{Entries: entries}
}

// HistoryList returns the current search history, newest first.
func HistoryList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newEntriesResponse(d.History.Snapshot()))
	}
}

// HistoryAdd records a search. Re-adding a place the user already
// searched for moves it to the front instead of duplicating it.
func HistoryAdd(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decodePlaceInput(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		entry := d.History.Add(in)

		d.Logger.Debug("history entry added",
			logger.String("id", entry.ID),
			logger.String("name", entry.Name))

		writeJSON(w, http.StatusCreated, entry)
	}
}

// HistoryRemove drops one entry by id. Removing an id that is already
// gone is not an error: the end state is the same.
func HistoryRemove(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.History.Remove(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

// HistoryClear forgets the whole search history, including the
// persisted copy.
func HistoryClear(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.History.Clear()

		d.Logger.Info("search history cleared",
			logger.String("remote_ip", r.RemoteAddr))

		w.WriteHeader(http.StatusNoContent)
	}
}
