package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clsdenji/Spark/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready   bool `json:"ready"`
	History bool `json:"history"`
	Saved   bool `json:"saved"`
}

// Readyz reports readiness: the service accepts traffic once both lists
// have finished their initial load from storage. Mutations before that
// would still work, but reads could briefly show pre-restart state.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history := d.History.Loaded()
		saved := d.Saved.Loaded()
		ready := history && saved

		w.Header().Set("Content-Type", "application/json")
		if ready {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready:   ready,
			History: history,
			Saved:   saved,
		})
	}
}
