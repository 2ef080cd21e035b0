package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/clsdenji/Spark/internal/httpserver/deps"
	"github.com/clsdenji/Spark/internal/httpserver/handlers"
	"github.com/clsdenji/Spark/internal/httpserver/mw"
)

func init() { Register(registerHistory) }

func registerHistory(r chi.Router, d deps.Deps) {
	// Reads are cheap snapshots; only mutations are rate limited.
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        d.RateLimitMaxIPs,
		TrustProxy:        d.TrustProxy,
	})

	r.Route("/api/history", func(api chi.Router) {
		api.Get("/", handlers.HistoryList(d))
		api.With(limit).Post("/", handlers.HistoryAdd(d))
		api.With(limit).Delete("/{id}", handlers.HistoryRemove(d))
		api.With(limit).Delete("/", handlers.HistoryClear(d))
	})
}
