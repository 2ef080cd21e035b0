package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/clsdenji/Spark/internal/httpserver/deps"
	"github.com/clsdenji/Spark/internal/httpserver/handlers"
	"github.com/clsdenji/Spark/internal/httpserver/mw"
)

func init() { Register(registerSaved) }

func registerSaved(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        d.RateLimitMaxIPs,
		TrustProxy:        d.TrustProxy,
	})

	r.Route("/api/saved", func(api chi.Router) {
		api.Get("/", handlers.SavedList(d))
		api.With(limit).Post("/toggle", handlers.SavedToggle(d))
		api.With(limit).Delete("/{id}", handlers.SavedRemove(d))
		api.With(limit).Delete("/", handlers.SavedClear(d))
	})
}
