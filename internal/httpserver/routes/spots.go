package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/clsdenji/Spark/internal/httpserver/deps"
	"github.com/clsdenji/Spark/internal/httpserver/handlers"
)

func init() { Register(registerSpots) }

func registerSpots(r chi.Router, d deps.Deps) {
	r.Get("/api/spots", handlers.Spots(d))
}
