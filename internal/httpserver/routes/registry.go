package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/clsdenji/Spark/internal/httpserver/deps"
)

// Registrar mounts one route group on the router. Each route file
// registers itself from init(), so adding an endpoint never touches the
// server wiring.
type Registrar func(r chi.Router, d deps.Deps)

var registry []Registrar

func Register(reg Registrar) {
	registry = append(registry, reg)
}

// RegisterAll mounts every registered group. Called once from
// httpserver.New.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registry {
		reg(r, d)
	}
}
