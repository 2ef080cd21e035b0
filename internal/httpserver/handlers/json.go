package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clsdenji/Spark/internal/domain"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodePlaceInput parses and validates the request body shared by the
// history add and saved toggle routes. A bad body is the only way these
// routes can fail; everything past this point succeeds.
func decodePlaceInput(w http.ResponseWriter, r *http.Request) (domain.PlaceInput, error) {
	var in domain.PlaceInput

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return in, fmt.Errorf("invalid json body: %w", err)
	}
	if err := validate.Struct(in); err != nil {
		return in, fmt.Errorf("invalid entry: %w", err)
	}
	return in, nil
}
