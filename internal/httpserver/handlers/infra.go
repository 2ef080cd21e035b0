package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/clsdenji/Spark/internal/httpserver/deps"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Entries    *int   `json:"entries,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the health of each moving part: the storage backend,
// the two lists and the catalog. Lists keep working from memory when
// storage is down, so a storage failure degrades rather than breaks.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		historyCount := d.History.Count()
		savedCount := d.Saved.Count()

		components := map[string]componentStatus{
			"storage": checkStorage(d),
			"history": {
				OK:      d.History.Loaded(),
				Entries: &historyCount,
			},
			"saved": {
				OK:      d.Saved.Loaded(),
				Entries: &savedCount,
			},
			"catalog": checkCatalog(d),
		}

		response := infraResponse{
			Status:     overallStatus(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func overallStatus(components map[string]componentStatus) string {
	// Lists not loaded yet = still starting up
	for _, name := range []string{"history", "saved"} {
		if c, exists := components[name]; exists && !c.OK {
			return "starting"
		}
	}

	// Storage down = degraded (memory-only, no durability)
	if storage, exists := components["storage"]; exists && !storage.OK {
		return "degraded"
	}

	return "ok"
}

func checkStorage(d deps.Deps) componentStatus {
	status := componentStatus{
		OK:   true,
		Mode: d.StorageBackend,
	}

	// Only the redis backend has a connection that can go away at
	// runtime; file and memory fail per-operation, if at all.
	if d.RedisClient == nil {
		if d.StorageBackend == "memory" {
			status.Impact = "lists-not-durable"
		}
		return status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.StorageBackend,
			Impact: "lists-not-durable",
			Error:  err.Error(),
		}
	}

	return status
}

func checkCatalog(d deps.Deps) componentStatus {
	if d.Catalog == nil {
		return componentStatus{
			OK:     true,
			Mode:   "disabled",
			Impact: "spot-lookup-unavailable",
		}
	}

	count := d.Catalog.Count()
	lastReload := d.Catalog.LastReload()
	lastReloadStr := "never"
	if !lastReload.IsZero() {
		lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
	}

	return componentStatus{
		OK:         count > 0,
		Entries:    &count,
		LastReload: lastReloadStr,
	}
}
