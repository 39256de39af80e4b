package handlers

import (
	"net/http"

	"github.com/tidekv/engine/internal/storage"
	"github.com/tidekv/engine/internal/storage/kv"
	"github.com/tidekv/engine/internal/version"
)

// StatsResponse reports the keyspace summary and build information
type StatsResponse struct {
	Status  string       `json:"status"`
	Store   kv.Stats     `json:"store"`
	Version version.Info `json:"version"`
}

// Stats returns a handler for GET /api/v1/stats
func Stats(storage storage.StorageBackend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, StatsResponse{
			Status:  "success",
			Store:   storage.Stats(),
			Version: version.Get(),
		})
	}
}
