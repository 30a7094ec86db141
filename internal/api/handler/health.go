package handler

import (
	"net/http"

	"github.com/clarionhq/daypress/internal/api/response"
	"github.com/clarionhq/daypress/internal/repository/postgres"
	"github.com/clarionhq/daypress/internal/repository/redis"
)

// HealthCheck returns a simple health check response
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{
		"status": "ok",
	})
}

// ReadyCheck returns readiness status covering both backing stores
func ReadyCheck(db *postgres.DB, cache *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "database not ready")
			return
		}
		if err := cache.Healthy(r.Context()); err != nil {
			response.Error(w, http.StatusServiceUnavailable, "cache not ready")
			return
		}

		response.OK(w, map[string]string{
			"status": "ready",
		})
	}
}
