package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/supavault/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in
// app.maintenance.endpoints, or for every route except /health when
// app.maintenance.enabled is set.
func middlewareMaintenance(cfg config.Config) Middleware {
	endpoints := make(map[string]struct{})
	if cfg != nil {
		for _, endpoint := range cfg.GetArray("app.maintenance.endpoints") {
			if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
				endpoints[endpoint] = struct{}{}
			}
		}
	}

	blocked := func(route string) bool {
		if cfg != nil && cfg.GetBool("app.maintenance.enabled") {
			return route != "/health"
		}
		_, ok := endpoints[route]
		return ok
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if blocked(matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
