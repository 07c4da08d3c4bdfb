package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/vaultcast/storefront-backend/api/responses"
	"github.com/vaultcast/storefront-backend/pkg/config"
	"github.com/vaultcast/storefront-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is a dependency that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

type readinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthReady pings every dependency. Nil entries are reported as disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		resp := readinessResponse{Status: "ready", Checks: make(map[string]string, len(names))}
		for _, name := range names {
			dep := deps[name]
			if dep == nil {
				resp.Checks[name] = "disabled"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				resp.Status = "unavailable"
				resp.Checks[name] = "error"
				if logg != nil {
					logg.Error(logg.WithField(ctx, "dependency", name), "health.dependency_failed", err)
				}
				continue
			}
			resp.Checks[name] = "ok"
		}

		if resp.Status != "ready" {
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, resp)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}
