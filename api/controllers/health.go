package controllers

import (
	"net/http"

	"github.com/calderwoods/shopkit-backend/api/responses"
	"github.com/calderwoods/shopkit-backend/pkg/config"
	"github.com/calderwoods/shopkit-backend/pkg/db"
	pkgerrors "github.com/calderwoods/shopkit-backend/pkg/errors"
	"github.com/calderwoods/shopkit-backend/pkg/logger"
	"github.com/calderwoods/shopkit-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopKit-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the API's hard dependencies before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShopKit-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["database"] = "unavailable"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "readiness database check failed", err)
				}
			} else {
				checks["database"] = "ok"
			}
		}

		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = "unavailable"
				healthy = false
				if logg != nil {
					logg.Error(r.Context(), "readiness redis check failed", err)
				}
			} else {
				checks["redis"] = "ok"
			}
		}

		if !healthy {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").WithDetails(checks))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
