package controllers

import (
	"context"
	"net/http"

	"github.com/ryoevisu/kaishop-backend/api/responses"
	"github.com/ryoevisu/kaishop-backend/pkg/config"
	pkgerrors "github.com/ryoevisu/kaishop-backend/pkg/errors"
	"github.com/ryoevisu/kaishop-backend/pkg/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KaiShop-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the optional dependencies. Nil pingers are skipped so
// a deployment without redis still reports ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-KaiShop-Env", cfg.App.Env)
		for _, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency ping"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
