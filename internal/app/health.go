package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/shandysiswandi/supavault/internal/pkg/router"
)

type healthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (healthResponse) Message() string { return "ok" }

// health reports whether Postgres and Redis answer within a second.
func (a *App) health(r *router.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), time.Second)
	defer cancel()

	services := map[string]string{"database": "up", "redis": "up"}
	healthy := true

	if err := a.dbConn.Ping(ctx); err != nil {
		services["database"] = "down"
		healthy = false
	}
	if err := a.cacheConn.Ping(ctx).Err(); err != nil {
		services["redis"] = "down"
		healthy = false
	}

	if !healthy {
		return nil, goerror.NewServer(fmt.Errorf("health: database=%s redis=%s", services["database"], services["redis"]))
	}

	return healthResponse{Status: "up", Services: services}, nil
}
