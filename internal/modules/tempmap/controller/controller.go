package controller

import (
	"context"
	"net/http"

	"kyushu-tempmap/internal/modules/tempmap/types"
)

// SnapshotSource is the cached acquisition pipeline.
type SnapshotSource interface {
	Get(ctx context.Context) (types.Snapshot, bool, error)
	Refresh(ctx context.Context) (types.Snapshot, error)
}

type TempMapController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type tempMapControllerImpl struct {
	source SnapshotSource
}

func NewTempMapController(source SnapshotSource) TempMapController {
	return &tempMapControllerImpl{source: source}
}

func (c *tempMapControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /partials/map", c.handleMapPartial)
	mux.HandleFunc("POST /refresh", c.handleRefresh)
	mux.HandleFunc("GET /api/v1/readings", c.handleReadings)
}
