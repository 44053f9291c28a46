package handlers

import (
	"context"

	"github.com/fasthttp/router"
	xhttp "github.com/rkarimi/tutordesk/pkg/http"
)

type HealthService interface {
	Get(ctx context.Context) map[string]bool
}
type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{
		svc: svc,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	checks := h.svc.Get(ctx)
	status := 200
	for _, ok := range checks {
		if !ok {
			status = 503
			break
		}
	}
	writeJSON(ctx, status, checks)
}
