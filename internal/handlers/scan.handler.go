package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/fasthttp/router"
	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/internal/services"
	xhttp "github.com/rkarimi/tutordesk/pkg/http"
)

type ScanService interface {
	OpenSession() string
	CloseSession(id string) error
	Session(id string) (model.ScanSessionSnapshot, error)
	HandleScan(ctx context.Context, sessionID, text string) (model.ScanOutcome, model.ScanSessionSnapshot, error)
}

// ScanPublisher enqueues raw scans for the worker. When wired, scans are
// accepted and processed off the request path.
type ScanPublisher interface {
	Publish(ctx context.Context, event model.ScanEvent) (string, error)
}

type ScanHandler struct {
	svc  ScanService
	feed ScanPublisher
}

func RegisterScanRoutes(e *router.Group, h *ScanHandler) {
	e.POST("/scan", h.Scan)
	e.POST("/scan/sessions", h.OpenSession)
	e.GET("/scan/sessions/{id}", h.GetSession)
	e.DELETE("/scan/sessions/{id}", h.CloseSession)
}

func NewScanHandler(svc ScanService, feed ScanPublisher) *ScanHandler {
	return &ScanHandler{svc: svc, feed: feed}
}

type scanRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

type scanAcceptedResponse struct {
	EventID string `json:"event_id"`
}

type scanResponse struct {
	Outcome model.ScanOutcomeKind     `json:"outcome"`
	Session model.ScanSessionSnapshot `json:"session"`
}

type openSessionResponse struct {
	SessionID string `json:"session_id"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ScanHandler) Scan(ctx *xhttp.RequestCtx) {
	var req scanRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if req.SessionID == "" || req.Text == "" {
		writeError(ctx, 400, "session_id and text are required")
		return
	}

	if h.feed != nil {
		id, err := h.feed.Publish(ctx, model.ScanEvent{
			SessionID: req.SessionID,
			Text:      req.Text,
			At:        time.Now(),
		})
		if err != nil {
			writeError(ctx, 500, err.Error())
			return
		}
		writeJSON(ctx, 202, scanAcceptedResponse{EventID: id})
		return
	}

	outcome, snap, err := h.svc.HandleScan(ctx, req.SessionID, req.Text)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			writeError(ctx, 404, err.Error())
			return
		}
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, scanResponse{Outcome: outcome.Kind, Session: snap})
}

func (h *ScanHandler) OpenSession(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, 201, openSessionResponse{SessionID: h.svc.OpenSession()})
}

func (h *ScanHandler) GetSession(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.Session(pathParam(ctx, "id"))
	if err != nil {
		writeError(ctx, 404, err.Error())
		return
	}
	writeJSON(ctx, 200, snap)
}

func (h *ScanHandler) CloseSession(ctx *xhttp.RequestCtx) {
	if err := h.svc.CloseSession(pathParam(ctx, "id")); err != nil {
		writeError(ctx, 404, err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}
