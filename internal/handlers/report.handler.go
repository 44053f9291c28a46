package handlers

import (
	"context"
	"errors"

	"github.com/fasthttp/router"
	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/internal/report"
	"github.com/rkarimi/tutordesk/internal/services"
	xhttp "github.com/rkarimi/tutordesk/pkg/http"
)

type ReportService interface {
	OpenJob(ctx context.Context, studentIDs []int64, kind model.ReportKind) (string, model.ReportJobSnapshot, error)
	OpenDueJob(ctx context.Context, kind model.ReportKind) (string, model.ReportJobSnapshot, error)
	Job(id string) (model.ReportJobSnapshot, error)
	Send(ctx context.Context, id string) (model.ReportJobSnapshot, error)
	Skip(id string) (model.ReportJobSnapshot, error)
	Edit(id, text string) (model.ReportJobSnapshot, error)
	SetKind(id string, kind model.ReportKind) (model.ReportJobSnapshot, error)
	Close(id string) (model.ReportJobSnapshot, error)
}

type ReportHandler struct {
	svc ReportService
}

func RegisterReportRoutes(e *router.Group, h *ReportHandler) {
	e.POST("/reports", h.OpenJob)
	e.GET("/reports/{id}", h.GetJob)
	e.POST("/reports/{id}/send", h.Send)
	e.POST("/reports/{id}/skip", h.Skip)
	e.POST("/reports/{id}/close", h.Close)
	e.PUT("/reports/{id}/content", h.EditContent)
	e.PUT("/reports/{id}/kind", h.SetKind)
}

func NewReportHandler(svc ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

type openJobRequest struct {
	Kind       model.ReportKind `json:"kind"`
	StudentIDs []int64          `json:"student_ids"`
}

type editContentRequest struct {
	Content string `json:"content"`
}

type setKindRequest struct {
	Kind model.ReportKind `json:"kind"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ReportHandler) OpenJob(ctx *xhttp.RequestCtx) {
	var req openJobRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if !req.Kind.Valid() {
		writeError(ctx, 400, "unknown report kind")
		return
	}

	var (
		snap model.ReportJobSnapshot
		err  error
	)
	if len(req.StudentIDs) > 0 {
		_, snap, err = h.svc.OpenJob(ctx, req.StudentIDs, req.Kind)
	} else {
		_, snap, err = h.svc.OpenDueJob(ctx, req.Kind)
	}
	if err != nil {
		if errors.Is(err, services.ErrNoDueRecipients) || errors.Is(err, report.ErrNoRecipients) {
			writeError(ctx, 409, err.Error())
			return
		}
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, snap)
}

func (h *ReportHandler) GetJob(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.Job(pathParam(ctx, "id"))
	if err != nil {
		writeError(ctx, 404, err.Error())
		return
	}
	writeJSON(ctx, 200, snap)
}

func (h *ReportHandler) Send(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.Send(ctx, pathParam(ctx, "id"))
	if err != nil {
		writeReportError(ctx, err)
		return
	}
	writeJSON(ctx, 200, snap)
}

func (h *ReportHandler) Skip(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.Skip(pathParam(ctx, "id"))
	if err != nil {
		writeReportError(ctx, err)
		return
	}
	writeJSON(ctx, 200, snap)
}

func (h *ReportHandler) Close(ctx *xhttp.RequestCtx) {
	snap, err := h.svc.Close(pathParam(ctx, "id"))
	if err != nil {
		writeReportError(ctx, err)
		return
	}
	writeJSON(ctx, 200, snap)
}

func (h *ReportHandler) EditContent(ctx *xhttp.RequestCtx) {
	var req editContentRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	snap, err := h.svc.Edit(pathParam(ctx, "id"), req.Content)
	if err != nil {
		writeReportError(ctx, err)
		return
	}
	writeJSON(ctx, 200, snap)
}

func (h *ReportHandler) SetKind(ctx *xhttp.RequestCtx) {
	var req setKindRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	if !req.Kind.Valid() {
		writeError(ctx, 400, "unknown report kind")
		return
	}
	snap, err := h.svc.SetKind(pathParam(ctx, "id"), req.Kind)
	if err != nil {
		writeReportError(ctx, err)
		return
	}
	writeJSON(ctx, 200, snap)
}

func writeReportError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrJobNotFound):
		writeError(ctx, 404, err.Error())
	case errors.Is(err, report.ErrNotReady), errors.Is(err, report.ErrFinished):
		writeError(ctx, 409, err.Error())
	default:
		writeError(ctx, 400, err.Error())
	}
}
