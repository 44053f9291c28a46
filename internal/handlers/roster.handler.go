package handlers

import (
	"context"
	"time"

	"github.com/fasthttp/router"
	"github.com/rkarimi/tutordesk/internal/model"
	xhttp "github.com/rkarimi/tutordesk/pkg/http"
)

type RosterService interface {
	Enroll(ctx context.Context, p model.StudentCreateRequest) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	StartNewDay(ctx context.Context) error
	RecordSubmission(ctx context.Context, studentID int64, title string, grade *float64, at time.Time) (*model.Submission, error)
	RecordQuizResult(ctx context.Context, studentID int64, quiz string, score float64, at time.Time) (*model.QuizResult, error)
}

type RosterHandler struct {
	svc RosterService
}

func RegisterRosterRoutes(e *router.Group, h *RosterHandler) {
	e.POST("/students", h.Enroll)
	e.GET("/students", h.List)
	e.POST("/students/reset-attendance", h.ResetAttendance)
	e.POST("/students/{id}/submissions", h.AddSubmission)
	e.POST("/students/{id}/quizzes", h.AddQuizResult)
}

func NewRosterHandler(svc RosterService) *RosterHandler {
	return &RosterHandler{svc: svc}
}

type enrollRequest struct {
	Name  string `json:"name"`
	Code  string `json:"code"`
	Phone string `json:"phone"`
	Paid  bool   `json:"paid"`
}

type rosterResponse struct {
	Items []model.Student `json:"items"`
	Total int             `json:"total"`
}

type addSubmissionRequest struct {
	Title       string   `json:"title"`
	Grade       *float64 `json:"grade"`
	SubmittedAt string   `json:"submitted_at"`
}

type addQuizResultRequest struct {
	Quiz    string  `json:"quiz"`
	Score   float64 `json:"score"`
	TakenAt string  `json:"taken_at"`
}

/* --------------------------------- Routes ----------------------------------- */

func (h *RosterHandler) Enroll(ctx *xhttp.RequestCtx) {
	var req enrollRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	student, err := h.svc.Enroll(ctx, model.StudentCreateRequest{
		Name:  req.Name,
		Code:  req.Code,
		Phone: req.Phone,
		Paid:  req.Paid,
	})
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, student)
}

func (h *RosterHandler) List(ctx *xhttp.RequestCtx) {
	items, err := h.svc.List(ctx)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, rosterResponse{Items: items, Total: len(items)})
}

func (h *RosterHandler) ResetAttendance(ctx *xhttp.RequestCtx) {
	if err := h.svc.StartNewDay(ctx); err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	ctx.Response.SetStatusCode(204)
}

func (h *RosterHandler) AddSubmission(ctx *xhttp.RequestCtx) {
	id, err := pathParamInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid student id")
		return
	}
	var req addSubmissionRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	at := time.Now()
	if req.SubmittedAt != "" {
		if t, e := parseTime(req.SubmittedAt); e == nil {
			at = t
		}
	}
	sub, err := h.svc.RecordSubmission(ctx, id, req.Title, req.Grade, at)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, sub)
}

func (h *RosterHandler) AddQuizResult(ctx *xhttp.RequestCtx) {
	id, err := pathParamInt64(ctx, "id")
	if err != nil {
		writeError(ctx, 400, "invalid student id")
		return
	}
	var req addQuizResultRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, 400, "invalid JSON: "+err.Error())
		return
	}
	at := time.Now()
	if req.TakenAt != "" {
		if t, e := parseTime(req.TakenAt); e == nil {
			at = t
		}
	}
	quiz, err := h.svc.RecordQuizResult(ctx, id, req.Quiz, req.Score, at)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 201, quiz)
}
