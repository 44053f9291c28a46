package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/internal/report"
	"github.com/rkarimi/tutordesk/pkg/clock"
	"github.com/rkarimi/tutordesk/pkg/logger"
	"github.com/rkarimi/tutordesk/pkg/prom"
)

var (
	ErrJobNotFound     = errors.New("report job not found")
	ErrNoDueRecipients = errors.New("no recipients are due for this report kind")
)

const generationTimeout = 30 * time.Second

type ReportRosterRepository interface {
	List(ctx context.Context) ([]model.Student, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.Student, error)
	ApplyIntent(ctx context.Context, intent model.StudentIntent) error
}

// ContentGenerator produces report text for one recipient. Implementations
// never fail; they fall back to a canned notice instead.
type ContentGenerator interface {
	Generate(ctx context.Context, student model.Student, kind model.ReportKind) string
}

type DeliverySender interface {
	Send(phone, content string)
}

// DeliveryLog answers whether a recipient is due and records deliveries.
type DeliveryLog interface {
	IsDue(studentID int64, kind model.ReportKind, now time.Time) bool
	Record(studentID int64, kind model.ReportKind, now time.Time) error
}

// ReportService drives report jobs: one queue of recipients walked in
// order, content generated per recipient, operator sends or skips.
type ReportService struct {
	mu   sync.RWMutex
	jobs map[string]*report.Queue

	roster    ReportRosterRepository
	generator ContentGenerator
	delivery  DeliverySender
	log       DeliveryLog
	clock     clock.Clock
}

func NewReportService(roster ReportRosterRepository, generator ContentGenerator, delivery DeliverySender, log DeliveryLog, clk clock.Clock) *ReportService {
	if clk == nil {
		clk = clock.New()
	}
	return &ReportService{
		jobs:      make(map[string]*report.Queue),
		roster:    roster,
		generator: generator,
		delivery:  delivery,
		log:       log,
		clock:     clk,
	}
}

// OpenJob starts a report job over an explicit recipient set.
func (s *ReportService) OpenJob(ctx context.Context, studentIDs []int64, kind model.ReportKind) (string, model.ReportJobSnapshot, error) {
	recipients, err := s.roster.FindByIDs(ctx, studentIDs)
	if err != nil {
		return "", model.ReportJobSnapshot{}, err
	}
	return s.open(recipients, kind)
}

// OpenDueJob starts a report job over every roster member still due for
// the kind. Recipients covered by a delivery within the dedup period are
// left out.
func (s *ReportService) OpenDueJob(ctx context.Context, kind model.ReportKind) (string, model.ReportJobSnapshot, error) {
	roster, err := s.roster.List(ctx)
	if err != nil {
		return "", model.ReportJobSnapshot{}, err
	}

	now := s.clock.Now()
	due := make([]model.Student, 0, len(roster))
	for _, student := range roster {
		if s.log.IsDue(student.ID, kind, now) {
			due = append(due, student)
		}
	}
	if len(due) == 0 {
		return "", model.ReportJobSnapshot{}, ErrNoDueRecipients
	}

	return s.open(due, kind)
}

func (s *ReportService) open(recipients []model.Student, kind model.ReportKind) (string, model.ReportJobSnapshot, error) {
	q, gen, err := report.Open(recipients, kind)
	if err != nil {
		return "", model.ReportJobSnapshot{}, err
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.jobs[id] = q
	s.mu.Unlock()

	logger.Info("report job opened",
		"job_id", id, "kind", string(kind), "recipients", len(recipients))

	s.startGeneration(id, q, gen)
	return id, s.snapshot(id, q), nil
}

// Job returns the current snapshot for the operator screen.
func (s *ReportService) Job(id string) (model.ReportJobSnapshot, error) {
	q, err := s.job(id)
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}
	return s.snapshot(id, q), nil
}

// Send delivers the current report and advances to the next recipient.
// Delivery is fire-and-forget; only the bookkeeping can fail the call.
func (s *ReportService) Send(ctx context.Context, id string) (model.ReportJobSnapshot, error) {
	q, err := s.job(id)
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}

	delivery, next, err := q.Send()
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}

	s.delivery.Send(delivery.Recipient.Phone, delivery.Content)
	prom.IncReportSend(string(delivery.Kind))

	now := s.clock.Now()
	if err := s.log.Record(delivery.Recipient.ID, delivery.Kind, now); err != nil {
		logger.Error("failed to record delivery",
			"job_id", id, "student_id", delivery.Recipient.ID, "error", err)
	}
	if delivery.Kind.Periodic() {
		at := now
		intent := model.StudentIntent{StudentID: delivery.Recipient.ID, LastReportAt: &at}
		if err := s.roster.ApplyIntent(ctx, intent); err != nil {
			logger.Error("failed to stamp last report time",
				"job_id", id, "student_id", delivery.Recipient.ID, "error", err)
		}
	}

	logger.Info("report sent",
		"job_id", id, "student_id", delivery.Recipient.ID, "kind", string(delivery.Kind))

	if next != nil {
		s.startGeneration(id, q, *next)
	}
	return s.snapshot(id, q), nil
}

// Skip advances past the current recipient without delivering.
func (s *ReportService) Skip(id string) (model.ReportJobSnapshot, error) {
	q, err := s.job(id)
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}

	snap := q.Snapshot()
	next, err := q.Skip()
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}
	prom.IncReportSkip(string(snap.Kind))

	if next != nil {
		s.startGeneration(id, q, *next)
	}
	return s.snapshot(id, q), nil
}

// Edit replaces the pending content with operator-provided text.
func (s *ReportService) Edit(id, text string) (model.ReportJobSnapshot, error) {
	q, err := s.job(id)
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}
	if err := q.Edit(text); err != nil {
		return model.ReportJobSnapshot{}, err
	}
	return s.snapshot(id, q), nil
}

// SetKind switches the report kind and re-generates for the current
// recipient.
func (s *ReportService) SetKind(id string, kind model.ReportKind) (model.ReportJobSnapshot, error) {
	q, err := s.job(id)
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}
	gen, err := q.SetKind(kind)
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}
	s.startGeneration(id, q, gen)
	return s.snapshot(id, q), nil
}

// Close abandons the job from any state.
func (s *ReportService) Close(id string) (model.ReportJobSnapshot, error) {
	q, err := s.job(id)
	if err != nil {
		return model.ReportJobSnapshot{}, err
	}
	q.Close()
	logger.Info("report job closed", "job_id", id)
	return s.snapshot(id, q), nil
}

// startGeneration produces content for the token's recipient. Same-day
// notices are templated locally and complete inline; periodic reports call
// the external generator off the request goroutine.
func (s *ReportService) startGeneration(id string, q *report.Queue, gen report.Generation) {
	if !gen.Kind.Periodic() {
		content := s.generator.Generate(context.Background(), gen.Recipient, gen.Kind)
		q.CompleteGeneration(gen, content)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
		defer cancel()

		content := s.generator.Generate(ctx, gen.Recipient, gen.Kind)
		if !q.CompleteGeneration(gen, content) {
			logger.Debug("discarding stale generation result",
				"job_id", id, "student_id", gen.Recipient.ID)
		}
	}()
}

func (s *ReportService) job(id string) (*report.Queue, error) {
	s.mu.RLock()
	q, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	return q, nil
}

func (s *ReportService) snapshot(id string, q *report.Queue) model.ReportJobSnapshot {
	snap := q.Snapshot()
	snap.ID = id
	return snap
}
