package services

import (
	"context"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/logger"
)

type StudentStore interface {
	Create(ctx context.Context, p model.StudentCreateRequest) (*model.Student, error)
	List(ctx context.Context) ([]model.Student, error)
	ResetAttendance(ctx context.Context) error
}

type ActivityStore interface {
	AddSubmission(ctx context.Context, s *model.Submission) (*model.Submission, error)
	AddQuizResult(ctx context.Context, q *model.QuizResult) (*model.QuizResult, error)
}

// RosterService covers roster administration: enrolling students, listing
// them for the dashboard and recording their day-to-day activity.
type RosterService struct {
	students StudentStore
	activity ActivityStore
}

func NewRosterService(students StudentStore, activity ActivityStore) *RosterService {
	return &RosterService{students: students, activity: activity}
}

func (s *RosterService) Enroll(ctx context.Context, p model.StudentCreateRequest) (*model.Student, error) {
	student, err := s.students.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	logger.Info("student enrolled", "student_id", student.ID, "code", student.Code)
	return student, nil
}

func (s *RosterService) List(ctx context.Context) ([]model.Student, error) {
	return s.students.List(ctx)
}

// StartNewDay clears every attendance flag so the next scan of each code
// counts as a fresh arrival.
func (s *RosterService) StartNewDay(ctx context.Context) error {
	if err := s.students.ResetAttendance(ctx); err != nil {
		return err
	}
	logger.Info("attendance flags reset")
	return nil
}

func (s *RosterService) RecordSubmission(ctx context.Context, studentID int64, title string, grade *float64, at time.Time) (*model.Submission, error) {
	return s.activity.AddSubmission(ctx, &model.Submission{
		StudentID:   studentID,
		Title:       title,
		Grade:       grade,
		SubmittedAt: at,
	})
}

func (s *RosterService) RecordQuizResult(ctx context.Context, studentID int64, quiz string, score float64, at time.Time) (*model.QuizResult, error) {
	return s.activity.AddQuizResult(ctx, &model.QuizResult{
		StudentID: studentID,
		Quiz:      quiz,
		Score:     score,
		TakenAt:   at,
	})
}
