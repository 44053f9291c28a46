package repository

import (
	"context"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/pg"
)

type ActivityRepository struct {
	*pg.DB
}

func NewActivityRepository(db *pg.DB) *ActivityRepository {
	return &ActivityRepository{
		db,
	}
}

func (r *ActivityRepository) RecentSubmissions(ctx context.Context, studentID int64, since time.Time, limit int) ([]model.Submission, error) {
	if limit <= 0 {
		limit = 10
	}
	var entities []*SubmissionEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("submitted_at >= ?", since).
		Order("submitted_at DESC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toSubmissionModels(entities), nil
}

func (r *ActivityRepository) RecentQuizResults(ctx context.Context, studentID int64, since time.Time, limit int) ([]model.QuizResult, error) {
	if limit <= 0 {
		limit = 10
	}
	var entities []*QuizResultEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("taken_at >= ?", since).
		Order("taken_at DESC").
		Limit(limit).
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toQuizResultModels(entities), nil
}

func (r *ActivityRepository) AddSubmission(ctx context.Context, s *model.Submission) (*model.Submission, error) {
	entity := &SubmissionEntity{
		StudentID:   s.StudentID,
		Title:       s.Title,
		Grade:       s.Grade,
		SubmittedAt: s.SubmittedAt,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	s.ID = entity.ID
	return s, nil
}

func (r *ActivityRepository) AddQuizResult(ctx context.Context, q *model.QuizResult) (*model.QuizResult, error) {
	entity := &QuizResultEntity{
		StudentID: q.StudentID,
		Quiz:      q.Quiz,
		Score:     q.Score,
		TakenAt:   q.TakenAt,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	q.ID = entity.ID
	return q, nil
}
