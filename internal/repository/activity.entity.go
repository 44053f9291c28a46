package repository

import (
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
)

type SubmissionEntity struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id"`
	StudentID   int64     `gorm:"column:student_id;not null;index"`
	Title       string    `gorm:"column:title;not null"`
	Grade       *float64  `gorm:"column:grade"`
	SubmittedAt time.Time `gorm:"column:submitted_at;not null;index"`
}

func (SubmissionEntity) TableName() string { return "submissions" }

type QuizResultEntity struct {
	ID        int64     `gorm:"primaryKey;autoIncrement;column:id"`
	StudentID int64     `gorm:"column:student_id;not null;index"`
	Quiz      string    `gorm:"column:quiz;not null"`
	Score     float64   `gorm:"column:score;not null"`
	TakenAt   time.Time `gorm:"column:taken_at;not null;index"`
}

func (QuizResultEntity) TableName() string { return "quiz_results" }

func toSubmissionModels(entities []*SubmissionEntity) []model.Submission {
	out := make([]model.Submission, 0, len(entities))
	for _, e := range entities {
		out = append(out, model.Submission{
			ID:          e.ID,
			StudentID:   e.StudentID,
			Title:       e.Title,
			Grade:       e.Grade,
			SubmittedAt: e.SubmittedAt,
		})
	}
	return out
}

func toQuizResultModels(entities []*QuizResultEntity) []model.QuizResult {
	out := make([]model.QuizResult, 0, len(entities))
	for _, e := range entities {
		out = append(out, model.QuizResult{
			ID:        e.ID,
			StudentID: e.StudentID,
			Quiz:      e.Quiz,
			Score:     e.Score,
			TakenAt:   e.TakenAt,
		})
	}
	return out
}
