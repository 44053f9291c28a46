package repository

import (
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
)

type StudentEntity struct {
	ID           int64      `gorm:"primaryKey;autoIncrement;column:id"`
	Name         string     `gorm:"column:name;not null"`
	Code         string     `gorm:"column:code;not null;uniqueIndex"`
	Phone        string     `gorm:"column:phone;not null;default:''"`
	Paid         bool       `gorm:"column:paid;not null;default:false"`
	Present      bool       `gorm:"column:present;not null;default:false"`
	Streak       int        `gorm:"column:streak;not null;default:0"`
	Points       int        `gorm:"column:points;not null;default:0"`
	LastReportAt *time.Time `gorm:"column:last_report_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (StudentEntity) TableName() string { return "students" }

func toStudentEntity(m *model.Student) *StudentEntity {
	return &StudentEntity{
		ID:           m.ID,
		Name:         m.Name,
		Code:         m.Code,
		Phone:        m.Phone,
		Paid:         m.Paid,
		Present:      m.Present,
		Streak:       m.Streak,
		Points:       m.Points,
		LastReportAt: m.LastReportAt,
		CreatedAt:    m.CreatedAt,
	}
}

func toStudentModel(e *StudentEntity) *model.Student {
	return &model.Student{
		ID:           e.ID,
		Name:         e.Name,
		Code:         e.Code,
		Phone:        e.Phone,
		Paid:         e.Paid,
		Present:      e.Present,
		Streak:       e.Streak,
		Points:       e.Points,
		LastReportAt: e.LastReportAt,
		CreatedAt:    e.CreatedAt,
	}
}

func toStudentModels(entities []*StudentEntity) []model.Student {
	out := make([]model.Student, 0, len(entities))
	for _, e := range entities {
		out = append(out, *toStudentModel(e))
	}
	return out
}
