package repository

import (
	"context"
	"errors"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrStudentNotFound is returned when a student does not exist.
	ErrStudentNotFound = errors.New("student not found")
)

type StudentRepository struct {
	*pg.DB
}

func NewStudentRepository(db *pg.DB) *StudentRepository {
	return &StudentRepository{
		db,
	}
}

func (r *StudentRepository) Create(ctx context.Context, p model.StudentCreateRequest) (*model.Student, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	entity := &StudentEntity{
		Name:  p.Name,
		Code:  p.Code,
		Phone: p.Phone,
		Paid:  p.Paid,
	}
	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toStudentModel(entity), nil
}

// List returns the full roster as an immutable snapshot, in registration
// order. Matching walks this order, so it must be stable.
func (r *StudentRepository) List(ctx context.Context) ([]model.Student, error) {
	var entities []*StudentEntity
	if err := r.Read(ctx).WithContext(ctx).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	return toStudentModels(entities), nil
}

func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*model.Student, error) {
	var entity StudentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("LOWER(code) = LOWER(?)", code).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return toStudentModel(&entity), nil
}

func (r *StudentRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Student, error) {
	var entities []*StudentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toStudentModels(entities), nil
}

// ApplyIntent applies a mutation the engagement core proposed: attendance
// flag, points delta, last-report timestamp, in one update.
func (r *StudentRepository) ApplyIntent(ctx context.Context, intent model.StudentIntent) error {
	if intent.Empty() {
		return nil
	}

	updates := map[string]interface{}{}
	if intent.Present != nil {
		updates["present"] = *intent.Present
	}
	if intent.PointsDelta != 0 {
		updates["points"] = gorm.Expr("points + ?", intent.PointsDelta)
	}
	if intent.LastReportAt != nil {
		updates["last_report_at"] = *intent.LastReportAt
	}

	result := r.Write(ctx).WithContext(ctx).
		Model(&StudentEntity{}).
		Where("id = ?", intent.StudentID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStudentNotFound
	}
	return nil
}

// ResetAttendance clears the daily attendance flag for the whole roster at
// the start of a new day.
func (r *StudentRepository) ResetAttendance(ctx context.Context) error {
	return r.Write(ctx).WithContext(ctx).
		Model(&StudentEntity{}).
		Where("present = ?", true).
		Update("present", false).
		Error
}
