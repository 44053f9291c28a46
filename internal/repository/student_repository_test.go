package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStudent(t *testing.T, repo *StudentRepository, name, code, phone string) *model.Student {
	t.Helper()
	s, err := repo.Create(context.Background(), model.StudentCreateRequest{
		Name:  name,
		Code:  code,
		Phone: phone,
	})
	require.NoError(t, err)
	return s
}

func TestStudentRepository_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db.DB)
	ctx := context.Background()

	a := seedStudent(t, repo, "Maryam Ahmadi", "M1023", "0912000001")
	b := seedStudent(t, repo, "Ali Karimi", "A2201", "0912000002")

	students, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)

	// Registration order.
	assert.Equal(t, a.ID, students[0].ID)
	assert.Equal(t, b.ID, students[1].ID)
	assert.Equal(t, "Maryam Ahmadi", students[0].Name)
	assert.False(t, students[0].Present)
	assert.Zero(t, students[0].Points)
}

func TestStudentRepository_CreateValidation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db.DB)

	_, err := repo.Create(context.Background(), model.StudentCreateRequest{Code: "X1", Phone: "0912"})
	assert.Error(t, err)
	_, err = repo.Create(context.Background(), model.StudentCreateRequest{Name: "X", Phone: "0912"})
	assert.Error(t, err)
}

func TestStudentRepository_FindByCode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db.DB)
	ctx := context.Background()

	seedStudent(t, repo, "Maryam Ahmadi", "M1023", "0912000001")

	got, err := repo.FindByCode(ctx, "m1023")
	require.NoError(t, err)
	assert.Equal(t, "Maryam Ahmadi", got.Name)

	_, err = repo.FindByCode(ctx, "Z0000")
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStudentRepository_FindByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db.DB)
	ctx := context.Background()

	a := seedStudent(t, repo, "Maryam Ahmadi", "M1023", "0912000001")
	seedStudent(t, repo, "Ali Karimi", "A2201", "0912000002")
	c := seedStudent(t, repo, "Sara Hosseini", "S9", "0912000003")

	students, err := repo.FindByIDs(ctx, []int64{c.ID, a.ID})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, a.ID, students[0].ID)
	assert.Equal(t, c.ID, students[1].ID)
}

func TestStudentRepository_ApplyIntent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db.DB)
	ctx := context.Background()

	s := seedStudent(t, repo, "Maryam Ahmadi", "M1023", "0912000001")

	present := true
	err := repo.ApplyIntent(ctx, model.StudentIntent{
		StudentID:   s.ID,
		Present:     &present,
		PointsDelta: 10,
	})
	require.NoError(t, err)

	students, err := repo.List(ctx)
	require.NoError(t, err)
	assert.True(t, students[0].Present)
	assert.Equal(t, 10, students[0].Points)

	// Deltas accumulate.
	err = repo.ApplyIntent(ctx, model.StudentIntent{StudentID: s.ID, PointsDelta: 5})
	require.NoError(t, err)
	students, _ = repo.List(ctx)
	assert.Equal(t, 15, students[0].Points)

	at := time.Date(2024, 5, 10, 16, 0, 0, 0, time.UTC)
	err = repo.ApplyIntent(ctx, model.StudentIntent{StudentID: s.ID, LastReportAt: &at})
	require.NoError(t, err)
	students, _ = repo.List(ctx)
	require.NotNil(t, students[0].LastReportAt)
	assert.True(t, students[0].LastReportAt.Equal(at))
}

func TestStudentRepository_ApplyIntentMissingStudent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db.DB)

	present := true
	err := repo.ApplyIntent(context.Background(), model.StudentIntent{StudentID: 404, Present: &present})
	assert.ErrorIs(t, err, ErrStudentNotFound)
}

func TestStudentRepository_ApplyEmptyIntentIsNoop(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db.DB)

	assert.NoError(t, repo.ApplyIntent(context.Background(), model.StudentIntent{StudentID: 1}))
}

func TestStudentRepository_ResetAttendance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStudentRepository(db.DB)
	ctx := context.Background()

	a := seedStudent(t, repo, "Maryam Ahmadi", "M1023", "0912000001")
	seedStudent(t, repo, "Ali Karimi", "A2201", "0912000002")

	present := true
	require.NoError(t, repo.ApplyIntent(ctx, model.StudentIntent{StudentID: a.ID, Present: &present, PointsDelta: 10}))

	require.NoError(t, repo.ResetAttendance(ctx))

	students, err := repo.List(ctx)
	require.NoError(t, err)
	assert.False(t, students[0].Present)
	assert.False(t, students[1].Present)
	// Points survive the daily reset.
	assert.Equal(t, 10, students[0].Points)
}
