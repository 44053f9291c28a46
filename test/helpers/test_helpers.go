package helpers

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/internal/repository"
	"github.com/rkarimi/tutordesk/pkg/pg"
	"github.com/rkarimi/tutordesk/pkg/redis"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupTestDB(t *testing.T) *pg.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&repository.StudentEntity{},
		&repository.SubmissionEntity{},
		&repository.QuizResultEntity{},
	)
	require.NoError(t, err)

	pgDB := &pg.DB{}
	pgDBValue := reflect.ValueOf(pgDB).Elem()

	readField := pgDBValue.FieldByName("read")
	writeField := pgDBValue.FieldByName("write")

	readField = reflect.NewAt(readField.Type(), readField.Addr().UnsafePointer()).Elem()
	writeField = reflect.NewAt(writeField.Type(), writeField.Addr().UnsafePointer()).Elem()

	readField.Set(reflect.ValueOf(db))
	writeField.Set(reflect.ValueOf(db))

	return pgDB
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func CreateTestStudent(t *testing.T, db *pg.DB, name, code, phone string, paid bool) *model.Student {
	repo := repository.NewStudentRepository(db)
	student, err := repo.Create(context.Background(), model.StudentCreateRequest{
		Name:  name,
		Code:  code,
		Phone: phone,
		Paid:  paid,
	})
	require.NoError(t, err)
	return student
}

func CreateTestSubmission(t *testing.T, db *pg.DB, studentID int64, title string, grade *float64, at time.Time) *model.Submission {
	repo := repository.NewActivityRepository(db)
	sub, err := repo.AddSubmission(context.Background(), &model.Submission{
		StudentID:   studentID,
		Title:       title,
		Grade:       grade,
		SubmittedAt: at,
	})
	require.NoError(t, err)
	return sub
}

func CreateTestQuizResult(t *testing.T, db *pg.DB, studentID int64, quiz string, score float64, at time.Time) *model.QuizResult {
	repo := repository.NewActivityRepository(db)
	result, err := repo.AddQuizResult(context.Background(), &model.QuizResult{
		StudentID: studentID,
		Quiz:      quiz,
		Score:     score,
		TakenAt:   at,
	})
	require.NoError(t, err)
	return result
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}
