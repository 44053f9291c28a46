package report

import (
	"context"
	"fmt"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/clock"
	"github.com/rkarimi/tutordesk/pkg/logger"
	"github.com/rkarimi/tutordesk/pkg/prom"
)

// GenerationFallback replaces the content when the external text-generation
// call fails. The operator can still edit and send it.
const GenerationFallback = "report could not be generated"

// ActivityReader is read access to a student's recent work, newest first.
type ActivityReader interface {
	RecentSubmissions(ctx context.Context, studentID int64, since time.Time, limit int) ([]model.Submission, error)
	RecentQuizResults(ctx context.Context, studentID int64, since time.Time, limit int) ([]model.QuizResult, error)
}

// TextGenerator is the external AI service. Fallible and slow.
type TextGenerator interface {
	Generate(ctx context.Context, req model.TextGenRequest) (string, error)
}

// sample sizes per kind: how many recent submissions and quiz results feed
// the activity summary.
var sampleSizes = map[model.ReportKind]struct{ submissions, results int }{
	model.ReportPeriodicShort: {2, 1},
	model.ReportPeriodicLong:  {5, 3},
}

// Generator produces message text for one recipient. Absence alerts are a
// deterministic template; periodic kinds digest recent activity into five
// scalars and delegate the prose to the text-generation service.
type Generator struct {
	activity ActivityReader
	textgen  TextGenerator
	clock    clock.Clock
	issuer   string
}

func NewGenerator(activity ActivityReader, textgen TextGenerator, clk clock.Clock, issuer string) *Generator {
	return &Generator{
		activity: activity,
		textgen:  textgen,
		clock:    clk,
		issuer:   issuer,
	}
}

// Generate never fails; any upstream error degrades to the fixed fallback
// string so the operator keeps a sendable, editable draft.
func (g *Generator) Generate(ctx context.Context, student model.Student, kind model.ReportKind) string {
	if kind == model.ReportAbsenceAlert {
		return fmt.Sprintf(
			"Dear parent, %s was absent from today's session at the center. Please contact us if this is unexpected. Regards, %s",
			student.Name, g.issuer,
		)
	}

	start := time.Now()
	text, err := g.generatePeriodic(ctx, student, kind)
	prom.ObserveGenerationDuration(time.Since(start).Seconds(), string(kind))
	if err != nil {
		prom.IncGenerationFailure(string(kind))
		logger.Warn("report generation failed, using fallback",
			"student_id", student.ID, "kind", string(kind), "error", err)
		return GenerationFallback
	}
	return text
}

func (g *Generator) generatePeriodic(ctx context.Context, student model.Student, kind model.ReportKind) (string, error) {
	sizes, ok := sampleSizes[kind]
	if !ok {
		return "", fmt.Errorf("kind %q has no activity sample", kind)
	}

	since := g.clock.Now().Add(-kind.Window())
	submissions, err := g.activity.RecentSubmissions(ctx, student.ID, since, sizes.submissions)
	if err != nil {
		return "", fmt.Errorf("read submissions: %w", err)
	}
	results, err := g.activity.RecentQuizResults(ctx, student.ID, since, sizes.results)
	if err != nil {
		return "", fmt.Errorf("read quiz results: %w", err)
	}

	req := model.TextGenRequest{
		StudentName:         student.Name,
		TaskCount:           len(submissions) + len(results),
		AverageScore:        averageScore(submissions, results),
		Paid:                student.Paid,
		IssuerName:          g.issuer,
		PeriodLabel:         kind.PeriodLabel(),
		AttendanceIndicator: attendanceIndicator(student),
	}

	text, err := g.textgen.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("text generation: %w", err)
	}
	return text, nil
}

// averageScore is the mean of graded entries in the sampled set: submissions
// contribute their grade only when present, quiz results always contribute.
func averageScore(submissions []model.Submission, results []model.QuizResult) float64 {
	var sum float64
	var n int
	for _, s := range submissions {
		if s.Grade != nil {
			sum += *s.Grade
			n++
		}
	}
	for _, r := range results {
		sum += r.Score
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func attendanceIndicator(student model.Student) int {
	if student.Present || student.Streak > 0 {
		return 1
	}
	return 0
}
