package scan

import (
	"fmt"
	"sync"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/clock"
)

// AttendancePoints is awarded once per newly-recorded attendance.
const AttendancePoints = 10

// Resolution is everything a single scan produced: the domain outcome, the
// feedback to render, and the intent (if any) for the roster store to apply.
// Fresh is false when the scan was a debounced repeat; in that case Outcome
// carries the previous outcome unchanged and no feedback fields are set.
type Resolution struct {
	Outcome  model.ScanOutcome
	Fresh    bool
	Intent   *model.StudentIntent
	Status   model.ScanStatus
	Message  string
	Tone     model.ToneKind
	Greeting string // spoken text, new attendance only
}

// Resolver turns raw scan text into attendance outcomes. One resolver per
// scan session; it owns that session's debouncer, so identical repeats
// within the cool-down window resolve to a silent no-op and at most one
// attendance-change intent is emitted per newly-present student.
type Resolver struct {
	mu       sync.Mutex
	debounce *Debouncer
	clock    clock.Clock
	last     model.ScanOutcome
}

func NewResolver(clk clock.Clock, debounceWindow time.Duration) *Resolver {
	return &Resolver{
		debounce: NewDebouncer(debounceWindow),
		clock:    clk,
	}
}

// Resolve never fails: unmatched or malformed input resolves to Unknown.
func (r *Resolver) Resolve(text string, roster []model.Student) Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if !r.debounce.Accept(text, now) {
		return Resolution{Outcome: r.last}
	}

	res := Resolution{Fresh: true}
	student := Match(text, roster)
	switch {
	case student == nil:
		res.Outcome = model.ScanOutcome{Kind: model.OutcomeUnknown}
		res.Status = model.ScanStatusError
		res.Message = "code not registered"
		res.Tone = model.ToneError

	case student.Present:
		res.Outcome = model.ScanOutcome{Kind: model.OutcomeAlreadyPresent, Student: student}
		res.Status = model.ScanStatusWarning
		res.Message = fmt.Sprintf("%s is already recorded today", student.Name)
		// Same tone asset as Unknown: both mean "no action taken".
		res.Tone = model.ToneError

	default:
		present := true
		res.Outcome = model.ScanOutcome{Kind: model.OutcomeNewAttendance, Student: student}
		res.Status = model.ScanStatusSuccess
		res.Message = fmt.Sprintf("welcome, %s!", student.FirstName())
		res.Tone = model.ToneSuccess
		res.Greeting = fmt.Sprintf("Welcome %s", student.FirstName())
		res.Intent = &model.StudentIntent{
			StudentID:   student.ID,
			Present:     &present,
			PointsDelta: AttendancePoints,
		}
	}

	r.last = res.Outcome
	return res
}
