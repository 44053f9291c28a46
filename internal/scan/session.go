package scan

import (
	"sync"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
)

// DefaultFeedbackWindow is how long scan feedback stays on screen before the
// surface falls back to ready.
const DefaultFeedbackWindow = 3 * time.Second

// Session holds the per-scanner feedback state rendered next to the camera
// view. Created when a scan surface opens, destroyed when it closes. Resets
// are scheduled transitions keyed by the caller's clock, not wall-clock
// timers: a due reset is applied on the next Refresh, and a later accepted
// scan supersedes a pending reset (cancel-and-replace).
type Session struct {
	mu      sync.Mutex
	id      string
	status  model.ScanStatus
	message string
	student *model.Student
	resetAt time.Time // zero when no reset is pending
}

func NewSession(id string) *Session {
	return &Session{id: id, status: model.ScanStatusReady}
}

func (s *Session) ID() string { return s.id }

// Show replaces the current feedback and schedules the fall-back to ready.
func (s *Session) Show(status model.ScanStatus, message string, student *model.Student, now time.Time, window time.Duration) {
	if window <= 0 {
		window = DefaultFeedbackWindow
	}
	s.mu.Lock()
	s.status = status
	s.message = message
	s.student = student
	s.resetAt = now.Add(window)
	s.mu.Unlock()
}

// Refresh applies a due reset, then snapshots the session for rendering.
func (s *Session) Refresh(now time.Time) model.ScanSessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.resetAt.IsZero() && !now.Before(s.resetAt) {
		s.status = model.ScanStatusReady
		s.message = ""
		s.student = nil
		s.resetAt = time.Time{}
	}

	snap := model.ScanSessionSnapshot{
		ID:      s.id,
		Status:  s.status,
		Message: s.message,
		Student: s.student,
	}
	if !s.resetAt.IsZero() {
		t := s.resetAt
		snap.ResetAt = &t
	}
	return snap
}
