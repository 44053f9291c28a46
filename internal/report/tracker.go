package report

import (
	"fmt"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/logger"
)

// DuePeriod is how long a delivered periodic report stays fresh for a
// recipient before they are due again.
const DuePeriod = 14 * 24 * time.Hour

// Store is the key-value surface the tracker persists through; the redis
// adapter satisfies it.
type Store interface {
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}

// Tracker records the last-delivered instant per (recipient, kind) so the
// report workflow can resume the next day without re-notifying anyone.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

func trackerKey(studentID int64, kind model.ReportKind) string {
	return fmt.Sprintf("report:last:%s:%d", kind, studentID)
}

// IsDue reports whether the recipient should receive a new report of kind at
// instant now. Absence alerts are same-day events and always due. A missing
// or unreadable record counts as due: better a duplicate report than a
// silently starved recipient.
func (t *Tracker) IsDue(studentID int64, kind model.ReportKind, now time.Time) bool {
	if !kind.Periodic() {
		return true
	}

	raw, err := t.store.Get(trackerKey(studentID, kind))
	if err != nil || len(raw) == 0 {
		return true
	}
	last, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		logger.Warn("unreadable delivery record, treating as due",
			"student_id", studentID, "kind", string(kind), "raw", string(raw))
		return true
	}
	return now.Sub(last) > DuePeriod
}

// Record overwrites the last-delivered instant. Records are per
// (recipient, kind), so last-write-wins needs no merge. Absence alerts are
// not tracked.
func (t *Tracker) Record(studentID int64, kind model.ReportKind, now time.Time) error {
	if !kind.Periodic() {
		return nil
	}
	return t.store.Set(trackerKey(studentID, kind), []byte(now.UTC().Format(time.RFC3339)), 0)
}
