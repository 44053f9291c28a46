package model

import "time"

// ReportKind is a closed set; adding a kind is a compile-time change, not a
// string comparison scattered across call sites.
type ReportKind string

const (
	ReportAbsenceAlert  ReportKind = "absence_alert"
	ReportPeriodicShort ReportKind = "periodic_short"
	ReportPeriodicLong  ReportKind = "periodic_long"
)

func (k ReportKind) Valid() bool {
	switch k {
	case ReportAbsenceAlert, ReportPeriodicShort, ReportPeriodicLong:
		return true
	}
	return false
}

// Periodic reports are deduplicated per recipient; absence alerts are
// same-day events and never are.
func (k ReportKind) Periodic() bool {
	return k == ReportPeriodicShort || k == ReportPeriodicLong
}

// Window is the trailing activity window summarized by periodic kinds.
func (k ReportKind) Window() time.Duration {
	switch k {
	case ReportPeriodicShort:
		return 7 * 24 * time.Hour
	case ReportPeriodicLong:
		return 30 * 24 * time.Hour
	}
	return 0
}

func (k ReportKind) PeriodLabel() string {
	switch k {
	case ReportPeriodicShort:
		return "week"
	case ReportPeriodicLong:
		return "month"
	}
	return "today"
}

// ReportQueueState is the lifecycle state of a report job.
type ReportQueueState string

const (
	ReportStateIdle       ReportQueueState = "idle"
	ReportStateGenerating ReportQueueState = "generating"
	ReportStateReady      ReportQueueState = "ready"
	ReportStateFinished   ReportQueueState = "finished"
)

// ReportJobSnapshot is what the operator screen renders for an open job.
type ReportJobSnapshot struct {
	ID        string           `json:"id"`
	Kind      ReportKind       `json:"kind"`
	State     ReportQueueState `json:"state"`
	Index     int              `json:"index"`
	Total     int              `json:"total"`
	Recipient *Student         `json:"recipient,omitempty"`
	Content   string           `json:"content"`
}

// TextGenRequest carries the scalar digest handed to the external
// text-generation service.
type TextGenRequest struct {
	StudentName         string  `json:"student_name"`
	TaskCount           int     `json:"task_count"`
	AverageScore        float64 `json:"average_score"`
	Paid                bool    `json:"paid"`
	IssuerName          string  `json:"issuer_name"`
	PeriodLabel         string  `json:"period_label"`
	AttendanceIndicator int     `json:"attendance_indicator"`
}
