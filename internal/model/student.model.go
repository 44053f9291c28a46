package model

import (
	"errors"
	"strings"
	"time"
)

type Student struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Code         string     `json:"code"` // unique badge code, matched case-insensitively
	Phone        string     `json:"phone"`
	Paid         bool       `json:"paid"`
	Present      bool       `json:"present"` // attendance flag for the current day
	Streak       int        `json:"streak"`
	Points       int        `json:"points"`
	LastReportAt *time.Time `json:"last_report_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// FirstName returns the leading whitespace-separated token of Name. Used for
// spoken greetings on the scan surface.
func (s Student) FirstName() string {
	fields := strings.Fields(s.Name)
	if len(fields) == 0 {
		return s.Name
	}
	return fields[0]
}

// StudentIntent is a requested mutation the roster store applies. The
// engagement core never writes a student directly; it emits intents and the
// owning repository applies them.
type StudentIntent struct {
	StudentID    int64
	Present      *bool
	PointsDelta  int
	LastReportAt *time.Time
}

func (i StudentIntent) Empty() bool {
	return i.Present == nil && i.PointsDelta == 0 && i.LastReportAt == nil
}

// StudentCreateRequest is the input for registering a student.
type StudentCreateRequest struct {
	Name  string
	Code  string
	Phone string
	Paid  bool
}

func (p StudentCreateRequest) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if strings.TrimSpace(p.Code) == "" {
		return errors.New("code is required")
	}
	return nil
}
