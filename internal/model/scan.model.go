package model

import "time"

// ScanStatus is the visual state of a scan surface.
type ScanStatus string

const (
	ScanStatusReady   ScanStatus = "ready"
	ScanStatusSuccess ScanStatus = "success"
	ScanStatusWarning ScanStatus = "warning"
	ScanStatusError   ScanStatus = "error"
)

// ScanOutcomeKind classifies what a resolved scan meant.
type ScanOutcomeKind string

const (
	OutcomeUnknown        ScanOutcomeKind = "unknown"
	OutcomeAlreadyPresent ScanOutcomeKind = "already_present"
	OutcomeNewAttendance  ScanOutcomeKind = "new_attendance"
)

type ScanOutcome struct {
	Kind    ScanOutcomeKind `json:"kind"`
	Student *Student        `json:"student,omitempty"`
}

// ScanEvent is one raw decoded text from a scanner device. Ephemeral,
// consumed once.
type ScanEvent struct {
	SessionID string    `json:"session_id"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// ToneKind selects an audio feedback asset. AlreadyPresent deliberately maps
// to the error tone (signals "no action taken") but stays a distinct outcome.
type ToneKind string

const (
	ToneSuccess ToneKind = "success"
	ToneError   ToneKind = "error"
)

// ScanSessionSnapshot is the feedback state the UI renders for one scanner.
type ScanSessionSnapshot struct {
	ID      string     `json:"id"`
	Status  ScanStatus `json:"status"`
	Message string     `json:"message"`
	Student *Student   `json:"student,omitempty"`
	ResetAt *time.Time `json:"reset_at,omitempty"`
}
