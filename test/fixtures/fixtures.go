package fixtures

import (
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
)

var (
	TestStudentMaryam = model.Student{
		ID:    1,
		Name:  "Maryam Ahmadi",
		Code:  "M1023",
		Phone: "0912000001",
		Paid:  true,
	}

	TestStudentAli = model.Student{
		ID:    2,
		Name:  "Ali Karimi",
		Code:  "A2201",
		Phone: "0912000002",
		Paid:  false,
	}

	TestStudentSara = model.Student{
		ID:    3,
		Name:  "Sara Hosseini",
		Code:  "S9",
		Phone: "0912000003",
		Paid:  true,
	}
)

func Roster() []model.Student {
	return []model.Student{TestStudentMaryam, TestStudentAli, TestStudentSara}
}

func NewStudentCreateRequest(name, code, phone string, paid bool) model.StudentCreateRequest {
	return model.StudentCreateRequest{
		Name:  name,
		Code:  code,
		Phone: phone,
		Paid:  paid,
	}
}

func NewScanEvent(sessionID, text string) model.ScanEvent {
	return model.ScanEvent{
		SessionID: sessionID,
		Text:      text,
		At:        time.Now(),
	}
}

func NewSubmission(studentID int64, title string, grade *float64, at time.Time) *model.Submission {
	return &model.Submission{
		StudentID:   studentID,
		Title:       title,
		Grade:       grade,
		SubmittedAt: at,
	}
}

func NewQuizResult(studentID int64, quiz string, score float64, at time.Time) *model.QuizResult {
	return &model.QuizResult{
		StudentID: studentID,
		Quiz:      quiz,
		Score:     score,
		TakenAt:   at,
	}
}

var (
	ValidScanTexts = []string{
		"M1023",
		"m1023",
		"  M1023  ",
		"QR:M1023;v=2",
	}

	UnmatchedScanTexts = []string{
		"",
		"   ",
		"Z0000",
		"garbled-payload",
	}
)
