package model

import "time"

// Submission is a handed-in assignment. Grade stays nil until a tutor marks
// it; ungraded submissions count toward task totals but not averages.
type Submission struct {
	ID          int64     `json:"id"`
	StudentID   int64     `json:"student_id"`
	Title       string    `json:"title"`
	Grade       *float64  `json:"grade,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// QuizResult always carries a score.
type QuizResult struct {
	ID        int64     `json:"id"`
	StudentID int64     `json:"student_id"`
	Quiz      string    `json:"quiz"`
	Score     float64   `json:"score"`
	TakenAt   time.Time `json:"taken_at"`
}
