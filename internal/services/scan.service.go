package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/internal/scan"
	"github.com/rkarimi/tutordesk/pkg/clock"
	"github.com/rkarimi/tutordesk/pkg/logger"
	"github.com/rkarimi/tutordesk/pkg/prom"
)

var (
	ErrSessionNotFound = errors.New("scan session not found")
)

type RosterRepository interface {
	List(ctx context.Context) ([]model.Student, error)
	ApplyIntent(ctx context.Context, intent model.StudentIntent) error
}

// Speaker is the audio bridge next to the scan surface. Implementations
// must not block.
type Speaker interface {
	Speak(text string)
	Tone(kind model.ToneKind)
}

type scanSession struct {
	session  *scan.Session
	resolver *scan.Resolver
}

// ScanService owns the scan sessions and runs each incoming scan through
// debounce, roster matching and attendance recording.
type ScanService struct {
	mu       sync.RWMutex
	sessions map[string]*scanSession

	roster  RosterRepository
	speaker Speaker
	clock   clock.Clock

	debounceWindow time.Duration
	feedbackWindow time.Duration
}

func NewScanService(roster RosterRepository, speaker Speaker, clk clock.Clock, debounceWindow, feedbackWindow time.Duration) *ScanService {
	if clk == nil {
		clk = clock.New()
	}
	if debounceWindow == 0 {
		debounceWindow = scan.DefaultDebounceWindow
	}
	if feedbackWindow == 0 {
		feedbackWindow = scan.DefaultFeedbackWindow
	}
	return &ScanService{
		sessions:       make(map[string]*scanSession),
		roster:         roster,
		speaker:        speaker,
		clock:          clk,
		debounceWindow: debounceWindow,
		feedbackWindow: feedbackWindow,
	}
}

// OpenSession creates a new scan session and returns its id.
func (s *ScanService) OpenSession() string {
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = &scanSession{
		session:  scan.NewSession(id),
		resolver: scan.NewResolver(s.clock, s.debounceWindow),
	}
	s.mu.Unlock()

	logger.Info("scan session opened", "session_id", id)
	return id
}

func (s *ScanService) CloseSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	logger.Info("scan session closed", "session_id", id)
	return nil
}

// Session returns the current feedback snapshot, applying any due reset.
func (s *ScanService) Session(id string) (model.ScanSessionSnapshot, error) {
	s.mu.RLock()
	ss, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return model.ScanSessionSnapshot{}, ErrSessionNotFound
	}
	return ss.session.Refresh(s.clock.Now()), nil
}

// HandleScan runs one raw scan through the session's resolver and applies
// the side effects: attendance write, feedback panel, tone and greeting.
// A failed attendance write is logged and the feedback still shows, so a
// database hiccup never freezes the scan surface.
func (s *ScanService) HandleScan(ctx context.Context, sessionID, text string) (model.ScanOutcome, model.ScanSessionSnapshot, error) {
	ss, err := s.ensureSession(sessionID)
	if err != nil {
		return model.ScanOutcome{}, model.ScanSessionSnapshot{}, err
	}

	roster, err := s.roster.List(ctx)
	if err != nil {
		return model.ScanOutcome{}, model.ScanSessionSnapshot{}, err
	}

	now := s.clock.Now()
	res := ss.resolver.Resolve(text, roster)
	if !res.Fresh {
		return res.Outcome, ss.session.Refresh(now), nil
	}

	prom.IncScanOutcome(string(res.Outcome.Kind))

	if res.Intent != nil {
		if err := s.roster.ApplyIntent(ctx, *res.Intent); err != nil {
			logger.Error("failed to record attendance",
				"session_id", sessionID, "student_id", res.Intent.StudentID, "error", err)
		}
	}

	ss.session.Show(res.Status, res.Message, res.Outcome.Student, now, s.feedbackWindow)

	if s.speaker != nil {
		s.speaker.Tone(res.Tone)
		if res.Greeting != "" {
			s.speaker.Speak(res.Greeting)
		}
	}

	logger.Debug("scan resolved",
		"session_id", sessionID, "outcome", string(res.Outcome.Kind))

	return res.Outcome, ss.session.Refresh(now), nil
}

// HandleEvent adapts HandleScan to the scan feed. Sessions referenced by
// events are created on demand so a worker restart does not drop scans.
func (s *ScanService) HandleEvent(ctx context.Context, event model.ScanEvent) {
	if _, _, err := s.HandleScan(ctx, event.SessionID, event.Text); err != nil {
		logger.Error("failed to handle scan event",
			"session_id", event.SessionID, "error", err)
	}
}

func (s *ScanService) ensureSession(id string) (*scanSession, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}

	s.mu.RLock()
	ss, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return ss, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ss, ok = s.sessions[id]; ok {
		return ss, nil
	}
	ss = &scanSession{
		session:  scan.NewSession(id),
		resolver: scan.NewResolver(s.clock, s.debounceWindow),
	}
	s.sessions[id] = ss
	return ss, nil
}
