package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoster struct {
	mu       sync.Mutex
	students []model.Student
	intents  []model.StudentIntent
}

func (f *fakeRoster) List(ctx context.Context) ([]model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Student, len(f.students))
	copy(out, f.students)
	return out, nil
}

func (f *fakeRoster) FindByIDs(ctx context.Context, ids []int64) ([]model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Student
	for _, id := range ids {
		for _, s := range f.students {
			if s.ID == id {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (f *fakeRoster) ApplyIntent(ctx context.Context, intent model.StudentIntent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.intents = append(f.intents, intent)
	for i := range f.students {
		if f.students[i].ID != intent.StudentID {
			continue
		}
		if intent.Present != nil {
			f.students[i].Present = *intent.Present
		}
		f.students[i].Points += intent.PointsDelta
		if intent.LastReportAt != nil {
			at := *intent.LastReportAt
			f.students[i].LastReportAt = &at
		}
	}
	return nil
}

func (f *fakeRoster) appliedIntents() []model.StudentIntent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.StudentIntent, len(f.intents))
	copy(out, f.intents)
	return out
}

type fakeSpeaker struct {
	mu     sync.Mutex
	spoken []string
	tones  []model.ToneKind
}

func (f *fakeSpeaker) Speak(text string) {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
}

func (f *fakeSpeaker) Tone(kind model.ToneKind) {
	f.mu.Lock()
	f.tones = append(f.tones, kind)
	f.mu.Unlock()
}

func newScanFixture() (*ScanService, *fakeRoster, *fakeSpeaker, *clock.Mock) {
	roster := &fakeRoster{students: []model.Student{
		{ID: 1, Name: "Maryam Ahmadi", Code: "M1023", Phone: "0912000001"},
		{ID: 2, Name: "Ali Karimi", Code: "A2201", Phone: "0912000002"},
	}}
	speaker := &fakeSpeaker{}
	clk := clock.NewMock(time.Date(2024, 5, 10, 16, 0, 0, 0, time.UTC))
	svc := NewScanService(roster, speaker, clk, 3*time.Second, 3*time.Second)
	return svc, roster, speaker, clk
}

func TestScanService_SessionLifecycle(t *testing.T) {
	svc, _, _, _ := newScanFixture()

	id := svc.OpenSession()
	require.NotEmpty(t, id)

	snap, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)
	assert.Equal(t, model.ScanStatusReady, snap.Status)

	require.NoError(t, svc.CloseSession(id))
	_, err = svc.Session(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.CloseSession(id), ErrSessionNotFound)
}

func TestScanService_NewAttendanceFlow(t *testing.T) {
	svc, roster, speaker, _ := newScanFixture()
	id := svc.OpenSession()

	outcome, snap, err := svc.HandleScan(context.Background(), id, "M1023")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNewAttendance, outcome.Kind)
	assert.Equal(t, model.ScanStatusSuccess, snap.Status)
	assert.Equal(t, "welcome, Maryam!", snap.Message)

	intents := roster.appliedIntents()
	require.Len(t, intents, 1)
	assert.Equal(t, int64(1), intents[0].StudentID)
	require.NotNil(t, intents[0].Present)
	assert.True(t, *intents[0].Present)
	assert.Equal(t, 10, intents[0].PointsDelta)

	assert.Equal(t, []model.ToneKind{model.ToneSuccess}, speaker.tones)
	assert.Equal(t, []string{"Welcome Maryam"}, speaker.spoken)
}

func TestScanService_DebouncedRepeatAppliesNothing(t *testing.T) {
	svc, roster, speaker, clk := newScanFixture()
	id := svc.OpenSession()

	_, _, err := svc.HandleScan(context.Background(), id, "M1023")
	require.NoError(t, err)

	clk.Advance(time.Second)
	outcome, snap, err := svc.HandleScan(context.Background(), id, "M1023")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeNewAttendance, outcome.Kind)
	// Feedback from the first scan is still showing.
	assert.Equal(t, model.ScanStatusSuccess, snap.Status)

	assert.Len(t, roster.appliedIntents(), 1)
	assert.Len(t, speaker.tones, 1)
	assert.Len(t, speaker.spoken, 1)
}

func TestScanService_RescanAfterWindowIsAlreadyPresent(t *testing.T) {
	svc, roster, speaker, clk := newScanFixture()
	id := svc.OpenSession()

	_, _, err := svc.HandleScan(context.Background(), id, "M1023")
	require.NoError(t, err)

	clk.Advance(5 * time.Second)
	outcome, snap, err := svc.HandleScan(context.Background(), id, "m1023")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeAlreadyPresent, outcome.Kind)
	assert.Equal(t, model.ScanStatusWarning, snap.Status)
	assert.Equal(t, "Maryam Ahmadi is already recorded today", snap.Message)

	assert.Len(t, roster.appliedIntents(), 1)
	assert.Equal(t, model.ToneError, speaker.tones[len(speaker.tones)-1])
	assert.Len(t, speaker.spoken, 1)
}

func TestScanService_UnknownCode(t *testing.T) {
	svc, roster, speaker, _ := newScanFixture()
	id := svc.OpenSession()

	outcome, snap, err := svc.HandleScan(context.Background(), id, "Z9999")
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeUnknown, outcome.Kind)
	assert.Equal(t, model.ScanStatusError, snap.Status)
	assert.Equal(t, "code not registered", snap.Message)

	assert.Empty(t, roster.appliedIntents())
	assert.Equal(t, []model.ToneKind{model.ToneError}, speaker.tones)
	assert.Empty(t, speaker.spoken)
}

func TestScanService_FeedbackResetsAfterWindow(t *testing.T) {
	svc, _, _, clk := newScanFixture()
	id := svc.OpenSession()

	_, _, err := svc.HandleScan(context.Background(), id, "M1023")
	require.NoError(t, err)

	clk.Advance(3 * time.Second)
	snap, err := svc.Session(id)
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusReady, snap.Status)
	assert.Empty(t, snap.Message)
}

func TestScanService_HandleEventCreatesSession(t *testing.T) {
	svc, roster, _, _ := newScanFixture()

	svc.HandleEvent(context.Background(), model.ScanEvent{
		SessionID: "worker-restart-session",
		Text:      "A2201",
		At:        time.Now(),
	})

	intents := roster.appliedIntents()
	require.Len(t, intents, 1)
	assert.Equal(t, int64(2), intents[0].StudentID)

	snap, err := svc.Session("worker-restart-session")
	require.NoError(t, err)
	assert.Equal(t, model.ScanStatusSuccess, snap.Status)
}

func TestScanService_RejectsEmptySessionID(t *testing.T) {
	svc, _, _, _ := newScanFixture()

	_, _, err := svc.HandleScan(context.Background(), "", "M1023")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
