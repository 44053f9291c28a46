package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	block chan struct{} // when set, periodic generation waits on it
}

func (f *fakeGenerator) Generate(ctx context.Context, student model.Student, kind model.ReportKind) string {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil && kind.Periodic() {
		<-f.block
	}
	return fmt.Sprintf("%s report for %s", kind, student.Name)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeDelivery struct {
	mu    sync.Mutex
	sends []struct{ Phone, Content string }
}

func (f *fakeDelivery) Send(phone, content string) {
	f.mu.Lock()
	f.sends = append(f.sends, struct{ Phone, Content string }{phone, content})
	f.mu.Unlock()
}

func (f *fakeDelivery) sent() []struct{ Phone, Content string } {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]struct{ Phone, Content string }, len(f.sends))
	copy(out, f.sends)
	return out
}

type fakeDeliveryLog struct {
	mu      sync.Mutex
	records map[string]time.Time
}

func newFakeDeliveryLog() *fakeDeliveryLog {
	return &fakeDeliveryLog{records: make(map[string]time.Time)}
}

func (f *fakeDeliveryLog) key(id int64, kind model.ReportKind) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

func (f *fakeDeliveryLog) IsDue(studentID int64, kind model.ReportKind, now time.Time) bool {
	if !kind.Periodic() {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	last, ok := f.records[f.key(studentID, kind)]
	if !ok {
		return true
	}
	return now.Sub(last) > 14*24*time.Hour
}

func (f *fakeDeliveryLog) Record(studentID int64, kind model.ReportKind, now time.Time) error {
	if !kind.Periodic() {
		return nil
	}
	f.mu.Lock()
	f.records[f.key(studentID, kind)] = now
	f.mu.Unlock()
	return nil
}

type reportFixture struct {
	svc      *ReportService
	roster   *fakeRoster
	gen      *fakeGenerator
	delivery *fakeDelivery
	log      *fakeDeliveryLog
	clk      *clock.Mock
}

func newReportFixture() *reportFixture {
	roster := &fakeRoster{students: []model.Student{
		{ID: 1, Name: "Maryam Ahmadi", Code: "M1023", Phone: "0912000001"},
		{ID: 2, Name: "Ali Karimi", Code: "A2201", Phone: "0912000002"},
		{ID: 3, Name: "Sara Hosseini", Code: "S9", Phone: "0912000003"},
	}}
	gen := &fakeGenerator{}
	delivery := &fakeDelivery{}
	log := newFakeDeliveryLog()
	clk := clock.NewMock(time.Date(2024, 5, 10, 16, 0, 0, 0, time.UTC))
	return &reportFixture{
		svc:      NewReportService(roster, gen, delivery, log, clk),
		roster:   roster,
		gen:      gen,
		delivery: delivery,
		log:      log,
		clk:      clk,
	}
}

func TestReportService_AbsenceJobIsReadyImmediately(t *testing.T) {
	fx := newReportFixture()

	id, snap, err := fx.svc.OpenJob(context.Background(), []int64{1, 2}, model.ReportAbsenceAlert)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	assert.Equal(t, model.ReportStateReady, snap.State)
	assert.Equal(t, "absence_alert report for Maryam Ahmadi", snap.Content)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 2, snap.Total)
}

func TestReportService_SendSkipSendFlow(t *testing.T) {
	fx := newReportFixture()

	id, _, err := fx.svc.OpenJob(context.Background(), []int64{1, 2, 3}, model.ReportAbsenceAlert)
	require.NoError(t, err)

	snap, err := fx.svc.Send(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, model.ReportStateReady, snap.State)

	snap, err = fx.svc.Skip(id)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Index)

	snap, err = fx.svc.Send(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStateFinished, snap.State)
	assert.Nil(t, snap.Recipient)

	sends := fx.delivery.sent()
	require.Len(t, sends, 2)
	assert.Equal(t, "0912000001", sends[0].Phone)
	assert.Equal(t, "0912000003", sends[1].Phone)
}

func TestReportService_PeriodicSendRecordsDeliveryAndStamp(t *testing.T) {
	fx := newReportFixture()

	id, _, err := fx.svc.OpenJob(context.Background(), []int64{1}, model.ReportPeriodicShort)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := fx.svc.Job(id)
		return err == nil && snap.State == model.ReportStateReady
	}, time.Second, 5*time.Millisecond)

	_, err = fx.svc.Send(context.Background(), id)
	require.NoError(t, err)

	assert.False(t, fx.log.IsDue(1, model.ReportPeriodicShort, fx.clk.Now()))

	intents := fx.roster.appliedIntents()
	require.Len(t, intents, 1)
	require.NotNil(t, intents[0].LastReportAt)
	assert.True(t, intents[0].LastReportAt.Equal(fx.clk.Now()))
}

func TestReportService_AbsenceSendLeavesNoStamp(t *testing.T) {
	fx := newReportFixture()

	id, _, err := fx.svc.OpenJob(context.Background(), []int64{1}, model.ReportAbsenceAlert)
	require.NoError(t, err)

	_, err = fx.svc.Send(context.Background(), id)
	require.NoError(t, err)

	assert.Empty(t, fx.roster.appliedIntents())
	assert.True(t, fx.log.IsDue(1, model.ReportAbsenceAlert, fx.clk.Now()))
}

func TestReportService_OpenDueJobFiltersRecentRecipients(t *testing.T) {
	fx := newReportFixture()
	require.NoError(t, fx.log.Record(2, model.ReportPeriodicShort, fx.clk.Now().Add(-24*time.Hour)))

	id, snap, err := fx.svc.OpenDueJob(context.Background(), model.ReportPeriodicShort)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)

	require.Eventually(t, func() bool {
		snap, err := fx.svc.Job(id)
		return err == nil && snap.State == model.ReportStateReady
	}, time.Second, 5*time.Millisecond)

	snap, err = fx.svc.Job(id)
	require.NoError(t, err)
	require.NotNil(t, snap.Recipient)
	assert.Equal(t, int64(1), snap.Recipient.ID)
}

func TestReportService_OpenDueJobWithNoneDue(t *testing.T) {
	fx := newReportFixture()
	now := fx.clk.Now()
	for _, id := range []int64{1, 2, 3} {
		require.NoError(t, fx.log.Record(id, model.ReportPeriodicShort, now))
	}

	_, _, err := fx.svc.OpenDueJob(context.Background(), model.ReportPeriodicShort)
	assert.ErrorIs(t, err, ErrNoDueRecipients)
}

func TestReportService_EditAndSetKind(t *testing.T) {
	fx := newReportFixture()

	id, _, err := fx.svc.OpenJob(context.Background(), []int64{1}, model.ReportAbsenceAlert)
	require.NoError(t, err)

	snap, err := fx.svc.Edit(id, "hand-written note")
	require.NoError(t, err)
	assert.Equal(t, "hand-written note", snap.Content)

	_, err = fx.svc.SetKind(id, model.ReportPeriodicShort)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		snap, err := fx.svc.Job(id)
		return err == nil && snap.State == model.ReportStateReady
	}, time.Second, 5*time.Millisecond)

	snap, err = fx.svc.Job(id)
	require.NoError(t, err)
	assert.Equal(t, model.ReportPeriodicShort, snap.Kind)
	assert.Equal(t, "periodic_short report for Maryam Ahmadi", snap.Content)
}

func TestReportService_CloseDiscardsLateGeneration(t *testing.T) {
	fx := newReportFixture()
	fx.gen.block = make(chan struct{})

	id, snap, err := fx.svc.OpenJob(context.Background(), []int64{1}, model.ReportPeriodicShort)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStateGenerating, snap.State)

	snap, err = fx.svc.Close(id)
	require.NoError(t, err)
	assert.Equal(t, model.ReportStateFinished, snap.State)

	// Let the blocked generation resolve against the closed job.
	close(fx.gen.block)
	assert.Never(t, func() bool {
		snap, err := fx.svc.Job(id)
		return err == nil && snap.Content != ""
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestReportService_SendBeforeReadyFails(t *testing.T) {
	fx := newReportFixture()
	fx.gen.block = make(chan struct{})
	defer close(fx.gen.block)

	id, _, err := fx.svc.OpenJob(context.Background(), []int64{1}, model.ReportPeriodicShort)
	require.NoError(t, err)

	_, err = fx.svc.Send(context.Background(), id)
	assert.Error(t, err)
	assert.Empty(t, fx.delivery.sent())
}

func TestReportService_UnknownJob(t *testing.T) {
	fx := newReportFixture()

	_, err := fx.svc.Job("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = fx.svc.Send(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = fx.svc.Skip("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestReportService_EmptyRecipientSet(t *testing.T) {
	fx := newReportFixture()

	_, _, err := fx.svc.OpenJob(context.Background(), []int64{99}, model.ReportAbsenceAlert)
	assert.Error(t, err)
	assert.Equal(t, 0, fx.gen.callCount())
}
