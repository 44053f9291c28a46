package report

import (
	"testing"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queueRecipients() []model.Student {
	return []model.Student{
		{ID: 1, Name: "Maryam Ahmadi", Phone: "0912000001"},
		{ID: 2, Name: "Ali Karimi", Phone: "0912000002"},
		{ID: 3, Name: "Sara Hosseini", Phone: "0912000003"},
	}
}

func TestOpen_RejectsEmptyRecipients(t *testing.T) {
	_, _, err := Open(nil, model.ReportAbsenceAlert)
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestOpen_RejectsUnknownKind(t *testing.T) {
	_, _, err := Open(queueRecipients(), model.ReportKind("bogus"))
	assert.Error(t, err)
}

func TestQueue_SendSkipSendTraversal(t *testing.T) {
	q, gen, err := Open(queueRecipients(), model.ReportAbsenceAlert)
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen.Recipient.ID)

	require.True(t, q.CompleteGeneration(gen, "report for A"))
	snap := q.Snapshot()
	assert.Equal(t, model.ReportStateReady, snap.State)
	assert.Equal(t, "report for A", snap.Content)

	d, next, err := q.Send()
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Recipient.ID)
	assert.Equal(t, "report for A", d.Content)
	require.NotNil(t, next)
	assert.Equal(t, int64(2), next.Recipient.ID)

	require.True(t, q.CompleteGeneration(*next, "report for B"))
	next2, err := q.Skip()
	require.NoError(t, err)
	require.NotNil(t, next2)
	assert.Equal(t, int64(3), next2.Recipient.ID)

	require.True(t, q.CompleteGeneration(*next2, "report for C"))
	d, next3, err := q.Send()
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.Recipient.ID)
	assert.Nil(t, next3)

	assert.True(t, q.Finished())
	snap = q.Snapshot()
	assert.Equal(t, model.ReportStateFinished, snap.State)
	assert.Nil(t, snap.Recipient)
}

func TestQueue_SendRequiresReadyContent(t *testing.T) {
	q, _, err := Open(queueRecipients(), model.ReportAbsenceAlert)
	require.NoError(t, err)

	_, _, err = q.Send()
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = q.Skip()
	assert.ErrorIs(t, err, ErrNotReady)

	err = q.Edit("manual text")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestQueue_FinishedIsTerminal(t *testing.T) {
	q, gen, err := Open(queueRecipients()[:1], model.ReportAbsenceAlert)
	require.NoError(t, err)
	require.True(t, q.CompleteGeneration(gen, "text"))

	_, next, err := q.Send()
	require.NoError(t, err)
	assert.Nil(t, next)

	_, _, err = q.Send()
	assert.ErrorIs(t, err, ErrFinished)
	_, err = q.Skip()
	assert.ErrorIs(t, err, ErrFinished)
}

func TestQueue_EditOverridesContent(t *testing.T) {
	q, gen, err := Open(queueRecipients()[:1], model.ReportPeriodicShort)
	require.NoError(t, err)
	require.True(t, q.CompleteGeneration(gen, "generated"))

	require.NoError(t, q.Edit("operator text"))

	d, _, err := q.Send()
	require.NoError(t, err)
	assert.Equal(t, "operator text", d.Content)
}

func TestQueue_SetKindRegenerates(t *testing.T) {
	q, gen, err := Open(queueRecipients()[:2], model.ReportPeriodicShort)
	require.NoError(t, err)
	require.True(t, q.CompleteGeneration(gen, "short report"))

	gen2, err := q.SetKind(model.ReportPeriodicLong)
	require.NoError(t, err)
	assert.Equal(t, model.ReportPeriodicLong, gen2.Kind)
	assert.Equal(t, gen.Recipient.ID, gen2.Recipient.ID)

	// The old token is stale now.
	assert.False(t, q.CompleteGeneration(gen, "late short report"))
	assert.True(t, q.CompleteGeneration(gen2, "long report"))

	d, _, err := q.Send()
	require.NoError(t, err)
	assert.Equal(t, model.ReportPeriodicLong, d.Kind)
	assert.Equal(t, "long report", d.Content)
}

func TestQueue_SetKindRequiresReady(t *testing.T) {
	q, _, err := Open(queueRecipients(), model.ReportPeriodicShort)
	require.NoError(t, err)

	_, err = q.SetKind(model.ReportPeriodicLong)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestQueue_CloseDiscardsInFlightGeneration(t *testing.T) {
	q, gen, err := Open(queueRecipients(), model.ReportPeriodicShort)
	require.NoError(t, err)

	q.Close()
	assert.True(t, q.Finished())

	// The generation call resolves after Close; its result must not land.
	assert.False(t, q.CompleteGeneration(gen, "late result"))
	assert.Empty(t, q.Snapshot().Content)
}

func TestQueue_StaleTokenAfterAdvanceIsDiscarded(t *testing.T) {
	q, gen, err := Open(queueRecipients()[:2], model.ReportPeriodicShort)
	require.NoError(t, err)
	require.True(t, q.CompleteGeneration(gen, "first"))

	_, next, err := q.Send()
	require.NoError(t, err)
	require.NotNil(t, next)

	// A duplicate completion for the first recipient arrives late.
	assert.False(t, q.CompleteGeneration(gen, "duplicate"))

	require.True(t, q.CompleteGeneration(*next, "second"))
	assert.Equal(t, "second", q.Snapshot().Content)
}

func TestQueue_SnapshotTracksProgress(t *testing.T) {
	q, gen, err := Open(queueRecipients(), model.ReportAbsenceAlert)
	require.NoError(t, err)

	snap := q.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, model.ReportStateGenerating, snap.State)
	require.NotNil(t, snap.Recipient)
	assert.Equal(t, int64(1), snap.Recipient.ID)

	require.True(t, q.CompleteGeneration(gen, "text"))
	_, next, err := q.Send()
	require.NoError(t, err)
	require.NotNil(t, next)

	snap = q.Snapshot()
	assert.Equal(t, 1, snap.Index)
	require.NotNil(t, snap.Recipient)
	assert.Equal(t, int64(2), snap.Recipient.ID)
}
