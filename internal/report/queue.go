package report

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rkarimi/tutordesk/internal/model"
)

var (
	ErrNoRecipients = errors.New("report queue needs at least one recipient")
	ErrNotReady     = errors.New("operation requires generated content")
	ErrFinished     = errors.New("report queue is finished")
)

// Generation identifies one content-generation request handed to the caller.
// Results re-entering the queue with a stale token are discarded: the
// operator advanced, changed kind, or closed the queue while the external
// call was outstanding.
type Generation struct {
	Seq       uint64
	Index     int
	Kind      model.ReportKind
	Recipient model.Student
}

// Delivery is what Send hands to the delivery channel.
type Delivery struct {
	Recipient model.Student
	Kind      model.ReportKind
	Content   string
}

// Queue is the ordered, resumable traversal over a recipient list. It is a
// synchronous state machine; the slow external generation call lives outside
// it and re-enters through CompleteGeneration. Progress is monotonic: the
// index never decreases and Finished is terminal.
type Queue struct {
	mu         sync.Mutex
	recipients []model.Student
	kind       model.ReportKind
	index      int
	state      model.ReportQueueState
	content    string
	seq        uint64
}

// Open seeds a queue and returns the generation token for the first
// recipient. Rejects empty recipient sets at the call boundary.
func Open(recipients []model.Student, kind model.ReportKind) (*Queue, Generation, error) {
	if len(recipients) == 0 {
		return nil, Generation{}, ErrNoRecipients
	}
	if !kind.Valid() {
		return nil, Generation{}, fmt.Errorf("unknown report kind %q", kind)
	}

	q := &Queue{
		recipients: append([]model.Student(nil), recipients...),
		kind:       kind,
		state:      model.ReportStateGenerating,
	}
	return q, q.nextGenerationLocked(), nil
}

func (q *Queue) nextGenerationLocked() Generation {
	q.seq++
	return Generation{
		Seq:       q.seq,
		Index:     q.index,
		Kind:      q.kind,
		Recipient: q.recipients[q.index],
	}
}

// CompleteGeneration installs generated content for the token's recipient and
// reports whether it was applied. Stale tokens return false and leave the
// queue untouched.
func (q *Queue) CompleteGeneration(gen Generation, content string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != model.ReportStateGenerating || gen.Seq != q.seq {
		return false
	}
	q.content = content
	q.state = model.ReportStateReady
	return true
}

// SetKind switches the report kind and re-generates for the current
// recipient. Only valid once the current content is ready.
func (q *Queue) SetKind(kind model.ReportKind) (Generation, error) {
	if !kind.Valid() {
		return Generation{}, fmt.Errorf("unknown report kind %q", kind)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != model.ReportStateReady {
		return Generation{}, q.notReadyLocked()
	}
	q.kind = kind
	q.content = ""
	q.state = model.ReportStateGenerating
	return q.nextGenerationLocked(), nil
}

// Edit overrides the generated content verbatim.
func (q *Queue) Edit(text string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != model.ReportStateReady {
		return q.notReadyLocked()
	}
	q.content = text
	return nil
}

// Send returns the delivery for the current recipient and advances. The
// second return value is the generation token for the next recipient, nil
// when the queue finished. The caller owns the actual delivery side effect;
// its failure must not roll the queue back.
func (q *Queue) Send() (Delivery, *Generation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != model.ReportStateReady {
		return Delivery{}, nil, q.notReadyLocked()
	}
	d := Delivery{
		Recipient: q.recipients[q.index],
		Kind:      q.kind,
		Content:   q.content,
	}
	return d, q.advanceLocked(), nil
}

// Skip advances exactly like Send but performs no delivery.
func (q *Queue) Skip() (*Generation, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.state != model.ReportStateReady {
		return nil, q.notReadyLocked()
	}
	return q.advanceLocked(), nil
}

func (q *Queue) advanceLocked() *Generation {
	q.content = ""
	if q.index == len(q.recipients)-1 {
		q.state = model.ReportStateFinished
		q.seq++ // invalidate anything still in flight
		return nil
	}
	q.index++
	q.state = model.ReportStateGenerating
	g := q.nextGenerationLocked()
	return &g
}

// Close forces Finished from any state (operator cancel). An outstanding
// generation call resolves against a bumped seq and is discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	q.state = model.ReportStateFinished
	q.content = ""
	q.seq++
	q.mu.Unlock()
}

func (q *Queue) Finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state == model.ReportStateFinished
}

func (q *Queue) notReadyLocked() error {
	if q.state == model.ReportStateFinished {
		return ErrFinished
	}
	return ErrNotReady
}

// Snapshot renders the queue for the operator screen.
func (q *Queue) Snapshot() model.ReportJobSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	snap := model.ReportJobSnapshot{
		Kind:    q.kind,
		State:   q.state,
		Index:   q.index,
		Total:   len(q.recipients),
		Content: q.content,
	}
	if q.state != model.ReportStateFinished {
		r := q.recipients[q.index]
		snap.Recipient = &r
	}
	return snap
}
