package scanfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/logger"
	"github.com/rkarimi/tutordesk/pkg/redis"
)

// Handler processes a single decoded scan event. Scan events are
// ephemeral user input; the feed acks them whether or not the handler
// succeeds, because replaying a stale scan would be worse than losing it.
type Handler func(ctx context.Context, event model.ScanEvent)

type Config struct {
	Stream        string
	ConsumerGroup string
	ConsumerName  string
	PollInterval  time.Duration
	BatchSize     int64
	MaxLen        int64
	ClaimIdle     time.Duration
}

// Feed carries raw scan events from the ingest endpoint to the scan
// worker over a redis stream, so a burst of scans never blocks the
// HTTP surface.
type Feed struct {
	adapter redis.RedisAdapter
	config  Config
	handler Handler
	stats   *Stats
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(adapter redis.RedisAdapter, config Config) (*Feed, error) {
	if config.Stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = "scan_workers"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("worker-%d", time.Now().UnixNano())
	}
	if config.PollInterval == 0 {
		config.PollInterval = 100 * time.Millisecond
	}
	if config.BatchSize == 0 {
		config.BatchSize = 16
	}
	if config.ClaimIdle == 0 {
		config.ClaimIdle = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	f := &Feed{
		adapter: adapter,
		config:  config,
		stats:   NewStats(),
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := f.adapter.XGroupCreateMkStream(config.Stream, config.ConsumerGroup, "0"); err != nil {
		// Group might already exist, which is fine
	}

	return f, nil
}

// Publish appends a scan event to the stream and trims it to the
// configured approximate length.
func (f *Feed) Publish(ctx context.Context, event model.ScanEvent) (string, error) {
	values := map[string]interface{}{
		"session_id": event.SessionID,
		"text":       event.Text,
		"at":         event.At.Format(time.RFC3339Nano),
	}

	id, err := f.adapter.XAdd(f.config.Stream, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish scan event: %w", err)
	}

	if f.config.MaxLen > 0 {
		_ = f.adapter.XTrimApprox(f.config.Stream, f.config.MaxLen)
	}

	return id, nil
}

// Consume starts the poll loop. Events are dispatched in stream order,
// one goroutine, so per-session debounce state sees scans in the order
// the scanner produced them.
func (f *Feed) Consume(handler Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}

	f.handler = handler
	f.wg.Add(1)

	go f.consumeLoop()

	return nil
}

func (f *Feed) consumeLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.C:
			f.readNew()
			f.claimStuck()
		}
	}
}

func (f *Feed) readNew() {
	messages, err := f.adapter.XReadGroup(
		f.config.ConsumerGroup,
		f.config.ConsumerName,
		f.config.Stream,
		">",
		f.config.BatchSize,
	)
	if err != nil {
		if err != redis.NilError {
			logger.Warn("scan feed read failed", "error", err)
		}
		return
	}

	for _, streamMsg := range messages {
		f.dispatch(streamMsg)
	}
}

// claimStuck takes over entries abandoned by a dead worker so a crash
// mid-batch does not strand scans in the pending list forever.
func (f *Feed) claimStuck() {
	pending, err := f.adapter.XPending(f.config.Stream, f.config.ConsumerGroup)
	if err != nil || pending == nil || pending.Count == 0 {
		return
	}

	pendingExt, err := f.adapter.XPendingExt(f.config.Stream, f.config.ConsumerGroup, "-", "+", 100)
	if err != nil || len(pendingExt) == 0 {
		return
	}

	var ids []string
	for _, msg := range pendingExt {
		if msg.Idle >= f.config.ClaimIdle {
			ids = append(ids, msg.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	messages, err := f.adapter.XClaim(
		f.config.Stream,
		f.config.ConsumerGroup,
		f.config.ConsumerName,
		f.config.ClaimIdle,
		ids...,
	)
	if err != nil {
		return
	}

	for _, streamMsg := range messages {
		f.dispatch(streamMsg)
	}
}

func (f *Feed) dispatch(streamMsg redis.StreamMessage) {
	event, ok := decodeEvent(streamMsg)

	// Ack unconditionally: undecodable or failed scans must not be replayed.
	if err := f.adapter.XAck(f.config.Stream, f.config.ConsumerGroup, streamMsg.ID); err != nil {
		logger.Warn("scan feed ack failed", "id", streamMsg.ID, "error", err)
	}

	if !ok {
		logger.Warn("discarding malformed scan event", "id", streamMsg.ID)
		f.stats.RecordDiscarded()
		return
	}

	start := time.Now()
	f.handler(f.ctx, event)
	f.stats.RecordHandled(time.Since(start))
}

func decodeEvent(streamMsg redis.StreamMessage) (model.ScanEvent, bool) {
	event := model.ScanEvent{}

	if v, ok := streamMsg.Values["session_id"].(string); ok {
		event.SessionID = v
	}
	if v, ok := streamMsg.Values["text"].(string); ok {
		event.Text = v
	}
	if v, ok := streamMsg.Values["at"].(string); ok {
		if at, err := time.Parse(time.RFC3339Nano, v); err == nil {
			event.At = at
		}
	}

	if event.SessionID == "" || event.Text == "" {
		return model.ScanEvent{}, false
	}
	if event.At.IsZero() {
		event.At = time.Now()
	}

	return event, true
}

func (f *Feed) Len() (int64, error) {
	return f.adapter.XLen(f.config.Stream)
}

func (f *Feed) Stats() map[string]interface{} {
	return f.stats.Snapshot()
}

func (f *Feed) Stop(timeout time.Duration) error {
	f.cancel()

	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for scan feed to stop")
	}
}
