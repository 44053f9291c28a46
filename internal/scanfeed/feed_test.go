package scanfeed

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/rkarimi/tutordesk/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	// Use unique connection name per test to avoid global adapter caching issues
	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

func testConfig(stream string) Config {
	return Config{
		Stream:        stream,
		ConsumerGroup: "test-group",
		ConsumerName:  "test-worker",
		PollInterval:  50 * time.Millisecond,
		BatchSize:     16,
		MaxLen:        1000,
		ClaimIdle:     5 * time.Second,
	}
}

func TestFeed_PublishAndConsume(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	feed, err := New(adapter, testConfig("test:scan:feed"))
	require.NoError(t, err)
	defer feed.Stop(time.Second)

	at := time.Date(2024, 5, 10, 16, 30, 0, 0, time.UTC)
	_, err = feed.Publish(context.Background(), model.ScanEvent{
		SessionID: "session-1",
		Text:      "M1023",
		At:        at,
	})
	require.NoError(t, err)

	received := make(chan model.ScanEvent, 1)
	err = feed.Consume(func(ctx context.Context, event model.ScanEvent) {
		received <- event
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "session-1", event.SessionID)
		assert.Equal(t, "M1023", event.Text)
		assert.True(t, event.At.Equal(at))
	case <-time.After(2 * time.Second):
		t.Fatal("scan event not received")
	}
}

func TestFeed_PreservesOrder(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	feed, err := New(adapter, testConfig("test:scan:order"))
	require.NoError(t, err)
	defer feed.Stop(time.Second)

	texts := []string{"M1001", "M1002", "M1003", "M1004"}
	for _, text := range texts {
		_, err := feed.Publish(context.Background(), model.ScanEvent{
			SessionID: "session-1",
			Text:      text,
			At:        time.Now(),
		})
		require.NoError(t, err)
	}

	var mu sync.Mutex
	var got []string
	err = feed.Consume(func(ctx context.Context, event model.ScanEvent) {
		mu.Lock()
		got = append(got, event.Text)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == len(texts)
	}, 2*time.Second, 20*time.Millisecond)

	mu.Lock()
	assert.Equal(t, texts, got)
	mu.Unlock()
}

func TestFeed_DiscardsMalformedEvents(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	feed, err := New(adapter, testConfig("test:scan:malformed"))
	require.NoError(t, err)
	defer feed.Stop(time.Second)

	// Entry with no text field should be acked and dropped, not dispatched.
	_, err = adapter.XAdd("test:scan:malformed", map[string]interface{}{
		"session_id": "session-1",
	})
	require.NoError(t, err)

	_, err = feed.Publish(context.Background(), model.ScanEvent{
		SessionID: "session-1",
		Text:      "M1023",
		At:        time.Now(),
	})
	require.NoError(t, err)

	received := make(chan model.ScanEvent, 2)
	err = feed.Consume(func(ctx context.Context, event model.ScanEvent) {
		received <- event
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "M1023", event.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("valid scan event not received")
	}

	select {
	case event := <-received:
		t.Fatalf("unexpected extra event: %+v", event)
	case <-time.After(200 * time.Millisecond):
	}

	stats := feed.Stats()
	assert.Equal(t, int64(1), stats["total_handled"])
	assert.Equal(t, int64(1), stats["total_discarded"])
}

func TestFeed_Len(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	feed, err := New(adapter, testConfig("test:scan:len"))
	require.NoError(t, err)
	defer feed.Stop(time.Second)

	for i := 0; i < 3; i++ {
		_, err := feed.Publish(context.Background(), model.ScanEvent{
			SessionID: "session-1",
			Text:      "M1023",
			At:        time.Now(),
		})
		require.NoError(t, err)
	}

	n, err := feed.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestFeed_Stop(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	defer mr.Close()

	feed, err := New(adapter, testConfig("test:scan:stop"))
	require.NoError(t, err)

	err = feed.Consume(func(ctx context.Context, event model.ScanEvent) {
		time.Sleep(50 * time.Millisecond)
	})
	require.NoError(t, err)

	err = feed.Stop(2 * time.Second)
	assert.NoError(t, err)
}

func TestFeed_RequiresStreamName(t *testing.T) {
	_, adapter := setupTestRedis(t)

	_, err := New(adapter, Config{})
	assert.Error(t, err)
}
