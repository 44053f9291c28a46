package scan

import (
	"sync"
	"time"
)

// DefaultDebounceWindow matches the feedback display window: a repeated badge
// read inside it is scanner chatter from the same badge held up to the
// camera, not a second attendance attempt.
const DefaultDebounceWindow = 3 * time.Second

// Debouncer suppresses repeats of the most recently accepted raw text while
// its cool-down window is open. A different text always passes and replaces
// the stored one, so a new badge can interrupt the previous feedback display.
// When the window expires the stored text is cleared and the same code can be
// re-accepted (re-scanning after correcting a prior error).
type Debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	lastText string
	openTil  time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window}
}

// Accept reports whether text should be processed at instant now.
func (d *Debouncer) Accept(text string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastText != "" && !now.Before(d.openTil) {
		d.lastText = ""
	}
	if d.lastText != "" && text == d.lastText {
		return false
	}

	d.lastText = text
	d.openTil = now.Add(d.window)
	return true
}
