package scan

import (
	"strings"

	"github.com/rkarimi/tutordesk/internal/model"
)

// Codes shorter than this never participate in substring matching. QR
// payloads often wrap the code in framing noise, and a two-character code
// inside that noise is as likely to be an accident as a badge.
const minSubstringCodeLen = 3

// Match finds the roster entry for a raw scanned text, case-insensitively.
// An exact code match always wins, even when another student's code appears
// earlier in the roster as a substring of the text. Otherwise the text may
// contain a code as a substring (scanner framing around the badge payload);
// among substring matches the first roster entry wins.
//
// Returns nil for empty, garbled, or unmatched input. Never fails.
func Match(raw string, roster []model.Student) *model.Student {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return nil
	}

	for i := range roster {
		code := strings.ToLower(strings.TrimSpace(roster[i].Code))
		if code != "" && code == text {
			return &roster[i]
		}
	}

	for i := range roster {
		code := strings.ToLower(strings.TrimSpace(roster[i].Code))
		if len([]rune(code)) < minSubstringCodeLen {
			continue
		}
		if strings.Contains(text, code) {
			return &roster[i]
		}
	}

	return nil
}
