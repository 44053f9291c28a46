package scan

import (
	"testing"

	"github.com/rkarimi/tutordesk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoster() []model.Student {
	return []model.Student{
		{ID: 1, Name: "Maryam Ahmadi", Code: "M1023"},
		{ID: 2, Name: "Ali Karimi", Code: "A2201"},
		{ID: 3, Name: "Sara Hosseini", Code: "S9"},
	}
}

func TestMatch_ExactCode(t *testing.T) {
	roster := testRoster()

	got := Match("M1023", roster)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestMatch_CaseInsensitive(t *testing.T) {
	roster := testRoster()

	got := Match("m1023", roster)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)

	got = Match("a2201", roster)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestMatch_TrimsWhitespace(t *testing.T) {
	got := Match("  M1023  ", testRoster())
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestMatch_SubstringInFramingNoise(t *testing.T) {
	got := Match("QR:M1023;v=2", testRoster())
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestMatch_ExactWinsOverEarlierSubstring(t *testing.T) {
	// The scanned text equals the second student's code while containing the
	// first student's code as a substring. The exact owner must win.
	roster := []model.Student{
		{ID: 1, Name: "First", Code: "123"},
		{ID: 2, Name: "Second", Code: "A123"},
	}

	got := Match("A123", roster)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID)
}

func TestMatch_FirstRosterEntryWinsAmongSubstrings(t *testing.T) {
	roster := []model.Student{
		{ID: 1, Name: "First", Code: "AAA"},
		{ID: 2, Name: "Second", Code: "BBB"},
	}

	got := Match("xxAAAxxBBBxx", roster)
	require.NotNil(t, got)
	assert.Equal(t, int64(1), got.ID)
}

func TestMatch_ShortCodesNeverSubstringMatch(t *testing.T) {
	roster := testRoster()

	// "S9" is below the substring threshold; framed text must not match.
	assert.Nil(t, Match("xxS9xx", roster))

	// Exact match still works for short codes.
	got := Match("S9", roster)
	require.NotNil(t, got)
	assert.Equal(t, int64(3), got.ID)
}

func TestMatch_NoMatch(t *testing.T) {
	roster := testRoster()

	assert.Nil(t, Match("", roster))
	assert.Nil(t, Match("   ", roster))
	assert.Nil(t, Match("Z0000", roster))
	assert.Nil(t, Match("garbled-\x00-payload", roster))
}

func TestMatch_EmptyRoster(t *testing.T) {
	assert.Nil(t, Match("M1023", nil))
}
