package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	want := time.Date(2025, 3, 14, 12, 34, 0, 0, time.UTC)
	for _, in := range []string{
		"14. 3. 2025 12:34",
		"14.3.2025 12:34",
		"2025-03-14 12:34",
		"2025-03-14T12:34",
	} {
		got, err := ParseDateTime(in)
		require.NoError(t, err, in)
		assert.True(t, got.Equal(want), in)
	}
}

func TestParseDateTimeSingleDigit(t *testing.T) {
	got, err := ParseDateTime("4. 11. 2024 9:05")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 11, 4, 9, 5, 0, 0, time.UTC)))
}

func TestParseDateTimeDateOnlyMeansMidnight(t *testing.T) {
	got, err := ParseDateTime("14. 3. 2025")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)))
}

func TestParseDateTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "not a date", "2025/03/14", "14-03-2025 12:34"} {
		_, err := ParseDateTime(in)
		assert.Error(t, err, in)
	}
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2025, 3, 4, 7, 5, 0, 0, time.UTC)
	assert.Equal(t, "4. 3. 2025 7:05", FormatDateTime(ts))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1 h 25 min", FormatDuration(85*time.Minute))
	assert.Equal(t, "0 h 3 min", FormatDuration(3*time.Minute+20*time.Second))
}
