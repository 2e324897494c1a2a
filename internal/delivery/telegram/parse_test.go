package telegram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aliskhannn/quiz-streak-bot/internal/delivery/telegram"
)

func TestParseReport(t *testing.T) {
	tests := []struct {
		text      string
		attempted int
		correct   int
		ok        bool
	}{
		{"20/15", 20, 15, true},
		{"  23/63%\n", 23, 63, true},
		{"0/0", 0, 0, true},
		{"10 / 5", 0, 0, false},
		{"10/5 hoje", 0, 0, false},
		{"-1/0", 0, 0, false},
		{"abc", 0, 0, false},
		{"", 0, 0, false},
		// range limits are left to validation so the user gets the hint
		{"20000/100", 20000, 100, true},
		{"9223372036854775807/1", 9223372036854775807, 1, true},
		{"99999999999999999999/1", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			attempted, correct, ok := telegram.ParseReport(tt.text)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.attempted, attempted)
			assert.Equal(t, tt.correct, correct)
		})
	}
}
