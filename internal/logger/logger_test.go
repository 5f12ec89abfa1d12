package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{
			"https://example.com/v1beta/models/m:generateContent?key=AIzaSECRET",
			"https://example.com/v1beta/models/m:generateContent?key=REDACTED",
		},
		{
			`Post "https://x/y?alt=json&key=abc123": dial tcp: timeout`,
			`Post "https://x/y?alt=json&key=REDACTED": dial tcp: timeout`,
		},
		{"monkey=1 no url here", "monkey=1 no url here"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RedactURL(tt.in))
	}
}

func TestSanitizeKVs(t *testing.T) {
	kv := sanitizeKVs([]interface{}{
		"api_key", "AIzaSECRET",
		"input_tokens", 42,
		"error", errors.New(`Get "https://h/p?key=zzz": EOF`),
		"dangling",
	})

	assert.Equal(t, "[REDACTED]", kv[1])
	assert.Equal(t, 42, kv[3])
	assert.Equal(t, `Get "https://h/p?key=REDACTED": EOF`, kv[5])
	assert.Equal(t, "dangling", kv[6])
}

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop().With("run_id", "x")
	l.Debug("debug")
	l.Info("info", "k", "v")
	l.Warn("warn")
	l.Error("error", "err", errors.New("boom"))
	l.Sync()
}
