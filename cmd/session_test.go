package cmd

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestRetryLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		spinner bool
		want    zerolog.Level
	}{
		{"spinner on stderr", true, zerolog.DebugLevel},
		{"no spinner", false, zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryLogLevel(tt.spinner); got != tt.want {
				t.Errorf("retryLogLevel(%v) = %v, want %v", tt.spinner, got, tt.want)
			}
		})
	}
}
