package cmd

import (
	"context"
	"time"

	"chemclip/pkg/errors"
)

// RetryConfig drives RunRetry. Only ClipboardUnavailable failures are
// retried; another process holding the clipboard usually lets go quickly.
type RetryConfig struct {
	Attempts  int
	Delay     time.Duration
	Operation func() error
	OnRetry   func(attempt int, err error)
}

// RunRetry calls cfg.Operation until it succeeds, fails with a
// non-retryable error, runs out of attempts, or ctx ends.
func RunRetry(ctx context.Context, cfg RetryConfig) error {
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = cfg.Operation()
		if err == nil || !retryable(err) || attempt == attempts {
			return err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err)
		}

		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.WrapWithCode(err, errors.ExitCodeCancellation, "gave up waiting for the clipboard")
		case <-timer.C:
		}
	}
	return err
}

func retryable(err error) bool {
	return errors.IsExitCode(err, errors.ExitCodeClipboardUnavailable)
}
