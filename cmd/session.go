package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"chemclip/pkg/clipboard"
	"chemclip/pkg/config"
	"chemclip/pkg/errors"
	"chemclip/pkg/history"
	"chemclip/pkg/logger"
	"chemclip/pkg/progress"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	retriesFlag      int
	retryDelayFlag   time.Duration
	binaryFormatFlag []string
)

// addPublishFlags adds the flags shared by every command that writes to
// the clipboard.
func addPublishFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&retriesFlag, "retries", config.DefaultRetries, "Extra attempts when the clipboard is held by another process")
	cmd.Flags().DurationVar(&retryDelayFlag, "retry-delay", config.DefaultRetryDelay, "Wait between clipboard attempts")
	cmd.Flags().StringSliceVar(&binaryFormatFlag, "binary-format", nil, "Additional registered format name for the CDX payload (repeatable)")
}

// session holds the configuration and history journal for one command and
// collects the per-format outcomes of the current publish attempt.
type session struct {
	cfg      *config.Config
	journal  *history.Manager
	outcomes []clipboard.Outcome
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(profileFlag)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("retries") {
		cfg.Clipboard.Retries = retriesFlag
	}
	if cmd.Flags().Changed("retry-delay") {
		cfg.Clipboard.RetryDelay = retryDelayFlag
	}
	if cmd.Flags().Changed("binary-format") {
		cfg.Clipboard.BinaryFormats = config.NormalizeFormats(append(cfg.Clipboard.BinaryFormats, binaryFormatFlag...))
	}
	if cfg.Clipboard.Retries < 0 {
		return nil, errors.ValidationError("--retries must not be negative")
	}

	s := &session{cfg: cfg}
	if cfg.History.IsEnabled() && !dryRunFlag {
		journal, err := history.NewManager(cfg.History.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("history disabled for this run")
		} else {
			s.journal = journal
		}
	}
	return s, nil
}

func (s *session) Close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			logger.Debug().Err(err).Msg("failed to close history")
		}
	}
}

func (s *session) options() []clipboard.Option {
	return []clipboard.Option{
		clipboard.WithBinaryFormats(s.cfg.Clipboard.BinaryFormats...),
		clipboard.WithObserver(func(o clipboard.Outcome) {
			s.outcomes = append(s.outcomes, o)
		}),
	}
}

// publish runs fn with the session's options, retrying while the clipboard
// is busy, and journals the final attempt.
func (s *session) publish(entry history.Entry, fn func(opts ...clipboard.Option) error) (history.Entry, error) {
	ctx, cancel := GetContext()
	defer cancel()

	log := logger.Component("cmd")
	attempts := s.cfg.Clipboard.Retries + 1
	spinner := progress.NewSpinner("Waiting for the clipboard")
	defer spinner.Stop()

	err := RunRetry(ctx, RetryConfig{
		Attempts: attempts,
		Delay:    s.cfg.Clipboard.RetryDelay,
		Operation: func() error {
			s.outcomes = nil
			return fn(s.options()...)
		},
		OnRetry: func(attempt int, err error) {
			interactive := progress.Interactive()
			log.WithLevel(retryLogLevel(interactive)).Err(err).Int("attempt", attempt).Dur("delay", s.cfg.Clipboard.RetryDelay).Msg("clipboard busy, retrying")
			if interactive {
				spinner.SetMessage(fmt.Sprintf("Waiting for the clipboard (attempt %d/%d)", attempt+1, attempts))
				spinner.Start()
			}
		},
	})

	entry = s.fill(entry, err)
	return s.record(entry), err
}

// retryLogLevel keeps retry notices off stderr while the spinner owns the
// line there.
func retryLogLevel(spinner bool) zerolog.Level {
	if spinner {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// fill copies the collected outcomes and the final error into entry.
func (s *session) fill(entry history.Entry, err error) history.Entry {
	for _, o := range s.outcomes {
		if o.Published() {
			entry.Published = append(entry.Published, o.Format)
		} else {
			entry.Omitted = append(entry.Omitted, o.Format)
		}
	}
	if err != nil {
		entry.Error = err.Error()
	}
	return entry
}

func (s *session) record(entry history.Entry) history.Entry {
	if s.journal == nil {
		return entry
	}
	stored, err := s.journal.Record(entry)
	if err != nil {
		logger.Warn().Err(err).Msg(errors.ErrMsgHistoryFailed)
		return entry
	}
	return stored
}

// readInput reads path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.FileError(path, err)
	}
	return data, nil
}
