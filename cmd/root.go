package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"chemclip/pkg/completions"
	"chemclip/pkg/errors"
	"chemclip/pkg/logger"

	"github.com/spf13/cobra"
)

const (
	unknownValue = "unknown"
)

var (
	Version   string
	BuildTime string
	GitCommit string
)

var defaultTimeout = 30 * time.Second
var globalTimeout time.Duration
var outputFormat string
var dryRunFlag bool
var assumeYesFlag bool
var logLevel string
var profileFlag string

var rootCmd = &cobra.Command{
	Use:   "chemclip",
	Short: "Chemistry clipboard tool",
	Long: `CLI tool for putting chemical structures on the Windows clipboard the way
structure editors expect them: an enhanced metafile picture, MOL text and the
CDX binary in one clipboard session. Also runs as a browser native-messaging
host and keeps a SQLite history of what was published.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if globalTimeout <= 0 {
			globalTimeout = defaultTimeout
		}
		// Set log level: explicit flag takes precedence over env var
		level := logLevel
		if !cmd.Flags().Changed("log-level") {
			if envLevel := os.Getenv("CHEMCLIP_LOG_LEVEL"); envLevel != "" {
				level = envLevel
			}
		}
		logger.SetLevel(level)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		ver := Version
		if ver == "" {
			ver = "dev"
		}
		bt := BuildTime
		if bt == "" {
			bt = unknownValue
		}
		gc := GitCommit
		if gc == "" {
			gc = unknownValue
		}

		fmt.Printf("chemclip version %s\n", ver)
		fmt.Printf("Built: %s\n", bt)
		fmt.Printf("Git commit: %s\n", gc)
	},
}

func Execute() {
	c, err := rootCmd.ExecuteC()
	if err != nil {
		os.Exit(int(exitCode(c, err)))
	}
}

// exitCode reports err and maps it to the process exit code. The native
// host is launched by the browser, which has no terminal to show the
// formatted error on.
func exitCode(c *cobra.Command, err error) errors.ExitCode {
	if c == nativeHostCmd {
		return errors.HandleQuietReturn(err)
	}
	return errors.HandleReturn(err)
}

// GetContext bounds a command by --timeout and cancels it on interrupt.
func GetContext() (context.Context, context.CancelFunc) {
	timeout := globalTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func init() {
	RegisterCommands(rootCmd)

	rootCmd.PersistentFlags().DurationVar(&globalTimeout, "timeout", defaultTimeout, "Overall time allowed for clipboard retries (e.g., 5s, 1m)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would be published without touching the clipboard")
	rootCmd.PersistentFlags().BoolVarP(&assumeYesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "Configuration profile to use (overrides the active profile)")

	completions.RegisterCompletions(rootCmd)
}
