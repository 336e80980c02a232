package cli

import (
	"log/slog"
	"os"

	"github.com/me/interviewd/internal/logging"
	"github.com/spf13/cobra"
)

var (
	flagServer    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
	client *Client
)

// defaultServer returns the default server URL, checking INTERVIEWD_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("INTERVIEWD_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the ivwctl CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ivwctl",
		Short: "ivwctl operates the interviewd scheduling engine",
		Long:  "ivwctl submits scheduling requests, inspects the ranked queue, and drives operator decisions against an interviewd server.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.New(logging.ParseLevel(flagLogLevel), flagLogFormat)
			client = NewClient(flagServer, logger)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&flagServer, "server", defaultServer(), "interviewd server URL (or INTERVIEWD_SERVER env)")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newSubmitCmd(),
		newQueueCmd(),
		newWithdrawCmd(),
		newOverrideCmd(),
		newInterviewsCmd(),
		newStatusCmd(),
		newRetryCmd(),
		newNoShowCmd(),
		newSwapsCmd(),
		newErrorsCmd(),
	)

	return root
}
