// Package cmd implements the CLI (Command Line Interface) of the application.
//
// inspect - Analyse one or more decoded record streams
// demos list - List the demo library
// demos clean - Remove empty, unmarked or old demos
// demos replay - Copy a demo into the replay browser
// demos delete - Remove a demo and its bookmarks
// bookmarks show - List the bookmarks of a demo
// bookmarks add - Bookmark a tick or timestamp
// bookmarks remove - Remove the bookmarks at a tick
// bookmarks suggest - Bookmark highlights found by analysing the demo's record stream
// play - Start playback of a demo in the running game
// seek - Jump to a tick or timestamp in the playing demo
// control - Pause, resume, toggle, stop or change the speed of playback
package cmd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/leighmacdonald/demoinspect/internal/config"
	"github.com/leighmacdonald/demoinspect/pkg/log"
	"github.com/spf13/cobra"
)

var (
	BuildVersion = "master" //nolint:gochecknoglobals
	BuildCommit  = ""       //nolint:gochecknoglobals
	BuildDate    = ""       //nolint:gochecknoglobals
)

const sentryFlushTimeout = 2 * time.Second

// app holds the state shared by every command, loaded once before the command runs.
type app struct {
	configFile string
	config     config.Config
	logCloser  func()
	sentry     *sentry.Client
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	conf, errConfig := config.Read(a.configFile)
	if errConfig != nil {
		return errConfig
	}

	a.config = conf

	if conf.Log.SentryDSN != "" {
		client, errSentry := log.NewSentryClient(conf.Log.SentryDSN, conf.Log.SentrySampleRate, BuildVersion)
		if errSentry != nil {
			return errSentry
		}

		a.sentry = client
	}

	a.logCloser = log.MustCreateLogger(cmd.Context(), conf.Log.File, conf.LogLevel(), a.sentry != nil, BuildVersion)

	slog.Debug("Starting demoinspect",
		slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit),
		slog.String("date", BuildDate))

	return nil
}

func (a *app) teardown(_ *cobra.Command, _ []string) {
	if a.sentry != nil {
		a.sentry.Flush(sentryFlushTimeout)
	}

	if a.logCloser != nil {
		a.logCloser()
	}
}

// rootCmd builds the base command with every sub command attached.
func rootCmd() *cobra.Command {
	state := &app{}

	root := &cobra.Command{
		Use:               "demoinspect",
		Short:             "Inspect, bookmark and play back TF2 demos",
		Version:           BuildVersion,
		SilenceUsage:      true,
		PersistentPreRunE: state.setup,
		PersistentPostRun: state.teardown,
	}

	root.PersistentFlags().StringVar(&state.configFile, "config", "", "config file (default is $HOME/demoinspect.yml or ./demoinspect.yml)")

	demos := demosCmd()
	demos.AddCommand(demosListCmd(state), demosCleanCmd(state), demosReplayCmd(state), demosDeleteCmd(state))

	bookmarks := bookmarksCmd()
	bookmarks.AddCommand(bookmarksShowCmd(state), bookmarksAddCmd(state), bookmarksRemoveCmd(state), bookmarksSuggestCmd(state))

	root.AddCommand(inspectCmd(state), demos, bookmarks, playCmd(state), seekCmd(state), controlCmd(state))

	return root
}

// Execute runs the CLI. This is called by main.main().
func Execute(ctx context.Context) {
	if errExecute := rootCmd().ExecuteContext(ctx); errExecute != nil {
		os.Exit(1)
	}
}
