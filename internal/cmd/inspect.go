package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/leighmacdonald/demoinspect/internal/eventstream"
	"github.com/leighmacdonald/demoinspect/internal/report"
	"github.com/leighmacdonald/demoinspect/pkg/analyser"
	"github.com/leighmacdonald/demoinspect/pkg/json"
	"github.com/leighmacdonald/demoinspect/pkg/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownSection = errors.New("unknown report section")

const (
	sectionSummary = "summary"
	sectionUsers   = "users"
	sectionEvents  = "events"
	sectionVotes   = "votes"
	sectionWeapons = "weapons"

	topWeapons = 10
)

func sections() []string {
	return []string{sectionSummary, sectionUsers, sectionEvents, sectionVotes, sectionWeapons}
}

// analyse folds a single record stream.
func analyse(ctx context.Context, path string) (*analyser.MatchState, error) {
	reader, errOpen := eventstream.Open(path)
	if errOpen != nil {
		return nil, errOpen
	}

	defer log.Closer(reader)

	logger := slog.Default().With(slog.String("stream", filepath.Base(path)))
	fold := analyser.New(analyser.WithLogger(logger))

	count, errApply := eventstream.Apply(ctx, reader, fold)
	if errApply != nil {
		return nil, errApply
	}

	state := fold.Finalize()

	logger.Info("Analysed stream",
		slog.Int("records", count),
		slog.Int("users", state.UserCount()),
		slog.Int("events", state.EventCount()),
		slog.Int("skipped", state.Skipped()))

	return state, nil
}

// analyseAll folds every stream concurrently, results are returned in input order.
func analyseAll(ctx context.Context, paths []string, workers int) ([]*analyser.MatchState, error) {
	results := make([]*analyser.MatchState, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for idx, path := range paths {
		group.Go(func() error {
			state, err := analyse(groupCtx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			results[idx] = state

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func parseKinds(names []string) ([]analyser.EventKind, error) {
	kinds := make([]analyser.EventKind, 0, len(names))

	for _, name := range names {
		kind, errKind := analyser.ParseEventKind(name)
		if errKind != nil {
			return nil, errKind
		}

		kinds = append(kinds, kind)
	}

	return kinds, nil
}

func writeSections(out io.Writer, state *analyser.MatchState, names []string, kinds []analyser.EventKind) error {
	for _, name := range names {
		var err error

		switch name {
		case sectionSummary:
			err = report.Summary(out, state)
		case sectionUsers:
			err = report.Users(out, state)
		case sectionEvents:
			err = report.Events(out, state, kinds...)
		case sectionVotes:
			err = report.Votes(out, state)
		case sectionWeapons:
			err = report.Weapons(out, state, topWeapons)
		default:
			err = fmt.Errorf("%w: %s", ErrUnknownSection, name)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

type inspectResult struct {
	Path  string               `json:"path"`
	State *analyser.MatchState `json:"state"`
}

func inspectCmd(application *app) *cobra.Command {
	var (
		asJSON       bool
		kindNames    []string
		sectionNames []string
	)

	command := &cobra.Command{
		Use:   "inspect <stream> [stream...]",
		Short: "Analyse decoded record streams (.jsonl, optionally zstd compressed)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range sectionNames {
				if !slices.Contains(sections(), name) {
					return fmt.Errorf("%w: %s", ErrUnknownSection, name)
				}
			}

			if len(kindNames) == 0 {
				kindNames = application.config.Inspect.Kinds
			}

			kinds, errKinds := parseKinds(kindNames)
			if errKinds != nil {
				return errKinds
			}

			states, errAnalyse := analyseAll(cmd.Context(), args, application.config.Inspect.Workers)
			if errAnalyse != nil {
				return errAnalyse
			}

			out := cmd.OutOrStdout()

			if asJSON {
				results := make([]inspectResult, len(states))
				for idx, state := range states {
					results[idx] = inspectResult{Path: args[idx], State: state}
				}

				return json.Encode(out, results)
			}

			for idx, state := range states {
				if _, err := fmt.Fprintf(out, "== %s ==\n", args[idx]); err != nil {
					return err
				}

				if err := writeSections(out, state, sectionNames, kinds); err != nil {
					return err
				}
			}

			return nil
		},
	}

	command.Flags().BoolVar(&asJSON, "json", false, "write the full match state as JSON")
	command.Flags().StringSliceVar(&kindNames, "kinds", nil, "event kinds to list (default all)")
	command.Flags().StringSliceVar(&sectionNames, "sections",
		[]string{sectionSummary, sectionUsers, sectionEvents, sectionVotes}, "report sections to print")

	return command
}
