package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/demoinspect/internal/demo"
	"github.com/leighmacdonald/demoinspect/internal/report"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var ErrNoCleanMode = errors.New("no clean mode selected, use --empty, --unmarked or --space")

func loadLibrary(ctx context.Context, application *app) (*demo.Library, error) {
	library := demo.NewLibrary(demo.WithWorkers(application.config.Inspect.Workers))
	if err := library.Load(ctx, application.config.General.DemoPath); err != nil {
		return nil, err
	}

	return library, nil
}

func writeDemos(writer io.Writer, demos []*demo.Demo) error {
	table := tablewriter.NewTable(writer)
	table.Header("Name", "Map", "Duration", "Size", "Recorded", "Bookmarks")

	for _, item := range demos {
		duration := "-"
		if !item.Empty() {
			duration = item.Duration().Round(time.Second).String()
		}

		row := []string{
			item.Filename,
			item.MapName(),
			duration,
			humanize.Bytes(uint64(max(item.Size, 0))), //nolint:gosec
			humanize.Time(item.RecordedAt()),
			strconv.Itoa(len(item.Bookmarks)),
		}

		if err := table.Append(row); err != nil {
			return errors.Join(err, report.ErrRender)
		}
	}

	if err := table.Render(); err != nil {
		return errors.Join(err, report.ErrRender)
	}

	return nil
}

func demosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demos",
		Short: "Manage the demo library",
	}
}

func demosListCmd(application *app) *cobra.Command {
	var pattern string

	command := &cobra.Command{
		Use:   "list",
		Short: "List demos, optionally filtered by a file or map name glob",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			library, errLoad := loadLibrary(cmd.Context(), application)
			if errLoad != nil {
				return errLoad
			}

			return writeDemos(cmd.OutOrStdout(), library.Filter(pattern))
		},
	}

	command.Flags().StringVarP(&pattern, "match", "m", "", "glob matched against the file and map name, eg: *badwater*")

	return command
}

func demosCleanCmd(application *app) *cobra.Command {
	var empty, unmarked, space bool

	command := &cobra.Command{
		Use:   "clean",
		Short: "Remove empty demos, unmarked demos or the oldest unmarked demos until under the disk limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !empty && !unmarked && !space {
				return ErrNoCleanMode
			}

			ctx := cmd.Context()

			library, errLoad := loadLibrary(ctx, application)
			if errLoad != nil {
				return errLoad
			}

			var (
				count int
				freed int64
			)

			tally := func(removed int, size int64, err error) error {
				count += removed
				freed += size

				return err
			}

			if empty {
				if err := tally(library.DeleteEmpty(ctx)); err != nil {
					return err
				}
			}

			if unmarked {
				if err := tally(library.DeleteUnmarked(ctx)); err != nil {
					return err
				}
			}

			if space {
				if err := tally(library.TruncateBySpace(ctx, library.Dir(), application.config.General.CleanupMaxPct)); err != nil {
					return err
				}
			}

			slog.Info("Cleaned demos", slog.Int("removed", count), slog.Int64("bytes", freed))

			_, errWrite := fmt.Fprintf(cmd.OutOrStdout(), "Removed %d demos, freed %s\n",
				count, humanize.Bytes(uint64(freed))) //nolint:gosec

			return errWrite
		},
	}

	command.Flags().BoolVar(&empty, "empty", false, "remove demos with no header or a negligible duration")
	command.Flags().BoolVar(&unmarked, "unmarked", false, "remove demos without bookmarks")
	command.Flags().BoolVar(&space, "space", false, "remove the oldest unmarked demos while disk usage exceeds general.cleanup_max_pct")

	return command
}

func demosReplayCmd(application *app) *cobra.Command {
	var title string

	command := &cobra.Command{
		Use:   "replay <demo>",
		Short: "Copy a demo into the in-game replay browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			library, errLoad := loadLibrary(ctx, application)
			if errLoad != nil {
				return errLoad
			}

			if title == "" {
				title = args[0]
			}

			handle, errConvert := library.ConvertToReplay(ctx, args[0], application.config.General.ReplayPath, title)
			if errConvert != nil {
				return errConvert
			}

			_, errWrite := fmt.Fprintf(cmd.OutOrStdout(), "Created replay %d from %s\n", handle, args[0])

			return errWrite
		},
	}

	command.Flags().StringVarP(&title, "title", "t", "", "title shown in the replay browser (default demo file name)")

	return command
}

func demosDeleteCmd(application *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <demo>",
		Short: "Delete a demo and its bookmark file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			library, errLoad := loadLibrary(ctx, application)
			if errLoad != nil {
				return errLoad
			}

			if err := library.Delete(ctx, args[0]); err != nil {
				return err
			}

			_, errWrite := fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])

			return errWrite
		},
	}
}
