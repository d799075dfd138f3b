package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/leighmacdonald/demoinspect/internal/demo"
	"github.com/leighmacdonald/demoinspect/internal/report"
	"github.com/leighmacdonald/demoinspect/pkg/ticks"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var ErrInvalidTick = errors.New("invalid tick")

// parseTickArg accepts either a raw tick or a HH:MM:SS style timestamp converted at rate.
func parseTickArg(value string, rate float64) (uint32, error) {
	if strings.Contains(value, ":") {
		return ticks.Parse(value, rate)
	}

	tick, errParse := strconv.ParseUint(value, 10, 32)
	if errParse != nil {
		return 0, errors.Join(errParse, fmt.Errorf("%w: %s", ErrInvalidTick, value))
	}

	return uint32(tick), nil
}

// tickRate is the configured override or the rate measured from the demo header.
func (a *app) tickRate(item *demo.Demo) float64 {
	if a.config.General.TickRate > 0 {
		return a.config.General.TickRate
	}

	if item == nil {
		return demo.DefaultTickRate
	}

	return item.TPS()
}

func writeBookmarks(writer io.Writer, bookmarks []demo.Bookmark, rate float64) error {
	table := tablewriter.NewTable(writer)
	table.Header("Time", "Type", "Title")

	for _, bookmark := range bookmarks {
		if err := table.Append([]string{report.Timestamp(bookmark.Tick, rate), bookmark.Type, bookmark.Title}); err != nil {
			return errors.Join(err, report.ErrRender)
		}
	}

	if err := table.Render(); err != nil {
		return errors.Join(err, report.ErrRender)
	}

	return nil
}

func bookmarksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bookmarks",
		Short: "Show and edit demo bookmarks",
	}
}

func bookmarksShowCmd(application *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <demo>",
		Short: "List the bookmarks of a demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			library, errLoad := loadLibrary(cmd.Context(), application)
			if errLoad != nil {
				return errLoad
			}

			item, errGet := library.Get(args[0])
			if errGet != nil {
				return errGet
			}

			out := cmd.OutOrStdout()
			if item.Notes != "" {
				if _, err := fmt.Fprintf(out, "Notes: %s\n", item.Notes); err != nil {
					return err
				}
			}

			return writeBookmarks(out, item.Bookmarks, application.tickRate(item))
		},
	}
}

func bookmarksAddCmd(application *app) *cobra.Command {
	var kind string

	command := &cobra.Command{
		Use:   "add <demo> <tick|timestamp> [title]",
		Short: "Bookmark a tick or a HH:MM:SS timestamp",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			library, errLoad := loadLibrary(ctx, application)
			if errLoad != nil {
				return errLoad
			}

			item, errGet := library.Get(args[0])
			if errGet != nil {
				return errGet
			}

			tick, errTick := parseTickArg(args[1], application.tickRate(item))
			if errTick != nil {
				return errTick
			}

			title := "Bookmark"
			if len(args) == 3 {
				title = args[2]
			}

			added := item.AddBookmarks(demo.Bookmark{Tick: tick, Title: title, Type: kind})

			if err := library.Save(ctx, item); err != nil {
				return err
			}

			_, errWrite := fmt.Fprintf(cmd.OutOrStdout(), "Added %d bookmark(s) at tick %d\n", added, tick)

			return errWrite
		},
	}

	command.Flags().StringVar(&kind, "type", "bookmark", "bookmark type")

	return command
}

func bookmarksRemoveCmd(application *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <demo> <tick|timestamp>",
		Short: "Remove every bookmark at a tick",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			library, errLoad := loadLibrary(ctx, application)
			if errLoad != nil {
				return errLoad
			}

			item, errGet := library.Get(args[0])
			if errGet != nil {
				return errGet
			}

			tick, errTick := parseTickArg(args[1], application.tickRate(item))
			if errTick != nil {
				return errTick
			}

			removed := item.RemoveBookmarks(tick)
			if removed > 0 {
				if err := library.Save(ctx, item); err != nil {
					return err
				}
			}

			_, errWrite := fmt.Fprintf(cmd.OutOrStdout(), "Removed %d bookmark(s) at tick %d\n", removed, tick)

			return errWrite
		},
	}
}

func bookmarksSuggestCmd(application *app) *cobra.Command {
	var (
		kindNames []string
		save      bool
	)

	command := &cobra.Command{
		Use:   "suggest <demo> <stream>",
		Short: "Suggest bookmarks from the analysed record stream of a demo",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			kinds, errKinds := parseKinds(kindNames)
			if errKinds != nil {
				return errKinds
			}

			library, errLoad := loadLibrary(ctx, application)
			if errLoad != nil {
				return errLoad
			}

			item, errGet := library.Get(args[0])
			if errGet != nil {
				return errGet
			}

			state, errAnalyse := analyse(ctx, args[1])
			if errAnalyse != nil {
				return errAnalyse
			}

			suggested := demo.SuggestBookmarks(state, kinds...)
			out := cmd.OutOrStdout()

			if err := writeBookmarks(out, suggested, application.tickRate(item)); err != nil {
				return err
			}

			if !save {
				return nil
			}

			added := item.AddBookmarks(suggested...)
			if err := library.Save(ctx, item); err != nil {
				return err
			}

			_, errWrite := fmt.Fprintf(out, "Saved %d new bookmark(s) to %s\n", added, item.SidecarPath())

			return errWrite
		},
	}

	command.Flags().StringSliceVar(&kindNames, "kinds", nil, "bookmark every event of these kinds instead of highlights")
	command.Flags().BoolVar(&save, "save", false, "write the suggestions to the bookmark file")

	return command
}
