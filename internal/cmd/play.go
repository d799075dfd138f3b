package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/leighmacdonald/demoinspect/internal/playback"
	"github.com/leighmacdonald/demoinspect/pkg/log"
	"github.com/spf13/cobra"
)

var (
	ErrUnknownAction = errors.New("unknown playback action")
	ErrTimescale     = errors.New("invalid timescale")
)

const (
	minTimescale = 0.1
	maxTimescale = 10.0
)

func (a *app) controller() *playback.Controller {
	return playback.NewController(playback.Config{
		Address:           a.config.RCON.Address,
		Password:          a.config.RCON.Password,
		Timeout:           a.config.RCON.Timeout,
		CommandsPerSecond: a.config.RCON.CommandsPerSecond,
	})
}

func sendCommands(cmd *cobra.Command, application *app, commands ...playback.Command) error {
	controller := application.controller()
	defer log.Closer(controller)

	for _, command := range commands {
		response, errSend := controller.Send(cmd.Context(), command)
		if errSend != nil {
			return errSend
		}

		if response != "" {
			slog.Debug("Console output", slog.String("command", command.String()), slog.String("output", response))
		}
	}

	return nil
}

func playCmd(application *app) *cobra.Command {
	var (
		endAt string
		debug bool
	)

	command := &cobra.Command{
		Use:   "play <demo>",
		Short: "Play a library demo in the running game client",
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

			commands := []playback.Command{playback.DemoDebug(debug), playback.PlayDemo(item.Path)}

			if endAt != "" {
				tick, errTick := parseTickArg(endAt, application.tickRate(item))
				if errTick != nil {
					return errTick
				}

				commands = append(commands, playback.SetEndTick(tick))
			}

			if err := sendCommands(cmd, application, commands...); err != nil {
				return err
			}

			_, errWrite := fmt.Fprintf(cmd.OutOrStdout(), "Playing %s\n", item.Filename)

			return errWrite
		},
	}

	command.Flags().StringVar(&endAt, "end", "", "stop playback at this tick or timestamp")
	command.Flags().BoolVar(&debug, "debug", false, "enable demo_debug output")

	return command
}

func seekCmd(application *app) *cobra.Command {
	var (
		relative bool
		pause    bool
		rate     float64
	)

	command := &cobra.Command{
		Use:   "seek <tick|timestamp>",
		Short: "Jump to a tick or HH:MM:SS timestamp in the playing demo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rate <= 0 {
				rate = application.tickRate(nil)
			}

			tick, errTick := parseTickArg(args[0], rate)
			if errTick != nil {
				return errTick
			}

			seek := playback.SkipToTick(tick, pause)
			if relative {
				seek = playback.SkipRelative(tick, pause)
			}

			return sendCommands(cmd, application, seek)
		},
	}

	command.Flags().BoolVarP(&relative, "relative", "r", false, "seek forward from the current position")
	command.Flags().BoolVarP(&pause, "pause", "p", false, "pause once the tick is reached")
	command.Flags().Float64Var(&rate, "rate", 0, "tick rate used to convert timestamps (default general.tick_rate or 66.667)")

	return command
}

// parseAction maps a control action and its optional argument to the console command.
func parseAction(action string, args []string) (playback.Command, error) {
	switch action {
	case "pause":
		return playback.Pause, nil
	case "resume":
		return playback.Resume, nil
	case "toggle":
		return playback.Toggle, nil
	case "stop":
		return playback.Stop, nil
	case "speed":
		if len(args) == 0 {
			return "", fmt.Errorf("%w: speed requires a scale", ErrTimescale)
		}

		scale, errScale := strconv.ParseFloat(args[0], 64)
		if errScale != nil || scale < minTimescale || scale > maxTimescale {
			return "", fmt.Errorf("%w: %s, must be between %.1f and %.1f", ErrTimescale, args[0], minTimescale, maxTimescale)
		}

		return playback.SetTimescale(scale), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func controlCmd(application *app) *cobra.Command {
	return &cobra.Command{
		Use:       "control <pause|resume|toggle|stop|speed> [scale]",
		Short:     "Control playback of the current demo",
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: []string{"pause", "resume", "toggle", "stop", "speed"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command, errAction := parseAction(args[0], args[1:])
			if errAction != nil {
				return errAction
			}

			return sendCommands(cmd, application, command)
		},
	}
}
