// Package playback drives demo playback in a running game client over its remote console.
package playback

import (
	"fmt"
	"strings"
)

// Command is a single console command line.
type Command string

func (c Command) String() string {
	return string(c)
}

func flag(value bool) int {
	if value {
		return 1
	}

	return 0
}

// PlayDemo leaves the current server and starts playing the demo at path.
func PlayDemo(path string) Command {
	return Command(fmt.Sprintf(`disconnect; playdemo "%s"`, strings.ReplaceAll(path, `"`, "")))
}

// SkipToTick jumps to an absolute tick, optionally pausing once there.
func SkipToTick(tick uint32, pause bool) Command {
	return Command(fmt.Sprintf("demo_gototick %d 0 %d", tick, flag(pause)))
}

// SkipRelative jumps forward by ticks from the current position.
func SkipRelative(ticks uint32, pause bool) Command {
	return Command(fmt.Sprintf("demo_gototick %d 1 %d", ticks, flag(pause)))
}

// SetEndTick stops playback once tick is reached.
func SetEndTick(tick uint32) Command {
	return Command(fmt.Sprintf("demo_setendtick %d", tick))
}

func DemoDebug(enabled bool) Command {
	return Command(fmt.Sprintf("demo_debug %d", flag(enabled)))
}

// SetTimescale changes the playback speed, 1.0 being real time.
func SetTimescale(scale float64) Command {
	return Command(fmt.Sprintf("demo_timescale %.2f", scale))
}

const (
	Pause  Command = "demo_pause"
	Resume Command = "demo_resume"
	Toggle Command = "demo_togglepause"
	Stop   Command = "stopdemo"
)
