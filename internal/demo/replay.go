package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"strings"
	"time"

	"github.com/leighmacdonald/demoinspect/pkg/log"
)

var (
	ErrReplay   = errors.New("failed to convert demo to replay")
	ErrNoHeader = errors.New("demo has no readable header")
)

const (
	replayIndex        = "replays.dmx"
	replayIndexContent = "\"root\"\n{\n\t\"version\"\t\"0\"\n}"
	// kvEpoch is the base year of the packed replay date.
	kvEpoch            = 2009
	maxHandleTries     = 16
)

// packDate packs a date the way the replay browser stores it: day and month zero based, year
// relative to kvEpoch.
func packDate(created time.Time) uint32 {
	return uint32(created.Day()-1) | //nolint:gosec
		uint32(created.Month()-1)<<5 |
		uint32(created.Year()-kvEpoch)<<9 //nolint:gosec
}

func packTime(created time.Time) uint32 {
	return uint32(created.Hour()) | uint32(created.Minute())<<5 | uint32(created.Second())<<11 //nolint:gosec
}

func replayName(handle uint32) string {
	return fmt.Sprintf("replay_%d.dmx", handle)
}

// replayFile renders the KeyValues replay description.
func replayFile(handle uint32, header Header, filename string, title string, created time.Time) string {
	var body strings.Builder

	fmt.Fprintf(&body, "replay_%d\n{\n", handle)
	fmt.Fprintf(&body, "\t\"handle\"\t\"%d\"\n", handle)
	fmt.Fprintf(&body, "\t\"map\"\t\"%s\"\n", header.Map)
	body.WriteString("\t\"complete\"\t\"1\"\n")
	fmt.Fprintf(&body, "\t\"title\"\t\"%s\"\n", title)
	fmt.Fprintf(&body, "\t\"recon_filename\"\t\"%s\"\n", filename)
	body.WriteString("\t\"spawn_tick\"\t\"-1\"\n")
	body.WriteString("\t\"death_tick\"\t\"-1\"\n")
	body.WriteString("\t\"status\"\t\"3\"\n")
	fmt.Fprintf(&body, "\t\"length\"\t\"%g\"\n", header.Duration)
	body.WriteString("\t\"record_time\"\n\t{\n")
	fmt.Fprintf(&body, "\t\t\"date\"\t\"%d\"\n", packDate(created))
	fmt.Fprintf(&body, "\t\t\"time\"\t\"%d\"\n", packTime(created))
	body.WriteString("\t}\n}\n")

	return body.String()
}

// HasReplay reports whether the demo has already been copied into replayDir.
func (l *Library) HasReplay(ctx context.Context, replayDir string, demo *Demo) bool {
	exists, err := l.fs.Exists(ctx, filepath.Join(replayDir, demo.Filename))
	if err != nil {
		slog.Warn("Could not check replay", log.ErrAttr(err), slog.String("dir", replayDir))

		return false
	}

	return exists
}

func (l *Library) ensureReplayIndex(ctx context.Context, replayDir string) error {
	path := filepath.Join(replayDir, replayIndex)

	exists, errExists := l.fs.Exists(ctx, path)
	if errExists != nil {
		return errors.Join(errExists, ErrReplay)
	}

	if exists {
		return nil
	}

	if err := l.fs.Upload(ctx, path, 0o644, strings.NewReader(replayIndexContent)); err != nil {
		return errors.Join(err, ErrReplay)
	}

	return nil
}

func (l *Library) newReplayHandle(ctx context.Context, replayDir string) (uint32, error) {
	for range maxHandleTries {
		handle := rand.Uint32() //nolint:gosec

		exists, err := l.fs.Exists(ctx, filepath.Join(replayDir, replayName(handle)))
		if err != nil {
			return 0, errors.Join(err, ErrReplay)
		}

		if !exists {
			return handle, nil
		}
	}

	return 0, fmt.Errorf("%w: no free replay handle", ErrReplay)
}

// ConvertToReplay copies a demo into the game's replay directory and writes the description the
// replay browser needs to list it. The returned handle identifies the new replay.
func (l *Library) ConvertToReplay(ctx context.Context, name string, replayDir string, title string) (uint32, error) {
	demo, errGet := l.Get(name)
	if errGet != nil {
		return 0, errGet
	}

	if demo.Header == nil {
		return 0, fmt.Errorf("%w: %s", ErrNoHeader, name)
	}

	if err := l.ensureReplayIndex(ctx, replayDir); err != nil {
		return 0, err
	}

	reader, errOpen := l.fs.OpenURL(ctx, demo.Path)
	if errOpen != nil {
		return 0, errors.Join(errOpen, ErrReplay)
	}

	defer log.Closer(reader)

	if err := l.fs.Upload(ctx, filepath.Join(replayDir, demo.Filename), 0o644, reader); err != nil {
		return 0, errors.Join(err, ErrReplay)
	}

	handle, errHandle := l.newReplayHandle(ctx, replayDir)
	if errHandle != nil {
		return 0, errHandle
	}

	created := demo.RecordedAt()
	if created.IsZero() {
		created = time.Now()
	}

	content := replayFile(handle, *demo.Header, demo.Filename, title, created)
	if err := l.fs.Upload(ctx, filepath.Join(replayDir, replayName(handle)), 0o644, strings.NewReader(content)); err != nil {
		return 0, errors.Join(err, ErrReplay)
	}

	slog.Info("Converted demo to replay", slog.String("name", name), slog.Uint64("handle", uint64(handle)))

	return handle, nil
}
