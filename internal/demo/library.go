package demo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/demoinspect/pkg/fp"
	"github.com/leighmacdonald/demoinspect/pkg/json"
	"github.com/leighmacdonald/demoinspect/pkg/log"
	"github.com/maruel/natural"
	"github.com/ricochet2200/go-disk-usage/du"
	"github.com/ryanuber/go-glob"
	"github.com/viant/afs"
	"golang.org/x/sync/errgroup"
)

var (
	ErrListDemos    = errors.New("failed to list demos")
	ErrUnknownDemo  = errors.New("unknown demo")
	ErrDeleteDemo   = errors.New("failed to delete demo")
	ErrBookmarkSave = errors.New("failed to save bookmark file")
)

const defaultWorkers = 4

// diskPercentageUsed returns the used share of the volume holding path, 0-100.
func diskPercentageUsed(path string) float32 {
	info := du.NewDiskUsage(path)

	return info.Usage() * 100
}

type Option func(*Library)

// WithWorkers bounds the number of headers read concurrently by Load.
func WithWorkers(workers int) Option {
	return func(l *Library) {
		if workers > 0 {
			l.workers = workers
		}
	}
}

// WithDiskUsage replaces the function used by TruncateBySpace to measure disk usage.
func WithDiskUsage(usage func(path string) float32) Option {
	return func(l *Library) {
		l.diskUsage = usage
	}
}

// Library is the set of demos found in a single directory, keyed by file name.
type Library struct {
	fs        afs.Service
	dir       string
	demos     fp.MutexMap[string, *Demo]
	workers   int
	diskUsage func(path string) float32
}

func NewLibrary(opts ...Option) *Library {
	library := &Library{
		fs:        afs.New(),
		demos:     fp.NewMutexMap[string, *Demo](),
		workers:   defaultWorkers,
		diskUsage: diskPercentageUsed,
	}

	for _, opt := range opts {
		opt(library)
	}

	return library
}

// Dir is the directory of the last Load.
func (l *Library) Dir() string {
	return l.dir
}

// Load replaces the library contents with every demo in dir. Headers and bookmarks are read
// concurrently. A demo whose header can not be read is kept with a nil Header.
func (l *Library) Load(ctx context.Context, dir string) error {
	objects, errList := l.fs.List(ctx, dir)
	if errList != nil {
		return errors.Join(errList, fmt.Errorf("%w: %s", ErrListDemos, dir))
	}

	l.dir = dir
	l.demos = fp.NewMutexMap[string, *Demo]()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(l.workers)

	for _, object := range objects {
		if object.IsDir() || !glob.Glob("*"+Extension, object.Name()) {
			continue
		}

		demo := New(filepath.Join(dir, object.Name()))
		demo.Size = object.Size()
		demo.ModTime = object.ModTime()

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			l.readData(groupCtx, demo)
			l.demos.Set(demo.Filename, demo)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	slog.Debug("Loaded demos", slog.String("dir", dir), slog.Int("count", l.demos.Len()))

	return nil
}

func (l *Library) readData(ctx context.Context, demo *Demo) {
	header, errHeader := l.readHeader(ctx, demo.Path)
	if errHeader != nil {
		slog.Warn("Could not read demo header", log.ErrAttr(errHeader), slog.String("path", demo.Path))
	} else {
		demo.Header = &header
	}

	if errBookmarks := l.readBookmarks(ctx, demo); errBookmarks != nil {
		slog.Warn("Could not read bookmarks", log.ErrAttr(errBookmarks), slog.String("path", demo.SidecarPath()))
	}
}

func (l *Library) readHeader(ctx context.Context, path string) (Header, error) {
	reader, errOpen := l.fs.OpenURL(ctx, path)
	if errOpen != nil {
		return Header{}, errors.Join(errOpen, ErrDemoHeader)
	}

	defer log.Closer(reader)

	return ReadHeader(io.LimitReader(reader, HeaderSize))
}

func (l *Library) readBookmarks(ctx context.Context, demo *Demo) error {
	exists, errExists := l.fs.Exists(ctx, demo.SidecarPath())
	if errExists != nil {
		return errors.Join(errExists, ErrBookmarkRead)
	}

	if !exists {
		return nil
	}

	body, errDownload := l.fs.DownloadWithURL(ctx, demo.SidecarPath())
	if errDownload != nil {
		return errors.Join(errDownload, ErrBookmarkRead)
	}

	container, errDecode := json.Decode[sidecar](bytes.NewReader(body))
	if errDecode != nil {
		return errors.Join(errDecode, ErrBookmarkRead)
	}

	sortBookmarks(container.Events)

	demo.Bookmarks = container.Events
	demo.Notes = container.Notes

	return nil
}

// Save writes the bookmark sidecar for demo. A demo without bookmarks or notes has its sidecar
// removed instead.
func (l *Library) Save(ctx context.Context, demo *Demo) error {
	path := demo.SidecarPath()

	if len(demo.Bookmarks) == 0 && demo.Notes == "" {
		return l.deleteIfExists(ctx, path)
	}

	sortBookmarks(demo.Bookmarks)

	container := sidecar{Events: demo.Bookmarks, Notes: demo.Notes}
	if container.Events == nil {
		container.Events = []Bookmark{}
	}

	var buf bytes.Buffer
	if err := json.Encode(&buf, container); err != nil {
		return errors.Join(err, ErrBookmarkSave)
	}

	if err := l.fs.Upload(ctx, path, 0o644, &buf); err != nil {
		return errors.Join(err, ErrBookmarkSave)
	}

	slog.Debug("Saved bookmarks", slog.String("path", path), slog.Int("count", len(demo.Bookmarks)))

	return nil
}

func (l *Library) deleteIfExists(ctx context.Context, path string) error {
	exists, errExists := l.fs.Exists(ctx, path)
	if errExists != nil {
		return errors.Join(errExists, ErrDeleteDemo)
	}

	if !exists {
		return nil
	}

	if err := l.fs.Delete(ctx, path); err != nil {
		return errors.Join(err, fmt.Errorf("%w: %s", ErrDeleteDemo, path))
	}

	return nil
}

func (l *Library) Get(name string) (*Demo, error) {
	demo, found := l.demos.Get(name)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDemo, name)
	}

	return demo, nil
}

func (l *Library) Len() int {
	return l.demos.Len()
}

// Sorted returns all demos in natural file name order.
func (l *Library) Sorted() []*Demo {
	snapshot := l.demos.Snapshot()
	demos := make([]*Demo, 0, len(snapshot))

	for _, demo := range snapshot {
		demos = append(demos, demo)
	}

	slices.SortFunc(demos, func(a, b *Demo) int {
		switch {
		case natural.Less(a.Filename, b.Filename):
			return -1
		case natural.Less(b.Filename, a.Filename):
			return 1
		default:
			return 0
		}
	})

	return demos
}

// Filter returns the demos whose file or map name matches the case insensitive glob pattern.
func (l *Library) Filter(pattern string) []*Demo {
	if pattern == "" {
		return l.Sorted()
	}

	pattern = strings.ToLower(pattern)

	return fp.Filter(l.Sorted(), func(demo *Demo) bool {
		return glob.Glob(pattern, strings.ToLower(demo.Filename)) ||
			glob.Glob(pattern, strings.ToLower(demo.MapName()))
	})
}

// Delete removes a demo and its bookmark file.
func (l *Library) Delete(ctx context.Context, name string) error {
	demo, errGet := l.Get(name)
	if errGet != nil {
		return errGet
	}

	if err := l.fs.Delete(ctx, demo.Path); err != nil {
		return errors.Join(err, fmt.Errorf("%w: %s", ErrDeleteDemo, demo.Path))
	}

	l.demos.Delete(name)

	if err := l.deleteIfExists(ctx, demo.SidecarPath()); err != nil {
		slog.Warn("Could not delete bookmark file", log.ErrAttr(err), slog.String("path", demo.SidecarPath()))
	}

	slog.Debug("Deleted demo", slog.String("name", name), slog.String("size", humanize.Bytes(uint64(demo.Size)))) //nolint:gosec

	return nil
}

func (l *Library) deleteWhere(ctx context.Context, match func(*Demo) bool) (int, int64, error) {
	var (
		count int
		size  int64
	)

	for _, demo := range fp.Filter(l.Sorted(), match) {
		if err := l.Delete(ctx, demo.Filename); err != nil {
			return count, size, err
		}

		count++
		size += demo.Size
	}

	return count, size, nil
}

// DeleteEmpty removes demos that have no readable header or are shorter than half a second.
func (l *Library) DeleteEmpty(ctx context.Context) (int, int64, error) {
	return l.deleteWhere(ctx, (*Demo).Empty)
}

// DeleteUnmarked removes every demo without bookmarks.
func (l *Library) DeleteUnmarked(ctx context.Context) (int, int64, error) {
	return l.deleteWhere(ctx, func(demo *Demo) bool {
		return !demo.Marked()
	})
}

// TruncateBySpace deletes unmarked demos, oldest first, until the disk holding root is below
// maxAllowedPctUsed percent used or nothing deletable is left.
func (l *Library) TruncateBySpace(ctx context.Context, root string, maxAllowedPctUsed float32) (int, int64, error) {
	var (
		count int
		size  int64
	)

	defer func() {
		slog.Debug("Truncate by space completed", slog.Int("count", count), slog.String("total_size", humanize.Bytes(uint64(size)))) //nolint:gosec
	}()

	for {
		if err := ctx.Err(); err != nil {
			return count, size, err
		}

		if l.diskUsage(root) < maxAllowedPctUsed {
			return count, size, nil
		}

		candidates := fp.Filter(l.Sorted(), func(demo *Demo) bool {
			return !demo.Marked()
		})

		if len(candidates) == 0 {
			return count, size, nil
		}

		oldest := slices.MinFunc(candidates, func(a, b *Demo) int {
			return a.RecordedAt().Compare(b.RecordedAt())
		})

		if err := l.Delete(ctx, oldest.Filename); err != nil {
			return count, size, err
		}

		size += oldest.Size
		count++
	}
}
