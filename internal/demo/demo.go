// Package demo manages a directory of recorded demos: headers, bookmark sidecar files, cleanup
// and conversion into the game's replay format.
package demo

import (
	"cmp"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/leighmacdonald/demoinspect/pkg/fs"
)

const (
	// DefaultTickRate is used when a demo has no usable header.
	DefaultTickRate = 66.667

	Extension        = ".dem"
	SidecarExtension = ".json"

	// minDuration is the shortest recording, in seconds, that is not considered empty.
	minDuration = 0.5
)

var ErrBookmarkRead = errors.New("failed to read bookmark file")

// Bookmark is a marked tick within a demo. The json names follow the game's own bookmark files.
type Bookmark struct {
	Tick  uint32 `json:"tick"`
	Title string `json:"value"`
	Type  string `json:"name"`
}

// sidecar is the on disk layout of <demo>.json.
type sidecar struct {
	Events []Bookmark `json:"events"`
	Notes  string     `json:"notes,omitempty"`
}

// Demo is a single recording in the library.
type Demo struct {
	ID       uuid.UUID
	Path     string
	Filename string
	// Header is nil when the file could not be read.
	Header    *Header
	Bookmarks []Bookmark
	Notes     string
	Size      int64
	ModTime   time.Time
}

// New creates an unloaded Demo for path. The id is derived from the absolute path so the same
// file always gets the same id.
func New(path string) *Demo {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	return &Demo{
		ID:       uuid.NewV5(uuid.NamespaceURL, "file://"+filepath.ToSlash(path)),
		Path:     path,
		Filename: filepath.Base(path),
	}
}

// SidecarPath is the location of the bookmark file for the demo.
func (d *Demo) SidecarPath() string {
	return fs.ReplaceExt(d.Path, SidecarExtension)
}

// TPS is the tick rate measured from the header.
func (d *Demo) TPS() float64 {
	if d.Header == nil || d.Header.Duration <= 0 || d.Header.Ticks <= 0 {
		return DefaultTickRate
	}

	return float64(d.Header.Ticks) / d.Header.Duration
}

func (d *Demo) Duration() time.Duration {
	if d.Header == nil {
		return 0
	}

	return time.Duration(d.Header.Duration * float64(time.Second))
}

func (d *Demo) MapName() string {
	if d.Header != nil && d.Header.Map != "" {
		return d.Header.Map
	}

	if name, ok := ParseDemoName(d.Filename); ok {
		return name.Map
	}

	return ""
}

// Empty reports whether the demo has no header or a negligible duration.
func (d *Demo) Empty() bool {
	return d.Header == nil || d.Header.Duration < minDuration
}

func (d *Demo) Marked() bool {
	return len(d.Bookmarks) > 0
}

// RecordedAt prefers the time encoded in the file name and falls back to the modification time.
func (d *Demo) RecordedAt() time.Time {
	if name, ok := ParseDemoName(d.Filename); ok {
		return name.Created
	}

	return d.ModTime
}

func sortBookmarks(bookmarks []Bookmark) {
	slices.SortStableFunc(bookmarks, func(a, b Bookmark) int {
		return cmp.Compare(a.Tick, b.Tick)
	})
}

// AddBookmarks merges bookmarks into the demo, ignoring exact duplicates. It returns how many were
// added.
func (d *Demo) AddBookmarks(bookmarks ...Bookmark) int {
	added := 0

	for _, bookmark := range bookmarks {
		if slices.Contains(d.Bookmarks, bookmark) {
			continue
		}

		d.Bookmarks = append(d.Bookmarks, bookmark)
		added++
	}

	sortBookmarks(d.Bookmarks)

	return added
}

// RemoveBookmarks drops every bookmark at tick and returns how many were removed.
func (d *Demo) RemoveBookmarks(tick uint32) int {
	before := len(d.Bookmarks)
	d.Bookmarks = slices.DeleteFunc(d.Bookmarks, func(bookmark Bookmark) bool {
		return bookmark.Tick == tick
	})

	return before - len(d.Bookmarks)
}

// DemoName holds the parts of an auto recorded demo file name.
type DemoName struct {
	Created  time.Time
	Map      string
	Workshop bool
}

// ParseDemoName reads names produced by the server auto recorder:
//
//	20231112-063943-koth_harvest_final.dem
//	20231221-042605-workshop-cp_overgrown_rc8-ugc503939302.dem
func ParseDemoName(filename string) (DemoName, bool) {
	parts := strings.Split(strings.TrimSuffix(filepath.Base(filename), Extension), "-")
	if len(parts) < 3 {
		return DemoName{}, false
	}

	created, errTime := time.ParseInLocation("20060102-150405", parts[0]+"-"+parts[1], time.Local)
	if errTime != nil {
		return DemoName{}, false
	}

	name := DemoName{Created: created, Map: strings.Join(parts[2:], "-")}

	if parts[2] == "workshop" && len(parts) >= 4 {
		name.Workshop = true
		name.Map = parts[3]
	}

	return name, name.Map != ""
}
