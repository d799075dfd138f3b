package demo

import (
	"github.com/leighmacdonald/demoinspect/internal/report"
	"github.com/leighmacdonald/demoinspect/pkg/analyser"
)

// SuggestBookmarks derives bookmarks from an analysed match. With no kinds given it picks the
// highlights: notable kills, round ends and votes. Otherwise every event of the given kinds is
// bookmarked.
func SuggestBookmarks(state *analyser.MatchState, kinds ...analyser.EventKind) []Bookmark {
	highlights := len(kinds) == 0
	if highlights {
		kinds = []analyser.EventKind{analyser.EventKill, analyser.EventRoundEnd, analyser.EventVoteStarted}
	}

	var bookmarks []Bookmark

	for _, event := range state.EventsOf(kinds...) {
		if kill, isKill := event.Value.(analyser.Kill); isKill && highlights && !report.Notable(kill) {
			continue
		}

		bookmarks = append(bookmarks, Bookmark{
			Tick:  event.Tick,
			Title: report.Title(state, event),
			Type:  string(event.Kind()),
		})
	}

	return bookmarks
}
