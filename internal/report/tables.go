package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/demoinspect/pkg/analyser"
	"github.com/leighmacdonald/demoinspect/pkg/fp"
	"github.com/leighmacdonald/demoinspect/pkg/ticks"
	"github.com/olekukonko/tablewriter"
)

var ErrRender = errors.New("failed to render table")

func render(table *tablewriter.Table) error {
	if err := table.Render(); err != nil {
		return errors.Join(err, ErrRender)
	}

	return nil
}

// Summary writes the match overview: server, map, length and counts.
func Summary(writer io.Writer, state *analyser.MatchState) error {
	rate := TickRate(state)
	info, _ := state.ServerInfo()

	kills := make([]float64, 0, state.UserCount())
	for _, stats := range Scoreboard(state) {
		kills = append(kills, float64(stats.Kills))
	}

	table := tablewriter.NewTable(writer)
	table.Header("Field", "Value")

	rows := [][]string{
		{"Server", info.Name},
		{"Map", info.Map},
		{"Platform", info.PlatformName()},
		{"Tick rate", fmt.Sprintf("%.2f (%.0f ms/tick)", rate, 1000/rate)},
		{"Duration", Timestamp(state.EndTick(), rate)},
		{"Users", fmt.Sprintf("%d (max players %d)", state.UserCount(), info.MaxPlayers)},
		{"Events", humanize.Comma(int64(state.EventCount()))},
		{"Kills", fmt.Sprintf("%.0f (most %.0f, average %.1f)", fp.Sum(kills...), fp.Max(kills...), fp.Avg(kills))},
		{"Skipped records", strconv.Itoa(state.Skipped())},
	}

	if err := table.Bulk(rows); err != nil {
		return errors.Join(err, ErrRender)
	}

	return render(table)
}

// Events writes one row per event of the given kinds, all events when kinds is empty.
func Events(writer io.Writer, state *analyser.MatchState, kinds ...analyser.EventKind) error {
	rate := TickRate(state)
	table := tablewriter.NewTable(writer)
	table.Header("Time", "Kind", "Title", "Detail")

	for _, event := range state.EventsOf(kinds...) {
		row := []string{
			Timestamp(event.Tick, rate),
			string(event.Kind()),
			Title(state, event),
			Subtitle(state, event),
		}

		if err := table.Append(row); err != nil {
			return errors.Join(err, ErrRender)
		}
	}

	return render(table)
}

// PlayerStats is the per user scoreboard line derived from kill events.
type PlayerStats struct {
	User    analyser.StableUserID
	Name    string
	Kills   int
	Deaths  int
	Assists int
}

// Scoreboard tallies kills, deaths and assists for every user in state, in user id order.
func Scoreboard(state *analyser.MatchState) []PlayerStats {
	kills := state.EventsOf(analyser.EventKill)
	value := func(event analyser.MatchEvent) analyser.Kill {
		kill, _ := event.Value.(analyser.Kill)

		return kill
	}

	killCounts := fp.CountBy(kills, func(event analyser.MatchEvent) (analyser.StableUserID, bool) {
		kill := value(event)

		return kill.Killer, kill.Killer.Valid() && kill.Killer != kill.Victim
	})
	deathCounts := fp.CountBy(kills, func(event analyser.MatchEvent) (analyser.StableUserID, bool) {
		return value(event).Victim, true
	})
	assistCounts := fp.CountBy(kills, func(event analyser.MatchEvent) (analyser.StableUserID, bool) {
		kill := value(event)

		return kill.Assister, kill.Assister.Valid()
	})

	users := state.Users()
	stats := make([]PlayerStats, len(users))

	for idx, user := range users {
		stats[idx] = PlayerStats{
			User:    user.ID,
			Name:    state.UserName(user.ID, unknown),
			Kills:   killCounts[user.ID],
			Deaths:  deathCounts[user.ID],
			Assists: assistCounts[user.ID],
		}
	}

	return stats
}

// TopWeapons returns the n weapons with the most kills.
func TopWeapons(state *analyser.MatchState, n int) []fp.Pair[string, int] {
	counts := fp.CountBy(state.EventsOf(analyser.EventKill), func(event analyser.MatchEvent) (string, bool) {
		kill, _ := event.Value.(analyser.Kill)

		return kill.Weapon, kill.Weapon != ""
	})

	return fp.TopN(counts, n)
}

func classHistory(user analyser.UserRecord) string {
	classes := make([]string, 0, len(user.Classes))
	for _, change := range user.Classes {
		classes = append(classes, change.Class.String())
	}

	return strings.Join(fp.Uniq(classes), ", ")
}

// Users writes the participant table with scoreboard columns.
func Users(writer io.Writer, state *analyser.MatchState) error {
	scores := Scoreboard(state)
	table := tablewriter.NewTable(writer)
	table.Header("ID", "Name", "Steam ID", "Team", "Classes", "K", "D", "A", "Connections")

	for idx, user := range state.Users() {
		score := scores[idx]
		row := []string{
			strconv.Itoa(int(user.ID)),
			score.Name,
			steamIDLabel(user.SteamID),
			user.Team.String(),
			classHistory(user),
			strconv.Itoa(score.Kills),
			strconv.Itoa(score.Deaths),
			strconv.Itoa(score.Assists),
			strconv.Itoa(len(user.Connections)),
		}

		if err := table.Append(row); err != nil {
			return errors.Join(err, ErrRender)
		}
	}

	return render(table)
}

// Votes writes one row per poll.
func Votes(writer io.Writer, state *analyser.MatchState) error {
	rate := TickRate(state)
	table := tablewriter.NewTable(writer)
	table.Header("Start", "Length", "Initiator", "Issue", "Team", "Tally", "Outcome")

	for _, vote := range state.Votes() {
		tally := vote.Tally()
		counts := make([]string, len(vote.Options))

		for idx, option := range vote.Options {
			counts[idx] = fmt.Sprintf("%s: %d", option, tally[idx])
		}

		length := ticks.ToDuration(vote.EndTick-vote.StartTick, rate).Round(time.Second).String()

		row := []string{
			Timestamp(vote.StartTick, rate),
			length,
			vote.Initiator,
			vote.Issue,
			vote.Team.String(),
			strings.Join(counts, ", "),
			string(vote.Outcome),
		}

		if err := table.Append(row); err != nil {
			return errors.Join(err, ErrRender)
		}
	}

	return render(table)
}

// Weapons writes the top n weapons by kill count.
func Weapons(writer io.Writer, state *analyser.MatchState, n int) error {
	table := tablewriter.NewTable(writer)
	table.Header("Weapon", "Kills")

	for _, pair := range TopWeapons(state, n) {
		if err := table.Append([]string{pair.Key, humanize.Comma(int64(pair.Value))}); err != nil {
			return errors.Join(err, ErrRender)
		}
	}

	return render(table)
}
