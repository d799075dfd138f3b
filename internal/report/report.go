// Package report turns a MatchState into human readable text: one line titles for events and
// tables for the CLI.
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leighmacdonald/demoinspect/pkg/analyser"
	"github.com/leighmacdonald/demoinspect/pkg/ticks"
	"github.com/leighmacdonald/steamid/v4/steamid"
)

const unknown = "unknown"

func critSuffix(crit analyser.CritType) string {
	switch crit {
	case analyser.CritNone:
		return ""
	case analyser.CritMini:
		return " (mini-crit)"
	case analyser.CritFull:
		return " (crit)"
	default:
		return fmt.Sprintf(" (unknown crit type: %d)", int(crit))
	}
}

// Title is the headline shown for an event.
func Title(state *analyser.MatchState, event analyser.MatchEvent) string {
	switch value := event.Value.(type) {
	case analyser.Kill:
		victim := state.UserName(value.Victim, unknown)
		if !value.Killer.Valid() {
			return fmt.Sprintf("%s was killed with %s%s", victim, value.Weapon, critSuffix(value.Crit))
		}

		return fmt.Sprintf("%s killed %s with %s%s",
			state.UserName(value.Killer, unknown), victim, value.Weapon, critSuffix(value.Crit))
	case analyser.RoundEnd:
		if value.Winner == analyser.TeamOther && value.WinReason == analyser.WinReasonTimeLimit {
			return "Round ended in a stalemate"
		}

		return "Round won by " + value.Winner.String()
	case analyser.Chat:
		return value.Text
	case analyser.Connection:
		if value.Type == analyser.ConnectionLeave {
			return fmt.Sprintf("%s left the game (%s)", value.Name, value.Reason)
		}

		return value.Name + " joined the game"
	case analyser.VoteStarted:
		initiator := value.Vote.Initiator
		if initiator == "" {
			initiator = unknown
		}

		issue := value.Vote.Issue
		if issue == "" {
			issue = "Unknown vote issue"
		}

		return fmt.Sprintf("%s started a vote: %s", initiator, issue)
	case analyser.TeamSwitch:
		return value.Team.String()
	case analyser.ClassSwitch:
		return value.Class.String()
	default:
		return string(event.Kind())
	}
}

// Subtitle is the secondary line shown under Title, possibly empty.
func Subtitle(state *analyser.MatchState, event analyser.MatchEvent) string {
	switch value := event.Value.(type) {
	case analyser.Kill:
		return flagNames(value)
	case analyser.Chat:
		return value.Type.Prefix() + value.Speaker
	case analyser.Connection:
		return steamIDLabel(value.Key)
	case analyser.VoteStarted:
		tally := value.Vote.Tally()
		options := make([]string, len(value.Vote.Options))

		for idx, option := range value.Vote.Options {
			options[idx] = option + ": " + strconv.Itoa(tally[idx])
		}

		return value.Vote.Team.String() + " | " + strings.Join(options, ", ")
	case analyser.TeamSwitch:
		return state.UserName(value.User, unknown)
	case analyser.ClassSwitch:
		return state.UserName(value.User, unknown)
	default:
		return ""
	}
}

func flagNames(kill analyser.Kill) string {
	var names []string

	if kill.Domination {
		names = append(names, "domination")
	}

	if kill.AssisterDomination {
		names = append(names, "assister domination")
	}

	if kill.Revenge {
		names = append(names, "revenge")
	}

	if kill.AssisterRevenge {
		names = append(names, "assister revenge")
	}

	if kill.FeignDeath {
		names = append(names, "feign death")
	}

	return strings.Join(names, ", ")
}

// steamIDLabel renders a connection key with its 64bit form when it parses as a steam id.
func steamIDLabel(key string) string {
	if key == "" || strings.HasPrefix(key, analyser.BotSteamID) {
		return key
	}

	sid := steamid.New(key)
	if !sid.Valid() {
		return key
	}

	return fmt.Sprintf("%s (%d)", key, sid.Int64())
}

// Timestamp renders a tick as "HH:MM:SS (tick)".
func Timestamp(tick uint32, rate float64) string {
	return fmt.Sprintf("%s (%d)", ticks.Format(tick, rate), tick)
}

// TickRate returns the server tick rate recorded in state, or the default rate.
func TickRate(state *analyser.MatchState) float64 {
	info, found := state.ServerInfo()
	if !found || info.IntervalPerTick <= 0 {
		return ticks.DefaultRate
	}

	return float64(info.TickRate())
}

// Notable reports whether a kill is worth highlighting.
func Notable(kill analyser.Kill) bool {
	return kill.Domination || kill.Revenge || kill.AssisterDomination || kill.AssisterRevenge
}
