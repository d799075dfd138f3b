package analyser

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	ErrUnknownPoll   = errors.New("no open poll for index")
	ErrInvalidOption = errors.New("vote option out of range")
)

type VoteScope string

const (
	VoteScopeUnknown VoteScope = "unknown"
	VoteScopeOne     VoteScope = "one"
	VoteScopeBoth    VoteScope = "both"
)

// VoteTeam describes which teams took part in a poll. It only ever widens.
type VoteTeam struct {
	Scope VoteScope `json:"scope"`
	Team  Team      `json:"team,omitempty"`
}

func (v VoteTeam) widen(team Team) VoteTeam {
	switch v.Scope {
	case VoteScopeOne:
		if v.Team == team {
			return v
		}

		return VoteTeam{Scope: VoteScopeBoth}
	case VoteScopeBoth:
		return v
	default:
		return VoteTeam{Scope: VoteScopeOne, Team: team}
	}
}

func (v VoteTeam) String() string {
	switch v.Scope {
	case VoteScopeOne:
		return v.Team.String()
	case VoteScopeBoth:
		return "Both teams"
	default:
		return "Unknown"
	}
}

type Ballot struct {
	Tick   uint32 `json:"tick"`
	Voter  string `json:"voter"`
	Option int    `json:"option"`
}

type Outcome string

const (
	OutcomeOpen   Outcome = "open"
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// Vote is everything collected about a single poll.
type Vote struct {
	Index     uint32   `json:"index"`
	StartTick uint32   `json:"start_tick"`
	EndTick   uint32   `json:"end_tick"`
	Team      VoteTeam `json:"team"`
	Initiator string   `json:"initiator,omitempty"`
	Issue     string   `json:"issue,omitempty"`
	Options   []string `json:"options"`
	Ballots   []Ballot `json:"ballots"`
	Outcome   Outcome  `json:"outcome"`
	// Details is the pass message and parameter sent with vote_passed.
	Details string `json:"details,omitempty"`
}

func (v Vote) clone() Vote {
	v.Options = slices.Clone(v.Options)
	v.Ballots = slices.Clone(v.Ballots)

	return v
}

// Tally counts the ballots per option, indexed like Options.
func (v Vote) Tally() []int {
	counts := make([]int, len(v.Options))
	for _, ballot := range v.Ballots {
		if ballot.Option >= 0 && ballot.Option < len(counts) {
			counts[ballot.Option]++
		}
	}

	return counts
}

// voteTracker holds one accumulator per open poll index. Closing a poll frees its index for reuse.
type voteTracker struct {
	open   map[uint32]*Vote
	closed []*Vote
}

func newVoteTracker() *voteTracker {
	return &voteTracker{open: map[uint32]*Vote{}}
}

// announce creates the accumulator for a poll. Repeated announcements for an open poll are ignored.
func (t *voteTracker) announce(tick uint32, options VoteOptions) bool {
	if _, found := t.open[options.VoteIdx]; found {
		return false
	}

	labels := make([]string, 0, len(options.Options))

	for _, option := range options.Options {
		if option != "" {
			labels = append(labels, option)
		}
	}

	t.open[options.VoteIdx] = &Vote{
		Index:     options.VoteIdx,
		StartTick: tick,
		EndTick:   tick,
		Team:      VoteTeam{Scope: VoteScopeUnknown},
		Options:   labels,
		Outcome:   OutcomeOpen,
	}

	return true
}

func (t *voteTracker) cast(tick uint32, cast VoteCast, voter string) error {
	vote, found := t.open[cast.VoteIdx]
	if !found {
		return fmt.Errorf("%w: %d", ErrUnknownPoll, cast.VoteIdx)
	}

	if cast.Option < 0 || cast.Option >= len(vote.Options) {
		return fmt.Errorf("%w: poll %d option %d of %d", ErrInvalidOption, cast.VoteIdx, cast.Option, len(vote.Options))
	}

	vote.EndTick = tick
	vote.Team = vote.Team.widen(cast.Team)
	vote.Ballots = append(vote.Ballots, Ballot{Tick: tick, Voter: voter, Option: cast.Option})

	if tick == vote.StartTick {
		switch vote.Options[cast.Option] {
		case "Yes":
			vote.Initiator = voter
		case "No":
			vote.Issue = fmt.Sprintf("Kick player \"%s\"?", voter)
		}
	}

	return nil
}

func (t *voteTracker) close(tick uint32, idx uint32, outcome Outcome, details string) error {
	vote, found := t.open[idx]
	if !found {
		return fmt.Errorf("%w: %d", ErrUnknownPoll, idx)
	}

	if tick > vote.EndTick {
		vote.EndTick = tick
	}

	vote.Outcome = outcome
	vote.Details = details

	delete(t.open, idx)
	t.closed = append(t.closed, vote)

	return nil
}

// all returns closed polls in closing order followed by the still open ones by index.
func (t *voteTracker) all() []Vote {
	votes := make([]Vote, 0, len(t.closed)+len(t.open))
	for _, vote := range t.closed {
		votes = append(votes, vote.clone())
	}

	indexes := make([]uint32, 0, len(t.open))
	for idx := range t.open {
		indexes = append(indexes, idx)
	}

	slices.Sort(indexes)

	for _, idx := range indexes {
		votes = append(votes, t.open[idx].clone())
	}

	return votes
}

// spliceVotes inserts a VoteStarted event for each vote after the last event at or before its
// start tick.
func spliceVotes(events []MatchEvent, votes []Vote) []MatchEvent {
	for _, vote := range votes {
		pos := sort.Search(len(events), func(i int) bool {
			return events[i].Tick > vote.StartTick
		})

		events = slices.Insert(events, pos, MatchEvent{Tick: vote.StartTick, Value: VoteStarted{Vote: vote}})
	}

	return events
}
