package analyser

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownEventKind = errors.New("unknown event kind")

type EventKind string

const (
	EventKill        EventKind = "kill"
	EventRoundEnd    EventKind = "round_end"
	EventChat        EventKind = "chat"
	EventConnection  EventKind = "connection"
	EventVoteStarted EventKind = "vote_started"
	EventTeamSwitch  EventKind = "team_switch"
	EventClassSwitch EventKind = "class_switch"
)

// EventKinds lists every kind in declaration order.
func EventKinds() []EventKind {
	return []EventKind{
		EventKill, EventRoundEnd, EventChat, EventConnection, EventVoteStarted, EventTeamSwitch, EventClassSwitch,
	}
}

// ParseEventKind validates a user supplied kind name.
func ParseEventKind(name string) (EventKind, error) {
	for _, kind := range EventKinds() {
		if string(kind) == name {
			return kind, nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnknownEventKind, name)
}

// EventValue is the payload of a MatchEvent. The set of implementations is closed.
type EventValue interface {
	Kind() EventKind
	event()
}

// MatchEvent is a single time stamped fact about the match.
type MatchEvent struct {
	Tick  uint32
	Value EventValue
}

func (e MatchEvent) Kind() EventKind {
	return e.Value.Kind()
}

func (e MatchEvent) clone() MatchEvent {
	if started, ok := e.Value.(VoteStarted); ok {
		e.Value = VoteStarted{Vote: started.Vote.clone()}
	}

	return e
}

func (e MatchEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Tick uint32     `json:"tick"`
		Kind EventKind  `json:"kind"`
		Data EventValue `json:"data"`
	}{Tick: e.Tick, Kind: e.Value.Kind(), Data: e.Value})
}

// DeathFlags are the individual bits of the packed player_death death_flags field.
type DeathFlags struct {
	Domination         bool `json:"domination"`
	AssisterDomination bool `json:"assister_domination"`
	Revenge            bool `json:"revenge"`
	AssisterRevenge    bool `json:"assister_revenge"`
	FeignDeath         bool `json:"feign_death"`
}

func DecodeDeathFlags(flags uint16) DeathFlags {
	return DeathFlags{
		Domination:         flags&DeathFlagDomination != 0,
		AssisterDomination: flags&DeathFlagAssisterDomination != 0,
		Revenge:            flags&DeathFlagRevenge != 0,
		AssisterRevenge:    flags&DeathFlagAssisterRevenge != 0,
		FeignDeath:         flags&DeathFlagFeignDeath != 0,
	}
}

// Kill is a player death. Killer and Assister are NoUser when absent.
type Kill struct {
	DeathFlags

	Victim   StableUserID `json:"victim"`
	Killer   StableUserID `json:"killer"`
	Assister StableUserID `json:"assister"`
	Weapon   string       `json:"weapon"`
	Crit     CritType     `json:"crit"`
}

func (Kill) Kind() EventKind { return EventKill }
func (Kill) event() {}

type RoundEnd struct {
	Winner    Team    `json:"winner"`
	Length    float32 `json:"length"`
	WinReason uint8   `json:"win_reason"`
}

func (RoundEnd) Kind() EventKind { return EventRoundEnd }
func (RoundEnd) event() {}

// Chat is a player message or a server message printed to chat. Server messages have no speaker,
// User is NoUser and Team is TeamOther.
type Chat struct {
	Type    ChatKind     `json:"type"`
	Speaker string       `json:"speaker"`
	User    StableUserID `json:"user"`
	Team    Team         `json:"team"`
	Text    string       `json:"text"`
}

func (Chat) Kind() EventKind { return EventChat }
func (Chat) event() {}

// Connection is a join or leave. Key is the persistent id, or "BOT <slot>" for bots.
type Connection struct {
	Type   ConnectionKind `json:"type"`
	Name   string         `json:"name"`
	Key    string         `json:"key"`
	User   StableUserID   `json:"user"`
	Reason string         `json:"reason,omitempty"`
}

func (Connection) Kind() EventKind { return EventConnection }
func (Connection) event() {}

type VoteStarted struct {
	Vote Vote `json:"vote"`
}

func (VoteStarted) Kind() EventKind { return EventVoteStarted }
func (VoteStarted) event() {}

type TeamSwitch struct {
	User StableUserID `json:"user"`
	Team Team         `json:"team"`
}

func (TeamSwitch) Kind() EventKind { return EventTeamSwitch }
func (TeamSwitch) event() {}

type ClassSwitch struct {
	User  StableUserID `json:"user"`
	Class PlayerClass  `json:"class"`
}

func (ClassSwitch) Kind() EventKind { return EventClassSwitch }
func (ClassSwitch) event() {}
