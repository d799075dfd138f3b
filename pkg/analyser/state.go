package analyser

import (
	"encoding/json"
	"slices"
)

// MatchState is the finished, read only result of a fold. It is safe to share between goroutines.
type MatchState struct {
	users         []UserRecord
	events        []MatchEvent
	votes         []Vote
	serverInfo    ServerInfo
	hasServerInfo bool
	startTick     uint32
	endTick       uint32
	skipped       int
}

func (m *MatchState) Users() []UserRecord {
	users := make([]UserRecord, len(m.users))
	for idx, user := range m.users {
		users[idx] = user.clone()
	}

	return users
}

func (m *MatchState) User(id StableUserID) (UserRecord, bool) {
	if id < 0 || int(id) >= len(m.users) {
		return UserRecord{}, false
	}

	return m.users[id].clone(), true
}

// UserName returns the display name for id, or fallback when the user is absent or unnamed.
func (m *MatchState) UserName(id StableUserID, fallback string) string {
	user, found := m.User(id)
	if !found || user.Name == "" {
		return fallback
	}

	return user.Name
}

// Events returns the full log in tick order.
func (m *MatchState) Events() []MatchEvent {
	events := make([]MatchEvent, len(m.events))
	for idx, event := range m.events {
		events[idx] = event.clone()
	}

	return events
}

// EventsOf returns the events matching any of kinds, all events when kinds is empty.
func (m *MatchState) EventsOf(kinds ...EventKind) []MatchEvent {
	if len(kinds) == 0 {
		return m.Events()
	}

	var filtered []MatchEvent

	for _, event := range m.events {
		if slices.Contains(kinds, event.Kind()) {
			filtered = append(filtered, event.clone())
		}
	}

	return filtered
}

// Votes returns closed polls in closing order, followed by polls still open at the end of the demo.
func (m *MatchState) Votes() []Vote {
	votes := make([]Vote, len(m.votes))
	for idx, vote := range m.votes {
		votes[idx] = vote.clone()
	}

	return votes
}

// ServerInfo returns the last server info snapshot and whether one was seen.
func (m *MatchState) ServerInfo() (ServerInfo, bool) {
	return m.serverInfo, m.hasServerInfo
}

func (m *MatchState) StartTick() uint32 {
	return m.startTick
}

// EndTick is the tick of the last consumed record.
func (m *MatchState) EndTick() uint32 {
	return m.endTick
}

// Skipped is the number of records dropped because they broke the decoder contract.
func (m *MatchState) Skipped() int {
	return m.skipped
}

func (m *MatchState) UserCount() int {
	return len(m.users)
}

func (m *MatchState) EventCount() int {
	return len(m.events)
}

func (m *MatchState) MarshalJSON() ([]byte, error) {
	var info *ServerInfo
	if m.hasServerInfo {
		info = &m.serverInfo
	}

	return json.Marshal(struct {
		ServerInfo *ServerInfo  `json:"server_info"`
		StartTick  uint32       `json:"start_tick"`
		EndTick    uint32       `json:"end_tick"`
		Skipped    int          `json:"skipped"`
		Users      []UserRecord `json:"users"`
		Events     []MatchEvent `json:"events"`
	}{
		ServerInfo: info,
		StartTick:  m.startTick,
		EndTick:    m.endTick,
		Skipped:    m.skipped,
		Users:      m.users,
		Events:     m.events,
	})
}
