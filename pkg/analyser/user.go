package analyser

import (
	"slices"

	"github.com/leighmacdonald/steamid/v4/steamid"
)

// StableUserID is the index of a UserRecord within a MatchState. It is assigned once, the first
// time an identity is seen, and never reused.
type StableUserID int

// NoUser marks an absent user reference, e.g. the killer of an environmental death.
const NoUser StableUserID = -1

func (id StableUserID) Valid() bool {
	return id >= 0
}

type ClassChange struct {
	Tick  uint32      `json:"tick"`
	Class PlayerClass `json:"class"`
}

type TeamChange struct {
	Tick uint32 `json:"tick"`
	Team Team   `json:"team"`
}

type ConnectionKind string

const (
	ConnectionJoin  ConnectionKind = "join"
	ConnectionLeave ConnectionKind = "leave"
)

type ConnectionChange struct {
	Tick   uint32         `json:"tick"`
	Kind   ConnectionKind `json:"kind"`
	Reason string         `json:"reason,omitempty"`
}

// UserRecord is everything known about a single participant.
type UserRecord struct {
	ID StableUserID `json:"id"`
	// Name is the last known display name, empty when never seen.
	Name string `json:"name"`
	// SteamID is the raw persistent identifier as networked, BotSteamID for bots.
	SteamID string `json:"steam_id"`
	// UserID is the current slot number.
	UserID      int                `json:"user_id"`
	EntityID    EntityID           `json:"entity_id"`
	Team        Team               `json:"team"`
	Class       PlayerClass        `json:"class"`
	Classes     []ClassChange      `json:"classes"`
	Teams       []TeamChange       `json:"teams"`
	Connections []ConnectionChange `json:"connections"`
}

// clone copies the history slices so callers cannot reach the snapshot's backing arrays.
func (u UserRecord) clone() UserRecord {
	u.Classes = slices.Clone(u.Classes)
	u.Teams = slices.Clone(u.Teams)
	u.Connections = slices.Clone(u.Connections)

	return u
}

func (u UserRecord) IsBot() bool {
	return u.SteamID == BotSteamID
}

// SID parses the persistent identifier. Bots and unknown ids return an invalid zero value.
func (u UserRecord) SID() steamid.SteamID {
	if u.SteamID == "" || u.IsBot() {
		return steamid.SteamID{}
	}

	return steamid.New(u.SteamID)
}

func (u UserRecord) classKnown() bool {
	return len(u.Classes) > 0
}

func (u UserRecord) teamKnown() bool {
	return len(u.Teams) > 0
}

// users is the arena backing every StableUserID handed out during a fold. The slot and entity
// indexes always point at the most recent holder of a slot or entity handle.
type users struct {
	records  []*UserRecord
	slots    map[int]StableUserID
	entities map[EntityID]StableUserID
}

func newUsers() *users {
	return &users{
		slots:    map[int]StableUserID{},
		entities: map[EntityID]StableUserID{},
	}
}

func (u *users) get(id StableUserID) *UserRecord {
	if id < 0 || int(id) >= len(u.records) {
		return nil
	}

	return u.records[id]
}

func (u *users) find(match func(*UserRecord) bool) StableUserID {
	for _, record := range u.records {
		if match(record) {
			return record.ID
		}
	}

	return NoUser
}

// resolve returns the first record accepted by match, or inserts the record built by create.
func (u *users) resolve(match func(*UserRecord) bool, create func() UserRecord) StableUserID {
	if id := u.find(match); id.Valid() {
		return id
	}

	return u.insert(create())
}

// insert appends a new record, making it the holder of its slot and entity.
func (u *users) insert(record UserRecord) StableUserID {
	record.ID = StableUserID(len(u.records))
	u.records = append(u.records, &record)

	u.slots[record.UserID] = record.ID
	if record.EntityID != 0 {
		u.entities[record.EntityID] = record.ID
	}

	return record.ID
}

func (u *users) setSlot(id StableUserID, slot int) {
	record := u.get(id)
	if record == nil {
		return
	}

	if holder, found := u.slots[record.UserID]; found && holder == id {
		delete(u.slots, record.UserID)
	}

	record.UserID = slot
	u.slots[slot] = id
}

func (u *users) setEntity(id StableUserID, entity EntityID) {
	record := u.get(id)
	if record == nil || entity == 0 {
		return
	}

	record.EntityID = entity
	u.entities[entity] = id
}

func (u *users) bySlot(slot int) StableUserID {
	if id, found := u.slots[slot]; found {
		return id
	}

	return NoUser
}

func (u *users) byEntity(entity EntityID) StableUserID {
	if entity == 0 {
		return NoUser
	}

	if id, found := u.entities[entity]; found {
		return id
	}

	return NoUser
}

func (u *users) byName(name string) StableUserID {
	if name == "" {
		return NoUser
	}

	return u.find(func(record *UserRecord) bool {
		return record.Name == name
	})
}

// slot resolves a user referenced only by slot number, creating a nameless record when the slot
// has never been seen.
func (u *users) slot(slot int) StableUserID {
	if id := u.bySlot(slot); id.Valid() {
		return id
	}

	return u.insert(UserRecord{UserID: slot})
}

// unclaimedSlot returns the current holder of slot when it has no persistent id yet. Such records
// are created by events that only carry a slot number.
func (u *users) unclaimedSlot(slot int) StableUserID {
	id := u.bySlot(slot)
	if !id.Valid() || u.get(id).SteamID != "" {
		return NoUser
	}

	return id
}

// identity resolves a user from a persistent id, display name and slot. Non-bot ids match by id
// then by name, attaching the id to a record found by name. Bots and absent ids only match by slot.
func (u *users) identity(steamID string, name string, slot int) StableUserID {
	if steamID == "" || steamID == BotSteamID {
		id := u.bySlot(slot)
		if id.Valid() {
			holder := u.get(id)
			if holder.SteamID == "" || holder.SteamID == steamID {
				holder.SteamID = steamID

				return id
			}
		}

		return u.insert(UserRecord{Name: name, SteamID: steamID, UserID: slot})
	}

	byID := func(record *UserRecord) bool { return record.SteamID == steamID }
	if id := u.find(byID); id.Valid() {
		return id
	}

	// A record already carrying a different id is a different person sharing the name.
	claim := NoUser
	if name != "" {
		claim = u.find(func(record *UserRecord) bool {
			return record.SteamID == "" && record.Name == name
		})
	}

	if !claim.Valid() {
		claim = u.unclaimedSlot(slot)
	}

	if claim.Valid() {
		record := u.get(claim)
		record.SteamID = steamID

		if record.Name == "" {
			record.Name = name
		}

		return claim
	}

	return u.resolve(byID, func() UserRecord {
		return UserRecord{Name: name, SteamID: steamID, UserID: slot}
	})
}
