package analyser

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrInvalidPlayerInfo = errors.New("invalid player info payload")

// RecordKind is the category of a decoded record. The analyser consumes an explicit allow-list
// of these, see Analyser.DoesHandle.
type RecordKind string

const (
	KindNetTick        RecordKind = "net_tick"
	KindServerInfo     RecordKind = "server_info"
	KindGameEvent      RecordKind = "game_event"
	KindUserMessage    RecordKind = "user_message"
	KindStringTable    RecordKind = "string_table"
	KindPacketEntities RecordKind = "packet_entities"
	KindTempEntities   RecordKind = "temp_entities"
	KindConsoleCmd     RecordKind = "console_cmd"
	KindSounds         RecordKind = "sounds"
	KindVoiceData      RecordKind = "voice_data"
)

// EntityID is the transient entity handle assigned to a player. Zero means no entity.
type EntityID uint32

// Record is a single decoded record in demo order.
type Record struct {
	Tick    uint32
	Payload Payload
}

// Payload is implemented by every record body the decoder can produce.
type Payload interface {
	Kind() RecordKind
}

type NetTick struct {
	Tick uint32
}

func (NetTick) Kind() RecordKind { return KindNetTick }

type ServerInfo struct {
	Name            string  `json:"name"`
	Map             string  `json:"map"`
	Game            string  `json:"game"`
	MaxPlayers      int     `json:"max_players"`
	IntervalPerTick float32 `json:"interval_per_tick"`
	Platform        string  `json:"platform"`
	IsSTV           bool    `json:"is_stv"`
}

func (ServerInfo) Kind() RecordKind { return KindServerInfo }

// TickRate returns the server tick rate, or 0 when unknown.
func (s ServerInfo) TickRate() float32 {
	if s.IntervalPerTick <= 0 {
		return 0
	}

	return 1 / s.IntervalPerTick
}

// PlatformName expands the single letter platform code.
func (s ServerInfo) PlatformName() string {
	switch s.Platform {
	case "l":
		return "Linux"
	case "w":
		return "Windows"
	default:
		return fmt.Sprintf("Unknown (%q)", s.Platform)
	}
}

// Game events.

type PlayerDeath struct {
	UserID     int
	Attacker   int
	Assister   int
	Weapon     string
	DeathFlags uint16
	CritType   int
}

func (PlayerDeath) Kind() RecordKind { return KindGameEvent }

type RoundWin struct {
	Team      Team
	WinReason uint8
	RoundTime float32
}

func (RoundWin) Kind() RecordKind { return KindGameEvent }

type PlayerSpawn struct {
	UserID int
	Team   Team
	Class  PlayerClass
}

func (PlayerSpawn) Kind() RecordKind { return KindGameEvent }

type PlayerChangeClass struct {
	UserID int
	Class  PlayerClass
}

func (PlayerChangeClass) Kind() RecordKind { return KindGameEvent }

type PlayerConnect struct {
	UserID    int
	Name      string
	NetworkID string
	Bot       bool
}

func (PlayerConnect) Kind() RecordKind { return KindGameEvent }

type PlayerDisconnect struct {
	UserID    int
	Name      string
	NetworkID string
	Reason    string
	Bot       bool
}

func (PlayerDisconnect) Kind() RecordKind { return KindGameEvent }

type VoteOptions struct {
	VoteIdx uint32
	Options []string
}

func (VoteOptions) Kind() RecordKind { return KindGameEvent }

type VoteCast struct {
	VoteIdx  uint32
	EntityID EntityID
	Team     Team
	Option   int
}

func (VoteCast) Kind() RecordKind { return KindGameEvent }

type VotePassed struct {
	VoteIdx uint32
	Team    Team
	Details string
	Param   string
}

func (VotePassed) Kind() RecordKind { return KindGameEvent }

type VoteFailed struct {
	VoteIdx uint32
	Team    Team
}

func (VoteFailed) Kind() RecordKind { return KindGameEvent }

// OtherGameEvent is any game event the analyser does not synthesize anything from.
type OtherGameEvent struct {
	Name string
}

func (OtherGameEvent) Kind() RecordKind { return KindGameEvent }

// User messages.

type SayText2 struct {
	Client EntityID
	Raw    bool
	Type   ChatKind
	From   string
	Text   string
	Params []string
}

func (SayText2) Kind() RecordKind { return KindUserMessage }

type TextMsg struct {
	Location    HudTextLocation
	Text        string
	Substitutes []string
}

func (TextMsg) Kind() RecordKind { return KindUserMessage }

type OtherUserMessage struct {
	Type string
}

func (OtherUserMessage) Kind() RecordKind { return KindUserMessage }

// StringTableEntry is an upsert into one of the networked string tables. Only the userinfo table
// (the player directory) is consumed.
type StringTableEntry struct {
	Table string
	Index int
	Text  string
	Extra []byte
}

func (StringTableEntry) Kind() RecordKind { return KindStringTable }

// Unhandled stands in for any record category the decoder emits but the analyser does not read.
type Unhandled struct {
	Category RecordKind
}

func (u Unhandled) Kind() RecordKind { return u.Category }

// PlayerInfo is the player directory entry carried in the userinfo string table extra data.
type PlayerInfo struct {
	Name         string
	UserID       int
	SteamID      string
	FriendsID    uint32
	FriendsName  string
	IsFakePlayer bool
	IsHLTV       bool
}

const (
	playerNameLen    = 32
	playerGUIDLen    = 33
	playerInfoPad    = 3
	playerInfoLength = playerNameLen + 4 + playerGUIDLen + playerInfoPad + 4 + playerNameLen + 2
)

// IsBot reports whether the entry belongs to a bot, which all share the same persistent identifier.
func (p PlayerInfo) IsBot() bool {
	return p.SteamID == BotSteamID || p.SteamID == ""
}

// EntityForIndex returns the entity handle of the player occupying the userinfo table slot.
func EntityForIndex(index int) EntityID {
	return EntityID(index + 1) //nolint:gosec
}

// ParsePlayerInfo decodes the fixed size big-endian player_info layout.
func ParsePlayerInfo(data []byte) (PlayerInfo, error) {
	if len(data) < playerInfoLength {
		return PlayerInfo{}, fmt.Errorf("%w: need %d bytes, got %d", ErrInvalidPlayerInfo, playerInfoLength, len(data))
	}

	var (
		info   PlayerInfo
		offset int
	)

	info.Name = cString(data[offset : offset+playerNameLen])
	offset += playerNameLen
	info.UserID = int(binary.BigEndian.Uint32(data[offset : offset+4]))
	offset += 4
	info.SteamID = cString(data[offset : offset+playerGUIDLen])
	offset += playerGUIDLen + playerInfoPad
	info.FriendsID = binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4
	info.FriendsName = cString(data[offset : offset+playerNameLen])
	offset += playerNameLen
	info.IsFakePlayer = data[offset] != 0
	info.IsHLTV = data[offset+1] != 0

	return info, nil
}

// MarshalBinary encodes the entry in the same layout ParsePlayerInfo reads.
func (p PlayerInfo) MarshalBinary() ([]byte, error) {
	if len(p.Name) >= playerNameLen || len(p.FriendsName) >= playerNameLen || len(p.SteamID) >= playerGUIDLen {
		return nil, fmt.Errorf("%w: field too long", ErrInvalidPlayerInfo)
	}

	out := make([]byte, playerInfoLength)
	offset := 0

	copy(out[offset:], p.Name)
	offset += playerNameLen
	binary.BigEndian.PutUint32(out[offset:], uint32(p.UserID)) //nolint:gosec
	offset += 4
	copy(out[offset:], p.SteamID)
	offset += playerGUIDLen + playerInfoPad
	binary.BigEndian.PutUint32(out[offset:], p.FriendsID)
	offset += 4
	copy(out[offset:], p.FriendsName)
	offset += playerNameLen

	if p.IsFakePlayer {
		out[offset] = 1
	}

	if p.IsHLTV {
		out[offset+1] = 1
	}

	return out, nil
}

func cString(b []byte) string {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return string(b[:idx])
	}

	return string(b)
}
