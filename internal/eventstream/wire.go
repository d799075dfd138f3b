package eventstream

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leighmacdonald/demoinspect/pkg/analyser"
)

var (
	ErrDecodeRecord = errors.New("failed to decode record")
	ErrEncodeRecord = errors.New("failed to encode record")
)

// Record type names as written in the "type" field of a stream line. Game events use the engine's
// event names.
const (
	TypeNetTick          = "net_tick"
	TypeServerInfo       = "server_info"
	TypePlayerDeath      = "player_death"
	TypeRoundWin         = "teamplay_round_win"
	TypePlayerSpawn      = "player_spawn"
	TypeChangeClass      = "player_changeclass"
	TypePlayerConnect    = "player_connect_client"
	TypePlayerDisconnect = "player_disconnect"
	TypeVoteOptions      = "vote_options"
	TypeVoteCast         = "vote_cast"
	TypeVotePassed       = "vote_passed"
	TypeVoteFailed       = "vote_failed"
	TypeGameEvent        = "game_event"
	TypeSayText2         = "say_text2"
	TypeTextMsg          = "text_msg"
	TypeUserMessage      = "user_message"
	TypeStringTable      = "string_table"
)

type line struct {
	Tick uint32          `json:"tick"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type netTick struct {
	Tick uint32 `json:"tick"`
}

type playerDeath struct {
	UserID     int    `json:"userid"`
	Attacker   int    `json:"attacker"`
	Assister   int    `json:"assister"`
	Weapon     string `json:"weapon"`
	DeathFlags uint16 `json:"death_flags"`
	CritType   int    `json:"crit_type"`
}

type roundWin struct {
	Team      int     `json:"team"`
	WinReason uint8   `json:"winreason"`
	RoundTime float32 `json:"round_time"`
}

type playerSpawn struct {
	UserID int `json:"userid"`
	Team   int `json:"team"`
	Class  int `json:"class"`
}

type changeClass struct {
	UserID int `json:"userid"`
	Class  int `json:"class"`
}

type playerConnect struct {
	Name      string `json:"name"`
	UserID    int    `json:"userid"`
	NetworkID string `json:"networkid"`
	Bot       bool   `json:"bot"`
}

type playerDisconnect struct {
	UserID    int    `json:"userid"`
	Reason    string `json:"reason"`
	Name      string `json:"name"`
	NetworkID string `json:"networkid"`
	Bot       bool   `json:"bot"`
}

type voteOptions struct {
	VoteIdx uint32 `json:"voteidx"`
	Count   int    `json:"count"`
	Option1 string `json:"option1"`
	Option2 string `json:"option2"`
	Option3 string `json:"option3"`
	Option4 string `json:"option4"`
	Option5 string `json:"option5"`
}

type voteCast struct {
	VoteOption int    `json:"vote_option"`
	Team       int    `json:"team"`
	EntityID   uint32 `json:"entityid"`
	VoteIdx    uint32 `json:"voteidx"`
}

type votePassed struct {
	Details string `json:"details"`
	Param1  string `json:"param1"`
	Team    int    `json:"team"`
	VoteIdx uint32 `json:"voteidx"`
}

type voteFailed struct {
	Team    int    `json:"team"`
	VoteIdx uint32 `json:"voteidx"`
}

type gameEvent struct {
	Name string `json:"name"`
}

type sayText2 struct {
	Client uint32   `json:"client"`
	Raw    bool     `json:"raw"`
	Kind   string   `json:"kind"`
	From   string   `json:"from,omitempty"`
	Text   string   `json:"text"`
	Params []string `json:"params,omitempty"`
}

type textMsg struct {
	Location   int      `json:"location"`
	Text       string   `json:"text"`
	Substitute []string `json:"substitute,omitempty"`
}

type userMessage struct {
	Type string `json:"type"`
}

type stringTable struct {
	Table string `json:"table"`
	Index int    `json:"index"`
	Text  string `json:"text,omitempty"`
	// Extra is base64 encoded by encoding/json.
	Extra []byte `json:"extra,omitempty"`
}

func decodeData[T any](data json.RawMessage) (T, error) {
	var value T
	if len(data) == 0 {
		return value, nil
	}

	if err := json.Unmarshal(data, &value); err != nil {
		return value, errors.Join(err, ErrDecodeRecord)
	}

	return value, nil
}

// toPayload converts a wire line into an analyser payload. Unknown types become analyser.Unhandled.
func toPayload(rec line) (analyser.Payload, error) { //nolint:cyclop,funlen,ireturn
	switch rec.Type {
	case TypeNetTick:
		value, err := decodeData[netTick](rec.Data)
		if value.Tick == 0 {
			value.Tick = rec.Tick
		}

		return analyser.NetTick{Tick: value.Tick}, err
	case TypeServerInfo:
		return decodeData[analyser.ServerInfo](rec.Data)
	case TypePlayerDeath:
		value, err := decodeData[playerDeath](rec.Data)

		return analyser.PlayerDeath(value), err
	case TypeRoundWin:
		value, err := decodeData[roundWin](rec.Data)

		return analyser.RoundWin{
			Team:      analyser.Team(value.Team),
			WinReason: value.WinReason,
			RoundTime: value.RoundTime,
		}, err
	case TypePlayerSpawn:
		value, err := decodeData[playerSpawn](rec.Data)

		return analyser.PlayerSpawn{
			UserID: value.UserID,
			Team:   analyser.Team(value.Team),
			Class:  analyser.PlayerClass(value.Class),
		}, err
	case TypeChangeClass:
		value, err := decodeData[changeClass](rec.Data)

		return analyser.PlayerChangeClass{UserID: value.UserID, Class: analyser.PlayerClass(value.Class)}, err
	case TypePlayerConnect:
		value, err := decodeData[playerConnect](rec.Data)

		return analyser.PlayerConnect{
			UserID:    value.UserID,
			Name:      value.Name,
			NetworkID: value.NetworkID,
			Bot:       value.Bot,
		}, err
	case TypePlayerDisconnect:
		value, err := decodeData[playerDisconnect](rec.Data)

		return analyser.PlayerDisconnect{
			UserID:    value.UserID,
			Name:      value.Name,
			NetworkID: value.NetworkID,
			Reason:    value.Reason,
			Bot:       value.Bot,
		}, err
	case TypeVoteOptions:
		value, err := decodeData[voteOptions](rec.Data)

		return analyser.VoteOptions{
			VoteIdx: value.VoteIdx,
			Options: []string{value.Option1, value.Option2, value.Option3, value.Option4, value.Option5},
		}, err
	case TypeVoteCast:
		value, err := decodeData[voteCast](rec.Data)

		return analyser.VoteCast{
			VoteIdx:  value.VoteIdx,
			EntityID: analyser.EntityID(value.EntityID),
			Team:     analyser.Team(value.Team),
			Option:   value.VoteOption,
		}, err
	case TypeVotePassed:
		value, err := decodeData[votePassed](rec.Data)

		return analyser.VotePassed{
			VoteIdx: value.VoteIdx,
			Team:    analyser.Team(value.Team),
			Details: value.Details,
			Param:   value.Param1,
		}, err
	case TypeVoteFailed:
		value, err := decodeData[voteFailed](rec.Data)

		return analyser.VoteFailed{VoteIdx: value.VoteIdx, Team: analyser.Team(value.Team)}, err
	case TypeGameEvent:
		value, err := decodeData[gameEvent](rec.Data)

		return analyser.OtherGameEvent{Name: value.Name}, err
	case TypeSayText2:
		value, err := decodeData[sayText2](rec.Data)

		return analyser.SayText2{
			Client: analyser.EntityID(value.Client),
			Raw:    value.Raw,
			Type:   analyser.ChatKind(value.Kind),
			From:   value.From,
			Text:   value.Text,
			Params: value.Params,
		}, err
	case TypeTextMsg:
		value, err := decodeData[textMsg](rec.Data)

		return analyser.TextMsg{
			Location:    analyser.HudTextLocation(value.Location),
			Text:        value.Text,
			Substitutes: value.Substitute,
		}, err
	case TypeUserMessage:
		value, err := decodeData[userMessage](rec.Data)

		return analyser.OtherUserMessage{Type: value.Type}, err
	case TypeStringTable:
		value, err := decodeData[stringTable](rec.Data)

		return analyser.StringTableEntry{Table: value.Table, Index: value.Index, Text: value.Text, Extra: value.Extra}, err
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrDecodeRecord)
	default:
		return analyser.Unhandled{Category: analyser.RecordKind(rec.Type)}, nil
	}
}

// fromPayload is the inverse of toPayload.
func fromPayload(payload analyser.Payload) (string, any, error) { //nolint:cyclop,funlen
	switch value := payload.(type) {
	case analyser.NetTick:
		return TypeNetTick, netTick(value), nil
	case analyser.ServerInfo:
		return TypeServerInfo, value, nil
	case analyser.PlayerDeath:
		return TypePlayerDeath, playerDeath(value), nil
	case analyser.RoundWin:
		return TypeRoundWin, roundWin{Team: int(value.Team), WinReason: value.WinReason, RoundTime: value.RoundTime}, nil
	case analyser.PlayerSpawn:
		return TypePlayerSpawn, playerSpawn{UserID: value.UserID, Team: int(value.Team), Class: int(value.Class)}, nil
	case analyser.PlayerChangeClass:
		return TypeChangeClass, changeClass{UserID: value.UserID, Class: int(value.Class)}, nil
	case analyser.PlayerConnect:
		return TypePlayerConnect, playerConnect{
			Name: value.Name, UserID: value.UserID, NetworkID: value.NetworkID, Bot: value.Bot,
		}, nil
	case analyser.PlayerDisconnect:
		return TypePlayerDisconnect, playerDisconnect{
			UserID: value.UserID, Reason: value.Reason, Name: value.Name, NetworkID: value.NetworkID, Bot: value.Bot,
		}, nil
	case analyser.VoteOptions:
		options := make([]string, 5)
		copy(options, value.Options)

		return TypeVoteOptions, voteOptions{
			VoteIdx: value.VoteIdx,
			Count:   len(value.Options),
			Option1: options[0],
			Option2: options[1],
			Option3: options[2],
			Option4: options[3],
			Option5: options[4],
		}, nil
	case analyser.VoteCast:
		return TypeVoteCast, voteCast{
			VoteOption: value.Option, Team: int(value.Team), EntityID: uint32(value.EntityID), VoteIdx: value.VoteIdx,
		}, nil
	case analyser.VotePassed:
		return TypeVotePassed, votePassed{
			Details: value.Details, Param1: value.Param, Team: int(value.Team), VoteIdx: value.VoteIdx,
		}, nil
	case analyser.VoteFailed:
		return TypeVoteFailed, voteFailed{Team: int(value.Team), VoteIdx: value.VoteIdx}, nil
	case analyser.OtherGameEvent:
		return TypeGameEvent, gameEvent(value), nil
	case analyser.SayText2:
		return TypeSayText2, sayText2{
			Client: uint32(value.Client), Raw: value.Raw, Kind: string(value.Type),
			From: value.From, Text: value.Text, Params: value.Params,
		}, nil
	case analyser.TextMsg:
		return TypeTextMsg, textMsg{Location: int(value.Location), Text: value.Text, Substitute: value.Substitutes}, nil
	case analyser.OtherUserMessage:
		return TypeUserMessage, userMessage(value), nil
	case analyser.StringTableEntry:
		return TypeStringTable, stringTable(value), nil
	case analyser.Unhandled:
		return string(value.Category), nil, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported payload %T", ErrEncodeRecord, payload)
	}
}
