// Package analyser rebuilds a match from the decoded records of a TF2 demo. It is a single pass fold:
// feed every record in demo order to Handle, then call Finalize once.
package analyser

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leighmacdonald/demoinspect/pkg/log"
)

var (
	ErrFinalized      = errors.New("analyser already finalized")
	ErrUnknownPayload = errors.New("unknown payload type")
)

type Option func(*Analyser)

// WithLogger sets the logger used for dropped records. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyser) {
		a.logger = logger
	}
}

// Analyser owns all mutable state while folding a record stream. It is not safe for concurrent use,
// run one Analyser per stream.
type Analyser struct {
	logger     *slog.Logger
	users      *users
	votes      *voteTracker
	events     []MatchEvent
	serverInfo *ServerInfo
	startTick  uint32
	started    bool
	endTick    uint32
	skipped    int
	final      *MatchState
}

func New(opts ...Option) *Analyser {
	analyser := &Analyser{
		logger: slog.Default(),
		users:  newUsers(),
		votes:  newVoteTracker(),
	}

	for _, opt := range opts {
		opt(analyser)
	}

	return analyser
}

// DoesHandle reports whether records of the kind are consumed. Anything else is ignored by Handle.
func (a *Analyser) DoesHandle(kind RecordKind) bool {
	switch kind {
	case KindNetTick, KindServerInfo, KindGameEvent, KindUserMessage, KindStringTable:
		return true
	default:
		return false
	}
}

// Handle folds a single record into the match.
func (a *Analyser) Handle(record Record) {
	if a.final != nil {
		a.logger.Debug("Ignoring record after finalize", log.ErrAttr(ErrFinalized), slog.Uint64("tick", uint64(record.Tick)))

		return
	}

	if record.Payload == nil || !a.DoesHandle(record.Payload.Kind()) {
		return
	}

	a.endTick = record.Tick

	switch payload := record.Payload.(type) {
	case NetTick:
		if !a.started {
			a.started = true
			a.startTick = payload.Tick
		}
	case ServerInfo:
		a.serverInfo = &payload
	case PlayerDeath:
		a.onDeath(record.Tick, payload)
	case RoundWin:
		a.onRoundWin(record.Tick, payload)
	case PlayerSpawn:
		a.onSpawn(record.Tick, payload)
	case PlayerChangeClass:
		a.onChangeClass(record.Tick, payload)
	case PlayerConnect:
		a.onConnection(record.Tick, ConnectionJoin, payload.UserID, payload.Name, payload.NetworkID, "", payload.Bot)
	case PlayerDisconnect:
		a.onConnection(record.Tick, ConnectionLeave, payload.UserID, payload.Name, payload.NetworkID, payload.Reason, payload.Bot)
	case VoteOptions:
		if !a.votes.announce(record.Tick, payload) {
			a.logger.Debug("Poll already open, ignoring options", slog.Uint64("vote_idx", uint64(payload.VoteIdx)))
		}
	case VoteCast:
		a.onVoteCast(record.Tick, payload)
	case VotePassed:
		details := strings.TrimSpace(ResolveText(payload.Details, payload.Param))
		a.onVoteClosed(record.Tick, payload.VoteIdx, OutcomePassed, details)
	case VoteFailed:
		a.onVoteClosed(record.Tick, payload.VoteIdx, OutcomeFailed, "")
	case SayText2:
		a.onSayText(record.Tick, payload)
	case TextMsg:
		if payload.Location == HudPrintTalk {
			a.emit(record.Tick, Chat{
				Type: ChatEmpty,
				User: NoUser,
				Text: ResolveText(payload.Text, payload.Substitutes...),
			})
		}
	case StringTableEntry:
		a.onStringTable(record.Tick, payload)
	case OtherGameEvent, OtherUserMessage:
	default:
		a.skip(record.Tick, fmt.Errorf("%w: %T", ErrUnknownPayload, payload))
	}
}

func (a *Analyser) emit(tick uint32, value EventValue) {
	a.events = append(a.events, MatchEvent{Tick: tick, Value: value})
}

func (a *Analyser) skip(tick uint32, err error) {
	a.skipped++
	a.logger.Warn("Dropped malformed record", log.ErrAttr(err), slog.Uint64("tick", uint64(tick)))
}

func (a *Analyser) onDeath(tick uint32, death PlayerDeath) {
	kill := Kill{
		DeathFlags: DecodeDeathFlags(death.DeathFlags),
		Victim:     a.users.slot(death.UserID),
		Killer:     NoUser,
		Assister:   NoUser,
		Weapon:     death.Weapon,
		Crit:       CritType(death.CritType),
	}

	if death.Attacker != WorldAttacker {
		kill.Killer = a.users.slot(death.Attacker)
	}

	if death.Assister > 0 && death.Assister < NoAssister {
		kill.Assister = a.users.slot(death.Assister)
	}

	a.emit(tick, kill)
}

func (a *Analyser) onRoundWin(tick uint32, win RoundWin) {
	if win.WinReason == WinReasonTimeLimit {
		return
	}

	a.emit(tick, RoundEnd{Winner: win.Team, Length: win.RoundTime, WinReason: win.WinReason})
}

// onSpawn records class and team transitions only when they differ from the last known values.
func (a *Analyser) onSpawn(tick uint32, spawn PlayerSpawn) {
	userID := a.users.slot(spawn.UserID)
	user := a.users.get(userID)

	if !user.classKnown() || user.Class != spawn.Class {
		user.Class = spawn.Class
		user.Classes = append(user.Classes, ClassChange{Tick: tick, Class: spawn.Class})
		a.emit(tick, ClassSwitch{User: userID, Class: spawn.Class})
	}

	if !user.teamKnown() || user.Team != spawn.Team {
		user.Team = spawn.Team
		user.Teams = append(user.Teams, TeamChange{Tick: tick, Team: spawn.Team})
		a.emit(tick, TeamSwitch{User: userID, Team: spawn.Team})
	}
}

// onChangeClass always appends to the class history and never emits an event.
func (a *Analyser) onChangeClass(tick uint32, change PlayerChangeClass) {
	user := a.users.get(a.users.slot(change.UserID))
	user.Class = change.Class
	user.Classes = append(user.Classes, ClassChange{Tick: tick, Class: change.Class})
}

func (a *Analyser) onConnection(tick uint32, kind ConnectionKind, slot int, name string, networkID string, reason string, bot bool) {
	var (
		key    = networkID
		userID StableUserID
	)

	if bot || networkID == BotSteamID {
		key = fmt.Sprintf("%s %d", BotSteamID, slot)
		userID = a.users.identity(BotSteamID, name, slot)
	} else {
		userID = a.users.identity(networkID, name, slot)
	}

	user := a.users.get(userID)
	if user.UserID != slot {
		a.users.setSlot(userID, slot)
	}

	if user.Name == "" {
		user.Name = name
	}

	user.Connections = append(user.Connections, ConnectionChange{Tick: tick, Kind: kind, Reason: reason})

	a.emit(tick, Connection{Type: kind, Name: name, Key: key, User: userID, Reason: reason})
}

func (a *Analyser) voterName(entity EntityID) string {
	if user := a.users.get(a.users.byEntity(entity)); user != nil && user.Name != "" {
		return user.Name
	}

	return "unknown"
}

func (a *Analyser) onVoteCast(tick uint32, cast VoteCast) {
	if err := a.votes.cast(tick, cast, a.voterName(cast.EntityID)); err != nil {
		if errors.Is(err, ErrInvalidOption) {
			a.skip(tick, err)

			return
		}

		a.logger.Debug("Dropped ballot", log.ErrAttr(err), slog.Uint64("tick", uint64(tick)))
	}
}

func (a *Analyser) onVoteClosed(tick uint32, idx uint32, outcome Outcome, details string) {
	if err := a.votes.close(tick, idx, outcome, details); err != nil {
		a.logger.Debug("Dropped poll result", log.ErrAttr(err), slog.Uint64("tick", uint64(tick)))
	}
}

func (a *Analyser) onSayText(tick uint32, msg SayText2) {
	if msg.Type == ChatName {
		if user := a.users.get(a.users.byName(msg.From)); user != nil {
			user.Name = msg.Text
		}

		return
	}

	chat := Chat{
		Type:    msg.Type,
		Speaker: msg.From,
		User:    a.users.byEntity(msg.Client),
		Text:    ResolveText(msg.Text, msg.Params...),
	}

	if user := a.users.get(chat.User); user != nil {
		chat.Team = user.Team
		if chat.Speaker == "" {
			chat.Speaker = user.Name
		}
	}

	a.emit(tick, chat)
}

// onStringTable applies player directory upserts. Slot drift for a known persistent id moves
// the existing record to the new slot and entity.
func (a *Analyser) onStringTable(tick uint32, entry StringTableEntry) {
	if entry.Table != UserInfoTable || len(entry.Extra) == 0 {
		return
	}

	info, errInfo := ParsePlayerInfo(entry.Extra)
	if errInfo != nil {
		a.skip(tick, errInfo)

		return
	}

	steamID := info.SteamID
	if info.IsBot() {
		steamID = BotSteamID
	}

	userID := a.users.identity(steamID, info.Name, info.UserID)
	user := a.users.get(userID)

	if user.UserID != info.UserID {
		a.users.setSlot(userID, info.UserID)
	}

	a.users.setEntity(userID, EntityForIndex(entry.Index))

	if info.Name != "" {
		user.Name = info.Name
	}
}

// Finalize splices the collected polls into the event log and returns the finished match. Later
// calls return the same snapshot.
func (a *Analyser) Finalize() *MatchState {
	if a.final != nil {
		return a.final
	}

	records := make([]UserRecord, len(a.users.records))
	for idx, user := range a.users.records {
		records[idx] = user.clone()
	}

	votes := a.votes.all()
	events := spliceVotes(append([]MatchEvent(nil), a.events...), votes)

	a.final = &MatchState{
		users:     records,
		events:    events,
		votes:     votes,
		startTick: a.startTick,
		endTick:   a.endTick,
		skipped:   a.skipped,
	}

	if a.serverInfo != nil {
		a.final.serverInfo = *a.serverInfo
		a.final.hasServerInfo = true
	}

	return a.final
}
