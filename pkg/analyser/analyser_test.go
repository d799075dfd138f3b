package analyser_test

import (
	"testing"

	"github.com/leighmacdonald/demoinspect/pkg/analyser"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, records ...analyser.Record) *analyser.MatchState {
	t.Helper()

	fold := analyser.New()
	for _, record := range records {
		fold.Handle(record)
	}

	return fold.Finalize()
}

func rec(tick uint32, payload analyser.Payload) analyser.Record {
	return analyser.Record{Tick: tick, Payload: payload}
}

func directory(t *testing.T, tick uint32, index int, info analyser.PlayerInfo) analyser.Record {
	t.Helper()

	extra, errExtra := info.MarshalBinary()
	require.NoError(t, errExtra)

	return rec(tick, analyser.StringTableEntry{Table: analyser.UserInfoTable, Index: index, Text: info.Name, Extra: extra})
}

func kinds(state *analyser.MatchState, kind analyser.EventKind) int {
	return len(state.EventsOf(kind))
}

func TestEndToEnd(t *testing.T) {
	state := run(t,
		rec(0, analyser.ServerInfo{Name: "Test Server", Map: "pl_upward"}),
		rec(0, analyser.PlayerConnect{UserID: 1, NetworkID: "[U:1:100]", Name: "Alice"}),
		rec(50, analyser.PlayerSpawn{UserID: 1, Team: analyser.TeamRed, Class: analyser.Soldier}),
		rec(120, analyser.PlayerDeath{UserID: 1, Attacker: 0, Assister: analyser.NoAssister, Weapon: "world"}),
	)

	info, found := state.ServerInfo()
	require.True(t, found)
	require.Equal(t, "Test Server", info.Name)

	users := state.Users()
	require.Len(t, users, 1)
	require.Equal(t, "Alice", users[0].Name)
	require.Equal(t, analyser.TeamRed, users[0].Team)
	require.Equal(t, []analyser.ClassChange{{Tick: 50, Class: analyser.Soldier}}, users[0].Classes)

	sid := users[0].SID()
	require.Equal(t, int64(76561197960265828), sid.Int64())

	kills := state.EventsOf(analyser.EventKill)
	require.Len(t, kills, 1)
	require.Equal(t, uint32(120), kills[0].Tick)

	kill, ok := kills[0].Value.(analyser.Kill)
	require.True(t, ok)
	require.Equal(t, analyser.NoUser, kill.Killer)
	require.Equal(t, analyser.NoUser, kill.Assister)
	require.Equal(t, users[0].ID, kill.Victim)
	require.Equal(t, uint32(120), state.EndTick())
}

func TestIdentityStability(t *testing.T) {
	state := run(t,
		rec(10, analyser.PlayerConnect{UserID: 2, NetworkID: "[U:1:200]", Name: "Bob"}),
		rec(200, analyser.PlayerDisconnect{UserID: 2, NetworkID: "[U:1:200]", Name: "Bob", Reason: "Disconnect by user."}),
		rec(300, analyser.PlayerConnect{UserID: 5, NetworkID: "[U:1:200]", Name: "Bob"}),
		rec(310, analyser.PlayerSpawn{UserID: 5, Team: analyser.TeamBlue, Class: analyser.Spy}),
		rec(400, analyser.PlayerDeath{UserID: 5, Attacker: 0}),
	)

	require.Equal(t, 1, state.UserCount())

	events := state.EventsOf(analyser.EventConnection)
	require.Len(t, events, 3)

	for _, event := range events {
		conn, ok := event.Value.(analyser.Connection)
		require.True(t, ok)
		require.Equal(t, analyser.StableUserID(0), conn.User)
		require.Equal(t, "[U:1:200]", conn.Key)
	}

	user, found := state.User(0)
	require.True(t, found)
	require.Len(t, user.Connections, 3)
	require.Equal(t, analyser.ConnectionLeave, user.Connections[1].Kind)
	require.Equal(t, "Disconnect by user.", user.Connections[1].Reason)
	require.Equal(t, 5, user.UserID)
	require.Equal(t, []analyser.TeamChange{{Tick: 310, Team: analyser.TeamBlue}}, user.Teams)
	require.Equal(t, analyser.Spy, user.Class)

	kills := state.EventsOf(analyser.EventKill)
	require.Len(t, kills, 1)

	kill, ok := kills[0].Value.(analyser.Kill)
	require.True(t, ok)
	require.Equal(t, user.ID, kill.Victim)
}

func TestVacatedSlot(t *testing.T) {
	state := run(t,
		rec(10, analyser.PlayerConnect{UserID: 2, NetworkID: "[U:1:200]", Name: "Bob"}),
		rec(300, analyser.PlayerConnect{UserID: 5, NetworkID: "[U:1:200]", Name: "Bob"}),
		rec(310, analyser.PlayerSpawn{UserID: 2, Team: analyser.TeamRed, Class: analyser.Scout}),
	)

	require.Equal(t, 2, state.UserCount())

	bob, _ := state.User(0)
	require.Equal(t, 5, bob.UserID)
	require.Empty(t, bob.Classes)

	stranger, _ := state.User(1)
	require.Equal(t, 2, stranger.UserID)
	require.Empty(t, stranger.SteamID)
	require.Equal(t, analyser.Scout, stranger.Class)
}

func TestIdentityNameThenID(t *testing.T) {
	state := run(t,
		rec(5, analyser.PlayerConnect{UserID: 3, Name: "Carol"}),
		rec(6, analyser.PlayerSpawn{UserID: 3, Team: analyser.TeamBlue, Class: analyser.Medic}),
		rec(10, analyser.PlayerConnect{UserID: 9, NetworkID: "[U:1:300]", Name: "Carol"}),
		rec(20, analyser.PlayerConnect{UserID: 4, NetworkID: "[U:1:301]", Name: "Carol"}),
		rec(30, analyser.PlayerSpawn{UserID: 8, Team: analyser.TeamRed, Class: analyser.Sniper}),
		rec(40, analyser.PlayerConnect{UserID: 8, NetworkID: "[U:1:302]", Name: "Dan"}),
	)

	require.Equal(t, 3, state.UserCount())

	first, _ := state.User(0)
	require.Equal(t, "[U:1:300]", first.SteamID)
	require.Equal(t, analyser.Medic, first.Class)
	require.Equal(t, 9, first.UserID)

	second, _ := state.User(1)
	require.Equal(t, "[U:1:301]", second.SteamID)

	third, _ := state.User(2)
	require.Equal(t, "[U:1:302]", third.SteamID)
	require.Equal(t, "Dan", third.Name)
	require.Equal(t, analyser.Sniper, third.Class)
}

func TestBotDisambiguation(t *testing.T) {
	state := run(t,
		rec(10, analyser.PlayerConnect{UserID: 3, NetworkID: analyser.BotSteamID, Name: "Bot01", Bot: true}),
		rec(11, analyser.PlayerConnect{UserID: 4, NetworkID: analyser.BotSteamID, Name: "Bot02", Bot: true}),
	)

	events := state.EventsOf(analyser.EventConnection)
	require.Len(t, events, 2)

	first, _ := events[0].Value.(analyser.Connection)
	second, _ := events[1].Value.(analyser.Connection)

	require.NotEqual(t, first.User, second.User)
	require.Equal(t, "BOT 3", first.Key)
	require.Equal(t, "BOT 4", second.Key)
	require.Equal(t, 2, state.UserCount())

	for _, user := range state.Users() {
		require.True(t, user.IsBot())
		sid := user.SID()
		require.False(t, sid.Valid())
	}
}

func TestSpawnDedup(t *testing.T) {
	state := run(t,
		rec(10, analyser.PlayerSpawn{UserID: 1, Team: analyser.TeamRed, Class: analyser.Scout}),
		rec(20, analyser.PlayerSpawn{UserID: 1, Team: analyser.TeamRed, Class: analyser.Scout}),
	)

	require.Equal(t, 1, kinds(state, analyser.EventClassSwitch))
	require.Equal(t, 1, kinds(state, analyser.EventTeamSwitch))

	state = run(t,
		rec(10, analyser.PlayerSpawn{UserID: 1, Team: analyser.TeamRed, Class: analyser.Scout}),
		rec(20, analyser.PlayerSpawn{UserID: 1, Team: analyser.TeamRed, Class: analyser.Scout}),
		rec(30, analyser.PlayerSpawn{UserID: 1, Team: analyser.TeamBlue, Class: analyser.Scout}),
	)

	switches := state.EventsOf(analyser.EventClassSwitch, analyser.EventTeamSwitch)
	require.Len(t, switches, 3)

	last := switches[2]
	require.Equal(t, uint32(30), last.Tick)
	require.Equal(t, analyser.TeamSwitch{User: 0, Team: analyser.TeamBlue}, last.Value)

	user, _ := state.User(0)
	require.Len(t, user.Classes, 1)
	require.Len(t, user.Teams, 2)
}

func TestExplicitClassChangeNotDeduplicated(t *testing.T) {
	state := run(t,
		rec(10, analyser.PlayerChangeClass{UserID: 1, Class: analyser.Spy}),
		rec(20, analyser.PlayerChangeClass{UserID: 1, Class: analyser.Spy}),
	)

	user, found := state.User(0)
	require.True(t, found)
	require.Equal(t, analyser.Spy, user.Class)
	require.Len(t, user.Classes, 2)
	require.Equal(t, 0, state.EventCount())
}

func TestRoundSuppression(t *testing.T) {
	for _, tc := range []struct {
		reason uint8
		rounds int
	}{
		{reason: analyser.WinReasonTimeLimit, rounds: 0},
		{reason: 1, rounds: 1},
		{reason: 2, rounds: 1},
		{reason: 0, rounds: 1},
	} {
		state := run(t, rec(1000, analyser.RoundWin{Team: analyser.TeamBlue, WinReason: tc.reason, RoundTime: 312.5}))
		require.Equal(t, tc.rounds, kinds(state, analyser.EventRoundEnd), "reason %d", tc.reason)
	}

	state := run(t, rec(1000, analyser.RoundWin{Team: analyser.TeamBlue, WinReason: 1, RoundTime: 312.5}))
	require.Equal(t, analyser.RoundEnd{Winner: analyser.TeamBlue, Length: 312.5, WinReason: 1}, state.Events()[0].Value)
}

func TestDeathFlags(t *testing.T) {
	state := run(t,
		rec(10, analyser.PlayerDeath{
			UserID:     2,
			Attacker:   3,
			Assister:   4,
			Weapon:     "tf_projectile_rocket",
			DeathFlags: analyser.DeathFlagDomination | analyser.DeathFlagRevenge,
			CritType:   2,
		}),
		rec(20, analyser.PlayerDeath{UserID: 3, Attacker: 3, Assister: analyser.NoAssister + 1, CritType: 9}),
	)

	events := state.Events()
	require.Len(t, events, 2)

	kill, ok := events[0].Value.(analyser.Kill)
	require.True(t, ok)
	require.Equal(t, analyser.DeathFlags{Domination: true, Revenge: true}, kill.DeathFlags)
	require.Equal(t, analyser.CritFull, kill.Crit)
	require.True(t, kill.Killer.Valid())
	require.True(t, kill.Assister.Valid())
	require.Equal(t, 3, state.UserCount())

	suicide, ok := events[1].Value.(analyser.Kill)
	require.True(t, ok)
	require.Equal(t, suicide.Victim, suicide.Killer)
	require.Equal(t, analyser.NoUser, suicide.Assister)
	require.False(t, suicide.Crit.Known())
	require.Equal(t, "unknown (9)", suicide.Crit.String())
}

func pollVotes(t *testing.T, records ...analyser.Record) []analyser.Vote {
	t.Helper()

	state := run(t, records...)
	var votes []analyser.Vote

	for _, event := range state.EventsOf(analyser.EventVoteStarted) {
		started, ok := event.Value.(analyser.VoteStarted)
		require.True(t, ok)

		votes = append(votes, started.Vote)
	}

	return votes
}

func TestVoteScopeWidening(t *testing.T) {
	options := rec(100, analyser.VoteOptions{VoteIdx: 1, Options: []string{"Yes", "No", "", "", ""}})

	votes := pollVotes(t,
		options,
		rec(110, analyser.VoteCast{VoteIdx: 1, EntityID: 1, Team: analyser.TeamRed, Option: 0}),
		rec(120, analyser.VoteCast{VoteIdx: 1, EntityID: 2, Team: analyser.TeamBlue, Option: 1}),
	)
	require.Len(t, votes, 1)
	require.Equal(t, analyser.VoteTeam{Scope: analyser.VoteScopeBoth}, votes[0].Team)
	require.Equal(t, []string{"Yes", "No"}, votes[0].Options)
	require.Equal(t, uint32(120), votes[0].EndTick)
	require.Equal(t, []int{1, 1}, votes[0].Tally())

	votes = pollVotes(t,
		options,
		rec(110, analyser.VoteCast{VoteIdx: 1, EntityID: 1, Team: analyser.TeamRed, Option: 0}),
		rec(120, analyser.VoteCast{VoteIdx: 1, EntityID: 2, Team: analyser.TeamRed, Option: 0}),
	)
	require.Len(t, votes, 1)
	require.Equal(t, analyser.VoteTeam{Scope: analyser.VoteScopeOne, Team: analyser.TeamRed}, votes[0].Team)
	require.Equal(t, "unknown", votes[0].Ballots[0].Voter)
}

func TestVoteInitiatorAndIssue(t *testing.T) {
	alice := analyser.PlayerInfo{Name: "Alice", UserID: 2, SteamID: "[U:1:100]"}
	bob := analyser.PlayerInfo{Name: "Bob", UserID: 3, SteamID: "[U:1:200]"}

	votes := pollVotes(t,
		directory(t, 1, 0, alice),
		directory(t, 1, 1, bob),
		rec(100, analyser.VoteOptions{VoteIdx: 0, Options: []string{"Yes", "No"}}),
		rec(100, analyser.VoteCast{VoteIdx: 0, EntityID: 1, Team: analyser.TeamRed, Option: 0}),
		rec(100, analyser.VoteCast{VoteIdx: 0, EntityID: 2, Team: analyser.TeamRed, Option: 1}),
		rec(140, analyser.VoteCast{VoteIdx: 0, EntityID: 99, Team: analyser.TeamRed, Option: 0}),
	)

	require.Len(t, votes, 1)
	require.Equal(t, "Alice", votes[0].Initiator)
	require.Equal(t, `Kick player "Bob"?`, votes[0].Issue)
	require.Equal(t, []analyser.Ballot{
		{Tick: 100, Voter: "Alice", Option: 0},
		{Tick: 100, Voter: "Bob", Option: 1},
		{Tick: 140, Voter: "unknown", Option: 0},
	}, votes[0].Ballots)
	require.Equal(t, analyser.OutcomeOpen, votes[0].Outcome)
}

func TestVoteIssueKeepsRawName(t *testing.T) {
	quoted := analyser.PlayerInfo{Name: `a"b`, UserID: 3, SteamID: "[U:1:200]"}

	votes := pollVotes(t,
		directory(t, 1, 0, quoted),
		rec(100, analyser.VoteOptions{VoteIdx: 0, Options: []string{"Yes", "No"}}),
		rec(100, analyser.VoteCast{VoteIdx: 0, EntityID: 1, Team: analyser.TeamRed, Option: 1}),
	)

	require.Len(t, votes, 1)
	require.Equal(t, `Kick player "a"b"?`, votes[0].Issue)
}

func TestVoteDroppedBallots(t *testing.T) {
	fold := analyser.New()
	fold.Handle(rec(100, analyser.VoteCast{VoteIdx: 4, EntityID: 1, Team: analyser.TeamRed, Option: 0}))
	fold.Handle(rec(110, analyser.VoteOptions{VoteIdx: 4, Options: []string{"Yes", "No"}}))
	fold.Handle(rec(120, analyser.VoteCast{VoteIdx: 4, EntityID: 1, Team: analyser.TeamRed, Option: 3}))
	fold.Handle(rec(130, analyser.VoteOptions{VoteIdx: 4, Options: []string{"A", "B", "C"}}))

	state := fold.Finalize()
	require.Equal(t, 1, state.Skipped())

	votes := state.Votes()
	require.Len(t, votes, 1)
	require.Empty(t, votes[0].Ballots)
	require.Equal(t, uint32(110), votes[0].StartTick)
	require.Equal(t, uint32(110), votes[0].EndTick)
	require.Equal(t, []string{"Yes", "No"}, votes[0].Options)
}

func TestVoteClosureFreesIndex(t *testing.T) {
	state := run(t,
		rec(100, analyser.VoteOptions{VoteIdx: 0, Options: []string{"Yes", "No"}}),
		rec(105, analyser.VoteCast{VoteIdx: 0, EntityID: 1, Team: analyser.TeamRed, Option: 0}),
		rec(200, analyser.VotePassed{VoteIdx: 0, Team: analyser.TeamRed, Details: "#TF_vote_passed_kick_player", Param: "Bob"}),
		rec(500, analyser.VoteOptions{VoteIdx: 0, Options: []string{"Yes", "No"}}),
		rec(505, analyser.VoteCast{VoteIdx: 0, EntityID: 1, Team: analyser.TeamBlue, Option: 1}),
		rec(600, analyser.VoteFailed{VoteIdx: 0, Team: analyser.TeamBlue}),
		rec(700, analyser.VoteOptions{VoteIdx: 0, Options: []string{"Yes", "No"}}),
	)

	votes := state.Votes()
	require.Len(t, votes, 3)
	require.Equal(t, analyser.OutcomePassed, votes[0].Outcome)
	require.Equal(t, uint32(200), votes[0].EndTick)
	require.Equal(t, "#TF_vote_passed_kick_player", votes[0].Details)
	require.Equal(t, analyser.OutcomeFailed, votes[1].Outcome)
	require.Len(t, votes[1].Ballots, 1)
	require.Equal(t, analyser.OutcomeOpen, votes[2].Outcome)

	events := state.EventsOf(analyser.EventVoteStarted)
	require.Len(t, events, 3)
	require.Equal(t, uint32(100), events[0].Tick)
	require.Equal(t, uint32(500), events[1].Tick)
	require.Equal(t, uint32(700), events[2].Tick)
}

func TestEventOrdering(t *testing.T) {
	state := run(t,
		rec(10, analyser.PlayerSpawn{UserID: 1, Team: analyser.TeamRed, Class: analyser.Pyro}),
		rec(15, analyser.VoteOptions{VoteIdx: 2, Options: []string{"Yes", "No"}}),
		rec(20, analyser.PlayerDeath{UserID: 1, Attacker: 2}),
		rec(20, analyser.RoundWin{Team: analyser.TeamBlue, WinReason: 1}),
		rec(30, analyser.TextMsg{Location: analyser.HudPrintTalk, Text: "#game_player_joined_game", Substitutes: []string{"Dave"}}),
		rec(30, analyser.VoteOptions{VoteIdx: 3, Options: []string{"Yes", "No"}}),
		rec(40, analyser.TextMsg{Location: analyser.HudPrintTalk, Text: "late"}),
	)

	events := state.Events()
	require.Len(t, events, 8)

	for idx := 1; idx < len(events); idx++ {
		require.LessOrEqual(t, events[idx-1].Tick, events[idx].Tick)
	}

	require.Equal(t, analyser.EventVoteStarted, events[2].Kind())
	require.Equal(t, uint32(15), events[2].Tick)
	require.Equal(t, analyser.EventChat, events[5].Kind())
	require.Equal(t, analyser.EventVoteStarted, events[6].Kind())
	require.Equal(t, uint32(30), events[6].Tick)
}

func TestChat(t *testing.T) {
	alice := analyser.PlayerInfo{Name: "Alice", UserID: 2, SteamID: "[U:1:100]"}

	state := run(t,
		directory(t, 1, 0, alice),
		rec(10, analyser.PlayerSpawn{UserID: 2, Team: analyser.TeamBlue, Class: analyser.Engineer}),
		rec(20, analyser.SayText2{Client: 1, Type: analyser.ChatTeam, Text: "need a dispenser"}),
		rec(30, analyser.SayText2{Client: 1, Type: analyser.ChatName, From: "Alice", Text: "Alicia"}),
		rec(40, analyser.SayText2{Client: 7, Type: analyser.ChatAll, Text: "who am i"}),
		rec(50, analyser.TextMsg{Location: analyser.HudPrintCenter, Text: "center"}),
		rec(51, analyser.TextMsg{Location: analyser.HudPrintConsole, Text: "console"}),
		rec(52, analyser.TextMsg{Location: analyser.HudPrintTalk, Text: "#game_player_left_game", Substitutes: []string{"Eve", "timed out"}}),
	)

	chats := state.EventsOf(analyser.EventChat)
	require.Len(t, chats, 3)
	require.Equal(t, analyser.Chat{
		Type: analyser.ChatTeam, Speaker: "Alice", User: 0, Team: analyser.TeamBlue, Text: "need a dispenser",
	}, chats[0].Value)
	require.Equal(t, analyser.Chat{Type: analyser.ChatAll, User: analyser.NoUser, Text: "who am i"}, chats[1].Value)
	require.Equal(t, analyser.Chat{Type: analyser.ChatEmpty, User: analyser.NoUser, Text: "Eve left the game (timed out)"}, chats[2].Value)

	user, _ := state.User(0)
	require.Equal(t, "Alicia", user.Name)
}

func TestDirectorySlotDrift(t *testing.T) {
	info := analyser.PlayerInfo{Name: "Frank", UserID: 2, SteamID: "[U:1:500]"}

	first := directory(t, 1, 0, info)
	info.UserID = 7
	second := directory(t, 900, 4, info)

	state := run(t,
		first,
		rec(10, analyser.PlayerSpawn{UserID: 2, Team: analyser.TeamRed, Class: analyser.Heavy}),
		second,
		rec(1000, analyser.PlayerDeath{UserID: 7, Attacker: 0}),
	)

	require.Equal(t, 1, state.UserCount())

	user, _ := state.User(0)
	require.Equal(t, 7, user.UserID)
	require.Equal(t, analyser.EntityID(5), user.EntityID)

	kill, _ := state.EventsOf(analyser.EventKill)[0].Value.(analyser.Kill)
	require.Equal(t, user.ID, kill.Victim)
}

func TestDirectoryBots(t *testing.T) {
	state := run(t,
		directory(t, 1, 0, analyser.PlayerInfo{Name: "Bot01", UserID: 2, SteamID: analyser.BotSteamID, IsFakePlayer: true}),
		directory(t, 1, 1, analyser.PlayerInfo{Name: "Bot02", UserID: 3, SteamID: analyser.BotSteamID, IsFakePlayer: true}),
		directory(t, 2, 0, analyser.PlayerInfo{Name: "Bot01", UserID: 2, SteamID: analyser.BotSteamID, IsFakePlayer: true}),
	)

	require.Equal(t, 2, state.UserCount())
}

func TestDirectoryMalformed(t *testing.T) {
	state := run(t,
		rec(1, analyser.StringTableEntry{Table: analyser.UserInfoTable, Index: 0, Extra: []byte{1, 2, 3}}),
		rec(1, analyser.StringTableEntry{Table: analyser.UserInfoTable, Index: 1}),
		rec(1, analyser.StringTableEntry{Table: "downloadables", Index: 0, Extra: []byte{1}}),
	)

	require.Equal(t, 1, state.Skipped())
	require.Equal(t, 0, state.UserCount())
}

func TestAllowList(t *testing.T) {
	fold := analyser.New()

	for _, kind := range []analyser.RecordKind{
		analyser.KindNetTick, analyser.KindServerInfo, analyser.KindGameEvent,
		analyser.KindUserMessage, analyser.KindStringTable,
	} {
		require.True(t, fold.DoesHandle(kind))
	}

	for _, kind := range []analyser.RecordKind{analyser.KindPacketEntities, analyser.KindConsoleCmd, analyser.KindSounds} {
		require.False(t, fold.DoesHandle(kind))
	}

	fold.Handle(rec(5, analyser.NetTick{Tick: 5}))
	fold.Handle(rec(6, analyser.NetTick{Tick: 6}))
	fold.Handle(rec(90, analyser.Unhandled{Category: analyser.KindPacketEntities}))
	fold.Handle(rec(7, analyser.OtherGameEvent{Name: "player_hurt"}))

	state := fold.Finalize()
	require.Equal(t, uint32(5), state.StartTick())
	require.Equal(t, uint32(7), state.EndTick())
	require.Equal(t, 0, state.Skipped())

	fold.Handle(rec(100, analyser.RoundWin{Team: analyser.TeamRed, WinReason: 1}))
	require.Same(t, state, fold.Finalize())
	require.Equal(t, 0, state.EventCount())
}

func TestStateSnapshotIsolation(t *testing.T) {
	state := run(t,
		rec(10, analyser.PlayerSpawn{UserID: 1, Team: analyser.TeamRed, Class: analyser.Scout}),
		rec(20, analyser.PlayerConnect{UserID: 1, NetworkID: "[U:1:100]", Name: "Alice"}),
		rec(100, analyser.VoteOptions{VoteIdx: 0, Options: []string{"Yes", "No"}}),
		rec(105, analyser.VoteCast{VoteIdx: 0, EntityID: 1, Team: analyser.TeamRed, Option: 0}),
	)

	want := state.Votes()[0]

	users := state.Users()
	users[0].Classes[0].Class = analyser.Spy
	users[0].Teams[0].Team = analyser.TeamBlue
	users[0].Connections[0].Reason = "changed"

	single, _ := state.User(0)
	single.Classes[0].Class = analyser.Medic

	votes := state.Votes()
	votes[0].Options[0] = "Maybe"
	votes[0].Ballots[0].Voter = "changed"

	for _, event := range state.Events() {
		if started, ok := event.Value.(analyser.VoteStarted); ok {
			started.Vote.Options[1] = "Never"
			started.Vote.Ballots[0].Option = 1
		}
	}

	user, _ := state.User(0)
	require.Equal(t, analyser.Scout, user.Classes[0].Class)
	require.Equal(t, analyser.TeamRed, user.Teams[0].Team)
	require.Empty(t, user.Connections[0].Reason)

	fresh := state.Votes()
	require.Equal(t, []string{"Yes", "No"}, fresh[0].Options)
	require.Equal(t, want.Ballots, fresh[0].Ballots)

	event, _ := state.EventsOf(analyser.EventVoteStarted)[0].Value.(analyser.VoteStarted)
	require.Equal(t, []string{"Yes", "No"}, event.Vote.Options)
	require.Equal(t, 0, event.Vote.Ballots[0].Option)
}

func TestMarshalState(t *testing.T) {
	state := run(t,
		rec(0, analyser.ServerInfo{Name: "Test Server"}),
		rec(10, analyser.PlayerDeath{UserID: 1, Attacker: 0}),
	)

	body, errJSON := state.MarshalJSON()
	require.NoError(t, errJSON)
	require.Contains(t, string(body), `"name":"Test Server"`)
	require.Contains(t, string(body), `"kind":"kill"`)
}
