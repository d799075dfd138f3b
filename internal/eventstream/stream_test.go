package eventstream_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leighmacdonald/demoinspect/internal/eventstream"
	"github.com/leighmacdonald/demoinspect/pkg/analyser"
	"github.com/leighmacdonald/demoinspect/pkg/fs"
	"github.com/leighmacdonald/demoinspect/pkg/zstd"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T) string {
	t.Helper()

	testFilePath := fs.FindFile(filepath.Join("testdata", "match.jsonl"), "demoinspect")
	if !fs.Exists(testFilePath) {
		t.Skipf("Cant find test file: match.jsonl")
	}

	return testFilePath
}

func TestApplyFixture(t *testing.T) {
	reader, errOpen := eventstream.Open(fixture(t))
	require.NoError(t, errOpen)

	defer func() { require.NoError(t, reader.Close()) }()

	fold := analyser.New()
	count, errApply := eventstream.Apply(t.Context(), reader, fold)
	require.NoError(t, errApply)
	require.Equal(t, 28, count)

	state := fold.Finalize()
	require.Equal(t, 0, state.Skipped())
	require.Equal(t, uint32(1), state.StartTick())
	require.Equal(t, uint32(900), state.EndTick())
	require.Equal(t, 4, state.UserCount())
	require.Equal(t, 16, state.EventCount())

	info, found := state.ServerInfo()
	require.True(t, found)
	require.Equal(t, "pl_badwater", info.Map)

	bob, _ := state.User(1)
	require.Equal(t, "Robert", bob.Name)
	require.Equal(t, analyser.EntityID(2), bob.EntityID)

	alice, _ := state.User(0)
	require.Equal(t, analyser.Pyro, alice.Class)
	require.Len(t, alice.Classes, 2)

	votes := state.Votes()
	require.Len(t, votes, 1)
	require.Equal(t, "Alice", votes[0].Initiator)
	require.Equal(t, `Kick player "Bob"?`, votes[0].Issue)
	require.Equal(t, analyser.OutcomeFailed, votes[0].Outcome)
	require.Equal(t, analyser.VoteScopeBoth, votes[0].Team.Scope)
	require.Equal(t, "Bot01", votes[0].Ballots[2].Voter)

	kills := state.EventsOf(analyser.EventKill)
	require.Len(t, kills, 2)

	kill, _ := kills[0].Value.(analyser.Kill)
	require.Equal(t, analyser.StableUserID(0), kill.Killer)
	require.Equal(t, analyser.StableUserID(3), kill.Assister)
	require.True(t, kill.Domination)

	chats := state.EventsOf(analyser.EventChat)
	require.Len(t, chats, 2)

	serverMsg, _ := chats[1].Value.(analyser.Chat)
	require.Equal(t, "Carol joined team RED", serverMsg.Text)
	require.Len(t, state.EventsOf(analyser.EventRoundEnd), 1)
}

func TestEncoderRoundTrip(t *testing.T) {
	info := analyser.PlayerInfo{Name: "Alice", UserID: 2, SteamID: "[U:1:100]"}
	extra, errExtra := info.MarshalBinary()
	require.NoError(t, errExtra)

	records := []analyser.Record{
		{Tick: 0, Payload: analyser.ServerInfo{Name: "Test Server", IntervalPerTick: 0.015}},
		{Tick: 1, Payload: analyser.NetTick{Tick: 1}},
		{Tick: 1, Payload: analyser.StringTableEntry{Table: analyser.UserInfoTable, Index: 0, Text: "2", Extra: extra}},
		{Tick: 5, Payload: analyser.PlayerDeath{UserID: 2, Attacker: 3, Assister: 4, Weapon: "scattergun", DeathFlags: 5, CritType: 1}},
		{Tick: 6, Payload: analyser.VoteOptions{VoteIdx: 1, Options: []string{"Yes", "No", "", "", ""}}},
		{Tick: 7, Payload: analyser.SayText2{Client: 1, Type: analyser.ChatTeam, From: "Alice", Text: "hi", Params: []string{"a"}}},
		{Tick: 8, Payload: analyser.TextMsg{Location: analyser.HudPrintTalk, Text: "x", Substitutes: []string{"y"}}},
		{Tick: 9, Payload: analyser.Unhandled{Category: analyser.KindSounds}},
	}

	var buf bytes.Buffer

	enc := eventstream.NewEncoder(&buf)
	for _, record := range records {
		require.NoError(t, enc.Encode(record))
	}

	require.Contains(t, buf.String(), `"type":"player_death"`)

	dec := eventstream.NewDecoder(&buf)
	for _, expected := range records {
		record, errNext := dec.Next()
		require.NoError(t, errNext)
		require.Equal(t, expected, record)
	}

	_, errEOF := dec.Next()
	require.Error(t, errEOF)
}

func TestOpenCompressed(t *testing.T) {
	body, errRead := os.ReadFile(fixture(t))
	require.NoError(t, errRead)

	path := filepath.Join(t.TempDir(), "match.jsonl"+zstd.Extension)
	require.NoError(t, os.WriteFile(path, zstd.Compress(body), 0o600))

	reader, errOpen := eventstream.Open(path)
	require.NoError(t, errOpen)

	fold := analyser.New()
	count, errApply := eventstream.Apply(context.Background(), reader, fold)
	require.NoError(t, errApply)
	require.Equal(t, 28, count)
	require.NoError(t, reader.Close())
	require.Equal(t, 4, fold.Finalize().UserCount())
}

func TestOpenUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	require.NoError(t, os.WriteFile(path, png, 0o600))

	_, errOpen := eventstream.Open(path)
	require.ErrorIs(t, errOpen, eventstream.ErrUnsupportedStream)

	_, errMissing := eventstream.Open(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.ErrorIs(t, errMissing, eventstream.ErrOpenStream)
}

func TestApplyErrors(t *testing.T) {
	input := `{"tick":1,"type":"net_tick","data":{"tick":1}}` + "\n" + `{"tick":2,"type":` + "\n"

	_, errApply := eventstream.Apply(t.Context(), strings.NewReader(input), analyser.New())
	require.ErrorIs(t, errApply, eventstream.ErrDecodeRecord)

	_, errType := eventstream.Apply(t.Context(), strings.NewReader(`{"tick":1}`), analyser.New())
	require.ErrorIs(t, errType, eventstream.ErrDecodeRecord)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	count, errCancel := eventstream.Apply(ctx, strings.NewReader(input), analyser.New())
	require.ErrorIs(t, errCancel, context.Canceled)
	require.Equal(t, 0, count)
}
