package analyser

import (
	"strconv"
	"strings"
)

// serverMessages maps the localisation keys the server prints to chat onto english templates.
var serverMessages = map[string]string{ //nolint:gochecknoglobals
	"#TF_Name_Change":                 "* %s1 changed name to %s2",
	"#game_player_joined_game":        "%s1 has joined the game",
	"#game_player_left_game":          "%s1 left the game (%s2)",
	"#game_player_joined_team":        "%s1 joined team %s2",
	"#game_player_joined_autoteam":    "%s1 was automatically assigned to team %s2",
	"#game_player_changed_name":       "%s1 changed name to %s2",
	"#game_server_cvar_changed":       "Server cvar '%s1' changed to %s2",
	"#game_spawn_as":                  "*You will spawn as %s1",
	"#game_respawn_as":                "*You will respawn as %s1",
	"#TF_Autobalance_Start":           "Teams will be auto-balanced in %s1 seconds",
	"#TF_Autobalance_TeamChangeDone":  "%s1 was moved to the other team for game balance",
	"#TF_Vote_kicked":                 "%s1 has been kicked from the server",
	"#TF_ScrambleTeams":               "Teams have been scrambled",
	"#TF_TeamsSwitched":               "Teams have been switched",
	"#TF_Arena_TeamsScrambled":        "Teams have been scrambled",
	"#TF_Bot_Generic_Kick_Request":    "%s1 was kicked",
	"#TF_Chat_Coach":                  "(Coach) %s1 : %s2",
	"#TF_Chat_Party":                  "(Party) %s1 : %s2",
	"#TF_Competitive_SteamID_Invalid": "%s1 has an invalid steam id",
}

const maxSubstitutions = 3

// ResolveText expands a known server message key to its template, then replaces %s1, %s2 and %s3
// in order. Replacement stops at the first placeholder missing from the text. Placeholders without
// a matching substitution become empty.
func ResolveText(raw string, subs ...string) string {
	text, found := serverMessages[raw]
	if !found {
		text = raw
	}

	for idx := range maxSubstitutions {
		token := "%s" + strconv.Itoa(idx+1)
		if !strings.Contains(text, token) {
			break
		}

		value := ""
		if idx < len(subs) {
			value = subs[idx]
		}

		text = strings.ReplaceAll(text, token, value)
	}

	return text
}
