package analyser

import "fmt"

// Team represents a players team, or spectator state. Values match the game's team numbers.
type Team int

const (
	TeamOther Team = iota
	TeamSpectator
	TeamRed
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamSpectator:
		return "Spectator"
	case TeamRed:
		return "RED"
	case TeamBlue:
		return "BLU"
	default:
		return "Other"
	}
}

type PlayerClass int

//goland:noinspection GoUnnecessarilyExportedIdentifiers
const (
	ClassOther PlayerClass = iota
	Scout
	Sniper
	Soldier
	Demoman
	Medic
	Heavy
	Pyro
	Spy
	Engineer
)

var classNames = map[PlayerClass]string{ //nolint:gochecknoglobals
	ClassOther: "Other",
	Scout:      "Scout",
	Sniper:     "Sniper",
	Soldier:    "Soldier",
	Demoman:    "Demoman",
	Medic:      "Medic",
	Heavy:      "Heavy",
	Pyro:       "Pyro",
	Spy:        "Spy",
	Engineer:   "Engineer",
}

func (c PlayerClass) String() string {
	name, found := classNames[c]
	if !found {
		return classNames[ClassOther]
	}

	return name
}

// CritType is the damage modifier applied to the killing blow.
type CritType int

const (
	CritNone CritType = 0
	CritMini CritType = 1
	CritFull CritType = 2
)

// Known reports whether the value is one of the enumerated crit types. Anything else is kept
// as the raw numeric value reported by the game.
func (c CritType) Known() bool {
	return c == CritNone || c == CritMini || c == CritFull
}

func (c CritType) String() string {
	switch c {
	case CritNone:
		return "none"
	case CritMini:
		return "mini-crit"
	case CritFull:
		return "crit"
	default:
		return fmt.Sprintf("unknown (%d)", int(c))
	}
}

// Death flag bits as packed into the player_death death_flags field.
const (
	DeathFlagDomination         uint16 = 0x0001
	DeathFlagAssisterDomination uint16 = 0x0002
	DeathFlagRevenge            uint16 = 0x0004
	DeathFlagAssisterRevenge    uint16 = 0x0008
	DeathFlagFeignDeath         uint16 = 0x0020
)

const (
	// BotSteamID is the persistent identifier the game assigns to every bot.
	BotSteamID = "BOT"

	// NoAssister is the first assister slot value meaning "nobody assisted".
	NoAssister = 16 * 1024

	// WorldAttacker is the attacker slot value used for environmental deaths.
	WorldAttacker = 0

	// WinReasonTimeLimit is the round win reason sent for stalemates when the round timer runs out.
	WinReasonTimeLimit uint8 = 6

	// UserInfoTable is the string table holding the player directory.
	UserInfoTable = "userinfo"
)

// ChatKind is the localisation key a SayText2 message was sent with.
type ChatKind string

const (
	ChatAll      ChatKind = "TF_Chat_All"
	ChatTeam     ChatKind = "TF_Chat_Team"
	ChatAllDead  ChatKind = "TF_Chat_AllDead"
	ChatTeamDead ChatKind = "TF_Chat_Team_Dead"
	ChatAllSpec  ChatKind = "TF_Chat_AllSpec"
	ChatName     ChatKind = "TF_Name_Change"
	ChatEmpty    ChatKind = ""
)

// Prefix is the scope marker shown in front of the speaker.
func (k ChatKind) Prefix() string {
	switch k {
	case ChatTeam:
		return "(Team) "
	case ChatAllDead:
		return "*DEAD* "
	case ChatTeamDead:
		return "(Team) *DEAD* "
	case ChatAllSpec:
		return "*SPEC* "
	case ChatName:
		return "[Name Change] "
	default:
		return ""
	}
}

// HudTextLocation is the destination of a TextMsg user message.
type HudTextLocation int

const (
	HudPrintNotify  HudTextLocation = 1
	HudPrintConsole HudTextLocation = 2
	HudPrintTalk    HudTextLocation = 3
	HudPrintCenter  HudTextLocation = 4
)
