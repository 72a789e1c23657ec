// Package osu holds the static game model: modifiers, gamemodes, beatmap
// statuses and the arithmetic that depends only on them.
package osu

import (
	"fmt"
	"strconv"
	"strings"
)

// Mod is a bitmask of game modifiers, bit values as used by the osu! API.
type Mod int

const (
	ModNone           Mod = 0
	ModNoFail         Mod = 1
	ModEasy           Mod = 2
	ModTouchDevice    Mod = 4
	ModHidden         Mod = 8
	ModHardRock       Mod = 16
	ModSuddenDeath    Mod = 32
	ModDoubleTime     Mod = 64
	ModRelax          Mod = 128
	ModHalfTime       Mod = 256
	ModNightcore      Mod = 512
	ModFlashlight     Mod = 1024
	ModAuto           Mod = 2048
	ModSpunOut        Mod = 4096
	ModAutopilot      Mod = 8192
	ModPerfect        Mod = 16384
	ModKey4           Mod = 32768
	ModKey5           Mod = 65536
	ModKey6           Mod = 131072
	ModKey7           Mod = 262144
	ModKey8           Mod = 524288
	ModFadeIn         Mod = 1048576
	ModRandom         Mod = 2097152
	ModCinema         Mod = 4194304
	ModTargetPractice Mod = 8388608
	ModKey9           Mod = 16777216
	ModKeyCoop        Mod = 33554432
	ModKey1           Mod = 67108864
	ModKey2           Mod = 134217728
	ModKey3           Mod = 268435456
	ModScoreV2        Mod = 536870912
	ModLastMod        Mod = 1073741824
)

// Composite masks.
const (
	ModKeyMod = ModKey1 | ModKey2 | ModKey3 | ModKey4 | ModKey5 | ModKey6 | ModKey7 | ModKey8 | ModKey9 | ModKeyCoop

	ModFreeModAllowed = ModNoFail | ModEasy | ModHidden | ModHardRock | ModSuddenDeath | ModFlashlight |
		ModFadeIn | ModRelax | ModAutopilot | ModSpunOut | ModKeyMod

	// ModScoreIncrease defines the scoring-mod bucket used to deduplicate scores.
	ModScoreIncrease = ModHidden | ModHardRock | ModDoubleTime | ModFlashlight | ModAutopilot | ModFadeIn

	ModSpeedChanging = ModDoubleTime | ModHalfTime | ModNightcore
	ModMapChanging   = ModSpeedChanging | ModHardRock | ModEasy
	ModUnranked      = ModRelax | ModAuto | ModAutopilot

	// ModAll covers every defined bit.
	ModAll = ModLastMod | (ModLastMod - 1)
)

// Has reports whether every bit of other is set in m.
func (m Mod) Has(other Mod) bool {
	return m&other == other
}

// Any reports whether at least one bit of other is set in m.
func (m Mod) Any(other Mod) bool {
	return m&other != 0
}

// ScoringBucket returns the subset of m that makes scores on the same beatmap incomparable.
func (m Mod) ScoringBucket() Mod {
	return m & ModScoreIncrease
}

var modAcronyms = []struct {
	mod  Mod
	name string
}{
	{ModNoFail, "NF"}, {ModEasy, "EZ"}, {ModTouchDevice, "TD"}, {ModHidden, "HD"},
	{ModHardRock, "HR"}, {ModSuddenDeath, "SD"}, {ModDoubleTime, "DT"}, {ModRelax, "RX"},
	{ModHalfTime, "HT"}, {ModNightcore, "NC"}, {ModFlashlight, "FL"}, {ModAuto, "AT"},
	{ModSpunOut, "SO"}, {ModAutopilot, "AP"}, {ModPerfect, "PF"}, {ModFadeIn, "FI"},
	{ModRandom, "RD"}, {ModCinema, "CN"}, {ModTargetPractice, "TP"}, {ModKeyCoop, "CO"},
	{ModScoreV2, "V2"},
}

// String renders the mods as concatenated acronyms, e.g. "HDHR". NC implies DT
// and PF implies SD, so the implied acronyms are omitted.
func (m Mod) String() string {
	if m == ModNone {
		return "NM"
	}
	var sb strings.Builder
	for _, a := range modAcronyms {
		if !m.Has(a.mod) {
			continue
		}
		if a.mod == ModDoubleTime && m.Has(ModNightcore) {
			continue
		}
		if a.mod == ModSuddenDeath && m.Has(ModPerfect) {
			continue
		}
		sb.WriteString(a.name)
	}
	return sb.String()
}

// Gamemode is one of the four game variants.
type Gamemode int

const (
	GamemodeStandard Gamemode = 0
	GamemodeTaiko    Gamemode = 1
	GamemodeCatch    Gamemode = 2
	GamemodeMania    Gamemode = 3
)

// Gamemodes lists every gamemode in API order.
var Gamemodes = []Gamemode{GamemodeStandard, GamemodeTaiko, GamemodeCatch, GamemodeMania}

func (g Gamemode) Valid() bool {
	return g >= GamemodeStandard && g <= GamemodeMania
}

func (g Gamemode) String() string {
	switch g {
	case GamemodeStandard:
		return "osu"
	case GamemodeTaiko:
		return "taiko"
	case GamemodeCatch:
		return "catch"
	case GamemodeMania:
		return "mania"
	}
	return "unknown"
}

// ParseGamemode accepts the numeric API value or a mode name.
func ParseGamemode(s string) (Gamemode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "osu", "standard", "std":
		return GamemodeStandard, nil
	case "taiko":
		return GamemodeTaiko, nil
	case "catch", "fruits", "ctb":
		return GamemodeCatch, nil
	case "mania":
		return GamemodeMania, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !Gamemode(n).Valid() {
		return 0, fmt.Errorf("invalid gamemode %q", s)
	}
	return Gamemode(n), nil
}

// BeatmapStatus is the ranked state of a beatmap.
type BeatmapStatus int

const (
	BeatmapGraveyard BeatmapStatus = -2
	BeatmapWIP       BeatmapStatus = -1
	BeatmapPending   BeatmapStatus = 0
	BeatmapRanked    BeatmapStatus = 1
	BeatmapApproved  BeatmapStatus = 2
	BeatmapQualified BeatmapStatus = 3
	BeatmapLoved     BeatmapStatus = 4
)

func (s BeatmapStatus) Valid() bool {
	return s >= BeatmapGraveyard && s <= BeatmapLoved
}

// Failed play grade as reported by the recent-plays feed.
const GradeFailed = "F"
