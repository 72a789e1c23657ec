package osu

import "math"

// Difficulty is the subset of beatmap attributes that modifiers alter.
type Difficulty struct {
	CS          float64
	AR          float64
	OD          float64
	HP          float64
	BPM         float64
	DrainTime   int
	TotalLength int
}

// SpeedMultiplier returns the playback rate implied by the mods.
func SpeedMultiplier(mods Mod) float64 {
	switch {
	case mods.Any(ModDoubleTime | ModNightcore):
		return 1.5
	case mods.Has(ModHalfTime):
		return 0.75
	}
	return 1
}

// Adjust returns the effective difficulty of d when played with mods.
func (d Difficulty) Adjust(mods Mod) Difficulty {
	out := d

	switch {
	case mods.Has(ModHardRock):
		out.CS = math.Min(d.CS*1.3, 10)
		out.AR = math.Min(d.AR*1.4, 10)
		out.OD = math.Min(d.OD*1.4, 10)
		out.HP = math.Min(d.HP*1.4, 10)
	case mods.Has(ModEasy):
		out.CS = d.CS * 0.5
		out.AR = d.AR * 0.5
		out.OD = d.OD * 0.5
		out.HP = d.HP * 0.5
	}

	rate := SpeedMultiplier(mods)
	if rate != 1 {
		out.AR = msToAR(arToMS(out.AR) / rate)
		out.OD = msToOD(odToMS(out.OD) / rate)
		out.BPM = d.BPM * rate
		out.DrainTime = int(math.Round(float64(d.DrainTime) / rate))
		out.TotalLength = int(math.Round(float64(d.TotalLength) / rate))
	}

	return out
}

// arToMS converts approach rate to preempt time in milliseconds.
func arToMS(ar float64) float64 {
	if ar <= 5 {
		return 1800 - 120*ar
	}
	return 1200 - 150*(ar-5)
}

func msToAR(ms float64) float64 {
	if ms >= 1200 {
		return (1800 - ms) / 120
	}
	return 5 + (1200-ms)/150
}

// odToMS converts overall difficulty to the 300 hit window in milliseconds.
func odToMS(od float64) float64 {
	return 80 - 6*od
}

func msToOD(ms float64) float64 {
	return (80 - ms) / 6
}
