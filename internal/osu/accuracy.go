package osu

import "math"

// HitCounts are the raw judgement counts of a play.
type HitCounts struct {
	Count300  int
	Count100  int
	Count50   int
	CountMiss int
	CountGeki int
	CountKatu int
}

// Accuracy returns the accuracy percentage (0-100) of a play in the given gamemode.
func Accuracy(mode Gamemode, c HitCounts) float64 {
	var hit, total float64

	switch mode {
	case GamemodeStandard:
		hit = float64(300*c.Count300 + 100*c.Count100 + 50*c.Count50)
		total = float64(300 * (c.Count300 + c.Count100 + c.Count50 + c.CountMiss))
	case GamemodeTaiko:
		hit = float64(c.Count300) + 0.5*float64(c.Count100)
		total = float64(c.Count300 + c.Count100 + c.CountMiss)
	case GamemodeCatch:
		hit = float64(c.Count300 + c.Count100 + c.Count50)
		total = float64(c.Count300 + c.Count100 + c.Count50 + c.CountKatu + c.CountMiss)
	case GamemodeMania:
		hit = float64(300*(c.CountGeki+c.Count300) + 200*c.CountKatu + 100*c.Count100 + 50*c.Count50)
		total = float64(300 * (c.CountGeki + c.Count300 + c.CountKatu + c.Count100 + c.Count50 + c.CountMiss))
	default:
		return 0
	}

	if total == 0 {
		return 0
	}
	return 100 * hit / total
}

// WeightFactor is the per-position decay used when summing performance values.
const WeightFactor = 0.95

// Weight returns the weight of the i-th best performance (0-based).
func Weight(i int) float64 {
	return math.Pow(WeightFactor, float64(i))
}

// WeightedSum sums pps with diminishing weights. pps must be sorted descending.
func WeightedSum(pps []float64) float64 {
	total := 0.0
	for i, pp := range pps {
		total += pp * Weight(i)
	}
	return total
}
