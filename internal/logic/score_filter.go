package logic

import (
	"fmt"
	"time"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

// EvaluateScoreFilter reports whether score on beatmap satisfies every bound of
// filter. A nil filter is the default ranked-only filter.
func EvaluateScoreFilter(filter *models.ScoreFilter, score *models.Score, beatmap *models.Beatmap) bool {
	if score == nil || beatmap == nil {
		return false
	}

	if !statusAllowed(filter.AllowedStatuses(), beatmap.Status) {
		return false
	}
	if filter == nil {
		return true
	}

	if !withinDates(beatmap.RankedDate(), filter.OldestBeatmapDate, filter.NewestBeatmapDate) {
		return false
	}
	if !withinDates(score.Date, filter.OldestScoreDate, filter.NewestScoreDate) {
		return false
	}

	if !score.Mods.Has(filter.RequiredMods) {
		return false
	}
	if filter.DisqualifiedMods != osu.ModNone && score.Mods.Any(filter.DisqualifiedMods) {
		return false
	}

	if filter.LowestAR != nil || filter.HighestAR != nil ||
		filter.LowestOD != nil || filter.HighestOD != nil ||
		filter.LowestCS != nil || filter.HighestCS != nil {
		diff := beatmap.Difficulty().Adjust(score.Mods)
		if !within(diff.AR, filter.LowestAR, filter.HighestAR) ||
			!within(diff.OD, filter.LowestOD, filter.HighestOD) ||
			!within(diff.CS, filter.LowestCS, filter.HighestCS) {
			return false
		}
	}

	return within(score.Accuracy, filter.LowestAccuracy, filter.HighestAccuracy)
}

// ValidateScoreFilter rejects bounds that can never be satisfied or are out of range.
func ValidateScoreFilter(f *models.ScoreFilter) error {
	if f == nil {
		return nil
	}

	for _, s := range f.AllowedBeatmapStatus {
		if !s.Valid() {
			return fmt.Errorf("%w: unknown beatmap status %d", ErrInvalidInput, s)
		}
	}

	if err := checkDateRange("beatmap date", f.OldestBeatmapDate, f.NewestBeatmapDate); err != nil {
		return err
	}
	if err := checkDateRange("score date", f.OldestScoreDate, f.NewestScoreDate); err != nil {
		return err
	}

	ranges := []struct {
		name    string
		lowest  *float64
		highest *float64
		lo, hi  float64
	}{
		{"ar", f.LowestAR, f.HighestAR, 0, 11},
		{"od", f.LowestOD, f.HighestOD, 0, 11},
		{"cs", f.LowestCS, f.HighestCS, 0, 10},
		{"accuracy", f.LowestAccuracy, f.HighestAccuracy, 0, 100},
	}
	for _, r := range ranges {
		if err := checkRange(r.name, r.lowest, r.highest, r.lo, r.hi); err != nil {
			return err
		}
	}

	if f.RequiredMods&^osu.ModAll != 0 || f.DisqualifiedMods&^osu.ModAll != 0 || f.RequiredMods < 0 || f.DisqualifiedMods < 0 {
		return fmt.Errorf("%w: unknown mod bits", ErrInvalidInput)
	}
	if f.RequiredMods.Any(f.DisqualifiedMods) {
		return fmt.Errorf("%w: mods %v are both required and disqualified", ErrInvalidInput, f.RequiredMods&f.DisqualifiedMods)
	}
	return nil
}

func statusAllowed(allowed []osu.BeatmapStatus, status osu.BeatmapStatus) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}

func within(v float64, lowest, highest *float64) bool {
	if lowest != nil && v < *lowest {
		return false
	}
	if highest != nil && v > *highest {
		return false
	}
	return true
}

func withinDates(t time.Time, oldest, newest *time.Time) bool {
	if oldest != nil && t.Before(*oldest) {
		return false
	}
	if newest != nil && t.After(*newest) {
		return false
	}
	return true
}

func checkRange(name string, lowest, highest *float64, lo, hi float64) error {
	for _, v := range []*float64{lowest, highest} {
		if v != nil && (*v < lo || *v > hi) {
			return fmt.Errorf("%w: %s bound %v outside [%v, %v]", ErrInvalidInput, name, *v, lo, hi)
		}
	}
	if lowest != nil && highest != nil && *lowest > *highest {
		return fmt.Errorf("%w: lowest %s above highest", ErrInvalidInput, name)
	}
	return nil
}

func checkDateRange(name string, oldest, newest *time.Time) error {
	if oldest != nil && newest != nil && oldest.After(*newest) {
		return fmt.Errorf("%w: oldest %s after newest", ErrInvalidInput, name)
	}
	return nil
}
