package logic

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
	"github.com/osuchan/stats-api/internal/osuapi"
)

const (
	// TopScoreCount is the number of best scores that contribute to derived stats.
	TopScoreCount = 100
	// BeatmapFetchConcurrency bounds parallel beatmap lookups during ingestion.
	BeatmapFetchConcurrency = 8
)

type ingestionService struct {
	source      DataSource
	calculators map[osu.Gamemode]PPCalculator
	logger      *zap.SugaredLogger
}

// NewIngestionService creates the score ingestion engine. calculators may be nil,
// in which case records without pp are discarded.
func NewIngestionService(source DataSource, calculators map[osu.Gamemode]PPCalculator, logger *zap.Logger) IngestionService {
	return &ingestionService{
		source:      source,
		calculators: calculators,
		logger:      logger.Sugar(),
	}
}

type candidate struct {
	score *models.Score
	hasPP bool
}

// AddScoresFromData merges records into the stored best scores of stats' user
// and recomputes the derived stats. It must run inside the caller's transaction.
func (s *ingestionService) AddScoresFromData(ctx context.Context, q Queries, stats *models.UserStats, records []models.ScoreData) ([]*models.Score, error) {
	if stats == nil || stats.UserID == 0 {
		return nil, fmt.Errorf("%w: stats without user", ErrInvalidInput)
	}

	candidates := make([]candidate, 0, len(records))
	var beatmapIDs []int64
	seen := make(map[int64]bool)
	for i := range records {
		rec := &records[i]
		if rec.Failed() {
			scoresDiscarded.WithLabelValues("failed").Inc()
			continue
		}
		score, err := rec.ToScore(stats.UserID, stats.Gamemode)
		if err != nil {
			s.logger.Warnw("Discarding malformed score record", "user", stats.UserID, "error", err)
			scoresDiscarded.WithLabelValues("malformed").Inc()
			continue
		}
		candidates = append(candidates, candidate{score: score, hasPP: rec.PP != nil})
		if !seen[score.BeatmapID] {
			seen[score.BeatmapID] = true
			beatmapIDs = append(beatmapIDs, score.BeatmapID)
		}
	}

	beatmaps, err := s.resolveBeatmaps(ctx, q, beatmapIDs)
	if err != nil {
		return nil, err
	}

	resolved := make([]*models.Score, 0, len(candidates))
	for _, c := range candidates {
		beatmap, ok := beatmaps[c.score.BeatmapID]
		if !ok {
			scoresDiscarded.WithLabelValues("beatmap").Inc()
			continue
		}
		c.score.Beatmap = beatmap

		if !c.hasPP {
			pp, ok := s.calculatePP(c.score, beatmap)
			if !ok {
				scoresDiscarded.WithLabelValues("no_pp").Inc()
				continue
			}
			c.score.PP = pp
		}
		resolved = append(resolved, c.score)
	}

	stored, err := q.ListUserScores(ctx, stats.UserID, stats.Gamemode)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	current := make(map[models.ScoreKey]*models.Score, len(stored))
	for _, sc := range stored {
		if prev, ok := current[sc.Key()]; !ok || betterScore(sc, prev) {
			current[sc.Key()] = sc
		}
	}

	var changed []*models.Score
	for _, sc := range bestPerKey(resolved) {
		prev, ok := current[sc.Key()]
		switch {
		case !ok:
			if err := q.InsertScore(ctx, sc); err != nil {
				return nil, fmt.Errorf("failed to insert score: %w", err)
			}
			scoresIngested.WithLabelValues("inserted").Inc()
		case sc.PP > prev.PP:
			sc.ID = prev.ID
			if err := q.UpdateScore(ctx, sc); err != nil {
				return nil, fmt.Errorf("failed to update score: %w", err)
			}
			scoresIngested.WithLabelValues("updated").Inc()
		default:
			scoresIngested.WithLabelValues("unchanged").Inc()
			continue
		}
		current[sc.Key()] = sc
		changed = append(changed, sc)
	}

	all := make([]*models.Score, 0, len(current))
	for _, sc := range current {
		all = append(all, sc)
	}
	applyDerivedStats(stats, all)

	if err := q.SaveUserStats(ctx, stats); err != nil {
		return nil, fmt.Errorf("failed to save stats: %w", err)
	}

	s.logger.Infow("Scores ingested",
		"user", stats.UserID,
		"gamemode", stats.Gamemode,
		"records", len(records),
		"changed", len(changed),
	)
	return changed, nil
}

// resolveBeatmaps loads beatmaps, fetching and caching the ones missing
// locally. Beatmaps unknown upstream are left out of the result.
func (s *ingestionService) resolveBeatmaps(ctx context.Context, q Queries, ids []int64) (map[int64]*models.Beatmap, error) {
	if len(ids) == 0 {
		return map[int64]*models.Beatmap{}, nil
	}

	found, err := q.GetBeatmaps(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load beatmaps: %w", err)
	}
	if found == nil {
		found = make(map[int64]*models.Beatmap, len(ids))
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	// Fetch concurrently, then save on the transaction one at a time
	fetched := make([]*models.Beatmap, len(missing))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(BeatmapFetchConcurrency)
	for i, id := range missing {
		g.Go(func() error {
			data, err := s.source.GetBeatmap(gctx, id)
			if errors.Is(err, osuapi.ErrNotFound) {
				s.logger.Warnw("Beatmap not found upstream", "beatmap", id)
				return nil
			}
			if err != nil {
				return upstreamErr(err)
			}
			beatmap, err := data.ToBeatmap()
			if err != nil {
				return fmt.Errorf("%w: beatmap %d: %w", ErrUpstream, id, err)
			}
			fetched[i] = beatmap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, beatmap := range fetched {
		if beatmap == nil {
			continue
		}
		if err := q.SaveBeatmap(ctx, beatmap); err != nil {
			return nil, fmt.Errorf("failed to save beatmap %d: %w", beatmap.ID, err)
		}
		found[beatmap.ID] = beatmap
	}
	return found, nil
}

func (s *ingestionService) CanComputePP(mode osu.Gamemode) bool {
	return s.calculators[mode] != nil
}

func (s *ingestionService) calculatePP(score *models.Score, beatmap *models.Beatmap) (float64, bool) {
	calc, ok := s.calculators[score.Gamemode]
	if !ok || calc == nil {
		return 0, false
	}
	pp, err := calc.Calculate(score, beatmap)
	if err != nil {
		s.logger.Warnw("PP calculation failed", "beatmap", beatmap.ID, "mods", score.Mods.String(), "error", err)
		return 0, false
	}
	return pp, true
}

// betterScore orders plays for the same slot: higher pp, then higher total
// score, then the earlier play.
func betterScore(a, b *models.Score) bool {
	if a.PP != b.PP {
		return a.PP > b.PP
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.ID != 0 && (b.ID == 0 || a.ID < b.ID)
}

// bestPerKey keeps the best score per (beatmap, scoring bucket), ordered by key.
func bestPerKey(scores []*models.Score) []*models.Score {
	best := make(map[models.ScoreKey]*models.Score, len(scores))
	for _, sc := range scores {
		if prev, ok := best[sc.Key()]; !ok || betterScore(sc, prev) {
			best[sc.Key()] = sc
		}
	}

	out := make([]*models.Score, 0, len(best))
	for _, sc := range best {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BeatmapID != out[j].BeatmapID {
			return out[i].BeatmapID < out[j].BeatmapID
		}
		return out[i].Mods.ScoringBucket() < out[j].Mods.ScoringBucket()
	})
	return out
}

// bestPerBeatmap keeps the best score per beatmap, ordered by pp descending.
func bestPerBeatmap(scores []*models.Score) []*models.Score {
	best := make(map[int64]*models.Score, len(scores))
	for _, sc := range scores {
		if prev, ok := best[sc.BeatmapID]; !ok || betterScore(sc, prev) {
			best[sc.BeatmapID] = sc
		}
	}

	out := make([]*models.Score, 0, len(best))
	for _, sc := range best {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PP != out[j].PP {
			return out[i].PP > out[j].PP
		}
		return out[i].BeatmapID < out[j].BeatmapID
	})
	return out
}

// applyDerivedStats recomputes extra pp and the score style averages from the
// full set of stored scores.
func applyDerivedStats(stats *models.UserStats, scores []*models.Score) {
	top := bestPerBeatmap(scores)
	if len(top) > TopScoreCount {
		top = top[:TopScoreCount]
	}

	var weightedPP, weightSum, acc, bpm, length, cs, ar, od float64
	for i, sc := range top {
		w := osu.Weight(i)
		weightedPP += sc.PP * w
		weightSum += w
		acc += sc.Accuracy * w

		if sc.Beatmap == nil {
			continue
		}
		d := sc.Beatmap.Difficulty().Adjust(sc.Mods)
		bpm += d.BPM * w
		length += float64(d.DrainTime) * w
		cs += d.CS * w
		ar += d.AR * w
		od += d.OD * w
	}

	stats.ExtraPP = stats.PP - weightedPP
	if weightSum == 0 {
		stats.ScoreStyleAccuracy = 0
		stats.ScoreStyleBPM = 0
		stats.ScoreStyleLength = 0
		stats.ScoreStyleCS = 0
		stats.ScoreStyleAR = 0
		stats.ScoreStyleOD = 0
		return
	}
	stats.ScoreStyleAccuracy = acc / weightSum
	stats.ScoreStyleBPM = bpm / weightSum
	stats.ScoreStyleLength = length / weightSum
	stats.ScoreStyleCS = cs / weightSum
	stats.ScoreStyleAR = ar / weightSum
	stats.ScoreStyleOD = od / weightSum
}
