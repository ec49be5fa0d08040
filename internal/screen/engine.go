// Package screen matches resolved entities against watchlist snapshots and
// classifies the outcome.
package screen

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/service"
)

// Config holds screening thresholds. Scores at or above MatchThreshold
// classify as MATCH, between FloorThreshold and MatchThreshold as
// POSSIBLE_MATCH, and entries below FloorThreshold are discarded.
type Config struct {
	MatchThreshold   float64
	FloorThreshold   float64
	NationalityBoost float64
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:   0.90,
		FloorThreshold:   0.65,
		NationalityBoost: 0.05,
	}
}

// Engine screens entities against watchlist snapshots. It is pure and safe
// for concurrent use; each call reads exactly one snapshot.
type Engine struct {
	scorer service.Scorer
	folder cases.Caser
	cfg    Config
}

// New creates a screening engine with the given scorer and configuration.
func New(scorer service.Scorer, cfg Config) *Engine {
	return &Engine{
		scorer: scorer,
		folder: cases.Fold(),
		cfg:    cfg,
	}
}

// Screen scores the entity's representative attributes against every entry in
// the snapshot. Retained candidates are sorted descending by score, with ties
// broken by source priority and then entry id, so repeated calls over the
// same snapshot return identical ordered results. An empty snapshot yields a
// CLEAR result, not an error.
func (e *Engine) Screen(entity model.ResolvedEntity, snapshot *model.WatchlistSnapshot) model.ScreeningResult {
	result := model.ScreeningResult{Outcome: model.OutcomeClear}
	if snapshot.Len() == 0 {
		return result
	}

	name := entity.Attributes[model.FieldName]
	nationality := entity.Attributes[model.FieldNationality]

	for _, entry := range snapshot.Entries {
		score, matched := e.scoreEntry(name, nationality, entry)
		if score < e.cfg.FloorThreshold {
			continue
		}
		result.Matches = append(result.Matches, model.ScreeningMatch{
			Entry:         entry,
			Score:         score,
			MatchedFields: matched,
		})
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		a, b := result.Matches[i], result.Matches[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Entry.SourcePriority != b.Entry.SourcePriority {
			return a.Entry.SourcePriority < b.Entry.SourcePriority
		}
		return a.Entry.ID < b.Entry.ID
	})

	switch {
	case len(result.Matches) == 0:
		result.Outcome = model.OutcomeClear
	case result.Matches[0].Score >= e.cfg.MatchThreshold:
		result.Outcome = model.OutcomeMatch
	default:
		result.Outcome = model.OutcomePossibleMatch
	}

	return result
}

// scoreEntry combines name similarity, the best alias similarity, and
// nationality agreement. A missing nationality on either side is neutral,
// never a penalty.
func (e *Engine) scoreEntry(name, nationality string, entry model.WatchlistEntry) (float64, []string) {
	var matched []string

	score := e.scorer.Score(name, e.fold(entry.Name))
	if score > 0 {
		matched = append(matched, model.FieldName)
	}

	for _, alias := range entry.Aliases {
		if aliasScore := e.scorer.Score(name, e.fold(alias)); aliasScore > score {
			score = aliasScore
			matched = []string{"alias"}
		}
	}

	entryNat := strings.ToUpper(strings.TrimSpace(entry.Nationality))
	if nationality != "" && entryNat != "" && nationality == entryNat {
		score += e.cfg.NationalityBoost
		if score > 1 {
			score = 1
		}
		matched = append(matched, model.FieldNationality)
	}

	return score, matched
}

func (e *Engine) fold(s string) string {
	return strings.Join(strings.Fields(e.folder.String(norm.NFKC.String(s))), " ")
}
