package model

import "time"

// ScreeningOutcome classifies the result of screening an entity.
type ScreeningOutcome string

// Screening outcome constants.
const (
	OutcomeClear         ScreeningOutcome = "CLEAR"
	OutcomePossibleMatch ScreeningOutcome = "POSSIBLE_MATCH"
	OutcomeMatch         ScreeningOutcome = "MATCH"
)

// ScreeningMatch is one candidate watchlist hit with its confidence score and
// the fields that contributed to it.
type ScreeningMatch struct {
	Entry         WatchlistEntry `json:"entry"`
	Score         float64        `json:"score"`
	MatchedFields []string       `json:"matched_fields"`
}

// ScreeningResult is the ranked outcome of screening one resolved entity
// against a watchlist snapshot. Matches is empty for a CLEAR outcome.
type ScreeningResult struct {
	Matches []ScreeningMatch `json:"matches"`
	Outcome ScreeningOutcome `json:"outcome"`
}

// TopScore returns the highest match score, or 0 when there are no matches.
func (r ScreeningResult) TopScore() float64 {
	if len(r.Matches) == 0 {
		return 0
	}
	return r.Matches[0].Score
}

// TopEntryID returns the identifier of the best-scoring watchlist entry, or
// "" when there are no matches.
func (r ScreeningResult) TopEntryID() string {
	if len(r.Matches) == 0 {
		return ""
	}
	return r.Matches[0].Entry.ID
}

// Verdict is the immutable outcome of one identity verification run.
type Verdict struct {
	ClusterID      string           `json:"cluster_id"`
	CanonicalHash  string           `json:"canonical_hash"`
	Outcome        ScreeningOutcome `json:"outcome"`
	TopScore       float64          `json:"top_score"`
	MatchedEntryID string           `json:"matched_entry_id,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}
