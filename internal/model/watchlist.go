package model

import "time"

// WatchlistEntry is a reference entity supplied by an external screening data
// source. The core only reads these, never mutates them.
type WatchlistEntry struct {
	ID             string    `json:"id" yaml:"id"`
	Name           string    `json:"name" yaml:"name"`
	Aliases        []string  `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Nationality    string    `json:"nationality,omitempty" yaml:"nationality,omitempty"`
	Category       string    `json:"category,omitempty" yaml:"category,omitempty"`
	Source         string    `json:"source,omitempty" yaml:"source,omitempty"`
	SourcePriority int       `json:"source_priority,omitempty" yaml:"source_priority,omitempty"`
	EffectiveDate  time.Time `json:"effective_date,omitempty" yaml:"effective_date,omitempty"`
}

// WatchlistSnapshot is one internally-consistent view of a watchlist. A
// screening call always runs against a single snapshot, so concurrent
// refreshes never produce a torn read.
type WatchlistSnapshot struct {
	Entries  []WatchlistEntry
	Source   string
	LoadedAt time.Time
}

// Len returns the number of entries in the snapshot; safe on a nil snapshot.
func (s *WatchlistSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}
