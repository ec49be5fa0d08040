package testutil

import (
	"time"

	"github.com/veridian-labs/veridian/internal/model"
)

// WatchlistOption configures one entry on a WatchlistBuilder.
type WatchlistOption func(*model.WatchlistEntry)

// WithAliases sets the entry's aliases.
func WithAliases(aliases ...string) WatchlistOption {
	return func(e *model.WatchlistEntry) {
		e.Aliases = aliases
	}
}

// WithNationality sets the entry's nationality code.
func WithNationality(code string) WatchlistOption {
	return func(e *model.WatchlistEntry) {
		e.Nationality = code
	}
}

// WithPriority sets the entry's source priority.
func WithPriority(priority int) WatchlistOption {
	return func(e *model.WatchlistEntry) {
		e.SourcePriority = priority
	}
}

// WatchlistBuilder assembles watchlist snapshots for tests.
type WatchlistBuilder struct {
	entries []model.WatchlistEntry
	source  string
}

// NewWatchlistBuilder creates an empty builder with the fixture source name.
func NewWatchlistBuilder() *WatchlistBuilder {
	return &WatchlistBuilder{source: "fixture"}
}

// Entry appends an entry with the given id and name, applying any options.
func (b *WatchlistBuilder) Entry(id, name, category string, opts ...WatchlistOption) *WatchlistBuilder {
	entry := model.WatchlistEntry{
		ID:       id,
		Name:     name,
		Category: category,
		Source:   b.source,
	}
	for _, opt := range opts {
		opt(&entry)
	}
	b.entries = append(b.entries, entry)
	return b
}

// WithSanctionsFixtures appends a small realistic sanctions set.
func (b *WatchlistBuilder) WithSanctionsFixtures() *WatchlistBuilder {
	return b.
		Entry("OFAC-001", "osama bin laden", "sanctions",
			WithAliases("usama bin ladin"), WithNationality("SA"), WithPriority(1)).
		Entry("OFAC-002", "viktor bout", "sanctions",
			WithAliases("victor but"), WithNationality("RU"), WithPriority(1)).
		Entry("EU-001", "jane smith", "pep",
			WithNationality("GB"), WithPriority(2))
}

// Build returns the assembled snapshot.
func (b *WatchlistBuilder) Build() *model.WatchlistSnapshot {
	return &model.WatchlistSnapshot{
		Entries:  b.entries,
		Source:   b.source,
		LoadedAt: time.Now().UTC(),
	}
}

// Record returns a baseline identity record, mutated by the given overrides.
func Record(overrides ...func(*model.IdentityRecord)) model.IdentityRecord {
	record := model.IdentityRecord{
		Name:        "John Doe",
		DateOfBirth: "1980-01-15",
		Nationality: "US",
	}
	for _, override := range overrides {
		override(&record)
	}
	return record
}

// WithName overrides the record name.
func WithName(name string) func(*model.IdentityRecord) {
	return func(r *model.IdentityRecord) {
		r.Name = name
	}
}

// WithDOB overrides the record date of birth.
func WithDOB(dob string) func(*model.IdentityRecord) {
	return func(r *model.IdentityRecord) {
		r.DateOfBirth = dob
	}
}

// WithAttributes overrides the record's extension attributes.
func WithAttributes(attrs map[string]string) func(*model.IdentityRecord) {
	return func(r *model.IdentityRecord) {
		r.Attributes = attrs
	}
}
