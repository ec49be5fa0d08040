package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureID(t *testing.T) {
	record := IdentityRecord{Name: "John Doe"}
	record.EnsureID()
	assert.True(t, strings.HasPrefix(record.ID, "ID-"))

	existing := IdentityRecord{ID: "ID-custom", Name: "John Doe"}
	existing.EnsureID()
	assert.Equal(t, "ID-custom", existing.ID, "a supplied id is never replaced")
}

func TestResolvedEntityClone(t *testing.T) {
	original := ResolvedEntity{
		ClusterID:    "sha256:cluster",
		MemberHashes: []string{"sha256:m1"},
		Attributes:   map[string]string{FieldName: "john doe"},
	}

	clone := original.Clone()
	clone.MemberHashes[0] = "sha256:other"
	clone.Attributes[FieldName] = "someone else"

	assert.Equal(t, "sha256:m1", original.MemberHashes[0])
	assert.Equal(t, "john doe", original.Attributes[FieldName])
}

func TestResolvedEntityHasMember(t *testing.T) {
	entity := ResolvedEntity{MemberHashes: []string{"sha256:m1", "sha256:m2"}}
	assert.True(t, entity.HasMember("sha256:m2"))
	assert.False(t, entity.HasMember("sha256:m3"))
}

func TestScreeningResultAccessors(t *testing.T) {
	empty := ScreeningResult{Outcome: OutcomeClear}
	assert.Equal(t, 0.0, empty.TopScore())
	assert.Equal(t, "", empty.TopEntryID())

	result := ScreeningResult{
		Outcome: OutcomeMatch,
		Matches: []ScreeningMatch{
			{Entry: WatchlistEntry{ID: "E-1"}, Score: 0.97},
			{Entry: WatchlistEntry{ID: "E-2"}, Score: 0.80},
		},
	}
	assert.Equal(t, 0.97, result.TopScore())
	assert.Equal(t, "E-1", result.TopEntryID())
}

func TestWatchlistSnapshotLen(t *testing.T) {
	var nilSnapshot *WatchlistSnapshot
	assert.Zero(t, nilSnapshot.Len())
	assert.Zero(t, (&WatchlistSnapshot{}).Len())
	assert.Equal(t, 1, (&WatchlistSnapshot{Entries: []WatchlistEntry{{ID: "E-1"}}}).Len())
}
