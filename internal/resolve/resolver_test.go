package resolve

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-labs/veridian/internal/canonical"
	"github.com/veridian-labs/veridian/internal/match"
	"github.com/veridian-labs/veridian/internal/model"
)

func newTestResolver() *Resolver {
	return New(match.NameScorer{}, DefaultConfig())
}

func mustCanonicalize(t *testing.T, record model.IdentityRecord) model.CanonicalForm {
	t.Helper()
	form, err := canonical.New(nil).Canonicalize(record)
	require.NoError(t, err)
	return form
}

func TestResolveMergesNearIdenticalRecords(t *testing.T) {
	resolver := newTestResolver()

	first := resolver.Resolve(mustCanonicalize(t, model.IdentityRecord{
		Name:        "John Doe",
		DateOfBirth: "1980-01-15",
		Nationality: "US",
	}))
	second := resolver.Resolve(mustCanonicalize(t, model.IdentityRecord{
		Name:        "JOHN   DOE",
		DateOfBirth: "1980-01-15",
		Nationality: "us",
	}))

	// Case and whitespace variants canonicalize identically, so the second
	// record is the same member, not a new one.
	assert.Equal(t, first.ClusterID, second.ClusterID)
	assert.Len(t, second.MemberHashes, 1)

	third := resolver.Resolve(mustCanonicalize(t, model.IdentityRecord{
		Name:        "Jon Doe",
		DateOfBirth: "1980-01-15",
		Nationality: "US",
	}))
	assert.Equal(t, first.ClusterID, third.ClusterID, "near-identical variant should merge")
	assert.Len(t, third.MemberHashes, 2)
}

func TestResolveIdempotent(t *testing.T) {
	resolver := newTestResolver()
	form := mustCanonicalize(t, model.IdentityRecord{Name: "Jane Roe", DateOfBirth: "1975-06-02"})

	first := resolver.Resolve(form)
	second := resolver.Resolve(form)

	assert.Equal(t, first.ClusterID, second.ClusterID)
	assert.Equal(t, first.MemberHashes, second.MemberHashes)
	assert.Len(t, resolver.Entities(), 1)
}

func TestResolveKeepsDistinctPartiesApart(t *testing.T) {
	resolver := newTestResolver()

	a := resolver.Resolve(mustCanonicalize(t, model.IdentityRecord{
		Name:        "John Doe",
		DateOfBirth: "1980-01-15",
	}))
	b := resolver.Resolve(mustCanonicalize(t, model.IdentityRecord{
		Name:        "Jonah Donahue",
		DateOfBirth: "1980-03-20",
	}))

	assert.NotEqual(t, a.ClusterID, b.ClusterID)
	assert.Len(t, resolver.Entities(), 2)
}

func TestResolveSingletonCluster(t *testing.T) {
	resolver := newTestResolver()
	form := mustCanonicalize(t, model.IdentityRecord{Name: "Solo Person"})

	entity := resolver.Resolve(form)

	assert.Equal(t, form.Hash, entity.ClusterID, "singleton cluster id is the member's canonical hash")
	assert.Equal(t, []string{form.Hash}, entity.MemberHashes)
}

func TestResolveMergesAttributesLongestWins(t *testing.T) {
	resolver := newTestResolver()

	resolver.Resolve(mustCanonicalize(t, model.IdentityRecord{
		Name:        "John Doe",
		DateOfBirth: "1980-01-15",
	}))
	merged := resolver.Resolve(mustCanonicalize(t, model.IdentityRecord{
		Name:        "John Doe",
		DateOfBirth: "1980-01-15",
		Nationality: "US",
	}))

	assert.Equal(t, "US", merged.Attributes[model.FieldNationality],
		"new non-empty field should enrich the cluster")
	assert.Equal(t, "john doe", merged.Attributes[model.FieldName])
}

func TestResolveConcurrentDuplicates(t *testing.T) {
	resolver := newTestResolver()
	form := mustCanonicalize(t, model.IdentityRecord{Name: "Race Person", DateOfBirth: "1990-09-09"})

	const workers = 16
	clusterIDs := make([]string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clusterIDs[i] = resolver.Resolve(form).ClusterID
		}(i)
	}
	wg.Wait()

	for _, id := range clusterIDs {
		assert.Equal(t, clusterIDs[0], id)
	}
	entity, ok := resolver.Entity(clusterIDs[0])
	require.True(t, ok)
	assert.Len(t, entity.MemberHashes, 1, "concurrent duplicates must not double-count membership")
}

// constantScorer makes every candidate pair score identically, forcing the
// resolver to decide merges on the tie-break rule alone.
type constantScorer struct{ score float64 }

func (s constantScorer) Score(_, _ string) float64 { return s.score }

func TestResolveTieBreaksOnSmallestClusterID(t *testing.T) {
	seeds := []model.ResolvedEntity{
		{
			ClusterID:    "sha256:bbbb",
			MemberHashes: []string{"sha256:bbbb"},
			Attributes:   map[string]string{model.FieldName: "beta smith"},
		},
		{
			ClusterID:    "sha256:aaaa",
			MemberHashes: []string{"sha256:aaaa"},
			Attributes:   map[string]string{model.FieldName: "alpha smith"},
		},
	}

	// Both seed orders must land the new member in the same cluster; the
	// winner is the smallest cluster id, not whichever enumerates first.
	orders := map[string][]model.ResolvedEntity{
		"larger id seeded first":  {seeds[0], seeds[1]},
		"smaller id seeded first": {seeds[1], seeds[0]},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			resolver := New(constantScorer{score: 0.9}, DefaultConfig())
			resolver.Seed(order)

			entity := resolver.Resolve(model.CanonicalForm{
				Fields: map[string]string{model.FieldName: "carol smith"},
				Hash:   "sha256:cccc",
			})

			assert.Equal(t, "sha256:aaaa", entity.ClusterID)
			assert.Contains(t, entity.MemberHashes, "sha256:cccc")

			other, ok := resolver.Entity("sha256:bbbb")
			require.True(t, ok)
			assert.Len(t, other.MemberHashes, 1, "losing cluster must be untouched")
		})
	}
}

func TestSeedRestoresClusters(t *testing.T) {
	resolver := newTestResolver()
	form := mustCanonicalize(t, model.IdentityRecord{Name: "John Doe", DateOfBirth: "1980-01-15"})
	original := resolver.Resolve(form)

	restored := newTestResolver()
	restored.Seed(resolver.Entities())

	// Same form resolves to the restored cluster without creating a new one.
	entity := restored.Resolve(form)
	assert.Equal(t, original.ClusterID, entity.ClusterID)
	assert.Len(t, restored.Entities(), 1)
}

func TestBlockingKey(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		want   string
	}{
		{
			name:   "name and birth year",
			fields: map[string]string{model.FieldName: "john doe", model.FieldDateOfBirth: "1980-01-15"},
			want:   "doe|1980",
		},
		{
			name:   "name only",
			fields: map[string]string{model.FieldName: "john doe"},
			want:   "doe",
		},
		{
			name:   "single token name",
			fields: map[string]string{model.FieldName: "madonna", model.FieldDateOfBirth: "1958-08-16"},
			want:   "madonna|1958",
		},
		{
			name:   "empty fields",
			fields: map[string]string{},
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BlockingKey(tt.fields))
		})
	}
}

func TestSimilarityRenormalizesMissingFields(t *testing.T) {
	resolver := newTestResolver()

	// Name-only forms compare on name alone; a perfect name match must
	// score 1.0, not be dragged down by absent fields.
	score := resolver.similarity(
		map[string]string{model.FieldName: "john doe"},
		map[string]string{model.FieldName: "john doe"},
	)
	assert.Equal(t, 1.0, score)
}

func TestDateSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, dateSimilarity("1980-01-15", "1980-01-15"))
	assert.Equal(t, 0.7, dateSimilarity("1980-01-15", "1980-01-20"), "same year and month")
	assert.Equal(t, 0.7, dateSimilarity("1980-03-07", "1980-07-03"), "transposed day and month")
	assert.Equal(t, 0.0, dateSimilarity("1980-01-15", "1991-11-30"))
}

func TestDocumentNumberComparisonIgnoresSeparators(t *testing.T) {
	resolver := newTestResolver()

	score := resolver.similarity(
		map[string]string{model.FieldName: "john doe", model.FieldDocumentNumber: "X-123 456"},
		map[string]string{model.FieldName: "john doe", model.FieldDocumentNumber: "x123456"},
	)
	assert.Equal(t, 1.0, score)
}
