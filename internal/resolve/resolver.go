// Package resolve clusters canonical identity forms that denote the same
// real-world party, using blocking keys, pairwise similarity and union
// merging.
package resolve

import (
	"hash/fnv"
	"sort"
	"strings"
	"sync"

	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/service"
)

// stripeCount is the number of blocking-key mutex stripes. Resolution for a
// given key is serialized; keys on different stripes proceed in parallel.
const stripeCount = 64

// Weights control the contribution of each field to the pairwise similarity
// score. Fields missing on either side are excluded and the remaining weights
// renormalized, so sparse records are never penalized for absent fields.
type Weights struct {
	Name        float64
	DateOfBirth float64
	Nationality float64
	Document    float64
}

// Config holds resolver tuning parameters.
type Config struct {
	Weights        Weights
	MergeThreshold float64
}

// DefaultConfig returns the documented default thresholds and weights.
func DefaultConfig() Config {
	return Config{
		MergeThreshold: 0.85,
		Weights: Weights{
			Name:        0.50,
			DateOfBirth: 0.25,
			Nationality: 0.10,
			Document:    0.15,
		},
	}
}

// Resolver maintains process-scoped cluster state across calls. Construct one
// per service instance and share it; all methods are safe for concurrent use.
type Resolver struct {
	scorer      service.Scorer
	cfg         Config
	mu          sync.RWMutex
	blocks      map[string][]string
	clusters    map[string]*model.ResolvedEntity
	memberIndex map[string]string
	stripes     [stripeCount]sync.Mutex
}

// New creates a resolver with the given scorer and configuration.
func New(scorer service.Scorer, cfg Config) *Resolver {
	return &Resolver{
		scorer:      scorer,
		cfg:         cfg,
		blocks:      make(map[string][]string),
		clusters:    make(map[string]*model.ResolvedEntity),
		memberIndex: make(map[string]string),
	}
}

// Resolve assigns the canonical form to a cluster and returns a snapshot of
// that cluster. Resolving the same form twice is idempotent: it returns the
// same cluster id and does not double-count membership.
func (r *Resolver) Resolve(form model.CanonicalForm) model.ResolvedEntity {
	if entity, ok := r.lookupMember(form.Hash); ok {
		return entity
	}

	key := BlockingKey(form.Fields)
	stripe := &r.stripes[stripeFor(key)]
	stripe.Lock()
	defer stripe.Unlock()

	// Re-check under the stripe lock; an identical form resolves to the
	// same blocking key, so a concurrent duplicate lands on this stripe.
	if entity, ok := r.lookupMember(form.Hash); ok {
		return entity
	}

	bestID, bestScore := r.bestCandidate(key, form)

	r.mu.Lock()
	defer r.mu.Unlock()

	if bestID != "" && bestScore >= r.cfg.MergeThreshold {
		cluster := r.clusters[bestID]
		cluster.MemberHashes = append(cluster.MemberHashes, form.Hash)
		mergeAttributes(cluster.Attributes, form.Fields)
		r.memberIndex[form.Hash] = bestID
		r.indexBlock(key, bestID)
		return cluster.Clone()
	}

	cluster := &model.ResolvedEntity{
		ClusterID:    form.Hash,
		MemberHashes: []string{form.Hash},
		Attributes:   make(map[string]string, len(form.Fields)),
	}
	mergeAttributes(cluster.Attributes, form.Fields)
	r.clusters[cluster.ClusterID] = cluster
	r.memberIndex[form.Hash] = cluster.ClusterID
	r.indexBlock(key, cluster.ClusterID)
	return cluster.Clone()
}

// Entity returns a snapshot of the cluster with the given id.
func (r *Resolver) Entity(clusterID string) (model.ResolvedEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cluster, ok := r.clusters[clusterID]
	if !ok {
		return model.ResolvedEntity{}, false
	}
	return cluster.Clone(), true
}

// Entities returns snapshots of all clusters, ordered by cluster id.
func (r *Resolver) Entities() []model.ResolvedEntity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ResolvedEntity, 0, len(r.clusters))
	for _, cluster := range r.clusters {
		out = append(out, cluster.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClusterID < out[j].ClusterID })
	return out
}

// Seed rehydrates cluster state, typically from storage at service start.
func (r *Resolver) Seed(entities []model.ResolvedEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range entities {
		entity := entities[i].Clone()
		r.clusters[entity.ClusterID] = &entity
		for _, hash := range entity.MemberHashes {
			r.memberIndex[hash] = entity.ClusterID
		}
		r.indexBlock(BlockingKey(entity.Attributes), entity.ClusterID)
	}
}

func (r *Resolver) lookupMember(hash string) (model.ResolvedEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cid, ok := r.memberIndex[hash]
	if !ok {
		return model.ResolvedEntity{}, false
	}
	return r.clusters[cid].Clone(), true
}

// bestCandidate scores the form against every cluster indexed under the
// blocking key. Ties are broken by smallest cluster id so the oldest cluster
// wins regardless of enumeration order.
func (r *Resolver) bestCandidate(key string, form model.CanonicalForm) (string, float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var bestID string
	var bestScore float64
	for _, cid := range r.blocks[key] {
		cluster, ok := r.clusters[cid]
		if !ok {
			continue
		}
		score := r.similarity(form.Fields, cluster.Attributes)
		if score > bestScore || (score == bestScore && bestScore > 0 && (bestID == "" || cid < bestID)) {
			bestID = cid
			bestScore = score
		}
	}
	return bestID, bestScore
}

// similarity computes the weighted field similarity between a form and a
// cluster's representative attributes, in [0,1].
func (r *Resolver) similarity(a, b map[string]string) float64 {
	w := r.cfg.Weights
	var total, weightSum float64

	total += w.Name * r.scorer.Score(a[model.FieldName], b[model.FieldName])
	weightSum += w.Name

	if av, bv := a[model.FieldDateOfBirth], b[model.FieldDateOfBirth]; av != "" && bv != "" {
		total += w.DateOfBirth * dateSimilarity(av, bv)
		weightSum += w.DateOfBirth
	}

	if av, bv := a[model.FieldNationality], b[model.FieldNationality]; av != "" && bv != "" {
		if av == bv {
			total += w.Nationality
		}
		weightSum += w.Nationality
	}

	if av, bv := normalizeDoc(a[model.FieldDocumentNumber]), normalizeDoc(b[model.FieldDocumentNumber]); av != "" && bv != "" {
		if av == bv {
			total += w.Document
		}
		weightSum += w.Document
	}

	if weightSum == 0 {
		return 0
	}
	return total / weightSum
}

func (r *Resolver) indexBlock(key, clusterID string) {
	for _, cid := range r.blocks[key] {
		if cid == clusterID {
			return
		}
	}
	r.blocks[key] = append(r.blocks[key], clusterID)
}

// BlockingKey derives the coarse candidate-restriction key for a set of
// canonical fields: the final name token plus the birth year when present.
func BlockingKey(fields map[string]string) string {
	tokens := strings.Fields(fields[model.FieldName])
	last := ""
	if len(tokens) > 0 {
		last = tokens[len(tokens)-1]
	}
	if dob := fields[model.FieldDateOfBirth]; len(dob) >= 4 {
		return last + "|" + dob[:4]
	}
	return last
}

// dateSimilarity gives full credit for an exact date match and partial credit
// for near misses: same year and month, or a transposed day and month.
func dateSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 10 && len(b) == 10 {
		if a[:7] == b[:7] {
			return 0.7
		}
		if a[:4] == b[:4] && a[5:7] == b[8:10] && a[8:10] == b[5:7] {
			return 0.7
		}
	}
	return 0
}

func normalizeDoc(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.':
			return -1
		}
		return r
	}, s))
}

func stripeFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % stripeCount)
}

// mergeAttributes applies the longest-non-empty-value rule: a field is
// replaced only when the incoming value is strictly longer, so ties keep the
// earliest-inserted member's value.
func mergeAttributes(dst map[string]string, src map[string]string) {
	for k, v := range src {
		if v == "" {
			continue
		}
		if existing, ok := dst[k]; !ok || len(v) > len(existing) {
			dst[k] = v
		}
	}
}
