package model

// ResolvedEntity is a cluster of canonical forms believed to denote one
// real-world party. The cluster id is derived from the first member's hash
// and is never reassigned once issued.
type ResolvedEntity struct {
	ClusterID    string            `json:"cluster_id"`
	MemberHashes []string          `json:"member_hashes"`
	Attributes   map[string]string `json:"attributes"`
}

// HasMember reports whether the canonical form with the given hash already
// belongs to this cluster.
func (e *ResolvedEntity) HasMember(hash string) bool {
	for _, h := range e.MemberHashes {
		if h == hash {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hold a snapshot of the entity
// without racing resolver merges.
func (e *ResolvedEntity) Clone() ResolvedEntity {
	out := ResolvedEntity{
		ClusterID:    e.ClusterID,
		MemberHashes: make([]string, len(e.MemberHashes)),
		Attributes:   make(map[string]string, len(e.Attributes)),
	}
	copy(out.MemberHashes, e.MemberHashes)
	for k, v := range e.Attributes {
		out.Attributes[k] = v
	}
	return out
}
