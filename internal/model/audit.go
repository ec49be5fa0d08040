package model

// AuditRecord is one link in the append-only audit chain. Each record stores
// the hash of its predecessor and its own hash over
// prev_hash || canonical_json(verdict), so any mutation of a past record is
// detectable by re-walking the chain.
type AuditRecord struct {
	Seq      int64   `json:"seq"`
	PrevHash string  `json:"prev_hash"`
	Hash     string  `json:"hash"`
	Verdict  Verdict `json:"verdict"`
}
