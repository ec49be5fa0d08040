package canonical

import (
	"regexp"

	"github.com/veridian-labs/veridian/internal/common"
)

// sensitiveKeys are attribute keys that must never enter a canonical form in
// raw form, because canonical forms feed the audit log.
var sensitiveKeys = map[string]struct{}{
	"ssn":                    {},
	"social_security_number": {},
	"tax_id":                 {},
	"card_number":            {},
	"account_number":         {},
	"password":               {},
}

var (
	ssnPattern  = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	cardPattern = regexp.MustCompile(`^(?:\d[ -]?){13,19}$`)
)

// PIIDetector guards canonicalization against sensitive data leaking into
// hashed, audited output.
type PIIDetector struct{}

// NewPIIDetector creates a detector with the built-in key and pattern sets.
func NewPIIDetector() *PIIDetector {
	return &PIIDetector{}
}

// Check returns a security error when the attribute key is flagged sensitive
// or the value looks like a national id or card number.
func (d *PIIDetector) Check(key, value string) error {
	if _, ok := sensitiveKeys[key]; ok {
		return common.NewSecurityError(key, common.ErrSensitiveData)
	}
	if d.Sensitive(value) {
		return common.NewSecurityError(key, common.ErrSensitiveData)
	}
	return nil
}

// Sensitive reports whether a value matches a known PII pattern.
func (d *PIIDetector) Sensitive(value string) bool {
	return ssnPattern.MatchString(value) || cardPattern.MatchString(value)
}
