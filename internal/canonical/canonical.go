// Package canonical normalizes identity records into a deterministic form
// suitable for stable hashing and comparison.
package canonical

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/veridian-labs/veridian/internal/common"
	"github.com/veridian-labs/veridian/internal/model"
	"github.com/veridian-labs/veridian/internal/service"
)

// dateLayouts are the accepted input layouts for date_of_birth. Output is
// always time.DateOnly.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006/01/02",
}

// reservedKeys are the canonical field names that open extension attributes
// may not shadow. A collision would let an unvalidated attribute overwrite a
// validated field after folding.
var reservedKeys = map[string]struct{}{
	model.FieldName:           {},
	model.FieldDateOfBirth:    {},
	model.FieldNationality:    {},
	model.FieldDocumentType:   {},
	model.FieldDocumentNumber: {},
}

// Canonicalizer produces canonical forms from raw identity records. It is
// pure and safe for concurrent use.
type Canonicalizer struct {
	hasher service.Hasher
	pii    *PIIDetector
	folder cases.Caser
}

// New creates a canonicalizer with the given hasher. A nil hasher selects the
// default SHA-256 implementation.
func New(hasher service.Hasher) *Canonicalizer {
	if hasher == nil {
		hasher = SHA256Hasher{}
	}
	return &Canonicalizer{
		hasher: hasher,
		pii:    NewPIIDetector(),
		folder: cases.Fold(),
	}
}

// Canonicalize normalizes a record and derives its content hash. The result
// is independent of field insertion order, letter case, and whitespace.
// Returns a validation error when the name is absent or empty after
// normalization, and a security error when a sensitive attribute is present.
func (c *Canonicalizer) Canonicalize(record model.IdentityRecord) (model.CanonicalForm, error) {
	fields := make(map[string]string, 5+len(record.Attributes))

	name := c.foldText(record.Name)
	if name == "" {
		return model.CanonicalForm{}, common.NewValidationError(model.FieldName, common.ErrNameRequired)
	}
	fields[model.FieldName] = name

	if dob := strings.TrimSpace(record.DateOfBirth); dob != "" {
		normalized, err := normalizeDate(dob)
		if err != nil {
			return model.CanonicalForm{}, common.NewValidationError(model.FieldDateOfBirth, err)
		}
		fields[model.FieldDateOfBirth] = normalized
	}

	if nat := strings.TrimSpace(record.Nationality); nat != "" {
		fields[model.FieldNationality] = strings.ToUpper(nat)
	}

	if docType := c.foldText(record.DocumentType); docType != "" {
		fields[model.FieldDocumentType] = docType
	}

	if docNum := collapseWhitespace(record.DocumentNumber); docNum != "" {
		fields[model.FieldDocumentNumber] = docNum
	}

	// Open extension attributes pass through unvalidated, but sensitive
	// keys and values are refused so raw PII can never reach the audit log.
	for key, value := range record.Attributes {
		normKey := c.foldText(key)
		if normKey == "" {
			continue
		}
		if _, reserved := reservedKeys[normKey]; reserved {
			return model.CanonicalForm{}, common.NewValidationError(normKey, common.ErrReservedAttribute)
		}
		if err := c.pii.Check(normKey, value); err != nil {
			return model.CanonicalForm{}, err
		}
		if trimmed := collapseWhitespace(value); trimmed != "" {
			fields[normKey] = trimmed
		}
	}

	payload, err := JSON(fields)
	if err != nil {
		return model.CanonicalForm{}, fmt.Errorf("failed to serialize canonical form: %w", err)
	}

	return model.CanonicalForm{
		Fields: fields,
		Hash:   c.hasher.Hash(payload),
	}, nil
}

// Hasher returns the digest implementation in use.
func (c *Canonicalizer) Hasher() service.Hasher {
	return c.hasher
}

// JSON serializes a value to canonical JSON. encoding/json writes map keys in
// sorted order, which is the only ordering guarantee canonicalization needs.
func JSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// foldText trims, NFKC-normalizes, case-folds and collapses whitespace runs.
func (c *Canonicalizer) foldText(s string) string {
	return collapseWhitespace(c.folder.String(norm.NFKC.String(s)))
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizeDate(value string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	return "", fmt.Errorf("%w: %q", common.ErrInvalidDate, value)
}
