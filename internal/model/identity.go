// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"

	"github.com/google/uuid"
)

// Well-known identity record field keys. Anything outside this set travels in
// the open Attributes map and is excluded from similarity scoring.
const (
	FieldName           = "name"
	FieldDateOfBirth    = "date_of_birth"
	FieldNationality    = "nationality"
	FieldDocumentType   = "document_type"
	FieldDocumentNumber = "document_number"
)

// IdentityRecord is a raw identity record as supplied by the caller.
// Name is required; every other field is optional. The record is treated as
// immutable once it enters the pipeline.
type IdentityRecord struct {
	ID             string            `json:"id,omitempty" yaml:"id,omitempty"`
	Name           string            `json:"name" yaml:"name"`
	DateOfBirth    string            `json:"date_of_birth,omitempty" yaml:"date_of_birth,omitempty"`
	Nationality    string            `json:"nationality,omitempty" yaml:"nationality,omitempty"`
	DocumentType   string            `json:"document_type,omitempty" yaml:"document_type,omitempty"`
	DocumentNumber string            `json:"document_number,omitempty" yaml:"document_number,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// EnsureID assigns a generated identifier when the caller did not supply one.
func (r *IdentityRecord) EnsureID() {
	if r.ID == "" {
		r.ID = fmt.Sprintf("ID-%s", uuid.NewString())
	}
}

// CanonicalForm is the deterministic, order-independent representation of an
// IdentityRecord together with its content hash. Two records with identical
// semantic content always yield identical canonical forms.
type CanonicalForm struct {
	Fields map[string]string `json:"fields"`
	Hash   string            `json:"hash"`
}

// Field returns the normalized value for a field key, or "" when absent.
func (c CanonicalForm) Field(key string) string {
	return c.Fields[key]
}

// Name returns the normalized name field.
func (c CanonicalForm) Name() string {
	return c.Fields[FieldName]
}
