package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/veridian-labs/veridian/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidRecord = errors.New("invalid audit record")
	ErrInvalidEntity = errors.New("invalid entity")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAuditRecord validates an audit record before it is chained.
func validateAuditRecord(record *model.AuditRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.Seq < 0 {
		return fmt.Errorf("%w: negative sequence number", ErrInvalidRecord)
	}
	if record.Hash == "" {
		return fmt.Errorf("%w: missing hash", ErrInvalidRecord)
	}
	return nil
}

// validateEntity validates a resolved entity before persistence.
func validateEntity(entity *model.ResolvedEntity) error {
	if entity == nil {
		return fmt.Errorf("%w: entity", ErrNilParameter)
	}
	if entity.ClusterID == "" {
		return fmt.Errorf("%w: missing cluster id", ErrInvalidEntity)
	}
	if len(entity.MemberHashes) == 0 {
		return fmt.Errorf("%w: no members", ErrInvalidEntity)
	}
	return nil
}
