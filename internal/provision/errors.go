package provision

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrTenantNotFound is returned when a referenced tenant id does not
// resolve for an operator-admin creation, update or delete.
var ErrTenantNotFound = errors.New("tenant not found")

// ValidationError reports a missing required input field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field missing: %s", e.Field)
}

// ConflictError reports a uniqueness violation on a specific field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already in use", e.Field)
}

// conflictOr maps a unique-constraint rejection from the store onto a
// field-specific ConflictError, leaving every other error untouched. The
// store constraint is the final authority for the check-then-act race the
// pre-flight checks cannot close.
func conflictOr(err error, field string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &ConflictError{Field: field}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") {
		return &ConflictError{Field: field}
	}
	return err
}
