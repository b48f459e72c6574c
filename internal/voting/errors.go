package voting

import (
	"fmt"
	"time"

	"github.com/openlexica/backend/internal/models"
)

// ValidationError rejects a malformed request before any store access.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// PermissionError is an abuse-guard denial. RetryAfter is non-zero only
// for cooldown denials.
type PermissionError struct {
	Reason     string
	RetryAfter time.Duration
}

func (e *PermissionError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %ds)", e.Reason, int(e.RetryAfter.Seconds()))
	}
	return e.Reason
}

// NotFoundError - the target or vote disappeared between check and mutation.
type NotFoundError struct {
	Kind models.TargetKind
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}
