package domain

import (
	"errors"
	"fmt"
)

const (
	CodeNameRequired     = "domain.name_required"
	CodeZoneConflict     = "domain.zone_conflict"
	CodeUnsupportedInput = "domain.unsupported_input"
	CodeDuplicateName    = "domain.duplicate_name"
	CodeRedirectServed   = "domain.redirect_served"
)

var (
	ErrNameRequired   = errors.New("domain name required")
	ErrZoneConflict   = errors.New("hostedZone and hostedZoneId are mutually exclusive")
	ErrDuplicateName  = errors.New("domain name listed more than once")
	ErrRedirectServed = errors.New("redirect is also a served name")
)

// ValidationError reports an invalid domain configuration with a stable code.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches the package sentinels by code.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrNameRequired:
		return e.Code == CodeNameRequired
	case ErrZoneConflict:
		return e.Code == CodeZoneConflict
	case ErrDuplicateName:
		return e.Code == CodeDuplicateName
	case ErrRedirectServed:
		return e.Code == CodeRedirectServed
	default:
		return false
	}
}
