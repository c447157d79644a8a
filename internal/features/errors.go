package features

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPrefecture is returned when an address names no Kansai prefecture.
	ErrUnknownPrefecture = errors.New("address does not resolve to a supported prefecture")

	// ErrBuildingAgeOutOfRange is returned when the derived building age is
	// negative or above the supported maximum.
	ErrBuildingAgeOutOfRange = errors.New("building age out of supported range")

	// ErrInvalidArea is returned for a non-positive floor area.
	ErrInvalidArea = errors.New("area must be positive")

	// ErrInvalidBuildingYear is returned when the building year is missing.
	ErrInvalidBuildingYear = errors.New("invalid building year")

	ErrInvalidStationMinutes = errors.New("station minutes must not be negative")
	ErrInvalidQuarter        = errors.New("quarter must be between 1 and 4")
)

// InputError is a rejected prediction request. The caller can fix it by
// correcting the named field.
type InputError struct {
	Field   string
	Err     error
	Message string
}

func (e *InputError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Field, e.Err, e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

func inputError(field string, err error, format string, args ...any) *InputError {
	return &InputError{Field: field, Err: err, Message: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err was caused by invalid user input.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
