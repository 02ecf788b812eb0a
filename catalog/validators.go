package catalog

import (
	"time"

	"yamdb-api/common"
)

// Now is the clock used by year validation; tests swap it out
var Now = time.Now

const MaxNameLength = 256

// ValidateYear rejects years later than the current calendar year
func ValidateYear(value int) *common.ValidationError {
	if current := Now().Year(); value > current {
		return common.NewValidationError("year", "Year %d must not be later than %d", value, current)
	}
	return nil
}

// ValidateName checks the shared name field of categories, genres and titles
func ValidateName(value string) *common.ValidationError {
	if value == "" {
		return common.NewValidationError("name", "Name is required")
	}
	if len(value) > MaxNameLength {
		return common.NewValidationError("name", "Name must be at most %d characters", MaxNameLength)
	}
	return nil
}
