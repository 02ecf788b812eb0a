package users

import (
	"regexp"

	"yamdb-api/common"
)

// ReservedUsername cannot be registered; it aliases the self endpoint
const ReservedUsername = "me"

const MaxUsernameLength = 150

var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

// ValidateUsername checks the reserved-word and character-set rules
func ValidateUsername(value string) *common.ValidationError {
	if value == "" {
		return common.NewValidationError("username", "Username is required")
	}
	if value == ReservedUsername {
		return common.NewValidationError("username", "Username %q is reserved", ReservedUsername)
	}
	if len(value) > MaxUsernameLength {
		return common.NewValidationError("username", "Username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(value) {
		return common.NewValidationError("username", "Username may only contain letters, digits and @/./+/-/_ characters")
	}
	return nil
}
