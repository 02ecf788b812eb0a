package common

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ValidationError represents a single field-level validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a field error with a formatted message
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidationErrors collects field errors for a single request
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Add appends a field error
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, &ValidationError{Field: field, Message: message})
}

// AbortValidation writes the standard 400 envelope for field errors
func AbortValidation(c *gin.Context, errs ValidationErrors) {
	c.JSON(400, gin.H{"errors": errs})
}

// Email validation regex (simplified RFC 5322)
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email format is valid
func ValidateEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailRegex.MatchString(email)
}

// Slug validation regex, matching the catalog reference-key format
var slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidateSlug checks if a string is a well-formed slug
func ValidateSlug(s string) bool {
	if s == "" || len(s) > 50 {
		return false
	}
	return slugRegex.MatchString(s)
}

// ValidateRequired checks if a string field is not empty
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(field, "%s is required", field)
	}
	return nil
}

// ListParams applies optional limit/offset query parameters to a list query.
// Absent or malformed values leave the query untouched.
func ListParams(c *gin.Context, query *gorm.DB) *gorm.DB {
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		query = query.Limit(limit)
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// IsDuplicateError reports whether err is a storage uniqueness violation.
// SQLite surfaces these as plain errors, so the message is matched as well.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
