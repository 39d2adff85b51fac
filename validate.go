package neosocial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/saulfrancisco-ruizacevedo/go-neosocial/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		item := sl.Current().Interface().(models.ListItem)
		if err := item.CheckTarget(); err != nil {
			sl.ReportError(item.TargetID(), "target", "Target", "exactly_one", "")
		}
	}, models.ListItem{})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(models.Comment)
		if err := c.CheckParent(); err != nil {
			sl.ReportError(c.PostID, "parent", "Parent", "exactly_one", "")
		}
	}, models.Comment{})
	return v
}

// validateStruct runs the struct tags of s and reports the first violation
// as a *ValidationError.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: lowerFirst(fe.Field()), Reason: describe(fe)}
}

// ValidateComment checks a comment before it is written: its required fields
// and that it answers exactly one post or parent comment. Violations are
// reported as a *ValidationError.
func ValidateComment(c models.Comment) error {
	return validateStruct(c)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "exactly_one":
		return "exactly one reference must be set"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func newUUID() string {
	return uuid.NewString()
}
