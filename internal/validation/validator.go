// Package validation provides entity validation using the validator/v10
// library, with failures converted to field->message maps.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/storykeep/storykeep-server/internal/errors"
)

// Loose patterns for the CSS color forms a List may use. They do not
// validate every legal CSS value, just enough to keep garbage out of
// rendered style attributes.
var reCSSColors = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^#[0-9A-F]{3}$|^#[0-9A-F]{6}$`),
	regexp.MustCompile(`(?i)^rgba?\(\d+,\d+,\d+(?:,(?:0?\.)?\d+)?\)$`),
	regexp.MustCompile(`(?i)^hsla?\(\d+,\d+%,\d+%(?:,(?:0?\.)?\d+)?\)$`),
	regexp.MustCompile(`(?i)^[a-z]{0,25}$`),
}

var reAllSpace = regexp.MustCompile(`\s+`)

// IsCSSColor reports whether the value looks like a usable CSS color:
// hex, rgb()/rgba(), hsl()/hsla(), or a bare color name.
func IsCSSColor(color string) bool {
	color = reAllSpace.ReplaceAllString(color, "")
	for _, pat := range reCSSColors {
		if pat.MatchString(color) {
			return true
		}
	}
	return false
}

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := 0; i < len(name); i++ {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	// List display colors.
	if err := v.RegisterValidation("csscolor", func(fl validator.FieldLevel) bool {
		return IsCSSColor(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register csscolor validation: %v", err))
	}

	return &Validator{v: v}
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Collect all field errors
	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
	}

	// Return domain validation error with details
	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", e.Param())
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "csscolor":
		return "is not a valid css color"
	default:
		return "is invalid"
	}
}
