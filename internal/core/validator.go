package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"airline/internal/types"
)

// registrationCodeRe matches plane registration codes, e.g. "EC-AA1".
var registrationCodeRe = regexp.MustCompile(`^[A-Z0-9]+-[A-Z0-9]+$`)

// routePointRe matches origin/destination values: letters and spaces only.
var routePointRe = regexp.MustCompile(`^[a-zA-Z ]+$`)

// Validator wraps go-playground/validator with the domain-specific rules used
// by request structs:
//
//   - route_point:        letters and spaces only (origin/destination)
//   - registration_code:  [A-Z0-9]+-[A-Z0-9]+
//   - future:             a time.Time strictly after now
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator and registers the custom tags.
func NewValidator() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := v.RegisterValidation("route_point", func(fl validator.FieldLevel) bool {
		return routePointRe.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	if err := v.RegisterValidation("registration_code", func(fl validator.FieldLevel) bool {
		return registrationCodeRe.MatchString(fl.Field().String())
	}); err != nil {
		return nil, err
	}

	if err := v.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return t.After(time.Now())
	}); err != nil {
		return nil, err
	}

	return &Validator{validate: v}, nil
}

// ValidateStruct runs the validate tags on the given struct and translates the
// first violation into a *types.AppError suitable for direct client exposure.
// Returns nil when the struct is valid.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return types.NewAppError(types.ErrCodeValidationInvalidField, "invalid request", err)
	}

	fe := verrs[0]
	field := jsonFieldName(fe)
	return types.NewAppErrorWithDetails(
		codeForTag(fe.Tag()),
		messageFor(field, fe.Tag()),
		err,
		map[string]any{"field": field, "rule": fe.Tag()},
	)
}

// jsonFieldName lowercases the struct field name to its snake_case JSON form.
// Request structs in this codebase keep field and JSON names aligned, so a
// simple camel-to-snake conversion is sufficient.
func jsonFieldName(fe validator.FieldError) string {
	name := fe.Field()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// codeForTag maps a validation tag to the ErrorCode reported to the client.
func codeForTag(tag string) types.ErrorCode {
	switch tag {
	case "required":
		return types.ErrCodeValidationMissingField
	default:
		return types.ErrCodeValidationInvalidField
	}
}

// messageFor builds the human-readable message for a single field violation.
func messageFor(field, tag string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s must not be empty", field)
	case "route_point":
		return fmt.Sprintf("%s can only contain letters and spaces", field)
	case "registration_code":
		return fmt.Sprintf("%s must follow this format [A-Z0-9]+-[A-Z0-9]+", field)
	case "future":
		return fmt.Sprintf("%s must be a future date", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s is too short", field)
	case "max":
		return fmt.Sprintf("%s is too long", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
