// Package validation checks user input against the storefront's form schemas.
// Failures are reported per field as message codes the UI translates.
package validation

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/redreport"
)

// Message codes
const (
	CodeRequired           = "required"
	CodeInvalidEmail       = "invalid_email"
	CodeShortPassword      = "short_password"
	CodePasswordsMismatch  = "passwords_mismatch"
	CodeInvalidPhone       = "invalid_phone"
	CodeInvalidQuantity    = "invalid_quantity"
	CodeInvalidDestination = "invalid_destination"
	CodeTooLong            = "too_long"
)

var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// FieldError is one failed field, named by its JSON key.
type FieldError struct {
	Field string `json:"field"`
	Code  string `json:"code"`
}

type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Code)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e Errors) Unwrap() error {
	return errors.ErrValidation
}

// Map is field -> code, first failure per field
func (e Errors) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := m[fe.Field]; !ok {
			m[fe.Field] = fe.Code
		}
	}
	return m
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterStructValidation(validateDestination, redreport.Destination{})
	return &Validator{validate: v}
}

var defaultValidator = NewValidator()

// Validate checks v against its struct tags using the package validator.
func Validate(v interface{}) error {
	return defaultValidator.Struct(v)
}

// ValidateJSON decodes data into the named schema and validates it.
func ValidateJSON(schema string, data []byte) error {
	return defaultValidator.JSON(schema, data)
}

// Struct returns nil or Errors
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("[Validator.Struct] %w", err)
	}

	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fieldPath(fe), Code: code(fe)})
	}
	return out
}

func (v *Validator) JSON(schema string, data []byte) error {
	newTarget, ok := schemas[schema]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "[Validator.JSON] unknown schema %q", schema)
	}
	target := newTarget()
	if err := json.Unmarshal(data, target); err != nil {
		return errors.Wrapf(errors.ErrValidation, "[Validator.JSON] decode %s: %v", schema, err)
	}
	return v.Struct(target)
}

// fieldPath drops the root struct name: "CartItem.destination.target" -> "destination.target"
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return CodeRequired
	case "email":
		return CodeInvalidEmail
	case "eqfield":
		return CodePasswordsMismatch
	case "e164":
		return CodeInvalidPhone
	case "oneof", "destination":
		return CodeInvalidDestination
	case "min":
		if fe.Kind() == reflect.String {
			return CodeShortPassword
		}
		return CodeInvalidQuantity
	case "max":
		if fe.Kind() == reflect.String {
			return CodeTooLong
		}
		return CodeInvalidQuantity
	}
	return fe.Tag()
}

// validateDestination requires a phone number or SIP URI for voice and a phone number or
// https webhook for SMS.
func validateDestination(sl validator.StructLevel) {
	d := sl.Current().Interface().(redreport.Destination)
	if d.Target == "" {
		return
	}

	ok := false
	switch d.Type {
	case redreport.DestinationVoice:
		ok = e164.MatchString(d.Target) || strings.HasPrefix(d.Target, "sip:")
	case redreport.DestinationSMS:
		ok = e164.MatchString(d.Target) || strings.HasPrefix(d.Target, "https://")
	default:
		return // the oneof tag on Type reports this
	}
	if !ok {
		sl.ReportError(d.Target, "target", "Target", "destination", "")
	}
}
