// Package validation collects field-level errors into the API error envelope.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"kadryhr/internal/core/apperror"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator configured to report JSON field names.
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(JSONTagName)
	})
	return validate
}

// JSONTagName reports a struct field by its json name.
func JSONTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		for _, tag := range []string{"form", "uri"} {
			if v := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]; v != "" {
				return v
			}
		}
		return fld.Name
	}
	return name
}

// Errors accumulates field errors.
type Errors struct {
	fields []apperror.FieldError
}

// Add records a field error.
func (e *Errors) Add(field, message string) {
	e.fields = append(e.fields, apperror.FieldError{Field: field, Message: message})
}

// Check records message for field when ok is false.
func (e *Errors) Check(ok bool, field, message string) {
	if !ok {
		e.Add(field, message)
	}
}

// Required records an error for blank strings.
func (e *Errors) Required(field, value string) {
	e.Check(strings.TrimSpace(value) != "", field, "is required")
}

// MaxLength records an error when value exceeds n characters.
func (e *Errors) MaxLength(field, value string, n int) {
	e.Check(len([]rune(value)) <= n, field, fmt.Sprintf("must be at most %d characters", n))
}

// Email records an error for a non-empty malformed address.
func (e *Errors) Email(field, value string) {
	if value == "" {
		return
	}
	if err := Validator().Var(value, "email"); err != nil {
		e.Add(field, "must be a valid email address")
	}
}

// OneOf records an error when value is not among allowed.
func (e *Errors) OneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	e.Add(field, "must be one of: "+strings.Join(allowed, ", "))
}

// Empty reports whether no errors were recorded.
func (e *Errors) Empty() bool {
	return len(e.fields) == 0
}

// Err returns a validation AppError, or nil when nothing was recorded.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return apperror.NewFieldValidation(e.fields...)
}

// FromBinding converts request binding errors into a validation AppError.
func FromBinding(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewValidation("Invalid request body").WithCause(err)
	}

	appErr := apperror.NewFieldValidation()
	for _, fe := range verrs {
		appErr.WithField(fieldPath(fe), describe(fe))
	}
	return appErr
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isNumeric(fe.Kind()) {
			return "must be at least " + fe.Param()
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		if isNumeric(fe.Kind()) {
			return "must be at most " + fe.Param()
		}
		return "must be at most " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "uuid", "uuid4", "uuid7":
		return "must be a valid id"
	case "datetime":
		return "must match format " + fe.Param()
	case "latitude":
		return "must be a valid latitude"
	case "longitude":
		return "must be a valid longitude"
	default:
		return "is invalid"
	}
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
