package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed rule on one request field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator collects field errors in the order they were found.
type Validator struct {
	Errors []FieldError
}

// New creates a new validator
func New() *Validator {
	return &Validator{Errors: make([]FieldError, 0)}
}

// Valid checks if there are any validation errors
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError adds an error to the validator
func (v *Validator) AddError(field, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Message: message})
}

// Check adds an error if the condition is false
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// FirstError returns the first collected error, or nil.
func (v *Validator) FirstError() error {
	if v.Valid() {
		return nil
	}
	return v.Errors[0]
}

var (
	structValidator *validator.Validate
	once            sync.Once
)

func instance() *validator.Validate {
	once.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
		structValidator.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = structValidator.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return IsValidPhone(fl.Field().String())
		})
		_ = structValidator.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
			return IsValidPersonName(strings.TrimSpace(fl.Field().String()))
		})
	})
	return structValidator
}

// Struct runs the `validate` tags on a request DTO.
func (v *Validator) Struct(s interface{}) {
	err := instance().Struct(s)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.AddError("request", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		v.AddError(fe.Field(), describe(fe))
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters long"
	case "phone":
		return "must be a valid phone number"
	case "personname":
		return "must be 2-50 letters, spaces, hyphens, apostrophes or periods"
	default:
		return "is invalid"
	}
}
