package validation

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"toolgate/internal/common/errors"
)

// MaxOperationLength bounds operation names accepted from clients
const MaxOperationLength = 255

// CentralizedValidator provides unified validation using go-playground/validator
type CentralizedValidator struct {
	validator *validator.Validate
}

// ValidationError represents a single validation error with context
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`
}

// NewCentralizedValidator creates a new centralized validator instance
func NewCentralizedValidator() *CentralizedValidator {
	v := validator.New()

	registerAdmissionValidators(v)

	// Report JSON names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return &CentralizedValidator{
		validator: v,
	}
}

// ValidateStruct validates a struct using struct tags
func (cv *CentralizedValidator) ValidateStruct(s interface{}) error {
	if err := cv.validator.Struct(s); err != nil {
		return cv.formatValidationErrors(err)
	}
	return nil
}

// ValidateVar validates a single variable with validation rules
func (cv *CentralizedValidator) ValidateVar(field interface{}, tag string) error {
	if err := cv.validator.Var(field, tag); err != nil {
		return cv.formatValidationErrors(err)
	}
	return nil
}

// formatValidationErrors joins field errors into one validation AppError
func (cv *CentralizedValidator) formatValidationErrors(err error) error {
	validationErrors := cv.extractValidationErrors(err)
	if len(validationErrors) == 1 {
		return errors.ValidationError(validationErrors[0].Message)
	}

	messages := make([]string, len(validationErrors))
	for i, e := range validationErrors {
		messages[i] = e.Message
	}

	return errors.ValidationError(fmt.Sprintf("validation failed: %s", strings.Join(messages, "; ")))
}

// extractValidationErrors extracts structured validation errors
func (cv *CentralizedValidator) extractValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   fieldError.Field(),
				Tag:     fieldError.Tag(),
				Message: cv.formatFieldError(fieldError),
				Param:   fieldError.Param(),
			})
		}
	} else {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "unknown",
			Tag:     "error",
			Message: err.Error(),
		})
	}

	return validationErrors
}

// formatFieldError formats go-playground/validator field errors into readable messages
func (cv *CentralizedValidator) formatFieldError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", err.Field())
	case "min", "gte":
		return fmt.Sprintf("field '%s' must be at least %s", err.Field(), err.Param())
	case "max", "lte":
		return fmt.Sprintf("field '%s' must be at most %s", err.Field(), err.Param())
	case "ip":
		return fmt.Sprintf("field '%s' must be a valid IP address", err.Field())
	case "operation_name":
		return fmt.Sprintf("field '%s' must be a non-blank operation name without whitespace", err.Field())
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", err.Field(), err.Tag())
	}
}

// registerAdmissionValidators registers custom validation functions for admission requests
func registerAdmissionValidators(v *validator.Validate) {
	v.RegisterValidation("operation_name", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		if name == "" || len(name) > MaxOperationLength {
			return false
		}
		for _, r := range name {
			if unicode.IsSpace(r) || unicode.IsControl(r) {
				return false
			}
		}
		return true
	})
}
