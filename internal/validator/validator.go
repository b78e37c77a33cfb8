package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Strasser-Pablo/trainlaunch/internal/runconfig"
)

// V is the singleton validator instance
var V *validator.Validate

func init() {
	V = validator.New()

	// Report fields by their flag names.
	V.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	V.RegisterCustomTypeFunc(func(v reflect.Value) any {
		return runconfig.Float(v.String()).Value()
	}, runconfig.Float(""))

	V.RegisterStructValidation(validateRunConfig, runconfig.RunConfig{})
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(msgs, "; ")
}

// Validate validates a struct and returns ValidationErrors if invalid
func Validate(v any) error {
	if err := V.Struct(v); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// validateRunConfig holds the rules that span more than one field.
func validateRunConfig(sl validator.StructLevel) {
	c := sl.Current().Interface().(runconfig.RunConfig)

	if c.ValSplit.Value()+c.TestSplit.Value() >= 1 {
		sl.ReportError(c.TestSplit, "test_split", "TestSplit", "splitsum", "")
	}
	if c.FP16 && !c.CUDA {
		sl.ReportError(c.FP16, "fp16", "FP16", "requires_cuda", "")
	}
}

// formatValidationErrors converts validator errors to ValidationErrors
func formatValidationErrors(err error) ValidationErrors {
	var validationErrors ValidationErrors

	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Message: getErrorMessage(e),
			})
		}
	}

	return validationErrors
}

// getErrorMessage returns a human-readable error message for a validation error
func getErrorMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", e.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", e.Param())
	case "splitsum":
		return "val_split + test_split must be less than 1"
	case "requires_cuda":
		return "requires cuda"
	default:
		return fmt.Sprintf("failed validation: %s", e.Tag())
	}
}

// IsValidationError checks if an error is a ValidationErrors
func IsValidationError(err error) bool {
	_, ok := err.(ValidationErrors)
	return ok
}
