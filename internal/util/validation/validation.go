// Package validation builds the struct validator shared by the use cases and the HTTP layer.
package validation

import (
	"strings"

	"storefront/internal/domain/entity"

	"github.com/go-playground/validator/v10"
)

// New returns a validator with the storefront-specific tags registered:
//
//	region      value is one of entity.Regions
//	notblank    value is not empty after trimming spaces
func New() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	_ = validate.RegisterValidation("region", func(fl validator.FieldLevel) bool {
		return entity.IsKnownRegion(fl.Field().String())
	})
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return validate
}

// Describe flattens validation errors into "field: rule" pairs for user-facing details.
func Describe(err error) string {
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	parts := make([]string, 0, len(fieldErrs))
	for _, fieldErr := range fieldErrs {
		parts = append(parts, strings.ToLower(fieldErr.Field())+": "+fieldErr.Tag())
	}

	return strings.Join(parts, ", ")
}
