// Package validator adapts the shared struct validator to echo.
package validator

import (
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/util/validation"

	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator.
type CustomValidator struct {
	validate *validator.Validate
}

func New() *CustomValidator {
	return &CustomValidator{validate: validation.New()}
}

// Validate reports failures as ErrValidationFailed with "field: rule" details.
func (v *CustomValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(validation.Describe(err))
	}

	return nil
}
