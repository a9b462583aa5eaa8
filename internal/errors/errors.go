// Package errors is the storefront's single import for error handling: matching goes
// through the standard library, construction and wrapping through pkg/errors so every
// failure logged at the HTTP boundary carries a stack.
package errors

import (
	stderrors "errors"

	pkgerrors "github.com/pkg/errors"
)

// New returns a sentinel error. Sentinels carry no stack; wrap them at the call site.
func New(text string) error {
	return stderrors.New(text)
}

// Errorf formats a new error with a stack.
func Errorf(format string, args ...any) error {
	return pkgerrors.Errorf(format, args...)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join combines independent failures, e.g. from closing several resources. Nil errors are discarded.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}

// Wrap annotates err with message and a stack. A nil err stays nil.
func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

// Wrapf is Wrap with a format specifier.
func Wrapf(err error, format string, args ...any) error {
	return pkgerrors.Wrapf(err, format, args...)
}

// WithStack records the caller's stack on err without changing its message.
func WithStack(err error) error {
	return pkgerrors.WithStack(err)
}
