package postgres

import (
	"strings"

	domainerrors "storefront/internal/domain/errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// violation is the class of database rule a failed statement broke.
type violation int

const (
	violationNone violation = iota
	violationUnique
	violationForeignKey
	violationUndefinedFunction
)

// SQLSTATE codes checked when the driver error was not translated
var sqlStates = map[string]violation{
	"23505": violationUnique,
	"23503": violationForeignKey,
	"42883": violationUndefinedFunction,
}

func classifyViolation(err error) violation {
	switch {
	case err == nil:
		return violationNone
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return violationUnique
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return violationForeignKey
	}

	msg := err.Error()
	for code, v := range sqlStates {
		if strings.Contains(msg, "SQLSTATE "+code) {
			return v
		}
	}

	return violationNone
}

// violations maps the rules a statement may break onto the repository error it
// reports. A nil entry means the violation is an accepted outcome.
type violations map[violation]error

// gatewayError translates a failed statement. Unmapped failures become database
// execute errors carrying message.
func gatewayError(err error, message string, known violations) error {
	if err == nil {
		return nil
	}
	if mapped, ok := known[classifyViolation(err)]; ok {
		return mapped
	}

	return domainerrors.NewDatabaseExecuteError(err, message)
}
