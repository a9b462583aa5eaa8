package postgres

import (
	"testing"

	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassifyViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want violation
	}{
		{name: "Translated duplicate", err: errors.Wrap(gorm.ErrDuplicatedKey, "insert"), want: violationUnique},
		{name: "Raw duplicate", err: errors.New(`duplicate key value violates unique constraint "idx_conversation_key" (SQLSTATE 23505)`), want: violationUnique},
		{name: "Translated foreign key", err: gorm.ErrForeignKeyViolated, want: violationForeignKey},
		{name: "Raw foreign key", err: errors.New(`insert or update on table "messages" violates foreign key constraint (SQLSTATE 23503)`), want: violationForeignKey},
		{name: "Missing function", err: errors.New("function increment_views(uuid) does not exist (SQLSTATE 42883)"), want: violationUndefinedFunction},
		{name: "Other", err: errors.New("connection refused"), want: violationNone},
		{name: "Nil", err: nil, want: violationNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyViolation(tt.err))
		})
	}
}

func TestGatewayError(t *testing.T) {
	known := violations{
		violationUnique:     nil,
		violationForeignKey: repository.ErrListingNotFound,
	}

	assert.NoError(t, gatewayError(nil, "add favorite", known))
	assert.NoError(t, gatewayError(gorm.ErrDuplicatedKey, "add favorite", known))
	assert.ErrorIs(t, gatewayError(gorm.ErrForeignKeyViolated, "add favorite", known), repository.ErrListingNotFound)

	err := gatewayError(errors.New("connection refused"), "add favorite", known)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrListingNotFound)
	assert.Equal(t, domainerrors.KindTransientNetwork, domainerrors.KindOf(err))
}
