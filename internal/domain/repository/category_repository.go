package repository

import (
	"context"

	"storefront/internal/domain/entity"
)

// CategoryRepository reads category reference data.
type CategoryRepository interface {
	// FindAll returns every category ordered by name.
	FindAll(ctx context.Context) ([]*entity.Category, error)
}
