package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"storefront/internal/delivery/http/middleware"
	"storefront/internal/delivery/http/response"
	"storefront/internal/delivery/http/validator"
	"storefront/internal/domain/entity"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = middleware.NewErrorMiddleware(newDiscardLogger()).HandleHTTPError
	e.Validator = validator.New()

	return e
}

// envelope decodes a success body into data.
func envelope[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var body struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return body.Data
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) *response.ErrorInfo {
	t.Helper()

	var body response.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)

	return body.Error
}

type mockListingUsecase struct {
	mock.Mock
}

func (m *mockListingUsecase) ListPublic(ctx context.Context, filter entity.ListingFilter) ([]*entity.Listing, error) {
	args := m.Called(ctx, filter)
	listings, _ := args.Get(0).([]*entity.Listing)

	return listings, args.Error(1)
}

func (m *mockListingUsecase) Search(filter entity.ListingFilter) {
	m.Called(filter)
}

func (m *mockListingUsecase) ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]*entity.Listing, error) {
	args := m.Called(ctx, userID)
	listings, _ := args.Get(0).([]*entity.Listing)

	return listings, args.Error(1)
}

func (m *mockListingUsecase) FetchByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	args := m.Called(ctx, id)
	listing, _ := args.Get(0).(*entity.Listing)

	return listing, args.Error(1)
}

func (m *mockListingUsecase) Create(ctx context.Context, draft *entity.ListingDraft, images []*entity.ImageUpload) (*entity.Listing, error) {
	args := m.Called(ctx, draft, images)
	listing, _ := args.Get(0).(*entity.Listing)

	return listing, args.Error(1)
}

func (m *mockListingUsecase) Update(ctx context.Context, id uuid.UUID, patch *entity.ListingPatch) (*entity.Listing, error) {
	args := m.Called(ctx, id, patch)
	listing, _ := args.Get(0).(*entity.Listing)

	return listing, args.Error(1)
}

func (m *mockListingUsecase) Delete(ctx context.Context, id uuid.UUID) (usecase.OptimisticOutcome, error) {
	args := m.Called(ctx, id)

	return args.Get(0).(usecase.OptimisticOutcome), args.Error(1)
}

func (m *mockListingUsecase) SetActive(ctx context.Context, id uuid.UUID, active bool) (usecase.OptimisticOutcome, error) {
	args := m.Called(ctx, id, active)

	return args.Get(0).(usecase.OptimisticOutcome), args.Error(1)
}

func (m *mockListingUsecase) Reconcile(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockListingUsecase) IncrementViewCount(ctx context.Context, id uuid.UUID) {
	m.Called(ctx, id)
}

func (m *mockListingUsecase) FetchCategories(ctx context.Context) ([]*entity.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]*entity.Category)

	return categories, args.Error(1)
}

func (m *mockListingUsecase) ShareCode(ctx context.Context, id uuid.UUID) ([]byte, error) {
	args := m.Called(ctx, id)
	png, _ := args.Get(0).([]byte)

	return png, args.Error(1)
}
