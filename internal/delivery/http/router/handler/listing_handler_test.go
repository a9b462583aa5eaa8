package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newListingServer(uc *mockListingUsecase) *echo.Echo {
	h := NewListingHandler(uc, newDiscardLogger())
	e := newTestEcho()
	e.GET("/listings", h.ListPublic)
	e.POST("/listings", h.Create)
	e.DELETE("/listings/:id", h.Delete)
	e.PUT("/listings/:id/active", h.SetActive)
	e.GET("/listings/:id/share.png", h.ShareCode)
	e.POST("/listings/:id/views", h.RecordView)

	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	return req
}

func TestListingHandler_ListPublicBindsQuery(t *testing.T) {
	uc := new(mockListingUsecase)
	filter := entity.ListingFilter{TextQuery: "bicykel", CategoryID: "sport", RegionID: "BA"}
	uc.On("ListPublic", mock.Anything, filter).
		Return([]*entity.Listing{{ID: uuid.New(), Title: "Bicykel"}}, nil).Once()

	rec := serve(newListingServer(uc), httptest.NewRequest(http.MethodGet, "/listings?q=bicykel&category=sport&region=BA", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, envelope[[]map[string]any](t, rec), 1)
	uc.AssertExpectations(t)
}

func TestListingHandler_DeleteOutcomes(t *testing.T) {
	id := uuid.New()

	t.Run("remote failure after local apply", func(t *testing.T) {
		uc := new(mockListingUsecase)
		uc.On("Delete", mock.Anything, id).
			Return(usecase.OutcomeAppliedThenRemoteFailed, errors.New("gateway timeout")).Once()

		rec := serve(newListingServer(uc), httptest.NewRequest(http.MethodDelete, "/listings/"+id.String(), nil))

		assert.Equal(t, http.StatusAccepted, rec.Code)
		result := envelope[OutcomeResult](t, rec)
		assert.Equal(t, "applied_then_remote_failed", result.Outcome)
		assert.Contains(t, result.Error, "gateway timeout")
	})

	t.Run("rejected", func(t *testing.T) {
		uc := new(mockListingUsecase)
		uc.On("Delete", mock.Anything, id).Return(usecase.OutcomeNotApplied, domainerrors.ErrNotListingOwner).Once()

		rec := serve(newListingServer(uc), httptest.NewRequest(http.MethodDelete, "/listings/"+id.String(), nil))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, domainerrors.KindPermission, errorBody(t, rec).Kind)
	})

	t.Run("applied", func(t *testing.T) {
		uc := new(mockListingUsecase)
		uc.On("Delete", mock.Anything, id).Return(usecase.OutcomeApplied, nil).Once()

		rec := serve(newListingServer(uc), httptest.NewRequest(http.MethodDelete, "/listings/"+id.String(), nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "applied", envelope[OutcomeResult](t, rec).Outcome)
	})
}

func TestListingHandler_SetActiveValidation(t *testing.T) {
	uc := new(mockListingUsecase)
	id := uuid.New()
	e := newListingServer(uc)

	rec := serve(e, jsonRequest(http.MethodPut, "/listings/"+id.String()+"/active", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorBody(t, rec).Code)

	rec = serve(e, jsonRequest(http.MethodPut, "/listings/not-a-uuid/active", `{"active":true}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	uc.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)

	uc.On("SetActive", mock.Anything, id, false).Return(usecase.OutcomeApplied, nil).Once()
	rec = serve(e, jsonRequest(http.MethodPut, "/listings/"+id.String()+"/active", `{"active":false}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestListingHandler_CreateReadsMultipartImages(t *testing.T) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	for field, value := range map[string]string{
		"title":      "Bicykel",
		"price":      "120,50",
		"categoryId": "sport",
		"city":       "Bratislava",
		"region":     "BA",
	} {
		require.NoError(t, form.WriteField(field, value))
	}
	for _, name := range []string{"front.jpg", "back.jpg"} {
		part, err := form.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg:" + name))
		require.NoError(t, err)
	}
	require.NoError(t, form.Close())

	uc := new(mockListingUsecase)
	created := &entity.Listing{ID: uuid.New(), Title: "Bicykel"}
	uc.On("Create", mock.Anything,
		mock.MatchedBy(func(d *entity.ListingDraft) bool {
			return d.Title == "Bicykel" && d.Price == "120,50" && d.Region == "BA"
		}),
		mock.MatchedBy(func(images []*entity.ImageUpload) bool {
			return len(images) == 2 && images[0].Name == "front.jpg" && string(images[1].Data) == "jpeg:back.jpg"
		}),
	).Return(created, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/listings", &body)
	req.Header.Set(echo.HeaderContentType, form.FormDataContentType())
	rec := serve(newListingServer(uc), req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	uc.AssertExpectations(t)
}

func TestListingHandler_ShareCode(t *testing.T) {
	uc := new(mockListingUsecase)
	id := uuid.New()
	uc.On("ShareCode", mock.Anything, id).Return([]byte("\x89PNG"), nil).Once()

	rec := serve(newListingServer(uc), httptest.NewRequest(http.MethodGet, "/listings/"+id.String()+"/share.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "\x89PNG", rec.Body.String())
}

func TestListingHandler_RecordViewIsAccepted(t *testing.T) {
	uc := new(mockListingUsecase)
	id := uuid.New()
	uc.On("IncrementViewCount", mock.Anything, id).Once()

	rec := serve(newListingServer(uc), httptest.NewRequest(http.MethodPost, "/listings/"+id.String()+"/views", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	uc.AssertExpectations(t)
}
