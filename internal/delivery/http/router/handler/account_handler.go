package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/http/response"
	"storefront/internal/domain/entity"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type languageRequest struct {
	Language string `json:"language" validate:"required"`
}

// AccountHandler serves display preferences and user reviews.
type AccountHandler struct {
	preferences usecase.PreferenceUsecase
	reviews     usecase.ReviewUsecase
	logger      *slog.Logger
}

func NewAccountHandler(preferences usecase.PreferenceUsecase, reviews usecase.ReviewUsecase, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{preferences: preferences, reviews: reviews, logger: logger}
}

func (h *AccountHandler) Language(c echo.Context) error {
	lang, err := h.preferences.Load(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, map[string]entity.Language{"language": lang})
}

func (h *AccountHandler) SetLanguage(c echo.Context) error {
	var input languageRequest
	if err := bindAndValidate(c, &input); err != nil {
		return err
	}

	if err := h.preferences.SetLanguage(c.Request().Context(), entity.Language(input.Language)); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) Reviews(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	reviews, err := h.reviews.FetchReviews(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, reviews)
}

// AddReview rates another user. Rating bounds are enforced by the usecase.
func (h *AccountHandler) AddReview(c echo.Context) error {
	var input usecase.ReviewInput
	if err := bindAndValidate(c, &input); err != nil {
		return err
	}

	review, err := h.reviews.AddReview(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, review)
}
