package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/http/response"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// FavoriteResult is the membership after a toggle. Error is set when the local
// flip stuck but the gateway rejected it.
type FavoriteResult struct {
	ListingID string `json:"listingId"`
	Favorite  bool   `json:"favorite"`
	Error     string `json:"error,omitempty"`
}

type FavoriteHandler struct {
	uc     usecase.FavoriteUsecase
	logger *slog.Logger
}

func NewFavoriteHandler(uc usecase.FavoriteUsecase, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{uc: uc, logger: logger}
}

// Toggle flips the listing's membership. Anonymous toggles stay local until sign-in.
func (h *FavoriteHandler) Toggle(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	favorite, err := h.uc.Toggle(c.Request().Context(), id)
	result := FavoriteResult{ListingID: id.String(), Favorite: favorite}
	if err != nil {
		log(c.Request().Context(), h.logger).Warn("Favorite toggle not synced",
			slog.String("listing_id", result.ListingID),
			slog.Any("error", err),
		)
		result.Error = err.Error()

		return response.Success(c, http.StatusAccepted, result)
	}

	return response.OK(c, result)
}

func (h *FavoriteHandler) Fetch(c echo.Context) error {
	if err := h.uc.Fetch(c.Request().Context()); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *FavoriteHandler) Listings(c echo.Context) error {
	listings, err := h.uc.FetchListings(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, listings)
}
