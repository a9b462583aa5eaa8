package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/http/response"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type banRequest struct {
	Banned *bool `json:"banned" validate:"required"`
}

// AdminHandler serves the moderation dashboard. Routes are mounted behind RequireAdmin.
type AdminHandler struct {
	uc     usecase.AdminUsecase
	logger *slog.Logger
}

func NewAdminHandler(uc usecase.AdminUsecase, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{uc: uc, logger: logger}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	stats, err := h.uc.FetchDashboard(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, stats)
}

func (h *AdminHandler) BanUser(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input banRequest
	if err := bindAndValidate(c, &input); err != nil {
		return err
	}

	if err := h.uc.BanUser(c.Request().Context(), userID, *input.Banned); err != nil {
		return errors.WithStack(err)
	}

	log(c.Request().Context(), h.logger).Info("User ban changed",
		slog.String("user_id", userID.String()),
		slog.Bool("banned", *input.Banned),
	)

	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) DeleteReview(c echo.Context) error {
	reviewID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.uc.DeleteReview(c.Request().Context(), reviewID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}
