package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/http/response"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionHandler serves the sign-in flow and the profile pages.
type SessionHandler struct {
	uc     usecase.SessionUsecase
	logger *slog.Logger
}

func NewSessionHandler(uc usecase.SessionUsecase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{uc: uc, logger: logger}
}

// Resolve restores the session held by the auth gateway.
func (h *SessionHandler) Resolve(c echo.Context) error {
	user, err := h.uc.ResolveSession(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, user)
}

// Login signs in with email and password. Blank credentials are rejected by the usecase
// before any gateway call, so the body is not validated here.
func (h *SessionHandler) Login(c echo.Context) error {
	var input service.Credentials
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "Invalid login input")
	}

	user, err := h.uc.Login(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, user)
}

func (h *SessionHandler) Register(c echo.Context) error {
	var input usecase.Registration
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "Invalid registration input")
	}

	user, err := h.uc.Register(c.Request().Context(), &input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, user)
}

func (h *SessionHandler) Logout(c echo.Context) error {
	if err := h.uc.Logout(c.Request().Context()); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) OpenAuthPrompt(c echo.Context) error {
	h.uc.OpenAuthPrompt()

	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) CloseAuthPrompt(c echo.Context) error {
	h.uc.CloseAuthPrompt()

	return c.NoContent(http.StatusNoContent)
}

// UpdateProfile accepts a multipart form with an optional name field and an optional avatar file.
func (h *SessionHandler) UpdateProfile(c echo.Context) error {
	update := &entity.ProfileUpdate{}
	if values, err := c.FormParams(); err == nil {
		if names, ok := values["name"]; ok && len(names) > 0 {
			update.Name = &names[0]
		}
	}

	avatars, err := readUploads(c, "avatar")
	if err != nil {
		return err
	}
	if len(avatars) > 0 {
		update.Avatar = avatars[0]
	}

	user, err := h.uc.UpdateProfile(c.Request().Context(), update)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, user)
}

// UserProfile loads another user's public profile into the profile view.
func (h *SessionHandler) UserProfile(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	user, err := h.uc.FetchUserProfile(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, user)
}
