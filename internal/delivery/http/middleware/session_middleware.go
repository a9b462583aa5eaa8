package middleware

import (
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// SessionMiddleware guards routes that need the signed-in user of this client.
type SessionMiddleware struct {
	session usecase.SessionUsecase
}

func NewSessionMiddleware(session usecase.SessionUsecase) *SessionMiddleware {
	return &SessionMiddleware{session: session}
}

// RequireSession rejects the request and raises the auth prompt when nobody is signed in.
func (m *SessionMiddleware) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if m.session.CurrentUser() == nil {
			m.session.OpenAuthPrompt()

			return domainerrors.ErrAuthRequired
		}

		return next(c)
	}
}

// RequireAdmin must run after RequireSession.
func (m *SessionMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := m.session.CurrentUser()
		if user == nil || !user.IsAdmin() {
			return domainerrors.ErrAdminRequired
		}

		return next(c)
	}
}
