package handler

import (
	"log/slog"
	"net/http"
	"strings"

	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"github.com/labstack/echo/v4"
)

// MediaHandler serves uploaded images when the bucket has no public host of its own,
// e.g. the mem:// and file:// buckets used locally.
type MediaHandler struct {
	storage service.ObjectStorage
	logger  *slog.Logger
}

func NewMediaHandler(storage service.ObjectStorage, logger *slog.Logger) *MediaHandler {
	return &MediaHandler{storage: storage, logger: logger}
}

func (h *MediaHandler) Image(c echo.Context) error {
	key := strings.TrimPrefix(c.Param("*"), "/")
	if key == "" || strings.Contains(key, "..") {
		return domainerrors.ErrValidationFailed.WithDetails("key")
	}

	data, contentType, err := h.storage.Download(c.Request().Context(), key)
	if err != nil {
		if errors.Is(err, service.ErrObjectNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "image not found")
		}

		return errors.WithStack(err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	c.Response().Header().Set("Cache-Control", "public, max-age=86400")

	return c.Blob(http.StatusOK, contentType, data)
}
