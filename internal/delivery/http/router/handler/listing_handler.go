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

// OutcomeResult reports an optimistic mutation. Error is set when the local caches
// changed but the gateway call failed.
type OutcomeResult struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ListingHandler serves the catalog and the seller's listing management.
type ListingHandler struct {
	uc     usecase.ListingUsecase
	logger *slog.Logger
}

func NewListingHandler(uc usecase.ListingUsecase, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{uc: uc, logger: logger}
}

// ListPublic replaces the public catalog with the listings matching the query string.
func (h *ListingHandler) ListPublic(c echo.Context) error {
	var filter entity.ListingFilter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filter); err != nil {
		return response.BindingError(c, "Invalid listing filter")
	}

	listings, err := h.uc.ListPublic(c.Request().Context(), filter)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, listings)
}

// Search schedules a debounced catalog query. The result arrives through the state stream.
func (h *ListingHandler) Search(c echo.Context) error {
	var filter entity.ListingFilter
	if err := c.Bind(&filter); err != nil {
		return response.BindingError(c, "Invalid listing filter")
	}

	h.uc.Search(filter)

	return c.NoContent(http.StatusAccepted)
}

func (h *ListingHandler) ListOwned(c echo.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	listings, err := h.uc.ListOwnedBy(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, listings)
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	listing, err := h.uc.FetchByID(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, listing)
}

// Create accepts the draft as multipart form fields plus any number of "images" files.
func (h *ListingHandler) Create(c echo.Context) error {
	var draft entity.ListingDraft
	if err := c.Bind(&draft); err != nil {
		return response.BindingError(c, "Invalid listing input")
	}

	images, err := readUploads(c, "images")
	if err != nil {
		return err
	}

	listing, err := h.uc.Create(c.Request().Context(), &draft, images)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) Update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var patch entity.ListingPatch
	if err := c.Bind(&patch); err != nil {
		return response.BindingError(c, "Invalid listing patch")
	}

	listing, err := h.uc.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, listing)
}

func (h *ListingHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	outcome, err := h.uc.Delete(c.Request().Context(), id)

	return writeOutcome(c, outcome, err)
}

func (h *ListingHandler) SetActive(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var input setActiveRequest
	if err := bindAndValidate(c, &input); err != nil {
		return err
	}

	outcome, err := h.uc.SetActive(c.Request().Context(), id, *input.Active)

	return writeOutcome(c, outcome, err)
}

func (h *ListingHandler) Reconcile(c echo.Context) error {
	if err := h.uc.Reconcile(c.Request().Context()); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// RecordView bumps the view counter in the background.
func (h *ListingHandler) RecordView(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	h.uc.IncrementViewCount(c.Request().Context(), id)

	return c.NoContent(http.StatusAccepted)
}

func (h *ListingHandler) Categories(c echo.Context) error {
	categories, err := h.uc.FetchCategories(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, categories)
}

// ShareCode renders the listing's share link as a PNG QR code.
func (h *ListingHandler) ShareCode(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	png, err := h.uc.ShareCode(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// writeOutcome maps an optimistic mutation onto the response. A remote failure after
// the caches changed is still a 202 so the caller sees that the local state moved.
func writeOutcome(c echo.Context, outcome usecase.OptimisticOutcome, err error) error {
	switch {
	case outcome == usecase.OutcomeAppliedThenRemoteFailed:
		result := OutcomeResult{Outcome: outcome.String()}
		if err != nil {
			result.Error = err.Error()
		}

		return response.Success(c, http.StatusAccepted, result)
	case err != nil:
		return errors.WithStack(err)
	default:
		return response.OK(c, OutcomeResult{Outcome: outcome.String()})
	}
}
