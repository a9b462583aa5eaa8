package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/http/response"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type startConversationRequest struct {
	ListingID uuid.UUID `json:"listingId" validate:"required"`
	SellerID  uuid.UUID `json:"sellerId" validate:"required"`
}

type activeConversationRequest struct {
	ConversationID *uuid.UUID `json:"conversationId"` // Null deselects.
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// ChatHandler serves conversations, messages and the unread badge.
type ChatHandler struct {
	conversations usecase.ConversationUsecase
	messages      usecase.MessageUsecase
	unread        usecase.UnreadUsecase
	logger        *slog.Logger
}

func NewChatHandler(
	conversations usecase.ConversationUsecase,
	messages usecase.MessageUsecase,
	unread usecase.UnreadUsecase,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{
		conversations: conversations,
		messages:      messages,
		unread:        unread,
		logger:        logger,
	}
}

// StartConversation opens or creates the conversation about a listing and makes it active.
func (h *ChatHandler) StartConversation(c echo.Context) error {
	var input startConversationRequest
	if err := bindAndValidate(c, &input); err != nil {
		return err
	}

	conversation, err := h.conversations.StartConversation(c.Request().Context(), input.ListingID, input.SellerID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, conversation)
}

func (h *ChatHandler) Conversations(c echo.Context) error {
	conversations, err := h.conversations.FetchConversations(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, conversations)
}

func (h *ChatHandler) SetActive(c echo.Context) error {
	var input activeConversationRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "Invalid conversation selection")
	}

	if err := h.conversations.SetActiveConversation(c.Request().Context(), input.ConversationID); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) Deselect(c echo.Context) error {
	if err := h.conversations.SetActiveConversation(c.Request().Context(), nil); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ChatHandler) History(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	messages, err := h.messages.FetchHistory(c.Request().Context(), id)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, messages)
}

// SendMessage posts to the active conversation. The message reaches the snapshot
// through the change feed, not as a local echo.
func (h *ChatHandler) SendMessage(c echo.Context) error {
	var input sendMessageRequest
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "Invalid message")
	}

	if err := h.messages.SendMessage(c.Request().Context(), input.Text); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusAccepted)
}

func (h *ChatHandler) RefreshUnread(c echo.Context) error {
	count, err := h.unread.Refresh(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}

	return response.OK(c, map[string]int{"unread": count})
}

// MarkAllRead clears the badge locally.
func (h *ChatHandler) MarkAllRead(c echo.Context) error {
	h.unread.MarkAllRead()

	return c.NoContent(http.StatusNoContent)
}
