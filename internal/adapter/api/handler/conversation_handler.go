package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"lapakchat/internal/domain/entity"
	"lapakchat/internal/usecase"
	"lapakchat/pkg/response"
	"lapakchat/pkg/utils"
)

type ConversationHandler struct {
	conversationUseCase *usecase.ConversationUseCase
}

func NewConversationHandler(conversationUseCase *usecase.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{
		conversationUseCase: conversationUseCase,
	}
}

type startConversationRequest struct {
	StoreID string `json:"store_id" validate:"required"`
	ItemID  string `json:"item_id"`
}

type sendMessageRequest struct {
	Content string                    `json:"content"`
	Type    string                    `json:"type" validate:"omitempty,oneof=text image receipt"`
	File    *entity.FileAttachment    `json:"file,omitempty"`
	Receipt *entity.ReceiptAttachment `json:"receipt,omitempty"`
}

type blockConversationRequest struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason"`
}

type rateConversationRequest struct {
	Rating int `json:"rating" validate:"required,min=1,max=5"`
}

type deletionRequestRequest struct {
	Reason string `json:"reason"`
}

// StartConversation finds or creates the conversation between the caller
// and a store.
func (h *ConversationHandler) StartConversation(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	conversation, err := h.conversationUseCase.StartConversation(c.Request().Context(), userID, usecase.StartConversationInput{
		StoreID: req.StoreID,
		ItemID:  req.ItemID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

// ListConversations returns the caller's conversations, newest activity first.
func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)
	status := c.QueryParam("status")
	pagination := utils.GetPaginationParams(c)

	conversations, total, err := h.conversationUseCase.ListConversations(c.Request().Context(), userID, status, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, conversations, total, pagination.Page, pagination.PageSize)
}

// GetConversation returns one conversation with a page of its messages.
func (h *ConversationHandler) GetConversation(c echo.Context) error {
	userID := c.Get("uid").(string)
	pagination := utils.GetPaginationParams(c)

	detail, err := h.conversationUseCase.GetConversation(c.Request().Context(), c.Param("id"), userID, pagination.PageSize, pagination.Offset)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, detail)
}

// SendMessage accepts a message or returns the moderation rejection with
// a 422 so clients can distinguish policy rejections from transport errors.
func (h *ConversationHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	message, rejection, err := h.conversationUseCase.SendMessage(c.Request().Context(), c.Param("id"), userID, usecase.SendMessageInput{
		Content: req.Content,
		Type:    req.Type,
		File:    req.File,
		Receipt: req.Receipt,
	})
	if err != nil {
		return response.Error(c, err)
	}
	if rejection != nil {
		return c.JSON(http.StatusUnprocessableEntity, response.Response{
			Success:   false,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Error: &response.ErrorInfo{
				Code:    "MESSAGE_BLOCKED",
				Message: rejection.Reason,
				Details: rejection,
			},
		})
	}

	return response.Created(c, message)
}

// MarkRead zeroes the caller's unread counter.
func (h *ConversationHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.conversationUseCase.MarkRead(c.Request().Context(), c.Param("id"), userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "read"})
}

// Archive closes the conversation for new messages.
func (h *ConversationHandler) Archive(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.conversationUseCase.Archive(c.Request().Context(), c.Param("id"), userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": entity.ConversationArchived})
}

// Block toggles the blocked state, store owner only.
func (h *ConversationHandler) Block(c echo.Context) error {
	var req blockConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	if err := h.conversationUseCase.SetBlocked(c.Request().Context(), c.Param("id"), userID, req.Blocked, req.Reason); err != nil {
		return response.Error(c, err)
	}

	status := entity.ConversationActive
	if req.Blocked {
		status = entity.ConversationBlocked
	}
	return response.Success(c, map[string]string{"status": status})
}

// DeleteMessage soft-deletes the caller's own message.
func (h *ConversationHandler) DeleteMessage(c echo.Context) error {
	userID := c.Get("uid").(string)

	if err := h.conversationUseCase.SoftDeleteMessage(c.Request().Context(), c.Param("id"), c.Param("messageId"), userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{"status": "deleted"})
}

// Rate records the customer's satisfaction rating.
func (h *ConversationHandler) Rate(c echo.Context) error {
	var req rateConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	if err := h.conversationUseCase.Rate(c.Request().Context(), c.Param("id"), userID, req.Rating); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{"rating": req.Rating})
}

// SearchMessages searches the caller's message history.
func (h *ConversationHandler) SearchMessages(c echo.Context) error {
	userID := c.Get("uid").(string)

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}

	results, err := h.conversationUseCase.SearchMessages(c.Request().Context(), userID, c.QueryParam("q"), c.QueryParam("status"), limit)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// Export streams the transcript as a json or csv attachment.
func (h *ConversationHandler) Export(c echo.Context) error {
	userID := c.Get("uid").(string)

	result, err := h.conversationUseCase.Export(c.Request().Context(), c.Param("id"), userID, c.QueryParam("format"))
	if err != nil {
		return response.Error(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+result.Filename)
	return c.Blob(http.StatusOK, result.ContentType, result.Body)
}

// RequestDeletion queues a GDPR erasure request.
func (h *ConversationHandler) RequestDeletion(c echo.Context) error {
	var req deletionRequestRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)

	request, err := h.conversationUseCase.RequestDeletion(c.Request().Context(), c.Param("id"), userID, req.Reason)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, request)
}
