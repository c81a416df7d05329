package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RakMan09/refund-returns-agent/internal/conversation"
	"github.com/RakMan09/refund-returns-agent/internal/http/response"
)

type ChatHandler struct {
	flow *conversation.Manager
}

func NewChatHandler(flow *conversation.Manager) *ChatHandler {
	return &ChatHandler{flow: flow}
}

// POST /api/chat/start
func (h *ChatHandler) Start(c *gin.Context) {
	var req conversation.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.flow.Start(c.Request.Context(), req)
	if err != nil {
		response.RespondFromError(c, http.StatusInternalServerError, "chat_start_failed", err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/chat/message
func (h *ChatHandler) Message(c *gin.Context) {
	var req conversation.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.flow.Message(c.Request.Context(), req)
	if err != nil {
		response.RespondFromError(c, http.StatusInternalServerError, "chat_message_failed", err)
		return
	}
	response.RespondOK(c, res)
}
