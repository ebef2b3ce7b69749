package handlers

import (
	"net/http"

	"planmate/models"
	"planmate/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler runs one conversation turn.
func (h *HandlerBundle) ChatHandler(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	resp, err := h.Engine.HandleMessage(c.Request.Context(), req.ChatID, req.Message)
	if err != nil {
		utils.GetLogger().Error("chat turn failed",
			zap.String("chatID", req.ChatID), zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "Failed to process message", err.Error())
		return
	}
	c.JSON(http.StatusOK, resp)
}

type resetRequest struct {
	ChatID string `json:"chatId" binding:"required"`
}

// ResetHandler forgets a chat's session.
func (h *HandlerBundle) ResetHandler(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if err := h.Engine.Reset(c.Request.Context(), req.ChatID); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to reset chat", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatId": req.ChatID, "status": "reset"})
}
