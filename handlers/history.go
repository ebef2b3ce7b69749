package handlers

import (
	"net/http"
	"strconv"

	"planmate/utils"

	"github.com/gin-gonic/gin"
)

// PlanHistoryHandler returns a chat's archived plans, newest first.
func (h *HandlerBundle) PlanHistoryHandler(c *gin.Context) {
	if h.History == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Plan history is disabled", "no database configured")
		return
	}

	chatID := c.Param("chatID")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	records, err := h.History.GetByChatID(c.Request.Context(), chatID, limit)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load plan history", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatId": chatID, "plans": records})
}
