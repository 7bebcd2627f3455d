package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Сводка выручки платформы (закрыта админским токеном)
func (h *Handler) Revenue(c *gin.Context) {
	ctx := c.Request.Context()

	total, err := h.RevenueRepo.Total(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	recent, err := h.RevenueRepo.GetRecent(ctx, 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "recent": recent})
}
