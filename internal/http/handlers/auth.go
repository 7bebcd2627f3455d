package handlers

import (
	"net/http"

	"ludo_arena/internal/logger"
	"ludo_arena/internal/service"

	"github.com/gin-gonic/gin"
)

// Auth обменивает Telegram WebApp init_data на JWT
func (h *Handler) Auth(c *gin.Context) {
	var req struct {
		InitData string `json:"init_data"`
	}
	if err := c.BindJSON(&req); err != nil || req.InitData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data required"})
		return
	}

	user, err := h.Identity.Resolve(c.Request.Context(), req.InitData)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init_data"})
		return
	}

	token, err := service.IssueJWT(user.ID)
	if err != nil {
		logger.Error("auth: выпуск токена не удался", "user", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"tg_id":      user.TgID,
			"username":   user.Username,
			"first_name": user.FirstName,
			"coins":      user.Coins,
		},
	})
}
