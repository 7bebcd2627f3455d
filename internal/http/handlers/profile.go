package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Текущий профиль пользователя с историей транзакций
func (h *Handler) MyProfile(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	transactions, _ := h.TransactionRepo.GetByUserID(ctx, userID, 100)
	var history []map[string]interface{}
	for _, tx := range transactions {
		history = append(history, map[string]interface{}{
			"type":   tx.Type,
			"amount": tx.Amount,
			"meta":   tx.Meta,
			"date":   tx.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"tg_id":        user.TgID,
		"username":     user.Username,
		"first_name":   user.FirstName,
		"created_at":   user.CreatedAt,
		"coins":        user.Coins,
		"games_played": user.GamesPlayed,
		"games_won":    user.GamesWon,
		"history":      history,
	})
}

// Публичный профиль по id
func (h *Handler) Profile(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	user, err := h.UserRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"username":     user.Username,
		"first_name":   user.FirstName,
		"games_played": user.GamesPlayed,
		"games_won":    user.GamesWon,
	})
}

// Лидеры по числу побед
func (h *Handler) Leaderboard(c *gin.Context) {
	top, err := h.UserRepo.TopByWins(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get top users"})
		return
	}

	entries := make([]gin.H, 0, len(top))
	for _, u := range top {
		entries = append(entries, gin.H{
			"id":           u.ID,
			"name":         u.DisplayName(),
			"games_played": u.GamesPlayed,
			"games_won":    u.GamesWon,
		})
	}
	c.JSON(http.StatusOK, gin.H{"top": entries})
}
