package handlers

import (
	"errors"
	"net/http"

	"ludo_arena/internal/repository"

	"github.com/gin-gonic/gin"
)

// Снимок матча по id (для переподключения и наблюдателей)
func (h *Handler) Match(c *gin.Context) {
	m, err := h.MatchRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"match": m})
}
