package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top players by wins.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	top, err := h.Board.Top(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard": top,
	})
}

// GetRecentMatches returns the newest archived games.
func (h *Handler) GetRecentMatches(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match history not configured"})
		return
	}

	matches, err := h.Matches.GetRecent(c.Request.Context(), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// GetPlayerMatches returns one player's archived games.
func (h *Handler) GetPlayerMatches(c *gin.Context) {
	if h.Matches == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match history not configured"})
		return
	}

	uid := c.Param("uid")
	matches, err := h.Matches.GetByPlayer(c.Request.Context(), uid, 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get matches"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
