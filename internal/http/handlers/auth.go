package handlers

import (
	"net/http"
	"strings"

	"tictactoe_online/internal/domain"
	"tictactoe_online/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxNameLen = 24

type guestRequest struct {
	Name string `json:"name"`
	// UID lets a returning device keep its identity when it still has
	// the uid but lost the token.
	UID string `json:"uid"`
}

// Guest issues a stable identity for a device. The client persists the
// uid and token and presents the token on every WebSocket connect.
func (h *Handler) Guest(c *gin.Context) {
	var req guestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Guest"
	}
	// truncate on rune boundaries so a multi-byte name stays valid UTF-8
	if runes := []rune(name); len(runes) > maxNameLen {
		name = string(runes[:maxNameLen])
	}

	uid := strings.TrimSpace(req.UID)
	if uid == "" {
		uid = "user_" + uuid.New().String()[:8]
	}

	player := domain.Player{UID: uid, Name: name}
	token, err := service.GenerateIdentityToken(player)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"uid":   player.UID,
		"name":  player.Name,
		"token": token,
	})
}
