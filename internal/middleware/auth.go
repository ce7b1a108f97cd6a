package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/mattzapanta/squares/internal/models"
	"github.com/mattzapanta/squares/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Auth validates the JWT and puts the current player in the context.
func Auth(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// 2) query param ?token=xxx, for downloads that cannot set headers
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not logged in")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please log in again")
			c.Abort()
			return
		}

		var player models.Player
		if err := db.First(&player, claims.PlayerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "player not found")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load player")
			}
			c.Abort()
			return
		}

		c.Set("currentPlayer", &player)
		c.Next()
	}
}

// AdminOnly rejects requests from non-admin players. Must run after Auth.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		player := CurrentPlayer(c)
		if player == nil || !player.Admin {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentPlayer returns the authenticated player, or nil.
func CurrentPlayer(c *gin.Context) *models.Player {
	v, ok := c.Get("currentPlayer")
	if !ok {
		return nil
	}
	player, ok := v.(*models.Player)
	if !ok {
		return nil
	}
	return player
}
