package middleware

import (
	"net/http"
	"os"
	"strings"

	"github.com/Gonlonge/smartplanAnskaffelse-sub000/models"
	"github.com/Gonlonge/smartplanAnskaffelse-sub000/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const sessionKey = "session"

// AuthMiddleware validates the bearer token and stores a SessionContext on the
// gin context. Admins may impersonate another user by sending X-Act-As with
// that user's id; the header is ignored for everyone else.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr, os.Getenv("JWT_SECRET"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		actorID, err := bson.ObjectIDFromHex(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			return
		}

		sess := models.SessionContext{
			ActorID:   actorID,
			ActorRole: models.Role(claims.Role),
			IsAdmin:   models.Role(claims.Role) == models.RoleAdmin,
		}

		if actAs := c.GetHeader("X-Act-As"); actAs != "" && sess.IsAdmin {
			id, err := bson.ObjectIDFromHex(actAs)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid X-Act-As id"})
				return
			}
			sess.ActingAsID = &id
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// Session returns the SessionContext stored by AuthMiddleware. Calling it on a
// route outside the authenticated group is a programming error.
func Session(c *gin.Context) models.SessionContext {
	return c.MustGet(sessionKey).(models.SessionContext)
}
