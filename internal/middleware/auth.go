package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/updoot-app/backend/internal/session"
)

const userIDKey = "user_id"

// Sessions resolves the session cookie into a user id on every request.
// Anonymous requests pass through untouched; only RequireAuth rejects them.
func Sessions(store session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		userID, ok, err := store.UserID(c.Request.Context(), token)
		if err != nil {
			// A flaky session store must not take down public reads;
			// the request just proceeds unauthenticated.
			logrus.WithError(err).Warn("session lookup failed")
			c.Next()
			return
		}
		if ok {
			c.Set(userIDKey, userID)
		}

		c.Next()
	}
}

// RequireAuth aborts with 401 before the handler runs when the session
// carries no identity.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(userIDKey); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user's id, if any.
func UserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}
