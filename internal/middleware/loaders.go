package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/updoot-app/backend/internal/loader"
	"github.com/updoot-app/backend/internal/store"
)

const loadersKey = "loaders"

// Loaders attaches a fresh pair of batch loaders to each request. The
// instances live in the gin context only, so one request's memoized results
// can never bleed into another's.
func Loaders(users *store.UserStore, votes *store.VoteStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(loadersKey, loader.NewLoaders(users, votes))
		c.Next()
	}
}

// GetLoaders returns the request's loaders; nil outside the middleware.
func GetLoaders(c *gin.Context) *loader.Loaders {
	v, ok := c.Get(loadersKey)
	if !ok {
		return nil
	}
	l, _ := v.(*loader.Loaders)
	return l
}
