package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/updoot-app/backend/internal/session"
	"github.com/updoot-app/backend/internal/store"
)

// Handler combines all handler types
type Handler struct {
	Auth *AuthHandler
	Post *PostHandler

	Stores *store.Stores
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, sessions session.Store) *Handler {
	stores := store.New(db)

	return &Handler{
		Auth:   NewAuthHandler(stores.Users, sessions),
		Post:   NewPostHandler(stores.Posts, stores.Votes),
		Stores: stores,
	}
}

// writeStoreError maps a store error kind onto an HTTP status. Anything
// unrecognized is a plain 500; the store never leaks driver codes this far.
func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, store.ErrInvalidArgument), errors.Is(err, store.ErrInvalidCursor):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, store.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
