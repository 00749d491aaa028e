package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/updoot-app/backend/internal/middleware"
	"github.com/updoot-app/backend/internal/models"
	"github.com/updoot-app/backend/internal/store"
)

const defaultFeedLimit = 20

type PostHandler struct {
	posts *store.PostStore
	votes *store.VoteStore
}

func NewPostHandler(posts *store.PostStore, votes *store.VoteStore) *PostHandler {
	return &PostHandler{posts: posts, votes: votes}
}

// GetPosts returns one feed page, newest first. Accepts ?limit= and an
// opaque ?cursor= from a previous page.
func (h *PostHandler) GetPosts(c *gin.Context) {
	limit := defaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	page, err := h.posts.List(c.Request.Context(), limit, c.Query("cursor"))
	if err != nil {
		writeStoreError(c, err)
		return
	}

	responses, err := h.renderPosts(c, page.Posts)
	if err != nil {
		logrus.WithError(err).Error("failed to resolve post relations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":    responses,
		"has_more": page.HasMore,
		"cursor":   page.Cursor,
	})
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post id must be an integer"})
		return
	}

	post, err := h.posts.ByID(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	responses, err := h.renderPosts(c, []models.Post{*post})
	if err != nil {
		logrus.WithError(err).Error("failed to resolve post relations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch post"})
		return
	}

	c.JSON(http.StatusOK, responses[0])
}

// CreatePost creates a new post (requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.Title == "" || input.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and text are required"})
		return
	}

	post := models.Post{
		Title:     input.Title,
		Text:      input.Text,
		CreatorID: userID,
	}
	if err := h.posts.Create(c.Request.Context(), &post); err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// UpdatePost rewrites a post's title and text (requires ownership)
func (h *PostHandler) UpdatePost(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post id must be an integer"})
		return
	}

	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	post, err := h.posts.Update(c.Request.Context(), id, userID, input.Title, input.Text)
	if err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post and its votes (requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post id must be an integer"})
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id, userID); err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// VotePost casts the caller's +1/-1 vote on a post (requires authentication)
func (h *PostHandler) VotePost(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "post id must be an integer"})
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vote value must be -1 or 1"})
		return
	}

	if err := h.votes.Cast(c.Request.Context(), userID, id, input.Value); err != nil {
		writeStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"voted": true})
}

// renderPosts builds the response objects for a page of posts, resolving
// each creator and the viewer's vote status through the request's loaders:
// one batched user fetch and one batched vote fetch per page, however many
// posts it holds.
func (h *PostHandler) renderPosts(c *gin.Context, posts []models.Post) ([]gin.H, error) {
	loaders := middleware.GetLoaders(c)
	viewerID, authed := middleware.UserID(c)

	if loaders != nil && len(posts) > 0 {
		creatorIDs := make([]int, 0, len(posts))
		voteKeys := make([]store.VoteKey, 0, len(posts))
		for _, p := range posts {
			creatorIDs = append(creatorIDs, p.CreatorID)
			if authed {
				voteKeys = append(voteKeys, store.VoteKey{PostID: p.ID, UserID: viewerID})
			}
		}
		if err := loaders.Users.Prime(c.Request.Context(), creatorIDs); err != nil {
			return nil, err
		}
		if authed {
			if err := loaders.Votes.Prime(c.Request.Context(), voteKeys); err != nil {
				return nil, err
			}
		}
	}

	responses := make([]gin.H, 0, len(posts))
	for _, p := range posts {
		resp := gin.H{
			"id":           p.ID,
			"title":        p.Title,
			"text":         p.Text,
			"text_snippet": snippet(p.Text),
			"points":       p.Points,
			"creator_id":   p.CreatorID,
			"vote_status":  nil,
			"created_at":   p.CreatedAt,
			"updated_at":   p.UpdatedAt,
		}

		if loaders != nil {
			if creator, ok, err := loaders.Users.Load(c.Request.Context(), p.CreatorID); err != nil {
				return nil, err
			} else if ok {
				resp["creator"] = creator
			}

			if authed {
				key := store.VoteKey{PostID: p.ID, UserID: viewerID}
				if value, ok, err := loaders.Votes.Load(c.Request.Context(), key); err != nil {
					return nil, err
				} else if ok {
					resp["vote_status"] = value
				}
			}
		}

		responses = append(responses, resp)
	}

	return responses, nil
}

const snippetLength = 50

func snippet(text string) string {
	if len(text) <= snippetLength {
		return text
	}
	return text[:snippetLength] + "..."
}
