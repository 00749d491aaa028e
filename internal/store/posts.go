package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/updoot-app/backend/internal/models"
)

// maxPageSize caps a single feed page no matter what the client asks for.
const maxPageSize = 50

type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

// List returns one reverse-chronological feed page. The cursor, when
// non-empty, excludes everything at or after the row it encodes, so walking
// pages with each returned cursor visits every post exactly once. One extra
// row is fetched to decide HasMore without a count query.
func (s *PostStore) List(ctx context.Context, limit int, after string) (*models.PaginatedPosts, error) {
	if limit <= 0 {
		return nil, errors.Wrap(ErrInvalidArgument, "limit must be positive")
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if after != "" {
		c, err := decodeCursor(after)
		if err != nil {
			return nil, err
		}
		q = q.Where("(created_at, id) < (?, ?)", c.CreatedAt, c.ID)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, translate(err)
	}

	page := &models.PaginatedPosts{HasMore: len(posts) == limit+1}
	if page.HasMore {
		posts = posts[:limit]
	}
	if posts == nil {
		posts = []models.Post{}
	}
	page.Posts = posts

	if len(posts) > 0 {
		last := posts[len(posts)-1]
		page.Cursor = encodeCursor(cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return page, nil
}

func (s *PostStore) ByID(ctx context.Context, id int) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translate(s.db.WithContext(ctx).Create(post).Error)
}

// Update rewrites title and text. The caller's identity must match the
// post's creator; a mismatch is ErrForbidden, a missing post ErrNotFound.
func (s *PostStore) Update(ctx context.Context, id, requesterID int, title *string, text string) (*models.Post, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		if post.CreatorID != requesterID {
			return ErrForbidden
		}

		if title != nil {
			post.Title = *title
		}
		post.Text = text
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// Delete removes a post together with its votes, in that order inside one
// transaction. Returns ErrForbidden when the requester is not the creator.
func (s *PostStore) Delete(ctx context.Context, id, requesterID int) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.First(&post, id).Error; err != nil {
			return err
		}
		if post.CreatorID != requesterID {
			return ErrForbidden
		}

		if err := tx.Where("post_id = ?", id).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&post).Error
	})
	return translate(err)
}
