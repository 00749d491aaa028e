package store

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/updoot-app/backend/internal/models"
)

// VoteKey identifies one user's vote on one post.
type VoteKey struct {
	PostID int
	UserID int
}

type VoteStore struct {
	db *gorm.DB
}

func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

// Cast records a +1/-1 vote by userID on postID and keeps the post's
// denormalized points equal to the sum of its vote rows.
//
// First vote inserts a row and moves points by value. Repeating the same
// vote is a no-op. Flipping rewrites the row and moves points by twice the
// new value, removing the old contribution and adding the new one in a
// single delta. Vote row and points always change inside one transaction,
// and points moves via an in-database increment, never a read-modify-write,
// so concurrent votes on the same post cannot lose updates.
func (s *VoteStore) Cast(ctx context.Context, userID, postID, value int) error {
	if value != 1 && value != -1 {
		return errors.Wrap(ErrInvalidArgument, "vote value must be +1 or -1")
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return err
		}

		var existing models.Vote
		err := tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil && existing.Value == value:
			return nil

		case err == nil:
			res := tx.Model(&models.Vote{}).
				Where("user_id = ? AND post_id = ?", userID, postID).
				Update("value", value)
			if res.Error != nil {
				return res.Error
			}
			return tx.Model(&models.Post{}).
				Where("id = ?", postID).
				Update("points", gorm.Expr("points + ?", 2*value)).Error

		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{UserID: userID, PostID: postID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			return tx.Model(&models.Post{}).
				Where("id = ?", postID).
				Update("points", gorm.Expr("points + ?", value)).Error

		default:
			return err
		}
	})
	return translate(err)
}

// ByKeys fetches every vote matching the given (post, user) pairs in one
// query. Pairs with no vote row are simply absent from the result.
func (s *VoteStore) ByKeys(ctx context.Context, keys []VoteKey) ([]models.Vote, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	pairs := make([][]interface{}, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, []interface{}{k.PostID, k.UserID})
	}

	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Where("(post_id, user_id) IN ?", pairs).
		Find(&votes).Error
	if err != nil {
		return nil, translate(err)
	}
	return votes, nil
}
