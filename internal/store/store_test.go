package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/updoot-app/backend/internal/models"
)

// newTestDB opens a private in-memory database per test. Max one open
// connection, otherwise each pooled connection would see its own empty
// ":memory:" database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Vote{}))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createPost(t *testing.T, db *gorm.DB, creatorID int, title string, createdAt time.Time) *models.Post {
	t.Helper()

	post := &models.Post{
		Title:     title,
		Text:      "text for " + title,
		CreatorID: creatorID,
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// seedFeed inserts n posts with distinct descending-friendly timestamps and
// returns them oldest first.
func seedFeed(t *testing.T, db *gorm.DB, creatorID, n int) []*models.Post {
	t.Helper()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, createPost(t, db, creatorID, fmt.Sprintf("post %d", i), base.Add(time.Duration(i)*time.Minute)))
	}
	return posts
}

func postPoints(t *testing.T, db *gorm.DB, postID int) int {
	t.Helper()

	var post models.Post
	require.NoError(t, db.First(&post, postID).Error)
	return post.Points
}

func sumVotes(t *testing.T, db *gorm.DB, postID int) int {
	t.Helper()

	var votes []models.Vote
	require.NoError(t, db.Where("post_id = ?", postID).Find(&votes).Error)
	sum := 0
	for _, v := range votes {
		sum += v.Value
	}
	return sum
}

// requireInvariant asserts the one rule the ledger exists to keep: the
// post's denormalized points equal the sum of its vote rows.
func requireInvariant(t *testing.T, db *gorm.DB, postID int) {
	t.Helper()
	require.Equal(t, sumVotes(t, db, postID), postPoints(t, db, postID))
}

func testCtx() context.Context {
	return context.Background()
}
