package store

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/updoot-app/backend/internal/models"
)

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts the user; a username or email collision comes back as
// ErrConflict rather than a raw constraint error.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *UserStore) ByID(ctx context.Context, id int) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// ByLogin resolves a login identifier: anything containing "@" is treated
// as an email, everything else as a username.
func (s *UserStore) ByLogin(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	column := "username"
	if strings.Contains(usernameOrEmail, "@") {
		column = "email"
	}

	var user models.User
	err := s.db.WithContext(ctx).Where(column+" = ?", usernameOrEmail).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("password", passwordHash)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ByIDs fetches every user in ids with one query. Unknown ids are simply
// absent from the result.
func (s *UserStore) ByIDs(ctx context.Context, ids []int) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translate(err)
	}
	return users, nil
}
