package models

import "time"

// Vote is one user's vote on one post. Absence of a row means no vote cast;
// Value is always +1 or -1. The composite key makes a repeat vote an update,
// never a second row.
type Vote struct {
	UserID    int       `gorm:"primaryKey" json:"user_id"`
	PostID    int       `gorm:"primaryKey" json:"post_id"`
	Value     int       `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type VoteRequest struct {
	Value int `json:"value"`
}
