package models

import "time"

type Post struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Text      string    `gorm:"not null" json:"text"`
	Points    int       `gorm:"not null;default:0" json:"points"`
	CreatorID int       `gorm:"not null;index" json:"creator_id"`
	Creator   User      `gorm:"foreignKey:CreatorID" json:"creator"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreatePostRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type UpdatePostRequest struct {
	Title *string `json:"title,omitempty"`
	Text  string  `json:"text"`
}

// PaginatedPosts is one feed page. Cursor is opaque; feed it back verbatim
// to fetch the next page.
type PaginatedPosts struct {
	Posts   []Post `json:"posts"`
	HasMore bool   `json:"has_more"`
	Cursor  string `json:"cursor,omitempty"`
}
