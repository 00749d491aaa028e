package store

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// queryTimeout bounds every store round-trip so a wedged database surfaces
// as ErrUnavailable instead of a hung request.
const queryTimeout = 5 * time.Second

// Stores bundles the storage layer for handler wiring.
type Stores struct {
	Users *UserStore
	Posts *PostStore
	Votes *VoteStore
}

func New(db *gorm.DB) *Stores {
	return &Stores{
		Users: NewUserStore(db),
		Posts: NewPostStore(db),
		Votes: NewVoteStore(db),
	}
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, queryTimeout)
}
