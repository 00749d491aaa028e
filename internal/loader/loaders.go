package loader

import (
	"context"

	"github.com/updoot-app/backend/internal/models"
	"github.com/updoot-app/backend/internal/store"
)

// Loaders carries the per-request loader instances the post handlers use to
// resolve creators and vote status without N+1 queries.
type Loaders struct {
	Users *Loader[int, models.User]
	Votes *Loader[store.VoteKey, int]
}

func NewLoaders(users *store.UserStore, votes *store.VoteStore) *Loaders {
	return &Loaders{
		Users: New(func(ctx context.Context, ids []int) (map[int]models.User, error) {
			rows, err := users.ByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			byID := make(map[int]models.User, len(rows))
			for _, u := range rows {
				byID[u.ID] = u
			}
			return byID, nil
		}),
		Votes: New(func(ctx context.Context, keys []store.VoteKey) (map[store.VoteKey]int, error) {
			rows, err := votes.ByKeys(ctx, keys)
			if err != nil {
				return nil, err
			}
			byKey := make(map[store.VoteKey]int, len(rows))
			for _, v := range rows {
				byKey[store.VoteKey{PostID: v.PostID, UserID: v.UserID}] = v.Value
			}
			return byKey, nil
		}),
	}
}
