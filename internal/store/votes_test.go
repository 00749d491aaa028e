package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCast_FirstVote(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	author := createUser(t, db, "author")
	voter := createUser(t, db, "voter")
	post := createPost(t, db, author.ID, "first", time.Now().UTC())

	require.NoError(t, votes.Cast(testCtx(), voter.ID, post.ID, 1))

	assert.Equal(t, 1, postPoints(t, db, post.ID))
	requireInvariant(t, db, post.ID)
}

func TestCast_Downvote(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	author := createUser(t, db, "author")
	voter := createUser(t, db, "voter")
	post := createPost(t, db, author.ID, "first", time.Now().UTC())

	require.NoError(t, votes.Cast(testCtx(), voter.ID, post.ID, -1))

	assert.Equal(t, -1, postPoints(t, db, post.ID))
	requireInvariant(t, db, post.ID)
}

func TestCast_RepeatVoteIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	author := createUser(t, db, "author")
	voter := createUser(t, db, "voter")
	post := createPost(t, db, author.ID, "first", time.Now().UTC())

	require.NoError(t, votes.Cast(testCtx(), voter.ID, post.ID, 1))
	require.NoError(t, votes.Cast(testCtx(), voter.ID, post.ID, 1))
	require.NoError(t, votes.Cast(testCtx(), voter.ID, post.ID, 1))

	assert.Equal(t, 1, postPoints(t, db, post.ID))
	requireInvariant(t, db, post.ID)
}

func TestCast_FlipMovesPointsByTwo(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	author := createUser(t, db, "author")
	voter := createUser(t, db, "voter")
	post := createPost(t, db, author.ID, "first", time.Now().UTC())

	require.NoError(t, votes.Cast(testCtx(), voter.ID, post.ID, 1))
	require.Equal(t, 1, postPoints(t, db, post.ID))

	require.NoError(t, votes.Cast(testCtx(), voter.ID, post.ID, -1))
	assert.Equal(t, -1, postPoints(t, db, post.ID), "flip is a single -2 delta")
	requireInvariant(t, db, post.ID)

	require.NoError(t, votes.Cast(testCtx(), voter.ID, post.ID, 1))
	assert.Equal(t, 1, postPoints(t, db, post.ID))
	requireInvariant(t, db, post.ID)
}

// Mirrors the three-user walkthrough: B up (1), B flips down (-1), C up (0).
func TestCast_MultipleVoters(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	a := createUser(t, db, "alice")
	b := createUser(t, db, "bob")
	c := createUser(t, db, "carol")
	post := createPost(t, db, a.ID, "shared", time.Now().UTC())

	require.NoError(t, votes.Cast(testCtx(), b.ID, post.ID, 1))
	assert.Equal(t, 1, postPoints(t, db, post.ID))

	require.NoError(t, votes.Cast(testCtx(), b.ID, post.ID, -1))
	assert.Equal(t, -1, postPoints(t, db, post.ID))

	require.NoError(t, votes.Cast(testCtx(), c.ID, post.ID, 1))
	assert.Equal(t, 0, postPoints(t, db, post.ID))

	requireInvariant(t, db, post.ID)
}

func TestCast_SelfVoteAllowed(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	author := createUser(t, db, "author")
	post := createPost(t, db, author.ID, "mine", time.Now().UTC())

	require.NoError(t, votes.Cast(testCtx(), author.ID, post.ID, 1))
	assert.Equal(t, 1, postPoints(t, db, post.ID))
}

func TestCast_InvariantHoldsAcrossSequence(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	author := createUser(t, db, "author")
	post := createPost(t, db, author.ID, "busy", time.Now().UTC())

	voters := make([]int, 0, 5)
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		voters = append(voters, createUser(t, db, name).ID)
	}

	sequence := []struct {
		voter int
		value int
	}{
		{voters[0], 1}, {voters[1], -1}, {voters[0], -1}, {voters[2], 1},
		{voters[3], 1}, {voters[1], -1}, {voters[4], -1}, {voters[0], 1},
		{voters[2], 1}, {voters[3], -1},
	}

	for _, step := range sequence {
		require.NoError(t, votes.Cast(testCtx(), step.voter, post.ID, step.value))
		requireInvariant(t, db, post.ID)
	}
}

func TestCast_RejectsBadValue(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	author := createUser(t, db, "author")
	post := createPost(t, db, author.ID, "first", time.Now().UTC())

	for _, value := range []int{0, 2, -2, 100} {
		err := votes.Cast(testCtx(), author.ID, post.ID, value)
		assert.ErrorIs(t, err, ErrInvalidArgument, "value %d", value)
	}

	assert.Equal(t, 0, postPoints(t, db, post.ID))
}

func TestCast_MissingPost(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	voter := createUser(t, db, "voter")

	err := votes.Cast(testCtx(), voter.ID, 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVoteByKeys_BatchAndMisses(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	author := createUser(t, db, "author")
	voter := createUser(t, db, "voter")
	p1 := createPost(t, db, author.ID, "one", time.Now().UTC())
	p2 := createPost(t, db, author.ID, "two", time.Now().UTC())
	p3 := createPost(t, db, author.ID, "three", time.Now().UTC())

	require.NoError(t, votes.Cast(testCtx(), voter.ID, p1.ID, 1))
	require.NoError(t, votes.Cast(testCtx(), voter.ID, p3.ID, -1))

	got, err := votes.ByKeys(testCtx(), []VoteKey{
		{PostID: p1.ID, UserID: voter.ID},
		{PostID: p2.ID, UserID: voter.ID}, // never voted; absent, not an error
		{PostID: p3.ID, UserID: voter.ID},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	byPost := map[int]int{}
	for _, v := range got {
		byPost[v.PostID] = v.Value
	}
	assert.Equal(t, 1, byPost[p1.ID])
	assert.Equal(t, -1, byPost[p3.ID])
}

func TestVoteByKeys_EmptyKeys(t *testing.T) {
	db := newTestDB(t)
	votes := NewVoteStore(db)

	got, err := votes.ByKeys(testCtx(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
