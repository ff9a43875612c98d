package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/snap-point/social-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.newProfile(t, "alice")
	bob := env.newProfile(t, "bob")

	created, err := env.relations.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)

	following, err := env.relations.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)

	reverse, err := env.relations.IsFollowing(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, reverse)

	followers, err := env.relations.FollowersCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	followingCount, err := env.relations.FollowingCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followingCount)
}

func TestFollowTwiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.newProfile(t, "alice")
	bob := env.newProfile(t, "bob")

	env.follow(t, alice, bob)
	created, err := env.relations.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created)

	followers, err := env.relations.FollowersCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
}

func TestFollowSelf(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.newProfile(t, "alice")

	_, err := env.relations.Follow(ctx, alice.ID, alice.ID)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	following, err := env.relations.IsFollowing(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, following)

	count, err := env.relations.FollowingCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFollowMissingProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.newProfile(t, "alice")

	_, err := env.relations.Follow(ctx, alice.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.relations.Unfollow(ctx, alice.ID, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.relations.FollowersCount(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnfollowWithoutEdge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.newProfile(t, "alice")
	bob := env.newProfile(t, "bob")

	removed, err := env.relations.Unfollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	following, err := env.relations.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following)
}

func TestMutualFollowThenUnfollow(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.newProfile(t, "alice")
	b := env.newProfile(t, "bob")

	env.follow(t, a, b)
	env.follow(t, b, a)

	removed, err := env.relations.Unfollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	ab, err := env.relations.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ab)

	ba, err := env.relations.IsFollowing(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ba)

	followersA, err := env.relations.FollowersCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followersA)

	followersB, err := env.relations.FollowersCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, followersB)
}

func TestListFollowersPagination(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	target := env.newProfile(t, "target")
	for i := 0; i < 25; i++ {
		env.follow(t, env.newProfile(t, fmt.Sprintf("fan%02d", i)), target)
	}

	page, err := env.relations.ListFollowers(ctx, target.ID, ListQuery{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, int64(25), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrevious)
	// insertion order
	assert.Equal(t, "fan10", page.Items[0].User.Username)

	last, err := env.relations.ListFollowers(ctx, target.ID, ListQuery{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, last.Items, 5)
	assert.False(t, last.HasNext)

	beyond, err := env.relations.ListFollowers(ctx, target.ID, ListQuery{Page: 9, PageSize: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.False(t, beyond.HasNext)
	assert.True(t, beyond.HasPrevious)
}

func TestListQueryDefaults(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	target := env.newProfile(t, "target")
	for i := 0; i < 12; i++ {
		env.follow(t, target, env.newProfile(t, fmt.Sprintf("star%02d", i)))
	}

	page, err := env.relations.ListFollowing(ctx, target.ID, ListQuery{Page: -3, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, DefaultPageSize, page.PageSize)
	assert.Len(t, page.Items, DefaultPageSize)
	assert.False(t, page.HasPrevious)

	capped := ListQuery{PageSize: 1000}.normalize()
	assert.Equal(t, MaxPageSize, capped.PageSize)
}

func TestListFollowersHugePage(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	target := env.newProfile(t, "target")
	for i := 0; i < 3; i++ {
		env.follow(t, env.newProfile(t, fmt.Sprintf("fan%02d", i)), target)
	}

	var (
		page *Page[models.Profile]
		err  error
	)
	assert.NotPanics(t, func() {
		page, err = env.relations.ListFollowers(ctx, target.ID, ListQuery{Page: math.MaxInt64 / 5, PageSize: 10})
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.False(t, page.HasNext)
	assert.True(t, page.HasPrevious)

	q := ListQuery{Page: math.MaxInt, PageSize: MaxPageSize}.normalize()
	assert.GreaterOrEqual(t, q.offset(), 0)
	assert.Equal(t, math.MaxInt/MaxPageSize, q.Page)
}

func TestListFollowersSearchFiltersBeforePaging(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	target := env.newProfile(t, "target")
	for _, name := range []string{"Marta", "mark", "bob", "amaro", "zed"} {
		env.follow(t, env.newProfile(t, name), target)
	}

	page, err := env.relations.ListFollowers(ctx, target.ID, ListQuery{Search: "MAR", PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.HasNext)

	// email is matched too
	byEmail, err := env.relations.ListFollowers(ctx, target.ID, ListQuery{Search: "zed@example"})
	require.NoError(t, err)
	require.Len(t, byEmail.Items, 1)
	assert.Equal(t, "zed", byEmail.Items[0].User.Username)
}

func TestDeleteAccountRemovesEdges(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.newProfile(t, "alice")
	b := env.newProfile(t, "bob")
	c := env.newProfile(t, "carol")
	env.follow(t, a, b)
	env.follow(t, b, a)
	env.follow(t, b, c)
	env.follow(t, c, a)

	_, err := env.store.Users().Delete(ctx, b.UserID)
	require.NoError(t, err)

	following, err := env.relations.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, following)

	followersA, err := env.relations.FollowersCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followersA)

	followersC, err := env.relations.FollowersCount(ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, followersC)

	_, err = env.relations.FollowersCount(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.relations.Follow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentFollowCreatesOneEdge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.newProfile(t, "alice")
	b := env.newProfile(t, "bob")

	var (
		wg      sync.WaitGroup
		created int32
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := env.relations.Follow(ctx, a.ID, b.ID)
			assert.NoError(t, err)
			if ok {
				atomic.AddInt32(&created, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created)
	followers, err := env.relations.FollowersCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)
}

func TestFollowUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.newProfile(t, "alice")
	b := env.newProfile(t, "bob")

	res, err := env.relations.FollowUser(ctx, a.UserID, b.UserID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Changed)
	assert.True(t, res.IsFollowing)
	assert.False(t, res.AlreadyFollowing)
	assert.Equal(t, int64(1), res.FollowersCount)
	assert.Equal(t, int64(1), res.FollowingCount)

	again, err := env.relations.Apply(ctx, a.UserID, b.UserID, ActionFollow)
	require.NoError(t, err)
	assert.True(t, again.AlreadyFollowing)
	assert.Equal(t, int64(1), again.FollowersCount)

	un, err := env.relations.Apply(ctx, a.UserID, b.UserID, ActionUnfollow)
	require.NoError(t, err)
	assert.False(t, un.IsFollowing)
	assert.True(t, un.Changed)
	assert.Zero(t, un.FollowersCount)
	assert.Zero(t, un.FollowingCount)
}

func TestFollowUserErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.newProfile(t, "alice")
	b := env.newProfile(t, "bob")

	_, err := env.relations.FollowUser(ctx, 0, b.UserID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.relations.FollowUser(ctx, a.UserID, a.UserID)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = env.relations.Apply(ctx, a.UserID, a.UserID, ActionFollow)
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = env.relations.FollowUser(ctx, a.UserID, 424242)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.relations.Apply(ctx, a.UserID, b.UserID, "block")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestFollowUserCreatesMissingProfile(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.newProfile(t, "alice")
	b := env.newProfile(t, "bob")

	_, err := env.store.Profiles().Delete(ctx, b.ID)
	require.NoError(t, err)

	res, err := env.relations.FollowUser(ctx, a.UserID, b.UserID)
	require.NoError(t, err)
	assert.True(t, res.IsFollowing)

	recreated, err := env.store.Profiles().Get(ctx, b.UserID)
	require.NoError(t, err)
	assert.NotEqual(t, b.ID, recreated.ID)
}

func TestUnfollowSelfIsNoOp(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.newProfile(t, "alice")

	removed, err := env.relations.Unfollow(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	res, err := env.relations.UnfollowUser(ctx, a.UserID, a.UserID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.Changed)
	assert.False(t, res.IsFollowing)
	assert.Zero(t, res.FollowersCount)
}
