package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

type FollowRepository struct {
	store *Store
}

func (r *FollowRepository) Add(_ context.Context, followerID, followedID uint) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if followerID == followedID {
		return false, store.ErrSelfReference
	}
	_, followerOK := s.profiles[followerID]
	_, followedOK := s.profiles[followedID]
	if !followerOK || !followedOK {
		return false, store.ErrRecordNotFound
	}

	key := edgeKey{followerID, followedID}
	if _, ok := s.edges[key]; ok {
		return false, nil
	}
	s.seq++
	s.edges[key] = edge{createdAt: time.Now(), seq: s.seq}
	return true, nil
}

func (r *FollowRepository) Remove(_ context.Context, followerID, followedID uint) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	key := edgeKey{followerID, followedID}
	if _, ok := s.edges[key]; !ok {
		return false, nil
	}
	delete(s.edges, key)
	return true, nil
}

func (r *FollowRepository) Exists(_ context.Context, followerID, followedID uint) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.edges[edgeKey{followerID, followedID}]
	return ok, nil
}

func (r *FollowRepository) CountFollowers(_ context.Context, profileID uint) (int64, error) {
	return r.count(func(k edgeKey) bool { return k.followed == profileID }), nil
}

func (r *FollowRepository) CountFollowing(_ context.Context, profileID uint) (int64, error) {
	return r.count(func(k edgeKey) bool { return k.follower == profileID }), nil
}

func (r *FollowRepository) count(match func(edgeKey) bool) int64 {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for k := range s.edges {
		if match(k) {
			n++
		}
	}
	return n
}

func (r *FollowRepository) ListFollowers(_ context.Context, profileID uint, q store.ListQuery) ([]models.Profile, int64, error) {
	return r.list(q, func(k edgeKey) (uint, bool) { return k.follower, k.followed == profileID })
}

func (r *FollowRepository) ListFollowing(_ context.Context, profileID uint, q store.ListQuery) ([]models.Profile, int64, error) {
	return r.list(q, func(k edgeKey) (uint, bool) { return k.followed, k.follower == profileID })
}

// list collects the far end of every matching edge in insertion order,
// applies the search filter and only then paginates.
func (r *FollowRepository) list(q store.ListQuery, match func(edgeKey) (uint, bool)) ([]models.Profile, int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	type hit struct {
		profile models.Profile
		seq     uint64
	}

	needle := strings.ToLower(q.Search)
	var hits []hit
	for k, e := range s.edges {
		other, ok := match(k)
		if !ok {
			continue
		}
		p, ok := s.profile(other)
		if !ok {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.User.Username), needle) &&
			!strings.Contains(strings.ToLower(p.User.Email), needle) {
			continue
		}
		hits = append(hits, hit{profile: *p, seq: e.seq})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	total := int64(len(hits))
	profiles := []models.Profile{}
	if q.Offset < 0 {
		q.Offset = 0
	}
	for i := q.Offset; i < len(hits) && (q.Limit <= 0 || i-q.Offset < q.Limit); i++ {
		profiles = append(profiles, hits[i].profile)
	}
	return profiles, total, nil
}

func (r *FollowRepository) FollowingIDs(_ context.Context, profileID uint) ([]uint, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []uint{}
	for k := range s.edges {
		if k.follower == profileID {
			ids = append(ids, k.followed)
		}
	}
	return ids, nil
}
