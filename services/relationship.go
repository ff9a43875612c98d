package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/metrics"
	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

const (
	ActionFollow   = "follow"
	ActionUnfollow = "unfollow"
)

// RelationshipService owns the follow graph. Profile-level methods take
// profile ids; the *User methods resolve user ids to profiles first.
type RelationshipService struct {
	store  store.Store
	logger *logrus.Logger
}

func NewRelationshipService(s store.Store, logger *logrus.Logger) *RelationshipService {
	return &RelationshipService{store: s, logger: logger}
}

type FollowResult struct {
	Success          bool  `json:"success"`
	// Changed is false when the call was a no-op: already following on
	// follow, not following on unfollow.
	Changed          bool  `json:"changed"`
	AlreadyFollowing bool  `json:"already_following"`
	IsFollowing      bool  `json:"is_following"`
	FollowersCount   int64 `json:"followers_count"`
	FollowingCount   int64 `json:"following_count"`
}

// Follow inserts the edge actor -> target and reports whether it was new.
func (s *RelationshipService) Follow(ctx context.Context, actorID, targetID uint) (bool, error) {
	if actorID == targetID {
		metrics.RecordRelationship(ActionFollow, "error")
		return false, fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	}
	if err := s.ensureProfiles(ctx, actorID, targetID); err != nil {
		metrics.RecordRelationship(ActionFollow, "error")
		return false, err
	}

	created, err := s.store.Follows().Add(ctx, actorID, targetID)
	if err != nil {
		metrics.RecordRelationship(ActionFollow, "error")
		return false, translate(err, "profile")
	}

	if created {
		metrics.RecordRelationship(ActionFollow, "created")
	} else {
		metrics.RecordRelationship(ActionFollow, "unchanged")
	}
	s.logger.WithFields(logrus.Fields{
		"follower": actorID,
		"followed": targetID,
		"created":  created,
	}).Debug("follow")
	return created, nil
}

// Unfollow removes the edge actor -> target if present. A self pair is
// never an edge, so it reports false like any other missing edge.
func (s *RelationshipService) Unfollow(ctx context.Context, actorID, targetID uint) (bool, error) {
	if err := s.ensureProfiles(ctx, actorID, targetID); err != nil {
		metrics.RecordRelationship(ActionUnfollow, "error")
		return false, err
	}

	removed, err := s.store.Follows().Remove(ctx, actorID, targetID)
	if err != nil {
		metrics.RecordRelationship(ActionUnfollow, "error")
		return false, translate(err, "profile")
	}

	if removed {
		metrics.RecordRelationship(ActionUnfollow, "removed")
	} else {
		metrics.RecordRelationship(ActionUnfollow, "unchanged")
	}
	s.logger.WithFields(logrus.Fields{
		"follower": actorID,
		"followed": targetID,
		"removed":  removed,
	}).Debug("unfollow")
	return removed, nil
}

func (s *RelationshipService) IsFollowing(ctx context.Context, actorID, targetID uint) (bool, error) {
	ok, err := s.store.Follows().Exists(ctx, actorID, targetID)
	if err != nil {
		return false, translate(err, "follow edge")
	}
	return ok, nil
}

func (s *RelationshipService) FollowersCount(ctx context.Context, profileID uint) (int64, error) {
	if err := s.ensureProfiles(ctx, profileID); err != nil {
		return 0, err
	}
	n, err := s.store.Follows().CountFollowers(ctx, profileID)
	return n, translate(err, "followers count")
}

func (s *RelationshipService) FollowingCount(ctx context.Context, profileID uint) (int64, error) {
	if err := s.ensureProfiles(ctx, profileID); err != nil {
		return 0, err
	}
	n, err := s.store.Follows().CountFollowing(ctx, profileID)
	return n, translate(err, "following count")
}

func (s *RelationshipService) ListFollowers(ctx context.Context, profileID uint, q ListQuery) (*Page[models.Profile], error) {
	return s.list(ctx, profileID, q, s.store.Follows().ListFollowers)
}

func (s *RelationshipService) ListFollowing(ctx context.Context, profileID uint, q ListQuery) (*Page[models.Profile], error) {
	return s.list(ctx, profileID, q, s.store.Follows().ListFollowing)
}

type listFunc func(ctx context.Context, profileID uint, q store.ListQuery) ([]models.Profile, int64, error)

func (s *RelationshipService) list(ctx context.Context, profileID uint, q ListQuery, fetch listFunc) (*Page[models.Profile], error) {
	if err := s.ensureProfiles(ctx, profileID); err != nil {
		return nil, err
	}

	q = q.normalize()
	items, total, err := fetch(ctx, profileID, store.ListQuery{
		Search: q.Search,
		Offset: q.offset(),
		Limit:  q.PageSize,
	})
	if err != nil {
		return nil, translate(err, "follow list")
	}
	return newPage(items, total, q), nil
}

// FollowUser makes actorUserID follow targetUserID. Both profiles are
// created on first access.
func (s *RelationshipService) FollowUser(ctx context.Context, actorUserID, targetUserID uint) (*FollowResult, error) {
	actor, target, err := s.resolvePair(ctx, actorUserID, targetUserID)
	if err != nil {
		return nil, err
	}

	created, err := s.Follow(ctx, actor.ID, target.ID)
	if err != nil {
		return nil, err
	}
	return s.result(ctx, actor.ID, target.ID, true, created)
}

func (s *RelationshipService) UnfollowUser(ctx context.Context, actorUserID, targetUserID uint) (*FollowResult, error) {
	actor, target, err := s.resolvePair(ctx, actorUserID, targetUserID)
	if err != nil {
		return nil, err
	}

	removed, err := s.Unfollow(ctx, actor.ID, target.ID)
	if err != nil {
		return nil, err
	}
	return s.result(ctx, actor.ID, target.ID, false, removed)
}

// Apply dispatches on an action token, "follow" or "unfollow".
func (s *RelationshipService) Apply(ctx context.Context, actorUserID, targetUserID uint, action string) (*FollowResult, error) {
	switch action {
	case ActionFollow:
		return s.FollowUser(ctx, actorUserID, targetUserID)
	case ActionUnfollow:
		return s.UnfollowUser(ctx, actorUserID, targetUserID)
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidOperation, action)
	}
}

func (s *RelationshipService) resolvePair(ctx context.Context, actorUserID, targetUserID uint) (*models.Profile, *models.Profile, error) {
	if actorUserID == 0 {
		return nil, nil, ErrUnauthorized
	}

	actor, err := s.store.Profiles().GetOrCreate(ctx, actorUserID)
	if err != nil {
		return nil, nil, translate(err, "user")
	}
	target, err := s.store.Profiles().GetOrCreate(ctx, targetUserID)
	if err != nil {
		return nil, nil, translate(err, "user")
	}
	return actor, target, nil
}

func (s *RelationshipService) result(ctx context.Context, actorID, targetID uint, following, changed bool) (*FollowResult, error) {
	followers, err := s.store.Follows().CountFollowers(ctx, targetID)
	if err != nil {
		return nil, translate(err, "followers count")
	}
	followingCount, err := s.store.Follows().CountFollowing(ctx, actorID)
	if err != nil {
		return nil, translate(err, "following count")
	}

	return &FollowResult{
		Success:          true,
		Changed:          changed,
		AlreadyFollowing: following && !changed,
		IsFollowing:      following,
		FollowersCount:   followers,
		FollowingCount:   followingCount,
	}, nil
}

func (s *RelationshipService) ensureProfiles(ctx context.Context, ids ...uint) error {
	for _, id := range ids {
		if _, err := s.store.Profiles().FindByID(ctx, id); err != nil {
			return translate(err, "profile")
		}
	}
	return nil
}
