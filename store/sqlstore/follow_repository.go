package sqlstore

import (
	"context"
	"errors"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	store *Store
}

func (r *FollowRepository) Add(ctx context.Context, followerID, followedID uint) (bool, error) {
	edge := &models.Follow{FollowerID: followerID, FollowedID: followedID}
	result := r.store.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(edge)
	if result.Error != nil {
		err := translateError(result.Error)
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return result.RowsAffected == 1, nil
}

func (r *FollowRepository) Remove(ctx context.Context, followerID, followedID uint) (bool, error) {
	result := r.store.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var exists bool
	if err := r.store.db.WithContext(ctx).Raw(
		"SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ?)",
		followerID, followedID,
	).Scan(&exists).Error; err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

func (r *FollowRepository) CountFollowers(ctx context.Context, profileID uint) (int64, error) {
	var n int64
	if err := r.store.db.WithContext(ctx).Model(&models.Follow{}).
		Where("followed_id = ?", profileID).Count(&n).Error; err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (r *FollowRepository) CountFollowing(ctx context.Context, profileID uint) (int64, error) {
	var n int64
	if err := r.store.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", profileID).Count(&n).Error; err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (r *FollowRepository) ListFollowers(ctx context.Context, profileID uint, q store.ListQuery) ([]models.Profile, int64, error) {
	return r.list(ctx, "follows.follower_id", "follows.followed_id", profileID, q)
}

func (r *FollowRepository) ListFollowing(ctx context.Context, profileID uint, q store.ListQuery) ([]models.Profile, int64, error) {
	return r.list(ctx, "follows.followed_id", "follows.follower_id", profileID, q)
}

// list returns the profiles on the joinColumn side of every edge whose
// anchorColumn is profileID, filtered before pagination.
func (r *FollowRepository) list(ctx context.Context, joinColumn, anchorColumn string, profileID uint, q store.ListQuery) ([]models.Profile, int64, error) {
	base := r.store.db.WithContext(ctx).
		Model(&models.Profile{}).
		Joins("JOIN follows ON "+joinColumn+" = profiles.id").
		Joins("JOIN users ON users.id = profiles.user_id").
		Where(anchorColumn+" = ?", profileID)

	if q.Search != "" {
		pattern := containsPattern(q.Search)
		base = base.Where("users.username ILIKE ? OR users.email ILIKE ?", pattern, pattern)
	}
	base = base.Session(&gorm.Session{})
	if q.Offset < 0 {
		q.Offset = 0
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	if total == 0 || q.Offset >= int(total) {
		return []models.Profile{}, total, nil
	}

	var profiles []models.Profile
	if err := base.
		Preload("User").
		Order("follows.created_at ASC, profiles.id ASC").
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&profiles).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return profiles, total, nil
}

func (r *FollowRepository) FollowingIDs(ctx context.Context, profileID uint) ([]uint, error) {
	var ids []uint
	if err := r.store.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", profileID).
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, translateError(err)
	}
	return ids, nil
}
