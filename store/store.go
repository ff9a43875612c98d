// Package store defines the persistence contract for users, profiles and the
// directed follow-edge set. Every mutating method is atomic: it is either
// fully applied or not applied at all.
package store

import (
	"context"

	"github.com/snap-point/social-api/models"
)

type Store interface {
	Users() UserRepository
	Profiles() ProfileRepository
	Follows() FollowRepository
	Tokens() RefreshTokenRepository
}

type UserRepository interface {
	// Create inserts the user together with its empty profile.
	Create(ctx context.Context, u *models.User) (*models.Profile, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error
	// Delete removes the user, its profile and every edge touching that
	// profile. The removed profile is returned so the caller can release
	// its avatar object; it is nil when the user never had one.
	Delete(ctx context.Context, id uint) (*models.Profile, error)
}

type ProfileRepository interface {
	// Get looks a profile up by its owning user id.
	Get(ctx context.Context, userID uint) (*models.Profile, error)
	Create(ctx context.Context, userID uint) (*models.Profile, error)
	// GetOrCreate returns the profile of userID, creating it on first access.
	GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error)
	FindByID(ctx context.Context, id uint) (*models.Profile, error)
	FindByUsername(ctx context.Context, username string) (*models.Profile, error)
	// Update applies upd and returns the updated profile and the state it
	// had before the update.
	Update(ctx context.Context, id uint, upd models.ProfileUpdate) (*models.Profile, *models.Profile, error)
	Delete(ctx context.Context, id uint) (*models.Profile, error)
	Search(ctx context.Context, q SearchQuery) ([]models.Profile, error)
	// Sample returns up to limit random profiles other than viewerID and the
	// profiles viewerID follows.
	Sample(ctx context.Context, viewerID uint, limit int) ([]models.Profile, error)
}

type FollowRepository interface {
	// Add inserts the edge follower -> followed. It reports false when the
	// edge already existed, including when a concurrent insert won the race.
	Add(ctx context.Context, followerID, followedID uint) (bool, error)
	// Remove deletes the edge and reports whether it existed.
	Remove(ctx context.Context, followerID, followedID uint) (bool, error)
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	CountFollowers(ctx context.Context, profileID uint) (int64, error)
	CountFollowing(ctx context.Context, profileID uint) (int64, error)
	ListFollowers(ctx context.Context, profileID uint, q ListQuery) ([]models.Profile, int64, error)
	ListFollowing(ctx context.Context, profileID uint, q ListQuery) ([]models.Profile, int64, error)
	FollowingIDs(ctx context.Context, profileID uint) ([]uint, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, t *models.RefreshToken) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	// Rotate deletes old and stores next in one step. It fails with
	// ErrRecordNotFound when old was already used or revoked.
	Rotate(ctx context.Context, old string, next *models.RefreshToken) error
	// Delete revokes a token and reports whether it existed.
	Delete(ctx context.Context, token string) (bool, error)
	DeleteByUser(ctx context.Context, userID uint) error
}

// ListQuery filters by a case-insensitive substring of username or email
// before Offset and Limit are applied.
type ListQuery struct {
	Search string
	Offset int
	Limit  int
}

type SearchQuery struct {
	Username        string
	ViewerID        uint // 0 for anonymous
	ExcludeFollowed bool
	Limit           int
}
