package sqlstore

import (
	"context"
	"errors"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	store *Store
}

func (r *ProfileRepository) Get(ctx context.Context, userID uint) (*models.Profile, error) {
	p := &models.Profile{}
	if err := r.store.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(p).Error; err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, userID uint) (*models.Profile, error) {
	p := &models.Profile{UserID: userID}
	if err := r.store.db.WithContext(ctx).Omit("User").Create(p).Error; err != nil {
		return nil, translateError(err)
	}
	return r.FindByID(ctx, p.ID)
}

func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error) {
	p, err := r.Get(ctx, userID)
	if !errors.Is(err, store.ErrRecordNotFound) {
		return p, err
	}

	p, err = r.Create(ctx, userID)
	if errors.Is(err, store.ErrDuplicate) {
		// Created concurrently by another request.
		return r.Get(ctx, userID)
	}
	return p, err
}

func (r *ProfileRepository) FindByID(ctx context.Context, id uint) (*models.Profile, error) {
	p := &models.Profile{}
	if err := r.store.db.WithContext(ctx).Preload("User").First(p, id).Error; err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

func (r *ProfileRepository) FindByUsername(ctx context.Context, username string) (*models.Profile, error) {
	p := &models.Profile{}
	if err := r.store.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = profiles.user_id").
		Where("LOWER(users.username) = LOWER(?)", username).
		First(p).Error; err != nil {
		return nil, translateError(err)
	}
	return p, nil
}

func (r *ProfileRepository) Update(ctx context.Context, id uint, upd models.ProfileUpdate) (*models.Profile, *models.Profile, error) {
	var updated, previous models.Profile
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&previous, id).Error; err != nil {
			return err
		}

		columns := upd.Columns()
		if len(columns) > 0 {
			if err := tx.Model(&models.Profile{ID: id}).Updates(columns).Error; err != nil {
				return err
			}
		}

		return tx.Preload("User").First(&updated, id).Error
	})
	if err != nil {
		return nil, nil, translateError(err)
	}
	previous.User = updated.User
	return &updated, &previous, nil
}

func (r *ProfileRepository) Delete(ctx context.Context, id uint) (*models.Profile, error) {
	var removed models.Profile
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").First(&removed, id).Error; err != nil {
			return err
		}
		return deleteProfile(tx, id)
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &removed, nil
}

func (r *ProfileRepository) Search(ctx context.Context, q store.SearchQuery) ([]models.Profile, error) {
	query := r.store.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = profiles.user_id").
		Where("users.username ILIKE ?", containsPattern(q.Username))

	if q.ViewerID != 0 {
		query = query.Where("profiles.id <> ?", q.ViewerID)
		if q.ExcludeFollowed {
			query = query.Where("profiles.id NOT IN (?)", r.followedBy(q.ViewerID))
		}
	}

	var profiles []models.Profile
	if err := query.Order("users.username ASC").Limit(q.Limit).Find(&profiles).Error; err != nil {
		return nil, translateError(err)
	}
	return profiles, nil
}

func (r *ProfileRepository) Sample(ctx context.Context, viewerID uint, limit int) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := r.store.db.WithContext(ctx).
		Preload("User").
		Where("profiles.id <> ?", viewerID).
		Where("profiles.id NOT IN (?)", r.followedBy(viewerID)).
		Order("RANDOM()").
		Limit(limit).
		Find(&profiles).Error; err != nil {
		return nil, translateError(err)
	}
	return profiles, nil
}

func (r *ProfileRepository) followedBy(profileID uint) *gorm.DB {
	return r.store.db.Model(&models.Follow{}).Select("followed_id").Where("follower_id = ?", profileID)
}
