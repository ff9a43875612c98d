package sqlstore

import (
	"context"
	"errors"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
	"gorm.io/gorm"
)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) (*models.Profile, error) {
	var profile *models.Profile
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		profile = &models.Profile{UserID: u.ID}
		if err := tx.Omit("User").Create(profile).Error; err != nil {
			return err
		}
		profile.User = *u
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return profile, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	u := &models.User{}
	if err := r.store.db.WithContext(ctx).First(u, id).Error; err != nil {
		return nil, translateError(err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	u := &models.User{}
	if err := r.store.db.WithContext(ctx).Where("LOWER(username) = LOWER(?)", username).First(u).Error; err != nil {
		return nil, translateError(err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	if err := r.store.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(u).Error; err != nil {
		return nil, translateError(err)
	}
	return u, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	result := r.store.db.WithContext(ctx).Model(&models.User{ID: id}).Update("password", hash)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return store.ErrRecordNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) (*models.Profile, error) {
	var removed *models.Profile
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			return err
		}

		var p models.Profile
		err := tx.Where("user_id = ?", id).First(&p).Error
		switch {
		case err == nil:
			if err := deleteProfile(tx, p.ID); err != nil {
				return err
			}
			p.User = u
			removed = &p
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return nil, translateError(err)
	}
	return removed, nil
}

// deleteProfile removes every edge touching the profile and then the profile
// itself. It must run inside a transaction.
func deleteProfile(tx *gorm.DB, profileID uint) error {
	if err := tx.Where("follower_id = ? OR followed_id = ?", profileID, profileID).
		Delete(&models.Follow{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Profile{}, profileID).Error
}
