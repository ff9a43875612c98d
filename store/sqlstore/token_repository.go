package sqlstore

import (
	"context"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
	"gorm.io/gorm"
)

type RefreshTokenRepository struct {
	store *Store
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *models.RefreshToken) error {
	return translateError(r.store.db.WithContext(ctx).Omit("User").Create(t).Error)
}

func (r *RefreshTokenRepository) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	t := &models.RefreshToken{}
	if err := r.store.db.WithContext(ctx).Where("token = ?", token).First(t).Error; err != nil {
		return nil, translateError(err)
	}
	return t, nil
}

func (r *RefreshTokenRepository) Rotate(ctx context.Context, old string, next *models.RefreshToken) error {
	err := r.store.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("token = ?", old).Delete(&models.RefreshToken{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return store.ErrRecordNotFound
		}
		return tx.Omit("User").Create(next).Error
	})
	return translateError(err)
}

func (r *RefreshTokenRepository) Delete(ctx context.Context, token string) (bool, error) {
	result := r.store.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *RefreshTokenRepository) DeleteByUser(ctx context.Context, userID uint) error {
	return translateError(r.store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error)
}
