package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/models"
)

const (
	MaxAvatarSize      = 5 << 20
	MinAvatarDimension = 100
	MaxAvatarDimension = 5000
)

var avatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ReplaceAvatar validates and uploads a new avatar image, points the
// caller's profile at it and then releases the previous object.
func (s *AccountService) ReplaceAvatar(ctx context.Context, userID uint, file io.Reader) (*models.Profile, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxAvatarSize+1))
	if err != nil {
		return nil, fmt.Errorf("read avatar: %w", err)
	}
	mt, err := validateAvatar(data)
	if err != nil {
		return nil, err
	}

	p, err := s.store.Profiles().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}

	key := avatarKey(userID, mt.Extension(), time.Now())
	if err := s.avatars.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mt.String()); err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	updated, previous, err := s.store.Profiles().Update(ctx, p.ID, models.ProfileUpdate{Avatar: &key})
	if err != nil {
		s.releaseAvatar(ctx, key)
		return nil, translate(err, "profile")
	}

	if previous.Avatar != "" && previous.Avatar != key {
		s.releaseAvatar(ctx, previous.Avatar)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "key": key}).Info("avatar replaced")
	return updated, nil
}

func validateAvatar(data []byte) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: avatar file is empty", ErrValidation)
	}
	if len(data) > MaxAvatarSize {
		return nil, fmt.Errorf("%w: avatar must be at most %d MB", ErrValidation, MaxAvatarSize>>20)
	}

	mt := mimetype.Detect(data)
	if !avatarTypes[mt.String()] {
		return nil, fmt.Errorf("%w: unsupported avatar type %s", ErrValidation, mt.String())
	}

	// webp has no decoder registered; its dimensions are not checked
	if mt.Is("image/webp") {
		return mt, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: avatar is not a valid image", ErrValidation)
	}
	if cfg.Width < MinAvatarDimension || cfg.Height < MinAvatarDimension {
		return nil, fmt.Errorf("%w: avatar must be at least %dx%d pixels", ErrValidation, MinAvatarDimension, MinAvatarDimension)
	}
	if cfg.Width > MaxAvatarDimension || cfg.Height > MaxAvatarDimension {
		return nil, fmt.Errorf("%w: avatar must be at most %dx%d pixels", ErrValidation, MaxAvatarDimension, MaxAvatarDimension)
	}
	return mt, nil
}

func avatarKey(userID uint, ext string, now time.Time) string {
	return fmt.Sprintf("users/%d/avatar/%d_%s%s", userID, now.Unix(), uuid.New().String(), ext)
}
