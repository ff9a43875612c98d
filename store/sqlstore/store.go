// Package sqlstore implements store.Store on top of gorm and PostgreSQL.
package sqlstore

import (
	"github.com/snap-point/social-api/store"
	"gorm.io/gorm"
)

type Store struct {
	db                *gorm.DB
	userRepository    *UserRepository
	profileRepository *ProfileRepository
	followRepository  *FollowRepository
	tokenRepository   *RefreshTokenRepository
}

func New(db *gorm.DB) *Store {
	s := &Store{db: db}
	s.userRepository = &UserRepository{store: s}
	s.profileRepository = &ProfileRepository{store: s}
	s.followRepository = &FollowRepository{store: s}
	s.tokenRepository = &RefreshTokenRepository{store: s}
	return s
}

func (s *Store) Users() store.UserRepository {
	return s.userRepository
}

func (s *Store) Profiles() store.ProfileRepository {
	return s.profileRepository
}

func (s *Store) Follows() store.FollowRepository {
	return s.followRepository
}

func (s *Store) Tokens() store.RefreshTokenRepository {
	return s.tokenRepository
}
