// Package memstore is an in-memory store.Store. A single mutex makes every
// operation atomic; it backs the service tests and local development.
package memstore

import (
	"sync"
	"time"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

type edgeKey struct {
	follower uint
	followed uint
}

type edge struct {
	createdAt time.Time
	seq       uint64
}

type Store struct {
	mu            sync.RWMutex
	users         map[uint]models.User
	profiles      map[uint]models.Profile
	profileByUser map[uint]uint
	edges         map[edgeKey]edge
	tokens        map[string]models.RefreshToken

	nextUserID    uint
	nextProfileID uint
	nextTokenID   uint
	seq           uint64

	userRepository    *UserRepository
	profileRepository *ProfileRepository
	followRepository  *FollowRepository
	tokenRepository   *RefreshTokenRepository
}

func New() *Store {
	s := &Store{
		users:         make(map[uint]models.User),
		profiles:      make(map[uint]models.Profile),
		profileByUser: make(map[uint]uint),
		edges:         make(map[edgeKey]edge),
		tokens:        make(map[string]models.RefreshToken),
	}
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

// profile returns a copy of the profile with its user attached. Callers hold mu.
func (s *Store) profile(id uint) (*models.Profile, bool) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, false
	}
	p.User = s.users[p.UserID]
	return &p, true
}

func (s *Store) createProfile(userID uint) *models.Profile {
	s.nextProfileID++
	now := time.Now()
	p := models.Profile{ID: s.nextProfileID, UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.profiles[p.ID] = p
	s.profileByUser[userID] = p.ID
	created, _ := s.profile(p.ID)
	return created
}

// deleteProfile drops every edge touching id, then the profile. Callers hold mu.
func (s *Store) deleteProfile(id uint) {
	for k := range s.edges {
		if k.follower == id || k.followed == id {
			delete(s.edges, k)
		}
	}
	if p, ok := s.profiles[id]; ok {
		delete(s.profileByUser, p.UserID)
	}
	delete(s.profiles, id)
}

// deleteTokens revokes every refresh token of userID. Callers hold mu.
func (s *Store) deleteTokens(userID uint) {
	for k, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, k)
		}
	}
}
