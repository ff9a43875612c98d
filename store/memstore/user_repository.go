package memstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, u *models.User) (*models.Profile, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return nil, fmt.Errorf("%w: users.username", store.ErrDuplicate)
		}
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, fmt.Errorf("%w: users.email", store.ErrDuplicate)
		}
	}

	s.nextUserID++
	now := time.Now()
	u.ID = s.nextUserID
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users[u.ID] = *u

	return s.createProfile(u.ID), nil
}

func (r *UserRepository) FindByID(_ context.Context, id uint) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepository) find(match func(models.User) bool) (*models.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (r *UserRepository) UpdatePassword(_ context.Context, id uint, hash string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	u.Password = hash
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id uint) (*models.Profile, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return nil, store.ErrRecordNotFound
	}

	var removed *models.Profile
	if profileID, ok := s.profileByUser[id]; ok {
		removed, _ = s.profile(profileID)
		s.deleteProfile(profileID)
	}
	s.deleteTokens(id)
	delete(s.users, id)
	return removed, nil
}
