package memstore

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

type ProfileRepository struct {
	store *Store
}

func (r *ProfileRepository) Get(_ context.Context, userID uint) (*models.Profile, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.profileByUser[userID]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	p, _ := s.profile(id)
	return p, nil
}

func (r *ProfileRepository) Create(_ context.Context, userID uint) (*models.Profile, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("%w: profiles.user_id", store.ErrRecordNotFound)
	}
	if _, ok := s.profileByUser[userID]; ok {
		return nil, fmt.Errorf("%w: profiles.user_id", store.ErrDuplicate)
	}
	return s.createProfile(userID), nil
}

func (r *ProfileRepository) GetOrCreate(_ context.Context, userID uint) (*models.Profile, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.profileByUser[userID]; ok {
		p, _ := s.profile(id)
		return p, nil
	}
	if _, ok := s.users[userID]; !ok {
		return nil, store.ErrRecordNotFound
	}
	return s.createProfile(userID), nil
}

func (r *ProfileRepository) FindByID(_ context.Context, id uint) (*models.Profile, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profile(id)
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return p, nil
}

func (r *ProfileRepository) FindByUsername(_ context.Context, username string) (*models.Profile, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if !strings.EqualFold(u.Username, username) {
			continue
		}
		if id, ok := s.profileByUser[u.ID]; ok {
			p, _ := s.profile(id)
			return p, nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (r *ProfileRepository) Update(_ context.Context, id uint, upd models.ProfileUpdate) (*models.Profile, *models.Profile, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.profile(id)
	if !ok {
		return nil, nil, store.ErrRecordNotFound
	}

	p := s.profiles[id]
	upd.Apply(&p)
	p.UpdatedAt = time.Now()
	s.profiles[id] = p

	updated, _ := s.profile(id)
	return updated, previous, nil
}

func (r *ProfileRepository) Delete(_ context.Context, id uint) (*models.Profile, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, ok := s.profile(id)
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	s.deleteProfile(id)
	return removed, nil
}

func (r *ProfileRepository) Search(_ context.Context, q store.SearchQuery) ([]models.Profile, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q.Username)
	profiles := []models.Profile{}
	for id := range s.profiles {
		p, _ := s.profile(id)
		if !strings.Contains(strings.ToLower(p.User.Username), needle) {
			continue
		}
		if q.ViewerID != 0 {
			if id == q.ViewerID {
				continue
			}
			if _, followed := s.edges[edgeKey{q.ViewerID, id}]; q.ExcludeFollowed && followed {
				continue
			}
		}
		profiles = append(profiles, *p)
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].User.Username < profiles[j].User.Username
	})
	if q.Limit > 0 && len(profiles) > q.Limit {
		profiles = profiles[:q.Limit]
	}
	return profiles, nil
}

func (r *ProfileRepository) Sample(_ context.Context, viewerID uint, limit int) ([]models.Profile, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := []models.Profile{}
	for id := range s.profiles {
		if id == viewerID {
			continue
		}
		if _, followed := s.edges[edgeKey{viewerID, id}]; followed {
			continue
		}
		p, _ := s.profile(id)
		candidates = append(candidates, *p)
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
