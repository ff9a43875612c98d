package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

type RefreshTokenRepository struct {
	store *Store
}

func (r *RefreshTokenRepository) Create(_ context.Context, t *models.RefreshToken) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertToken(t)
}

func (r *RefreshTokenRepository) FindByToken(_ context.Context, token string) (*models.RefreshToken, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[token]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return &t, nil
}

func (r *RefreshTokenRepository) Rotate(_ context.Context, old string, next *models.RefreshToken) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.tokens[old]
	if !ok {
		return store.ErrRecordNotFound
	}
	delete(s.tokens, old)
	if err := s.insertToken(next); err != nil {
		s.tokens[old] = prev
		return err
	}
	return nil
}

func (r *RefreshTokenRepository) Delete(_ context.Context, token string) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tokens[token]
	delete(s.tokens, token)
	return ok, nil
}

func (r *RefreshTokenRepository) DeleteByUser(_ context.Context, userID uint) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteTokens(userID)
	return nil
}

// insertToken stores t. Callers hold mu.
func (s *Store) insertToken(t *models.RefreshToken) error {
	if _, ok := s.users[t.UserID]; !ok {
		return fmt.Errorf("%w: refresh_tokens.user_id", store.ErrRecordNotFound)
	}
	if _, ok := s.tokens[t.Token]; ok {
		return fmt.Errorf("%w: refresh_tokens.token", store.ErrDuplicate)
	}
	s.nextTokenID++
	t.ID = s.nextTokenID
	t.CreatedAt = time.Now()
	s.tokens[t.Token] = *t
	return nil
}
