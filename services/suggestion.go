package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

const (
	DefaultSuggestionLimit = 5
	MaxSuggestionLimit     = 50
)

// SuggestionService proposes profiles to follow. Candidates are drawn at
// random from every profile the viewer is not yet following.
type SuggestionService struct {
	store  store.Store
	logger *logrus.Logger
}

func NewSuggestionService(s store.Store, logger *logrus.Logger) *SuggestionService {
	return &SuggestionService{store: s, logger: logger}
}

// Suggest never fails: storage errors are logged and yield an empty list.
func (s *SuggestionService) Suggest(ctx context.Context, viewerProfileID uint, limit int) []models.Profile {
	if limit < 1 {
		limit = DefaultSuggestionLimit
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}

	candidates, err := s.store.Profiles().Sample(ctx, viewerProfileID, limit)
	if err != nil {
		s.logger.WithError(err).WithField("profile_id", viewerProfileID).Warn("sampling suggestions failed")
		return []models.Profile{}
	}

	followed, err := s.store.Follows().FollowingIDs(ctx, viewerProfileID)
	if err != nil {
		s.logger.WithError(err).WithField("profile_id", viewerProfileID).Warn("loading following set failed")
		return []models.Profile{}
	}
	excluded := make(map[uint]struct{}, len(followed)+1)
	excluded[viewerProfileID] = struct{}{}
	for _, id := range followed {
		excluded[id] = struct{}{}
	}

	out := make([]models.Profile, 0, len(candidates))
	for _, p := range candidates {
		if _, skip := excluded[p.ID]; skip {
			continue
		}
		out = append(out, p)
	}
	return out
}

// SuggestForUser resolves the viewer's profile before sampling. Anonymous
// viewers get no suggestions.
func (s *SuggestionService) SuggestForUser(ctx context.Context, userID uint, limit int) []models.Profile {
	if userID == 0 {
		return []models.Profile{}
	}
	viewer, err := s.store.Profiles().GetOrCreate(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("resolving viewer profile failed")
		return []models.Profile{}
	}
	return s.Suggest(ctx, viewer.ID, limit)
}
