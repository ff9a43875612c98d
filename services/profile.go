package services

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

const SearchLimit = 10

// ProfileService resolves profiles for reads: lookup by username, the
// caller's own profile and username search.
type ProfileService struct {
	store  store.Store
	views  *ProfileViewBuilder
	logger *logrus.Logger
}

func NewProfileService(s store.Store, views *ProfileViewBuilder, logger *logrus.Logger) *ProfileService {
	return &ProfileService{store: s, views: views, logger: logger}
}

// Resolve finds the profile of username, creating it when the user exists
// but has never had one.
func (s *ProfileService) Resolve(ctx context.Context, username string) (*models.Profile, error) {
	p, err := s.store.Profiles().FindByUsername(ctx, username)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, translate(err, "profile")
	}

	u, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return nil, translate(err, "user")
	}
	p, err = s.store.Profiles().GetOrCreate(ctx, u.ID)
	if err != nil {
		return nil, translate(err, "profile")
	}
	return p, nil
}

// Current returns the profile of userID, creating it on first access.
func (s *ProfileService) Current(ctx context.Context, userID uint) (*models.Profile, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	p, err := s.store.Profiles().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}
	return p, nil
}

func (s *ProfileService) View(ctx context.Context, username string, viewer *Viewer, origin string) (*ProfileView, error) {
	p, err := s.Resolve(ctx, username)
	if err != nil {
		return nil, err
	}
	view := s.views.Render(ctx, p, viewer, origin)
	return &view, nil
}

// Search matches usernames case-insensitively. The viewer is never part of
// the result; with excludeFollowed the profiles it follows are dropped too.
func (s *ProfileService) Search(ctx context.Context, query string, viewer *Viewer, excludeFollowed bool) ([]models.Profile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Profile{}, nil
	}

	q := store.SearchQuery{Username: query, ExcludeFollowed: excludeFollowed, Limit: SearchLimit}
	if !viewer.anonymous() {
		vp, err := s.store.Profiles().GetOrCreate(ctx, viewer.UserID)
		if err != nil {
			return nil, translate(err, "user")
		}
		q.ViewerID = vp.ID
	}

	profiles, err := s.store.Profiles().Search(ctx, q)
	if err != nil {
		return nil, translate(err, "profile search")
	}
	if profiles == nil {
		profiles = []models.Profile{}
	}
	return profiles, nil
}
