package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/store"
)

// Viewer is the identity a profile is rendered for. A nil *Viewer or a
// zero UserID is anonymous.
type Viewer struct {
	UserID uint
}

func (v *Viewer) anonymous() bool {
	return v == nil || v.UserID == 0
}

type ProfileView struct {
	ID             uint      `json:"id"`
	UserID         uint      `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Website        string    `json:"website"`
	Avatar         *string   `json:"avatar"`
	JoinedDate     time.Time `json:"joined_date"`
	FollowersCount int64     `json:"followers_count"`
	FollowingCount int64     `json:"following_count"`
	IsFollowing    bool      `json:"is_following"`
	IsOwnProfile   bool      `json:"is_own_profile"`
}

// AvatarResolver turns a stored avatar key into an absolute URL.
type AvatarResolver interface {
	URL(key, origin string) string
}

type ProfileViewBuilder struct {
	store   store.Store
	avatars AvatarResolver
	logger  *logrus.Logger
}

func NewProfileViewBuilder(s store.Store, avatars AvatarResolver, logger *logrus.Logger) *ProfileViewBuilder {
	return &ProfileViewBuilder{store: s, avatars: avatars, logger: logger}
}

// Render builds the external representation of p. It has no side effects
// and never fails: lookups that error degrade to zero counts and
// is_following=false.
func (b *ProfileViewBuilder) Render(ctx context.Context, p *models.Profile, viewer *Viewer, origin string) ProfileView {
	user := p.User
	if user.ID == 0 {
		if u, err := b.store.Users().FindByID(ctx, p.UserID); err == nil {
			user = *u
		} else {
			b.logger.WithError(err).WithField("profile_id", p.ID).Warn("loading profile owner failed")
		}
	}

	own := !viewer.anonymous() && viewer.UserID == p.UserID
	view := ProfileView{
		ID:           p.ID,
		UserID:       p.UserID,
		Username:     user.Username,
		Bio:          p.Bio,
		Location:     p.Location,
		Website:      p.Website,
		JoinedDate:   user.CreatedAt,
		IsOwnProfile: own,
	}
	if own {
		view.Email = user.Email
	}
	if p.Avatar != "" && b.avatars != nil {
		url := b.avatars.URL(p.Avatar, origin)
		view.Avatar = &url
	}

	follows := b.store.Follows()
	var err error
	if view.FollowersCount, err = follows.CountFollowers(ctx, p.ID); err != nil {
		b.logger.WithError(err).WithField("profile_id", p.ID).Warn("counting followers failed")
		view.FollowersCount = 0
	}
	if view.FollowingCount, err = follows.CountFollowing(ctx, p.ID); err != nil {
		b.logger.WithError(err).WithField("profile_id", p.ID).Warn("counting following failed")
		view.FollowingCount = 0
	}

	view.IsFollowing = b.isFollowing(ctx, viewer, p)
	return view
}

func (b *ProfileViewBuilder) isFollowing(ctx context.Context, viewer *Viewer, p *models.Profile) bool {
	if viewer.anonymous() || viewer.UserID == p.UserID {
		return false
	}
	vp, err := b.store.Profiles().Get(ctx, viewer.UserID)
	if err != nil {
		// a viewer without a profile follows nobody
		return false
	}
	ok, err := b.store.Follows().Exists(ctx, vp.ID, p.ID)
	if err != nil {
		b.logger.WithError(err).WithField("profile_id", p.ID).Warn("checking follow edge failed")
		return false
	}
	return ok
}

// RenderPage renders every profile of a page for the same viewer.
func (b *ProfileViewBuilder) RenderPage(ctx context.Context, page *Page[models.Profile], viewer *Viewer, origin string) *Page[ProfileView] {
	return MapPage(page, func(p models.Profile) ProfileView {
		return b.Render(ctx, &p, viewer, origin)
	})
}

func (b *ProfileViewBuilder) RenderAll(ctx context.Context, profiles []models.Profile, viewer *Viewer, origin string) []ProfileView {
	out := make([]ProfileView, 0, len(profiles))
	for i := range profiles {
		out = append(out, b.Render(ctx, &profiles[i], viewer, origin))
	}
	return out
}
