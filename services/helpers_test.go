package services

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/storage"
	"github.com/snap-point/social-api/store/memstore"
	"github.com/stretchr/testify/require"
)

const testPassword = "Secret123"

var testTokens = TokenConfig{
	Secret:     "test-secret",
	AccessTTL:  time.Hour,
	RefreshTTL: 24 * time.Hour,
}

type testEnv struct {
	store       *memstore.Store
	avatars     *storage.LocalStore
	logger      *logrus.Logger
	relations   *RelationshipService
	suggestions *SuggestionService
	views       *ProfileViewBuilder
	profiles    *ProfileService
	accounts    *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	s := memstore.New()
	avatars := storage.NewLocalStore(t.TempDir())
	views := NewProfileViewBuilder(s, avatars, logger)
	return &testEnv{
		store:       s,
		avatars:     avatars,
		logger:      logger,
		relations:   NewRelationshipService(s, logger),
		suggestions: NewSuggestionService(s, logger),
		views:       views,
		profiles:    NewProfileService(s, views, logger),
		accounts:    NewAccountService(s, avatars, testTokens, logger),
	}
}

// newProfile creates a user named name and returns its profile.
func (e *testEnv) newProfile(t *testing.T, name string) *models.Profile {
	t.Helper()
	p, err := e.store.Users().Create(context.Background(), &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "x",
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) follow(t *testing.T, follower, followed *models.Profile) {
	t.Helper()
	_, err := e.relations.Follow(context.Background(), follower.ID, followed.ID)
	require.NoError(t, err)
}

func (e *testEnv) register(t *testing.T, name string) *models.User {
	t.Helper()
	user, _, err := e.accounts.Register(context.Background(), RegisterInput{
		Username:        name,
		Email:           fmt.Sprintf("%s@example.com", name),
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	require.NoError(t, err)
	return user
}
