package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/metrics"
	"github.com/snap-point/social-api/middleware"
	"github.com/snap-point/social-api/services"
	"github.com/snap-point/social-api/storage"
	"github.com/snap-point/social-api/store/memstore"
	"github.com/snap-point/social-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	secret   = "test-secret"
	password = "Secret123"
)

type api struct {
	t      *testing.T
	router *gin.Engine
	store  *memstore.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	st := memstore.New()
	mediaDir := t.TempDir()
	avatars := storage.NewLocalStore(mediaDir)
	views := services.NewProfileViewBuilder(st, avatars, logger)

	r := gin.New()
	r.Use(middleware.Metrics())
	SetupRoutes(r, Deps{
		Relations:   services.NewRelationshipService(st, logger),
		Suggestions: services.NewSuggestionService(st, logger),
		Profiles:    services.NewProfileService(st, views, logger),
		Views:       views,
		Accounts:    services.NewAccountService(st, avatars, services.TokenConfig{Secret: secret, AccessTTL: time.Hour, RefreshTTL: time.Hour}, logger),
		JWTSecret:   secret,
		MediaDir:    mediaDir,
		Registry:    metrics.GetRegistry(),
	})
	return &api{t: t, router: r, store: st}
}

// register creates a user through the API and returns its id and token.
func (a *api) register(name string) (uint, string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/register", "", gin.H{
		"username":         name,
		"email":            name + "@example.com",
		"password":         password,
		"confirm_password": password,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Data struct {
			ID     uint               `json:"id"`
			Tokens services.TokenPair `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(a.t, body.Data.Tokens.RefreshToken)

	claims, err := utils.ParseToken(body.Data.Tokens.AccessToken, secret)
	require.NoError(a.t, err)
	require.Equal(a.t, body.Data.ID, claims.UserID)
	return body.Data.ID, body.Data.Tokens.AccessToken
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestFollowEndpoint(t *testing.T) {
	a := newAPI(t)
	_, aliceToken := a.register("alice")
	bobID, bobToken := a.register("bob")

	w := a.do(http.MethodPost, "/api/follow", aliceToken, gin.H{"user_id": bobID, "action": "follow"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res services.FollowResult
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.True(t, res.IsFollowing)
	assert.Equal(t, int64(1), res.FollowersCount)
	assert.Equal(t, int64(1), res.FollowingCount)

	w = a.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", bobID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.True(t, res.AlreadyFollowing)

	var view struct {
		Data services.ProfileView `json:"data"`
	}
	w = a.do(http.MethodGet, "/api/profile/bob", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.True(t, view.Data.IsFollowing)
	assert.Equal(t, int64(1), view.Data.FollowersCount)
	assert.Empty(t, view.Data.Email)

	w = a.do(http.MethodGet, "/api/profile/bob", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.True(t, view.Data.IsOwnProfile)
	assert.Equal(t, "bob@example.com", view.Data.Email)

	w = a.do(http.MethodDelete, fmt.Sprintf("/api/users/%d/follow", bobID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &res)
	assert.False(t, res.IsFollowing)
	assert.Zero(t, res.FollowersCount)
}

func TestFollowEndpointErrors(t *testing.T) {
	a := newAPI(t)
	aliceID, aliceToken := a.register("alice")
	bobID, _ := a.register("bob")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
	}{
		{"anonymous", http.MethodPost, "/api/follow", "", gin.H{"user_id": bobID, "action": "follow"}, http.StatusUnauthorized},
		{"self", http.MethodPost, "/api/follow", aliceToken, gin.H{"user_id": aliceID, "action": "follow"}, http.StatusBadRequest},
		{"unknown action", http.MethodPost, "/api/follow", aliceToken, gin.H{"user_id": bobID, "action": "poke"}, http.StatusBadRequest},
		{"missing target", http.MethodPost, "/api/users/9999/follow", aliceToken, nil, http.StatusNotFound},
		{"bad id", http.MethodPost, "/api/users/abc/follow", aliceToken, nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var body map[string]interface{}
			decode(t, w, &body)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestFollowersPagination(t *testing.T) {
	a := newAPI(t)
	targetID, targetToken := a.register("target")
	for i := 0; i < 25; i++ {
		_, token := a.register(fmt.Sprintf("fan%02d", i))
		w := a.do(http.MethodPost, "/api/follow", token, gin.H{"user_id": targetID, "action": "follow"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	var page struct {
		Success    bool                   `json:"success"`
		Data       []services.ProfileView `json:"data"`
		Pagination struct {
			CurrentPage int   `json:"currentPage"`
			TotalItems  int64 `json:"totalItems"`
			TotalPages  int   `json:"totalPages"`
			HasNext     bool  `json:"hasNext"`
			HasPrevious bool  `json:"hasPrevious"`
		} `json:"pagination"`
	}

	w := a.do(http.MethodGet, "/api/followers?page=2&pageSize=10", targetToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Len(t, page.Data, 10)
	assert.Equal(t, int64(25), page.Pagination.TotalItems)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrevious)

	w = a.do(http.MethodGet, "/api/profiles/target/followers?search=fan1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &page)
	assert.Equal(t, int64(10), page.Pagination.TotalItems)
	for _, v := range page.Data {
		assert.False(t, v.IsFollowing)
	}

	w = a.do(http.MethodGet, "/api/profiles/nobody/following", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSuggestionsAndSearch(t *testing.T) {
	a := newAPI(t)
	_, aliceToken := a.register("alice")
	bobID, _ := a.register("bob")
	a.register("alina")

	w := a.do(http.MethodPost, "/api/follow", aliceToken, gin.H{"user_id": bobID, "action": "follow"})
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data []services.ProfileView `json:"data"`
	}
	w = a.do(http.MethodGet, "/api/suggestions?limit=10", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "alina", list.Data[0].Username)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/suggestions", "", nil).Code)

	w = a.do(http.MethodGet, "/api/users/search?q=", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Empty(t, list.Data)

	w = a.do(http.MethodGet, "/api/users/search?q=ali", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "alina", list.Data[0].Username)
}

func TestAccountEndpoints(t *testing.T) {
	a := newAPI(t)
	_, token := a.register("alice")

	w := a.do(http.MethodPost, "/api/register", "", gin.H{"username": "ALICE", "email": "x@example.com", "password": password, "confirm_password": password})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/register", "", gin.H{"username": "bobby", "email": "b@example.com", "password": password, "confirm_password": "Secret124"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/register", "", gin.H{"username": "bobby", "email": "b@example.com", "password": "secret123", "confirm_password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/login", "", gin.H{"login": "alice", "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, w, &login)
	assert.NotEmpty(t, login.AccessToken)

	w = a.do(http.MethodPost, "/api/login", "", gin.H{"login": "alice", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPatch, "/api/profile", token, gin.H{"bio": "hi", "location": "Oslo"})
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Data services.ProfileView `json:"data"`
	}
	decode(t, w, &view)
	assert.Equal(t, "hi", view.Data.Bio)
	assert.Equal(t, "Oslo", view.Data.Location)

	w = a.do(http.MethodGet, "/api/validate/username?username=alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"available": false, "valid": true}`, w.Body.String())

	w = a.do(http.MethodPost, "/api/delete-account", token, gin.H{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/delete-account", token, gin.H{"password": password})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/profile/alice", "", nil).Code)
	_, err := a.store.Users().FindByUsername(context.Background(), "alice")
	assert.Error(t, err)
}

func TestTokenEndpoints(t *testing.T) {
	a := newAPI(t)
	_, token := a.register("alice")

	type pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	var login pair
	w := a.do(http.MethodPost, "/api/login", "", gin.H{"login": "alice", "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &login)
	assert.Equal(t, int64(3600), login.ExpiresIn)

	var refreshed pair
	w = a.do(http.MethodPost, "/api/refresh-token", "", gin.H{"refresh_token": login.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &refreshed)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)

	w = a.do(http.MethodPost, "/api/refresh-token", "", gin.H{"refresh_token": login.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/refresh-token", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/logout", "", gin.H{"refresh_token": refreshed.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/logout", refreshed.AccessToken, gin.H{"refresh_token": refreshed.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPost, "/api/refresh-token", "", gin.H{"refresh_token": refreshed.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/change-password", token, gin.H{"old_password": "Wrong1234", "new_password": "NewSecret1", "confirm_password": "NewSecret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/change-password", token, gin.H{"old_password": password, "new_password": "NewSecret1", "confirm_password": "NewSecret2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/change-password", "", gin.H{"old_password": password, "new_password": "NewSecret1", "confirm_password": "NewSecret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/change-password", token, gin.H{"old_password": password, "new_password": "NewSecret1", "confirm_password": "NewSecret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/login", "", gin.H{"login": "alice", "password": password})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = a.do(http.MethodPost, "/api/login", "", gin.H{"login": "alice", "password": "NewSecret1"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnfollowSelfEndpoint(t *testing.T) {
	a := newAPI(t)
	aliceID, aliceToken := a.register("alice")

	w := a.do(http.MethodDelete, fmt.Sprintf("/api/users/%d/follow", aliceID), aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res services.FollowResult
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.False(t, res.Changed)

	w = a.do(http.MethodPost, fmt.Sprintf("/api/users/%d/follow", aliceID), aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	a := newAPI(t)
	a.do(http.MethodGet, "/api/profile/ghost", "", nil)

	w := a.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
