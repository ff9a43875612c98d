package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/models"
	"github.com/snap-point/social-api/storage"
	"github.com/snap-point/social-api/store"
	"github.com/snap-point/social-api/utils"
	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

// TokenConfig carries the signing secret and the lifetimes of the two
// token kinds.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AccountService struct {
	store   store.Store
	avatars storage.Store
	tokens  TokenConfig
	logger  *logrus.Logger
}

func NewAccountService(s store.Store, avatars storage.Store, tokens TokenConfig, logger *logrus.Logger) *AccountService {
	return &AccountService{
		store:   s,
		avatars: avatars,
		tokens:  tokens,
		logger:  logger,
	}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// TokenPair is what login, register and refresh hand back to the client.
type TokenPair struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type ChangePasswordInput struct {
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

// Register creates the user and its empty profile in one transaction.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, *models.Profile, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := utils.ValidateUsernamePattern(username); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !govalidator.IsEmail(email) {
		return nil, nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, nil, err
	}
	if in.Password != in.ConfirmPassword {
		return nil, nil, fmt.Errorf("%w: passwords do not match", ErrValidation)
	}

	if _, err := s.store.Users().FindByUsername(ctx, username); err == nil {
		return nil, nil, fmt.Errorf("%w: username is already taken", ErrAlreadyExists)
	}
	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return nil, nil, fmt.Errorf("%w: email is already registered", ErrAlreadyExists)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Username: username, Email: email, Password: string(hashed)}
	profile, err := s.store.Users().Create(ctx, user)
	if err != nil {
		return nil, nil, translate(err, "username or email")
	}

	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "profile_id": profile.ID}).Info("user registered")
	return user, profile, nil
}

// Login checks the credentials and issues a token pair. login may be a
// username or an email address.
func (s *AccountService) Login(ctx context.Context, login, password string) (*TokenPair, *models.User, error) {
	login = strings.TrimSpace(login)

	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.store.Users().FindByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = s.store.Users().FindByUsername(ctx, login)
	}
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, translate(err, "user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.IssueTokens(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// IssueTokens signs an access token and stores a fresh refresh token for
// userID.
func (s *AccountService) IssueTokens(ctx context.Context, userID uint) (*TokenPair, error) {
	refresh := &models.RefreshToken{
		UserID:         userID,
		Token:          utils.GenerateRefreshToken(),
		ExpirationDate: time.Now().Add(s.tokens.RefreshTTL),
	}
	if err := s.store.Tokens().Create(ctx, refresh); err != nil {
		return nil, translate(err, "user")
	}
	return s.pair(userID, refresh.Token)
}

// Refresh trades a live refresh token for a new pair. The old token is
// consumed, so replaying it fails.
func (s *AccountService) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: refresh token is required", ErrValidation)
	}
	stored, err := s.store.Tokens().FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
		}
		return nil, translate(err, "refresh token")
	}

	if stored.Expired(time.Now()) {
		if _, err := s.store.Tokens().Delete(ctx, token); err != nil {
			s.logger.WithError(err).WithField("user_id", stored.UserID).Warn("deleting expired refresh token failed")
		}
		return nil, fmt.Errorf("%w: refresh token expired", ErrUnauthorized)
	}

	next := &models.RefreshToken{
		UserID:         stored.UserID,
		Token:          utils.GenerateRefreshToken(),
		ExpirationDate: time.Now().Add(s.tokens.RefreshTTL),
	}
	if err := s.store.Tokens().Rotate(ctx, token, next); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// lost a race with another refresh or a logout
			return nil, fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
		}
		return nil, translate(err, "refresh token")
	}
	return s.pair(stored.UserID, next.Token)
}

// Logout revokes one of the caller's refresh tokens. Unknown tokens and
// tokens owned by someone else are left alone and still succeed.
func (s *AccountService) Logout(ctx context.Context, userID uint, token string) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	if token == "" {
		return fmt.Errorf("%w: refresh token is required", ErrValidation)
	}
	stored, err := s.store.Tokens().FindByToken(ctx, token)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		return nil
	case err != nil:
		return translate(err, "refresh token")
	case stored.UserID != userID:
		s.logger.WithField("user_id", userID).Warn("logout with a foreign refresh token")
		return nil
	}

	if _, err := s.store.Tokens().Delete(ctx, token); err != nil {
		return translate(err, "refresh token")
	}
	return nil
}

// ChangePassword replaces the caller's password after checking the current
// one. Every outstanding refresh token is revoked.
func (s *AccountService) ChangePassword(ctx context.Context, userID uint, in ChangePasswordInput) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	if in.OldPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		return fmt.Errorf("%w: old, new and confirm password are required", ErrValidation)
	}
	if in.NewPassword != in.ConfirmPassword {
		return fmt.Errorf("%w: new passwords do not match", ErrValidation)
	}
	if err := validatePassword(in.NewPassword); err != nil {
		return err
	}

	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return translate(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.OldPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", ErrValidation)
	}
	if in.OldPassword == in.NewPassword {
		return fmt.Errorf("%w: new password must be different from the current one", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.Users().UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return translate(err, "user")
	}
	if err := s.store.Tokens().DeleteByUser(ctx, userID); err != nil {
		return translate(err, "refresh token")
	}

	s.logger.WithField("user_id", userID).Info("password changed")
	return nil
}

func (s *AccountService) pair(userID uint, refresh string) (*TokenPair, error) {
	access, err := utils.GenerateToken(userID, s.tokens.Secret, s.tokens.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &TokenPair{
		TokenType:    "Bearer",
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL / time.Second),
	}, nil
}

// validatePassword needs MinPasswordLength characters with at least one
// digit, one upper case and one lower case letter.
func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrValidation, MinPasswordLength)
	}
	var digit, upper, lower bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	switch {
	case !digit:
		return fmt.Errorf("%w: password must contain at least one digit", ErrValidation)
	case !upper:
		return fmt.Errorf("%w: password must contain at least one uppercase letter", ErrValidation)
	case !lower:
		return fmt.Errorf("%w: password must contain at least one lowercase letter", ErrValidation)
	}
	return nil
}

// UsernameAvailable reports whether username is well formed and unused.
// A malformed name returns an ErrValidation error.
func (s *AccountService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if err := utils.ValidateUsernamePattern(username); err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	_, err := s.store.Users().FindByUsername(ctx, username)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, store.ErrRecordNotFound):
		return true, nil
	default:
		return false, translate(err, "user")
	}
}

// UpdateProfile applies a partial update to the caller's profile.
func (s *AccountService) UpdateProfile(ctx context.Context, userID uint, upd models.ProfileUpdate) (*models.Profile, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	// the avatar only changes through ReplaceAvatar
	upd.Avatar = nil
	if err := validateProfileUpdate(&upd); err != nil {
		return nil, err
	}

	p, err := s.store.Profiles().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, translate(err, "user")
	}
	updated, _, err := s.store.Profiles().Update(ctx, p.ID, upd)
	if err != nil {
		return nil, translate(err, "profile")
	}
	return updated, nil
}

func validateProfileUpdate(upd *models.ProfileUpdate) error {
	if upd.Bio != nil {
		bio := strings.TrimSpace(*upd.Bio)
		if utf8.RuneCountInString(bio) > models.MaxBioLength {
			return fmt.Errorf("%w: bio must be at most %d characters", ErrValidation, models.MaxBioLength)
		}
		upd.Bio = &bio
	}
	if upd.Location != nil {
		loc := strings.TrimSpace(*upd.Location)
		if utf8.RuneCountInString(loc) > models.MaxLocationLength {
			return fmt.Errorf("%w: location must be at most %d characters", ErrValidation, models.MaxLocationLength)
		}
		upd.Location = &loc
	}
	if upd.Website != nil {
		site := strings.TrimSpace(*upd.Website)
		if site != "" {
			u, err := url.Parse(site)
			if err != nil || !govalidator.IsURL(site) || (u.Scheme != "http" && u.Scheme != "https") {
				return fmt.Errorf("%w: website must be an http or https URL", ErrValidation)
			}
		}
		upd.Website = &site
	}
	return nil
}

// DeleteAccount removes the user after re-checking the password. Edges,
// profile and user go in one transaction; the avatar object is released
// afterwards.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uint, password string) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return translate(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}

	removed, err := s.store.Users().Delete(ctx, userID)
	if err != nil {
		return translate(err, "user")
	}

	if removed != nil && removed.Avatar != "" {
		s.releaseAvatar(ctx, removed.Avatar)
	}
	s.logger.WithField("user_id", userID).Info("account deleted")
	return nil
}

func (s *AccountService) releaseAvatar(ctx context.Context, key string) {
	if s.avatars == nil {
		return
	}
	exists, err := s.avatars.Exists(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("checking avatar object failed")
	}
	if err == nil && !exists {
		s.logger.WithField("key", key).Debug("avatar object already gone")
		return
	}
	if err := s.avatars.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("deleting avatar object failed")
	}
}
