package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/looksia/looksledger/internal/apperrors"
	"github.com/looksia/looksledger/internal/models"
	"github.com/looksia/looksledger/internal/repository"
	"github.com/looksia/looksledger/internal/service/auth/tokenmanager"
)

const (
	accessCookieName  = "access_token"
	refreshCookieName = "refresh_token"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// Bcrypt hasher is used if not set
	Hasher PasswordHasher
}

// AuthService is the identity collaborator: it resolves an authenticated
// user for every ledger operation and owns registration, which also seeds
// the account's starting credit bonus
type AuthService struct {
	token   *tokenmanager.TokenManager
	hasher  PasswordHasher
	storage repository.Storage
}

func NewService(cfg Config, token *tokenmanager.TokenManager, storage repository.Storage) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if token == nil || storage == nil {
		return nil, errors.New("token manager and storage must not be nil")
	}

	return &AuthService{
		token:   token,
		hasher:  hasher,
		storage: storage,
	}, nil
}

// Register creates the user and its credit balance seeded with the
// starting bonus in one transaction, then issues a token pair
func (s *AuthService) Register(ctx context.Context, username string, password string) (models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	var user models.User
	err = s.storage.InTx(ctx, func(stor repository.Storage) error {
		var err error
		user, err = stor.User().CreateUser(ctx, username, hash)
		if err != nil {
			return err
		}

		return stor.Credits().CreateBalance(ctx, user.ID,
			models.StartingBasicAnalyses,
			models.StartingProAnalyses,
			models.StartingSpins,
		)
	})
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (models.TokenPair, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, apperrors.ErrUserNotFound
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// Refresh rotates a valid refresh token into a fresh token pair
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	token, err := s.token.UseRefresh(ctx, refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.storage.User().GetUserByID(ctx, token.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	pair, err := s.token.GeneratePair(ctx, user)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// SetTokens stores the token pair in http only cookies
func (s *AuthService) SetTokens(_ context.Context, w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    pair.Access.Value,
		Expires:  pair.Access.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    pair.Refresh.Value,
		Expires:  pair.Refresh.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetRefresh extracts the refresh token string from the request
func (s *AuthService) GetRefresh(r *http.Request) (string, error) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil {
		return "", fmt.Errorf("refresh cookie not set. Err: %w", apperrors.ErrRefreshTokenNotFound)
	}

	return cookie.Value, nil
}

// Auth resolves the authenticated user of the request
// Accepts the access token from the cookie or the Authorization header
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	access := ""

	if cookie, err := r.Cookie(accessCookieName); err == nil {
		access = cookie.Value
	}
	if access == "" {
		const prefix = "Bearer "
		if header := r.Header.Get("Authorization"); len(header) > len(prefix) && header[:len(prefix)] == prefix {
			access = header[len(prefix):]
		}
	}
	if access == "" {
		return models.User{}, errors.New("no access token provided")
	}

	userID, err := s.token.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	return s.storage.User().GetUserByID(ctx, userID)
}
