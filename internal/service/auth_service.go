package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenIssuer   = "recipebox-api"
	TokenAudience = "recipebox-client"

	defaultTokenTTL = 7 * 24 * time.Hour
)

// Identity is what a verified bearer token says about its holder.
type Identity struct {
	UserID    uint
	TokenID   string
	ExpiresAt time.Time
}

// AuthService issues and verifies HS256 bearer tokens and resolves them to
// active users.
type AuthService struct {
	secret []byte
	ttl    time.Duration
	users  repository.UserRepository
	now    func() time.Time
}

func NewAuthService(cfg *config.Config, users repository.UserRepository) *AuthService {
	ttl := defaultTokenTTL
	if cfg.JWTTTLHours > 0 {
		ttl = time.Duration(cfg.JWTTTLHours) * time.Hour
	}
	return &AuthService{
		secret: []byte(cfg.JWTSecret),
		ttl:    ttl,
		users:  users,
		now:    time.Now,
	}
}

// IssueToken signs a token for userID.
func (s *AuthService) IssueToken(userID uint) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseToken verifies signature, issuer, audience and expiry.
func (s *AuthService) ParseToken(tokenString string) (*Identity, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthenticatedError("Invalid token.")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return nil, models.NewUnauthenticatedError("Invalid token.")
	}

	return &Identity{
		UserID:    uint(userID),
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate resolves a bearer token to an active user. Revoked tokens
// and inactive or deleted users are UNAUTHENTICATED.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*models.User, *Identity, error) {
	ident, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := cache.IsRevoked(ctx, ident.TokenID)
	if err != nil {
		// Redis outages fail open; the token is still signature-checked.
		middleware.Logger.WarnContext(ctx, "token revocation check failed", slog.String("error", err.Error()))
	}
	if revoked {
		return nil, nil, models.NewUnauthenticatedError("Token has been revoked.")
	}

	user, err := s.users.GetByID(ctx, ident.UserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, nil, models.NewUnauthenticatedError("User not found.")
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, models.NewUnauthenticatedError("User inactive or deleted.")
	}
	return user, ident, nil
}

// Revoke blacklists the token until it would have expired.
func (s *AuthService) Revoke(ctx context.Context, ident *Identity) error {
	ttl := ident.ExpiresAt.Sub(s.now())
	if err := cache.Revoke(ctx, ident.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
