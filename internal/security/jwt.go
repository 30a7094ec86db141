package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/domain"
)

const tokenIssuer = "daypress"

// AccessClaims carries the authenticated user and the workspaces they
// belong to. Membership is resolved once at login, so workspace routing
// never needs a per-request membership query.
type AccessClaims struct {
	UserID     uuid.UUID   `json:"sub"`
	Email      string      `json:"email"`
	Workspaces []uuid.UUID `json:"workspaces,omitempty"`
	jwt.RegisteredClaims
}

// ActorFor resolves the claims into an acting identity scoped to one
// workspace. The second return is false when the token does not grant
// access to that workspace.
func (c *AccessClaims) ActorFor(workspaceID uuid.UUID) (domain.Actor, bool) {
	for _, id := range c.Workspaces {
		if id == workspaceID {
			return domain.Actor{ID: c.UserID, WorkspaceID: workspaceID}, true
		}
	}
	return domain.Actor{}, false
}

// JWTManager issues and validates the access/refresh token pair.
type JWTManager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTTL, refreshTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:          []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}
}

// GenerateAccessToken issues a short-lived token carrying the user's
// workspace memberships.
func (m *JWTManager) GenerateAccessToken(userID uuid.UUID, email string, workspaces []uuid.UUID) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:     userID,
		Email:      email,
		Workspaces: workspaces,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GenerateRefreshToken issues a long-lived token that carries only the
// user id; memberships are re-resolved on refresh so a revoked member
// loses access when the access token expires.
func (m *JWTManager) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// GenerateTokenPair issues the pair handed out at login and refresh.
func (m *JWTManager) GenerateTokenPair(user *domain.User, workspaces []uuid.UUID) (*domain.TokenPair, error) {
	accessToken, err := m.GenerateAccessToken(user.ID, user.Email, workspaces)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := m.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(m.accessTokenTTL.Seconds()),
	}, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (m *JWTManager) ValidateAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// ValidateRefreshToken validates a refresh token and returns the user ID
func (m *JWTManager) ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in token: %w", err)
	}

	return userID, nil
}

func (m *JWTManager) keyFunc(*jwt.Token) (any, error) {
	return m.secret, nil
}

// AccessTokenTTL returns the access token TTL
func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.accessTokenTTL
}
