package security_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/security"
)

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 7*24*time.Hour)

	userID := uuid.New()
	email := "test@example.com"
	workspaces := []uuid.UUID{uuid.New(), uuid.New()}

	accessToken, err := manager.GenerateAccessToken(userID, email, workspaces)
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	if accessToken == "" {
		t.Error("access token is empty")
	}

	claims, err := manager.ValidateAccessToken(accessToken)
	if err != nil {
		t.Fatalf("failed to validate access token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID mismatch: got %v, want %v", claims.UserID, userID)
	}
	if claims.Email != email {
		t.Errorf("email mismatch: got %v, want %v", claims.Email, email)
	}
	if len(claims.Workspaces) != len(workspaces) {
		t.Errorf("workspaces count mismatch: got %d, want %d", len(claims.Workspaces), len(workspaces))
	}
}

func TestJWTManager_GenerateTokenPair(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 7*24*time.Hour)

	user := &domain.User{ID: uuid.New(), Email: "test@example.com"}

	pair, err := manager.GenerateTokenPair(user, nil)
	if err != nil {
		t.Fatalf("failed to generate token pair: %v", err)
	}

	if pair.AccessToken == "" {
		t.Error("access token is empty")
	}
	if pair.RefreshToken == "" {
		t.Error("refresh token is empty")
	}
	if pair.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("expires in mismatch: got %d, want %d", pair.ExpiresIn, int64((15*time.Minute).Seconds()))
	}

	extractedUserID, err := manager.ValidateRefreshToken(pair.RefreshToken)
	if err != nil {
		t.Fatalf("failed to validate refresh token: %v", err)
	}
	if extractedUserID != user.ID {
		t.Errorf("user ID from refresh token mismatch: got %v, want %v", extractedUserID, user.ID)
	}
}

func TestAccessClaims_ActorFor(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 7*24*time.Hour)

	userID := uuid.New()
	memberOf := uuid.New()

	token, err := manager.GenerateAccessToken(userID, "test@example.com", []uuid.UUID{memberOf})
	if err != nil {
		t.Fatalf("failed to generate access token: %v", err)
	}
	claims, err := manager.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("failed to validate access token: %v", err)
	}

	actor, ok := claims.ActorFor(memberOf)
	if !ok {
		t.Fatal("expected actor for member workspace")
	}
	if actor.ID != userID || actor.WorkspaceID != memberOf {
		t.Errorf("actor mismatch: got %+v", actor)
	}

	if _, ok := claims.ActorFor(uuid.New()); ok {
		t.Error("expected no actor for a workspace outside the token")
	}
}

func TestJWTManager_RejectsForeignIssuer(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 7*24*time.Hour)

	// Signed with the right secret but issued by someone else.
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.New().String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    "someone-else",
	})
	signed, err := token.SignedString([]byte("test-secret-key-with-32-chars!!"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := manager.ValidateAccessToken(signed); err == nil {
		t.Error("expected error for foreign issuer, got nil")
	}
	if _, err := manager.ValidateRefreshToken(signed); err == nil {
		t.Error("expected error for foreign issuer on refresh path, got nil")
	}
}

func TestJWTManager_InvalidToken(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 7*24*time.Hour)

	if _, err := manager.ValidateAccessToken("invalid-token"); err == nil {
		t.Error("expected error for invalid token, got nil")
	}

	if _, err := manager.ValidateAccessToken(""); err == nil {
		t.Error("expected error for empty token, got nil")
	}

	// Token signed with a different secret
	otherManager := security.NewJWTManager("different-secret-key-32-chars!!", 15*time.Minute, 7*24*time.Hour)
	token, _ := otherManager.GenerateAccessToken(uuid.New(), "test@example.com", nil)

	if _, err := manager.ValidateAccessToken(token); err == nil {
		t.Error("expected error for token with wrong signature, got nil")
	}
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", -time.Minute, 7*24*time.Hour)

	token, err := manager.GenerateAccessToken(uuid.New(), "test@example.com", nil)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	if _, err := manager.ValidateAccessToken(token); err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestJWTManager_ValidateRefreshTokenGarbage(t *testing.T) {
	manager := security.NewJWTManager("test-secret-key-with-32-chars!!", 15*time.Minute, 7*24*time.Hour)

	if _, err := manager.ValidateRefreshToken("not-a-token"); err == nil {
		t.Error("expected error for garbage refresh token, got nil")
	}
}
