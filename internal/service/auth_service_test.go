package service_test

import (
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/driver-finance-go/internal/domain"
	"github.com/boddenberg/driver-finance-go/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const testSecret = "test-jwt-secret-with-enough-length"

func signToken(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func claimsFor(sub, aud string, exp time.Time) *service.Claims {
	return &service.Claims{
		Email: "motorista@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			Audience:  jwt.ClaimStrings{aud},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestAuthService_ValidToken(t *testing.T) {
	svc := service.NewAuthService(testSecret, "authenticated", zap.NewNop())
	tok := signToken(t, jwt.SigningMethodHS256, claimsFor("user-1", "authenticated", time.Now().Add(time.Hour)), testSecret)

	claims, err := svc.ValidateAccessToken(tok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != "user-1" || claims.Email != "motorista@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Rejects(t *testing.T) {
	svc := service.NewAuthService(testSecret, "authenticated", zap.NewNop())
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", signToken(t, jwt.SigningMethodHS256, claimsFor("u", "authenticated", time.Now().Add(-time.Minute)), testSecret)},
		{"wrong secret", signToken(t, jwt.SigningMethodHS256, claimsFor("u", "authenticated", future), "another-secret")},
		{"wrong audience", signToken(t, jwt.SigningMethodHS256, claimsFor("u", "anon", future), testSecret)},
		{"wrong algorithm", signToken(t, jwt.SigningMethodHS384, claimsFor("u", "authenticated", future), testSecret)},
		{"missing subject", signToken(t, jwt.SigningMethodHS256, claimsFor("", "authenticated", future), testSecret)},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateAccessToken(tt.token)
			var unauthorized *domain.ErrUnauthorized
			if !errors.As(err, &unauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestAuthService_NoAudienceCheck(t *testing.T) {
	svc := service.NewAuthService(testSecret, "", zap.NewNop())
	tok := signToken(t, jwt.SigningMethodHS256, claimsFor("u", "anything", time.Now().Add(time.Hour)), testSecret)

	if _, err := svc.ValidateAccessToken(tok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
