package service

import (
	"fmt"

	"github.com/boddenberg/driver-finance-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Claims is the subset of a Supabase access token the API relies on.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AuthService verifies access tokens issued by Supabase Auth. It never
// issues tokens itself.
type AuthService struct {
	jwtSecret []byte
	audience  string
	logger    *zap.Logger
}

// NewAuthService creates an auth service for HS256 tokens signed with
// jwtSecret. An empty audience skips the aud check.
func NewAuthService(jwtSecret, audience string, logger *zap.Logger) *AuthService {
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		audience:  audience,
		logger:    logger,
	}
}

// ValidateAccessToken parses and verifies the token. The user id is the
// sub claim.
func (s *AuthService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, opts...)
	if err != nil {
		s.logger.Debug("token rejected", zap.Error(err))
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "Token sem identificação do usuário"}
	}
	return claims, nil
}
