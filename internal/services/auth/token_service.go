package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

// TokenService validates access tokens issued by the backend.
// The gateway shares the backend's signing secret and never issues tokens itself.
type TokenService struct {
	secret    []byte
	algorithm string
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	return &TokenService{
		secret:    []byte(cfg.Secret),
		algorithm: algorithm,
	}
}

// ValidateToken parses a bearer token and returns the user it identifies
func (s *TokenService) ValidateToken(tokenString string) (*models.TokenInfo, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.algorithm}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	// Refresh tokens cannot call the API
	if claims.Type != "" && claims.Type != "access" {
		return nil, errors.New("token is not an access token")
	}

	userID, err := claims.GetSubject()
	if err != nil || userID == "" {
		return nil, errors.New("token has no subject")
	}

	return &models.TokenInfo{
		UserID:    userID,
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
