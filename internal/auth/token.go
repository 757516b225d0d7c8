package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/avocadohq/marketplace/internal/models"
)

const tokenDuration = 24 * time.Hour

var ErrInvalidToken = errors.New("token is invalid")

type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthToken verifies bearer tokens issued by the external auth service.
// CreateToken exists for tests and local tooling; issuance in production
// happens outside this backend.
type AuthToken struct {
	key []byte
}

// NewAuthToken creates new AuthToken instance
func NewAuthToken(key []byte) *AuthToken {
	return &AuthToken{key: key}
}

// CreateToken creates signed token for payload
func (at *AuthToken) CreateToken(payload *models.TokenPayload) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: payload.Email,
		Name:  payload.Name,
	})

	return token.SignedString(at.key)
}

// VerifyToken parses and validates token string, returning its payload
func (at *AuthToken) VerifyToken(tokenString string) (*models.TokenPayload, error) {
	c := claims{}

	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return at.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if c.Email == "" {
		return nil, ErrInvalidToken
	}

	return &models.TokenPayload{Email: c.Email, Name: c.Name}, nil
}
