package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yourorg/teamchat/realtime-service/internal/apperr"
)

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Verifier turns a bearer token into a user id. Credential issuance lives
// in the auth service; this side only validates.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenStr string) (string, error) {
	if tokenStr == "" {
		return "", apperr.ErrMissingCredential
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return "", apperr.ErrInvalidCredential
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", apperr.ErrInvalidCredential
	}
	return claims.UserID, nil
}
