package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const (
	ScopeGuestAccess  = "guest_access"
	ScopeFileDownload = "file_download"
)

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwtlib.RegisteredClaims
}

// ScopedClaims bind a token to one subject (a share token, a file key) and one scope.
type ScopedClaims struct {
	Scope string `json:"scope"`
	jwtlib.RegisteredClaims
}

func GenerateToken(userID, email string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func ParseToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	if err := parse(tokenString, secret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func GenerateScopedToken(scope, subject string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := ScopedClaims{
		Scope: scope,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyScopedToken checks signature, expiry, scope and subject in one go.
func VerifyScopedToken(tokenString, scope, subject string, secret []byte) error {
	if tokenString == "" {
		return errors.New("empty token")
	}
	claims := &ScopedClaims{}
	if err := parse(tokenString, secret, claims); err != nil {
		return err
	}
	if claims.Scope != scope {
		return errors.New("token scope mismatch")
	}
	if claims.Subject != subject {
		return errors.New("token subject mismatch")
	}
	return nil
}

func parse(tokenString string, secret []byte, claims jwtlib.Claims) error {
	token, err := jwtlib.ParseWithClaims(tokenString, claims, func(token *jwtlib.Token) (interface{}, error) {
		if token.Method.Alg() != jwtlib.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
