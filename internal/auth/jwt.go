package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Manager issues and verifies the signed admin credential. It is stateless;
// the secret and TTL come from configuration at startup.
type Manager struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (m *Manager) NewToken(email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

// Parse returns nil for any invalid input: bad signature, wrong signing
// method, expired or malformed token. Callers treat nil as unauthenticated.
func (m *Manager) Parse(tokenStr string) *Claims {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}
	return claims
}
