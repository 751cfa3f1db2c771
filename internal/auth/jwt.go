package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token issuer and audience, verified on every request.
const (
	Issuer   = "taskie"
	Audience = "taskie-api"
)

var (
	// ErrTokenExpired is returned when the exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid covers bad signatures, malformed tokens, wrong
	// algorithms, and missing claims.
	ErrTokenInvalid = errors.New("invalid token")
)

// Claims is the JWT payload carried by every bearer token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens against a shared secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token service. The secret length is validated at
// config load, not here.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the user with sub, email, iat, exp,
// iss, and aud claims.
func (t *Tokens) Issue(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, enforcing the HS256 method, the
// issuer/audience pair, expiry, and the presence of sub and exp.
func (t *Tokens) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			// Pin the method so an attacker cannot downgrade to none
			// or swap in an asymmetric algorithm.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ParseBearer extracts the token from an Authorization header value.
// Returns an empty string when the header is not a bearer credential.
func ParseBearer(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
