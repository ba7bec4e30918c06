// Package auth issues and verifies session tokens and handles password
// and reset-token hashing.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie that carries the session token.
const CookieName = "token"

var (
	// ErrInvalidToken is returned for tokens that are malformed or badly signed.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"id"`
}

// Token is a signed session token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenManager signs and verifies session tokens with a shared secret.
type TokenManager struct {
	secret       []byte
	lifetime     time.Duration
	secureCookie bool
	now          func() time.Time
}

// NewTokenManager returns a TokenManager whose tokens live for expireDays
// days. secureCookie marks issued cookies as HTTPS-only.
func NewTokenManager(secret string, expireDays int, secureCookie bool) *TokenManager {
	return &TokenManager{
		secret:       []byte(secret),
		lifetime:     time.Duration(expireDays) * 24 * time.Hour,
		secureCookie: secureCookie,
		now:          time.Now,
	}
}

// Issue signs a token for userID.
func (m *TokenManager) Issue(userID string) (Token, error) {
	now := m.now().Truncate(time.Second)
	exp := now.Add(m.lifetime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{Value: signed, ExpiresAt: exp}, nil
}

// Verify checks the signature and expiry of tokenString and returns the
// user id it carries.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// Cookie returns the cookie directive delivering t to the client.
func (m *TokenManager) Cookie(t Token) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    t.Value,
		Path:     "/",
		Expires:  t.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secureCookie,
	}
}

// LogoutCookie overwrites the session cookie with a sentinel that has
// already expired.
func (m *TokenManager) LogoutCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "none",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secureCookie,
	}
}
