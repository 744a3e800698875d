package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService wraps creation and validation of the access/refresh JWT pair.
// Access and refresh tokens are signed with independent secrets so a leaked
// access secret cannot mint refresh tokens.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// AccessTTL returns the access-token lifetime, used for cookie expiry.
func (t *TokenService) AccessTTL() time.Duration { return t.accessTTL }

// RefreshTTL returns the refresh-token lifetime, used for cookie expiry.
func (t *TokenService) RefreshTTL() time.Duration { return t.refreshTTL }

// CreateAccessToken creates a short-lived access token for the given user id.
func (t *TokenService) CreateAccessToken(userID string) (string, error) {
	return create(userID, t.accessSecret, t.accessTTL)
}

// CreateRefreshToken creates a long-lived refresh token for the given user id.
func (t *TokenService) CreateRefreshToken(userID string) (string, error) {
	return create(userID, t.refreshSecret, t.refreshTTL)
}

// ParseAccessToken validates an access token and returns the user id.
func (t *TokenService) ParseAccessToken(tokenStr string) (string, error) {
	return parse(tokenStr, t.accessSecret)
}

// ParseRefreshToken validates a refresh token and returns the user id.
func (t *TokenService) ParseRefreshToken(tokenStr string) (string, error) {
	return parse(tokenStr, t.refreshSecret)
}

func create(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parse(tokenStr string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", jwt.ErrSignatureInvalid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", jwt.ErrTokenMalformed
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", jwt.ErrTokenMalformed
	}
	return sub, nil
}
