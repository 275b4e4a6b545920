package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sessions are anonymous, so there is nothing for a user to re-authenticate
// with; the token is the session. A long expiry keeps a casual visitor's
// saved routes reachable across visits without any signup flow. Expired
// tokens simply start a fresh session.
const (
	// TokenExpiry is how long session tokens are valid.
	TokenExpiry = 30 * 24 * time.Hour // 30 days
)

// Predefined token errors.
var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrTokenExpired = errors.New("session token has expired")
)

// Claims represents the claims in a session token.
type Claims struct {
	jwt.RegisteredClaims

	// SessionID identifies the session.
	SessionID string `json:"sid"`
}

// JWTService handles session token creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the secret key used to sign tokens.
	SigningKey string

	// Issuer is the issuer claim for tokens (e.g., "https://api.switchbackmaps.com").
	Issuer string

	// Audience is the audience claim for tokens (e.g., "switchback-api").
	Audience string
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
	}
}

// GenerateToken creates a new token for the given session.
func (s *JWTService) GenerateToken(session *Session) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(TokenExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   session.ID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		SessionID: session.ID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateToken validates a session token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// generateTokenID generates a unique token ID.
func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
