package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meetscribe/internal/models"
)

// Verification failures. All three are terminal: the caller must require a
// fresh login, there is no refresh flow for session tokens.
var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token is expired")
	ErrWrongIssuer      = errors.New("token issuer mismatch")
)

// ExtractToken extracts the JWT from an Authorization header value.
// Supports "Bearer <token>" format.
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("empty authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty token")
	}

	return token, nil
}

// SessionClaims are the JWT claims carried by a session token: the standard
// registered set plus the three identity fields of models.Session.
type SessionClaims struct {
	GoogleEmails     []string `json:"googleEmails"`
	FacebookUsername string   `json:"facebookUsername,omitempty"`
	LinkedinUsername string   `json:"linkedinUsername,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies session tokens. Tokens are the only place
// a session exists; merging two sessions simply issues a new token, the old
// ones stay valid until natural expiry.
type TokenService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

// NewTokenService creates a token service. ttl defaults to 12 hours.
func NewTokenService(secretKey, issuer string, ttl time.Duration) (*TokenService, error) {
	if secretKey == "" {
		return nil, errors.New("JWT secret key cannot be empty")
	}
	if issuer == "" {
		return nil, errors.New("JWT issuer cannot be empty")
	}
	if ttl == 0 {
		ttl = 12 * time.Hour
	}

	return &TokenService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
	}, nil
}

// Issue signs a token embedding the session.
func (s *TokenService) Issue(session models.Session) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		GoogleEmails:     session.GoogleEmails,
		FacebookUsername: session.FacebookUsername,
		LinkedinUsername: session.LinkedinUsername,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   session.PrimaryEmail(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and reconstructs the session it
// carries. Failures map to ErrInvalidSignature, ErrExpired or ErrWrongIssuer.
func (s *TokenService) Verify(tokenString string) (models.Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return models.Session{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return models.Session{}, ErrWrongIssuer
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return models.Session{}, ErrInvalidSignature
		default:
			return models.Session{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return models.Session{}, ErrInvalidSignature
	}

	return models.Session{
		GoogleEmails:     claims.GoogleEmails,
		FacebookUsername: claims.FacebookUsername,
		LinkedinUsername: claims.LinkedinUsername,
	}, nil
}
