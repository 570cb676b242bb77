package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTAuthenticator mints two kinds of HS256 tokens: session tokens that
// the browser presents on every workflow call, and short-lived state
// tokens that fence the OAuth login handoff to one session.
type JWTAuthenticator struct {
	secret      string
	stateSecret string
	aud         string
	iss         string

	sessionExp time.Duration
	stateExp   time.Duration
}

func NewJWTAuthenticator(secret, stateSecret, aud, iss string) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:      secret,
		stateSecret: stateSecret,
		aud:         aud,
		iss:         iss,
		sessionExp:  time.Hour * 24,
		stateExp:    time.Minute * 10,
	}
}

// GenerateSessionToken mints the bearer token for one workflow session.
func (a *JWTAuthenticator) GenerateSessionToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": sessionID,
		"exp": time.Now().Add(a.sessionExp).Unix(),
		"iat": time.Now().Unix(),
		"nbf": time.Now().Unix(),
		"iss": a.iss,
		"aud": a.aud,
	}
	return a.generateTokenWithClaims(claims, a.secret)
}

// GenerateStateToken mints the OAuth state for one login attempt.
func (a *JWTAuthenticator) GenerateStateToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": sessionID,
		"exp": time.Now().Add(a.stateExp).Unix(),
		"iat": time.Now().Unix(),
		"iss": a.iss,
	}
	return a.generateTokenWithClaims(claims, a.stateSecret)
}

func (a *JWTAuthenticator) generateTokenWithClaims(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateSessionToken validates a workflow session token.
func (a *JWTAuthenticator) ValidateSessionToken(token string) (*jwt.Token, error) {
	return a.validate(token, a.secret)
}

// ValidateStateToken validates an OAuth state token.
func (a *JWTAuthenticator) ValidateStateToken(token string) (*jwt.Token, error) {
	return a.validate(token, a.stateSecret)
}

func (a *JWTAuthenticator) validate(token, secret string) (*jwt.Token, error) {
	return jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
}
