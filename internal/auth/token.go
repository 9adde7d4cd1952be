package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/jobboard/internal/clock"
	"github.com/smallbiznis/jobboard/internal/config"
	"github.com/smallbiznis/jobboard/internal/usercontext"
)

// Claims carries the business user in `sub` and the caller role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier signs and verifies HS256 bearer tokens.
type Verifier struct {
	secret []byte
	clock  clock.Clock
}

func NewVerifier(cfg config.Config, clk clock.Clock) *Verifier {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Verifier{
		secret: []byte(strings.TrimSpace(cfg.AuthJWTSecret)),
		clock:  clk,
	}
}

func (v *Verifier) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// Issue signs a token for userID valid for ttl.
func (v *Verifier) Issue(userID, role string, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidToken
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if !validRole(role) {
		return "", ErrInvalidRole
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	now := v.clock.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses raw and returns the identity it carries.
func (v *Verifier) Verify(raw string) (usercontext.Identity, error) {
	if !v.Enabled() {
		return usercontext.Identity{}, ErrNotConfigured
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return usercontext.Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return usercontext.Identity{}, ErrTokenExpired
		}
		return usercontext.Identity{}, ErrInvalidToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return usercontext.Identity{}, ErrInvalidToken
	}
	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if !validRole(role) {
		return usercontext.Identity{}, ErrInvalidRole
	}
	return usercontext.Identity{UserID: subject, Role: role}, nil
}

func validRole(role string) bool {
	switch role {
	case usercontext.RoleBusiness, usercontext.RoleJobSeeker, usercontext.RoleAdmin:
		return true
	default:
		return false
	}
}
