package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"streamhub/internal/apperr"
	"streamhub/internal/metrics"
)

// Kind selects the privilege tier a Signer issues and accepts tokens for.
type Kind int

const (
	KindUser Kind = iota
	KindAdmin
)

func (k Kind) String() string {
	if k == KindAdmin {
		return "admin"
	}
	return "user"
}

// Principal is the identity embedded in a session token.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
}

type Claims struct {
	User Principal `json:"user"`
	jwt.RegisteredClaims
}

// Signer issues and verifies HS256 tokens for one Kind with its own secret.
// Users and admins get separate Signers, so a token never crosses tiers.
type Signer struct {
	kind   Kind
	secret []byte
	ttl    time.Duration
}

func NewSigner(kind Kind, secret []byte, ttl time.Duration) *Signer {
	return &Signer{kind: kind, secret: secret, ttl: ttl}
}

func (s *Signer) Kind() Kind {
	return s.kind
}

func (s *Signer) TTL() time.Duration {
	return s.ttl
}

func (s *Signer) Issue(p Principal) (string, error) {
	if s.kind == KindAdmin {
		p.IsAdmin = true
	}
	now := time.Now()
	claims := Claims{
		User: p,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", s.kind, err)
	}
	metrics.TokensIssued.WithLabelValues(s.kind.String()).Inc()
	return token, nil
}

// Verify fails with apperr.Expired, apperr.InvalidToken, or (admin tier only)
// apperr.Forbidden when a well-signed token lacks the admin flag.
func (s *Signer) Verify(tokenStr string) (Principal, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, apperr.Wrap(apperr.Expired, err, "token expired")
		}
		return Principal{}, apperr.Wrap(apperr.InvalidToken, err, "token is not valid")
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.User.ID == "" {
		return Principal{}, apperr.New(apperr.InvalidToken, "token is not valid")
	}
	if s.kind == KindAdmin && !claims.User.IsAdmin {
		return Principal{}, apperr.New(apperr.Forbidden, "access denied, not an admin")
	}
	return claims.User, nil
}
