package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"streamhub/internal/apperr"
	"streamhub/internal/metrics"
)

const CtxPrincipalKey = "principal"

// RequireUser gates a route on a valid user-tier token.
func RequireUser(s *Signer) gin.HandlerFunc {
	return gateFor(s, KindUser)
}

// RequireAdmin gates a route on a valid admin-tier token carrying the admin flag.
func RequireAdmin(s *Signer) gin.HandlerFunc {
	return gateFor(s, KindAdmin)
}

func gateFor(s *Signer, kind Kind) gin.HandlerFunc {
	if s.Kind() != kind {
		panic("auth: " + kind.String() + " gate given a " + s.Kind().String() + " signer")
	}
	return func(c *gin.Context) {
		tokenStr, ok := ParseBearer(c.GetHeader("Authorization"))
		if !ok {
			metrics.AuthFailures.WithLabelValues("missing_token").Inc()
			abort(c, apperr.New(apperr.Unauthenticated, "no token provided, authorization denied"))
			return
		}
		p, err := s.Verify(tokenStr)
		if err != nil {
			metrics.AuthFailures.WithLabelValues(apperr.KindOf(err).String()).Inc()
			if !apperr.Is(err, apperr.Forbidden) {
				err = apperr.Wrap(apperr.Unauthenticated, err, apperr.Message(err))
			}
			abort(c, err)
			return
		}
		c.Set(CtxPrincipalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by the gate, if any.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(CtxPrincipalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" value.
func ParseBearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(h[len(prefix):])
	return tok, tok != ""
}

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": apperr.Message(err)})
}
