// file: internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dkoosis/mcpkit/internal/protoerr"
)

// authContextKey is the context key under which BearerAuth stores the
// verified claims for downstream handlers to read.
type authContextKey struct{}

// ClaimsFromContext returns the claims BearerAuth verified for this
// request, if auth middleware ran.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(authContextKey{}).(jwt.MapClaims)
	return claims, ok
}

// BearerAuth builds a Func that requires a valid "Authorization: Bearer
// <token>" header, verifying the token's signature with secret (an HMAC
// key) and rejecting anything else as LifecycleViolation (spec.md §6's
// auth-failure code). header is read from rc.Handler.State["headers"],
// which transports that carry headers (e.g. an HTTP/SSE transport) should
// populate; transports without headers (stdio) should not register this
// middleware.
func BearerAuth(secret string) Func {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, protoerr.New(protoerr.KindLifecycleViolation, "unsupported signing method")
		}
		return []byte(secret), nil
	}

	return func(next Handler) Handler {
		return func(ctx context.Context, rc *RequestContext) error {
			header := headerValue(rc, "Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return protoerr.New(protoerr.KindLifecycleViolation, "missing or malformed Authorization header")
			}

			token, err := jwt.Parse(tokenString, keyFunc)
			if err != nil || !token.Valid {
				return protoerr.Wrap(protoerr.KindLifecycleViolation, err, "bearer token rejected")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return protoerr.New(protoerr.KindLifecycleViolation, "unexpected claims type")
			}

			return next(context.WithValue(ctx, authContextKey{}, claims), rc)
		}
	}
}

func headerValue(rc *RequestContext, name string) string {
	if rc.Handler == nil || rc.Handler.State == nil {
		return ""
	}
	headers, ok := rc.Handler.State["headers"].(map[string]string)
	if !ok {
		return ""
	}
	return headers[name]
}
