/*
auth.go - JWT identity resolution

PURPOSE:
  Resolves the calling actor from a Bearer token so handlers can pass a
  leave.Actor into the workflow's authorization checks. Tokens are HS256
  with a person id and role claim.

DEV MODE:
  With an empty secret the middleware falls back to the X-Person-ID and
  X-Role headers. Only for local development; production always sets a
  secret.
*/
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/warp/leave-engine/leave"
)

// Claims carries the actor identity inside the token.
type Claims struct {
	PersonID string `json:"pid"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for an actor. Used by tests and the dev
// token endpoint.
func GenerateToken(secret string, actor leave.Actor, ttl time.Duration) (string, error) {
	claims := Claims{
		PersonID: string(actor.PersonID),
		Role:     string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a token and returns its claims.
func ParseToken(secret, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

type actorContextKey struct{}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(ctx context.Context) (leave.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(leave.Actor)
	return actor, ok
}

// AuthMiddleware authenticates requests and stores the actor in the
// request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := resolveActor(secret, r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Authentication required", err)
				return
			}
			ctx := context.WithValue(r.Context(), actorContextKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveActor(secret string, r *http.Request) (leave.Actor, error) {
	if secret == "" {
		// Dev mode: trust identity headers.
		pid := r.Header.Get("X-Person-ID")
		if pid == "" {
			return leave.Actor{}, errors.New("missing X-Person-ID header")
		}
		role := leave.Role(r.Header.Get("X-Role"))
		if role == "" {
			role = leave.RoleEmployee
		}
		return leave.Actor{PersonID: leave.PersonID(pid), Role: role}, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return leave.Actor{}, errors.New("missing Authorization header")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return leave.Actor{}, errors.New("malformed Authorization header")
	}

	claims, err := ParseToken(secret, parts[1])
	if err != nil {
		return leave.Actor{}, err
	}
	return leave.Actor{
		PersonID: leave.PersonID(claims.PersonID),
		Role:     leave.Role(claims.Role),
	}, nil
}
