package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"

	"github.com/wanderlog/journal-gate/pkg/journalgate"
)

// PrincipalSource looks up the stored account for an authenticated subject.
// journalgate.Repository satisfies it.
type PrincipalSource interface {
	GetPrincipal(ctx context.Context, id uuid.UUID) (*journalgate.Principal, error)
}

// JWTIdentity resolves bearer tokens to principals: the token's subject claim
// is the principal id, role and account status always come from the store so
// a block takes effect immediately, not at token expiry.
type JWTIdentity struct {
	auth       *jwtauth.JWTAuth
	principals PrincipalSource
}

// NewJWTIdentity creates an IdentityResolver backed by a JWT verifier and a
// principal store.
func NewJWTIdentity(auth *jwtauth.JWTAuth, principals PrincipalSource) *JWTIdentity {
	return &JWTIdentity{auth: auth, principals: principals}
}

// Resolve implements journalgate.IdentityResolver.
func (j *JWTIdentity) Resolve(ctx context.Context, token string) (*journalgate.Principal, error) {
	t, err := jwtauth.VerifyToken(j.auth, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", journalgate.ErrUnauthenticated, err)
	}

	id, err := uuid.Parse(t.Subject())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid subject claim", journalgate.ErrUnauthenticated)
	}

	p, err := j.principals.GetPrincipal(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown principal", journalgate.ErrUnauthenticated)
	}
	return p, nil
}

type principalCtxKey struct{}

// PrincipalCtx resolves the request's bearer token into a Principal and puts
// it on the context. Requests without a token proceed anonymously; requests
// with a bad token fail with 401 right here.
func PrincipalCtx(resolver journalgate.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := jwtauth.TokenFromHeader(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			p, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalCtxKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the resolved principal, or nil for anonymous
// requests.
func PrincipalFromContext(ctx context.Context) *journalgate.Principal {
	p, _ := ctx.Value(principalCtxKey{}).(*journalgate.Principal)
	return p
}
