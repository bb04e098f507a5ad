// Package auth turns bearer tokens into principals.
package auth

import (
	"context"
	"strings"

	"github.com/iago/civic-issues-back/internal/cache"
	"github.com/iago/civic-issues-back/internal/domain"
)

// Resolver maps an opaque bearer token to the principal that owns it.
// Unknown tokens yield domain.ErrPrincipalNotFound.
type Resolver interface {
	Resolve(ctx context.Context, token string) (domain.PrincipalRecord, error)
}

// StaticResolver serves a fixed token table, typically loaded from the seed file.
type StaticResolver struct {
	tokens map[string]domain.PrincipalRecord
}

func NewStaticResolver(tokens map[string]domain.PrincipalRecord) *StaticResolver {
	copied := make(map[string]domain.PrincipalRecord, len(tokens))
	for token, principal := range tokens {
		copied[strings.TrimSpace(token)] = principal
	}
	return &StaticResolver{tokens: copied}
}

func (r *StaticResolver) Resolve(_ context.Context, token string) (domain.PrincipalRecord, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.PrincipalRecord{}, domain.ErrUnauthenticated
	}
	principal, ok := r.tokens[token]
	if !ok {
		return domain.PrincipalRecord{}, domain.ErrPrincipalNotFound
	}
	return principal, nil
}

// CachingResolver memoizes successful resolutions. Failures are never cached.
type CachingResolver struct {
	next  Resolver
	cache *cache.PrincipalCache
}

func NewCachingResolver(next Resolver, principals *cache.PrincipalCache) *CachingResolver {
	return &CachingResolver{next: next, cache: principals}
}

func (r *CachingResolver) Resolve(ctx context.Context, token string) (domain.PrincipalRecord, error) {
	if principal, ok := r.cache.Get(token); ok {
		return principal, nil
	}
	principal, err := r.next.Resolve(ctx, token)
	if err != nil {
		return domain.PrincipalRecord{}, err
	}
	r.cache.Set(token, principal)
	return principal, nil
}
