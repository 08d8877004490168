// Package oidc assembles JWT validators from resolved OIDC connection
// details. The JWKS is fetched lazily and cached, so constructing a validator
// performs no network I/O until the first validation.
package oidc

import (
	"context"
	"fmt"

	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/svcbind/svcbind/pkg/details"
)

// Option configures validator construction.
type Option func(*validatorConfig) error

// validatorConfig collects validator settings.
type validatorConfig struct {
	audience string
}

// WithAudience requires tokens to carry the given audience. When empty, the
// audience from the connection details is used.
func WithAudience(audience string) Option {
	return func(cfg *validatorConfig) error {
		if audience == "" {
			return fmt.Errorf("audience cannot be empty")
		}
		cfg.audience = audience
		return nil
	}
}

// Validator validates bearer tokens against an OIDC provider's key set.
type Validator struct {
	issuer   string
	audience string
	jwksURL  string
	cache    *jwk.Cache
}

// NewValidator builds a validator for the given OIDC details. The context
// bounds the lifetime of the JWKS cache's refresh loop.
func NewValidator(ctx context.Context, d *details.OIDC, opts ...Option) (*Validator, error) {
	if d == nil {
		return nil, fmt.Errorf("connection details are required")
	}
	if d.Issuer == "" {
		return nil, fmt.Errorf("connection details have no issuer")
	}

	cfg := &validatorConfig{audience: d.Audience}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	cache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return nil, fmt.Errorf("failed to create key set cache: %w", err)
	}

	jwksURL := d.JWKSEndpoint()
	if err := cache.Register(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("failed to register JWKS endpoint %s: %w", jwksURL, err)
	}

	return &Validator{
		issuer:   d.Issuer,
		audience: cfg.audience,
		jwksURL:  jwksURL,
		cache:    cache,
	}, nil
}

// Ready confirms the provider's key set can be fetched. It reports an error
// when the JWKS endpoint is unreachable or serves no keys.
func (v *Validator) Ready(ctx context.Context) error {
	keySet, err := v.cache.Lookup(ctx, v.jwksURL)
	if err != nil {
		return fmt.Errorf("failed to fetch key set: %w", err)
	}
	if keySet.Len() == 0 {
		return fmt.Errorf("key set at %s is empty", v.jwksURL)
	}
	return nil
}

// Validate parses and validates a serialized token, returning its claims.
func (v *Validator) Validate(ctx context.Context, token string) (jwt.Token, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}

	keySet, err := v.cache.Lookup(ctx, v.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch key set: %w", err)
	}

	parseOpts := []jwt.ParseOption{
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.issuer),
	}
	if v.audience != "" {
		parseOpts = append(parseOpts, jwt.WithAudience(v.audience))
	}

	parsed, err := jwt.Parse([]byte(token), parseOpts...)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	return parsed, nil
}
