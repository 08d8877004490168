package details

import (
	"strings"
)

// OIDC describes an OpenID Connect provider used for token validation.
type OIDC struct {
	// Issuer is the provider's issuer URL.
	Issuer string

	// JWKSURL is the JSON Web Key Set endpoint. When empty, callers derive it
	// from the issuer with JWKSEndpoint.
	JWKSURL string

	ClientID string
	Audience string
}

var _ ConnectionDetails = (*OIDC)(nil)

// Kind implements ConnectionDetails.
func (*OIDC) Kind() string { return "oidc" }

// DiscoveryURL returns the provider's well-known discovery document URL.
func (o *OIDC) DiscoveryURL() string {
	return strings.TrimSuffix(o.Issuer, "/") + "/.well-known/openid-configuration"
}

// JWKSEndpoint returns the configured JWKS URL, falling back to the
// conventional issuer-relative location when none was supplied.
func (o *OIDC) JWKSEndpoint() string {
	if o.JWKSURL != "" {
		return o.JWKSURL
	}
	return strings.TrimSuffix(o.Issuer, "/") + "/.well-known/jwks.json"
}
