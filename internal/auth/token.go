// Package auth implements the Azure AD service-principal token lifecycle:
// a credential source that performs the client-credentials flow and a
// caching decorator that refreshes lazily with a safety margin.
package auth

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/kwhite/azchat/internal/core"
)

// DefaultScope is the OAuth scope for Azure Cognitive Services, which
// covers Azure OpenAI deployments.
const DefaultScope = "https://cognitiveservices.azure.com/.default"

// Token is a bearer token with its expiry. Replaced wholesale on refresh,
// never partially mutated.
type Token struct {
	Value     string
	ExpiresOn time.Time
}

// TokenSource produces bearer tokens for outbound requests.
type TokenSource interface {
	Token(ctx context.Context) (Token, error)
}

// TokenSourceFunc adapts a function to a TokenSource.
type TokenSourceFunc func(ctx context.Context) (Token, error)

func (f TokenSourceFunc) Token(ctx context.Context) (Token, error) { return f(ctx) }

// ClientSecretSource obtains tokens via the service-principal
// (client-credentials) flow.
type ClientSecretSource struct {
	cred  *azidentity.ClientSecretCredential
	scope string
}

// NewClientSecretSource creates a source for the given service principal.
// No network I/O happens until the first Token call. An empty scope
// defaults to DefaultScope.
func NewClientSecretSource(tenantID, clientID, clientSecret, scope string) (*ClientSecretSource, error) {
	cred, err := azidentity.NewClientSecretCredential(tenantID, clientID, clientSecret, nil)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	if scope == "" {
		scope = DefaultScope
	}
	return &ClientSecretSource{cred: cred, scope: scope}, nil
}

// Token requests a fresh token from the identity provider. Failures wrap
// the provider's error; no retry is attempted here.
func (s *ClientSecretSource) Token(ctx context.Context) (Token, error) {
	tok, err := s.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{s.scope}})
	if err != nil {
		return Token{}, core.WrapError(core.ErrAuthFailed, err)
	}
	return Token{Value: tok.Token, ExpiresOn: tok.ExpiresOn}, nil
}
