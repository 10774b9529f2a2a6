package httpclient

import (
	"fmt"
	"net/http"

	"github.com/ghhutch/open-webui-firefly-filter/imsclient"
)

// AuthTransport is an http.RoundTripper that authenticates outgoing requests
// for the Firefly API.
//
// It wraps an existing transport (typically http.DefaultTransport) and injects
// the Authorization Bearer header and, when APIKey is set, the x-api-key
// header before each request. Firefly expects x-api-key to carry the client id
// of the credential pair the token was issued for.
type AuthTransport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// TokenManager provides IMS access tokens.
	TokenManager *imsclient.TokenManager

	// APIKey is the value of the x-api-key header. Left out when empty.
	APIKey string
}

// RoundTrip implements http.RoundTripper.
// It fetches a valid access token and adds the Authorization and x-api-key
// headers before delegating to the base transport. The token fetch respects
// the request context's cancellation and deadline.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.TokenManager == nil {
		return nil, fmt.Errorf("httpclient: TokenManager is nil")
	}

	token, err := t.TokenManager.TokenWithContext(req.Context())
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to get token: %w", err)
	}

	// Clone the request to avoid modifying the original.
	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+token)
	if t.APIKey != "" {
		reqClone.Header.Set("x-api-key", t.APIKey)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(reqClone)
}

// NewAuthTransport creates an AuthTransport for the given token manager. The
// x-api-key header carries the manager's default client id, and the base
// transport defaults to http.DefaultTransport if not specified.
func NewAuthTransport(tm *imsclient.TokenManager, base http.RoundTripper) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	apiKey := ""
	if tm != nil {
		apiKey = tm.DefaultCredentials().ClientID
	}

	return &AuthTransport{
		Base:         base,
		TokenManager: tm,
		APIKey:       apiKey,
	}
}
