package imsclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultTokenURL is the Adobe IMS token endpoint.
	DefaultTokenURL = "https://ims-na1.adobelogin.com/ims/token/v3"

	// FireflyScope is the scope string required by the Firefly API. IMS
	// expects it as a single comma-joined value.
	FireflyScope = "openid,AdobeID,session,additional_info,read_organizations,firefly_api,ff_apis"

	// DefaultTokenTTL is assumed when IMS omits expires_in from the token
	// response.
	DefaultTokenTTL = 86400 * time.Second
)

// ErrInvalidCredentials indicates a missing client id or secret. No network
// call is made in that case.
var ErrInvalidCredentials = errors.New("imsclient: client ID and client secret are required")

// ErrTokenRequest matches any failed token exchange via errors.Is.
var ErrTokenRequest = errors.New("imsclient: token request failed")

// TokenRequestError carries details of a failed token exchange. StatusCode and
// Body are zero/empty when the failure happened before an HTTP response was
// received (for example a transport error).
type TokenRequestError struct {
	StatusCode int
	Body       string
	Err        error
}

// Error returns a concise description including upstream details when present.
func (e *TokenRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("imsclient: token request failed: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("imsclient: token request failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TokenRequestError) Unwrap() error { return e.Err }

// Is enables errors.Is(err, ErrTokenRequest).
func (e *TokenRequestError) Is(target error) bool { return target == ErrTokenRequest }

// TokenResponse is the result of a successful token exchange. ExpiresIn is 0
// when IMS omitted the token lifetime.
type TokenResponse struct {
	AccessToken string
	ExpiresIn   time.Duration
}

// TokenProvider exchanges a credential pair for an access token via the
// client-credentials grant. It is stateless apart from its configuration and
// safe for concurrent use.
type TokenProvider struct {
	tokenURL   string
	scope      string
	httpClient *http.Client
}

// ProviderOption configures a TokenProvider.
type ProviderOption func(*TokenProvider)

// WithProviderHTTPClient sets the HTTP client used for token requests. The
// default client (with its default timeout behavior) is used when unset.
func WithProviderHTTPClient(client *http.Client) ProviderOption {
	return func(p *TokenProvider) {
		p.httpClient = client
	}
}

// WithProviderTokenURL overrides the IMS token endpoint. Intended for tests.
func WithProviderTokenURL(url string) ProviderOption {
	return func(p *TokenProvider) {
		p.tokenURL = url
	}
}

// WithProviderScope overrides the scope string sent to IMS.
func WithProviderScope(scope string) ProviderOption {
	return func(p *TokenProvider) {
		p.scope = scope
	}
}

// NewTokenProvider creates a provider targeting the IMS token endpoint with
// the Firefly scope string.
func NewTokenProvider(opts ...ProviderOption) *TokenProvider {
	p := &TokenProvider{
		tokenURL: DefaultTokenURL,
		scope:    FireflyScope,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch performs a single client-credentials exchange for creds.
//
// The request is a form-encoded POST carrying grant_type, client_id,
// client_secret and scope, matching what IMS expects. There are no retries; a
// failed call is safe to retry from outside.
//
// Returns ErrInvalidCredentials without any network call when either field of
// creds is empty, and a *TokenRequestError for upstream or transport failures.
func (p *TokenProvider) Fetch(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !creds.Valid() {
		return nil, ErrInvalidCredentials
	}

	config := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     p.tokenURL,
		Scopes:       []string{p.scope},
		// IMS wants the id and secret form-encoded in the body, not in a
		// basic auth header.
		AuthStyle: oauth2.AuthStyleInParams,
	}

	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := config.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, &TokenRequestError{
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       string(retrieveErr.Body),
				Err:        err,
			}
		}
		return nil, &TokenRequestError{Err: err}
	}

	resp := &TokenResponse{AccessToken: token.AccessToken}
	if !token.Expiry.IsZero() {
		resp.ExpiresIn = time.Until(token.Expiry)
	}
	return resp, nil
}
