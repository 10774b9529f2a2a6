// Package tokenverify inspects and verifies Adobe IMS access tokens.
//
// IMS issues RS256-signed JWTs. Decode extracts their claims without any
// network I/O; Verifier additionally checks the signature against the IMS
// JWKS endpoint and enforces that the token carries the scopes the Firefly
// API requires. Hosts typically run this once at startup through
// fireflyclient.Client.VerifyCredentials to fail fast on misconfigured
// credentials.
package tokenverify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultJWKSURL is the Adobe IMS key set endpoint.
	DefaultJWKSURL = "https://ims-na1.adobelogin.com/ims/keys"
)

// DefaultRequiredScopes are the scopes the Firefly API requires on an access
// token.
func DefaultRequiredScopes() []string {
	return []string{"firefly_api", "ff_apis"}
}

// ErrInvalidToken matches tokens that cannot be parsed or fail signature or
// expiry checks.
var ErrInvalidToken = errors.New("tokenverify: invalid token")

// ErrMissingScopes matches tokens that lack required scopes.
var ErrMissingScopes = errors.New("tokenverify: missing required scopes")

// ScopeError carries the scopes a token is missing.
type ScopeError struct {
	Missing []string
}

// Error returns a concise description of the missing scopes.
func (e *ScopeError) Error() string {
	return fmt.Sprintf("tokenverify: token is missing required scopes %v", e.Missing)
}

// Is enables errors.Is(err, ErrMissingScopes).
func (e *ScopeError) Is(target error) bool { return target == ErrMissingScopes }

// Claims are the fields of an IMS access token this module cares about.
type Claims struct {
	Subject  string    // sub or user_id claim
	ClientID string    // client_id claim
	Type     string    // type claim, "access_token" for IMS access tokens
	Scopes   []string  // scope claim, comma-separated in IMS tokens
	Expiry   time.Time // zero when the token carries no usable expiry
	IssuedAt time.Time // zero when absent
}

// Decode extracts claims from an IMS access token without verifying its
// signature. Use a Verifier when authenticity matters.
func Decode(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidToken)
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	return claimsFromMap(mapClaims), nil
}

// CheckScopes verifies that claims carry every required scope.
func CheckScopes(claims *Claims, required []string) error {
	available := make(map[string]struct{}, len(claims.Scopes))
	for _, scope := range claims.Scopes {
		available[scope] = struct{}{}
	}

	missing := make([]string, 0, len(required))
	for _, scope := range required {
		if _, ok := available[scope]; !ok {
			missing = append(missing, scope)
		}
	}
	if len(missing) > 0 {
		return &ScopeError{Missing: missing}
	}
	return nil
}

// Logger is an interface for optional logging in Verifier.
type Logger interface {
	Printf(format string, args ...any)
}

// Verifier verifies IMS access tokens against the IMS JWKS and enforces
// required scopes. It caches public keys and refreshes them when needed.
type Verifier struct {
	jwks           *keyfunc.JWKS
	requiredScopes []string
	logger         Logger // optional logger
}

// NewVerifier creates a verifier backed by the given JWKS endpoint.
//
// Parameters:
//   - jwksURL: URL of the key set endpoint (DefaultJWKSURL for production IMS)
//   - requiredScopes: Scopes every verified token must carry (nil selects
//     DefaultRequiredScopes)
//   - httpClient: HTTP client for fetching the JWKS (optional, uses
//     http.DefaultClient if nil)
//   - refreshInterval: How often cached keys are refreshed (0 uses one hour)
//   - logger: Optional logger for refresh errors (can be nil)
//
// Returns:
//   - *Verifier: Configured verifier
//   - error: Error if the initial JWKS fetch fails
func NewVerifier(jwksURL string, requiredScopes []string, httpClient *http.Client, refreshInterval time.Duration, logger Logger) (*Verifier, error) {
	if jwksURL == "" {
		jwksURL = DefaultJWKSURL
	}
	if requiredScopes == nil {
		requiredScopes = DefaultRequiredScopes()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if refreshInterval == 0 {
		refreshInterval = time.Hour
	}

	options := keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			if logger != nil {
				logger.Printf("tokenverify: JWKS refresh error: %v", err)
			}
		},
		RefreshInterval:   refreshInterval,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		Client:            httpClient,
	}

	jwks, err := keyfunc.Get(jwksURL, options)
	if err != nil {
		return nil, fmt.Errorf("tokenverify: failed to initialize JWKS: %w", err)
	}

	return &Verifier{
		jwks:           jwks,
		requiredScopes: requiredScopes,
		logger:         logger,
	}, nil
}

// Verify checks the token signature against the JWKS, rejects expired tokens,
// and enforces the required scopes.
//
// Returns the decoded claims on success, and ErrInvalidToken or a *ScopeError
// on failure.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: token is empty", ErrInvalidToken)
	}

	parsed, err := jwt.Parse(token, v.jwks.Keyfunc, jwt.WithValidMethods([]string{
		jwt.SigningMethodRS256.Name,
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	claims := claimsFromMap(mapClaims)

	// IMS tokens express their lifetime through created_at/expires_in
	// rather than a standard exp claim, so jwt.Parse cannot check it.
	if !claims.Expiry.IsZero() && !claims.Expiry.After(time.Now()) {
		return nil, fmt.Errorf("%w: token is expired", ErrInvalidToken)
	}

	if err := CheckScopes(claims, v.requiredScopes); err != nil {
		return nil, err
	}

	if v.logger != nil {
		v.logger.Printf("tokenverify: verified token for client %s with scopes %v", claims.ClientID, claims.Scopes)
	}

	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *Verifier) Close() {
	v.jwks.EndBackground()
}

// claimsFromMap maps raw JWT claims to Claims, tolerating the IMS quirks:
// scopes are comma-separated, and expiry is created_at + expires_in in
// milliseconds (both strings) instead of a standard exp claim.
func claimsFromMap(mapClaims jwt.MapClaims) *Claims {
	claims := &Claims{}

	if sub, ok := mapClaims["sub"].(string); ok {
		claims.Subject = sub
	} else if userID, ok := mapClaims["user_id"].(string); ok {
		claims.Subject = userID
	}
	if clientID, ok := mapClaims["client_id"].(string); ok {
		claims.ClientID = clientID
	}
	if tokenType, ok := mapClaims["type"].(string); ok {
		claims.Type = tokenType
	}
	if scope, ok := mapClaims["scope"].(string); ok && scope != "" {
		claims.Scopes = strings.Split(scope, ",")
	}

	createdAt := millisClaim(mapClaims, "created_at")
	expiresIn := millisClaim(mapClaims, "expires_in")
	if createdAt > 0 {
		claims.IssuedAt = time.UnixMilli(createdAt)
		if expiresIn > 0 {
			claims.Expiry = time.UnixMilli(createdAt + expiresIn)
		}
	}

	// Standard claims take precedence when present.
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.Expiry = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	return claims
}

// millisClaim reads a millisecond timestamp claim that IMS encodes as either
// a string or a number.
func millisClaim(mapClaims jwt.MapClaims, key string) int64 {
	switch value := mapClaims[key].(type) {
	case string:
		millis, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0
		}
		return millis
	case float64:
		return int64(value)
	default:
		return 0
	}
}
