package imsclient

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"
)

// Logger is an interface for optional logging in TokenManager.
// Implementations can log token refresh events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenManager serves valid Firefly access tokens, composing a TokenCache and
// a TokenProvider around one default credential pair. It is safe for
// concurrent use; the miss path is serialized so concurrent callers cannot
// race to fetch duplicate tokens.
type TokenManager struct {
	defaults Credentials
	provider *TokenProvider
	cache    TokenCache

	mu     sync.Mutex // serializes cache-miss fetches
	logger Logger     // optional logger
}

// Option is a functional option for configuring TokenManager.
type Option func(*tokenManagerConfig)

type tokenManagerConfig struct {
	httpClient *http.Client
	tokenURL   string
	scope      string
	cache      TokenCache
	leeway     time.Duration
	logger     Logger
}

// WithLogger sets a custom logger for token refresh events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(c *tokenManagerConfig) {
		c.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
// This is a convenience option that sets the logger to log.Default().
func WithLoggingEnabled() Option {
	return func(c *tokenManagerConfig) {
		c.logger = log.Default()
	}
}

// WithHTTPClient sets the HTTP client used for token requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *tokenManagerConfig) {
		c.httpClient = client
	}
}

// WithTokenURL overrides the IMS token endpoint. Intended for tests.
func WithTokenURL(url string) Option {
	return func(c *tokenManagerConfig) {
		c.tokenURL = url
	}
}

// WithScope overrides the scope string sent to IMS.
func WithScope(scope string) Option {
	return func(c *tokenManagerConfig) {
		c.scope = scope
	}
}

// WithCache substitutes the token cache. The default is a MemoryTokenCache
// bound to the default credential pair.
func WithCache(cache TokenCache) Option {
	return func(c *tokenManagerConfig) {
		c.cache = cache
	}
}

// WithExpiryLeeway adjusts the early-refresh margin of the default cache.
// Ignored when WithCache is used.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(c *tokenManagerConfig) {
		c.leeway = leeway
	}
}

// NewTokenManager creates a token manager for the given default credential
// pair.
//
// Parameters:
//   - defaults: The process-wide default client id/secret pair. Tokens are
//     cached for this pair only.
//   - opts: Optional configuration (WithHTTPClient, WithTokenURL, WithCache,
//     WithExpiryLeeway, WithLogger, WithLoggingEnabled, WithScope)
func NewTokenManager(defaults Credentials, opts ...Option) *TokenManager {
	cfg := &tokenManagerConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	providerOpts := []ProviderOption{}
	if cfg.httpClient != nil {
		providerOpts = append(providerOpts, WithProviderHTTPClient(cfg.httpClient))
	}
	if cfg.tokenURL != "" {
		providerOpts = append(providerOpts, WithProviderTokenURL(cfg.tokenURL))
	}
	if cfg.scope != "" {
		providerOpts = append(providerOpts, WithProviderScope(cfg.scope))
	}

	cache := cfg.cache
	if cache == nil {
		cache = NewMemoryTokenCache(defaults, cfg.leeway)
	}

	return &TokenManager{
		defaults: defaults,
		provider: NewTokenProvider(providerOpts...),
		cache:    cache,
		logger:   cfg.logger,
	}
}

// TokenWithContext returns a valid access token for the default credential
// pair, fetching a new one on cache miss or near-expiry.
func (tm *TokenManager) TokenWithContext(ctx context.Context) (string, error) {
	return tm.TokenForCredentials(ctx, tm.defaults)
}

// TokenForCredentials returns a valid access token for creds.
//
// For the default pair this consults the cache first and stores freshly
// fetched tokens. For any other pair the cache is bypassed in both directions:
// every call performs a fresh exchange and nothing is retained afterwards.
//
// Returns:
//   - string: Valid access token
//   - error: ErrInvalidCredentials, *TokenRequestError, or a context error
func (tm *TokenManager) TokenForCredentials(ctx context.Context, creds Credentials) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !creds.Valid() {
		return "", ErrInvalidCredentials
	}

	// Fast path: a valid cached token (always a miss for override pairs).
	if token, ok := tm.cache.GetValid(creds); ok {
		return token, nil
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	// Double-check after acquiring the lock; another caller may have
	// refreshed while we waited.
	if token, ok := tm.cache.GetValid(creds); ok {
		return token, nil
	}

	resp, err := tm.provider.Fetch(ctx, creds)
	if err != nil {
		return "", err
	}

	ttl := resp.ExpiresIn
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	tm.cache.Store(creds, resp.AccessToken, ttl)

	if tm.logger != nil {
		tm.logger.Printf("imsclient: obtained new access token for client %s (ttl %s)", truncateID(creds.ClientID), ttl)
	}

	return resp.AccessToken, nil
}

// DefaultCredentials returns the default credential pair the manager was
// created with.
func (tm *TokenManager) DefaultCredentials() Credentials {
	return tm.defaults
}
