package imsclient

import (
	"sync"
	"time"
)

// DefaultExpiryLeeway is the safety margin before real expiry after which a
// cached token is no longer served.
const DefaultExpiryLeeway = 5 * time.Minute

// TokenCache serves a currently valid access token for the default credential
// pair. Implementations must treat any other credential pair as a permanent
// miss and must never store tokens for it.
//
// The cache is explicit and injectable (see WithCache) so hosts can substitute
// it in tests or add their own instrumentation.
type TokenCache interface {
	// GetValid returns a cached token that is still valid for creds, or
	// ok=false when creds is not the default pair, no token is cached, or
	// the cached token is inside the expiry leeway.
	GetValid(creds Credentials) (token string, ok bool)

	// Store caches token for ttl. It is a no-op when creds is not the
	// default pair.
	Store(creds Credentials, token string, ttl time.Duration)
}

// MemoryTokenCache is the default TokenCache: a single in-memory slot bound to
// one default credential pair. It is safe for concurrent use and performs no
// disk or network I/O.
type MemoryTokenCache struct {
	defaults Credentials
	leeway   time.Duration

	mu        sync.Mutex
	token     string
	expiresAt time.Time

	now func() time.Time // overridable in tests
}

// NewMemoryTokenCache creates a cache bound to the given default credential
// pair. A leeway of 0 selects DefaultExpiryLeeway.
func NewMemoryTokenCache(defaults Credentials, leeway time.Duration) *MemoryTokenCache {
	if leeway <= 0 {
		leeway = DefaultExpiryLeeway
	}
	return &MemoryTokenCache{
		defaults: defaults,
		leeway:   leeway,
		now:      time.Now,
	}
}

// GetValid implements TokenCache.
func (m *MemoryTokenCache) GetValid(creds Credentials) (string, bool) {
	if !creds.Equal(m.defaults) {
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == "" {
		return "", false
	}
	if !m.expiresAt.After(m.now().Add(m.leeway)) {
		return "", false
	}
	return m.token, true
}

// Store implements TokenCache. Any previously cached token is overwritten.
func (m *MemoryTokenCache) Store(creds Credentials, token string, ttl time.Duration) {
	if !creds.Equal(m.defaults) {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = token
	m.expiresAt = m.now().Add(ttl)
}
