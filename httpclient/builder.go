package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ghhutch/open-webui-firefly-filter/imsclient"
)

// Builder provides a fluent interface for constructing HTTP clients for the
// Firefly API, with optional token injection and TLS options.
type Builder struct {
	// Authentication configuration
	tokenManager *imsclient.TokenManager
	apiKey       string

	// TLS configuration
	tlsEnabled    bool
	tlsCAFile     string
	tlsCertFile   string
	tlsKeyFile    string
	tlsSkipVerify bool

	// HTTP client configuration
	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
}

// NewBuilder creates a new HTTP client builder.
func NewBuilder() *Builder {
	return &Builder{
		timeout:         30 * time.Second, // Default 30s timeout
		followRedirects: true,
	}
}

// WithTokenManager sets the token manager for automatic authentication.
// The x-api-key header is taken from the manager's default client id unless
// WithAPIKey overrides it.
func (b *Builder) WithTokenManager(tm *imsclient.TokenManager) *Builder {
	b.tokenManager = tm
	return b
}

// WithCredentials enables authentication by creating a new TokenManager for
// the given default credential pair.
func (b *Builder) WithCredentials(creds imsclient.Credentials, opts ...imsclient.Option) *Builder {
	b.tokenManager = imsclient.NewTokenManager(creds, opts...)
	return b
}

// WithAPIKey overrides the x-api-key header value.
func (b *Builder) WithAPIKey(apiKey string) *Builder {
	b.apiKey = apiKey
	return b
}

// WithTLS enables TLS for the connection.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (optional, uses system roots if empty)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
func (b *Builder) WithTLS(caFile, certFile, keyFile string) *Builder {
	b.tlsEnabled = true
	b.tlsCAFile = caFile
	b.tlsCertFile = certFile
	b.tlsKeyFile = keyFile
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
// This should only be used for testing or development purposes.
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tlsSkipVerify = true
	return b
}

// WithTimeout sets the request timeout for the HTTP client.
// Default is 30 seconds if not specified. Generation calls can take a while;
// hosts with slow models should raise this.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport.
// This is useful for adding custom middleware or for in-memory test transports.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following.
// By default, the client follows up to 10 redirects.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// Build constructs the HTTP client with the configured options.
//
// Returns:
//   - *http.Client: Configured HTTP client
//   - error: Error if configuration is invalid
func (b *Builder) Build() (*http.Client, error) {
	transport := b.baseTransport
	if transport == nil {
		httpTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			return nil, errors.New("httpclient: http.DefaultTransport is not an *http.Transport")
		}
		httpTransport = httpTransport.Clone()

		if b.tlsEnabled || b.tlsSkipVerify {
			tlsConfig, err := b.buildTLSConfig()
			if err != nil {
				return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
			}
			httpTransport.TLSClientConfig = tlsConfig
		} else {
			// Secure TLS defaults even when TLS is not explicitly configured.
			httpTransport.TLSClientConfig = &tls.Config{
				MinVersion: tls.VersionTLS12,
			}
		}

		transport = httpTransport
	}

	// Wrap with the auth transport if a token manager is set.
	if b.tokenManager != nil {
		authTransport := NewAuthTransport(b.tokenManager, transport)
		if b.apiKey != "" {
			authTransport.APIKey = b.apiKey
		}
		transport = authTransport
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   b.timeout,
	}

	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// buildTLSConfig constructs the TLS configuration for the HTTP client.
func (b *Builder) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: b.tlsSkipVerify, // #nosec G402
	}

	// Load CA certificate for server verification
	if b.tlsCAFile != "" {
		caCert, err := os.ReadFile(b.tlsCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}

		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = certPool
	}

	// Load client certificate for mTLS (if both cert and key are provided)
	if b.tlsCertFile != "" && b.tlsKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(b.tlsCertFile, b.tlsKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	} else if b.tlsCertFile != "" || b.tlsKeyFile != "" {
		return nil, errors.New("both TLS cert and key files must be provided for mTLS")
	}

	return tlsConfig, nil
}

// NewHTTPClient is a convenience function that creates an HTTP client that
// authenticates every request for the Firefly API.
// For more configuration options, use Builder instead.
//
// Example:
//
//	tm := imsclient.NewTokenManager(creds)
//	client := httpclient.NewHTTPClient(tm)
//	resp, err := client.Get("https://firefly-api.adobe.io/v3/...")
func NewHTTPClient(tm *imsclient.TokenManager) *http.Client {
	return &http.Client{
		Transport: NewAuthTransport(tm, nil),
		Timeout:   30 * time.Second,
	}
}
