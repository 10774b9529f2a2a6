package fireflyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/ghhutch/open-webui-firefly-filter/httpclient"
	"github.com/ghhutch/open-webui-firefly-filter/imsclient"
	"github.com/ghhutch/open-webui-firefly-filter/tokenverify"
)

// DefaultBaseURL is the Firefly API base URL.
const DefaultBaseURL = "https://firefly-api.adobe.io"

const generatePath = "/v3/images/generate"

// Logger is an interface for optional logging in Client.
type Logger interface {
	Printf(format string, args ...any)
}

// Client turns a text prompt into one generated-image reference.
//
// It resolves an access token through an imsclient.TokenManager (cached for
// the default credential pair, fetched fresh for overrides), issues a single
// authenticated generation call, and normalizes success and failure into
// Result and the typed errors of this package. There are no retries and no
// internal parallelism; both HTTP round-trips run sequentially on the calling
// goroutine.
type Client struct {
	creds      imsclient.Credentials
	baseURL    string
	httpClient *http.Client
	tokens     *imsclient.TokenManager
	verifier   *tokenverify.Verifier
	logger     Logger
}

// ClientOption is a functional option for configuring Client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	baseURL    string
	tokenURL   string
	timeout    time.Duration
	httpClient *http.Client
	tokens     *imsclient.TokenManager
	verifier   *tokenverify.Verifier
	logger     Logger
}

// WithBaseURL overrides the Firefly API base URL. Intended for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithTokenURL overrides the IMS token endpoint of the internally constructed
// token manager. Ignored when WithTokenManager is used.
func WithTokenURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.tokenURL = url
	}
}

// WithTimeout bounds each HTTP round-trip (token fetch and generation call
// individually). The default is 30 seconds; generation against the larger
// models can need more. Ignored when WithHTTPClient is used.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets the HTTP client used for generation calls and, unless
// WithTokenManager is used, for token requests too.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTokenManager substitutes the token manager. Its default credential pair
// should equal the pair the client is constructed with, or every call will be
// treated as an override and fetched fresh.
func WithTokenManager(tm *imsclient.TokenManager) ClientOption {
	return func(c *clientConfig) {
		c.tokens = tm
	}
}

// WithVerifier enables token verification during VerifyCredentials.
func WithVerifier(v *tokenverify.Verifier) ClientOption {
	return func(c *clientConfig) {
		c.verifier = v
	}
}

// WithLogger sets a custom logger. If not set, no logging will occur.
func WithLogger(logger Logger) ClientOption {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
func WithLoggingEnabled() ClientOption {
	return func(c *clientConfig) {
		c.logger = log.Default()
	}
}

// New creates a Firefly client for the given default credential pair.
//
// The pair may be empty at construction time (hosts sometimes learn their
// credentials late); calls that end up using an empty pair fail with
// imsclient.ErrInvalidCredentials before any network I/O.
func New(creds imsclient.Credentials, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		baseURL: DefaultBaseURL,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		var err error
		httpClient, err = httpclient.NewBuilder().WithTimeout(cfg.timeout).Build()
		if err != nil {
			return nil, err
		}
	}

	tokens := cfg.tokens
	if tokens == nil {
		tmOpts := []imsclient.Option{imsclient.WithHTTPClient(httpClient)}
		if cfg.tokenURL != "" {
			tmOpts = append(tmOpts, imsclient.WithTokenURL(cfg.tokenURL))
		}
		if cfg.logger != nil {
			tmOpts = append(tmOpts, imsclient.WithLogger(cfg.logger))
		}
		tokens = imsclient.NewTokenManager(creds, tmOpts...)
	}

	return &Client{
		creds:      creds,
		baseURL:    cfg.baseURL,
		httpClient: httpClient,
		tokens:     tokens,
		verifier:   cfg.verifier,
		logger:     cfg.logger,
	}, nil
}

// Generate produces one generated-image reference for prompt using the default
// credential pair.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Result, error) {
	return c.GenerateWith(ctx, prompt, c.creds, opts)
}

// GenerateWith produces one generated-image reference for prompt using the
// given credential pair. When creds differs from the default pair a fresh
// token is fetched for it and never cached.
//
// All input validation happens before any network call. Every failure is
// terminal for the current call and reported as a single typed error (see the
// package errors); nothing is retried internally.
func (c *Client) GenerateWith(ctx context.Context, prompt string, creds imsclient.Credentials, opts GenerateOptions) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(prompt) == "" {
		return nil, &InputError{Reason: "prompt is empty"}
	}

	opts = opts.withDefaults()
	if err := opts.ContentClass.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Model.Validate(); err != nil {
		return nil, err
	}
	size, err := ParseSize(opts.Size)
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.TokenForCredentials(ctx, creds)
	if err != nil {
		if errors.Is(err, imsclient.ErrInvalidCredentials) {
			return nil, err
		}
		return nil, &AuthError{Err: err}
	}

	if c.logger != nil {
		c.logger.Printf("fireflyclient: requesting image for prompt %q (model %s)", prompt, opts.Model)
	}

	payload, _ := json.Marshal(generateRequest{
		Prompt:       prompt,
		Size:         sizePayload{Width: size.Width, Height: size.Height},
		ContentClass: string(opts.ContentClass),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	req.Header.Set("x-api-key", creds.ClientID)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-model-version", string(opts.Model))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(raw, resp.Status),
		}
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &MalformedResponseError{Detail: "body is not valid JSON"}
	}

	if len(decoded.Outputs) == 0 || decoded.Outputs[0].Image.URL == "" {
		detail := ""
		switch {
		case decoded.Error != nil:
			detail = decoded.Error.Message
		case len(decoded.Errors) > 0:
			detail = decoded.Errors[0].Message
		}
		return nil, &MalformedResponseError{Detail: detail}
	}

	result := &Result{ImageURL: decoded.Outputs[0].Image.URL}
	if c.logger != nil {
		c.logger.Printf("fireflyclient: image URL received: %s", result.ImageURL)
	}
	return result, nil
}

// VerifyCredentials fetches a token for the default credential pair to check
// that the configured credentials work, the way the original integration does
// at startup. When a verifier is configured (WithVerifier) the token is also
// checked for a valid signature and the required Firefly scopes.
func (c *Client) VerifyCredentials(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	token, err := c.tokens.TokenWithContext(ctx)
	if err != nil {
		if errors.Is(err, imsclient.ErrInvalidCredentials) {
			return err
		}
		return &AuthError{Err: err}
	}

	if c.verifier != nil {
		claims, err := c.verifier.Verify(ctx, token)
		if err != nil {
			return err
		}
		if c.logger != nil {
			c.logger.Printf("fireflyclient: verified credentials for client %s with scopes %v", claims.ClientID, claims.Scopes)
		}
		return nil
	}

	if c.logger != nil {
		c.logger.Printf("fireflyclient: verified credentials for the default pair")
	}
	return nil
}

// upstreamMessage extracts error.message from an upstream body, falling back
// to the raw body text and finally the HTTP status line.
func upstreamMessage(raw []byte, status string) string {
	var decoded struct {
		Error *upstreamError `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err == nil && decoded.Error != nil && decoded.Error.Message != "" {
		return decoded.Error.Message
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return status
}
