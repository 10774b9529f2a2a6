package fireflyclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/ghhutch/open-webui-firefly-filter/imsclient"
	"github.com/ghhutch/open-webui-firefly-filter/testutil"
)

var (
	defaultPair  = imsclient.Credentials{ClientID: "default-id", ClientSecret: "default-secret"}
	overridePair = imsclient.Credentials{ClientID: "caller-id", ClientSecret: "caller-secret"}
)

// newTestClient wires a client to in-memory IMS and Firefly endpoints.
func newTestClient(tb testing.TB) (*Client, *testutil.MockIMSServer, *testutil.MockFireflyServer) {
	tb.Helper()

	ims := testutil.NewMockIMSServer(tb)
	firefly := testutil.NewMockFireflyServer(tb)

	tm := imsclient.NewTokenManager(defaultPair, imsclient.WithHTTPClient(ims.Client()))
	client, err := New(defaultPair, WithTokenManager(tm), WithHTTPClient(firefly.Client()))
	if err != nil {
		tb.Fatalf("failed to create client: %v", err)
	}

	return client, ims, firefly
}

func TestGenerateSuccess(t *testing.T) {
	client, ims, firefly := newTestClient(t)
	ims.Response = `{"access_token":"T1","expires_in":3600}`
	firefly.Response = `{"outputs":[{"image":{"url":"https://x/img.png"}}]}`

	result, err := client.Generate(context.Background(), "a cat", GenerateOptions{
		Size:         "512x512",
		ContentClass: ContentClassPhoto,
		Model:        ModelImage3,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if result.ImageURL != "https://x/img.png" {
		t.Errorf("unexpected image URL: %s", result.ImageURL)
	}

	requests := firefly.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected exactly one generation request, got %d", len(requests))
	}

	req := requests[0]
	if got := req.Header.Get("x-api-key"); got != defaultPair.ClientID {
		t.Errorf("unexpected x-api-key: %s", got)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer T1" {
		t.Errorf("unexpected Authorization header: %s", got)
	}
	if got := req.Header.Get("x-model-version"); got != "image3" {
		t.Errorf("unexpected x-model-version: %s", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("unexpected Content-Type: %s", got)
	}

	if got := req.Body["prompt"]; got != "a cat" {
		t.Errorf("unexpected prompt in body: %v", got)
	}
	if got := req.Body["contentClass"]; got != "photo" {
		t.Errorf("unexpected contentClass in body: %v", got)
	}
	size, ok := req.Body["size"].(map[string]any)
	if !ok {
		t.Fatalf("size missing from body: %v", req.Body)
	}
	if size["width"] != float64(512) || size["height"] != float64(512) {
		t.Errorf("unexpected size in body: %v", size)
	}
}

func TestGenerateDefaultOptions(t *testing.T) {
	client, _, firefly := newTestClient(t)

	if _, err := client.Generate(context.Background(), "a cat", GenerateOptions{}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	req := firefly.Requests()[0]
	if got := req.Header.Get("x-model-version"); got != string(DefaultModel) {
		t.Errorf("expected default model header, got %s", got)
	}
	if got := req.Body["contentClass"]; got != string(DefaultContentClass) {
		t.Errorf("expected default content class, got %v", got)
	}
	size := req.Body["size"].(map[string]any)
	if size["width"] != float64(1024) || size["height"] != float64(1024) {
		t.Errorf("expected the 1024x1024 default, got %v", size)
	}
}

func TestGenerateInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		opts   GenerateOptions
		target error
	}{
		{"empty prompt", "", GenerateOptions{}, ErrInvalidInput},
		{"whitespace prompt", "   ", GenerateOptions{}, ErrInvalidInput},
		{"malformed size", "a cat", GenerateOptions{Size: "abc"}, ErrInvalidSize},
		{"unknown content class", "a cat", GenerateOptions{ContentClass: "sculpture"}, ErrInvalidInput},
		{"unknown model", "a cat", GenerateOptions{Model: "image99"}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, ims, firefly := newTestClient(t)

			_, err := client.Generate(context.Background(), tt.prompt, tt.opts)
			if !errors.Is(err, tt.target) {
				t.Errorf("expected %v, got %v", tt.target, err)
			}

			// Validation failures must never reach the network.
			if ims.CallCount() != 0 {
				t.Errorf("expected no identity call, got %d", ims.CallCount())
			}
			if firefly.CallCount() != 0 {
				t.Errorf("expected no generation call, got %d", firefly.CallCount())
			}
		})
	}
}

func TestGenerateInvalidCredentials(t *testing.T) {
	ims := testutil.NewMockIMSServer(t)
	firefly := testutil.NewMockFireflyServer(t)

	tm := imsclient.NewTokenManager(imsclient.Credentials{}, imsclient.WithHTTPClient(ims.Client()))
	client, err := New(imsclient.Credentials{}, WithTokenManager(tm), WithHTTPClient(firefly.Client()))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	_, err = client.Generate(context.Background(), "a cat", GenerateOptions{})
	if !errors.Is(err, imsclient.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if ims.CallCount() != 0 || firefly.CallCount() != 0 {
		t.Error("expected no network calls for empty credentials")
	}
}

func TestGenerateAuthenticationFailure(t *testing.T) {
	client, ims, firefly := newTestClient(t)
	ims.Status = http.StatusUnauthorized
	ims.Response = `{"error":"invalid_client"}`

	_, err := client.Generate(context.Background(), "a cat", GenerateOptions{})
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if !errors.Is(err, imsclient.ErrTokenRequest) {
		t.Errorf("expected the wrapped token error to be matchable, got %v", err)
	}

	// The generation call must not be attempted.
	if firefly.CallCount() != 0 {
		t.Errorf("expected no generation call after auth failure, got %d", firefly.CallCount())
	}
}

func TestGenerateNetworkError(t *testing.T) {
	client, _, firefly := newTestClient(t)
	firefly.Err = errors.New("connection reset by peer")

	_, err := client.Generate(context.Background(), "a cat", GenerateOptions{})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %T", err)
	}
}

func TestGenerateUpstreamError(t *testing.T) {
	client, _, firefly := newTestClient(t)
	firefly.Status = http.StatusTooManyRequests
	firefly.Response = `{"error":{"message":"rate limited"}}`

	_, err := client.Generate(context.Background(), "a cat", GenerateOptions{})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "rate limited" {
		t.Errorf("expected the upstream message, got %q", apiErr.Message)
	}
}

func TestGenerateUpstreamErrorUnparseableBody(t *testing.T) {
	client, _, firefly := newTestClient(t)
	firefly.Status = http.StatusBadGateway
	firefly.Response = `upstream exploded`

	_, err := client.Generate(context.Background(), "a cat", GenerateOptions{})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected status 502, got %d", apiErr.StatusCode)
	}
	if apiErr.Message != "upstream exploded" {
		t.Errorf("expected the raw body as fallback message, got %q", apiErr.Message)
	}
}

func TestGenerateMalformedResponse(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantDetail string
	}{
		{"empty object", `{}`, ""},
		{"empty outputs", `{"outputs":[]}`, ""},
		{"output without url", `{"outputs":[{"image":{}}]}`, ""},
		{"error message in body", `{"error":{"message":"content flagged"}}`, "content flagged"},
		{"errors array in body", `{"errors":[{"message":"quota exceeded"}]}`, "quota exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, firefly := newTestClient(t)
			firefly.Response = tt.body

			_, err := client.Generate(context.Background(), "a cat", GenerateOptions{})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}

			var malformedErr *MalformedResponseError
			if !errors.As(err, &malformedErr) {
				t.Fatalf("expected *MalformedResponseError, got %T", err)
			}
			if malformedErr.Detail != tt.wantDetail {
				t.Errorf("expected detail %q, got %q", tt.wantDetail, malformedErr.Detail)
			}
		})
	}
}

func TestGenerateMalformedResponseNotJSON(t *testing.T) {
	client, _, firefly := newTestClient(t)
	firefly.Response = `<html>unexpected</html>`

	_, err := client.Generate(context.Background(), "a cat", GenerateOptions{})
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestGenerateUsesTokenCache(t *testing.T) {
	client, ims, firefly := newTestClient(t)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := client.Generate(ctx, "a cat", GenerateOptions{}); err != nil {
			t.Fatalf("Generate %d failed: %v", i+1, err)
		}
	}

	if got := ims.CallCount(); got != 1 {
		t.Errorf("expected exactly one identity call across two generations, got %d", got)
	}
	if got := firefly.CallCount(); got != 2 {
		t.Errorf("expected two generation calls, got %d", got)
	}
}

func TestGenerateWithOverrideCredentials(t *testing.T) {
	client, ims, firefly := newTestClient(t)
	ctx := context.Background()

	// Warm the default-pair cache.
	if _, err := client.Generate(ctx, "a cat", GenerateOptions{}); err != nil {
		t.Fatalf("default Generate failed: %v", err)
	}

	// Override calls fetch fresh tokens every time.
	for i := 0; i < 2; i++ {
		if _, err := client.GenerateWith(ctx, "a dog", overridePair, GenerateOptions{}); err != nil {
			t.Fatalf("override Generate %d failed: %v", i+1, err)
		}
	}
	if got := ims.CallCount(); got != 3 {
		t.Errorf("expected 3 identity calls (1 default + 2 override), got %d", got)
	}

	// Override requests must carry the override client id.
	requests := firefly.Requests()
	if got := requests[1].Header.Get("x-api-key"); got != overridePair.ClientID {
		t.Errorf("expected override client id as x-api-key, got %s", got)
	}

	// The default-pair cache must be untouched.
	if _, err := client.Generate(ctx, "a cat", GenerateOptions{}); err != nil {
		t.Fatalf("default Generate failed: %v", err)
	}
	if got := ims.CallCount(); got != 3 {
		t.Errorf("override calls must not disturb the default cache; got %d identity calls", got)
	}
}

func TestVerifyCredentials(t *testing.T) {
	client, ims, _ := newTestClient(t)

	if err := client.VerifyCredentials(context.Background()); err != nil {
		t.Fatalf("VerifyCredentials failed: %v", err)
	}
	if got := ims.CallCount(); got != 1 {
		t.Errorf("expected one identity call, got %d", got)
	}
}

func TestVerifyCredentialsFailure(t *testing.T) {
	client, ims, _ := newTestClient(t)
	ims.Status = http.StatusBadRequest
	ims.Response = `{"error":"invalid_client"}`

	err := client.VerifyCredentials(context.Background())
	if !errors.Is(err, ErrAuthentication) {
		t.Errorf("expected ErrAuthentication, got %v", err)
	}
}

func TestResultMarkdown(t *testing.T) {
	result := &Result{ImageURL: "https://x/img.png"}

	got := result.Markdown()
	if !strings.Contains(got, "![image](https://x/img.png)") {
		t.Errorf("unexpected markdown: %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("markdown should end with a newline")
	}
}

func TestErrorMessagesAreDisplayable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"input", &InputError{Reason: "prompt is empty"}, "prompt is empty"},
		{"size", &SizeError{Value: "abc"}, `"abc"`},
		{"api", &APIError{StatusCode: 429, Message: "rate limited"}, "status 429"},
		{"malformed", &MalformedResponseError{Detail: "content flagged"}, "content flagged"},
		{"auth", &AuthError{Err: errors.New("boom")}, "authentication failed"},
		{"transport", &TransportError{Err: errors.New("timeout")}, "network error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if msg := tt.err.Error(); !strings.Contains(msg, tt.want) {
				t.Errorf("expected %q in %q", tt.want, msg)
			}
		})
	}
}
