// Package httpclient offers HTTP client construction helpers for the Firefly API.
//
// It provides a fluent Builder that can create an http.Client with automatic
// Bearer token and x-api-key injection backed by imsclient.TokenManager,
// configurable TLS (custom CA, mTLS, insecure for tests), timeouts, base
// transports, and redirect handling. AuthTransport can wrap any RoundTripper.
//
// # Features
//
//   - Fluent builder for http.Client with optional token and API key injection
//   - TLS 1.2+ by default, with custom CA/mTLS and optional InsecureSkipVerify
//   - Custom timeouts, base transport override, and redirect disabling
//   - Reusable AuthTransport for manual composition
//
// # Quick Start
//
//	client, err := httpclient.NewBuilder().
//	    WithCredentials(imsclient.Credentials{
//	        ClientID:     "client-id",
//	        ClientSecret: "client-secret",
//	    }).
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get("https://firefly-api.adobe.io/v3/...")
//
// # Manual Transport Wrapping
//
//	transport := httpclient.NewAuthTransport(tm, nil)
//	client := &http.Client{Transport: transport}
//
// All components are safe for concurrent use.
package httpclient
