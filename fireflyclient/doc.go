// Package fireflyclient generates images from text prompts with the Adobe
// Firefly API.
//
// Client is the single entry point for embedding pipelines: it resolves an
// IMS access token (cached for the default credential pair, fetched fresh for
// per-caller overrides), issues one authenticated generation call, and maps
// the outcome to a Result or a typed error whose message is suitable for
// direct display.
//
// # Features
//
//   - One-call contract: Generate(ctx, prompt, options) -> Result or error
//   - Per-caller credential overrides via GenerateWith, never cached
//   - Closed ContentClass and Model enumerations validated before any network call
//   - Full error taxonomy with errors.Is support (ErrInvalidInput,
//     ErrAuthentication, ErrNetwork, ErrUpstream, ErrMalformedResponse)
//   - Configurable timeout, endpoints and HTTP client; optional logging
//   - Startup credential verification (VerifyCredentials), optionally with
//     JWKS-backed token checks via tokenverify
//
// # Quick Start
//
//	client, err := fireflyclient.New(imsclient.Credentials{
//	    ClientID:     os.Getenv("FIREFLY_CLIENT_ID"),
//	    ClientSecret: os.Getenv("FIREFLY_CLIENT_SECRET"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.Generate(ctx, "a cat in a space suit", fireflyclient.GenerateOptions{
//	    Size:         "1024x1024",
//	    ContentClass: fireflyclient.ContentClassPhoto,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.ImageURL)
//
// # Notes
//
//   - No retries: every failure is terminal for the current call and safe to
//     retry from outside.
//   - Calls block for up to two sequential HTTP round-trips; bound them with
//     WithTimeout or a context deadline.
package fireflyclient
