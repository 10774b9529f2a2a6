// Package imsclient manages Adobe IMS access tokens for the Firefly API using
// the OAuth2 client-credentials flow.
//
// It caches the token issued for the configured default credential pair,
// refreshes it shortly before expiry, and always fetches a fresh token for any
// other (per-caller) credential pair without ever caching it. Token fetches
// honor contexts for cancellation, are thread-safe, and can log refresh events
// via an optional Logger.
//
// # Features
//
//   - Client-credentials exchange against the IMS token endpoint with the
//     fixed Firefly scope string
//   - Single-slot in-memory cache bound to the default credential pair, with a
//     5-minute early-refresh leeway
//   - Per-caller credential overrides that bypass the cache entirely
//   - Typed errors carrying the upstream status code and body
//   - Optional logging (WithLogger, WithLoggingEnabled)
//
// # Quick Start
//
//	tm := imsclient.NewTokenManager(
//	    imsclient.Credentials{
//	        ClientID:     os.Getenv("FIREFLY_CLIENT_ID"),
//	        ClientSecret: os.Getenv("FIREFLY_CLIENT_SECRET"),
//	    },
//	    imsclient.WithLoggingEnabled(),
//	)
//
//	token, err := tm.TokenWithContext(ctx)
//
// # Notes
//
//   - Tokens live only in process memory; nothing is persisted.
//   - A fetch is a single attempt with no retries. Callers may retry safely.
package imsclient
