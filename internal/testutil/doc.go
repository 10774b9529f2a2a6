// Package testutil provides shared test helpers: in-memory HTTP transports,
// mock IMS token endpoints, and TLS certificate generation for transport tests.
package testutil
