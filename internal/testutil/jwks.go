package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

// TestKeyID is the kid used by GenerateRSAKey and JWKSJSON.
const TestKeyID = "test-key-1"

// GenerateRSAKey creates an RSA key pair for signing test tokens.
func GenerateRSAKey(tb testing.TB) *rsa.PrivateKey {
	tb.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate RSA key: %v", err)
	}
	return key
}

// JWKSJSON renders a JWKS document for the given RSA public key with proper
// base64url encoding, suitable for serving through StaticJSONResponse.
func JWKSJSON(tb testing.TB, publicKey *rsa.PublicKey) string {
	tb.Helper()

	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": TestKeyID,
				"use": "sig",
				"alg": "RS256",
				"n":   encodeBase64URL(publicKey.N.Bytes()),
				"e":   encodeBase64URL(big.NewInt(int64(publicKey.E)).Bytes()),
			},
		},
	}

	raw, err := json.Marshal(jwks)
	if err != nil {
		tb.Fatalf("failed to marshal JWKS: %v", err)
	}
	return string(raw)
}

// SignTestToken signs claims as an RS256 JWT with TestKeyID, the way IMS
// signs access tokens.
func SignTestToken(tb testing.TB, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	tb.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = TestKeyID

	signed, err := token.SignedString(key)
	if err != nil {
		tb.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func encodeBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}
