package imsclient

import "encoding/json"

// Credentials is an immutable IMS client id/secret pair.
//
// Two pairs are equal only when both fields match exactly. The pair handed to
// NewTokenManager is the "default" pair; any other pair supplied per call is
// treated as a caller override and is never cached.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Equal reports whether both fields match exactly.
func (c Credentials) Equal(other Credentials) bool {
	return c.ClientID == other.ClientID && c.ClientSecret == other.ClientSecret
}

// Valid reports whether both fields are non-empty.
func (c Credentials) Valid() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// String masks the secret so credentials can be logged safely.
func (c Credentials) String() string {
	return "Credentials{ClientID:" + truncateID(c.ClientID) + ", ClientSecret:***}"
}

// MarshalJSON masks both fields so credentials never leak through JSON output.
func (c Credentials) MarshalJSON() ([]byte, error) {
	type masked struct {
		ClientID     string `json:"client_id,omitempty"`
		ClientSecret string `json:"client_secret,omitempty"`
	}
	out := masked{ClientID: truncateID(c.ClientID)}
	if c.ClientSecret != "" {
		out.ClientSecret = "***"
	}
	return json.Marshal(out)
}

// truncateID keeps a short recognizable prefix of the client id for logs.
func truncateID(id string) string {
	if id == "" {
		return ""
	}
	if len(id) <= 5 {
		return id + "..."
	}
	return id[:5] + "..."
}
