package authflow

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Placeholder client id shipped in sample configuration. Any client id
// carrying the marker is treated as unconfigured.
const (
	PlaceholderClientID = "your-google-client-id.apps.googleusercontent.com"
	placeholderMarker   = "your-google-client-id"
)

// googleAuthURL is the v2 authorization endpoint.
const googleAuthURL = "https://accounts.google.com/o/oauth2/v2/auth"

// AuthConfig is the OAuth client registration used for one controller.
type AuthConfig struct {
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
	Scope       string `json:"scope"`
}

// Unconfigured reports whether the client id is missing or still the placeholder.
func (c AuthConfig) Unconfigured() bool {
	id := strings.TrimSpace(c.ClientID)
	return id == "" || id == PlaceholderClientID || strings.Contains(id, placeholderMarker)
}

func (c AuthConfig) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURI,
		Scopes:      []string{c.Scope},
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: google.Endpoint.TokenURL,
		},
	}
}

// AuthCodeURL builds the authorization URL for state. Query keys come out
// as client_id, redirect_uri, response_type=code, scope, state with
// redirect_uri and scope percent-encoded. scope is always present and
// carries the configured value verbatim.
func (c AuthConfig) AuthCodeURL(state string) string {
	authURL := c.oauth2Config().AuthCodeURL(state)
	base, query, ok := strings.Cut(authURL, "?")
	if !ok {
		return authURL
	}
	// url.Values escapes a literal '+' as %2B, so every '+' left is a space.
	return base + "?" + strings.ReplaceAll(query, "+", "%20")
}

// newState returns a random opaque state token.
func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
