package authflow

import "net/url"

// ProviderGoogle tags every user produced by this package.
const ProviderGoogle = "google"

const (
	demoEmail    = "demo@gmail.com"
	demoName     = "Demo User"
	fallbackName = "Demo User (OAuth Fallback)"
)

// AuthenticatedUser is the normalized identity a login attempt resolves to.
type AuthenticatedUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	PictureURL string `json:"picture"`
	Provider   string `json:"provider"`
}

func newSyntheticUser(id, name string) AuthenticatedUser {
	return AuthenticatedUser{
		ID:         id,
		Email:      demoEmail,
		Name:       name,
		PictureURL: avatarURL(demoName),
		Provider:   ProviderGoogle,
	}
}

// avatarURL renders initials for name through the ui-avatars service.
// Both demo and fallback users share the demo avatar.
func avatarURL(name string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name) + "&background=4285f4&color=fff"
}
