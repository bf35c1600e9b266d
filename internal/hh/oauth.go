package hh

import (
	"golang.org/x/oauth2"
)

// OAuth endpoints of hh.ru. The authorize endpoint lives on the main site,
// the token endpoint on the API host.
const (
	AuthURL  = "https://hh.ru/oauth/authorize"
	TokenURL = "https://api.hh.ru/token"
)

// Endpoint is the oauth2 endpoint description for hh.ru.
var Endpoint = oauth2.Endpoint{
	AuthURL:   AuthURL,
	TokenURL:  TokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// NewOAuthConfig builds the oauth2 config for the single statically registered
// hh.ru application. redirectURL must be the exact URI registered with the
// application; hh.ru rejects any other value at both authorize and token time.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     Endpoint,
		RedirectURL:  redirectURL,
	}
}
