package auth

import (
	"net/url"

	"github.com/transitnet/transitnet-cli/internal/config"
)

// NavigationIntent is a full-page redirect the core logic wants executed.
// The core never navigates itself; a Navigator at the boundary does, which
// keeps redirect construction pure and testable.
type NavigationIntent struct {
	URL string
}

// Navigator executes a navigation intent. For this CLI that means opening a
// browser or printing the URL; in either case the originating call does not
// get a result back.
type Navigator interface {
	Navigate(intent NavigationIntent) error
}

// RedirectBuilder constructs identity-provider redirect URLs from static
// configuration.
type RedirectBuilder struct {
	cfg *config.Config
}

// NewRedirectBuilder creates a builder over the given configuration.
func NewRedirectBuilder(cfg *config.Config) *RedirectBuilder {
	return &RedirectBuilder{cfg: cfg}
}

// SignIn builds the authorization redirect. returnTo is threaded through the
// round-trip as the state parameter and becomes the post-login navigation
// target when it is a trusted path. startWithRegistration adds the signup
// hint so the provider opens its registration screen first.
func (b *RedirectBuilder) SignIn(returnTo string, startWithRegistration bool) NavigationIntent {
	q := url.Values{}
	q.Set("response_type", "token")
	q.Set("client_id", b.cfg.ClientID)
	q.Set("redirect_uri", b.cfg.CallbackURL)
	q.Set("scope", "openid profile")
	q.Set("audience", b.cfg.APIBase)
	q.Set("state", returnTo)
	if startWithRegistration {
		q.Set("screen_hint", "signup")
	}

	u := url.URL{
		Scheme:   "https",
		Host:     b.cfg.Domain,
		Path:     "/authorize",
		RawQuery: q.Encode(),
	}
	return NavigationIntent{URL: u.String()}
}

// SignOut builds the provider logout redirect, returning the user to the
// application origin afterward.
func (b *RedirectBuilder) SignOut() NavigationIntent {
	q := url.Values{}
	q.Set("client_id", b.cfg.ClientID)
	q.Set("returnTo", b.cfg.Origin())

	u := url.URL{
		Scheme:   "https",
		Host:     b.cfg.Domain,
		Path:     "/v2/logout",
		RawQuery: q.Encode(),
	}
	return NavigationIntent{URL: u.String()}
}
