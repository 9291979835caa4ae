// Package callback drives the post-login redirect: it parses the provider's
// response fragment, accepts the credential, syncs profile and organization
// context, and decides where the user lands.
package callback

import (
	"net/url"
	"strings"
)

// verifyEmailPrefix is the error convention minted by a provider rule for
// unverified accounts. The user id follows the prefix so a new verification
// email can be requested.
const verifyEmailPrefix = "Please verify your email before logging in: "

// Fragment holds the fields delivered in the redirect URL fragment.
type Fragment struct {
	AccessToken      string
	State            string
	ErrorDescription string
}

// ParseFragment decodes a URL fragment of &-delimited, url-encoded key=value
// pairs. A leading "#" is accepted and ignored.
func ParseFragment(raw string) Fragment {
	raw = strings.TrimPrefix(raw, "#")
	values, err := url.ParseQuery(raw)
	if err != nil {
		return Fragment{}
	}
	return Fragment{
		AccessToken:      values.Get("access_token"),
		State:            values.Get("state"),
		ErrorDescription: values.Get("error_description"),
	}
}

// verificationUserID extracts the user id from an email-verification error
// description. Returns false when the description does not follow the
// convention or carries no id.
func verificationUserID(description string) (string, bool) {
	if !strings.HasPrefix(description, verifyEmailPrefix) {
		return "", false
	}
	userID := strings.TrimSpace(strings.TrimPrefix(description, verifyEmailPrefix))
	if userID == "" {
		return "", false
	}
	return userID, true
}
