package auth

import (
	"os/exec"
	"runtime"
)

// BrowserNavigator executes navigation intents by opening the system
// browser.
type BrowserNavigator struct{}

var _ Navigator = BrowserNavigator{}

func (BrowserNavigator) Navigate(intent NavigationIntent) error {
	return OpenBrowser(intent.URL)
}

// OpenBrowser opens a URL in the default browser.
func OpenBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
