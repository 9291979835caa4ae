package callback

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// relayPage is served at the callback path. The provider delivers the
// credential in the URL fragment, which never reaches the server, so the
// page re-posts location.hash to the capture endpoint.
const relayPage = `<!DOCTYPE html>
<html>
<head><title>TransitNet sign-in</title></head>
<body>
<p id="msg">Completing sign-in...</p>
<script>
fetch(window.location.pathname + "/capture", {
  method: "POST",
  headers: {"Content-Type": "text/plain"},
  body: window.location.hash
}).then(function () {
  document.getElementById("msg").textContent =
    "Signed in. You can close this tab and return to the terminal.";
}).catch(function () {
  document.getElementById("msg").textContent =
    "Could not hand the credential to the CLI. Is it still running?";
});
</script>
</body>
</html>`

// Relay is a short-lived local HTTP server that receives the provider
// redirect and hands the URL fragment back to the CLI.
type Relay struct {
	server    *http.Server
	listener  net.Listener
	path      string
	fragments chan string
}

// NewRelay creates a relay for the configured callback URL. The URL's host
// and port decide where to listen; its path is the page the provider
// redirects to.
func NewRelay(callbackURL string) (*Relay, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return nil, fmt.Errorf("parsing callback URL: %w", err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return nil, fmt.Errorf("callback URL %q is not a local http URL", callbackURL)
	}
	// The capture endpoint hangs off the callback path, so the root path
	// cannot host the relay page.
	if u.Path == "" || u.Path == "/" {
		return nil, fmt.Errorf("callback URL %q needs a path, like /auth0-callback", callbackURL)
	}

	r := &Relay{
		path:      u.Path,
		fragments: make(chan string, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(r.path, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, relayPage)
	})
	mux.HandleFunc(r.path+"/capture", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(req.Body, 64<<10))
		if err != nil {
			http.Error(w, "read failed", http.StatusBadRequest)
			return
		}
		select {
		case r.fragments <- string(body):
		default:
			// A fragment is already queued; later deliveries are dropped.
		}
		w.WriteHeader(http.StatusNoContent)
	})

	listener, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", u.Host, err)
	}
	r.listener = listener
	r.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return r, nil
}

// Start serves in the background until Shutdown. If the server dies early,
// Wait surfaces it as a timeout.
func (r *Relay) Start() {
	go func() {
		_ = r.server.Serve(r.listener)
	}()
}

// Addr returns the listen address.
func (r *Relay) Addr() string {
	return r.listener.Addr().String()
}

// Wait blocks until a fragment is captured or the context ends.
func (r *Relay) Wait(ctx context.Context) (Fragment, error) {
	select {
	case raw := <-r.fragments:
		return ParseFragment(raw), nil
	case <-ctx.Done():
		return Fragment{}, ctx.Err()
	}
}

// Shutdown stops the server.
func (r *Relay) Shutdown(ctx context.Context) error {
	return r.server.Shutdown(ctx)
}
