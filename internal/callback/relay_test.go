package callback

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRelay(t *testing.T) *Relay {
	t.Helper()
	r, err := NewRelay("http://127.0.0.1:0/callback")
	require.NoError(t, err)
	r.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})
	return r
}

func TestRelayServesPage(t *testing.T) {
	r := startRelay(t)

	resp, err := http.Get("http://" + r.Addr() + "/callback")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestRelayCapturesFragment(t *testing.T) {
	r := startRelay(t)

	resp, err := http.Post("http://"+r.Addr()+"/callback/capture", "text/plain",
		strings.NewReader("#access_token=tok&state=%2Fdashboard"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	frag, err := r.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", frag.AccessToken)
	assert.Equal(t, "/dashboard", frag.State)
}

func TestRelayWaitHonorsContext(t *testing.T) {
	r := startRelay(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRelayCaptureRejectsGet(t *testing.T) {
	r := startRelay(t)

	resp, err := http.Get("http://" + r.Addr() + "/callback/capture")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRelayRejectsNonLocalURL(t *testing.T) {
	_, err := NewRelay("https://example.com/callback")
	assert.Error(t, err)
}

func TestRelayRejectsPathlessURL(t *testing.T) {
	for _, raw := range []string{"http://127.0.0.1:8123", "http://127.0.0.1:8123/"} {
		_, err := NewRelay(raw)
		assert.Error(t, err, raw)
	}
}
