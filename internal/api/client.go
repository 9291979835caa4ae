package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/transitnet/transitnet-cli/internal/auth"
	"github.com/transitnet/transitnet-cli/internal/config"
	"github.com/transitnet/transitnet-cli/internal/output"
	"github.com/transitnet/transitnet-cli/internal/version"
)

const requestTimeout = 10 * time.Second

// Client performs authenticated requests against the TransitNet API.
//
// Failures are classified by status: 4xx is terminal (the result won't
// change with a second request), while 5xx and network errors get exactly
// one immediate retry. The 5xx retry papers over gateway timeouts racing
// the upstream function timeout.
type Client struct {
	httpClient *http.Client
	cfg        *config.Config
	auth       *auth.Manager
	logger     *slog.Logger

	// bearer, when set, is used instead of resolving a session. Used while
	// a freshly received credential is being synced before it is current.
	bearer string
}

// ErrorHandler inspects a request error and may recover from it by
// returning replacement data. Returning the error unchanged passes it
// through.
type ErrorHandler func(err error) (json.RawMessage, error)

// NewClient creates an API client.
func NewClient(cfg *config.Config, authMgr *auth.Manager, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		cfg:        cfg,
		auth:       authMgr,
		logger:     logger,
	}
}

// WithBearer returns a copy of the client that authenticates with the given
// credential instead of the stored session.
func (c *Client) WithBearer(token string) *Client {
	clone := *c
	clone.bearer = token
	return &clone
}

// Resource binds the client to an API path. Path parameters are applied
// immediately; call-time parameters can fill in the rest.
func (c *Client) Resource(path string, params map[string]string, opts ...Option) *Resource {
	r := &Resource{
		client: c,
		path:   ApplyPathParams(path, params),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Option configures a Resource.
type Option func(*Resource)

// Anonymous makes requests without an Authorization header.
func Anonymous() Option {
	return func(r *Resource) { r.anonymous = true }
}

// WithErrorHandler installs a recovery hook that runs on each failed
// attempt ahead of the retry decision. A handler that recovers a transient
// failure suppresses the retry.
func WithErrorHandler(h ErrorHandler) Option {
	return func(r *Resource) { r.errorHandler = h }
}

// Resource is a client scoped to one API path.
type Resource struct {
	client       *Client
	path         string
	anonymous    bool
	errorHandler ErrorHandler
}

// Get performs a GET request with an optional query.
func (r *Resource) Get(ctx context.Context, query url.Values, params ...map[string]string) (json.RawMessage, error) {
	return r.do(ctx, http.MethodGet, query, nil, params)
}

// Post performs a POST request with a JSON body.
func (r *Resource) Post(ctx context.Context, body any, params ...map[string]string) (json.RawMessage, error) {
	return r.do(ctx, http.MethodPost, nil, body, params)
}

// Patch performs a PATCH request with a JSON body.
func (r *Resource) Patch(ctx context.Context, body any, params ...map[string]string) (json.RawMessage, error) {
	return r.do(ctx, http.MethodPatch, nil, body, params)
}

// Delete performs a DELETE request.
func (r *Resource) Delete(ctx context.Context, params ...map[string]string) (json.RawMessage, error) {
	return r.do(ctx, http.MethodDelete, nil, nil, params)
}

func (r *Resource) do(ctx context.Context, method string, query url.Values, body any, params []map[string]string) (json.RawMessage, error) {
	path := r.path
	for _, p := range params {
		path = ApplyPathParams(path, p)
	}

	token := ""
	if !r.anonymous {
		if r.client.bearer != "" {
			token = r.client.bearer
		} else {
			session, err := r.client.auth.Session(ctx, false)
			if err != nil {
				return nil, err
			}
			token = session.Token
		}
	}

	return r.client.request(ctx, method, path, query, body, token, r.errorHandler)
}

// request executes the call with the client's retry policy: a 4xx response
// fails immediately, while a 5xx or network failure is retried exactly once
// with no delay. The resource's error handler, when present, sees each
// attempt's error first; an error it swallows never reaches the retry
// decision.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body any, token string, handler ErrorHandler) (json.RawMessage, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
	}

	data, err := c.attempt(ctx, method, path, query, bodyBytes, token)
	if err != nil && handler != nil {
		data, err = handler(err)
	}
	if err == nil {
		return data, nil
	}
	if !output.AsError(err).Retryable {
		return nil, err
	}

	c.logger.Debug("retrying after transient failure", "method", method, "path", path, "error", err)
	data, err = c.attempt(ctx, method, path, query, bodyBytes, token)
	if err != nil && handler != nil {
		return handler(err)
	}
	return data, err
}

func (c *Client) attempt(ctx context.Context, method, path string, query url.Values, body []byte, token string) (json.RawMessage, error) {
	u := config.NormalizeBaseURL(c.cfg.APIBase) + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request", "method", method, "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, output.ErrNetwork(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, output.ErrNetwork(err)
	}

	c.logger.Debug("api response", "method", method, "url", u, "status", resp.StatusCode)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, classifyError(resp.StatusCode, respBody, false)
	default:
		return nil, classifyError(resp.StatusCode, respBody, true)
	}
}

// apiErrorDetail is one structured error in a failure response body.
type apiErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classifyError builds a client or transient error from a failure response.
// The body's `error` field may be an array of structured errors (the first
// wins) or a single structured error; anything else falls back to a status
// message.
func classifyError(status int, body []byte, transient bool) *output.Error {
	msg := fmt.Sprintf("Request failed (HTTP %d)", status)

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Error) > 0 {
		var details []apiErrorDetail
		if json.Unmarshal(envelope.Error, &details) == nil && len(details) > 0 && details[0].Message != "" {
			msg = details[0].Message
		} else {
			var detail apiErrorDetail
			if json.Unmarshal(envelope.Error, &detail) == nil && detail.Message != "" {
				msg = detail.Message
			}
		}
	}

	if transient {
		return output.ErrTransient(status, msg)
	}
	return output.ErrClient(status, msg)
}
