// Package sync implements the core-facing sync adapter (spec §4.G): it
// pre-encrypts outgoing item titles/payloads, post-decrypts incoming ones,
// and forwards opaque strings to an injected [Transport]. It is grounded in
// original_source/mobile-core/sync.rs's ureq-based SyncClient (cookie
// capture on login, cookie replay on subsequent calls) and in the
// teacher's DBTX-style minimal-surface-interface idiom applied to HTTP.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/noro/vault-core/vaulterrors"
)

// Request is everything a [Transport] needs to perform one call.
type Request struct {
	Method string
	Path   string // path relative to the transport's configured base URL
	Body   any    // marshaled as JSON if non-nil
}

// Response is a transport's raw result: a status code and a decoded JSON
// body (as raw bytes, so callers can unmarshal into the shape they expect).
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport is the injected collaborator an [Adapter] sends requests
// through — the HTTP equivalent of the teacher's DBTX minimal-surface
// interface.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// HTTPTransport is the net/http-backed reference [Transport]. It captures
// the better-auth.session_token cookie on Login and replays it on every
// subsequent call, exactly as original_source's SyncClient does with ureq.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

// NewHTTPTransport builds an HTTPTransport against baseURL, using an
// http.Client with a cookie jar so better-auth.session_token survives
// across calls without the adapter having to manage it directly.
func NewHTTPTransport(baseURL string) (*HTTPTransport, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("sync: build cookie jar: %w", err)
	}

	return &HTTPTransport{
		baseURL: baseURL,
		client:  &http.Client{Jar: jar},
	}, nil
}

// Do performs req against the configured base URL and classifies the
// response: 401 → [vaulterrors.ErrAuth], 409 → [vaulterrors.ErrConflict]
// (carrying the server's reported revision if present), anything else
// non-2xx → [vaulterrors.ErrHTTP].
func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	var bodyReader io.Reader

	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, vaulterrors.Wrap(vaulterrors.KindHTTP, "marshal request body", err)
		}

		bodyReader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.baseURL+req.Path, bodyReader)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindHTTP, "build request", err)
	}

	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindHTTP, "perform request", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, vaulterrors.Wrap(vaulterrors.KindHTTP, "read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, vaulterrors.ErrAuth
	case resp.StatusCode == http.StatusConflict:
		return nil, conflictError(body)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, vaulterrors.New(vaulterrors.KindHTTP, fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func conflictError(body []byte) error {
	var payload struct {
		Revision int `json:"revision"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return vaulterrors.New(vaulterrors.KindConflict, "conflicting revision")
	}

	return vaulterrors.NewConflict(payload.Revision)
}
