package authclient

import (
	"context"
	"io"
	"net/http"

	"github.com/goliatone/go-errors"
)

// FetchWithAuth issues an arbitrary request through the authenticated
// gateway. Caller headers are cloned, never mutated. The bearer header is
// injected only when a token is held; its absence is not an error, the
// request goes out anonymous the way open endpoints expect.
func (m *SessionManager) FetchWithAuth(ctx context.Context, method, url string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "invalid request")
	}
	if header != nil {
		req.Header = header.Clone()
	}

	return m.Do(req)
}

// Do sends a caller-built request with the current bearer token attached.
// A 401 response tears the session down via SignOut before the raw response
// is handed back; surfacing the failure stays the caller's job.
func (m *SessionManager) Do(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if token := m.AccessToken(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := m.api.httpClient.Do(out)
	if err != nil {
		if isNetworkFailure(err) {
			return nil, newNetworkError(err)
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "request failed")
	}

	if resp.StatusCode == http.StatusUnauthorized {
		m.logger.Info("received 401, tearing down session")
		if err := m.SignOut(req.Context()); err != nil {
			m.logger.Error("sign-out after 401 failed: %v", err)
		}
	}

	return resp, nil
}

// Transport returns an http.RoundTripper that routes through the gateway,
// so downstream code can wrap a plain *http.Client:
//
//	client := &http.Client{Transport: manager.Transport(nil)}
//
// A nil base falls back to the manager's transport.
func (m *SessionManager) Transport(base http.RoundTripper) http.RoundTripper {
	return &authTransport{manager: m, base: base}
}

type authTransport struct {
	manager *SessionManager
	base    http.RoundTripper
}

// RoundTrip implements http.RoundTripper. Per the contract it does not
// mutate the caller's request.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if token := t.manager.AccessToken(); token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}

	base := t.base
	if base == nil {
		if doer, ok := t.manager.api.httpClient.(*http.Client); ok && doer.Transport != nil {
			base = doer.Transport
		} else {
			base = http.DefaultTransport
		}
	}

	resp, err := base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		t.manager.logger.Info("received 401, tearing down session")
		if err := t.manager.SignOut(req.Context()); err != nil {
			t.manager.logger.Error("sign-out after 401 failed: %v", err)
		}
	}

	return resp, nil
}
