package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// Endpoint paths consumed on the auth backend.
const (
	pathLogin       = "/auth/login"
	pathRegister    = "/auth/register"
	pathVerifyOTP   = "/auth/verify-otp"
	pathVerifyEmail = "/auth/verify-email"
	pathMe          = "/auth/me"
	pathToken       = "/auth/token"
)

// Client is the stateless REST client for the auth backend. It normalizes
// non-2xx responses into rich errors and knows nothing about session state.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     Logger
	deviceID   string
	userAgent  string
}

// ClientOption customizes Client construction.
type ClientOption func(*Client)

// WithHTTPClient overrides the transport, mostly for tests.
func WithHTTPClient(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// WithClientLogger overrides the logger.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDeviceID attaches an installation identifier sent as X-Device-ID on
// every request. See EnsureDeviceID.
func WithDeviceID(id string) ClientOption {
	return func(c *Client) {
		c.deviceID = id
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a Client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     defLogger{},
		userAgent:  "go-auth-client",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// LoginResponse echoes the email the OTP was sent to. Login does not
// authenticate; it precedes the OTP step.
type LoginResponse struct {
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

// RegisterResponse echoes the registered email.
type RegisterResponse struct {
	Email string `json:"email"`
}

// VerifyOTPResponse carries the credentials minted on a successful login
// OTP confirmation.
type VerifyOTPResponse struct {
	AccessToken string       `json:"access_token"`
	User        *UserProfile `json:"user"`
}

// TokenResponse carries the token minted by the OAuth code exchange.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login posts first-factor credentials. A 2xx response means an OTP was
// dispatched, nothing more.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	out := &LoginResponse{}
	payload := LoginPayload{Email: email, Password: password}
	if err := c.postJSON(ctx, pathLogin, payload, out); err != nil {
		return nil, err
	}
	if out.Email == "" {
		return nil, newParseError(nil, "login response missing email")
	}
	return out, nil
}

// Register creates an account with the client's default role. Like Login it
// only dispatches an OTP; the account is confirmed via VerifyEmail.
func (c *Client) Register(ctx context.Context, email, password, name string) (*RegisterResponse, error) {
	out := &RegisterResponse{}
	payload := RegisterPayload{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     DefaultRegistrationRole,
	}
	if err := c.postJSON(ctx, pathRegister, payload, out); err != nil {
		return nil, err
	}
	return out, nil
}

// VerifyOTP confirms a login OTP. The response must carry both token and
// user; anything else is a parse failure.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*VerifyOTPResponse, error) {
	out := &VerifyOTPResponse{}
	payload := OTPPayload{Email: email, Code: code}
	if err := c.postJSON(ctx, pathVerifyOTP, payload, out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" || out.User == nil {
		return nil, newParseError(nil, "verify-otp response missing access token or user")
	}
	return out, nil
}

// VerifyEmail confirms a registration OTP. A 2xx response is success; the
// body is ignored and no credentials are minted.
func (c *Client) VerifyEmail(ctx context.Context, email, code string) error {
	payload := OTPPayload{Email: email, Code: code}
	return c.postJSON(ctx, pathVerifyEmail, payload, nil)
}

// Me fetches the authenticated profile. It returns the canonical projection
// plus the raw payload, which may carry extra read-only fields.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserProfile, map[string]any, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathMe, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(req)
	if err != nil {
		return nil, nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, newParseError(err, "failed to decode profile response")
	}

	profile := &UserProfile{}
	if err := json.Unmarshal(body, profile); err != nil {
		return nil, nil, newParseError(err, "failed to decode profile response")
	}
	if profile.UserID == "" {
		return nil, nil, newParseError(nil, "profile response missing userId")
	}

	return profile, raw, nil
}

// ExchangeToken trades an OAuth authorization code for an access token.
// Form-encoded per the backend contract; codeVerifier is the PKCE secret
// and may be empty for flows without PKCE.
func (c *Client) ExchangeToken(ctx context.Context, code, codeVerifier, platform string) (*TokenResponse, error) {
	if platform == "" {
		platform = DefaultPlatform
	}

	data := url.Values{
		"code":     {code},
		"platform": {platform},
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	req, err := c.newRequest(ctx, http.MethodPost, pathToken, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	out := &TokenResponse{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, newParseError(err, "failed to decode token response")
	}
	if out.AccessToken == "" {
		return nil, newParseError(nil, "token response missing access token")
	}

	return out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.deviceID != "" {
		req.Header.Set("X-Device-ID", c.deviceID)
	}

	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return newParseError(err, "failed to encode request body")
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return newParseError(err, "failed to decode response body")
	}

	return nil
}

// do issues the request, classifies transport failures, and normalizes
// non-2xx responses into server errors. On success it returns the body.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isNetworkFailure(err) {
			return nil, newNetworkError(err)
		}
		return nil, errors.Wrap(err, errors.CategoryOperation, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newParseError(err, "failed to read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := serverErrorDetail(body)
		c.logger.Debug("request failed: %s %s status=%d detail=%q", req.Method, req.URL.Path, resp.StatusCode, detail)
		return nil, newServerError(resp.StatusCode, detail)
	}

	return body, nil
}

type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// serverErrorDetail pulls the human-readable detail out of an error body,
// tolerating the handful of shapes the backend produces.
func serverErrorDetail(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	switch {
	case parsed.Detail != "":
		return parsed.Detail
	case parsed.Message != "":
		return parsed.Message
	case parsed.Error != "":
		return parsed.Error
	}

	return ""
}
