package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLogin(t *testing.T) {
	var gotBody map[string]string
	var gotDevice string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotDevice = r.Header.Get("X-Device-ID")

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"email":   gotBody["email"],
			"message": "OTP sent",
		})
	}))
	defer srv.Close()

	client := authclient.NewClient(srv.URL, authclient.WithDeviceID("device-123"))

	resp, err := client.Login(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", resp.Email)
	assert.Equal(t, "OTP sent", resp.Message)
	assert.Equal(t, "a@x.com", gotBody["email"])
	assert.Equal(t, "pw", gotBody["password"])
	assert.Equal(t, "device-123", gotDevice)
}

func TestClientLoginServerError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{
			name:       "detail field",
			status:     http.StatusUnauthorized,
			body:       `{"detail":"bad credentials"}`,
			wantDetail: "bad credentials",
		},
		{
			name:       "message field",
			status:     http.StatusBadRequest,
			body:       `{"message":"missing email"}`,
			wantDetail: "missing email",
		},
		{
			name:       "unparseable body falls back to status",
			status:     http.StatusBadGateway,
			body:       `<html>oops</html>`,
			wantDetail: "Server error: 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := authclient.NewClient(srv.URL)

			_, err := client.Login(context.Background(), "a@x.com", "pw")
			require.Error(t, err)

			assert.True(t, authclient.IsServerError(err))
			assert.Equal(t, tt.status, authclient.ServerStatus(err))
			assert.Contains(t, err.Error(), tt.wantDetail)
		})
	}
}

func TestClientNetworkErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := authclient.NewClient(url)

	_, err := client.Login(context.Background(), "a@x.com", "pw")
	require.Error(t, err)
	assert.True(t, authclient.IsNetworkError(err))
	assert.False(t, authclient.IsServerError(err))
}

func TestClientRegisterSendsDefaultRole(t *testing.T) {
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/register", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"email": gotBody["email"]})
	}))
	defer srv.Close()

	client := authclient.NewClient(srv.URL)

	resp, err := client.Register(context.Background(), "new@x.com", "pw123456", "New User")
	require.NoError(t, err)

	assert.Equal(t, "new@x.com", resp.Email)
	assert.Equal(t, authclient.DefaultRegistrationRole, gotBody["role"])
	assert.Equal(t, "New User", gotBody["name"])
}

func TestClientVerifyOTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/verify-otp", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "123456", body["otp_code"])

		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok1",
			"user": map[string]string{
				"userId": "u1",
				"email":  "a@x.com",
				"role":   "customer",
			},
		})
	}))
	defer srv.Close()

	client := authclient.NewClient(srv.URL)

	resp, err := client.VerifyOTP(context.Background(), "a@x.com", "123456")
	require.NoError(t, err)

	assert.Equal(t, "tok1", resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "u1", resp.User.UserID)
	assert.Equal(t, authclient.RoleCustomer, resp.User.Role)
}

func TestClientVerifyOTPMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"user": map[string]string{"userId": "u1"}})
	}))
	defer srv.Close()

	client := authclient.NewClient(srv.URL)

	_, err := client.VerifyOTP(context.Background(), "a@x.com", "123456")
	require.Error(t, err)
	assert.True(t, authclient.IsParseError(err))
}

func TestClientMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/auth/me", r.URL.Path)
		require.Equal(t, "Bearer tok1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"userId":    "u1",
			"email":     "a@x.com",
			"role":      "customer",
			"createdAt": "2026-01-15T10:00:00Z",
			"loyalty":   map[string]any{"tier": "gold"},
		})
	}))
	defer srv.Close()

	client := authclient.NewClient(srv.URL)

	profile, raw, err := client.Me(context.Background(), "tok1")
	require.NoError(t, err)

	assert.Equal(t, "u1", profile.UserID)
	assert.Equal(t, "a@x.com", profile.Email)
	require.NotNil(t, profile.CreatedAt)

	// The raw payload keeps fields the projection drops.
	assert.Contains(t, raw, "loyalty")
}

func TestClientExchangeToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token", r.URL.Path)
		require.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())

		assert.Equal(t, "code-1", r.PostFormValue("code"))
		assert.Equal(t, "ver-1", r.PostFormValue("code_verifier"))
		assert.Equal(t, authclient.DefaultPlatform, r.PostFormValue("platform"))

		json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-oauth"})
	}))
	defer srv.Close()

	client := authclient.NewClient(srv.URL)

	resp, err := client.ExchangeToken(context.Background(), "code-1", "ver-1", "")
	require.NoError(t, err)
	assert.Equal(t, "tok-oauth", resp.AccessToken)
}
