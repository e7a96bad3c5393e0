package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(srv *httptest.Server) *Client {
	return &Client{
		DeviceCodeURL:  srv.URL + "/login/device/code",
		AccessTokenURL: srv.URL + "/login/oauth/access_token",
		APIBaseURL:     srv.URL,
		HTTPClient:     srv.Client(),
	}
}

func TestRequestDeviceCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/device/code", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Iv1.abc123", r.Form.Get("client_id"))
		assert.Equal(t, "read:user read:org", r.Form.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"device_code":      "dev-code",
			"user_code":        "ABCD-1234",
			"verification_uri": "https://github.com/login/device",
			"expires_in":       900,
			"interval":         0,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	code, err := testClient(srv).RequestDeviceCode(context.Background(), "Iv1.abc123", []string{"read:user", "read:org"})
	require.NoError(t, err)
	assert.Equal(t, "dev-code", code.DeviceCode)
	assert.Equal(t, "ABCD-1234", code.UserCode)
	assert.Equal(t, 5, code.Interval, "zero interval falls back to the documented default")
}

func TestRequestDeviceCodeIncomplete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/device/code", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"device_code": "dev-code"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := testClient(srv).RequestDeviceCode(context.Background(), "Iv1.abc123", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestPollAccessToken(t *testing.T) {
	var polls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:device_code", r.Form.Get("grant_type"))
		assert.Equal(t, "dev-code", r.Form.Get("device_code"))

		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"error": "authorization_pending"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token": "gho_secret"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var pending atomic.Int32
	code := &DeviceCode{DeviceCode: "dev-code", ExpiresIn: 900, Interval: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := testClient(srv).PollAccessToken(ctx, "Iv1.abc123", code, func() {
		pending.Add(1)
	})
	require.NoError(t, err)
	assert.Equal(t, "gho_secret", token)
	assert.Equal(t, int32(2), pending.Load())
}

func TestPollAccessTokenDenied(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": "access_denied"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	code := &DeviceCode{DeviceCode: "dev-code", ExpiresIn: 900, Interval: 1}
	_, err := testClient(srv).PollAccessToken(context.Background(), "Iv1.abc123", code, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestPollAccessTokenCancellation(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := &DeviceCode{DeviceCode: "dev-code", ExpiresIn: 900, Interval: 1}
	_, err := testClient(srv).PollAccessToken(ctx, "Iv1.abc123", code, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer gho_secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message": "Bad credentials"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login": "octocat", "id": 1}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(srv)

	login, err := c.User(context.Background(), "gho_secret")
	require.NoError(t, err)
	assert.Equal(t, "octocat", login)

	_, err = c.User(context.Background(), "gho_wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	// Resolver is a thin adapter over the same lookup.
	r := &Resolver{Client: c}
	identity, err := r.Resolve(context.Background(), "gho_secret")
	require.NoError(t, err)
	assert.Equal(t, "octocat", identity)
}
