// Package github talks to GitHub for the two things the system needs from
// it: device-flow authorization (client side) and bearer-token identity
// lookup (server side). GitHub is the sole identity source.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultDeviceCodeURL  = "https://github.com/login/device/code"
	defaultAccessTokenURL = "https://github.com/login/oauth/access_token"
	defaultAPIBaseURL     = "https://api.github.com"
)

// Client is a minimal GitHub API client.
type Client struct {
	DeviceCodeURL  string
	AccessTokenURL string
	APIBaseURL     string
	HTTPClient     *http.Client
}

// NewClient returns a client against the public GitHub endpoints.
func NewClient() *Client {
	return &Client{
		DeviceCodeURL:  defaultDeviceCodeURL,
		AccessTokenURL: defaultAccessTokenURL,
		APIBaseURL:     defaultAPIBaseURL,
		HTTPClient:     &http.Client{Timeout: 30 * time.Second},
	}
}

// DeviceCode is the response to a device authorization request.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// RequestDeviceCode starts the device flow for the given OAuth app.
func (c *Client) RequestDeviceCode(ctx context.Context, clientID string, scopes []string) (*DeviceCode, error) {
	form := url.Values{
		"client_id": {clientID},
		"scope":     {strings.Join(scopes, " ")},
	}

	body, err := c.postForm(ctx, c.DeviceCodeURL, form)
	if err != nil {
		return nil, fmt.Errorf("error requesting device code: %w", err)
	}

	var code DeviceCode
	if err := json.Unmarshal(body, &code); err != nil {
		return nil, fmt.Errorf("error parsing device code response: %w", err)
	}
	if code.DeviceCode == "" || code.UserCode == "" || code.VerificationURI == "" {
		return nil, fmt.Errorf("device code response missing required fields")
	}
	if code.Interval <= 0 {
		code.Interval = 5
	}
	return &code, nil
}

// PollAccessToken polls the token endpoint until the user authorizes the
// device, the code expires, or ctx is canceled. onPending is called once
// per pending poll so the CLI can show progress.
func (c *Client) PollAccessToken(ctx context.Context, clientID string, code *DeviceCode, onPending func()) (string, error) {
	interval := time.Duration(code.Interval) * time.Second
	deadline := time.Now().Add(time.Duration(code.ExpiresIn) * time.Second)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
		if code.ExpiresIn > 0 && time.Now().After(deadline) {
			return "", fmt.Errorf("device code expired before authorization")
		}

		form := url.Values{
			"client_id":   {clientID},
			"device_code": {code.DeviceCode},
			"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		}
		body, err := c.postForm(ctx, c.AccessTokenURL, form)
		if err != nil {
			// Transient; keep polling until the code expires.
			continue
		}

		var resp struct {
			AccessToken string `json:"access_token"`
			Error       string `json:"error"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			continue
		}

		switch {
		case resp.AccessToken != "":
			return resp.AccessToken, nil
		case resp.Error == "authorization_pending":
			if onPending != nil {
				onPending()
			}
		case resp.Error == "slow_down":
			interval += 5 * time.Second
		case resp.Error == "expired_token":
			return "", fmt.Errorf("device code expired before authorization")
		case resp.Error == "access_denied":
			return "", fmt.Errorf("authorization denied by user")
		}
	}
}

// User resolves a bearer token to the GitHub username it belongs to.
func (c *Client) User(ctx context.Context, token string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/user", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error querying github user: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading github user response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github returned status %d: %s", resp.StatusCode, string(body))
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("error parsing github user response: %w", err)
	}
	if user.Login == "" {
		return "", fmt.Errorf("github user response has no login")
	}
	return user.Login, nil
}

func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned non-200 status code: %d. Body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
