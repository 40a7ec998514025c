// Package azure talks to the Azure Resource Manager APIs that feed the cost
// report: Cost Management, Activity Log, Consumption budgets, and the
// network/compute inventory used by hygiene analysis. Everything goes over
// raw ARM REST with bearer-token auth.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultARMBase = "https://management.azure.com"

// Credentials holds the service-principal credentials for ARM access.
// ClientID/ClientSecret/TenantID may be empty, in which case the client
// falls back to the Instance Metadata Service managed identity.
type Credentials struct {
	SubscriptionID string
	TenantID       string
	ClientID       string
	ClientSecret   string

	// ManagementEndpoint and LoginEndpoint override the public-cloud ARM
	// and Azure AD endpoints, for sovereign clouds or a local mock. Empty
	// means the public-cloud defaults.
	ManagementEndpoint string
	LoginEndpoint      string
}

// Client is an authenticated ARM REST client shared by the cost, activity,
// budget, and inventory fetchers.
type Client struct {
	creds      Credentials
	armBase    string
	loginBase  string
	imdsBase   string
	httpClient *http.Client

	tokenMu     sync.Mutex
	bearerToken string
	tokenExpiry time.Time
}

// imdsTokenResponse is the response from the Azure Instance Metadata Service token endpoint.
type imdsTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
	ExpiresOn   string `json:"expires_on"`
	Resource    string `json:"resource"`
	TokenType   string `json:"token_type"`
}

// servicePrincipalTokenResponse is the response from Azure AD token endpoint.
type servicePrincipalTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
	ExpiresOn   string `json:"expires_on"`
	TokenType   string `json:"token_type"`
}

// NewClient builds an ARM client. Only the subscription ID is mandatory.
func NewClient(creds Credentials) (*Client, error) {
	if creds.SubscriptionID == "" {
		return nil, fmt.Errorf("azure subscription ID is required")
	}
	armBase := defaultARMBase
	if creds.ManagementEndpoint != "" {
		armBase = strings.TrimRight(creds.ManagementEndpoint, "/")
	}
	loginBase := "https://login.microsoftonline.com"
	if creds.LoginEndpoint != "" {
		loginBase = strings.TrimRight(creds.LoginEndpoint, "/")
	}
	return &Client{
		creds:     creds,
		armBase:   armBase,
		loginBase: loginBase,
		imdsBase:  "http://169.254.169.254",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// getToken returns a valid bearer token, refreshing if needed.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	// Return cached token if still valid.
	if c.bearerToken != "" && time.Now().Before(c.tokenExpiry.Add(-2*time.Minute)) {
		return c.bearerToken, nil
	}

	if c.creds.ClientID != "" && c.creds.ClientSecret != "" && c.creds.TenantID != "" {
		token, expiry, err := c.getServicePrincipalToken(ctx)
		if err == nil {
			c.bearerToken = token
			c.tokenExpiry = expiry
			return token, nil
		}
		// Fall through to IMDS if service principal fails.
	}

	token, expiry, err := c.getIMDSToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to acquire Azure token: %w (configure service-principal credentials or ensure managed identity is available)", err)
	}

	c.bearerToken = token
	c.tokenExpiry = expiry
	return token, nil
}

// getIMDSToken gets a token from the Azure Instance Metadata Service.
func (c *Client) getIMDSToken(ctx context.Context) (string, time.Time, error) {
	params := url.Values{
		"api-version": {"2018-02-01"},
		"resource":    {"https://management.azure.com/"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.imdsBase+"/metadata/identity/oauth2/token?"+params.Encode(), nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("creating IMDS request: %w", err)
	}
	req.Header.Set("Metadata", "true")

	// IMDS is a local endpoint; 10s allows for slow responses in some environments.
	imdsClient := &http.Client{Timeout: 10 * time.Second}
	resp, err := imdsClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("IMDS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("IMDS returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp imdsTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", time.Time{}, fmt.Errorf("decoding IMDS token response: %w", err)
	}

	expiry := time.Now().Add(1 * time.Hour) // default expiry
	if tokenResp.ExpiresOn != "" {
		if expiresOnSec, err := strconv.ParseInt(tokenResp.ExpiresOn, 10, 64); err == nil {
			expiry = time.Unix(expiresOnSec, 0)
		} else if t, err := time.Parse("2006-01-02 15:04:05 -0700", tokenResp.ExpiresOn); err == nil {
			expiry = t
		}
	}

	return tokenResp.AccessToken, expiry, nil
}

// getServicePrincipalToken gets a token via the client credentials flow.
func (c *Client) getServicePrincipalToken(ctx context.Context) (string, time.Time, error) {
	tokenURL := fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.loginBase, c.creds.TenantID)

	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
		"scope":         {"https://management.azure.com/.default"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", time.Time{}, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp servicePrincipalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", time.Time{}, fmt.Errorf("decoding token response: %w", err)
	}

	expiry := time.Now().Add(1 * time.Hour) // default
	if tokenResp.ExpiresIn != "" {
		var expiresInSec int64
		if _, err := fmt.Sscanf(tokenResp.ExpiresIn, "%d", &expiresInSec); err == nil {
			expiry = time.Now().Add(time.Duration(expiresInSec) * time.Second)
		}
	}

	return tokenResp.AccessToken, expiry, nil
}

// doARMRequest performs an authenticated request to the Azure Resource Manager API.
// It handles 401 (token refresh), 429, and 503 with exponential backoff (max 3 retries).
func (c *Client) doARMRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Response, error) {
	const maxRetries = 3

	// Buffer the body so it can be replayed on retries.
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
	}

	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("creating ARM request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return nil, fmt.Errorf("ARM request failed after %d retries: %w", maxRetries, err)
			}
			c.armBackoff(ctx, attempt, nil)
			continue
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized:
			resp.Body.Close()
			// Token might have expired; clear it and retry.
			c.tokenMu.Lock()
			c.bearerToken = ""
			c.tokenExpiry = time.Time{}
			c.tokenMu.Unlock()

			token, err = c.getToken(ctx)
			if err != nil {
				return nil, err
			}
			continue

		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			if attempt == maxRetries {
				return resp, nil
			}
			resp.Body.Close()
			c.armBackoff(ctx, attempt, resp)
			continue

		default:
			return resp, nil
		}
	}

	return nil, fmt.Errorf("ARM request failed: exhausted retries")
}

// armBackoff sleeps with exponential backoff, respecting Retry-After if present.
func (c *Client) armBackoff(ctx context.Context, attempt int, resp *http.Response) {
	delay := time.Duration(1<<uint(attempt)) * time.Second // 1s, 2s, 4s

	if resp != nil {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
				delay = time.Duration(secs) * time.Second
			}
		}
	}

	select {
	case <-time.After(delay):
	case <-ctx.Done():
	}
}

// getJSON issues a GET against an ARM path and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, reqURL string, out any) error {
	resp, err := c.doARMRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ARM returned status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
