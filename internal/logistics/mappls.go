// internal/logistics/mappls.go
package logistics

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	apperrors "wastematch/internal/common/errors"
	httpclient "wastematch/internal/common/http"
)

// tokenRefreshMargin refreshes the OAuth token slightly before its
// stated expiry to avoid racing the provider clock.
const tokenRefreshMargin = 60 * time.Second

// Client talks to the Mappls places API for nearby-facility lookups.
//
// The OAuth token lives in an explicit cache on the client, constructed
// once per process and shared by reference: it refreshes only when
// expired, and never leaks through package-level state.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	baseURL      string
	httpClient   *httpclient.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// TokenResponse holds the response from the Mappls OAuth endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Place is one nearby facility returned by the places API.
type Place struct {
	Name      string  `json:"placeName"`
	Address   string  `json:"placeAddress"`
	Distance  float64 `json:"distance"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ELoc      string  `json:"eLoc"`
}

type nearbyResponse struct {
	SuggestedLocations []Place `json:"suggestedLocations"`
}

func NewClient(clientID, clientSecret, tokenURL, baseURL string, timeout time.Duration) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   httpclient.NewClient(timeout),
	}
}

// getAccessToken fetches a new access token using the client
// credentials flow. It caches the token until expiry.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.tokenExpiry.After(time.Now()) && c.accessToken != "" {
		return c.accessToken, nil
	}

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)

	resp, err := c.httpClient.PostForm(ctx, c.tokenURL, data)
	if err != nil {
		return "", apperrors.NewLogisticsAuthFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", apperrors.NewLogisticsAuthFailedError(
			fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", apperrors.NewLogisticsAuthFailedError(fmt.Errorf("failed to decode token response: %w", err))
	}

	c.accessToken = tokenResp.AccessToken
	expiry := time.Duration(tokenResp.ExpiresIn) * time.Second
	if expiry > tokenRefreshMargin {
		expiry -= tokenRefreshMargin
	}
	c.tokenExpiry = time.Now().Add(expiry)

	return c.accessToken, nil
}

// NearbySearch looks up facilities around a reference location, e.g.
// recycling plants or transport hubs for a deal's pickup planning.
func (c *Client) NearbySearch(ctx context.Context, keywords string, lat, lng float64) ([]Place, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/nearby/json?keywords=%s&refLocation=%f,%f",
		c.baseURL, url.QueryEscape(keywords), lat, lng)

	resp, err := c.httpClient.GetWithAuth(ctx, endpoint, token)
	if err != nil {
		return nil, apperrors.NewLogisticsLookupFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token revoked server-side; drop the cache so the next call
		// re-authenticates.
		c.mu.Lock()
		c.accessToken = ""
		c.tokenExpiry = time.Time{}
		c.mu.Unlock()
		return nil, apperrors.NewLogisticsAuthFailedError(fmt.Errorf("nearby request unauthorized"))
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.NewLogisticsLookupFailedError(
			fmt.Errorf("nearby request failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewLogisticsLookupFailedError(fmt.Errorf("failed to decode nearby response: %w", err))
	}

	return parsed.SuggestedLocations, nil
}
