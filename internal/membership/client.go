package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const clientRequestTimeout = 10 * time.Second

// Client resolves membership over the tier query endpoint on behalf of a
// consuming application, caching results per the client's class. It depends on
// the resolution components through their network contract only.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *Cache
}

// NewClient builds a Client for the service at baseURL. The supplied
// http.Client must carry the credential cookie (cookie jar or transport);
// when nil a default client is used.
func NewClient(baseURL string, class ClientClass, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: clientRequestTimeout}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
	c.cache = NewCache(c.fetch, CacheTTL(class))
	return c
}

// Resolution returns the current membership resolution, served from cache
// when fresh. Pass force after state-changing events such as activation or
// logout.
func (c *Client) Resolution(ctx context.Context, force bool) (Resolution, error) {
	return c.cache.Get(ctx, force)
}

// Invalidate drops the cached resolution.
func (c *Client) Invalidate() {
	c.cache.Invalidate()
}

func (c *Client) fetch(ctx context.Context) (Resolution, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/membership", nil)
	if err != nil {
		return Resolution{}, fmt.Errorf("membership: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Resolution{}, fmt.Errorf("membership: query: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return Resolution{}, fmt.Errorf("membership: query status %d", resp.StatusCode)
	}
	var res Resolution
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Resolution{}, fmt.Errorf("membership: decode response: %w", err)
	}
	return res, nil
}
