// Package shopify is a thin client over the Shopify Admin REST and
// Storefront GraphQL APIs, limited to what the giveaway pipeline needs.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type Options struct {
	// BaseURL overrides the https://{StoreDomain} default, used in tests.
	BaseURL         string
	StoreDomain     string
	AccessToken     string
	StorefrontToken string
	APIVersion      string
	Timeout         time.Duration
	// Admin API requests per second. Shopify throttles standard shops at 2/s.
	RateLimit float64
}

type Client struct {
	baseURL         string
	accessToken     string
	storefrontToken string
	apiVersion      string
	timeout         time.Duration
	http            *http.Client
	limiter         *rate.Limiter
}

func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://" + opts.StoreDomain
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := opts.RateLimit
	if rps <= 0 {
		rps = 2
	}
	apiVersion := opts.APIVersion
	if apiVersion == "" {
		apiVersion = "2024-10"
	}
	return &Client{
		baseURL:         baseURL,
		accessToken:     opts.AccessToken,
		storefrontToken: opts.StorefrontToken,
		apiVersion:      apiVersion,
		timeout:         timeout,
		http:            &http.Client{Timeout: timeout},
		limiter:         rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// adminGet performs a rate-limited Admin REST call and decodes the body into out.
// Each call carries its own timeout so one slow upstream call cannot stall the
// whole webhook.
func (c *Client) adminGet(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/admin/api/%s/%s", c.baseURL, c.apiVersion, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("admin API %s: %s (%s)", path, resp.Status, bytes.TrimSpace(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// storefrontQuery performs a Storefront GraphQL call and decodes data into out.
func (c *Client) storefrontQuery(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/api/%s/graphql.json", c.baseURL, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Storefront-Access-Token", c.storefrontToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storefront API: %s", resp.Status)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("storefront API: %s", envelope.Errors[0].Message)
	}
	return json.Unmarshal(envelope.Data, out)
}

func gid(kind string, id int64) string {
	return fmt.Sprintf("gid://shopify/%s/%d", kind, id)
}
