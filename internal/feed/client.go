// Package feed fetches raw lead batches and recording payloads from the
// listing platform APIs.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/VortexWeb-Dev/vserve-bayut-dubizzle-leads/internal/model"
)

// Client defines the platform feed operations used by the pipeline.
type Client interface {
	// FetchLeads retrieves one (platform, type) batch filtered server-side by
	// the since watermark. Each returned lead is stamped with the platform
	// and type tags.
	FetchLeads(ctx context.Context, platform model.Platform, leadType model.LeadType, since string) ([]model.RawLead, error)

	// FetchBinary downloads a binary payload (call recording) from the given URL.
	FetchBinary(ctx context.Context, rawURL string) ([]byte, error)
}

// Config holds feed client settings.
type Config struct {
	AuthToken string
	BaseURLs  map[model.Platform]string
	Timeout   time.Duration
	// RatePerSec limits lead-batch requests per platform; zero disables limiting.
	RatePerSec float64
}

// Option configures the feed client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	cfg      Config
	http     *http.Client
	limiters map[model.Platform]*rate.Limiter
}

// NewClient creates a feed client for the configured platforms.
func NewClient(cfg Config, opts ...Option) Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	c := &httpClient{
		cfg:      cfg,
		http:     &http.Client{Timeout: timeout},
		limiters: make(map[model.Platform]*rate.Limiter, len(cfg.BaseURLs)),
	}
	if cfg.RatePerSec > 0 {
		for platform := range cfg.BaseURLs {
			c.limiters[platform] = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(int(cfg.RatePerSec), 1))
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) wait(ctx context.Context, platform model.Platform) error {
	limiter, ok := c.limiters[platform]
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

func (c *httpClient) FetchLeads(ctx context.Context, platform model.Platform, leadType model.LeadType, since string) ([]model.RawLead, error) {
	base, ok := c.cfg.BaseURLs[platform]
	if !ok {
		return nil, eris.Errorf("feed: no base URL configured for platform %s", platform)
	}
	if err := c.wait(ctx, platform); err != nil {
		return nil, eris.Wrap(err, "feed: rate limit")
	}

	reqURL := fmt.Sprintf("%s/api-v7/stats/website-client-leads?type=%s&timestamp=%s",
		base, url.QueryEscape(string(leadType)), url.QueryEscape(since))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "feed: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: %s %s request failed", platform, leadType)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "feed: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("feed: %s %s: unexpected status %d: %s", platform, leadType, resp.StatusCode, string(body))
	}

	// An empty body is a valid empty batch.
	if len(body) == 0 {
		return nil, nil
	}

	var leads []model.RawLead
	if err := json.Unmarshal(body, &leads); err != nil {
		return nil, eris.Wrapf(err, "feed: unmarshal %s %s batch", platform, leadType)
	}

	for i := range leads {
		leads[i].Platform = platform
		leads[i].Type = leadType
	}
	return leads, nil
}

func (c *httpClient) FetchBinary(ctx context.Context, rawURL string) ([]byte, error) {
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, eris.Wrapf(err, "feed: invalid url %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "feed: create download request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: download %s", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("feed: download %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: read download %s", rawURL)
	}
	return content, nil
}
