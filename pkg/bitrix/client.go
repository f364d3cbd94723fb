// Package bitrix provides a REST client for the Bitrix24 webhook API.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Bitrix24 operations used by the lead pipeline.
type Client interface {
	// Call invokes an arbitrary REST method and returns the raw result payload.
	Call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error)

	// AddLead creates a CRM lead and returns its id.
	AddLead(ctx context.Context, fields map[string]any) (int, error)
	// AddContact creates a CRM contact and returns its id.
	AddContact(ctx context.Context, fields map[string]any) (int, error)
	// ListItems queries a smart-process item list and returns the matching items.
	ListItems(ctx context.Context, entityTypeID int, filter map[string]any, selectFields []string) ([]map[string]any, error)
	// GetUsers returns active users matching the filter.
	GetUsers(ctx context.Context, filter map[string]any) ([]User, error)

	// RegisterCall registers an external telephony call against a CRM entity.
	RegisterCall(ctx context.Context, fields map[string]any) (*CallRegistration, error)
	// FinishCall completes a registered call.
	FinishCall(ctx context.Context, fields map[string]any) error
	// AttachRecord attaches a recording payload to a finished call.
	AttachRecord(ctx context.Context, callID, filename string, content []byte) error
}

// User is a Bitrix user record. Bitrix returns the id as a string.
type User struct {
	ID       string `json:"ID"`
	Name     string `json:"NAME"`
	LastName string `json:"LAST_NAME"`
	Email    string `json:"EMAIL"`
}

// CallRegistration is the result of telephony.externalcall.register.
type CallRegistration struct {
	CallID string `json:"CALL_ID"`
}

// apiResponse is the Bitrix REST envelope.
type apiResponse struct {
	Result           json.RawMessage `json:"result"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

// Option configures the Bitrix client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for REST calls. A burst equal
// to the integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	webhookURL string
	http       *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Bitrix client for the given inbound webhook base URL
// (e.g. https://portal.bitrix24.com/rest/1/token).
func NewClient(webhookURL string, opts ...Option) Client {
	c := &httpClient{
		webhookURL: strings.TrimRight(webhookURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) Call(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "bitrix: rate limit")
	}

	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, eris.Wrapf(err, "bitrix: marshal %s params", method)
	}

	reqURL := fmt.Sprintf("%s/%s.json", c.webhookURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrapf(err, "bitrix: create %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "bitrix: %s request failed", method)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "bitrix: read %s response", method)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("bitrix: %s: unexpected status %d: %s", method, resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, eris.Wrapf(err, "bitrix: unmarshal %s response", method)
	}
	if envelope.Error != "" {
		return nil, eris.Errorf("bitrix: %s: %s: %s", method, envelope.Error, envelope.ErrorDescription)
	}

	return envelope.Result, nil
}
