// Package provider reads authoritative resource state from the payment
// provider's REST API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"payhook/internal/config"
	"payhook/internal/metrics"
)

// ErrUnavailable wraps every fetch failure: non-200 responses, timeouts,
// transport errors and undecodable bodies. Callers treat it as an expected
// outcome.
var ErrUnavailable = errors.New("provider resource unavailable")

const (
	ResourcePayment    = "payment"
	ResourceChargeback = "chargeback"

	maxBodyBytes = 4 << 20
)

// Resource is a provider resource as returned by the read API.
type Resource struct {
	Kind string
	ID   string
	Body map[string]interface{}
	Raw  json.RawMessage
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    metrics.Collector
}

func NewClient(cfg config.ProviderConfig, collector metrics.Collector) *Client {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxConnsPerHost = cfg.MaxConns
	transport.MaxIdleConnsPerHost = cfg.MaxConns

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.AccessToken,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		metrics: collector,
	}
}

// FetchPayment calls GET /v1/payments/{id}.
func (c *Client) FetchPayment(ctx context.Context, id string) (*Resource, error) {
	return c.fetch(ctx, ResourcePayment, "/v1/payments/", id)
}

// FetchChargeback calls GET /v1/chargebacks/{id}.
func (c *Client) FetchChargeback(ctx context.Context, id string) (*Resource, error) {
	return c.fetch(ctx, ResourceChargeback, "/v1/chargebacks/", id)
}

func (c *Client) fetch(ctx context.Context, kind, path, id string) (res *Resource, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "unavailable"
		}
		c.metrics.RecordFetch(kind, result, time.Since(start))
	}()

	endpoint := c.baseURL + path + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, kind, id, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s %s: %v", ErrUnavailable, kind, id, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, kind, id, resp.StatusCode)
	}

	body := map[string]interface{}{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode %s %s: %v", ErrUnavailable, kind, id, err)
	}

	return &Resource{Kind: kind, ID: id, Body: body, Raw: raw}, nil
}
