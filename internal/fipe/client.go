// Package fipe implements a client for FIPE-style vehicle price APIs.
//
// Design goals, shared with the rest of the project's HTTP plumbing:
//
//   - Tiny explicit API: Brands, Models, Years, Price.
//   - Fixed-delay retries with a fixed attempt budget; exhaustion yields an
//     empty result, never an error, so a flaky upstream degrades to "no data".
//   - A fixed inter-request delay after each success, used as unconditional
//     rate limiting against the public API.
//   - Respect context cancellation during requests and waits.
//   - Easy to test by injecting the http.Client transport and sleep function.
package fipe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures the price API client.
//
// Zero values are given sensible defaults:
//   - VehicleType:  "motos"
//   - Timeout:      10s
//   - Attempts:     3
//   - RetryDelay:   2s
//   - RequestDelay: 1s
type Config struct {
	// BaseURL of the API, e.g. "https://parallelum.com.br/fipe/api/v1".
	BaseURL string

	// VehicleType segment of the API path ("carros", "motos", "caminhoes").
	VehicleType string

	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// Attempts is the total request budget per call, including the first try.
	Attempts int

	// RetryDelay is the fixed wait between failed attempts.
	RetryDelay time.Duration

	// RequestDelay is the fixed wait after every successful call, applied as
	// unconditional rate limiting.
	RequestDelay time.Duration

	// Transport is an optional custom RoundTripper for tests.
	Transport http.RoundTripper
}

// Client queries a FIPE-style price API.
type Client struct {
	baseURL      string
	vehicleType  string
	attempts     int
	retryDelay   time.Duration
	requestDelay time.Duration
	httpClient   *http.Client

	// sleep is injectable to make tests fast and deterministic.
	sleep func(time.Duration)
}

// NewClient constructs a Client from Config, applying defaults for zero values.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("fipe: base URL is required")
	}
	if cfg.VehicleType == "" {
		cfg.VehicleType = "motos"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.RequestDelay <= 0 {
		cfg.RequestDelay = time.Second
	}

	return &Client{
		baseURL:      cfg.BaseURL,
		vehicleType:  cfg.VehicleType,
		attempts:     cfg.Attempts,
		retryDelay:   cfg.RetryDelay,
		requestDelay: cfg.RequestDelay,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		sleep: time.Sleep,
	}, nil
}

// Code is a brand/model/year code. The API is inconsistent about encoding
// codes as JSON strings or numbers, so both decode into the string form.
type Code string

func (c *Code) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("fipe: code is neither string nor number: %s", b)
	}
	*c = Code(n.String())
	return nil
}

// Option is one selectable brand, model, or model-year.
type Option struct {
	Codigo Code   `json:"codigo"`
	Nome   string `json:"nome"`
}

// PriceQuote is the priced vehicle returned for a full brand/model/year path.
type PriceQuote struct {
	Valor            string `json:"Valor"`
	Marca            string `json:"Marca"`
	Modelo           string `json:"Modelo"`
	AnoModelo        int    `json:"AnoModelo"`
	Combustivel      string `json:"Combustivel"`
	CodigoFipe       string `json:"CodigoFipe"`
	MesReferencia    string `json:"MesReferencia"`
	TipoVeiculo      int    `json:"TipoVeiculo"`
	SiglaCombustivel string `json:"SiglaCombustivel"`
}

// Brands lists all brands for the configured vehicle type. All retries
// failing yields an empty slice, not an error.
func (c *Client) Brands(ctx context.Context) ([]Option, error) {
	var out []Option
	if !c.getJSON(ctx, fmt.Sprintf("%s/%s/marcas", c.baseURL, c.vehicleType), &out) {
		return nil, ctx.Err()
	}
	return out, nil
}

// Models lists the models of one brand.
func (c *Client) Models(ctx context.Context, brand Code) ([]Option, error) {
	// The models endpoint wraps its list in an envelope object.
	var envelope struct {
		Modelos []Option `json:"modelos"`
	}
	url := fmt.Sprintf("%s/%s/marcas/%s/modelos", c.baseURL, c.vehicleType, brand)
	if !c.getJSON(ctx, url, &envelope) {
		return nil, ctx.Err()
	}
	return envelope.Modelos, nil
}

// Years lists the model-year options of one model.
func (c *Client) Years(ctx context.Context, brand, model Code) ([]Option, error) {
	var out []Option
	url := fmt.Sprintf("%s/%s/marcas/%s/modelos/%s/anos", c.baseURL, c.vehicleType, brand, model)
	if !c.getJSON(ctx, url, &out) {
		return nil, ctx.Err()
	}
	return out, nil
}

// Price fetches the quote for a full brand/model/year path. An exhausted
// lookup returns (nil, nil): absent, not an error.
func (c *Client) Price(ctx context.Context, brand, model, year Code) (*PriceQuote, error) {
	var quote PriceQuote
	url := fmt.Sprintf("%s/%s/marcas/%s/modelos/%s/anos/%s", c.baseURL, c.vehicleType, brand, model, year)
	if !c.getJSON(ctx, url, &quote) {
		return nil, ctx.Err()
	}
	return &quote, nil
}

// getJSON GETs url and decodes the body into target. Transport errors,
// non-200 statuses, and undecodable bodies all count as a failed attempt; a
// fixed delay separates attempts. It reports whether a decode succeeded, and
// sleeps the rate-limit delay after a success.
func (c *Client) getJSON(ctx context.Context, url string, target any) bool {
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			c.sleep(c.retryDelay)
		}
		if ctx.Err() != nil {
			return false
		}
		if c.tryOnce(ctx, url, target) {
			c.sleep(c.requestDelay)
			return true
		}
	}
	return false
}

func (c *Client) tryOnce(ctx context.Context, url string, target any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	return json.NewDecoder(resp.Body).Decode(target) == nil
}
