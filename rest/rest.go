// Package rest provides the HTTP transport for Hyperliquid API endpoints.
package rest

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/visvirial/hyperliquid/constants"
)

// Client posts JSON payloads to the exchange and keeps a running total of
// the rate-limit weight it has spent.
type Client struct {
	http       *resty.Client
	timeout    mo.Option[uint]
	weightUsed atomic.Int64
}

// ClientInterface defines the contract for REST API calls. weight is the
// rate-limit cost of the request; the client accounts for it, throttling on
// it is the caller's business.
type ClientInterface interface {
	Post(ctx context.Context, path string, body any, weight int, result any) error
	WeightUsed() int64
}

type Config struct {
	// BaseUrl is the base URL for the Hyperliquid API.
	// If none is provided, the mainnet url will be used.
	BaseUrl string
	// Timeout is the timeout in seconds for network requests.
	// If none is provided, no timeout will be enforced.
	Timeout uint
	// Logger receives transport diagnostics. Nil keeps the client silent.
	Logger *zap.SugaredLogger
}

// New creates a new client instance with the provided configuration.
func New(c Config) *Client {
	baseUrl := c.BaseUrl
	if baseUrl == "" {
		baseUrl = constants.MAINNET_API_URL
	}

	http := resty.New().
		SetBaseURL(baseUrl).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal)

	if c.Logger != nil {
		http.SetLogger(c.Logger)
	}

	var timeout mo.Option[uint]
	if c.Timeout != 0 {
		timeout = mo.Some(c.Timeout)
	}

	return &Client{
		http:    http,
		timeout: timeout,
	}
}

// Post sends a POST request to path with the provided JSON body and decodes
// the response into result when it is non-nil. The request's weight is
// added to the client's running total before the request goes out.
func (c *Client) Post(
	ctx context.Context,
	path string,
	body any,
	weight int,
	result any,
) error {
	if timeout, ok := c.timeout.Get(); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	c.weightUsed.Add(int64(weight))

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body)

	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(path)
	if err != nil {
		return err
	}

	return handleException(resp)
}

// WeightUsed reports the cumulative rate-limit weight spent by this client.
func (c *Client) WeightUsed() int64 {
	return c.weightUsed.Load()
}

// Post is the typed form of ClientInterface.Post for callers that want the
// decoded response back directly.
func Post[T any](
	ctx context.Context,
	c ClientInterface,
	path string,
	body any,
	weight int,
) (*T, error) {
	var result T
	if err := c.Post(ctx, path, body, weight, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
