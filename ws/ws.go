// Package ws provides a websocket transport for Hyperliquid API requests.
// Requests ride in post frames keyed by a client-chosen id; the server
// echoes the id on the matching response frame. The same signed payloads
// the HTTP transport delivers to /exchange work here unchanged.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/visvirial/hyperliquid/constants"
	"github.com/visvirial/hyperliquid/rest"
)

const (
	// The server acknowledges every ping, so a healthy connection never
	// goes a full readTimeout without traffic.
	pingInterval = 50 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
)

// Client posts requests over a websocket connection. It satisfies the same
// contract as the HTTP client in the rest package, so an exchange client
// can dispatch its actions through either.
type Client struct {
	baseURL string
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	conn    *websocket.Conn
	pending map[int64]chan postResult

	nextID     atomic.Int64
	weightUsed atomic.Int64

	readyChan chan struct{}
	readyOnce sync.Once
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

var _ rest.ClientInterface = (*Client)(nil)

// postResult resolves one in-flight post: the response payload on
// success, the transport or server error otherwise.
type postResult struct {
	payload json.RawMessage
	err     error
}

type Config struct {
	// BaseURL is the base URL for the Hyperliquid API. http and https
	// schemes are rewritten to ws and wss. Mainnet when empty.
	BaseURL string
	// Logger receives connection diagnostics. Nil keeps the client
	// silent.
	Logger *zap.SugaredLogger
}

// New creates a websocket client. Call Start before posting.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = constants.MAINNET_API_URL
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	return &Client{
		baseURL:   baseURL,
		log:       log,
		pending:   make(map[int64]chan postResult),
		readyChan: make(chan struct{}),
		stopChan:  make(chan struct{}),
	}
}

// Start dials the websocket endpoint and launches the read and ping loops.
func (c *Client) Start(ctx context.Context) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("parse base URL %q: %w", c.baseURL, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	// make sure we append "/ws" correctly, without double slashes
	u.Path = path.Join(u.Path, "ws")

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop()

	return nil
}

// Stop closes the connection and waits for the loops to exit. In-flight
// posts fail with ErrClosed.
func (c *Client) Stop() {
	close(c.stopChan)

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close(websocket.StatusNormalClosure, "closing")
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// Post sends body as a post frame and decodes the response payload into
// result when it is non-nil. path selects the request type the server
// multiplexes on: /exchange payloads post as actions, /info payloads as
// info queries. The request's weight is added to the client's running
// total before the frame goes out.
func (c *Client) Post(
	ctx context.Context,
	path string,
	body any,
	weight int,
	result any,
) error {
	reqType, err := requestType(path)
	if err != nil {
		return err
	}

	c.weightUsed.Add(int64(weight))

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal post payload: %w", err)
	}

	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotStarted
	}

	// The server ignores frames sent before its ready banner.
	select {
	case <-c.readyChan:
	case <-c.stopChan:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	id := c.nextID.Add(1)
	frame, err := json.Marshal(postFrame{
		Method: "post",
		ID:     id,
		Request: postRequest{
			Type:    reqType,
			Payload: payload,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal post frame: %w", err)
	}

	ch := make(chan postResult, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	err = conn.Write(writeCtx, websocket.MessageText, frame)
	cancel()
	if err != nil {
		c.dropPending(id)
		return fmt.Errorf("write post frame: %w", err)
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return res.err
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(res.payload, result); err != nil {
			return fmt.Errorf("unmarshal post response: %w", err)
		}
		return nil
	case <-c.stopChan:
		c.dropPending(id)
		return ErrClosed
	case <-ctx.Done():
		c.dropPending(id)
		return ctx.Err()
	}
}

// WeightUsed reports the cumulative rate-limit weight this client has
// spent.
func (c *Client) WeightUsed() int64 {
	return c.weightUsed.Load()
}

// requestType maps an API path to the request type the post protocol
// multiplexes on.
func requestType(path string) (string, error) {
	switch path {
	case "/exchange":
		return "action", nil
	case "/info":
		return "info", nil
	default:
		return "", fmt.Errorf("no post request type for path %q", path)
	}
}

// readLoop handles incoming messages from the websocket.
func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			c.failPending(ErrClosed)
			return
		default:
		}

		c.mu.RLock()
		conn := c.conn
		c.mu.RUnlock()

		if conn == nil {
			c.failPending(ErrClosed)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		_, data, err := conn.Read(ctx)
		cancel()

		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				c.failPending(ErrClosed)
				return
			}
			c.log.Errorw("websocket read failed", "err", err)
			c.failPending(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}

		if string(data) == "Websocket connection established." {
			c.log.Debug("websocket connection established")
			c.readyOnce.Do(func() { close(c.readyChan) })
			continue
		}

		c.handleMessage(data)
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.mu.RLock()
			conn := c.conn
			c.mu.RUnlock()

			if conn == nil {
				return
			}

			msg := map[string]string{"method": "ping"}
			data, _ := json.Marshal(msg)

			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err := conn.Write(ctx, websocket.MessageText, data)
			cancel()

			if err != nil {
				c.log.Errorw("websocket ping failed", "err", err)
				return
			}
		}
	}
}

// handleMessage routes one incoming frame by its channel.
func (c *Client) handleMessage(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.log.Errorw("malformed websocket message", "err", err)
		return
	}

	switch frame.Channel {
	case "post":
		c.handlePost(frame.Data)
	case "pong":
		c.log.Debug("websocket received pong")
	case "error":
		c.log.Errorw("websocket server error", "detail", string(frame.Data))
	default:
		c.log.Debugw("ignoring websocket message", "channel", frame.Channel)
	}
}

// handlePost resolves the waiter whose id the response carries.
func (c *Client) handlePost(data json.RawMessage) {
	var pd postData
	if err := json.Unmarshal(data, &pd); err != nil {
		c.log.Errorw("malformed post response", "err", err)
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[pd.ID]
	delete(c.pending, pd.ID)
	c.mu.Unlock()

	if !ok {
		// The waiter gave up before the response landed.
		c.log.Debugw("post response with no waiter", "id", pd.ID)
		return
	}

	if pd.Response.Type == "error" {
		var detail string
		if err := json.Unmarshal(pd.Response.Payload, &detail); err != nil {
			detail = string(pd.Response.Payload)
		}
		ch <- postResult{err: &PostError{ID: pd.ID, Message: detail}}
		return
	}

	ch <- postResult{payload: pd.Response.Payload}
}

func (c *Client) dropPending(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// failPending resolves every in-flight post with err so no waiter hangs
// until its deadline once the connection is gone.
func (c *Client) failPending(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]chan postResult)
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- postResult{err: err}
	}
}
