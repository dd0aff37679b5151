package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/maxatome/go-testdeep/helpers/tdsuite"
	"github.com/maxatome/go-testdeep/td"
	"golang.org/x/sync/errgroup"
)

// ===== Suite wiring =====

type WSSuite struct{}

func TestWSSuite(t *testing.T) {
	tdsuite.Run(t, &WSSuite{})
}

// ===== Mock WebSocket Server =====

// mockWSServer simulates the Hyperliquid websocket endpoint. onPost runs
// for every post frame and decides what, if anything, to write back; nil
// swallows posts. Pings are always answered.
type mockWSServer struct {
	server *httptest.Server
	url    string
}

func newMockWSServer(
	t testing.TB,
	onPost func(ctx context.Context, conn *websocket.Conn, frame postFrame),
) *mockWSServer {
	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := websocket.Accept(w, r, nil)
			if err != nil {
				t.Logf("websocket accept error: %v", err)
				return
			}
			defer conn.Close(websocket.StatusNormalClosure, "test complete")

			ctx := r.Context()

			// Send connection established message
			_ = conn.Write(
				ctx,
				websocket.MessageText,
				[]byte("Websocket connection established."),
			)

			for {
				readCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				_, data, err := conn.Read(readCtx)
				cancel()

				if err != nil {
					return
				}

				var frame postFrame
				if err := json.Unmarshal(data, &frame); err != nil {
					continue
				}

				switch frame.Method {
				case "ping":
					pong, _ := json.Marshal(map[string]string{"channel": "pong"})
					_ = conn.Write(ctx, websocket.MessageText, pong)
				case "post":
					if onPost != nil {
						onPost(ctx, conn, frame)
					}
				}
			}
		}),
	)

	return &mockWSServer{
		server: server,
		url:    server.URL,
	}
}

func (s *mockWSServer) close() {
	s.server.Close()
}

// writePostResponse writes a correlated post response frame.
func writePostResponse(
	ctx context.Context,
	conn *websocket.Conn,
	id int64,
	typ string,
	payload any,
) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	frame, err := json.Marshal(map[string]any{
		"channel": "post",
		"data": map[string]any{
			"id": id,
			"response": map[string]any{
				"type":    typ,
				"payload": json.RawMessage(raw),
			},
		},
	})
	if err != nil {
		return err
	}

	return conn.Write(ctx, websocket.MessageText, frame)
}

// ===== Client Lifecycle Tests =====

func (s *WSSuite) TestClientStartStop(assert, require *td.T) {
	t := require.TB
	require.Parallel()

	server := newMockWSServer(t, nil)
	defer server.close()

	client := New(Config{BaseURL: server.url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx)
	require.CmpNoError(err)

	// Give it time to process the connection message
	time.Sleep(100 * time.Millisecond)

	client.Stop()
}

func (s *WSSuite) TestPostBeforeStart(assert, require *td.T) {
	require.Parallel()

	client := New(Config{})

	err := client.Post(context.Background(), "/exchange", map[string]any{}, 1, nil)
	require.Cmp(err, ErrNotStarted)
}

// ===== Post Round-Trip Tests =====

func (s *WSSuite) TestPostActionRoundTrip(assert, require *td.T) {
	t := require.TB
	require.Parallel()

	server := newMockWSServer(
		t,
		func(ctx context.Context, conn *websocket.Conn, frame postFrame) {
			_ = writePostResponse(ctx, conn, frame.ID, "action", map[string]any{
				"status": "ok",
				"response": map[string]any{
					"type": "default",
				},
			})
		},
	)
	defer server.close()

	client := New(Config{BaseURL: server.url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx)
	require.CmpNoError(err)
	defer client.Stop()

	var result struct {
		Status string `json:"status"`
	}
	err = client.Post(
		ctx,
		"/exchange",
		map[string]any{"action": map[string]any{"type": "noop"}},
		1,
		&result,
	)
	require.CmpNoError(err)
	require.Cmp(result.Status, "ok")
	require.Cmp(client.WeightUsed(), int64(1))
}

func (s *WSSuite) TestPostFrameShape(assert, require *td.T) {
	t := require.TB
	require.Parallel()

	frames := make(chan postFrame, 1)
	server := newMockWSServer(
		t,
		func(ctx context.Context, conn *websocket.Conn, frame postFrame) {
			frames <- frame
			_ = writePostResponse(ctx, conn, frame.ID, "info", map[string]any{})
		},
	)
	defer server.close()

	client := New(Config{BaseURL: server.url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx)
	require.CmpNoError(err)
	defer client.Stop()

	err = client.Post(ctx, "/info", map[string]any{"type": "meta"}, 20, nil)
	require.CmpNoError(err)

	frame := <-frames
	require.Cmp(frame.Method, "post")
	require.True(frame.ID > 0, "post frame must carry a positive id")
	require.Cmp(frame.Request.Type, "info")

	var payload map[string]any
	require.CmpNoError(json.Unmarshal(frame.Request.Payload, &payload))
	require.Cmp(payload, map[string]any{"type": "meta"})
}

func (s *WSSuite) TestPostUnknownPath(assert, require *td.T) {
	t := require.TB
	require.Parallel()

	server := newMockWSServer(t, nil)
	defer server.close()

	client := New(Config{BaseURL: server.url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx)
	require.CmpNoError(err)
	defer client.Stop()

	err = client.Post(ctx, "/userdata", map[string]any{}, 1, nil)
	require.CmpError(err)

	// Nothing was sent, so nothing was spent.
	require.Cmp(client.WeightUsed(), int64(0))
}

// ===== Correlation Tests =====

func (s *WSSuite) TestPostCorrelatesOutOfOrderResponses(assert, require *td.T) {
	t := require.TB
	require.Parallel()

	// Hold responses until both posts have arrived, then answer them in
	// reverse arrival order. Each caller must still get its own payload.
	var (
		mu     sync.Mutex
		queued []postFrame
	)
	server := newMockWSServer(
		t,
		func(ctx context.Context, conn *websocket.Conn, frame postFrame) {
			mu.Lock()
			queued = append(queued, frame)
			if len(queued) < 2 {
				mu.Unlock()
				return
			}
			frames := queued
			queued = nil
			mu.Unlock()

			for i := len(frames) - 1; i >= 0; i-- {
				_ = writePostResponse(ctx, conn, frames[i].ID, "info", map[string]any{
					"echo": json.RawMessage(frames[i].Request.Payload),
				})
			}
		},
	)
	defer server.close()

	client := New(Config{BaseURL: server.url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx)
	require.CmpNoError(err)
	defer client.Stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range []string{"first", "second"} {
		g.Go(func() error {
			var result struct {
				Echo map[string]any `json:"echo"`
			}
			if err := client.Post(
				gctx,
				"/info",
				map[string]any{"name": name},
				2,
				&result,
			); err != nil {
				return err
			}
			if result.Echo["name"] != name {
				return fmt.Errorf(
					"response for %q carried %v",
					name,
					result.Echo["name"],
				)
			}
			return nil
		})
	}
	require.CmpNoError(g.Wait())

	require.Cmp(client.WeightUsed(), int64(4))
}

// ===== Failure Tests =====

func (s *WSSuite) TestPostServerRejection(assert, require *td.T) {
	t := require.TB
	require.Parallel()

	server := newMockWSServer(
		t,
		func(ctx context.Context, conn *websocket.Conn, frame postFrame) {
			_ = writePostResponse(ctx, conn, frame.ID, "error", "Invalid nonce")
		},
	)
	defer server.close()

	client := New(Config{BaseURL: server.url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx)
	require.CmpNoError(err)
	defer client.Stop()

	err = client.Post(ctx, "/exchange", map[string]any{}, 1, nil)

	var postErr *PostError
	require.True(errors.As(err, &postErr), "expected PostError, got %v", err)
	require.Cmp(postErr.Message, "Invalid nonce")
}

func (s *WSSuite) TestPostContextDeadline(assert, require *td.T) {
	t := require.TB
	require.Parallel()

	// The server swallows posts; the caller's deadline has to cut the
	// wait short.
	server := newMockWSServer(t, nil)
	defer server.close()

	client := New(Config{BaseURL: server.url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx)
	require.CmpNoError(err)
	defer client.Stop()

	postCtx, postCancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer postCancel()

	err = client.Post(postCtx, "/exchange", map[string]any{}, 1, nil)
	require.Cmp(err, context.DeadlineExceeded)

	// The abandoned post must not leak its waiter.
	client.mu.RLock()
	pending := len(client.pending)
	client.mu.RUnlock()
	require.Cmp(pending, 0)
}

func (s *WSSuite) TestStopFailsInFlightPost(assert, require *td.T) {
	t := require.TB
	require.Parallel()

	server := newMockWSServer(t, nil)
	defer server.close()

	client := New(Config{BaseURL: server.url})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Start(ctx)
	require.CmpNoError(err)

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Post(
			context.Background(),
			"/exchange",
			map[string]any{},
			1,
			nil,
		)
	}()

	// Let the post get in flight before tearing down.
	time.Sleep(100 * time.Millisecond)
	client.Stop()

	select {
	case err := <-errCh:
		require.True(
			errors.Is(err, ErrClosed),
			"expected ErrClosed, got %v",
			err,
		)
	case <-time.After(2 * time.Second):
		require.True(false, "post did not fail after Stop")
	}
}

// ===== Message Handling Edge Cases =====

func (s *WSSuite) TestHandleMessageToleratesNoise(assert, require *td.T) {
	require.Parallel()

	client := New(Config{})

	// None of these have a waiter or even a valid shape; the client must
	// swallow them without panicking.
	client.handleMessage([]byte(`not json`))
	client.handleMessage([]byte(`{"channel":"trades","data":[]}`))
	client.handleMessage([]byte(`{"channel":"pong"}`))
	client.handleMessage([]byte(`{"channel":"error","data":"Something failed"}`))
	client.handleMessage(
		[]byte(`{"channel":"post","data":{"id":999,"response":{"type":"action","payload":{}}}}`),
	)

	client.mu.RLock()
	pending := len(client.pending)
	client.mu.RUnlock()
	require.Cmp(pending, 0)
}
