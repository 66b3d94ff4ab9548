// Package cdp attaches to a browser page over the DevTools protocol and
// exposes it as a field.Host.
//
// Only the small slice of the protocol the driver needs is implemented:
// target discovery over the /json/list endpoint and Runtime.evaluate calls
// over the page's WebSocket.
package cdp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/thruflo/keysweep/internal/logging"
)

var (
	// ErrNotConnected is returned by Call once the connection is closed.
	ErrNotConnected = errors.New("devtools connection closed")

	// ErrNoPage is returned when no page target matches.
	ErrNoPage = errors.New("no matching page target")
)

// Target describes one debuggable target as listed by /json/list.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// ProtocolError is an error reply from the browser.
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("devtools error %d: %s", e.Code, e.Message)
}

// ClientOption configures discovery and Client behavior.
type ClientOption func(*clientConfig)

type clientConfig struct {
	httpClient  *http.Client
	dialer      *websocket.Dialer
	callTimeout time.Duration
	log         *logging.Logger
}

// WithHTTPClient sets the HTTP client used for target discovery.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithDialer sets the WebSocket dialer.
func WithDialer(d *websocket.Dialer) ClientOption {
	return func(c *clientConfig) {
		c.dialer = d
	}
}

// WithCallTimeout bounds every Call that has no earlier context deadline.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) {
		c.callTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) ClientOption {
	return func(c *clientConfig) {
		c.log = l
	}
}

func newClientConfig(opts []ClientOption) clientConfig {
	cfg := clientConfig{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		dialer:      websocket.DefaultDialer,
		callTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logging.With("component", "cdp")
	}
	return cfg
}

// ListTargets fetches the targets of the browser at endpoint, for example
// http://127.0.0.1:9222.
func ListTargets(ctx context.Context, endpoint string, opts ...ClientOption) ([]Target, error) {
	cfg := newClientConfig(opts)

	url := strings.TrimSuffix(endpoint, "/") + "/json/list"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := cfg.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}

	var targets []Target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return nil, fmt.Errorf("failed to parse target list: %w", err)
	}
	return targets, nil
}

// DiscoverPage returns the first page target whose URL or title contains
// match. An empty match selects the first page.
func DiscoverPage(ctx context.Context, endpoint, match string, opts ...ClientOption) (*Target, error) {
	targets, err := ListTargets(ctx, endpoint, opts...)
	if err != nil {
		return nil, err
	}
	for i := range targets {
		t := &targets[i]
		if t.Type != "page" || t.WebSocketDebuggerURL == "" {
			continue
		}
		if match == "" || strings.Contains(t.URL, match) || strings.Contains(t.Title, match) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoPage, match)
}

type message struct {
	ID     int64           `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ProtocolError  `json:"error,omitempty"`
}

type request struct {
	ID     int64  `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// Client is a DevTools connection to one target.
type Client struct {
	conn        *websocket.Conn
	callTimeout time.Duration
	log         *logging.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	nextID  int64
	pending map[int64]chan message
	err     error

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to a target's WebSocket debugger URL.
func Dial(ctx context.Context, wsURL string, opts ...ClientOption) (*Client, error) {
	cfg := newClientConfig(opts)

	conn, resp, err := cfg.dialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", wsURL, err)
	}

	c := &Client{
		conn:        conn,
		callTimeout: cfg.callTimeout,
		log:         cfg.log,
		pending:     make(map[int64]chan message),
		done:        make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Call sends method with params and decodes the reply into result, which
// may be nil.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	if _, ok := ctx.Deadline(); !ok && c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return c.err
	}
	c.nextID++
	id := c.nextID
	replyCh := make(chan message, 1)
	c.pending[id] = replyCh
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(request{ID: id, Method: method, Params: params})
	c.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.done:
		return ErrNotConnected
	case reply := <-replyCh:
		if reply.Error != nil {
			return fmt.Errorf("%s: %w", method, reply.Error)
		}
		if result == nil || len(reply.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
		return nil
	}
}

// Close closes the connection. Pending calls fail with ErrNotConnected.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	<-c.done
	return err
}

// Done is closed when the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		var msg message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			c.err = ErrNotConnected
			c.mu.Unlock()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.log.Debug("devtools read loop ended", "error", err)
			}
			return
		}

		if msg.ID == 0 {
			// Protocol event.
			c.log.Debug("devtools event", "method", msg.Method)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
}
