// Package nas speaks the platform's job-based JSON-RPC API over a websocket
// and exposes the typed surface the reconciliation engine consumes.
package nas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/reefctl-io/reefctl/internal/logging"
)

// ErrLoginFailed is returned when the platform rejects the credentials.
// Never retried: a wrong password does not get better with backoff.
var ErrLoginFailed = errors.New("login failed")

const apiPath = "/api/current"

// Client is a single-session JSON-RPC client over one persistent websocket.
// Calls are serialized; a call that dies to a dropped or rate-limited socket
// reconnects with backoff, re-authenticates, and retries.
type Client struct {
	url    string
	dialer *websocket.Dialer
	retry  *RetryPolicy

	mu    sync.Mutex
	conn  *websocket.Conn
	creds credentials
}

type credentials struct {
	user     string
	password string
	apiKey   string
}

func (c credentials) set() bool {
	return c.apiKey != "" || c.user != ""
}

// Endpoint returns the websocket URL for a host.
func Endpoint(host string, insecure bool) string {
	scheme := "wss"
	if insecure {
		scheme = "ws"
	}
	return fmt.Sprintf("%s://%s%s", scheme, host, apiPath)
}

// Dial opens the websocket connection to the platform. The returned client
// is unauthenticated; follow with Login or LoginWithKey.
func Dial(ctx context.Context, url string) (*Client, error) {
	c := &Client{
		url:    url,
		dialer: websocket.DefaultDialer,
		retry:  DefaultRetryPolicy(),
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Close tears down the websocket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

// Login authenticates with username and password. Credentials are kept in
// memory only, to re-authenticate after a reconnect; they are never logged.
func (c *Client) Login(ctx context.Context, user, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = credentials{user: user, password: password}
	return c.authenticateLocked(ctx)
}

// LoginWithKey authenticates with an API key.
func (c *Client) LoginWithKey(ctx context.Context, apiKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = credentials{apiKey: apiKey}
	return c.authenticateLocked(ctx)
}

// Call invokes a method and decodes the result into out (which may be nil).
// Transient transport failures trigger a reconnect-and-retry cycle; API
// errors reported by the platform propagate as-is.
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var raw json.RawMessage
	err := retryWithBackoff(ctx, c.retry, func() error {
		if err := c.ensureLocked(ctx); err != nil {
			return err
		}
		res, err := c.callLocked(ctx, method, params)
		if err != nil {
			if IsTransientError(err) {
				logging.Warn("call failed on transient error, reconnecting", "method", method, "error", err)
				_ = c.closeLocked()
			}
			return err
		}
		raw = res
		return nil
	}, IsTransientError)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: failed to decode result: %w", method, err)
	}
	return nil
}

func (c *Client) connectLocked(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	c.conn = conn
	return nil
}

func (c *Client) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// ensureLocked reopens the socket and re-authenticates after a reconnect.
func (c *Client) ensureLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	if err := c.connectLocked(ctx); err != nil {
		return err
	}
	if c.creds.set() {
		return c.authenticateLocked(ctx)
	}
	return nil
}

func (c *Client) authenticateLocked(ctx context.Context) error {
	if c.conn == nil {
		if err := c.connectLocked(ctx); err != nil {
			return err
		}
	}

	var method string
	var params []any
	if c.creds.apiKey != "" {
		method = "auth.login_with_api_key"
		params = []any{c.creds.apiKey}
	} else {
		method = "auth.login"
		params = []any{c.creds.user, c.creds.password}
	}

	raw, err := c.callLocked(ctx, method, params)
	if err != nil {
		return fmt.Errorf("authentication: %w", err)
	}
	var ok bool
	if err := json.Unmarshal(raw, &ok); err != nil || !ok {
		return ErrLoginFailed
	}
	return nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcError is an error reported by the platform itself.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// callLocked performs one request/response exchange on the open socket.
// The session may interleave event notifications; anything not carrying our
// call id is skipped.
func (c *Client) callLocked(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}
	if params == nil {
		req.Params = []any{}
	}

	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	if err := c.conn.WriteJSON(req); err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var resp rpcResponse
		if err := c.conn.ReadJSON(&resp); err != nil {
			return nil, err
		}
		if resp.ID != req.ID {
			continue
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	}
}
