package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/CrowderSoup/lists-app/items"
	"github.com/gorilla/websocket"
)

const (
	// Keep-alive period for the snapshot socket. Must be well under the server's pong wait.
	pingPeriod = 30 * time.Second

	writeWait = 10 * time.Second

	maxMessageSize = 4 * 1024 * 1024
)

// Client holds the connection settings shared by HTTPBackend and HTTPIdentity
type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the server at baseURL (e.g. http://localhost:3001)
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		dialer:  websocket.DefaultDialer,
	}
}

// SetToken sets the bearer token sent with every request
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends a JSON request and decodes a JSON response into out (if non-nil)
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(status int, msg string) error {
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case http.StatusConflict:
		return ErrAccountExists
	}
	return &HTTPError{Status: status, Message: msg}
}

func (c *Client) socketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

// HTTPBackend is the document store served by this repository's server
type HTTPBackend struct {
	c *Client
}

func NewHTTPBackend(c *Client) *HTTPBackend {
	return &HTTPBackend{c: c}
}

// socketMessage mirrors the server's websocket envelope
type socketMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type wireSnapshot struct {
	Owner    string       `json:"owner"`
	Revision int64        `json:"revision"`
	Items    []items.Item `json:"items"`
}

// Watch opens the snapshot socket. The server pushes the owner's complete
// item set on connect and after every write.
func (b *HTTPBackend) Watch(ctx context.Context, owner string) (<-chan Feed, error) {
	wsURL, err := b.c.socketURL("/api/ws")
	if err != nil {
		return nil, fmt.Errorf("failed to build socket url: %w", err)
	}

	header := http.Header{}
	if token := b.c.Token(); token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := b.c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	feed := make(chan Feed, 1)
	var writeMu sync.Mutex

	// Closing the connection unblocks the reader once the subscription is cancelled.
	go func() {
		<-ctx.Done()
		writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		writeMu.Unlock()
		conn.Close()
	}()

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		ping, _ := json.Marshal(socketMessage{Type: "ping"})
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				writeMu.Lock()
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				err := conn.WriteMessage(websocket.TextMessage, ping)
				writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	go func() {
		defer close(feed)
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					sendFeed(ctx, feed, Feed{Err: err})
				}
				return
			}

			// The server may batch several messages into one frame, newline separated.
			dec := json.NewDecoder(bytes.NewReader(frame))
			for {
				var msg socketMessage
				if err := dec.Decode(&msg); err != nil {
					if !errors.Is(err, io.EOF) {
						log.Printf("Error decoding socket message: %v", err)
					}
					break
				}
				if msg.Type != "snapshot" {
					continue
				}
				var snap wireSnapshot
				if err := json.Unmarshal(msg.Data, &snap); err != nil {
					log.Printf("Error decoding snapshot: %v", err)
					continue
				}
				if snap.Owner != owner {
					log.Printf("Dropping snapshot for %s on subscription for %s", snap.Owner, owner)
					continue
				}
				if !sendFeed(ctx, feed, Feed{Revision: snap.Revision, Items: snap.Items}) {
					return
				}
			}
		}
	}()

	return feed, nil
}

func sendFeed(ctx context.Context, ch chan<- Feed, f Feed) bool {
	select {
	case ch <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

type createResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

func (b *HTTPBackend) Create(ctx context.Context, it items.Item) (string, error) {
	var resp createResponse
	if err := b.c.do(ctx, http.MethodPost, "/api/items", it, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (b *HTTPBackend) Update(ctx context.Context, id string, p items.Patch) error {
	return b.c.do(ctx, http.MethodPatch, "/api/items/"+url.PathEscape(id), p, nil)
}

func (b *HTTPBackend) Delete(ctx context.Context, id string) error {
	return b.c.do(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(id), nil, nil)
}

// HTTPIdentity signs in against the server and hands the token to the shared Client
type HTTPIdentity struct {
	c    *Client
	feed *identityFeed
}

func NewHTTPIdentity(c *Client) *HTTPIdentity {
	return &HTTPIdentity{c: c, feed: newIdentityFeed()}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	UID    string `json:"uid"`
	Email  string `json:"email"`
}

func (h *HTTPIdentity) SignUp(ctx context.Context, email, password string) (Identity, error) {
	return h.authenticate(ctx, "/api/auth/signup", email, password)
}

func (h *HTTPIdentity) SignIn(ctx context.Context, email, password string) (Identity, error) {
	id, err := h.authenticate(ctx, "/api/auth/signin", email, password)
	if errors.Is(err, ErrUnauthorized) {
		return Identity{}, ErrInvalidCredentials
	}
	return id, err
}

func (h *HTTPIdentity) authenticate(ctx context.Context, path, email, password string) (Identity, error) {
	var resp authResponse
	if err := h.c.do(ctx, http.MethodPost, path, credentials{Email: email, Password: password}, &resp); err != nil {
		return Identity{}, err
	}

	id := Identity{UID: resp.UID, Email: resp.Email, Token: resp.Token}
	h.c.SetToken(id.Token)
	h.feed.publish(id)
	return id, nil
}

func (h *HTTPIdentity) SignOut(ctx context.Context) error {
	h.c.SetToken("")
	h.feed.publish(Identity{})
	return nil
}

func (h *HTTPIdentity) Changes() <-chan Identity {
	return h.feed.ch
}
