package host

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/model"
	"github.com/nhle/todo-board/internal/store"
)

// RelayPrefix marks events that arrived from the host, so they are not
// forwarded back to it.
const RelayPrefix = "host/"

// requestTimeout bounds every non-streaming call.
const requestTimeout = 10 * time.Second

// Requests refused with 429 are retried with a doubling delay.
const (
	maxAttempts    = 6
	retryBaseDelay = 50 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

// Client is a store.Store backed by a running host.
type Client struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	origin  string
	http    *http.Client
	stream  *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ store.Store = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the transport, for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
		c.stream = hc
	}
}

// WithTokenTTL sets how long minted tokens stay valid.
func WithTokenTTL(ttl time.Duration) ClientOption {
	return func(c *Client) { c.ttl = ttl }
}

// NewClient returns a client for the host at baseURL. The client signs its
// own tokens with secret, which it shares with the host through the
// keyring.
func NewClient(baseURL string, secret []byte, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		ttl:     5 * time.Minute,
		origin:  "client-" + uuid.NewString(),
		http:    &http.Client{Timeout: requestTimeout},
		stream:  &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Origin identifies this client on the host's event stream.
func (c *Client) Origin() string {
	return c.origin
}

func (c *Client) LoadTodos(ctx context.Context) ([]model.Task, error) {
	var todos []model.Task
	if err := c.do(ctx, http.MethodGet, "/todos", nil, &todos); err != nil {
		return nil, err
	}
	return nonNil(todos), nil
}

func (c *Client) SaveTodos(ctx context.Context, todos []model.Task) error {
	return c.do(ctx, http.MethodPut, "/todos", nonNil(todos), nil)
}

func (c *Client) LoadCategories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.do(ctx, http.MethodGet, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	return nonNil(categories), nil
}

func (c *Client) SaveCategories(ctx context.Context, categories []model.Category) error {
	return c.do(ctx, http.MethodPut, "/categories", nonNil(categories), nil)
}

func (c *Client) LoadTrash(ctx context.Context) ([]model.Task, error) {
	var trash []model.Task
	if err := c.do(ctx, http.MethodGet, "/trash", nil, &trash); err != nil {
		return nil, err
	}
	return nonNil(trash), nil
}

func (c *Client) SaveTrash(ctx context.Context, trash []model.Task) error {
	return c.do(ctx, http.MethodPut, "/trash", nonNil(trash), nil)
}

func (c *Client) RestoreTodoItem(ctx context.Context, id int64) error {
	return c.trashItem(ctx, http.MethodPost, fmt.Sprintf("/trash/%d/restore", id), id)
}

func (c *Client) DeleteTodoItemPermanently(ctx context.Context, id int64) error {
	return c.trashItem(ctx, http.MethodDelete, fmt.Sprintf("/trash/%d", id), id)
}

func (c *Client) trashItem(ctx context.Context, method, path string, id int64) error {
	err := c.do(ctx, method, path, nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return store.NotInTrash(id)
	}
	return err
}

func (c *Client) EmptyTrashBin(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/trash", nil, nil)
}

func (c *Client) LoadPrefs(ctx context.Context) (model.Prefs, error) {
	var prefs model.Prefs
	if err := c.do(ctx, http.MethodGet, "/prefs", nil, &prefs); err != nil {
		return model.DefaultPrefs(), err
	}
	return prefs.Normalize(), nil
}

func (c *Client) SavePrefs(ctx context.Context, prefs model.Prefs) error {
	return c.do(ctx, http.MethodPut, "/prefs", prefs, nil)
}

// Publish announces a locally emitted event to the other clients.
func (c *Client) Publish(ctx context.Context, ev events.Event) error {
	body := map[string]any{"name": ev.Name}
	if ev.Payload != nil {
		body["payload"] = ev.Payload
	}
	if err := c.do(ctx, http.MethodPost, "/events", body, nil); err != nil {
		return fmt.Errorf("publishing %s: %w", ev.Name, err)
	}
	return nil
}

// Stream reads the host's event stream and republishes every event on bus
// with its origin prefixed by RelayPrefix. It returns when ctx is done or
// the stream breaks.
func (c *Client) Stream(ctx context.Context, bus *events.Bus) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/events", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to event stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		se := decodeError(resp)
		se.Method, se.Path = http.MethodGet, "/events"
		return se
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		var ev events.Event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		ev.Origin = RelayPrefix + ev.Origin
		bus.Publish(ev)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading event stream: %w", err)
	}
	return io.ErrUnexpectedEOF
}

// Ping checks that the host is up and accepts this client's token.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil); err != nil {
		return err
	}
	var prefs model.Prefs
	return c.do(ctx, http.MethodGet, "/prefs", nil, &prefs)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	c.stream.CloseIdleConnections()
	return nil
}

// StatusError is a non-2xx reply from the host.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: host returned %d: %s", e.Method, e.Path, e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		payload = data
	}

	for attempt := 1; ; attempt++ {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := c.newRequest(ctx, method, path, body)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxAttempts {
			wait := retryDelay(resp, attempt)
			resp.Body.Close()
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s %s: %w", method, path, ctx.Err())
			case <-time.After(wait):
			}
			continue
		}

		err = readResponse(resp, method, path, out)
		resp.Body.Close()
		return err
	}
}

func readResponse(resp *http.Response, method, path string, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := decodeError(resp)
		se.Method, se.Path = method, path
		return se
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// retryDelay honours a Retry-After header in seconds, otherwise doubles
// retryBaseDelay per attempt.
func retryDelay(resp *http.Response, attempt int) time.Duration {
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs >= 0 {
		return min(time.Duration(secs)*time.Second, maxRetryDelay)
	}
	return min(retryBaseDelay<<(attempt-1), maxRetryDelay)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	token, err := c.bearer()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(OriginHeader, c.origin)
	return req, nil
}

// bearer returns a cached token, minting a new one shortly before expiry.
func (c *Client) bearer() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.expires) > c.ttl/5 {
		return c.token, nil
	}
	token, err := IssueToken(c.secret, c.origin, c.ttl)
	if err != nil {
		return "", err
	}
	c.token = token
	c.expires = time.Now().Add(c.ttl)
	return token, nil
}

func decodeError(resp *http.Response) *StatusError {
	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(data))
	}
	return &StatusError{Code: resp.StatusCode, Message: body.Message}
}

func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
