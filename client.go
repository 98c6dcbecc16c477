package restbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultHTTPTimeout bounds every request issued by a freshly constructed
// Client. Override it with SetTimeout or SetHTTPClient.
const DefaultHTTPTimeout = 10 * time.Second

// Client talks to one PostgREST-style backend. It owns the base URL, the
// project API key and the current bearer token. The token starts equal to
// the API key (anonymous), is replaced by a successful SignIn and reset by
// SignOut or ResetCredential. All methods are safe for concurrent use; each
// call snapshots the token at issue time, so a SignIn racing with in-flight
// requests never re-authenticates them retroactively.
type Client struct {
	baseURL string
	apiKey  string

	mu    sync.RWMutex
	token string

	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a Client for the backend at baseURL authenticating with
// apiKey. The client starts in the anonymous state.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		token:      apiKey,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     zerolog.Nop(),
	}
}

func (c *Client) SetTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

func (c *Client) SetHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// Logger installs a zerolog logger. The client logs request issuance at
// debug level and swallowed SignOut failures at warn level.
func (c *Client) Logger(logger zerolog.Logger) *Client {
	c.logger = logger
	return c
}

// BaseURL returns the backend base URL the client was constructed with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UseToken installs an externally obtained bearer token, e.g. one restored
// from persisted session state.
func (c *Client) UseToken(token string) {
	c.setBearer(token)
}

// ResetCredential returns the client to the anonymous state: subsequent
// requests authenticate with the API key alone.
func (c *Client) ResetCredential() {
	c.setBearer(c.apiKey)
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) setBearer(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// attachHeaders sets the four fixed headers carried by every CRUD request:
// the API key, the bearer token, the JSON content type and the preference
// directive asking the backend to echo affected rows.
func (c *Client) attachHeaders(h http.Header, token string) {
	h.Set("apikey", c.apiKey)
	h.Set("Authorization", "Bearer "+token)
	h.Set("Content-Type", "application/json")
	h.Set("Prefer", "return=representation")
}

// do issues one CRUD request and classifies the response: 2xx bodies decode
// to []Record, anything else becomes a *RemoteError carrying the table and
// operation context. Transport failures propagate wrapped.
func (c *Client) do(ctx context.Context, op, table, method, rawURL string, body any) ([]Record, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encoding body: %w", op, table, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, table, err)
	}
	token := c.bearer()
	c.attachHeaders(req.Header, token)
	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug().
		Str("op", op).
		Str("table", table).
		Str("method", method).
		Str("request_id", requestID).
		Msg("issuing request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", op, table, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", op, table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{
			Table:      table,
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    remoteMessage(data, resp.Status),
		}
	}

	return decodeRecords(op, table, data)
}

// decodeRecords parses a success body into a record sequence. The backend
// normally answers with a JSON array; a single object is wrapped so callers
// always see a sequence.
func decodeRecords(op, table string, data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var one Record
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("%s %s: decoding response: %w", op, table, err)
	}
	return []Record{one}, nil
}
