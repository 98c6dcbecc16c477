// Package realtime subscribes to row-change events published by a
// PostgREST-style backend over its websocket endpoint. A Client maintains
// one connection, answers the server's heartbeat, fans change events out
// to per-topic subscription channels and reconnects with exponential
// backoff when the connection drops, rejoining every subscribed topic.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	gorilla "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/restbase/restbase.go/internal/rand"
)

const (
	// DefaultHeartbeatInterval is how often the client answers the
	// transport-level heartbeat. The server drops connections that stay
	// silent for roughly twice this long.
	DefaultHeartbeatInterval = 30 * time.Second

	refLength = 16

	// subscriptionBuffer is the per-topic channel capacity. Events beyond
	// it are dropped rather than blocking the read loop.
	subscriptionBuffer = 64
)

// DefaultDialer is the gorilla dialer used by new clients, with
// compression enabled.
var DefaultDialer = &gorilla.Dialer{
	Proxy:             gorilla.DefaultDialer.Proxy,
	HandshakeTimeout:  gorilla.DefaultDialer.HandshakeTimeout,
	EnableCompression: true,
}

// Client is a realtime connection to one backend. Construct it with New,
// Connect it, then Subscribe to tables. All methods are safe for
// concurrent use.
type Client struct {
	endpoint  string
	dialer    *gorilla.Dialer
	logger    zerolog.Logger
	heartbeat time.Duration

	mu     sync.Mutex
	conn   *gorilla.Conn
	subs   map[string]chan Change
	done   chan struct{}
	closed bool
}

// New creates a Client for the backend at baseURL, authenticating the
// websocket handshake with apiKey. baseURL uses the http or https scheme;
// New derives the ws endpoint from it.
func New(baseURL, apiKey string) *Client {
	return &Client{
		endpoint:  wsEndpoint(baseURL, apiKey),
		dialer:    DefaultDialer,
		logger:    zerolog.Nop(),
		heartbeat: DefaultHeartbeatInterval,
		subs:      make(map[string]chan Change),
	}
}

func wsEndpoint(baseURL, apiKey string) string {
	endpoint := strings.TrimRight(baseURL, "/")
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	}
	return endpoint + "/realtime/v1/websocket?apikey=" + url.QueryEscape(apiKey) + "&vsn=1.0"
}

func (c *Client) SetDialer(dialer *gorilla.Dialer) *Client {
	c.dialer = dialer
	return c
}

func (c *Client) SetHeartbeatInterval(interval time.Duration) *Client {
	c.heartbeat = interval
	return c
}

func (c *Client) Logger(logger zerolog.Logger) *Client {
	c.logger = logger
	return c
}

// Connect dials the backend and starts the read and heartbeat loops.
func (c *Client) Connect(ctx context.Context) error {
	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		// On a rejected handshake gorilla hands back the response.
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("realtime: dialing %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go c.readLoop(conn)
	go c.heartbeatLoop(conn, done)
	return nil
}

// Subscribe joins the change topic for table in schema and returns the
// channel its events are delivered on. The channel is closed by
// Unsubscribe and by Close. Events arriving while the channel is full are
// dropped.
func (c *Client) Subscribe(schema, table string) (<-chan Change, error) {
	topic := Topic(schema, table)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("realtime: subscribe %s: not connected", topic)
	}
	if _, ok := c.subs[topic]; ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("realtime: already subscribed to %s", topic)
	}
	ch := make(chan Change, subscriptionBuffer)
	c.subs[topic] = ch
	conn := c.conn
	c.mu.Unlock()

	if err := c.join(conn, topic); err != nil {
		c.mu.Lock()
		delete(c.subs, topic)
		c.mu.Unlock()
		return nil, err
	}
	return ch, nil
}

// Unsubscribe leaves the change topic for table in schema and closes its
// channel.
func (c *Client) Unsubscribe(schema, table string) error {
	topic := Topic(schema, table)

	c.mu.Lock()
	ch, ok := c.subs[topic]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("realtime: not subscribed to %s", topic)
	}
	delete(c.subs, topic)
	// Closed under the lock so dispatch never sends on a closed channel.
	close(ch)
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return c.write(conn, Message{
		Topic:   topic,
		Event:   eventLeave,
		Payload: json.RawMessage(`{}`),
		Ref:     rand.Ref(refLength),
	})
}

// Close tears the connection down and closes every subscription channel.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.done != nil {
		close(c.done)
	}
	conn := c.conn
	c.conn = nil
	for topic, ch := range c.subs {
		close(ch)
		delete(c.subs, topic)
	}
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (c *Client) join(conn *gorilla.Conn, topic string) error {
	return c.write(conn, Message{
		Topic:   topic,
		Event:   eventJoin,
		Payload: json.RawMessage(`{}`),
		Ref:     rand.Ref(refLength),
	})
}

// write serializes one frame. gorilla allows a single concurrent writer,
// so writes go through the client mutex.
func (c *Client) write(conn *gorilla.Conn, msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return conn.WriteJSON(msg)
}

func (c *Client) readLoop(conn *gorilla.Conn) {
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			closed := c.closed || c.conn != conn
			c.mu.Unlock()
			if closed {
				return
			}
			c.logger.Warn().Err(err).Msg("realtime connection lost")
			c.reconnect()
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Event {
	case EventInsert, EventUpdate, EventDelete:
		var change Change
		if err := json.Unmarshal(msg.Payload, &change); err != nil {
			c.logger.Warn().Err(err).Str("topic", msg.Topic).Msg("undecodable change event")
			return
		}
		if change.Type == "" {
			change.Type = msg.Event
		}
		// The send happens under the lock so Unsubscribe and Close cannot
		// close the channel mid-send. It never blocks, so holding the lock
		// is safe.
		var dropped bool
		c.mu.Lock()
		ch, ok := c.subs[msg.Topic]
		if ok {
			select {
			case ch <- change:
			default:
				dropped = true
			}
		}
		c.mu.Unlock()
		if dropped {
			c.logger.Warn().Str("topic", msg.Topic).Msg("subscriber slow, dropping change event")
		}
	case eventReply:
		c.logger.Debug().Str("topic", msg.Topic).Str("ref", msg.Ref).Msg("reply")
	case eventError:
		c.logger.Warn().Str("topic", msg.Topic).Msg("channel error")
	}
}

// reconnect redials with exponential backoff until it succeeds or the
// client is closed, then rejoins every subscribed topic.
func (c *Client) reconnect() {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 0

	err := backoff.Retry(func() error {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return backoff.Permanent(fmt.Errorf("client closed"))
		}
		c.mu.Unlock()

		conn, resp, err := c.dialer.Dial(c.endpoint, nil)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			c.logger.Debug().Err(err).Msg("reconnect attempt failed")
			return err
		}
		resp.Body.Close()

		c.mu.Lock()
		// Close may have landed while dialing; don't install a connection
		// on a closed client.
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return backoff.Permanent(fmt.Errorf("client closed"))
		}
		c.conn = conn
		done := c.done
		topics := make([]string, 0, len(c.subs))
		for topic := range c.subs {
			topics = append(topics, topic)
		}
		c.mu.Unlock()

		go c.readLoop(conn)
		go c.heartbeatLoop(conn, done)
		for _, topic := range topics {
			if err := c.join(conn, topic); err != nil {
				c.logger.Warn().Err(err).Str("topic", topic).Msg("rejoin failed")
			}
		}
		c.logger.Info().Int("topics", len(topics)).Msg("realtime reconnected")
		return nil
	}, policy)
	if err != nil {
		c.logger.Debug().Err(err).Msg("reconnect abandoned")
	}
}

func (c *Client) heartbeatLoop(conn *gorilla.Conn, done chan struct{}) {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			msg := Message{
				Topic:   heartbeatTopic,
				Event:   eventHeartbeat,
				Payload: json.RawMessage(`{}`),
				Ref:     rand.Ref(refLength),
			}
			if err := c.write(conn, msg); err != nil {
				c.logger.Debug().Err(err).Msg("heartbeat write failed")
				return
			}
		}
	}
}
