package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mcoot/rpsgame/internal/model"
)

// Transport selects how a Feed receives room events
type Transport string

const (
	TransportWS  Transport = "ws"
	TransportSSE Transport = "sse"
)

// Feed is a live stream of room events from the server
type Feed struct {
	events chan model.Event
	closer io.Closer
	done   chan struct{}

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func newFeed(closer io.Closer) *Feed {
	return &Feed{
		events: make(chan model.Event, 16),
		closer: closer,
		done:   make(chan struct{}),
	}
}

// Events is closed when the stream ends
func (f *Feed) Events() <-chan model.Event {
	return f.events
}

// Err returns the error that ended the stream, if any. Valid once Events is closed.
func (f *Feed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Close stops the stream
func (f *Feed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.done)
		err = f.closer.Close()
	})
	return err
}

// deliver reports false once the feed is closed
func (f *Feed) deliver(ev model.Event) bool {
	select {
	case f.events <- ev:
		return true
	case <-f.done:
		return false
	}
}

func (f *Feed) finish(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
	close(f.events)
}

// Open connects a feed for the room over the given transport
func (c *Client) Open(ctx context.Context, transport Transport, code model.RoomCode, userID model.UserID) (*Feed, error) {
	switch transport {
	case TransportSSE:
		return c.OpenSSE(ctx, code, userID)
	case TransportWS, "":
		return c.DialWS(ctx, code, userID)
	default:
		return nil, fmt.Errorf("unknown transport %q", transport)
	}
}

func (c *Client) streamURL(code model.RoomCode, userID model.UserID, suffix string) (*url.URL, error) {
	u, err := url.Parse(c.baseURL + roomPath(code, suffix))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if userID != "" {
		u.RawQuery = url.Values{"userId": {string(userID)}}.Encode()
	}
	return u, nil
}

// DialWS connects to the room's websocket endpoint
func (c *Client) DialWS(ctx context.Context, code model.RoomCode, userID model.UserID) (*Feed, error) {
	u, err := c.streamURL(code, userID, "/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	feed := newFeed(conn)
	go func() {
		for {
			var ev model.Event
			if err := conn.ReadJSON(&ev); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
					errors.Is(err, net.ErrClosed) {
					err = nil
				}
				feed.finish(err)
				return
			}
			if !feed.deliver(ev) {
				feed.finish(nil)
				return
			}
		}
	}()
	return feed, nil
}

type cancelCloser struct {
	cancel context.CancelFunc
	body   io.Closer
}

func (c cancelCloser) Close() error {
	c.cancel()
	return c.body.Close()
}

// OpenSSE connects to the room's server-sent events endpoint
func (c *Client) OpenSSE(ctx context.Context, code model.RoomCode, userID model.UserID) (*Feed, error) {
	u, err := c.streamURL(code, userID, "/events")
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	// No timeout for SSE
	resp, err := (&http.Client{Transport: c.httpClient.Transport}).Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connection failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: "unexpected status"}
	}

	feed := newFeed(cancelCloser{cancel: cancel, body: resp.Body})
	go func() {
		err := ReadSSE(resp.Body, func(event, data string) {
			var ev model.Event
			if json.Unmarshal([]byte(data), &ev) != nil {
				return
			}
			if ev.Type == "" {
				ev.Type = model.EventType(event)
			}
			feed.deliver(ev)
		})
		if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
			err = nil
		}
		feed.finish(err)
	}()
	return feed, nil
}

// ReadSSE parses an event stream, calling fn once per complete event
func ReadSSE(r io.Reader, fn func(event, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				fn(currentEvent, strings.Join(dataLines, "\n"))
			}
			currentEvent = ""
			dataLines = nil
		}
	}
	return scanner.Err()
}

// RoomStates forwards the snapshots carried by room-state events
func RoomStates(events <-chan model.Event) <-chan *model.RoomState {
	out := make(chan *model.RoomState, cap(events))
	go func() {
		defer close(out)
		for ev := range events {
			if ev.Type == model.EventRoomState && ev.State != nil {
				out <- ev.State
			}
		}
	}()
	return out
}
