package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"polywatch/internal/domain"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval; must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// BookHandler is called for every full book snapshot.
type BookHandler func(domain.OrderbookSnapshot)

// PriceChangeHandler is called for every incremental level update.
type PriceChangeHandler func(domain.PriceChange)

// WSClient is a single-connection WebSocket client for the CLOB market
// channel. It subscribes to book and price_change for a set of asset IDs and
// dispatches decoded messages to handlers. Reconnection policy belongs to
// the caller; a WSClient is used for exactly one connection.
type WSClient struct {
	wsURL   string
	onBook  BookHandler
	onPrice PriceChangeHandler

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	done   chan struct{}
}

// NewWSClient creates a client for the given market-channel endpoint, e.g.
// "wss://ws-subscriptions-clob.polymarket.com/ws/market".
func NewWSClient(wsURL string, onBook BookHandler, onPrice PriceChangeHandler) *WSClient {
	return &WSClient{
		wsURL:   wsURL,
		onBook:  onBook,
		onPrice: onPrice,
		done:    make(chan struct{}),
	}
}

// Connect dials the endpoint and starts the read and ping loops.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("polymarket/ws: %w", domain.ErrWSDisconnect)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket/ws: connect: %w", err)
	}
	w.conn = conn

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop(conn)
	go w.pingLoop(conn)

	return nil
}

// Subscribe subscribes to book and price_change for the given asset IDs.
func (w *WSClient) Subscribe(assetIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("polymarket/ws: not connected")
	}

	for _, ch := range []string{"book", "price_change"} {
		cmd := WSCommand{Type: "subscribe", Channel: ch, Assets: assetIDs}
		data, err := json.Marshal(cmd)
		if err != nil {
			return fmt.Errorf("polymarket/ws: marshal command: %w", err)
		}
		w.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return fmt.Errorf("polymarket/ws: subscribe to %s: %w", ch, err)
		}
	}
	return nil
}

// Done is closed when the connection has terminated for any reason.
func (w *WSClient) Done() <-chan struct{} {
	return w.done
}

// Close shuts down the connection. Safe to call more than once.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// readLoop reads messages until the connection drops, then signals Done.
func (w *WSClient) readLoop(conn *websocket.Conn) {
	defer close(w.done)
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		w.handleMessage(message)
	}
}

// pingLoop keeps the connection alive until it drops. Writes are serialized
// with Subscribe and Close through the client mutex.
func (w *WSClient) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			w.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handleMessage decodes a frame and routes it by event type. The market
// channel may deliver frames as a single object or a JSON array of objects.
func (w *WSClient) handleMessage(raw []byte) {
	var frames []json.RawMessage
	if err := json.Unmarshal(raw, &frames); err != nil {
		frames = []json.RawMessage{raw}
	}

	for _, frame := range frames {
		var envelope struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(frame, &envelope); err != nil {
			continue // drop unparseable frames
		}

		switch envelope.EventType {
		case "book":
			var book BookMessage
			if err := json.Unmarshal(frame, &book); err != nil {
				continue
			}
			if w.onBook != nil {
				w.onBook(BookToSnapshot(&book))
			}
		case "price_change":
			var pc PriceChangeMessage
			if err := json.Unmarshal(frame, &pc); err != nil {
				continue
			}
			if w.onPrice != nil {
				w.onPrice(PriceChangeToDomain(&pc))
			}
		}
	}
}
