// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "melbar/internal/log"
)

const (
	// WebSocketPath is the endpoint clients connect to.
	WebSocketPath = "/ws"

	broadcastQueue = 16
	writeTimeout   = 250 * time.Millisecond
)

// ErrTransportClosed is returned by Send after Close.
var ErrTransportClosed = errors.New("transport closed")

// WebSocketTransport broadcasts every frame as JSON to all connected clients.
// Send never blocks: when the broadcast queue is full the frame is dropped,
// since a newer one follows within a frame interval.
type WebSocketTransport struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]struct{}
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	listener net.Listener
	server   *http.Server
}

// NewWebSocketTransport listens on addr and serves WebSocketPath.
func NewWebSocketTransport(addr string) (*WebSocketTransport, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	wst := newWebSocketTransport()
	wst.listener = listener
	wst.server = &http.Server{
		Handler:           wst.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	wst.wg.Add(1)
	go func() {
		defer wst.wg.Done()
		applog.Infof("WebSocketTransport: Serving ws://%s%s", listener.Addr(), WebSocketPath)
		if err := wst.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: Server error: %v", err)
		}
	}()

	return wst, nil
}

func newWebSocketTransport() *WebSocketTransport {
	wst := &WebSocketTransport{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Frames are public; any page may visualize them.
			},
		},
		clients:   make(map[*websocket.Conn]struct{}),
		broadcast: make(chan any, broadcastQueue),
		done:      make(chan struct{}),
	}

	wst.wg.Add(1)
	go wst.handleBroadcasts()
	return wst
}

// Addr returns the listening address, or nil when the transport was built
// without its own server.
func (wst *WebSocketTransport) Addr() net.Addr {
	if wst.listener == nil {
		return nil
	}
	return wst.listener.Addr()
}

// Handler returns the HTTP handler serving WebSocketPath.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(WebSocketPath, wst.handleWebSocket)
	return mux
}

// Clients returns the number of connected clients.
func (wst *WebSocketTransport) Clients() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: Upgrade error: %v", err)
		return
	}

	if !wst.register(conn) {
		conn.Close()
		return
	}

	// Clients only listen; reading detects the close.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.drop(conn)
				return
			}
		}
	}()
}

// register adds conn to the client set. It reports false once Close has
// started; Close sets done before it takes clientsMu, so the check under the
// lock cannot miss it.
func (wst *WebSocketTransport) register(conn *websocket.Conn) bool {
	wst.clientsMu.Lock()
	select {
	case <-wst.done:
		wst.clientsMu.Unlock()
		return false
	default:
	}
	wst.clients[conn] = struct{}{}
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	applog.Infof("WebSocketTransport: Client %s connected, total: %d", conn.RemoteAddr(), total)
	return true
}

func (wst *WebSocketTransport) drop(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	_, ok := wst.clients[conn]
	delete(wst.clients, conn)
	total := len(wst.clients)
	wst.clientsMu.Unlock()

	if ok {
		conn.Close()
		applog.Infof("WebSocketTransport: Client %s disconnected, total: %d", conn.RemoteAddr(), total)
	}
}

// handleBroadcasts encodes each frame once and writes it to every client.
func (wst *WebSocketTransport) handleBroadcasts() {
	defer wst.wg.Done()
	for {
		select {
		case <-wst.done:
			return
		case data := <-wst.broadcast:
			payload, err := json.Marshal(data)
			if err != nil {
				applog.Errorf("WebSocketTransport: Failed to encode frame: %v", err)
				continue
			}

			wst.clientsMu.Lock()
			var failed []*websocket.Conn
			for client := range wst.clients {
				client.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
					applog.Warnf("WebSocketTransport: Error sending to %s: %v", client.RemoteAddr(), err)
					failed = append(failed, client)
				}
			}
			wst.clientsMu.Unlock()

			for _, client := range failed {
				wst.drop(client)
			}
		}
	}
}

// Send queues data for broadcast to all connected WebSocket clients.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return ErrTransportClosed
	default:
	}

	select {
	case wst.broadcast <- data:
	default:
		applog.Debugf("WebSocketTransport: Broadcast queue full, dropping frame")
	}
	return nil
}

// Close disconnects every client and shuts down the server.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		applog.Infof("WebSocketTransport: Closing server")
		close(wst.done)

		if wst.server != nil {
			err = wst.server.Close()
		}

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		clear(wst.clients)
		wst.clientsMu.Unlock()

		wst.wg.Wait()
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
