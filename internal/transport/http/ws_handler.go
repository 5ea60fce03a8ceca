package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	qc "pocketflix-portal/internal/querycache"
)

// WSHandler pushes cache invalidations to connected pages so they can refetch.
type WSHandler struct {
	cache    *qc.Cache
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(cache *qc.Cache, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		cache:  cache,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// invalidation names the invalidated query families. Caller-scoped key
// segments never leave the server.
type invalidation struct {
	Queries []string  `json:"queries"`
	Remote  bool      `json:"remote"`
	At      time.Time `json:"at"`
}

func newInvalidation(ev qc.Event) invalidation {
	seen := make(map[string]bool, len(ev.Prefixes))
	out := invalidation{Queries: []string{}, Remote: ev.Remote, At: ev.At}
	for _, p := range ev.Prefixes {
		if len(p) == 0 || seen[p[0]] {
			continue
		}
		seen[p[0]] = true
		out.Queries = append(out.Queries, p[0])
	}
	return out
}

// ServeWS upgrades the request and streams invalidation events until the peer goes away.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.cache.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write failed", "err", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "invalidate", Payload: newInvalidation(ev)}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "subscribed", Payload: struct{}{}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var reply outboundMessage[any]
		switch inbound.Type {
		case "ping":
			reply = outboundMessage[any]{Type: "pong", Payload: struct{}{}}
		default:
			reply = outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
		select {
		case send <- reply:
		case <-writerDone:
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
