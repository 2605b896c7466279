package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/MeKo-Tech/boardpass/internal/utils"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// Scan statuses sent for every camera frame.
const (
	ScanStatusNoCode   = "no_code"
	ScanStatusFound    = "found"
	ScanStatusNotFound = "not_found"
	ScanStatusError    = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// ScanRequest is the JSON form of a camera frame. Binary frames carry the
// encoded image bytes directly.
type ScanRequest struct {
	Image []byte `json:"image"`
}

// ScanMessage is the reply to one camera frame.
type ScanMessage struct {
	Status    string      `json:"status"`
	Payload   string      `json:"payload,omitempty"`
	Result    *TicketView `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
	RequestID string      `json:"request_id"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// scanWebSocketHandler streams camera frames until a ticket is found or the
// client disconnects.
func (s *Server) scanWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket scan session started", "remote_addr", r.RemoteAddr, "request_id", requestIDFrom(r.Context()))
	s.handleWebSocketConnection(r.Context(), conn)
}

// handleWebSocketConnection processes frames from one connection.
func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(s.wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	// Writes from the ping loop and the frame loop must not interleave.
	var mu sync.Mutex
	writer := &lockedWriter{conn: conn, mu: &mu}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				mu.Lock()
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
				mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("WebSocket closed unexpectedly", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if messageType == websocket.TextMessage {
			var req ScanRequest
			if err := json.Unmarshal(data, &req); err != nil {
				s.sendScanMessage(writer, ScanMessage{Status: ScanStatusError, ErrorType: "invalid_request", Error: "Failed to parse request: " + err.Error()})
				continue
			}
			data = req.Image
		}
		s.sendScanMessage(writer, s.scanFrame(ctx, data))
	}
}

// scanFrame decodes and resolves a single camera frame. Frames without a
// readable code are expected while the camera is being aimed.
func (s *Server) scanFrame(ctx context.Context, frame []byte) ScanMessage {
	if len(frame) == 0 {
		return ScanMessage{Status: ScanStatusError, ErrorType: "invalid_request", Error: "No image data provided"}
	}
	img, err := utils.DecodeImageBytes(frame)
	if err != nil {
		return ScanMessage{Status: ScanStatusError, ErrorType: "invalid_image", Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
	defer cancel()

	payload, rec, err := s.scan(ctx, img)
	scansTotal.WithLabelValues("websocket", outcome(err)).Inc()
	switch {
	case err == nil:
		view := newTicketView(rec)
		return ScanMessage{Status: ScanStatusFound, Payload: payload, Result: &view}
	case errors.Is(err, barcode.ErrDecodeFailure):
		return ScanMessage{Status: ScanStatusNoCode}
	case errors.Is(err, ticket.ErrNotFound):
		return ScanMessage{Status: ScanStatusNotFound, Payload: payload}
	default:
		_, code, retryable := errorStatus(err)
		return ScanMessage{Status: ScanStatusError, Payload: payload, ErrorType: code, Error: err.Error(), Retryable: retryable}
	}
}

// sendScanMessage stamps a request ID and writes the message.
func (s *Server) sendScanMessage(conn WebSocketConnWriter, msg ScanMessage) {
	if msg.RequestID == "" {
		msg.RequestID = uuid.NewString()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal WebSocket message", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

type lockedWriter struct {
	conn *websocket.Conn
	mu   *sync.Mutex
}

func (l *lockedWriter) WriteMessage(messageType int, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return l.conn.WriteMessage(messageType, data)
}
