package server

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWebSocketConn records written messages.
type mockWebSocketConn struct {
	sent [][]byte
}

func (m *mockWebSocketConn) WriteMessage(_ int, data []byte) error {
	m.sent = append(m.sent, data)
	return nil
}

func dialScan(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/scan"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readScan(t *testing.T, conn *websocket.Conn) ScanMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg ScanMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.NotEmpty(t, msg.RequestID)
	return msg
}

func TestScanWebSocket(t *testing.T) {
	conn := dialScan(t, newTestServer(t))

	t.Run("frame without code", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, blankPNG(t)))
		assert.Equal(t, ScanStatusNoCode, readScan(t, conn).Status)
	})

	t.Run("frame with known ticket", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, qrPNG(t, "LH401")))
		msg := readScan(t, conn)
		require.Equal(t, ScanStatusFound, msg.Status)
		assert.Equal(t, "LH401", msg.Payload)
		require.NotNil(t, msg.Result)
		assert.Equal(t, "Jane Doe", msg.Result.Ticket.PassengerName)
	})

	t.Run("json frame with unknown ticket", func(t *testing.T) {
		body, err := json.Marshal(ScanRequest{Image: qrPNG(t, "ZZ000")})
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, body))
		msg := readScan(t, conn)
		assert.Equal(t, ScanStatusNotFound, msg.Status)
		assert.Equal(t, "ZZ000", msg.Payload)
	})

	t.Run("malformed json", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{oops")))
		msg := readScan(t, conn)
		assert.Equal(t, ScanStatusError, msg.Status)
		assert.Equal(t, "invalid_request", msg.ErrorType)
	})

	t.Run("not an image", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("hello")))
		msg := readScan(t, conn)
		assert.Equal(t, ScanStatusError, msg.Status)
		assert.Equal(t, "invalid_image", msg.ErrorType)
	})
}

func TestScanWebSocketRejectsOversizedFrame(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, int64(10<<20), s.wsReadLimit)
	s.wsReadLimit = 1024
	conn := dialScan(t, s)

	_ = conn.WriteMessage(websocket.BinaryMessage, make([]byte, 2048))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err, "an oversized frame ends the session without a scan reply")

	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		assert.Equal(t, websocket.CloseMessageTooBig, ce.Code)
	}
}

func TestScanFrameLookupUnavailable(t *testing.T) {
	s := NewServer(testConfig(), unavailableLookup(), nil)
	msg := s.scanFrame(t.Context(), qrPNG(t, "LH401"))
	assert.Equal(t, ScanStatusError, msg.Status)
	assert.Equal(t, "lookup_unavailable", msg.ErrorType)
	assert.True(t, msg.Retryable)
}

func TestScanFrameEmpty(t *testing.T) {
	msg := newTestServer(t).scanFrame(t.Context(), nil)
	assert.Equal(t, ScanStatusError, msg.Status)
	assert.Equal(t, "invalid_request", msg.ErrorType)
}

func TestSendScanMessage(t *testing.T) {
	conn := &mockWebSocketConn{}
	newTestServer(t).sendScanMessage(conn, ScanMessage{Status: ScanStatusNoCode, RequestID: "fixed"})

	require.Len(t, conn.sent, 1)
	var msg ScanMessage
	require.NoError(t, json.Unmarshal(conn.sent[0], &msg))
	assert.Equal(t, ScanStatusNoCode, msg.Status)
	assert.Equal(t, "fixed", msg.RequestID)
}
