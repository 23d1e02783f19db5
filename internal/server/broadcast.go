package server

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"matcha-pos/internal/ws"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeMessage(msgType string, payload any) []byte {
	data, err := json.Marshal(struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}{msgType, payload})
	if err != nil {
		return nil
	}
	return ws.EncodeText(data)
}

// send writes one message to a single connection.
func (s *Server) send(c *ws.Conn, msgType string, payload any) {
	s.writeFrame(c, encodeMessage(msgType, payload))
}

func (s *Server) sendError(c *ws.Conn, message string) {
	s.send(c, "SERVER_ERROR", map[string]string{"message": message})
}

// broadcast writes one encoded frame to every registered connection in turn.
// Each write is attempted independently; one dead peer never stops the rest.
func (s *Server) broadcast(msgType string, payload any) {
	frame := encodeMessage(msgType, payload)
	for _, c := range s.registry.Conns() {
		s.writeFrame(c, frame)
	}
}

// writeFrame performs one synchronous write. A peer-gone failure prunes the
// connection from the registry; any other failure is logged and tolerated.
func (s *Server) writeFrame(c *ws.Conn, frame []byte) {
	if frame == nil {
		return
	}
	c.NetConn().SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := c.Write(frame); err != nil {
		if isPeerGone(err) {
			s.removeConn(c, "write_failed")
			return
		}
		s.log.Error("write_failed", "Failed to write frame", "",
			map[string]any{"conn_id": c.ID()}, err)
	}
}

// isPeerGone classifies write errors that mean the peer has already left:
// connection reset, broken pipe, closed socket, or a write timeout.
func isPeerGone(err error) bool {
	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
