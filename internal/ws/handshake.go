package ws

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// WebSocket GUID per RFC 6455 Section 1.3.
const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// How often the handshake read loop polls for more header bytes.
const handshakePollInterval = 10 * time.Millisecond

// Result classifies an inbound byte stream on a freshly accepted connection.
type Result int

const (
	// ResultUpgraded means the 101 response was written and the connection
	// now speaks WebSocket.
	ResultUpgraded Result = iota
	// ResultHTTP means the bytes form a plain HTTP request for the fallback
	// surface; no response has been written yet.
	ResultHTTP
	// ResultRejected means the header was malformed or never arrived; a 400
	// was written and the connection should be closed.
	ResultRejected
)

// Request is the parsed request line and headers of the inbound stream.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers map[string]string
}

// Header does a case-insensitive header lookup.
func (r *Request) Header(name string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// AcceptKey computes the Sec-WebSocket-Accept value for a client key.
func AcceptKey(secKey string) string {
	sum := sha1.Sum([]byte(secKey + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Negotiate reads the request head from a freshly accepted connection, within
// budget, and either completes the RFC 6455 handshake (writing the 101) or
// hands the parsed request back for the plain-HTTP fallback. Malformed or
// absent headers get a 400 and ResultRejected.
func Negotiate(conn net.Conn, budget time.Duration) (Result, *Request, error) {
	raw := readRequestHead(conn, budget)
	if len(bytes.TrimSpace(raw)) == 0 {
		conn.Write(badRequestResponse())
		return ResultRejected, nil, nil
	}

	req, err := parseRequest(raw)
	if err != nil {
		conn.Write(badRequestResponse())
		return ResultRejected, nil, err
	}

	key := req.Header("Sec-WebSocket-Key")
	if key == "" {
		return ResultHTTP, req, nil
	}

	if _, err := conn.Write(upgradeResponse(AcceptKey(key))); err != nil {
		return ResultRejected, nil, fmt.Errorf("failed to write upgrade response: %w", err)
	}
	return ResultUpgraded, req, nil
}

// readRequestHead accumulates bytes until the header terminator appears or the
// budget runs out. The short per-read deadline keeps one slow client from
// holding the accept path longer than the budget.
func readRequestHead(conn net.Conn, budget time.Duration) []byte {
	deadline := time.Now().Add(budget)
	var head bytes.Buffer
	chunk := make([]byte, 2048)

	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(handshakePollInterval))
		n, err := conn.Read(chunk)
		if n > 0 {
			head.Write(chunk[:n])
			if bytes.Contains(head.Bytes(), []byte("\r\n\r\n")) {
				break
			}
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			break
		}
	}
	conn.SetReadDeadline(time.Time{})
	return head.Bytes()
}

func parseRequest(raw []byte) (*Request, error) {
	lines := strings.Split(string(raw), "\r\n")
	parts := strings.SplitN(strings.TrimSpace(lines[0]), " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("malformed request line %q", lines[0])
	}

	u, err := url.Parse(parts[1])
	if err != nil {
		return nil, fmt.Errorf("malformed request target %q", parts[1])
	}

	req := &Request{
		Method:  strings.ToUpper(parts[0]),
		Path:    u.Path,
		Query:   u.Query(),
		Headers: make(map[string]string),
	}
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if idx := strings.Index(line, ":"); idx > 0 {
			req.Headers[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
		}
	}
	return req, nil
}

func upgradeResponse(acceptKey string) []byte {
	return []byte("HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + acceptKey + "\r\n\r\n")
}

func badRequestResponse() []byte {
	return []byte("HTTP/1.1 400 Bad Request\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Length: 11\r\n" +
		"Connection: close\r\n\r\n" +
		"Bad Request")
}
