package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

var httpStatusText = map[int]string{
	200: "OK",
	204: "No Content",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	422: "Unprocessable Entity",
	500: "Internal Server Error",
}

// serveHTTP answers plain HTTP requests that arrived on the WebSocket port.
// The caller closes the connection afterwards.
func (s *Server) serveHTTP(ctx context.Context, nc net.Conn, req *ws.Request) {
	if req.Method == "OPTIONS" {
		s.writeHTTP(nc, 204, "", nil)
		return
	}

	switch {
	case req.Method == "GET" && req.Path == "/api/update-status":
		s.serveStatusUpdate(ctx, nc, req)
	case req.Method == "GET" && (req.Path == "/" || req.Path == "/health"):
		s.writeHTTP(nc, 200, "text/plain", []byte("WebSocket server is running.\n"))
	default:
		s.writeHTTP(nc, 404, "text/plain", []byte("Not found.\n"))
	}
}

// serveStatusUpdate applies an order status transition over plain HTTP. The
// caller identifies itself by auth_username only; the endpoint exists for
// kiosk hardware that cannot hold a WebSocket session.
func (s *Server) serveStatusUpdate(ctx context.Context, nc net.Conn, req *ws.Request) {
	id, err := strconv.Atoi(req.Query.Get("id"))
	if err != nil || id <= 0 {
		s.writeJSON(nc, 422, map[string]any{"ok": false, "error": "Invalid order id."})
		return
	}
	next, err := domain.ParseStatus(req.Query.Get("status"))
	if err != nil || next == domain.StatusCancelled {
		s.writeJSON(nc, 422, map[string]any{"ok": false, "error": "Invalid status."})
		return
	}

	username := req.Query.Get("auth_username")
	if username == "" {
		s.writeJSON(nc, 401, map[string]any{"ok": false, "error": "Authentication required."})
		return
	}
	user, err := s.deps.Users.FindByUsername(ctx, username)
	if err != nil {
		s.writeJSON(nc, 500, map[string]any{"ok": false, "error": "Internal error."})
		return
	}
	if user == nil {
		s.writeJSON(nc, 401, map[string]any{"ok": false, "error": "Authentication required."})
		return
	}
	if user.Role != domain.RoleAdmin && user.Role != domain.RoleKitchen {
		s.writeJSON(nc, 403, map[string]any{"ok": false, "error": "Permission denied."})
		return
	}

	current, err := s.deps.Orders.Status(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			s.writeJSON(nc, 404, map[string]any{"ok": false, "error": "Order not found."})
			return
		}
		s.writeJSON(nc, 500, map[string]any{"ok": false, "error": "Internal error."})
		return
	}
	if !current.CanTransitionTo(next) {
		s.writeJSON(nc, 422, map[string]any{
			"ok":    false,
			"error": fmt.Sprintf("Invalid status transition from %s to %s.", current, next),
		})
		return
	}

	updated, err := s.deps.Orders.UpdateStatus(ctx, id, current, next)
	if err != nil {
		s.writeJSON(nc, 500, map[string]any{"ok": false, "error": "Internal error."})
		return
	}
	if !updated {
		s.writeJSON(nc, 422, map[string]any{"ok": false, "error": "Order status changed concurrently."})
		return
	}

	s.broadcast("STATUS_UPDATED", map[string]any{"order_id": id, "status": next})
	s.broadcastOrderHistory(ctx)
	s.broadcastSalesSummary(ctx)

	s.writeJSON(nc, 200, map[string]any{"ok": true, "order_id": id, "status": next})
}

func (s *Server) writeJSON(nc net.Conn, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		data = []byte(`{"ok":false,"error":"Internal error."}`)
		status = 500
	}
	s.writeHTTP(nc, status, "application/json", data)
}

func (s *Server) writeHTTP(nc net.Conn, status int, contentType string, body []byte) {
	head := fmt.Sprintf("HTTP/1.1 %d %s\r\n", status, httpStatusText[status])
	head += "Access-Control-Allow-Origin: *\r\n"
	head += "Access-Control-Allow-Methods: GET, OPTIONS\r\n"
	head += "Access-Control-Allow-Headers: Content-Type\r\n"
	if contentType != "" {
		head += "Content-Type: " + contentType + "\r\n"
	}
	head += fmt.Sprintf("Content-Length: %d\r\n", len(body))
	head += "Connection: close\r\n\r\n"

	nc.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := nc.Write(append([]byte(head), body...)); err != nil {
		s.log.Debug("http_write_failed", "Failed to write HTTP response", "",
			map[string]any{"error": err.Error()})
	}
}
