package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

func fetchHTTP(t *testing.T, s *Server, method, rawURL string) (int, string, string) {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("bad test url: %v", err)
	}
	req := &ws.Request{
		Method:  method,
		Path:    u.Path,
		Query:   u.Query(),
		Headers: map[string]string{},
	}

	clientEnd, serverEnd := net.Pipe()
	go func() {
		s.serveHTTP(context.Background(), serverEnd, req)
		serverEnd.Close()
	}()

	raw, err := io.ReadAll(clientEnd)
	clientEnd.Close()
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}

	head, body, ok := strings.Cut(string(raw), "\r\n\r\n")
	if !ok {
		t.Fatalf("response has no header terminator: %q", raw)
	}
	statusLine := strings.SplitN(head, "\r\n", 2)[0]
	parts := strings.SplitN(statusLine, " ", 3)
	if len(parts) < 2 {
		t.Fatalf("malformed status line %q", statusLine)
	}

	status, err := strconv.Atoi(parts[1])
	if err != nil {
		t.Fatalf("unparseable status %q", parts[1])
	}
	return status, head, body
}

func statusUpdateServer(current domain.Status) *Server {
	users := &mockUserRepo{
		FindByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			switch username {
			case "admin":
				return &domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin}, nil
			case "cashier":
				return &domain.User{ID: 3, Username: "cashier", Role: "cashier"}, nil
			}
			return nil, nil
		},
	}
	orders := &mockOrderRepo{
		StatusFunc: func(ctx context.Context, id int) (domain.Status, error) {
			if id == 404 {
				return "", domain.ErrOrderNotFound
			}
			return current, nil
		},
	}
	return testServer(Deps{Users: users, Orders: orders})
}

func TestServeHTTPStatusUpdateMatrix(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantStatus int
	}{
		{"success", "/api/update-status?id=7&status=preparing&auth_username=admin", 200},
		{"missingAuth", "/api/update-status?id=7&status=preparing", 401},
		{"unknownUser", "/api/update-status?id=7&status=preparing&auth_username=ghost", 401},
		{"wrongRole", "/api/update-status?id=7&status=preparing&auth_username=cashier", 403},
		{"orderMissing", "/api/update-status?id=404&status=preparing&auth_username=admin", 404},
		{"badStatus", "/api/update-status?id=7&status=vaporized&auth_username=admin", 422},
		{"cancelledNotExposed", "/api/update-status?id=7&status=cancelled&auth_username=admin", 422},
		{"badID", "/api/update-status?id=zero&status=preparing&auth_username=admin", 422},
		{"illegalTransition", "/api/update-status?id=7&status=completed&auth_username=admin", 422},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := statusUpdateServer(domain.StatusPending)
			status, _, body := fetchHTTP(t, s, "GET", tt.url)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", status, tt.wantStatus, body)
			}

			var decoded struct {
				OK bool `json:"ok"`
			}
			if err := json.Unmarshal([]byte(body), &decoded); err != nil {
				t.Fatalf("body is not JSON: %q", body)
			}
			if decoded.OK != (tt.wantStatus == 200) {
				t.Errorf("ok = %v with status %d", decoded.OK, status)
			}
		})
	}
}

func TestServeHTTPStatusUpdateBroadcasts(t *testing.T) {
	s := statusUpdateServer(domain.StatusPending)
	watcher := connectClient(t, s)

	status, _, _ := fetchHTTP(t, s, "GET", "/api/update-status?id=7&status=preparing&auth_username=admin")
	if status != 200 {
		t.Fatalf("status = %d, want 200", status)
	}

	types := watcher.messageTypes()
	if len(types) == 0 || types[0] != "STATUS_UPDATED" {
		t.Fatalf("watcher messages = %v, want STATUS_UPDATED first", types)
	}
}

func TestServeHTTPPlainRoutes(t *testing.T) {
	s := testServer(Deps{})

	if status, head, _ := fetchHTTP(t, s, "OPTIONS", "/anything"); status != 204 {
		t.Errorf("OPTIONS status = %d, want 204", status)
	} else if !strings.Contains(head, "Access-Control-Allow-Origin: *") {
		t.Error("OPTIONS response lacks CORS header")
	}

	for _, path := range []string{"/", "/health"} {
		status, _, body := fetchHTTP(t, s, "GET", path)
		if status != 200 {
			t.Errorf("GET %s status = %d, want 200", path, status)
		}
		if body != "WebSocket server is running.\n" {
			t.Errorf("GET %s body = %q", path, body)
		}
	}

	if status, _, _ := fetchHTTP(t, s, "GET", "/nope"); status != 404 {
		t.Errorf("GET /nope status = %d, want 404", status)
	}
}
