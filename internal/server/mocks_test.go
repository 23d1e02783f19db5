package server

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"matcha-pos/internal/adapter/logger"
	"matcha-pos/internal/config"
	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

// mockOrderRepo is a func-field mock for interfaces.OrderRepository.
type mockOrderRepo struct {
	CreateFunc       func(ctx context.Context, order *domain.Order) error
	StatusFunc       func(ctx context.Context, id int) (domain.Status, error)
	UpdateStatusFunc func(ctx context.Context, id int, from, to domain.Status) (bool, error)
	ListActiveFunc   func(ctx context.Context) ([]domain.Order, error)
	ListHistoryFunc  func(ctx context.Context, limit int) ([]domain.Order, error)
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	order.ID = 1
	order.ReceiptNumber = domain.ReceiptNumber(order.ID, order.CreatedAt)
	return nil
}

func (m *mockOrderRepo) Status(ctx context.Context, id int) (domain.Status, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, id)
	}
	return "", domain.ErrOrderNotFound
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id int, from, to domain.Status) (bool, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to)
	}
	return true, nil
}

func (m *mockOrderRepo) ListActive(ctx context.Context) ([]domain.Order, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ctx)
	}
	return nil, nil
}

func (m *mockOrderRepo) ListHistory(ctx context.Context, limit int) ([]domain.Order, error) {
	if m.ListHistoryFunc != nil {
		return m.ListHistoryFunc(ctx, limit)
	}
	return nil, nil
}

type mockProductRepo struct {
	ListFunc        func(ctx context.Context) ([]domain.Product, error)
	CreateFunc      func(ctx context.Context, p *domain.Product) error
	UpdateFunc      func(ctx context.Context, p *domain.Product) (bool, error)
	DeleteFunc      func(ctx context.Context, id int) (bool, error)
	AdjustStockFunc func(ctx context.Context, id, delta int) error
}

func (m *mockProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	p.ID = 1
	return nil
}

func (m *mockProductRepo) Update(ctx context.Context, p *domain.Product) (bool, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	return true, nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id int) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return true, nil
}

func (m *mockProductRepo) AdjustStock(ctx context.Context, id, delta int) error {
	if m.AdjustStockFunc != nil {
		return m.AdjustStockFunc(ctx, id, delta)
	}
	return nil
}

type mockUserRepo struct {
	ListFunc              func(ctx context.Context) ([]domain.User, error)
	FindByUsernameFunc    func(ctx context.Context, username string) (*domain.User, error)
	ExistsUsernameFunc    func(ctx context.Context, username string) (bool, error)
	CreateFunc            func(ctx context.Context, username, passwordHash string, role domain.Role) error
	UpdateRoleFunc        func(ctx context.Context, id int, role domain.Role) (bool, error)
	UpdatePasswordFunc    func(ctx context.Context, id int, passwordHash string) (bool, error)
	DeleteFunc            func(ctx context.Context, id int) (bool, error)
	UpgradeCredentialFunc func(ctx context.Context, id int, newHash string) error
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) ExistsUsername(ctx context.Context, username string) (bool, error) {
	if m.ExistsUsernameFunc != nil {
		return m.ExistsUsernameFunc(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string, role domain.Role) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, username, passwordHash, role)
	}
	return nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id int, role domain.Role) (bool, error) {
	if m.UpdateRoleFunc != nil {
		return m.UpdateRoleFunc(ctx, id, role)
	}
	return true, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int, passwordHash string) (bool, error) {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return true, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return true, nil
}

func (m *mockUserRepo) UpgradeCredential(ctx context.Context, id int, newHash string) error {
	if m.UpgradeCredentialFunc != nil {
		return m.UpgradeCredentialFunc(ctx, id, newHash)
	}
	return nil
}

type mockReportRepo struct {
	SalesSummaryFunc func(ctx context.Context) (*domain.SalesSummary, error)
	ReportFunc       func(ctx context.Context, fromDate, toDate string) (*domain.Report, error)
}

func (m *mockReportRepo) SalesSummary(ctx context.Context) (*domain.SalesSummary, error) {
	if m.SalesSummaryFunc != nil {
		return m.SalesSummaryFunc(ctx)
	}
	return &domain.SalesSummary{RecentOrders: []domain.OrderDigest{}}, nil
}

func (m *mockReportRepo) Report(ctx context.Context, fromDate, toDate string) (*domain.Report, error) {
	if m.ReportFunc != nil {
		return m.ReportFunc(ctx, fromDate, toDate)
	}
	return &domain.Report{FromDate: fromDate, ToDate: toDate}, nil
}

func testServer(deps Deps) *Server {
	cfg := config.ServerConfig{
		Host:               "127.0.0.1",
		Port:               0,
		PollTimeoutMS:      10,
		HandshakeTimeoutMS: 200,
		ReadLimit:          64 * 1024,
		HistoryLimit:       10,
		SessionTTLMinutes:  60,
	}
	if deps.Orders == nil {
		deps.Orders = &mockOrderRepo{}
	}
	if deps.Products == nil {
		deps.Products = &mockProductRepo{}
	}
	if deps.Users == nil {
		deps.Users = &mockUserRepo{}
	}
	if deps.Reports == nil {
		deps.Reports = &mockReportRepo{}
	}
	return New(cfg, logger.NewNop(), deps)
}

// testClient is the client half of a registered pipe connection. A background
// goroutine drains the server's synchronous frame writes and records the
// decoded envelope stream.
type testClient struct {
	conn *ws.Conn
	nc   net.Conn

	mu       sync.Mutex
	received []envelope
}

func connectClient(t *testing.T, s *Server) *testClient {
	t.Helper()
	clientEnd, serverEnd := net.Pipe()
	c := s.registry.Register(serverEnd)
	tc := &testClient{conn: c, nc: clientEnd}
	t.Cleanup(func() {
		clientEnd.Close()
		serverEnd.Close()
	})

	go func() {
		buf := make([]byte, 64*1024)
		var pending []byte
		for {
			n, err := clientEnd.Read(buf)
			if n > 0 {
				pending = append(pending, buf[:n]...)
				messages, rest, _ := ws.DecodeFrames(pending)
				pending = append(pending[:0], rest...)
				tc.mu.Lock()
				for _, msg := range messages {
					var env envelope
					if json.Unmarshal([]byte(msg), &env) == nil {
						tc.received = append(tc.received, env)
					}
				}
				tc.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()
	return tc
}

// messages waits briefly for the drain goroutine to catch up, then returns the
// envelope types received so far.
func (tc *testClient) messages() []envelope {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		tc.mu.Lock()
		n := len(tc.received)
		tc.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	// One extra settle so trailing frames from the same dispatch land too.
	time.Sleep(5 * time.Millisecond)

	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := make([]envelope, len(tc.received))
	copy(out, tc.received)
	return out
}

func (tc *testClient) messageTypes() []string {
	msgs := tc.messages()
	types := make([]string, 0, len(msgs))
	for _, m := range msgs {
		types = append(types, m.Type)
	}
	return types
}

func dispatchJSON(s *Server, tc *testClient, raw string) {
	s.dispatch(context.Background(), tc.conn, []byte(raw))
}
