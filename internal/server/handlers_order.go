package server

import (
	"context"
	"encoding/json"
	"fmt"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

type placeOrderPayload struct {
	Customer     string             `json:"customer"`
	CustomerName string             `json:"customer_name"`
	Items        []domain.OrderItem `json:"items"`
	Payment      struct {
		Method         string  `json:"method"`
		AmountReceived float64 `json:"amount_received"`
	} `json:"payment"`
}

func (s *Server) handlePlaceOrder(ctx context.Context, c *ws.Conn, payload json.RawMessage) error {
	var p placeOrderPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	customer := p.Customer
	if customer == "" {
		customer = p.CustomerName
	}

	order, err := domain.NewOrder(customer, p.Items,
		domain.PaymentMethod(p.Payment.Method), p.Payment.AmountReceived)
	if err != nil {
		return err
	}

	if err := s.deps.Orders.Create(ctx, order); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	// Stock decrements for catalog items are best-effort; a failed adjustment
	// never voids an already persisted order.
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		if err := s.deps.Products.AdjustStock(ctx, *item.ProductID, -item.Qty); err != nil {
			s.log.Error("stock_adjust_failed", "Failed to decrement stock", "",
				map[string]any{"product_id": *item.ProductID, "order_id": order.ID}, err)
		}
	}

	view := newOrderView(*order)
	s.broadcast("NEW_ORDER", view)
	s.send(c, "ORDER_PLACED", view)

	s.broadcastProducts(ctx)
	s.broadcastOrderHistory(ctx)
	s.broadcastSalesSummary(ctx)
	return nil
}

type updateStatusPayload struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(ctx context.Context, c *ws.Conn, payload json.RawMessage) error {
	var p updateStatusPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	next, err := domain.ParseStatus(p.Status)
	if err != nil {
		return err
	}

	current, err := s.deps.Orders.Status(ctx, p.ID)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(next) {
		return domain.Invalid("Invalid status transition from %s to %s.", current, next)
	}

	updated, err := s.deps.Orders.UpdateStatus(ctx, p.ID, current, next)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if !updated {
		// The row moved between the read and the guarded write.
		return domain.Invalid("Order status changed concurrently.")
	}

	s.broadcast("STATUS_UPDATED", map[string]any{
		"order_id": p.ID,
		"status":   next,
	})

	if err := s.sendActiveOrders(ctx, c); err != nil {
		return err
	}
	if err := s.sendOrderHistory(ctx, c); err != nil {
		return err
	}
	s.broadcastOrderHistory(ctx)
	s.broadcastSalesSummary(ctx)
	return nil
}

func (s *Server) handleGetActiveOrders(ctx context.Context, c *ws.Conn, _ json.RawMessage) error {
	return s.sendActiveOrders(ctx, c)
}

func (s *Server) handleGetOrderHistory(ctx context.Context, c *ws.Conn, _ json.RawMessage) error {
	return s.sendOrderHistory(ctx, c)
}

func (s *Server) handleGetProducts(ctx context.Context, c *ws.Conn, _ json.RawMessage) error {
	return s.sendProducts(ctx, c)
}

func (s *Server) handleGetSalesSummary(ctx context.Context, c *ws.Conn, _ json.RawMessage) error {
	return s.sendSalesSummary(ctx, c)
}

// Read-model pushes. The send variants answer one connection; the broadcast
// variants refresh everybody after a mutation and only log on failure, since
// there is no single requester to answer.

func (s *Server) activeOrdersPayload(ctx context.Context) ([]orderView, error) {
	orders, err := s.deps.Orders.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active orders: %w", err)
	}
	return orderViews(orders), nil
}

func (s *Server) orderHistoryPayload(ctx context.Context) ([]orderView, error) {
	orders, err := s.deps.Orders.ListHistory(ctx, s.cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load order history: %w", err)
	}
	return orderViews(orders), nil
}

func (s *Server) sendActiveOrders(ctx context.Context, c *ws.Conn) error {
	views, err := s.activeOrdersPayload(ctx)
	if err != nil {
		return err
	}
	s.send(c, "INIT_ORDERS", views)
	return nil
}

func (s *Server) sendOrderHistory(ctx context.Context, c *ws.Conn) error {
	views, err := s.orderHistoryPayload(ctx)
	if err != nil {
		return err
	}
	s.send(c, "ORDER_HISTORY", views)
	return nil
}

func (s *Server) sendProducts(ctx context.Context, c *ws.Conn) error {
	products, err := s.deps.Products.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}
	s.send(c, "PRODUCTS_LIST", products)
	return nil
}

func (s *Server) sendSalesSummary(ctx context.Context, c *ws.Conn) error {
	summary, err := s.deps.Reports.SalesSummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sales summary: %w", err)
	}
	s.send(c, "SALES_SUMMARY", summary)
	return nil
}

func (s *Server) broadcastOrderHistory(ctx context.Context) {
	views, err := s.orderHistoryPayload(ctx)
	if err != nil {
		s.log.Error("broadcast_skipped", "Order history refresh failed", "", nil, err)
		return
	}
	s.broadcast("ORDER_HISTORY", views)
}

func (s *Server) broadcastProducts(ctx context.Context) {
	products, err := s.deps.Products.List(ctx)
	if err != nil {
		s.log.Error("broadcast_skipped", "Product refresh failed", "", nil, err)
		return
	}
	s.broadcast("PRODUCTS_LIST", products)
}

func (s *Server) broadcastSalesSummary(ctx context.Context) {
	summary, err := s.deps.Reports.SalesSummary(ctx)
	if err != nil {
		s.log.Error("broadcast_skipped", "Sales summary refresh failed", "", nil, err)
		return
	}
	s.broadcast("SALES_SUMMARY", summary)
}
