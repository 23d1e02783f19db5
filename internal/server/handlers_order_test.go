package server

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

func TestPlaceOrderFlow(t *testing.T) {
	var adjustments []int
	orders := &mockOrderRepo{
		CreateFunc: func(ctx context.Context, order *domain.Order) error {
			order.ID = 42
			order.ReceiptNumber = domain.ReceiptNumber(order.ID, order.CreatedAt)
			return nil
		},
	}
	products := &mockProductRepo{
		AdjustStockFunc: func(ctx context.Context, id, delta int) error {
			adjustments = append(adjustments, id, delta)
			return nil
		},
	}

	s := testServer(Deps{Orders: orders, Products: products})
	sender := connectClient(t, s)
	observer := connectClient(t, s)

	dispatchJSON(s, sender, `{"type":"PLACE_ORDER","payload":{
		"customer":"Aya",
		"items":[{"id":3,"name":"Matcha Latte","qty":2,"price":100},{"name":"Custom Cake","qty":1,"price":50}],
		"payment":{"method":"cash","amount_received":300}
	}}`)

	// Only the catalog item decrements stock.
	if !reflect.DeepEqual(adjustments, []int{3, -2}) {
		t.Errorf("stock adjustments = %v, want [3 -2]", adjustments)
	}

	wantSender := []string{"NEW_ORDER", "ORDER_PLACED", "PRODUCTS_LIST", "ORDER_HISTORY", "SALES_SUMMARY"}
	if got := sender.messageTypes(); !reflect.DeepEqual(got, wantSender) {
		t.Errorf("sender messages = %v, want %v", got, wantSender)
	}

	wantObserver := []string{"NEW_ORDER", "PRODUCTS_LIST", "ORDER_HISTORY", "SALES_SUMMARY"}
	if got := observer.messageTypes(); !reflect.DeepEqual(got, wantObserver) {
		t.Errorf("observer messages = %v, want %v", got, wantObserver)
	}

	msgs := sender.messages()
	var placed orderView
	if err := json.Unmarshal(msgs[1].Payload, &placed); err != nil {
		t.Fatalf("failed to decode ORDER_PLACED payload: %v", err)
	}
	if placed.ID != 42 || placed.ReceiptNumber == "" {
		t.Errorf("ORDER_PLACED order = id %d receipt %q", placed.ID, placed.ReceiptNumber)
	}
	if placed.Total != 250 || placed.ChangeAmount != 50 {
		t.Errorf("ORDER_PLACED totals = %v change %v, want 250 and 50", placed.Total, placed.ChangeAmount)
	}
	if placed.Customer != "Aya" || placed.CustomerName != "Aya" {
		t.Errorf("ORDER_PLACED customer fields = %q/%q", placed.Customer, placed.CustomerName)
	}
}

func TestPlaceOrderValidationError(t *testing.T) {
	created := false
	s := testServer(Deps{Orders: &mockOrderRepo{
		CreateFunc: func(ctx context.Context, order *domain.Order) error {
			created = true
			return nil
		},
	}})
	tc := connectClient(t, s)

	dispatchJSON(s, tc, `{"type":"PLACE_ORDER","payload":{
		"customer":"Aya",
		"items":[{"name":"Matcha Latte","qty":1,"price":200}],
		"payment":{"method":"cash","amount_received":150}
	}}`)

	if created {
		t.Error("order was persisted despite failing validation")
	}
	msgs := tc.messages()
	if len(msgs) != 1 || msgs[0].Type != "SERVER_ERROR" {
		t.Fatalf("messages = %v, want one SERVER_ERROR", msgs)
	}
	if got := payloadMessage(t, msgs[0]); got != "Cash received must be greater than or equal to total." {
		t.Errorf("message = %q", got)
	}
}

func TestUpdateStatusFlow(t *testing.T) {
	var gotFrom, gotTo domain.Status
	orders := &mockOrderRepo{
		StatusFunc: func(ctx context.Context, id int) (domain.Status, error) {
			return domain.StatusPending, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int, from, to domain.Status) (bool, error) {
			gotFrom, gotTo = from, to
			return true, nil
		},
	}

	s := testServer(Deps{Orders: orders})
	sender := connectClient(t, s)
	observer := connectClient(t, s)
	s.registry.SetSession(sender.conn, &ws.Session{UserID: 2, Username: "kitchen", Role: "kitchen"})

	dispatchJSON(s, sender, `{"type":"UPDATE_STATUS","payload":{"id":7,"status":"preparing"}}`)

	if gotFrom != domain.StatusPending || gotTo != domain.StatusPreparing {
		t.Errorf("guarded update = %s -> %s, want pending -> preparing", gotFrom, gotTo)
	}

	wantSender := []string{"STATUS_UPDATED", "INIT_ORDERS", "ORDER_HISTORY", "ORDER_HISTORY", "SALES_SUMMARY"}
	if got := sender.messageTypes(); !reflect.DeepEqual(got, wantSender) {
		t.Errorf("sender messages = %v, want %v", got, wantSender)
	}
	wantObserver := []string{"STATUS_UPDATED", "ORDER_HISTORY", "SALES_SUMMARY"}
	if got := observer.messageTypes(); !reflect.DeepEqual(got, wantObserver) {
		t.Errorf("observer messages = %v, want %v", got, wantObserver)
	}

	var update struct {
		OrderID int           `json:"order_id"`
		Status  domain.Status `json:"status"`
	}
	if err := json.Unmarshal(observer.messages()[0].Payload, &update); err != nil {
		t.Fatalf("failed to decode STATUS_UPDATED payload: %v", err)
	}
	if update.OrderID != 7 || update.Status != domain.StatusPreparing {
		t.Errorf("STATUS_UPDATED = %+v", update)
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	updated := false
	orders := &mockOrderRepo{
		StatusFunc: func(ctx context.Context, id int) (domain.Status, error) {
			return domain.StatusCompleted, nil
		},
		UpdateStatusFunc: func(ctx context.Context, id int, from, to domain.Status) (bool, error) {
			updated = true
			return true, nil
		},
	}

	s := testServer(Deps{Orders: orders})
	tc := connectClient(t, s)
	s.registry.SetSession(tc.conn, &ws.Session{UserID: 1, Username: "admin", Role: "admin"})

	dispatchJSON(s, tc, `{"type":"UPDATE_STATUS","payload":{"id":7,"status":"preparing"}}`)

	if updated {
		t.Error("illegal transition reached the repository")
	}
	msgs := tc.messages()
	if len(msgs) != 1 || msgs[0].Type != "SERVER_ERROR" {
		t.Fatalf("messages = %v, want one SERVER_ERROR", msgs)
	}
	if got := payloadMessage(t, msgs[0]); got != "Invalid status transition from completed to preparing." {
		t.Errorf("message = %q", got)
	}
}

func TestUpdateStatusOrderNotFound(t *testing.T) {
	s := testServer(Deps{})
	tc := connectClient(t, s)
	s.registry.SetSession(tc.conn, &ws.Session{UserID: 1, Username: "admin", Role: "admin"})

	dispatchJSON(s, tc, `{"type":"UPDATE_STATUS","payload":{"id":999,"status":"preparing"}}`)

	msgs := tc.messages()
	if len(msgs) != 1 || msgs[0].Type != "SERVER_ERROR" {
		t.Fatalf("messages = %v, want one SERVER_ERROR", msgs)
	}
	if got := payloadMessage(t, msgs[0]); got != "Order not found." {
		t.Errorf("message = %q, want Order not found.", got)
	}
}

func TestGetOrderHistoryUsesConfiguredLimit(t *testing.T) {
	var gotLimit int
	s := testServer(Deps{Orders: &mockOrderRepo{
		ListHistoryFunc: func(ctx context.Context, limit int) ([]domain.Order, error) {
			gotLimit = limit
			return nil, nil
		},
	}})
	tc := connectClient(t, s)

	dispatchJSON(s, tc, `{"type":"GET_ORDER_HISTORY"}`)

	if gotLimit != 10 {
		t.Errorf("history limit = %d, want 10 from config", gotLimit)
	}
	if got := tc.messageTypes(); !reflect.DeepEqual(got, []string{"ORDER_HISTORY"}) {
		t.Errorf("messages = %v, want [ORDER_HISTORY]", got)
	}
}
