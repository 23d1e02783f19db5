package domain

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusPreparing:
		return StatusPreparing, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	}
	return "", Invalid("unknown order status %q", s)
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// OrderItem is immutable once attached to an order. ProductID is set only for
// items that map to a catalog product; ad-hoc items carry none.
type OrderItem struct {
	ProductID *int    `json:"id,omitempty"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"price"`
}

// Order is created by PLACE_ORDER and mutated only through validated status
// transitions. Orders are never deleted.
type Order struct {
	ID             int
	CustomerName   string
	Items          []OrderItem
	Subtotal       float64
	Discount       float64
	Tax            float64
	Total          float64
	Status         Status
	PaymentMethod  PaymentMethod
	AmountReceived float64
	ChangeAmount   float64
	ReceiptNumber  string
	CreatedAt      time.Time
}

// NewOrder validates and prices a new order. Items with a blank name or
// non-positive quantity are dropped; negative prices are clamped to zero.
func NewOrder(customer string, items []OrderItem, method PaymentMethod, amountReceived float64) (*Order, error) {
	customer = strings.TrimSpace(customer)

	valid := make([]OrderItem, 0, len(items))
	subtotal := 0.0
	for _, item := range items {
		item.Name = strings.TrimSpace(item.Name)
		if item.Name == "" || item.Qty <= 0 {
			continue
		}
		if item.Price < 0 {
			item.Price = 0
		}
		valid = append(valid, item)
		subtotal += item.Price * float64(item.Qty)
	}

	if customer == "" || len(valid) == 0 {
		return nil, Invalid("Customer name and at least one valid order item are required.")
	}

	if method != PaymentCash && method != PaymentCard {
		return nil, Invalid("Invalid payment method.")
	}

	total := subtotal
	switch method {
	case PaymentCash:
		if amountReceived < total {
			return nil, Invalid("Cash received must be greater than or equal to total.")
		}
	case PaymentCard:
		amountReceived = total
	}

	change := amountReceived - total
	if change < 0 {
		change = 0
	}

	return &Order{
		CustomerName:   customer,
		Items:          valid,
		Subtotal:       subtotal,
		Total:          total,
		Status:         StatusPending,
		PaymentMethod:  method,
		AmountReceived: amountReceived,
		ChangeAmount:   change,
		CreatedAt:      time.Now(),
	}, nil
}

// CanTransitionTo checks the order lifecycle transition table. Completed and
// cancelled are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusPreparing || next == StatusCancelled
	case StatusPreparing:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// ReceiptNumber derives the human-readable order identifier from the creation
// date and the order id, e.g. RCP-20240305-000042.
func ReceiptNumber(id int, createdAt time.Time) string {
	return fmt.Sprintf("RCP-%s-%06d", createdAt.Format("20060102"), id)
}
