package server

import (
	"matcha-pos/internal/domain"
)

// orderView is the wire shape of an order in list payloads. CustomerName is
// duplicated under the legacy "customer" key the dashboards still read.
type orderView struct {
	ID             int                  `json:"id"`
	CustomerName   string               `json:"customer_name"`
	Customer       string               `json:"customer"`
	Items          []domain.OrderItem   `json:"items"`
	Subtotal       float64              `json:"subtotal_amount"`
	Discount       float64              `json:"discount_amount"`
	Tax            float64              `json:"tax_amount"`
	Total          float64              `json:"total"`
	Status         domain.Status        `json:"status"`
	PaymentMethod  domain.PaymentMethod `json:"payment_method"`
	AmountReceived float64              `json:"amount_received"`
	ChangeAmount   float64              `json:"change_amount"`
	ReceiptNumber  string               `json:"receipt_number"`
	CreatedAt      string               `json:"created_at"`
	Time           string               `json:"time"`
}

func newOrderView(o domain.Order) orderView {
	items := o.Items
	if items == nil {
		items = []domain.OrderItem{}
	}
	return orderView{
		ID:             o.ID,
		CustomerName:   o.CustomerName,
		Customer:       o.CustomerName,
		Items:          items,
		Subtotal:       o.Subtotal,
		Discount:       o.Discount,
		Tax:            o.Tax,
		Total:          o.Total,
		Status:         o.Status,
		PaymentMethod:  o.PaymentMethod,
		AmountReceived: o.AmountReceived,
		ChangeAmount:   o.ChangeAmount,
		ReceiptNumber:  o.ReceiptNumber,
		CreatedAt:      o.CreatedAt.Format("2006-01-02 15:04:05"),
		Time:           o.CreatedAt.Format("15:04"),
	}
}

func orderViews(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}
	return views
}
