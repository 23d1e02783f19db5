package domain

import "time"

// OrderDigest is the short order row used by the summary and report read models.
type OrderDigest struct {
	ID           int       `json:"id"`
	CustomerName string    `json:"customer_name"`
	Subtotal     float64   `json:"subtotal_amount"`
	Total        float64   `json:"total"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

type SalesSummary struct {
	TodayOrders           int           `json:"today_orders"`
	TodayRevenue          float64       `json:"today_revenue"`
	TodaySales            float64       `json:"today_sales"`
	CompletedTodayRevenue float64       `json:"completed_today_revenue"`
	PendingCount          int           `json:"pending_count"`
	PreparingCount        int           `json:"preparing_count"`
	CompletedCount        int           `json:"completed_count"`
	CancelledCount        int           `json:"cancelled_count"`
	RecentOrders          []OrderDigest `json:"recent_orders"`
}

type ReportSummary struct {
	TotalOrders      int     `json:"total_orders"`
	TotalSales       float64 `json:"total_sales"`
	CompletedRevenue float64 `json:"completed_revenue"`
	PendingCount     int     `json:"pending_count"`
	PreparingCount   int     `json:"preparing_count"`
	CompletedCount   int     `json:"completed_count"`
	CancelledCount   int     `json:"cancelled_count"`
}

type ProductSales struct {
	ProductName string  `json:"product_name"`
	QtySold     int     `json:"qty_sold"`
	SalesAmount float64 `json:"sales_amount"`
}

type InventoryItem struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	ProductType   string  `json:"product_type"`
	StockQuantity int     `json:"stock_quantity"`
	Price         float64 `json:"price"`
}

type Report struct {
	FromDate    string          `json:"from_date"`
	ToDate      string          `json:"to_date"`
	Summary     ReportSummary   `json:"summary"`
	Orders      []OrderDigest   `json:"orders"`
	TopProducts []ProductSales  `json:"top_products"`
	Inventory   []InventoryItem `json:"inventory"`
}
