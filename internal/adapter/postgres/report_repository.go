package postgres

import (
	"context"
	"fmt"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/interfaces"
)

type reportRepository struct {
	db DB
}

func NewReportRepository(db DB) interfaces.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) SalesSummary(ctx context.Context) (*domain.SalesSummary, error) {
	summary := &domain.SalesSummary{RecentOrders: []domain.OrderDigest{}}

	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE created_at::date = CURRENT_DATE`,
	).Scan(&summary.TodayOrders)
	if err != nil {
		return nil, fmt.Errorf("failed to count today's orders: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at::date = CURRENT_DATE AND status IN ('pending', 'preparing', 'completed')
	`).Scan(&summary.TodayRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to sum today's revenue: %w", err)
	}
	summary.TodaySales = summary.TodayRevenue

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total), 0)
		FROM orders
		WHERE created_at::date = CURRENT_DATE AND status = 'completed'
	`).Scan(&summary.CompletedTodayRevenue)
	if err != nil {
		return nil, fmt.Errorf("failed to sum completed revenue: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		switch status {
		case domain.StatusPending:
			summary.PendingCount = count
		case domain.StatusPreparing:
			summary.PreparingCount = count
		case domain.StatusCompleted:
			summary.CompletedCount = count
		case domain.StatusCancelled:
			summary.CancelledCount = count
		}
	}

	recent, err := r.queryDigests(ctx, `
		SELECT id, customer_name, subtotal_amount, total, status, created_at
		FROM orders ORDER BY created_at DESC LIMIT 8
	`)
	if err != nil {
		return nil, err
	}
	summary.RecentOrders = recent

	return summary, nil
}

func (r *reportRepository) Report(ctx context.Context, fromDate, toDate string) (*domain.Report, error) {
	from := fromDate + " 00:00:00"
	to := toDate + " 23:59:59"

	report := &domain.Report{
		FromDate:    fromDate,
		ToDate:      toDate,
		Orders:      []domain.OrderDigest{},
		TopProducts: []domain.ProductSales{},
		Inventory:   []domain.InventoryItem{},
	}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN total ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'preparing' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0)
		FROM orders
		WHERE created_at BETWEEN $1::timestamp AND $2::timestamp
	`, from, to).Scan(
		&report.Summary.TotalOrders,
		&report.Summary.TotalSales,
		&report.Summary.PendingCount,
		&report.Summary.PreparingCount,
		&report.Summary.CompletedCount,
		&report.Summary.CancelledCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate report summary: %w", err)
	}
	report.Summary.CompletedRevenue = report.Summary.TotalSales

	orders, err := r.queryDigests(ctx, `
		SELECT id, customer_name, subtotal_amount, total, status, created_at
		FROM orders
		WHERE created_at BETWEEN $1::timestamp AND $2::timestamp
		ORDER BY created_at DESC
	`, from, to)
	if err != nil {
		return nil, err
	}
	report.Orders = orders

	topRows, err := r.db.Query(ctx, `
		SELECT oi.product_name, SUM(oi.quantity), COALESCE(SUM(oi.quantity * oi.price), 0)
		FROM order_items oi
		INNER JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at BETWEEN $1::timestamp AND $2::timestamp
		GROUP BY oi.product_name
		ORDER BY SUM(oi.quantity) DESC, COALESCE(SUM(oi.quantity * oi.price), 0) DESC
		LIMIT 10
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer topRows.Close()
	for topRows.Next() {
		var ps domain.ProductSales
		if err := topRows.Scan(&ps.ProductName, &ps.QtySold, &ps.SalesAmount); err != nil {
			return nil, fmt.Errorf("failed to scan top product: %w", err)
		}
		report.TopProducts = append(report.TopProducts, ps)
	}

	invRows, err := r.db.Query(ctx, `
		SELECT id, name, category, product_type, stock_quantity, price
		FROM products
		ORDER BY stock_quantity ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer invRows.Close()
	for invRows.Next() {
		var item domain.InventoryItem
		if err := invRows.Scan(&item.ID, &item.Name, &item.Category, &item.ProductType,
			&item.StockQuantity, &item.Price); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		report.Inventory = append(report.Inventory, item)
	}

	return report, nil
}

func (r *reportRepository) queryDigests(ctx context.Context, query string, args ...any) ([]domain.OrderDigest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order digests: %w", err)
	}
	defer rows.Close()

	digests := []domain.OrderDigest{}
	for rows.Next() {
		var d domain.OrderDigest
		if err := rows.Scan(&d.ID, &d.CustomerName, &d.Subtotal, &d.Total, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order digest: %w", err)
		}
		digests = append(digests, d)
	}
	return digests, nil
}
