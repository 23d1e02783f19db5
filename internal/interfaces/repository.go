package interfaces

import (
	"context"

	"matcha-pos/internal/domain"
)

// OrderRepository persists orders and their items. Create assigns the order id
// and receipt number on the passed order.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	// Status returns domain.ErrOrderNotFound when no such order exists.
	Status(ctx context.Context, id int) (domain.Status, error)
	// UpdateStatus applies the transition only if the stored status still
	// equals from; it reports whether a row was updated.
	UpdateStatus(ctx context.Context, id int, from, to domain.Status) (bool, error)
	ListActive(ctx context.Context) ([]domain.Order, error)
	ListHistory(ctx context.Context, limit int) ([]domain.Order, error)
}

type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	// Update reports whether the product existed.
	Update(ctx context.Context, p *domain.Product) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	// AdjustStock adds delta to the stock quantity, clamping at zero.
	AdjustStock(ctx context.Context, id, delta int) error
}

type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	// FindByUsername returns (nil, nil) when no user matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, username, passwordHash string, role domain.Role) error
	UpdateRole(ctx context.Context, id int, role domain.Role) (bool, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) (bool, error)
	Delete(ctx context.Context, id int) (bool, error)
	// UpgradeCredential replaces a verified legacy plaintext credential with
	// its hashed form.
	UpgradeCredential(ctx context.Context, id int, newHash string) error
}

type ReportRepository interface {
	SalesSummary(ctx context.Context) (*domain.SalesSummary, error)
	// Report aggregates orders between fromDate and toDate, inclusive
	// (YYYY-MM-DD).
	Report(ctx context.Context, fromDate, toDate string) (*domain.Report, error)
}
