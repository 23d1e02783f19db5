package postgres

import (
	"context"
	"fmt"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/interfaces"
)

type productRepository struct {
	db DB
}

func NewProductRepository(db DB) interfaces.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, price, category, image_url, stock_quantity, product_type,
		       capacity, weight_label, material, description
		FROM products
		ORDER BY id DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Price, &p.Category, &p.ImageURL, &p.StockQuantity,
			&p.ProductType, &p.Capacity, &p.WeightLabel, &p.Material, &p.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (name, price, category, image_url, stock_quantity,
		                      product_type, capacity, weight_label, material, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		p.Name, p.Price, p.Category, p.ImageURL, p.StockQuantity,
		p.ProductType, p.Capacity, p.WeightLabel, p.Material, p.Description,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *domain.Product) (bool, error) {
	query := `
		UPDATE products
		SET name = $1, price = $2, category = $3, image_url = $4, stock_quantity = $5,
		    product_type = $6, capacity = $7, weight_label = $8, material = $9, description = $10
		WHERE id = $11
	`
	tag, err := r.db.Exec(ctx, query,
		p.Name, p.Price, p.Category, p.ImageURL, p.StockQuantity,
		p.ProductType, p.Capacity, p.WeightLabel, p.Material, p.Description, p.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *productRepository) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete product: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *productRepository) AdjustStock(ctx context.Context, id, delta int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE products SET stock_quantity = GREATEST(stock_quantity + $1, 0) WHERE id = $2`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	return nil
}
