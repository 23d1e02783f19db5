package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"matcha-pos/internal/auth"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'kitchen'
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price NUMERIC(10,2) NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		stock_quantity INT NOT NULL DEFAULT 0,
		product_type TEXT NOT NULL DEFAULT 'other',
		capacity TEXT NOT NULL DEFAULT '',
		weight_label TEXT NOT NULL DEFAULT '',
		material TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		customer_name TEXT NOT NULL,
		subtotal_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
		discount_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
		tax_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
		total NUMERIC(10,2) NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_method TEXT NOT NULL DEFAULT 'cash',
		amount_received NUMERIC(10,2),
		change_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
		receipt_number TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INT NOT NULL REFERENCES orders(id),
		product_name TEXT NOT NULL,
		quantity INT NOT NULL,
		price NUMERIC(10,2) NOT NULL DEFAULT 0
	)`,
	// Legacy rows from earlier deployments.
	`UPDATE users SET role = 'kitchen' WHERE role = 'cashier'`,
	`UPDATE orders SET status = 'cancelled' WHERE status IN ('voided', 'refunded')`,
}

// EnsureSchema creates missing tables, normalizes legacy rows, guarantees the
// default accounts exist, and seeds the product catalog on first run.
func EnsureSchema(ctx context.Context, db DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	if err := ensureDefaultUsers(ctx, db); err != nil {
		return err
	}
	return seedProductsIfEmpty(ctx, db)
}

func ensureDefaultUsers(ctx context.Context, db DB) error {
	defaults := []struct {
		username, password, role string
	}{
		{"admin", "admin123", "admin"},
		{"kitchen", "kitchen123", "kitchen"},
	}

	for _, d := range defaults {
		var id int
		var stored string
		err := db.QueryRow(ctx,
			`SELECT id, password FROM users WHERE username = $1 ORDER BY id ASC LIMIT 1`,
			d.username,
		).Scan(&id, &stored)

		switch {
		case errors.Is(err, pgx.ErrNoRows):
			hash, err := auth.Hash(d.password)
			if err != nil {
				return fmt.Errorf("failed to hash default password: %w", err)
			}
			if _, err := db.Exec(ctx,
				`INSERT INTO users (username, password, role) VALUES ($1, $2, $3)`,
				d.username, hash, d.role,
			); err != nil {
				return fmt.Errorf("failed to insert default user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to check default user: %w", err)
		default:
			// Existing row: upgrade a plaintext default credential in place.
			if ok, upgrade := auth.Verify(d.password, stored); ok && upgrade {
				hash, err := auth.Hash(d.password)
				if err != nil {
					return fmt.Errorf("failed to hash default password: %w", err)
				}
				if _, err := db.Exec(ctx,
					`UPDATE users SET password = $1 WHERE id = $2`, hash, id,
				); err != nil {
					return fmt.Errorf("failed to upgrade default credential: %w", err)
				}
			}
		}
	}
	return nil
}

func seedProductsIfEmpty(ctx context.Context, db DB) error {
	var count int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed := []struct {
		name        string
		price       float64
		category    string
		productType string
		capacity    string
		material    string
		description string
	}{
		{"House Cappuccino", 190, "Coffee", "coffee", "240ml cup", "Espresso + steamed milk + foam", "A creamy cappuccino with balanced espresso and a smooth foam cap."},
		{"Signature Espresso", 220, "Coffee", "coffee", "60ml double shot", "100% arabica espresso", "A bold espresso shot with rich body and a clean finish."},
		{"Cafe Latte", 250, "Coffee", "coffee", "300ml cup", "Espresso + steamed milk", "A mellow latte combining espresso and steamed milk."},
		{"Daily Brew Blend", 280, "Coffee", "coffee", "300ml cup", "Fresh brewed house blend", "Daily brewed black coffee with cocoa notes and bright aroma."},
		{"Nitro Cold Brew", 320, "Coffee", "coffee", "300ml cup", "Cold-steeped coffee extract", "Slow-steeped cold brew served chilled with a velvety profile."},
		{"Ceremonial Matcha", 210, "Matcha", "matcha", "240ml cup", "Ceremonial matcha + water", "Stone-ground matcha whisked for a smooth, vibrant cup."},
		{"Matcha Latte", 230, "Matcha", "matcha", "300ml cup", "Matcha + steamed milk", "A creamy matcha latte with balanced umami notes."},
		{"Iced Strawberry Matcha", 245, "Matcha", "matcha", "360ml cup", "Matcha + strawberry puree + milk", "Layered matcha and strawberry blend over ice."},
		{"Croissant", 120, "Pastry", "pastry", "1 piece", "Butter laminated pastry dough", "Buttery, flaky croissant baked fresh daily."},
		{"Classic Cookie", 95, "Pastry", "pastry", "2 pieces", "Butter cookie dough + chocolate chips", "Soft-baked cookies with rich chocolate chips."},
		{"Classic Bagel", 130, "Pastry", "pastry", "1 piece", "Yeast dough bagel", "Chewy and golden-baked classic bagel."},
		{"Matcha Cookie", 110, "Pastry", "pastry", "2 pieces", "Cookie dough + matcha powder", "Buttery cookie infused with mellow earthy matcha."},
	}

	for _, p := range seed {
		if _, err := db.Exec(ctx, `
			INSERT INTO products (name, price, category, image_url, stock_quantity,
			                      product_type, capacity, weight_label, material, description)
			VALUES ($1, $2, $3, '', 25, $4, $5, 'Single serving', $6, $7)
		`, p.name, p.price, p.category, p.productType, p.capacity, p.material, p.description); err != nil {
			return fmt.Errorf("failed to seed product: %w", err)
		}
	}
	return nil
}
