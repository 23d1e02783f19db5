package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"matcha-pos/internal/domain"
	"matcha-pos/internal/ws"
)

type productPayload struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	ImageURL      string  `json:"image_url"`
	StockQuantity int     `json:"stock_quantity"`
	ProductType   string  `json:"product_type"`
	Capacity      string  `json:"capacity"`
	WeightLabel   string  `json:"weight_label"`
	Material      string  `json:"material"`
	Description   string  `json:"description"`
}

func (p *productPayload) toDomain() (*domain.Product, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, domain.Invalid("Product name is required.")
	}
	if p.Price < 0 {
		return nil, domain.Invalid("Product price cannot be negative.")
	}
	stock := p.StockQuantity
	if stock < 0 {
		stock = 0
	}
	return &domain.Product{
		ID:            p.ID,
		Name:          name,
		Price:         p.Price,
		Category:      strings.TrimSpace(p.Category),
		ImageURL:      strings.TrimSpace(p.ImageURL),
		StockQuantity: stock,
		ProductType:   domain.InferProductType(name, p.Category, p.ProductType),
		Capacity:      strings.TrimSpace(p.Capacity),
		WeightLabel:   strings.TrimSpace(p.WeightLabel),
		Material:      strings.TrimSpace(p.Material),
		Description:   strings.TrimSpace(p.Description),
	}, nil
}

func (s *Server) handleCreateProduct(ctx context.Context, _ *ws.Conn, payload json.RawMessage) error {
	var p productPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	product, err := p.toDomain()
	if err != nil {
		return err
	}

	if err := s.deps.Products.Create(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	s.broadcastProducts(ctx)
	return nil
}

func (s *Server) handleUpdateProduct(ctx context.Context, _ *ws.Conn, payload json.RawMessage) error {
	var p productPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	product, err := p.toDomain()
	if err != nil {
		return err
	}

	updated, err := s.deps.Products.Update(ctx, product)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if !updated {
		return domain.Invalid("Product not found.")
	}

	s.broadcastProducts(ctx)
	return nil
}

type deleteProductPayload struct {
	ID int `json:"id"`
}

func (s *Server) handleDeleteProduct(ctx context.Context, _ *ws.Conn, payload json.RawMessage) error {
	var p deleteProductPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}

	deleted, err := s.deps.Products.Delete(ctx, p.ID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return domain.Invalid("Product not found.")
	}

	s.broadcastProducts(ctx)
	return nil
}

type adjustStockPayload struct {
	ID    int `json:"id"`
	Delta int `json:"delta"`
}

func (s *Server) handleAdjustStock(ctx context.Context, _ *ws.Conn, payload json.RawMessage) error {
	var p adjustStockPayload
	if err := decodePayload(payload, &p); err != nil {
		return err
	}
	if p.Delta == 0 {
		return domain.Invalid("Stock adjustment cannot be zero.")
	}

	if err := s.deps.Products.AdjustStock(ctx, p.ID, p.Delta); err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	s.broadcastProducts(ctx)
	return nil
}
