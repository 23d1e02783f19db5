package domain

import "strings"

type Product struct {
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

var productTypes = map[string]bool{
	"coffee": true,
	"matcha": true,
	"pastry": true,
	"other":  true,
}

var matchaKeywords = []string{"matcha", "green tea", "uji", "ceremonial"}

var coffeeKeywords = []string{
	"coffee", "espresso", "latte", "cappuccino", "americano",
	"mocha", "brew", "macchiato", "affogato",
}

// InferProductType resolves the catalog type from an explicit value or, failing
// that, from keywords in the product name and category.
func InferProductType(name, category, explicit string) string {
	explicit = strings.ToLower(strings.TrimSpace(explicit))
	if productTypes[explicit] {
		return explicit
	}

	haystack := strings.ToLower(strings.TrimSpace(name + " " + category))
	for _, kw := range matchaKeywords {
		if strings.Contains(haystack, kw) {
			return "matcha"
		}
	}
	for _, kw := range coffeeKeywords {
		if strings.Contains(haystack, kw) {
			return "coffee"
		}
	}
	return "other"
}
