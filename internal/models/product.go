package models

// Variant is one purchasable configuration of a product
type Variant struct {
	SKU   string  `json:"sku"`
	Price float64 `json:"price"`
	Color string  `json:"color,omitempty"`
	Band  string  `json:"band,omitempty"`
}

// Product is catalog data. It is fetched, never mutated, by this service.
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Brand          string            `json:"brand"`
	Price          float64           `json:"price"`
	Stock          *int              `json:"stock,omitempty"`
	ThumbnailURL   string            `json:"thumbnailUrl,omitempty"`
	ImageURL       string            `json:"imageUrl,omitempty"`
	Variants       []Variant         `json:"variants"`
	Specifications map[string]string `json:"specifications"`
}

// Specification is one humanized key/value pair
type Specification struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// StockInfo is the stock label shown next to the price
type StockInfo struct {
	Text  string `json:"text"`
	Level string `json:"level"` // unknown, limited, in_stock
}

// ProductView is the UI-facing product detail state
type ProductView struct {
	Product         Product         `json:"product"`
	SelectedVariant *Variant        `json:"selectedVariant,omitempty"`
	Quantity        int             `json:"quantity"`
	DisplayPrice    float64         `json:"displayPrice"`
	Stock           StockInfo       `json:"stock"`
	Images          []string        `json:"images"`
	Specifications  []Specification `json:"specifications"`
	VariantLabel    string          `json:"variantLabel"`
}
