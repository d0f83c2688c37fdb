package model

// Product is one price hit from a single market. Scrapers fill the raw
// fields; the normalizer and filter stages fill the unit fields on copies.
type Product struct {
	MarketName  string  `json:"market_name"`
	ProductName string  `json:"product_name"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"image_url,omitempty"`
	ProductID   string  `json:"product_id,omitempty"`
	URL         string  `json:"url,omitempty"`

	// Gramaj: weight in grams or volume in millilitres parsed from the
	// product name. Nil when the name carries no amount or the unit is
	// countable (adet, rulo, tablet, yıkama).
	Gramaj *float64 `json:"gramaj,omitempty"`

	UnitType    string   `json:"unit_type,omitempty"`
	UnitValue   *float64 `json:"unit_value,omitempty"`
	IsCountable bool     `json:"is_countable,omitempty"`
	HasUnitInfo bool     `json:"has_unit_info,omitempty"`

	// UnitPrice is the price per 100 g/ml, or per 1 unit for countable
	// goods. Nil when no unit info could be extracted.
	UnitPrice            *float64 `json:"unit_price,omitempty"`
	UnitPricePerKg       *float64 `json:"unit_price_per_kg,omitempty"`
	NormalizedPricePerKg *float64 `json:"normalized_price_per_kg,omitempty"`
}

// Float returns a pointer to v, for the nullable price/amount fields.
func Float(v float64) *float64 {
	return &v
}
