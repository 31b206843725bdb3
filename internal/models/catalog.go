package models

// Gown is a rentable gown from the CMS catalog.
type Gown struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	PriceCents  int      `json:"price_cents"`
	Sizes       []string `json:"sizes"`
	ImageURLs   []string `json:"image_urls"`
	Available   bool     `json:"available"`
}

// Addon is an accessory offered alongside a gown rental (veils, jewelry, etc.).
type Addon struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int    `json:"price_cents"`
	ImageURL    string `json:"image_url"`
	Available   bool   `json:"available"`
}

// Collection is a themed grouping of gowns from the CMS.
type Collection struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Season      string `json:"season"`
	CoverURL    string `json:"cover_url"`
}
