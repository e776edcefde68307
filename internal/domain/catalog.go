package domain

import (
	"time"
)

// Category represents one node of the storefront category forest.
// Identifiers are canonical strings; Parent is nil for root categories.
// The json tags correspond to the fields expected in API responses/requests.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug,omitempty"`
	Parent    *string   `json:"parent,omitempty"` // ID of the parent category, nil for roots
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CategoryNode is a category with its resolved children, as served in the
// nested tree representation alongside the flat list.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// PathEntry is one step of a resolved root-to-leaf category path.
type PathEntry struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Parent *string `json:"parent"`
}

// Product represents a product in the catalog as consumed by the storefront.
//
// Classification is denormalized at up to three levels: each level carries an
// optional reference to a Category plus a human-readable name used only as a
// fallback when the reference no longer resolves against the category graph.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`

	Images []string `json:"image"`
	Sizes  []string `json:"sizes"`

	Category      string  `json:"category"` // fallback display names
	SubCategory   *string `json:"sub_category,omitempty"`
	ThirdCategory *string `json:"third_category,omitempty"`

	CategoryID      *string `json:"category_id,omitempty"`
	SubCategoryID   *string `json:"sub_category_id,omitempty"`
	ThirdCategoryID *string `json:"third_category_id,omitempty"`

	Bestseller bool      `json:"bestseller"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
