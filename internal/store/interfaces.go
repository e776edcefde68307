package store

import (
	"context"

	"storefront-service/internal/domain"
)

// CategoryStorer defines the database operations for categories.
type CategoryStorer interface {
	CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// ListProductsParams holds parameters for listing products. Search,
// category filtering, sorting and pagination happen in the catalog package
// over the upstream order, so the store surface stays small.
type ListProductsParams struct {
	Bestseller *bool
}

// ProductStorer defines the database operations for products.
type ProductStorer interface {
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CartStorer defines the database operations for per-user cart blobs. Reads
// return raw, unreconciled data; the cart package sanitizes before anything
// else touches it.
type CartStorer interface {
	GetCart(ctx context.Context, userID string) (domain.RawCart, error)
	SaveCart(ctx context.Context, userID string, cart domain.CartData) error
	ClearCart(ctx context.Context, userID string) error
}

// ListInquiriesParams scopes inquiry listings.
type ListInquiriesParams struct {
	UserID *string
	Limit  int
	Offset int
}

// InquiryStorer defines the database operations for inquiries.
type InquiryStorer interface {
	CreateInquiry(ctx context.Context, inq *domain.Inquiry) (*domain.Inquiry, error)
	GetInquiryByID(ctx context.Context, id string) (*domain.Inquiry, error)
	ListInquiries(ctx context.Context, params ListInquiriesParams) ([]domain.Inquiry, int, error)
	UpdateInquiryStatus(ctx context.Context, id string, status domain.InquiryStatus) error
	UpdateInquiryEmailStatus(ctx context.Context, id string, status domain.EmailStatus) error
}
