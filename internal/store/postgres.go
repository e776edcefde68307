package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"storefront-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound = errors.New("store: category not found")
	ErrCategoryExists   = errors.New("store: category with the same name already exists under the selected parent")
	ErrProductNotFound  = errors.New("store: product not found")
	ErrInquiryNotFound  = errors.New("store: inquiry not found")
)

// PostgresStore implements the CategoryStorer, ProductStorer, CartStorer
// and InquiryStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// --- CategoryStorer Implementation ---

func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO storefront.categories (id, name, slug, parent_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, slug, parent_id, is_active, created_at, updated_at;
	`
	id := category.ID
	if id == "" {
		id = uuid.NewString()
	}
	slug := category.Slug
	if slug == "" {
		slug = Slugify(category.Name)
	}

	row := s.db.QueryRowContext(ctx, query, id, category.Name, slug, category.Parent, category.IsActive)

	created, err := scanCategory(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // Unique violation on (name, parent_id)
			if strings.Contains(pqErr.Constraint, "categories_name_parent_key") || strings.Contains(pqErr.Detail, "Key (name") {
				return nil, ErrCategoryExists
			}
		}
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return created, nil
}

// ListCategories retrieves every category, name-ordered. The storefront
// serves the whole forest in one response; the nested tree is derived by
// the catalog package, not here.
func (s *PostgresStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `
		SELECT id, name, slug, parent_id, is_active, created_at, updated_at
		FROM storefront.categories
		ORDER BY name ASC;
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		var parent sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &parent, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		if parent.Valid {
			c.Parent = &parent.String
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}
	return categories, nil
}

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, parent_id, is_active, created_at, updated_at
		FROM storefront.categories
		WHERE id = $1;
	`
	category, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}
	return category, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		UPDATE storefront.categories
		SET name = $1, slug = $2, parent_id = $3, is_active = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING id, name, slug, parent_id, is_active, created_at, updated_at;
	`
	updated, err := scanCategory(s.db.QueryRowContext(ctx, query,
		category.Name, category.Slug, category.Parent, category.IsActive, category.ID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if strings.Contains(pqErr.Constraint, "categories_name_parent_key") || strings.Contains(pqErr.Detail, "Key (name") {
				return nil, ErrCategoryExists
			}
		}
		return nil, fmt.Errorf("store: UpdateCategory failed to scan row: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id string) error {
	query := `DELETE FROM storefront.categories WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteCategory failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	var parent sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &parent, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if parent.Valid {
		c.Parent = &parent.String
	}
	return &c, nil
}

// Slugify derives a URL slug from a category name: lowercase, non-alphanumerics
// stripped, whitespace runs collapsed to single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '\t' || r == '-':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// --- ProductStorer Implementation ---

const productColumns = `id, name, description, price, images, sizes,
		category, sub_category, third_category,
		category_id, sub_category_id, third_category_id,
		bestseller, created_at, updated_at`

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		INSERT INTO storefront.products
			(id, name, description, price, images, sizes,
			 category, sub_category, third_category,
			 category_id, sub_category_id, third_category_id, bestseller)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + productColumns + `;
	`
	id := product.ID
	if id == "" {
		id = uuid.NewString()
	}

	row := s.db.QueryRowContext(ctx, query,
		id, product.Name, product.Description, product.Price,
		pq.Array(product.Images), pq.Array(product.Sizes),
		product.Category, product.SubCategory, product.ThirdCategory,
		product.CategoryID, product.SubCategoryID, product.ThirdCategoryID,
		product.Bestseller,
	)

	created, err := scanProduct(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // FK violation on a category reference
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return created, nil
}

// ListProducts returns products newest-first. That ordering is the
// storefront's "relevance": the filter engine preserves it unless a price
// sort is requested.
func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error) {
	var queryArgs []any
	whereCondition := ""
	if params.Bestseller != nil {
		whereCondition = " WHERE bestseller = $1"
		queryArgs = append(queryArgs, *params.Bestseller)
	}

	query := "SELECT " + productColumns + " FROM storefront.products" + whereCondition + " ORDER BY created_at DESC;"
	rows, err := s.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	query := "SELECT " + productColumns + " FROM storefront.products WHERE id = $1;"
	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return product, nil
}

// GetProductsByIDs fetches the given products in one query. Unknown ids are
// simply absent from the result; the caller decides how to degrade.
func (s *PostgresStore) GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	query := "SELECT " + productColumns + " FROM storefront.products WHERE id = ANY($1);"
	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("store: GetProductsByIDs failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("store: GetProductsByIDs failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: GetProductsByIDs iteration error: %w", err)
	}
	return products, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
		UPDATE storefront.products
		SET name = $1, description = $2, price = $3, images = $4, sizes = $5,
			category = $6, sub_category = $7, third_category = $8,
			category_id = $9, sub_category_id = $10, third_category_id = $11,
			bestseller = $12, updated_at = CURRENT_TIMESTAMP
		WHERE id = $13
		RETURNING ` + productColumns + `;
	`
	updated, err := scanProduct(s.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price,
		pq.Array(product.Images), pq.Array(product.Sizes),
		product.Category, product.SubCategory, product.ThirdCategory,
		product.CategoryID, product.SubCategoryID, product.ThirdCategoryID,
		product.Bestseller, product.ID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id string) error {
	query := `DELETE FROM storefront.products WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var description, subCategory, thirdCategory sql.NullString
	var categoryID, subCategoryID, thirdCategoryID sql.NullString
	var images, sizes pq.StringArray

	err := row.Scan(
		&p.ID, &p.Name, &description, &p.Price, &images, &sizes,
		&p.Category, &subCategory, &thirdCategory,
		&categoryID, &subCategoryID, &thirdCategoryID,
		&p.Bestseller, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Images = images
	p.Sizes = sizes
	if description.Valid {
		p.Description = &description.String
	}
	if subCategory.Valid {
		p.SubCategory = &subCategory.String
	}
	if thirdCategory.Valid {
		p.ThirdCategory = &thirdCategory.String
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.String
	}
	if subCategoryID.Valid {
		p.SubCategoryID = &subCategoryID.String
	}
	if thirdCategoryID.Valid {
		p.ThirdCategoryID = &thirdCategoryID.String
	}
	return &p, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		err := s.db.Close()
		if err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
		return nil
	}
	return nil
}
