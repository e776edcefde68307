package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/domain"
	"storefront-service/internal/inquiry"
	"storefront-service/internal/store"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	categoryStore store.CategoryStorer
	productStore  store.ProductStorer
	inquiryStore  store.InquiryStorer
	carts         *cart.Service
	submitter     *inquiry.Submitter
	validate      *validator.Validate
	pageSize      int
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(
	cs store.CategoryStorer,
	ps store.ProductStorer,
	is store.InquiryStorer,
	carts *cart.Service,
	submitter *inquiry.Submitter,
	pageSize int,
) *HTTPHandler {
	if pageSize < 1 {
		pageSize = 16
	}
	return &HTTPHandler{
		categoryStore: cs,
		productStore:  ps,
		inquiryStore:  is,
		carts:         carts,
		submitter:     submitter,
		validate:      validator.New(),
		pageSize:      pageSize,
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
			http.Error(w, `{"error": "Internal server error during JSON encoding"}`, http.StatusInternalServerError)
		}
	}
}

// --- Category Handlers ---

// CategoryCreateInput defines the expected input for creating a category.
type CategoryCreateInput struct {
	Name   string  `json:"name" validate:"required,max=255"`
	Slug   string  `json:"slug" validate:"omitempty,max=255"`
	Parent *string `json:"parent" validate:"omitempty"`
}

func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CategoryCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	category := &domain.Category{
		Name:     input.Name,
		Slug:     input.Slug,
		Parent:   input.Parent,
		IsActive: true,
	}

	createdCategory, err := h.categoryStore.CreateCategory(r.Context(), category)
	if err != nil {
		log.Printf("ERROR: CreateCategory store operation failed: %v", err)
		if errors.Is(err, store.ErrCategoryExists) {
			respondWithError(w, http.StatusConflict, store.ErrCategoryExists.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to create category")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, createdCategory)
}

// CategoryListResponse carries the flat category list together with the
// nested tree the storefront renders.
type CategoryListResponse struct {
	Categories []domain.Category      `json:"categories"`
	Tree       []*domain.CategoryNode `json:"tree"`
}

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryStore.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: ListCategories store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve categories")
		return
	}

	respondWithJSON(w, http.StatusOK, CategoryListResponse{
		Categories: categories,
		Tree:       catalog.BuildTree(categories),
	})
}

// CategoryImportInput is a batch of category records in legacy form, with
// identifiers that may be strings, numbers or nested objects. Flat records
// and a nested tree may both be supplied; nested children derive their
// parent from the nesting.
type CategoryImportInput struct {
	Categories []catalog.RawCategory `json:"categories"`
	Tree       []catalog.RawTreeNode `json:"tree"`
}

func countTreeRecords(nodes []catalog.RawTreeNode) int {
	n := len(nodes)
	for _, node := range nodes {
		n += countTreeRecords(node.Children)
	}
	return n
}

// ImportCategories normalizes a legacy category dump and persists every
// record that survives normalization. Malformed records are dropped, not
// fatal, and the response reports both counts.
func (h *HTTPHandler) ImportCategories(w http.ResponseWriter, r *http.Request) {
	var input CategoryImportInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if len(input.Categories) == 0 && len(input.Tree) == 0 {
		respondWithError(w, http.StatusBadRequest, "Validation failed: categories or tree is required")
		return
	}

	normalized, _ := catalog.NormalizeRecords(input.Categories)
	normalized = append(normalized, catalog.FlattenTree(input.Tree)...)

	imported := 0
	for i := range normalized {
		if _, err := h.categoryStore.CreateCategory(r.Context(), &normalized[i]); err != nil {
			if errors.Is(err, store.ErrCategoryExists) {
				continue
			}
			log.Printf("ERROR: ImportCategories failed on record %q: %v", normalized[i].ID, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to import categories")
			return
		}
		imported++
	}

	respondWithJSON(w, http.StatusOK, map[string]int{
		"received":   len(input.Categories) + countTreeRecords(input.Tree),
		"normalized": len(normalized),
		"imported":   imported,
	})
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	if categoryID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	category, err := h.categoryStore.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		log.Printf("ERROR: GetCategoryByID store operation for ID %s failed: %v", categoryID, err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, category)
}

// CategoryUpdateInput defines the expected input for updating a category.
type CategoryUpdateInput struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Slug     string  `json:"slug" validate:"omitempty,max=255"`
	Parent   *string `json:"parent" validate:"omitempty"`
	IsActive *bool   `json:"is_active"`
}

func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	if categoryID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var input CategoryUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	// Business rule: a category cannot be its own parent.
	if input.Parent != nil && *input.Parent == categoryID {
		respondWithError(w, http.StatusBadRequest, "Category cannot be its own parent")
		return
	}
	// Reparenting onto a descendant would detach the subtree into a cycle.
	if input.Parent != nil {
		isDescendant, err := h.isDescendantCategory(r, categoryID, *input.Parent)
		if err != nil {
			log.Printf("ERROR: UpdateCategory descendant check for ID %s failed: %v", categoryID, err)
			respondWithError(w, http.StatusInternalServerError, "Failed to update category")
			return
		}
		if isDescendant {
			respondWithError(w, http.StatusBadRequest, "Cannot set a child category as parent")
			return
		}
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	category := &domain.Category{
		ID:       categoryID,
		Name:     input.Name,
		Slug:     input.Slug,
		Parent:   input.Parent,
		IsActive: isActive,
	}

	updatedCategory, err := h.categoryStore.UpdateCategory(r.Context(), category)
	if err != nil {
		log.Printf("ERROR: UpdateCategory store operation for ID %s failed: %v", categoryID, err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		} else if errors.Is(err, store.ErrCategoryExists) {
			respondWithError(w, http.StatusConflict, store.ErrCategoryExists.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update category")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updatedCategory)
}

// isDescendantCategory reports whether candidate sits below categoryID in
// the category forest. Walks the candidate's parent chain against the full
// lookup table, with the same visited-set guard as path resolution.
func (h *HTTPHandler) isDescendantCategory(r *http.Request, categoryID, candidate string) (bool, error) {
	categories, err := h.categoryStore.ListCategories(r.Context())
	if err != nil {
		return false, err
	}
	byID := catalog.MapByID(categories)

	visited := make(map[string]bool)
	current := candidate
	for current != "" && !visited[current] {
		if current == categoryID {
			return true, nil
		}
		visited[current] = true
		node, ok := byID[current]
		if !ok || node.Parent == nil {
			break
		}
		current = *node.Parent
	}
	return false, nil
}

func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "categoryId")
	if categoryID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid category ID")
		return
	}

	err := h.categoryStore.DeleteCategory(r.Context(), categoryID)
	if err != nil {
		log.Printf("ERROR: DeleteCategory store operation for ID %s failed: %v", categoryID, err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrCategoryNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete category")
		}
		return
	}

	respondWithJSON(w, http.StatusNoContent, nil)
}

// --- Product Handlers ---

// ProductCreateInput defines the expected input for creating a product.
type ProductCreateInput struct {
	Name            string   `json:"name" validate:"required,max=255"`
	Description     *string  `json:"description" validate:"omitempty"`
	Price           float64  `json:"price" validate:"required,gte=0"`
	Images          []string `json:"image" validate:"omitempty,dive,url"`
	Sizes           []string `json:"sizes" validate:"omitempty"`
	Category        string   `json:"category" validate:"omitempty,max=255"`
	SubCategory     *string  `json:"sub_category" validate:"omitempty,max=255"`
	ThirdCategory   *string  `json:"third_category" validate:"omitempty,max=255"`
	CategoryID      *string  `json:"category_id" validate:"omitempty"`
	SubCategoryID   *string  `json:"sub_category_id" validate:"omitempty"`
	ThirdCategoryID *string  `json:"third_category_id" validate:"omitempty"`
	Bestseller      bool     `json:"bestseller"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input ProductCreateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	product := &domain.Product{
		Name:            input.Name,
		Description:     input.Description,
		Price:           input.Price,
		Images:          input.Images,
		Sizes:           input.Sizes,
		Category:        input.Category,
		SubCategory:     input.SubCategory,
		ThirdCategory:   input.ThirdCategory,
		CategoryID:      input.CategoryID,
		SubCategoryID:   input.SubCategoryID,
		ThirdCategoryID: input.ThirdCategoryID,
		Bestseller:      input.Bestseller,
	}

	createdProduct, err := h.productStore.CreateProduct(r.Context(), product)
	if err != nil {
		log.Printf("ERROR: CreateProduct store operation failed: %v", err)
		if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusBadRequest, "Invalid category reference: category does not exist.")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, createdProduct)
}

// ListProducts is the storefront listing: text search, multi-select
// category filter resolved through the category graph, price sorts and
// fixed-size pagination, all applied over the store's newest-first order.
func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	qParams := r.URL.Query()

	page, err := strconv.Atoi(qParams.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	pageSize, err := strconv.Atoi(qParams.Get("page_size"))
	if err != nil || pageSize <= 0 {
		pageSize = h.pageSize
	}
	if pageSize > 100 {
		pageSize = 100
	}

	opts := catalog.FilterOptions{
		Search:      qParams.Get("q"),
		CategoryIDs: qParams["category_id"],
		Sort:        catalog.ParseSortOrder(qParams.Get("sort")),
	}

	products, err := h.productStore.ListProducts(r.Context(), store.ListProductsParams{})
	if err != nil {
		log.Printf("ERROR: ListProducts store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	categories, err := h.categoryStore.ListCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: ListProducts failed to load categories: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	filtered := catalog.Filter(products, catalog.MapByID(categories), opts)
	respondWithJSON(w, http.StatusOK, catalog.Paginate(filtered, pageSize, page))
}

// ProductDetailResponse pairs a product with its resolved root-to-leaf
// category path.
type ProductDetailResponse struct {
	Product      *domain.Product    `json:"product"`
	CategoryPath []domain.PathEntry `json:"category_path"`
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.productStore.GetProductByID(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: GetProductByID store operation for ID %s failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		}
		return
	}

	// Path resolution misses degrade to the denormalized names; a failed
	// category fetch only costs the path, not the product.
	var path []domain.PathEntry
	if categories, err := h.categoryStore.ListCategories(r.Context()); err == nil {
		path = catalog.ProductPath(*product, catalog.MapByID(categories))
	} else {
		log.Printf("WARN: GetProductByID failed to load categories for path resolution: %v", err)
		path = catalog.FallbackPath(*product)
	}

	respondWithJSON(w, http.StatusOK, ProductDetailResponse{Product: product, CategoryPath: path})
}

// ProductUpdateInput defines the expected input for updating a product.
type ProductUpdateInput struct {
	Name            string   `json:"name" validate:"required,max=255"`
	Description     *string  `json:"description" validate:"omitempty"`
	Price           float64  `json:"price" validate:"required,gte=0"`
	Images          []string `json:"image" validate:"omitempty,dive,url"`
	Sizes           []string `json:"sizes" validate:"omitempty"`
	Category        string   `json:"category" validate:"omitempty,max=255"`
	SubCategory     *string  `json:"sub_category" validate:"omitempty,max=255"`
	ThirdCategory   *string  `json:"third_category" validate:"omitempty,max=255"`
	CategoryID      *string  `json:"category_id" validate:"omitempty"`
	SubCategoryID   *string  `json:"sub_category_id" validate:"omitempty"`
	ThirdCategoryID *string  `json:"third_category_id" validate:"omitempty"`
	Bestseller      bool     `json:"bestseller"`
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var input ProductUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	productToUpdate := &domain.Product{
		ID:              productID,
		Name:            input.Name,
		Description:     input.Description,
		Price:           input.Price,
		Images:          input.Images,
		Sizes:           input.Sizes,
		Category:        input.Category,
		SubCategory:     input.SubCategory,
		ThirdCategory:   input.ThirdCategory,
		CategoryID:      input.CategoryID,
		SubCategoryID:   input.SubCategoryID,
		ThirdCategoryID: input.ThirdCategoryID,
		Bestseller:      input.Bestseller,
	}

	updatedProduct, err := h.productStore.UpdateProduct(r.Context(), productToUpdate)
	if err != nil {
		log.Printf("ERROR: UpdateProduct store operation for ID %s failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else if errors.Is(err, store.ErrCategoryNotFound) {
			respondWithError(w, http.StatusBadRequest, "Invalid category reference: category does not exist.")
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updatedProduct)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	err := h.productStore.DeleteProduct(r.Context(), productID)
	if err != nil {
		log.Printf("ERROR: DeleteProduct store operation for ID %s failed: %v", productID, err)
		if errors.Is(err, store.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrProductNotFound.Error())
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		}
		return
	}

	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *HTTPHandler) GetBestsellers(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	bestseller := true
	products, err := h.productStore.ListProducts(r.Context(), store.ListProductsParams{Bestseller: &bestseller})
	if err != nil {
		log.Printf("ERROR: GetBestsellers store operation failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve bestsellers")
		return
	}

	if len(products) > limit {
		products = products[:limit]
	}
	respondWithJSON(w, http.StatusOK, products)
}

// --- Route Registration ---

// RegisterRoutes sets up the HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/categories", func(r chi.Router) {
		r.Post("/", h.CreateCategory)
		r.Get("/", h.ListCategories)
		r.Post("/import", h.ImportCategories)
		r.Route("/{categoryId}", func(r chi.Router) {
			r.Get("/", h.GetCategoryByID)
			r.Put("/", h.UpdateCategory)
			r.Delete("/", h.DeleteCategory)
		})
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Post("/", h.CreateProduct)
		r.Get("/", h.ListProducts)
		// Before the {productId} route so "bestsellers" is not treated as an ID
		r.Get("/bestsellers", h.GetBestsellers)

		r.Route("/{productId}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Put("/", h.UpdateProduct)
			r.Delete("/", h.DeleteProduct)
		})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/add", h.AddCartItem)
		r.Post("/update", h.UpdateCartItem)
		r.Post("/clear", h.ClearCart)
	})

	r.Route("/api/v1/inquiries", func(r chi.Router) {
		r.Post("/", h.CreateInquiry)
		r.Get("/", h.ListInquiries)
		r.Route("/{inquiryId}", func(r chi.Router) {
			r.Post("/resend", h.ResendInquiry)
			r.Put("/status", h.UpdateInquiryStatus)
			r.Put("/email-status", h.UpdateInquiryEmailStatus)
		})
	})
}
