// File: storefront-service/internal/store/postgres_category_test.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
)

// Helper function to create a mock DB and PostgresStore for testing
func newMockDBAndStore(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStore) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Failed to create sqlmock")

	store := NewPostgresStore(db)
	require.NotNil(t, store, "Store should not be nil")

	return db, mock, store
}

// Helper function to get a pointer (useful for optional fields in domain structs)
func PtrTo[T any](v T) *T {
	return &v
}

var categoryColumns = []string{"id", "name", "slug", "parent_id", "is_active", "created_at", "updated_at"}

func TestPostgresStore_CreateCategory(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	categoryToCreate := &domain.Category{
		Name:     "Test Category",
		Parent:   nil, // Explicitly nil for a top-level category
		IsActive: true,
	}

	query := regexp.QuoteMeta(`
		INSERT INTO storefront.categories (id, name, slug, parent_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, slug, parent_id, is_active, created_at, updated_at;
	`)

	rows := sqlmock.NewRows(categoryColumns).
		AddRow("cat-1", categoryToCreate.Name, "test-category", nil, true, now, now)

	// The store assigns a fresh UUID and derives the slug when they are blank.
	mock.ExpectQuery(query).
		WithArgs(sqlmock.AnyArg(), categoryToCreate.Name, "test-category", categoryToCreate.Parent, categoryToCreate.IsActive).
		WillReturnRows(rows)

	createdCategory, err := store.CreateCategory(context.Background(), categoryToCreate)

	require.NoError(t, err, "CreateCategory should not return an error")
	require.NotNil(t, createdCategory, "Created category should not be nil")
	assert.Equal(t, "cat-1", createdCategory.ID)
	assert.Equal(t, categoryToCreate.Name, createdCategory.Name)
	assert.Equal(t, "test-category", createdCategory.Slug)
	assert.Nil(t, createdCategory.Parent)
	assert.True(t, createdCategory.IsActive)
	assert.WithinDuration(t, now, createdCategory.CreatedAt, time.Second, "CreatedAt should be close to now")
	assert.WithinDuration(t, now, createdCategory.UpdatedAt, time.Second, "UpdatedAt should be close to now")

	err = mock.ExpectationsWereMet()
	require.NoError(t, err, "SQLmock expectations were not met")
}

func TestPostgresStore_CreateCategory_DuplicateUnderParent(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	categoryToCreate := &domain.Category{
		ID:       "cat-dup",
		Name:     "Existing Category",
		Slug:     "existing-category",
		IsActive: true,
	}

	query := regexp.QuoteMeta(`
		INSERT INTO storefront.categories (id, name, slug, parent_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, slug, parent_id, is_active, created_at, updated_at;
	`)

	pqErr := &pq.Error{Code: "23505", Constraint: "categories_name_parent_key"}
	mock.ExpectQuery(query).
		WithArgs(categoryToCreate.ID, categoryToCreate.Name, categoryToCreate.Slug, categoryToCreate.Parent, categoryToCreate.IsActive).
		WillReturnError(pqErr)

	createdCategory, err := store.CreateCategory(context.Background(), categoryToCreate)

	require.Error(t, err, "CreateCategory should return an error for a duplicate")
	assert.True(t, errors.Is(err, ErrCategoryExists), "Error should be ErrCategoryExists")
	assert.Nil(t, createdCategory, "Created category should be nil on error")

	err = mock.ExpectationsWereMet()
	require.NoError(t, err, "SQLmock expectations were not met")
}

func TestPostgresStore_GetCategoryByID_Found(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	categoryID := "cat-1"
	now := time.Now().Truncate(time.Millisecond)
	expectedCategory := &domain.Category{
		ID:        categoryID,
		Name:      "Found Category",
		Slug:      "found-category",
		Parent:    PtrTo("cat-root"),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := regexp.QuoteMeta(`
		SELECT id, name, slug, parent_id, is_active, created_at, updated_at
		FROM storefront.categories
		WHERE id = $1;
	`)

	rows := sqlmock.NewRows(categoryColumns).
		AddRow(expectedCategory.ID, expectedCategory.Name, expectedCategory.Slug, expectedCategory.Parent, expectedCategory.IsActive, expectedCategory.CreatedAt, expectedCategory.UpdatedAt)

	mock.ExpectQuery(query).WithArgs(categoryID).WillReturnRows(rows)

	category, err := store.GetCategoryByID(context.Background(), categoryID)

	require.NoError(t, err)
	require.NotNil(t, category)
	assert.Equal(t, expectedCategory.ID, category.ID)
	assert.Equal(t, expectedCategory.Name, category.Name)
	assert.Equal(t, expectedCategory.Slug, category.Slug)
	assert.Equal(t, expectedCategory.Parent, category.Parent)
	assert.Equal(t, expectedCategory.CreatedAt.Unix(), category.CreatedAt.Unix())
	assert.Equal(t, expectedCategory.UpdatedAt.Unix(), category.UpdatedAt.Unix())

	err = mock.ExpectationsWereMet()
	require.NoError(t, err)
}

func TestPostgresStore_GetCategoryByID_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	categoryID := "missing"

	query := regexp.QuoteMeta(`
		SELECT id, name, slug, parent_id, is_active, created_at, updated_at
		FROM storefront.categories
		WHERE id = $1;
	`)

	mock.ExpectQuery(query).WithArgs(categoryID).WillReturnError(sql.ErrNoRows)

	category, err := store.GetCategoryByID(context.Background(), categoryID)

	require.Error(t, err, "Expected an error for not found category")
	assert.True(t, errors.Is(err, ErrCategoryNotFound), "Error should be ErrCategoryNotFound")
	assert.Nil(t, category, "Category should be nil when not found")

	err = mock.ExpectationsWereMet()
	require.NoError(t, err)
}

func TestPostgresStore_ListCategories(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)

	query := regexp.QuoteMeta(`
		SELECT id, name, slug, parent_id, is_active, created_at, updated_at
		FROM storefront.categories
		ORDER BY name ASC;
	`)

	rows := sqlmock.NewRows(categoryColumns).
		AddRow("cat-1", "Alpha Category", "alpha-category", nil, true, now, now).
		AddRow("cat-2", "Beta Category", "beta-category", PtrTo("cat-1"), true, now, now)

	mock.ExpectQuery(query).WillReturnRows(rows)

	categories, err := store.ListCategories(context.Background())

	require.NoError(t, err)
	require.Len(t, categories, 2, "Expected 2 categories to be returned")
	assert.Equal(t, "Alpha Category", categories[0].Name)
	assert.Equal(t, "Beta Category", categories[1].Name)
	require.NotNil(t, categories[1].Parent)
	assert.Equal(t, "cat-1", *categories[1].Parent)

	err = mock.ExpectationsWereMet()
	require.NoError(t, err)
}

func TestPostgresStore_UpdateCategory(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	now := time.Now().Truncate(time.Millisecond)
	categoryToUpdate := &domain.Category{
		ID:       "cat-1",
		Name:     "Updated Category Name",
		Slug:     "updated-category-name",
		Parent:   PtrTo("cat-root"),
		IsActive: true,
	}

	query := regexp.QuoteMeta(`
		UPDATE storefront.categories
		SET name = $1, slug = $2, parent_id = $3, is_active = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING id, name, slug, parent_id, is_active, created_at, updated_at;
	`)

	originalCreatedAt := now.Add(-time.Hour)
	rows := sqlmock.NewRows(categoryColumns).
		AddRow(categoryToUpdate.ID, categoryToUpdate.Name, categoryToUpdate.Slug, categoryToUpdate.Parent, categoryToUpdate.IsActive, originalCreatedAt, now)

	mock.ExpectQuery(query).
		WithArgs(categoryToUpdate.Name, categoryToUpdate.Slug, categoryToUpdate.Parent, categoryToUpdate.IsActive, categoryToUpdate.ID).
		WillReturnRows(rows)

	updatedCategory, err := store.UpdateCategory(context.Background(), categoryToUpdate)

	require.NoError(t, err)
	require.NotNil(t, updatedCategory)
	assert.Equal(t, categoryToUpdate.ID, updatedCategory.ID)
	assert.Equal(t, categoryToUpdate.Name, updatedCategory.Name)
	assert.Equal(t, categoryToUpdate.Parent, updatedCategory.Parent)
	assert.Equal(t, originalCreatedAt.Unix(), updatedCategory.CreatedAt.Unix())
	assert.WithinDuration(t, now, updatedCategory.UpdatedAt, time.Second)

	err = mock.ExpectationsWereMet()
	require.NoError(t, err)
}

func TestPostgresStore_UpdateCategory_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	categoryToUpdate := &domain.Category{
		ID:       "missing",
		Name:     "Non Existent",
		Slug:     "non-existent",
		IsActive: true,
	}
	query := regexp.QuoteMeta(`
		UPDATE storefront.categories
		SET name = $1, slug = $2, parent_id = $3, is_active = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $5
		RETURNING id, name, slug, parent_id, is_active, created_at, updated_at;
	`)
	mock.ExpectQuery(query).
		WithArgs(categoryToUpdate.Name, categoryToUpdate.Slug, categoryToUpdate.Parent, categoryToUpdate.IsActive, categoryToUpdate.ID).
		WillReturnError(sql.ErrNoRows)

	_, err := store.UpdateCategory(context.Background(), categoryToUpdate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCategoryNotFound), "Error should be ErrCategoryNotFound")

	err = mock.ExpectationsWereMet()
	require.NoError(t, err)
}

func TestPostgresStore_DeleteCategory_Success(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	categoryID := "cat-1"
	query := regexp.QuoteMeta(`DELETE FROM storefront.categories WHERE id = $1;`)

	mock.ExpectExec(query).WithArgs(categoryID).WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.DeleteCategory(context.Background(), categoryID)

	require.NoError(t, err, "DeleteCategory should not return an error on success")

	err = mock.ExpectationsWereMet()
	require.NoError(t, err, "SQLmock expectations were not met")
}

func TestPostgresStore_DeleteCategory_NotFound(t *testing.T) {
	db, mock, store := newMockDBAndStore(t)
	defer db.Close()

	categoryID := "missing"
	query := regexp.QuoteMeta(`DELETE FROM storefront.categories WHERE id = $1;`)

	mock.ExpectExec(query).WithArgs(categoryID).WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteCategory(context.Background(), categoryID)

	require.Error(t, err, "DeleteCategory should return an error if no rows were affected")
	assert.True(t, errors.Is(err, ErrCategoryNotFound), "Error should be ErrCategoryNotFound")

	err = mock.ExpectationsWereMet()
	require.NoError(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "power-tools", Slugify("Power Tools"))
	assert.Equal(t, "bolts-nuts", Slugify("  Bolts & Nuts  "))
	assert.Equal(t, "m8", Slugify("M8"))
	assert.Equal(t, "", Slugify("---"))
}
