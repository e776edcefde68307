// File: storefront-service/internal/cart/service_test.go
package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/domain"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetCart(ctx context.Context, userID string) (domain.RawCart, error) {
	args := m.Called(ctx, userID)
	var raw domain.RawCart
	if arg0 := args.Get(0); arg0 != nil {
		raw = arg0.(domain.RawCart)
	}
	return raw, args.Error(1)
}

func (m *MockStore) SaveCart(ctx context.Context, userID string, cart domain.CartData) error {
	args := m.Called(ctx, userID, cart)
	return args.Error(0)
}

func (m *MockStore) ClearCart(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func TestService_Snapshot_SanitizesOnRead(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	store.On("GetCart", mock.Anything, "user-1").Return(domain.RawCart{
		"prod-1": {"undefined": float64(2), "10": float64(5)},
	}, nil).Once()

	snapshot, err := svc.Snapshot(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, domain.CartData{"prod-1": {DefaultSize: 2}}, snapshot)
	store.AssertExpectations(t)
}

func TestService_AddItem_IncrementsExistingLine(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	store.On("GetCart", mock.Anything, "user-1").Return(domain.RawCart{
		"prod-1": {"M": float64(1)},
	}, nil).Once()
	store.On("SaveCart", mock.Anything, "user-1", domain.CartData{
		"prod-1": {"M": 3},
	}).Return(nil).Once()

	cart, err := svc.AddItem(context.Background(), "user-1", "prod-1", "M", 2)

	require.NoError(t, err)
	assert.Equal(t, 3, cart["prod-1"]["M"])
	store.AssertExpectations(t)
}

func TestService_AddItem_BlankSizeAndZeroQuantityFloor(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	store.On("GetCart", mock.Anything, "user-1").Return(domain.RawCart{}, nil).Once()
	store.On("SaveCart", mock.Anything, "user-1", domain.CartData{
		"prod-1": {DefaultSize: 1},
	}).Return(nil).Once()

	cart, err := svc.AddItem(context.Background(), "user-1", "prod-1", "", 0)

	require.NoError(t, err)
	assert.Equal(t, 1, cart["prod-1"][DefaultSize])
	store.AssertExpectations(t)
}

func TestService_AddItem_NumericSizeRejected(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	_, err := svc.AddItem(context.Background(), "user-1", "prod-1", "42", 1)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSize))
	store.AssertNotCalled(t, "GetCart", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SaveCart", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_UpdateItem_SetsQuantity(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	store.On("GetCart", mock.Anything, "user-1").Return(domain.RawCart{
		"prod-1": {"M": float64(5)},
	}, nil).Once()
	store.On("SaveCart", mock.Anything, "user-1", domain.CartData{
		"prod-1": {"M": 2},
	}).Return(nil).Once()

	cart, err := svc.UpdateItem(context.Background(), "user-1", "prod-1", "M", 2)

	require.NoError(t, err)
	assert.Equal(t, 2, cart["prod-1"]["M"])
	store.AssertExpectations(t)
}

func TestService_UpdateItem_ZeroRemovesLineAndEmptyProduct(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	store.On("GetCart", mock.Anything, "user-1").Return(domain.RawCart{
		"prod-1": {"M": float64(1)},
		"prod-2": {"M": float64(1), "L": float64(1)},
	}, nil).Twice()
	store.On("SaveCart", mock.Anything, "user-1", mock.Anything).Return(nil).Twice()

	// Removing the only size drops the product row.
	cart, err := svc.UpdateItem(context.Background(), "user-1", "prod-1", "M", 0)
	require.NoError(t, err)
	assert.NotContains(t, cart, "prod-1")

	// Removing one of two sizes keeps the product.
	cart, err = svc.UpdateItem(context.Background(), "user-1", "prod-2", "M", -3)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"L": 1}, cart["prod-2"])

	store.AssertExpectations(t)
}

func TestService_Clear_PropagatesStoreFailure(t *testing.T) {
	store := new(MockStore)
	svc := NewService(store)

	store.On("ClearCart", mock.Anything, "user-1").Return(errors.New("connection reset")).Once()

	err := svc.Clear(context.Background(), "user-1")

	require.Error(t, err)
	store.AssertExpectations(t)
}
