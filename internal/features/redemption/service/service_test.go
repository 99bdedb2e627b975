package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "streamwear-backend/internal/common/errors"
	connectormodels "streamwear-backend/internal/features/connector/models"
	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/giveaway/repository"
	"streamwear-backend/internal/platform/shopify"
)

type fakeRepo struct {
	repository.GiveawayRepository

	details   map[string]*models.WinnerDetail
	giveaways map[string]*models.Giveaway
	orders    map[string]*models.GiveawayOrder
}

func (f *fakeRepo) GetWinnerDetail(_ context.Context, id string) (*models.WinnerDetail, error) {
	return f.details[id], nil
}

func (f *fakeRepo) GetGiveaway(_ context.Context, id string) (*models.Giveaway, error) {
	return f.giveaways[id], nil
}

func (f *fakeRepo) GetOrder(_ context.Context, id string) (*models.GiveawayOrder, error) {
	return f.orders[id], nil
}

type fakeConnectors struct{}

func (fakeConnectors) GetByUUID(context.Context, string) (*connectormodels.StreamerConnector, error) {
	return &connectormodels.StreamerConnector{UUID: "uuid-a", DisplayName: "Streamer A"}, nil
}

func (fakeConnectors) ListByCollectionHandles(context.Context, []string) ([]connectormodels.StreamerConnector, error) {
	return nil, nil
}

type fakeCatalog struct {
	product *shopify.Product
	err     error
}

func (f *fakeCatalog) ProductDetails(context.Context, int64) (*shopify.Product, error) {
	return f.product, f.err
}

func fixture(catalog CatalogClient) *RedemptionService {
	login := "winner_ttv"
	repo := &fakeRepo{
		details: map[string]*models.WinnerDetail{
			"code-1": {ID: "code-1", GiveawayID: "g-1", ShopifyProductID: ptr(int64(111)), ShopifyVariantID: ptr(int64(1111))},
		},
		giveaways: map[string]*models.Giveaway{
			"g-1": {ID: "g-1", GiveawayOrderID: "order-1", StreamerUUID: "uuid-a", WinnerTwitchLogin: &login},
		},
		orders: map[string]*models.GiveawayOrder{
			"order-1": {ID: "order-1", ProductID: 111, ProductTitle: "Hoodie", Quantity: 1},
		},
	}
	return NewRedemptionService(repo, fakeConnectors{}, catalog)
}

func ptr[T any](v T) *T { return &v }

func TestResolve(t *testing.T) {
	catalog := &fakeCatalog{product: &shopify.Product{
		ID:    111,
		Title: "Hoodie",
		Variants: []shopify.Variant{
			{ID: 1111, Title: "M", AvailableForSale: true},
			{ID: 1112, Title: "L", AvailableForSale: true},
		},
	}}

	view, err := fixture(catalog).Resolve(context.Background(), "code-1")
	require.NoError(t, err)

	assert.Equal(t, "code-1", view.Code)
	assert.False(t, view.Claimed)
	assert.Equal(t, "Streamer A", view.StreamerName)
	assert.Equal(t, "winner_ttv", view.WinnerLogin)
	assert.Equal(t, "Hoodie", view.ProductTitle)
	require.NotNil(t, view.Product)
	require.NotNil(t, view.DefaultVariant)
	assert.Equal(t, int64(1111), view.DefaultVariant.ID)
}

func TestResolveUnknownCode(t *testing.T) {
	_, err := fixture(&fakeCatalog{}).Resolve(context.Background(), "nope")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidCode, appErr.Code)
}

func TestResolveDegradesWithoutCatalog(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("storefront API: 429 Too Many Requests")}

	view, err := fixture(catalog).Resolve(context.Background(), "code-1")
	require.NoError(t, err)

	// The page still renders from stored data when Shopify is unavailable.
	assert.Equal(t, "Hoodie", view.ProductTitle)
	assert.Nil(t, view.Product)
	assert.Nil(t, view.DefaultVariant)
}

func TestChooseDefaultVariant(t *testing.T) {
	product := &shopify.Product{Variants: []shopify.Variant{
		{ID: 1, Title: "S", AvailableForSale: false},
		{ID: 2, Title: "M", AvailableForSale: true},
		{ID: 3, Title: "L", AvailableForSale: true},
	}}

	tests := []struct {
		name      string
		product   *shopify.Product
		purchased *int64
		want      *int64
	}{
		{"purchased variant still available", product, ptr(int64(3)), ptr(int64(3))},
		{"purchased variant sold out falls back to first available", product, ptr(int64(1)), ptr(int64(2))},
		{"no purchased variant", product, nil, ptr(int64(2))},
		{"nothing available falls back to first", &shopify.Product{Variants: []shopify.Variant{
			{ID: 7, AvailableForSale: false},
		}}, nil, ptr(int64(7))},
		{"no variants", &shopify.Product{}, nil, nil},
		{"nil product", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChooseDefaultVariant(tt.product, tt.purchased)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, got.ID)
		})
	}
}
