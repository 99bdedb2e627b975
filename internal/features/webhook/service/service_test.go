package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamwear-backend/internal/features/alerts"
	connectormodels "streamwear-backend/internal/features/connector/models"
	giveawaymodels "streamwear-backend/internal/features/giveaway/models"
	giveawayrepo "streamwear-backend/internal/features/giveaway/repository"
	"streamwear-backend/internal/features/webhook/models"
	"streamwear-backend/internal/platform/shopify"
)

type fakeResolver struct {
	collections map[int64][]shopify.Collection
}

func (f *fakeResolver) CollectionsForProduct(_ context.Context, productID int64) []shopify.Collection {
	return f.collections[productID]
}

type fakeConnectors struct {
	byHandle map[string]connectormodels.StreamerConnector
}

func (f *fakeConnectors) GetByUUID(_ context.Context, uuid string) (*connectormodels.StreamerConnector, error) {
	for _, c := range f.byHandle {
		if c.UUID == uuid {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeConnectors) ListByCollectionHandles(_ context.Context, handles []string) ([]connectormodels.StreamerConnector, error) {
	var out []connectormodels.StreamerConnector
	for _, h := range handles {
		if c, ok := f.byHandle[h]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeGiveaways struct {
	giveawayrepo.GiveawayRepository

	orders map[[2]int64]*giveawaymodels.GiveawayOrder
}

func newFakeGiveaways() *fakeGiveaways {
	return &fakeGiveaways{orders: make(map[[2]int64]*giveawaymodels.GiveawayOrder)}
}

func (f *fakeGiveaways) UpsertOrder(_ context.Context, o *giveawaymodels.GiveawayOrder) (bool, error) {
	key := [2]int64{o.ExternalOrderID, o.LineItemID}
	if _, ok := f.orders[key]; ok {
		return false, nil
	}
	f.orders[key] = o
	return true, nil
}

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) Publish(_ context.Context, streamerUUID string, _ alerts.Payload) error {
	f.published = append(f.published, streamerUUID)
	return nil
}

type fakeMailer struct {
	sent []string
}

func (f *fakeMailer) SendGiveawayOrderEmail(_ context.Context, to, _, _ string) error {
	f.sent = append(f.sent, to)
	return nil
}

func testOrder() *models.Order {
	return &models.Order{
		ID:        900001,
		Currency:  "EUR",
		CreatedAt: "2025-06-01T18:00:00Z",
		Customer:  &models.Customer{FirstName: "Lena", LastName: "M", Email: "lena@example.com"},
		LineItems: []models.LineItem{
			{ID: 1, ProductID: 111, VariantID: 1111, Quantity: 1, Title: "Streamer A Hoodie", VariantTitle: "M", Price: "49.99"},
			{ID: 2, ProductID: 222, VariantID: 2222, Quantity: 2, Title: "House Sticker", Price: "2.99"},
		},
		NoteAttributes: []models.NoteAttribute{
			{Name: "giveaway", Value: "yes"},
			{Name: "twitch_username", Value: "lena_ttv"},
		},
	}
}

func TestProcessOrderMaterializesEligibleLineItems(t *testing.T) {
	resolver := &fakeResolver{collections: map[int64][]shopify.Collection{
		111: {{Handle: "streamer-a", Title: "Streamer A"}},
		// product 222 belongs to no registered collection
	}}
	connectors := &fakeConnectors{byHandle: map[string]connectormodels.StreamerConnector{
		"streamer-a": {
			UUID:              "uuid-a",
			DisplayName:       "Streamer A",
			CollectionHandle:  "streamer-a",
			NotificationEmail: "a@example.com",
			GiveawaysEnabled:  true,
		},
	}}
	giveaways := newFakeGiveaways()
	publisher := &fakePublisher{}
	mailer := &fakeMailer{}

	svc := NewWebhookService(resolver, connectors, giveaways, publisher, mailer, nil)

	err := svc.ProcessOrder(context.Background(), testOrder())
	require.NoError(t, err)

	require.Len(t, giveaways.orders, 1)
	o := giveaways.orders[[2]int64{900001, 1}]
	require.NotNil(t, o)
	assert.Equal(t, "uuid-a", o.StreamerUUID)
	assert.Equal(t, int64(111), o.ProductID)
	assert.Equal(t, "lena_ttv", o.BuyerTwitchUsername)
	assert.Equal(t, giveawaymodels.OrderStatusOpen, o.Status)
	require.NotNil(t, o.VariantID)
	assert.Equal(t, int64(1111), *o.VariantID)

	assert.Equal(t, []string{"uuid-a"}, publisher.published)
	assert.Equal(t, []string{"a@example.com"}, mailer.sent)
}

func TestProcessOrderIsIdempotent(t *testing.T) {
	resolver := &fakeResolver{collections: map[int64][]shopify.Collection{
		111: {{Handle: "streamer-a"}},
	}}
	connectors := &fakeConnectors{byHandle: map[string]connectormodels.StreamerConnector{
		"streamer-a": {UUID: "uuid-a", CollectionHandle: "streamer-a", NotificationEmail: "a@example.com", GiveawaysEnabled: true},
	}}
	giveaways := newFakeGiveaways()
	publisher := &fakePublisher{}
	mailer := &fakeMailer{}
	svc := NewWebhookService(resolver, connectors, giveaways, publisher, mailer, nil)

	require.NoError(t, svc.ProcessOrder(context.Background(), testOrder()))
	require.NoError(t, svc.ProcessOrder(context.Background(), testOrder()))

	// Re-delivery must not materialize a second order or send a second email.
	assert.Len(t, giveaways.orders, 1)
	assert.Len(t, mailer.sent, 1)
}

func TestProcessOrderUnflaggedSendsAlertOnly(t *testing.T) {
	resolver := &fakeResolver{collections: map[int64][]shopify.Collection{
		111: {{Handle: "streamer-a"}},
	}}
	connectors := &fakeConnectors{byHandle: map[string]connectormodels.StreamerConnector{
		"streamer-a": {UUID: "uuid-a", CollectionHandle: "streamer-a", GiveawaysEnabled: true},
	}}
	giveaways := newFakeGiveaways()
	publisher := &fakePublisher{}
	svc := NewWebhookService(resolver, connectors, giveaways, publisher, &fakeMailer{}, nil)

	order := testOrder()
	order.NoteAttributes = nil

	require.NoError(t, svc.ProcessOrder(context.Background(), order))

	assert.Empty(t, giveaways.orders)
	assert.Equal(t, []string{"uuid-a"}, publisher.published)
}

func TestProcessOrderGiveawaysDisabled(t *testing.T) {
	resolver := &fakeResolver{collections: map[int64][]shopify.Collection{
		111: {{Handle: "streamer-a"}},
	}}
	connectors := &fakeConnectors{byHandle: map[string]connectormodels.StreamerConnector{
		"streamer-a": {UUID: "uuid-a", CollectionHandle: "streamer-a", GiveawaysEnabled: false},
	}}
	giveaways := newFakeGiveaways()
	svc := NewWebhookService(resolver, connectors, giveaways, &fakePublisher{}, &fakeMailer{}, nil)

	require.NoError(t, svc.ProcessOrder(context.Background(), testOrder()))
	assert.Empty(t, giveaways.orders)
}
