package service

import (
	"context"
	"fmt"
	"time"

	"streamwear-backend/internal/common/cache"
	"streamwear-backend/internal/common/logger"
	"streamwear-backend/internal/features/alerts"
	connectormodels "streamwear-backend/internal/features/connector/models"
	connectorrepo "streamwear-backend/internal/features/connector/repository"
	giveawaymodels "streamwear-backend/internal/features/giveaway/models"
	giveawayrepo "streamwear-backend/internal/features/giveaway/repository"
	"streamwear-backend/internal/features/webhook/models"
	"streamwear-backend/internal/metrics"
	"streamwear-backend/internal/notify"
	"streamwear-backend/internal/platform/shopify"
)

const collectionsCacheTTL = 10 * time.Minute

// CollectionResolver maps a product to the catalog collections containing it.
type CollectionResolver interface {
	CollectionsForProduct(ctx context.Context, productID int64) []shopify.Collection
}

// AlertPublisher broadcasts purchase alerts to a streamer's topic.
type AlertPublisher interface {
	Publish(ctx context.Context, streamerUUID string, payload alerts.Payload) error
}

// WebhookService materializes giveaway orders from verified order webhooks.
type WebhookService struct {
	resolver   CollectionResolver
	connectors connectorrepo.ConnectorRepository
	giveaways  giveawayrepo.GiveawayRepository
	publisher  AlertPublisher
	mailer     notify.Mailer
	cache      *cache.CacheService
}

func NewWebhookService(
	resolver CollectionResolver,
	connectors connectorrepo.ConnectorRepository,
	giveaways giveawayrepo.GiveawayRepository,
	publisher AlertPublisher,
	mailer notify.Mailer,
	cacheService *cache.CacheService,
) *WebhookService {
	return &WebhookService{
		resolver:   resolver,
		connectors: connectors,
		giveaways:  giveaways,
		publisher:  publisher,
		mailer:     mailer,
		cache:      cacheService,
	}
}

// ProcessOrder runs the materialization pipeline for one verified order:
// resolve each line item to a streamer via collection handles, upsert a
// giveaway order per eligible line item, notify implicated streamers once,
// and publish a purchase alert per resolved streamer. The side effects are
// independent; a failed email or alert never rolls back a persisted order.
func (s *WebhookService) ProcessOrder(ctx context.Context, order *models.Order) error {
	if len(order.LineItems) == 0 {
		return nil
	}

	flagged := order.GiveawayFlagged()
	buyerTwitch := order.BuyerTwitchUsername()

	// streamers resolved via any purchased product, for alerts
	resolved := make(map[string]connectormodels.StreamerConnector)
	// streamers with a newly materialized giveaway order, for email
	implicated := make(map[string]string) // uuid -> product title

	for _, item := range order.LineItems {
		if item.ProductID == 0 {
			continue
		}

		connector, err := s.ownerForProduct(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if connector == nil {
			// Ordinary house merchandise, not attributed to any streamer.
			continue
		}
		resolved[connector.UUID] = *connector

		if !flagged || !connector.GiveawaysEnabled {
			continue
		}

		variantID := item.VariantID
		o := &giveawaymodels.GiveawayOrder{
			StreamerUUID:        connector.UUID,
			ExternalOrderID:     order.ID,
			LineItemID:          item.ID,
			ProductID:           item.ProductID,
			Quantity:            item.Quantity,
			ProductTitle:        item.Title,
			BuyerName:           order.BuyerName(),
			BuyerEmail:          order.BuyerEmail(),
			BuyerTwitchUsername: buyerTwitch,
			Status:              giveawaymodels.OrderStatusOpen,
		}
		if variantID != 0 {
			o.VariantID = &variantID
		}

		created, err := s.giveaways.UpsertOrder(ctx, o)
		if err != nil {
			return err
		}
		if created {
			metrics.GiveawayOrdersMaterialized.Inc()
			implicated[connector.UUID] = item.Title
		}
	}

	s.notifyStreamers(ctx, resolved, implicated)
	s.publishAlerts(ctx, order, resolved)
	return nil
}

// ownerForProduct resolves the streamer owning a product through its
// collection handles. Returns nil when no registered collection matches.
func (s *WebhookService) ownerForProduct(ctx context.Context, productID int64) (*connectormodels.StreamerConnector, error) {
	collections := s.resolveCollections(ctx, productID)
	if len(collections) == 0 {
		return nil, nil
	}

	handles := make([]string, 0, len(collections))
	for _, c := range collections {
		handles = append(handles, c.Handle)
	}

	connectors, err := s.connectors.ListByCollectionHandles(ctx, handles)
	if err != nil {
		return nil, err
	}
	if len(connectors) == 0 {
		return nil, nil
	}

	// A product should belong to exactly one registered collection; keep the
	// match of the first resolved handle for a stable choice when it does not.
	byHandle := make(map[string]connectormodels.StreamerConnector, len(connectors))
	for _, c := range connectors {
		byHandle[c.CollectionHandle] = c
	}
	for _, handle := range handles {
		if c, ok := byHandle[handle]; ok {
			return &c, nil
		}
	}
	return nil, nil
}

func (s *WebhookService) resolveCollections(ctx context.Context, productID int64) []shopify.Collection {
	key := fmt.Sprintf("product_collections:%d", productID)
	if s.cache != nil {
		var cached []shopify.Collection
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached
		}
	}

	collections := s.resolver.CollectionsForProduct(ctx, productID)
	if s.cache != nil && len(collections) > 0 {
		if err := s.cache.Set(ctx, key, collections, collectionsCacheTTL); err != nil {
			logger.Warn().Err(err).Int64("product_id", productID).Msg("collections cache write failed")
		}
	}
	return collections
}

func (s *WebhookService) notifyStreamers(ctx context.Context, resolved map[string]connectormodels.StreamerConnector, implicated map[string]string) {
	if s.mailer == nil {
		return
	}
	for uuid, productTitle := range implicated {
		connector := resolved[uuid]
		if connector.NotificationEmail == "" {
			continue
		}
		if err := s.mailer.SendGiveawayOrderEmail(ctx, connector.NotificationEmail, connector.DisplayName, productTitle); err != nil {
			// Notification is a secondary effect, log and continue.
			logger.Warn().Err(err).Str("streamer_uuid", uuid).Msg("giveaway order email failed")
		}
	}
}

func (s *WebhookService) publishAlerts(ctx context.Context, order *models.Order, resolved map[string]connectormodels.StreamerConnector) {
	if len(resolved) == 0 {
		return
	}

	first := order.LineItems[0]
	payload := alerts.Payload{
		Type:         "order",
		Customer:     order.BuyerName(),
		ProductTitle: first.Title,
		VariantTitle: first.VariantTitle,
		Quantity:     first.Quantity,
		Price:        first.Price,
		Currency:     order.Currency,
		CreatedAt:    order.CreatedAt,
		ID:           order.ID,
		Username:     order.BuyerTwitchUsername(),
	}

	for uuid := range resolved {
		if err := s.publisher.Publish(ctx, uuid, payload); err != nil {
			logger.Warn().Err(err).Str("streamer_uuid", uuid).Msg("alert publish failed")
		}
	}
}
