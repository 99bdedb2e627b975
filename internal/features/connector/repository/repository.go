package repository

import (
	"context"

	"streamwear-backend/internal/features/connector/models"
)

// ConnectorRepository reads the streamer registry.
type ConnectorRepository interface {
	// GetByUUID returns nil when no connector exists.
	GetByUUID(ctx context.Context, uuid string) (*models.StreamerConnector, error)
	// ListByCollectionHandles returns connectors whose collection handle is in
	// the given set, in no particular order.
	ListByCollectionHandles(ctx context.Context, handles []string) ([]models.StreamerConnector, error)
}
