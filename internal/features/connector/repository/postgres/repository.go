package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"streamwear-backend/internal/features/connector/models"
)

// ConnectorRepository reads shopify_connectors rows.
type ConnectorRepository struct {
	db *sql.DB
}

func NewConnectorRepository(db *sql.DB) *ConnectorRepository {
	return &ConnectorRepository{db: db}
}

const connectorColumns = `uuid, user_id, display_name, collection_handle, twitch_username,
       notification_email, giveaways_enabled, alert_text, created_at, updated_at`

func (r *ConnectorRepository) GetByUUID(ctx context.Context, uuid string) (*models.StreamerConnector, error) {
	const q = `SELECT ` + connectorColumns + ` FROM shopify_connectors WHERE uuid=$1`
	row := r.db.QueryRowContext(ctx, q, uuid)
	c, err := scanConnector(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ConnectorRepository) ListByCollectionHandles(ctx context.Context, handles []string) ([]models.StreamerConnector, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + connectorColumns + ` FROM shopify_connectors WHERE collection_handle = ANY($1)`
	rows, err := r.db.QueryContext(ctx, q, pq.Array(handles))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StreamerConnector
	for rows.Next() {
		c, err := scanConnector(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConnector(row rowScanner) (*models.StreamerConnector, error) {
	var c models.StreamerConnector
	var userID sql.NullString
	if err := row.Scan(
		&c.UUID, &userID, &c.DisplayName, &c.CollectionHandle, &c.TwitchUsername,
		&c.NotificationEmail, &c.GiveawaysEnabled, &c.AlertText, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if userID.Valid {
		c.UserID = &userID.String
	}
	return &c, nil
}
