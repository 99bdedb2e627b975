package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/giveaway/repository"
)

// GiveawayRepository persists giveaways and their nested entities.
type GiveawayRepository struct {
	db *sql.DB
}

func NewGiveawayRepository(db *sql.DB) *GiveawayRepository {
	return &GiveawayRepository{db: db}
}

func (r *GiveawayRepository) UpsertOrder(ctx context.Context, o *models.GiveawayOrder) (bool, error) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	const q = `
        INSERT INTO giveaway_orders
            (id, streamer_uuid, external_order_id, line_item_id, product_id, variant_id,
             quantity, product_title, buyer_name, buyer_email, buyer_twitch_username, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT ON CONSTRAINT giveaway_orders_external_key DO NOTHING`
	res, err := r.db.ExecContext(ctx, q,
		o.ID, o.StreamerUUID, o.ExternalOrderID, o.LineItemID, o.ProductID, o.VariantID,
		o.Quantity, o.ProductTitle, o.BuyerName, o.BuyerEmail, o.BuyerTwitchUsername, o.Status,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

const orderColumns = `id, streamer_uuid, external_order_id, line_item_id, product_id, variant_id,
       quantity, product_title, buyer_name, buyer_email, buyer_twitch_username, status,
       created_at, updated_at`

func (r *GiveawayRepository) GetOrder(ctx context.Context, id string) (*models.GiveawayOrder, error) {
	const q = `SELECT ` + orderColumns + ` FROM giveaway_orders WHERE id=$1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *GiveawayRepository) ListOrdersByStreamer(ctx context.Context, streamerUUID string) ([]models.GiveawayOrder, error) {
	const q = `SELECT ` + orderColumns + ` FROM giveaway_orders WHERE streamer_uuid=$1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, streamerUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.GiveawayOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (r *GiveawayRepository) SetOrderStatus(ctx context.Context, id string, status models.GiveawayOrderStatus) error {
	const q = `UPDATE giveaway_orders SET status=$2, updated_at=now() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrOrderNotFound
	}
	return nil
}

// CreateGiveaway inserts the run only when the order exists and no other run
// for it is still live. The guard and the insert are a single statement, so
// re-runs after an expired window work while a second concurrent start loses.
func (r *GiveawayRepository) CreateGiveaway(ctx context.Context, g *models.Giveaway) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	const q = `
        INSERT INTO giveaways
            (id, giveaway_order_id, streamer_uuid, command, duration_seconds, status,
             started_at, ends_at, twitch_channel)
        SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
        WHERE EXISTS (
            SELECT 1 FROM giveaway_orders o WHERE o.id = $2
        )
        AND NOT EXISTS (
            SELECT 1 FROM giveaways g
            WHERE g.giveaway_order_id = $2 AND g.status = 'running' AND g.ends_at > now()
        )`
	res, err := r.db.ExecContext(ctx, q,
		g.ID, g.GiveawayOrderID, g.StreamerUUID, g.Command, g.DurationSeconds, g.Status,
		g.StartedAt, g.EndsAt, g.TwitchChannel,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		order, err := r.GetOrder(ctx, g.GiveawayOrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return repository.ErrOrderNotFound
		}
		return repository.ErrAlreadyRunning
	}
	return nil
}

const giveawayColumns = `id, giveaway_order_id, streamer_uuid, command, duration_seconds, status,
       started_at, ends_at, twitch_channel, winner_participant_id, winner_twitch_login,
       winner_twitch_display_name, claimed, created_at, updated_at`

func (r *GiveawayRepository) GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error) {
	const q = `SELECT ` + giveawayColumns + ` FROM giveaways WHERE id=$1`
	g, err := scanGiveaway(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *GiveawayRepository) ListGiveawaysByOrder(ctx context.Context, orderID string) ([]models.Giveaway, error) {
	const q = `SELECT ` + giveawayColumns + ` FROM giveaways WHERE giveaway_order_id=$1 ORDER BY started_at DESC`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *GiveawayRepository) AddParticipant(ctx context.Context, p *models.Participant) (bool, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
        INSERT INTO giveaway_participants (id, giveaway_id, twitch_login, twitch_display_name, twitch_user_id)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT ON CONSTRAINT giveaway_participants_user_key DO NOTHING`
	res, err := r.db.ExecContext(ctx, q, p.ID, p.GiveawayID, p.TwitchLogin, p.TwitchDisplayName, p.TwitchUserID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

const participantColumns = `id, giveaway_id, twitch_login, twitch_display_name, twitch_user_id, joined_at`

func (r *GiveawayRepository) ListParticipants(ctx context.Context, giveawayID string) ([]models.Participant, error) {
	const q = `SELECT ` + participantColumns + ` FROM giveaway_participants WHERE giveaway_id=$1 ORDER BY joined_at ASC`
	rows, err := r.db.QueryContext(ctx, q, giveawayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.GiveawayID, &p.TwitchLogin, &p.TwitchDisplayName, &p.TwitchUserID, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DrawWinner claims the draw with a compare-and-set on status before any
// winner is computed; losing that race yields ErrAlreadyFinished, and a run
// with no entries rolls everything back.
func (r *GiveawayRepository) DrawWinner(ctx context.Context, giveawayID string, pick repository.PickFunc) (winner *models.Participant, detail *models.WinnerDetail, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const qClaim = `
        UPDATE giveaways SET status='finished', updated_at=now()
        WHERE id=$1 AND status='running'
        RETURNING giveaway_order_id`
	var orderID string
	if err = tx.QueryRowContext(ctx, qClaim, giveawayID).Scan(&orderID); err != nil {
		if err == sql.ErrNoRows {
			err = r.classifyClaimFailure(ctx, giveawayID)
		}
		return nil, nil, err
	}

	const qParticipants = `SELECT ` + participantColumns + ` FROM giveaway_participants WHERE giveaway_id=$1 ORDER BY joined_at ASC`
	rows, err := tx.QueryContext(ctx, qParticipants, giveawayID)
	if err != nil {
		return nil, nil, err
	}
	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err = rows.Scan(&p.ID, &p.GiveawayID, &p.TwitchLogin, &p.TwitchDisplayName, &p.TwitchUserID, &p.JoinedAt); err != nil {
			rows.Close()
			return nil, nil, err
		}
		participants = append(participants, p)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(participants) == 0 {
		err = repository.ErrNoParticipants
		return nil, nil, err
	}

	idx, err := pick(len(participants))
	if err != nil {
		return nil, nil, err
	}
	picked := participants[idx]

	const qWinner = `
        UPDATE giveaways
        SET winner_participant_id=$2, winner_twitch_login=$3, winner_twitch_display_name=$4, updated_at=now()
        WHERE id=$1`
	if _, err = tx.ExecContext(ctx, qWinner, giveawayID, picked.ID, picked.TwitchLogin, picked.TwitchDisplayName); err != nil {
		return nil, nil, err
	}

	const qOrder = `SELECT product_id, variant_id FROM giveaway_orders WHERE id=$1`
	var productID int64
	var variantID sql.NullInt64
	if err = tx.QueryRowContext(ctx, qOrder, orderID).Scan(&productID, &variantID); err != nil {
		return nil, nil, err
	}

	// Keyed by giveaway_id so a repeated draw could only ever overwrite, never
	// duplicate. With the status claim above the conflict path is unreachable,
	// but the constraint stays as the storage-level guarantee.
	const qDetail = `
        INSERT INTO giveaway_winner_details (id, giveaway_id, winner_participant_id, shopify_product_id, shopify_variant_id)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (giveaway_id) DO UPDATE
            SET winner_participant_id=EXCLUDED.winner_participant_id
        RETURNING id, created_at`
	d := models.WinnerDetail{
		GiveawayID:          giveawayID,
		WinnerParticipantID: &picked.ID,
		ShopifyProductID:    &productID,
	}
	if variantID.Valid {
		d.ShopifyVariantID = &variantID.Int64
	}
	if err = tx.QueryRowContext(ctx, qDetail, uuid.NewString(), giveawayID, picked.ID, productID, d.ShopifyVariantID).
		Scan(&d.ID, &d.CreatedAt); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &picked, &d, nil
}

func (r *GiveawayRepository) classifyClaimFailure(ctx context.Context, giveawayID string) error {
	g, err := r.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return err
	}
	if g == nil {
		return repository.ErrGiveawayNotFound
	}
	return repository.ErrAlreadyFinished
}

const detailColumns = `id, giveaway_id, winner_participant_id, shopify_product_id, shopify_variant_id,
       first_name, last_name, email, street, postal_code, city, country, phone,
       submitted_at, created_at`

func (r *GiveawayRepository) GetWinnerDetail(ctx context.Context, id string) (*models.WinnerDetail, error) {
	const q = `SELECT ` + detailColumns + ` FROM giveaway_winner_details WHERE id=$1`
	d, err := scanDetail(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (r *GiveawayRepository) SubmitShipping(ctx context.Context, detailID string, s models.Shipping) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const qLock = `SELECT giveaway_id, submitted_at FROM giveaway_winner_details WHERE id=$1 FOR UPDATE`
	var giveawayID string
	var submittedAt sql.NullTime
	if err = tx.QueryRowContext(ctx, qLock, detailID).Scan(&giveawayID, &submittedAt); err != nil {
		if err == sql.ErrNoRows {
			err = repository.ErrDetailNotFound
		}
		return err
	}
	if submittedAt.Valid {
		err = repository.ErrAlreadyClaimed
		return err
	}

	const qUpdate = `
        UPDATE giveaway_winner_details
        SET first_name=$2, last_name=$3, email=$4, street=$5, postal_code=$6,
            city=$7, country=$8, phone=$9, submitted_at=now()
        WHERE id=$1`
	if _, err = tx.ExecContext(ctx, qUpdate, detailID,
		s.FirstName, s.LastName, s.Email, s.Street, s.PostalCode, s.City, s.Country, s.Phone,
	); err != nil {
		return err
	}

	const qClaim = `UPDATE giveaways SET claimed=true, updated_at=now() WHERE id=$1`
	if _, err = tx.ExecContext(ctx, qClaim, giveawayID); err != nil {
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.GiveawayOrder, error) {
	var o models.GiveawayOrder
	var variantID sql.NullInt64
	if err := row.Scan(
		&o.ID, &o.StreamerUUID, &o.ExternalOrderID, &o.LineItemID, &o.ProductID, &variantID,
		&o.Quantity, &o.ProductTitle, &o.BuyerName, &o.BuyerEmail, &o.BuyerTwitchUsername, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if variantID.Valid {
		o.VariantID = &variantID.Int64
	}
	return &o, nil
}

func scanGiveaway(row rowScanner) (*models.Giveaway, error) {
	var g models.Giveaway
	var twitchChannel, winnerID, winnerLogin, winnerDisplay sql.NullString
	if err := row.Scan(
		&g.ID, &g.GiveawayOrderID, &g.StreamerUUID, &g.Command, &g.DurationSeconds, &g.Status,
		&g.StartedAt, &g.EndsAt, &twitchChannel, &winnerID, &winnerLogin,
		&winnerDisplay, &g.Claimed, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if twitchChannel.Valid {
		g.TwitchChannel = &twitchChannel.String
	}
	if winnerID.Valid {
		g.WinnerParticipantID = &winnerID.String
	}
	if winnerLogin.Valid {
		g.WinnerTwitchLogin = &winnerLogin.String
	}
	if winnerDisplay.Valid {
		g.WinnerTwitchDisplayName = &winnerDisplay.String
	}
	return &g, nil
}

func scanDetail(row rowScanner) (*models.WinnerDetail, error) {
	var d models.WinnerDetail
	var winnerID sql.NullString
	var productID, variantID sql.NullInt64
	var firstName, lastName, email, street, postalCode, city, country, phone sql.NullString
	var submittedAt sql.NullTime
	if err := row.Scan(
		&d.ID, &d.GiveawayID, &winnerID, &productID, &variantID,
		&firstName, &lastName, &email, &street, &postalCode, &city, &country, &phone,
		&submittedAt, &d.CreatedAt,
	); err != nil {
		return nil, err
	}
	if winnerID.Valid {
		d.WinnerParticipantID = &winnerID.String
	}
	if productID.Valid {
		d.ShopifyProductID = &productID.Int64
	}
	if variantID.Valid {
		d.ShopifyVariantID = &variantID.Int64
	}
	if submittedAt.Valid {
		d.SubmittedAt = &submittedAt.Time
	}
	if firstName.Valid {
		d.Shipping = &models.Shipping{
			FirstName:  firstName.String,
			LastName:   lastName.String,
			Email:      email.String,
			Street:     street.String,
			PostalCode: postalCode.String,
			City:       city.String,
			Country:    country.String,
			Phone:      phone.String,
		}
	}
	return &d, nil
}
