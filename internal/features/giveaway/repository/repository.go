package repository

import (
	"context"
	"errors"

	"streamwear-backend/internal/features/giveaway/models"
)

var (
	ErrOrderNotFound    = errors.New("giveaway order not found")
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrDetailNotFound   = errors.New("winner detail not found")
	ErrAlreadyRunning   = errors.New("a giveaway is already running for this order")
	ErrAlreadyFinished  = errors.New("giveaway already finished")
	ErrAlreadyClaimed   = errors.New("shipping data already submitted")
	ErrNoParticipants   = errors.New("giveaway has no participants")
)

// PickFunc selects a winner index in [0, n). Injected so the service owns
// randomness and tests stay deterministic.
type PickFunc func(n int) (int, error)

// GiveawayRepository persists giveaway orders, runs, participants and winner
// details.
type GiveawayRepository interface {
	// UpsertOrder inserts a giveaway order keyed by (external_order_id,
	// line_item_id); re-delivery of the same webhook is a no-op. Returns
	// whether a row was created.
	UpsertOrder(ctx context.Context, o *models.GiveawayOrder) (bool, error)
	GetOrder(ctx context.Context, id string) (*models.GiveawayOrder, error)
	ListOrdersByStreamer(ctx context.Context, streamerUUID string) ([]models.GiveawayOrder, error)
	SetOrderStatus(ctx context.Context, id string, status models.GiveawayOrderStatus) error

	// CreateGiveaway inserts a run, guarded so that at most one run per order
	// is live (status running and ends_at in the future) at a time; returns
	// ErrAlreadyRunning when the guard rejects, ErrOrderNotFound when the
	// order does not exist.
	CreateGiveaway(ctx context.Context, g *models.Giveaway) error
	GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error)
	// ListGiveawaysByOrder returns the run history, most recent first.
	ListGiveawaysByOrder(ctx context.Context, orderID string) ([]models.Giveaway, error)

	// AddParticipant inserts an entry, ignoring duplicates per
	// (giveaway_id, twitch_user_id). Returns whether a row was created.
	AddParticipant(ctx context.Context, p *models.Participant) (bool, error)
	// ListParticipants returns entries ordered by joined_at ascending.
	ListParticipants(ctx context.Context, giveawayID string) ([]models.Participant, error)

	// DrawWinner atomically claims the running -> finished transition, picks a
	// winner among the participants with pick, and upserts the winner detail,
	// all in one transaction. A concurrent second draw gets
	// ErrAlreadyFinished; a run without entries gets ErrNoParticipants and no
	// mutation survives.
	DrawWinner(ctx context.Context, giveawayID string, pick PickFunc) (*models.Participant, *models.WinnerDetail, error)

	GetWinnerDetail(ctx context.Context, id string) (*models.WinnerDetail, error)
	// SubmitShipping writes the shipping fields once and marks the parent
	// giveaway claimed; a second submission gets ErrAlreadyClaimed.
	SubmitShipping(ctx context.Context, detailID string, s models.Shipping) error
}
