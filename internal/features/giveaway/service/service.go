package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	apperrors "streamwear-backend/internal/common/errors"
	connectorrepo "streamwear-backend/internal/features/connector/repository"
	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/giveaway/repository"
	"streamwear-backend/internal/metrics"
)

// GiveawayService contains the giveaway state machine: start, draw, redeem.
type GiveawayService struct {
	repo       repository.GiveawayRepository
	connectors connectorrepo.ConnectorRepository
}

func NewGiveawayService(repo repository.GiveawayRepository, connectors connectorrepo.ConnectorRepository) *GiveawayService {
	return &GiveawayService{repo: repo, connectors: connectors}
}

// StartInput carries the start-giveaway request. StreamerUUID identifies the
// requesting streamer (resolved by the session layer upstream of this
// subsystem).
type StartInput struct {
	GiveawayOrderID string
	StreamerUUID    string
	Command         string
	DurationSeconds int
}

// Start opens a new entry window against a giveaway order. Rejected when the
// order is missing, owned by someone else, or already has a live run.
func (s *GiveawayService) Start(ctx context.Context, in StartInput) (*models.Giveaway, error) {
	if in.GiveawayOrderID == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "missing giveawayOrderId")
	}

	order, err := s.repo.GetOrder(ctx, in.GiveawayOrderID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get giveaway order", err)
	}
	if order == nil {
		return nil, apperrors.NewOrderNotFoundError(in.GiveawayOrderID)
	}
	if in.StreamerUUID != "" && order.StreamerUUID != in.StreamerUUID {
		return nil, apperrors.New(apperrors.ErrCodeNotOwner, "giveaway order belongs to another streamer")
	}

	command := strings.TrimSpace(in.Command)
	if command == "" {
		command = models.DefaultCommand
	}
	duration := in.DurationSeconds
	if duration <= 0 {
		duration = models.DefaultDurationSeconds
	}

	connector, err := s.connectors.GetByUUID(ctx, order.StreamerUUID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get connector", err)
	}
	if connector == nil {
		return nil, apperrors.Newf(apperrors.ErrCodeNotFound, "connector not found: %s", order.StreamerUUID)
	}

	now := time.Now().UTC()
	g := &models.Giveaway{
		GiveawayOrderID: order.ID,
		StreamerUUID:    order.StreamerUUID,
		Command:         command,
		DurationSeconds: duration,
		Status:          models.GiveawayStatusRunning,
		StartedAt:       now,
		EndsAt:          now.Add(time.Duration(duration) * time.Second),
	}
	if connector.TwitchUsername != "" {
		channel := strings.ToLower(connector.TwitchUsername)
		g.TwitchChannel = &channel
	}

	if err := s.repo.CreateGiveaway(ctx, g); err != nil {
		switch err {
		case repository.ErrOrderNotFound:
			return nil, apperrors.NewOrderNotFoundError(in.GiveawayOrderID)
		case repository.ErrAlreadyRunning:
			return nil, apperrors.New(apperrors.ErrCodeAlreadyRunning, "a giveaway is already running for this order")
		default:
			return nil, apperrors.NewDatabaseError("create giveaway", err)
		}
	}

	if err := s.repo.SetOrderStatus(ctx, order.ID, models.OrderStatusInGiveaway); err != nil {
		return nil, apperrors.NewDatabaseError("update order status", err)
	}

	return g, nil
}

// Draw picks one participant uniformly at random and finishes the run. The
// storage layer claims the transition first, so two concurrent draws cannot
// both produce a winner.
func (s *GiveawayService) Draw(ctx context.Context, giveawayID string) (*models.Participant, *models.WinnerDetail, error) {
	if giveawayID == "" {
		return nil, nil, apperrors.New(apperrors.ErrCodeValidation, "missing giveawayId")
	}

	winner, detail, err := s.repo.DrawWinner(ctx, giveawayID, pickUniform)
	if err != nil {
		switch err {
		case repository.ErrGiveawayNotFound:
			return nil, nil, apperrors.NewGiveawayNotFoundError(giveawayID)
		case repository.ErrAlreadyFinished:
			return nil, nil, apperrors.New(apperrors.ErrCodeAlreadyFinished, "giveaway already finished")
		case repository.ErrNoParticipants:
			return nil, nil, apperrors.New(apperrors.ErrCodeNoParticipants, "no participants for this giveaway")
		default:
			return nil, nil, apperrors.NewDatabaseError("draw winner", err)
		}
	}

	metrics.DrawsPerformed.Inc()
	return winner, detail, nil
}

// AddParticipant records a chat entry for a running giveaway. Duplicate
// entries per user are ignored. Entries are rejected once the window is over.
func (s *GiveawayService) AddParticipant(ctx context.Context, giveawayID string, p *models.Participant) (bool, error) {
	g, err := s.repo.GetGiveaway(ctx, giveawayID)
	if err != nil {
		return false, apperrors.NewDatabaseError("get giveaway", err)
	}
	if g == nil {
		return false, apperrors.NewGiveawayNotFoundError(giveawayID)
	}
	if g.Status != models.GiveawayStatusRunning || g.Ended(time.Now().UTC()) {
		return false, apperrors.New(apperrors.ErrCodeInvalidState, "entry window is closed")
	}
	if p.TwitchUserID == "" || p.TwitchLogin == "" {
		return false, apperrors.New(apperrors.ErrCodeValidation, "missing twitch user")
	}

	p.GiveawayID = giveawayID
	created, err := s.repo.AddParticipant(ctx, p)
	if err != nil {
		return false, apperrors.NewDatabaseError("add participant", err)
	}
	return created, nil
}

// OrderWithRuns is a dashboard row: one giveaway order plus its run history,
// most recent first. Current is the latest run, nil when none was started.
type OrderWithRuns struct {
	Order   models.GiveawayOrder `json:"order"`
	Runs    []models.Giveaway    `json:"runs,omitempty"`
	Current *models.Giveaway     `json:"current,omitempty"`
}

// ListForStreamer returns the streamer's giveaway orders with run history.
func (s *GiveawayService) ListForStreamer(ctx context.Context, streamerUUID string) ([]OrderWithRuns, error) {
	if streamerUUID == "" {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "missing streamer_id")
	}

	orders, err := s.repo.ListOrdersByStreamer(ctx, streamerUUID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list orders", err)
	}

	out := make([]OrderWithRuns, 0, len(orders))
	for _, order := range orders {
		runs, err := s.repo.ListGiveawaysByOrder(ctx, order.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("list giveaways", err)
		}
		row := OrderWithRuns{Order: order, Runs: runs}
		if len(runs) > 0 {
			row.Current = &runs[0]
		}
		out = append(out, row)
	}
	return out, nil
}

// Participants returns the roster snapshot ordered by join time.
func (s *GiveawayService) Participants(ctx context.Context, giveawayID string) ([]models.Participant, error) {
	participants, err := s.repo.ListParticipants(ctx, giveawayID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list participants", err)
	}
	return participants, nil
}

// pickUniform selects an index in [0, n) with crypto/rand so every entrant
// has equal probability regardless of join order.
func pickUniform(n int) (int, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(idx.Int64()), nil
}
