package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "streamwear-backend/internal/common/errors"
	connectormodels "streamwear-backend/internal/features/connector/models"
	"streamwear-backend/internal/features/giveaway/models"
	"streamwear-backend/internal/features/giveaway/repository"
)

type fakeRepo struct {
	orders       map[string]*models.GiveawayOrder
	giveaways    map[string]*models.Giveaway
	participants map[string][]models.Participant
	details      map[string]*models.WinnerDetail
	drawErr      error
	nextID       int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		orders:       make(map[string]*models.GiveawayOrder),
		giveaways:    make(map[string]*models.Giveaway),
		participants: make(map[string][]models.Participant),
		details:      make(map[string]*models.WinnerDetail),
	}
}

func (f *fakeRepo) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeRepo) UpsertOrder(_ context.Context, o *models.GiveawayOrder) (bool, error) {
	o.ID = f.id("order")
	f.orders[o.ID] = o
	return true, nil
}

func (f *fakeRepo) GetOrder(_ context.Context, id string) (*models.GiveawayOrder, error) {
	return f.orders[id], nil
}

func (f *fakeRepo) ListOrdersByStreamer(_ context.Context, streamerUUID string) ([]models.GiveawayOrder, error) {
	var out []models.GiveawayOrder
	for _, o := range f.orders {
		if o.StreamerUUID == streamerUUID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeRepo) SetOrderStatus(_ context.Context, id string, status models.GiveawayOrderStatus) error {
	if o, ok := f.orders[id]; ok {
		o.Status = status
	}
	return nil
}

func (f *fakeRepo) CreateGiveaway(_ context.Context, g *models.Giveaway) error {
	if _, ok := f.orders[g.GiveawayOrderID]; !ok {
		return repository.ErrOrderNotFound
	}
	now := time.Now().UTC()
	for _, existing := range f.giveaways {
		if existing.GiveawayOrderID == g.GiveawayOrderID &&
			existing.Status == models.GiveawayStatusRunning && !existing.Ended(now) {
			return repository.ErrAlreadyRunning
		}
	}
	g.ID = f.id("giveaway")
	f.giveaways[g.ID] = g
	return nil
}

func (f *fakeRepo) GetGiveaway(_ context.Context, id string) (*models.Giveaway, error) {
	return f.giveaways[id], nil
}

func (f *fakeRepo) ListGiveawaysByOrder(_ context.Context, orderID string) ([]models.Giveaway, error) {
	var out []models.Giveaway
	for _, g := range f.giveaways {
		if g.GiveawayOrderID == orderID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeRepo) AddParticipant(_ context.Context, p *models.Participant) (bool, error) {
	for _, existing := range f.participants[p.GiveawayID] {
		if existing.TwitchUserID == p.TwitchUserID {
			return false, nil
		}
	}
	p.ID = f.id("participant")
	p.JoinedAt = time.Now().UTC()
	f.participants[p.GiveawayID] = append(f.participants[p.GiveawayID], *p)
	return true, nil
}

func (f *fakeRepo) ListParticipants(_ context.Context, giveawayID string) ([]models.Participant, error) {
	return f.participants[giveawayID], nil
}

func (f *fakeRepo) DrawWinner(_ context.Context, giveawayID string, pick repository.PickFunc) (*models.Participant, *models.WinnerDetail, error) {
	if f.drawErr != nil {
		return nil, nil, f.drawErr
	}
	g, ok := f.giveaways[giveawayID]
	if !ok {
		return nil, nil, repository.ErrGiveawayNotFound
	}
	if g.Status == models.GiveawayStatusFinished {
		return nil, nil, repository.ErrAlreadyFinished
	}
	entrants := f.participants[giveawayID]
	if len(entrants) == 0 {
		return nil, nil, repository.ErrNoParticipants
	}
	idx, err := pick(len(entrants))
	if err != nil {
		return nil, nil, err
	}
	winner := entrants[idx]
	g.Status = models.GiveawayStatusFinished
	g.WinnerParticipantID = &winner.ID
	detail := &models.WinnerDetail{ID: f.id("code"), GiveawayID: giveawayID, WinnerParticipantID: &winner.ID}
	f.details[detail.ID] = detail
	return &winner, detail, nil
}

func (f *fakeRepo) GetWinnerDetail(_ context.Context, id string) (*models.WinnerDetail, error) {
	return f.details[id], nil
}

func (f *fakeRepo) SubmitShipping(_ context.Context, detailID string, _ models.Shipping) error {
	d, ok := f.details[detailID]
	if !ok {
		return repository.ErrDetailNotFound
	}
	if d.Submitted() {
		return repository.ErrAlreadyClaimed
	}
	now := time.Now().UTC()
	d.SubmittedAt = &now
	return nil
}

type fakeConnectors struct {
	connectors map[string]*connectormodels.StreamerConnector
}

func (f *fakeConnectors) GetByUUID(_ context.Context, uuid string) (*connectormodels.StreamerConnector, error) {
	return f.connectors[uuid], nil
}

func (f *fakeConnectors) ListByCollectionHandles(context.Context, []string) ([]connectormodels.StreamerConnector, error) {
	return nil, nil
}

func fixture(t *testing.T) (*GiveawayService, *fakeRepo, *models.GiveawayOrder) {
	t.Helper()
	repo := newFakeRepo()
	connectors := &fakeConnectors{connectors: map[string]*connectormodels.StreamerConnector{
		"uuid-a": {UUID: "uuid-a", DisplayName: "Streamer A", TwitchUsername: "StreamerA"},
	}}
	order := &models.GiveawayOrder{StreamerUUID: "uuid-a", ExternalOrderID: 1, LineItemID: 1, Status: models.OrderStatusOpen}
	_, err := repo.UpsertOrder(context.Background(), order)
	require.NoError(t, err)
	return NewGiveawayService(repo, connectors), repo, order
}

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestStartAppliesDefaults(t *testing.T) {
	svc, repo, order := fixture(t)

	g, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultCommand, g.Command)
	assert.Equal(t, models.DefaultDurationSeconds, g.DurationSeconds)
	assert.Equal(t, models.GiveawayStatusRunning, g.Status)
	assert.Equal(t, g.StartedAt.Add(60*time.Second), g.EndsAt)
	require.NotNil(t, g.TwitchChannel)
	assert.Equal(t, strings.ToLower("StreamerA"), *g.TwitchChannel)
	assert.Equal(t, models.OrderStatusInGiveaway, repo.orders[order.ID].Status)
}

func TestStartUnknownOrder(t *testing.T) {
	svc, _, _ := fixture(t)

	_, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: "missing"})
	assertCode(t, err, apperrors.ErrCodeOrderNotFound)
}

func TestStartRejectsForeignOrder(t *testing.T) {
	svc, _, order := fixture(t)

	_, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID, StreamerUUID: "uuid-b"})
	assertCode(t, err, apperrors.ErrCodeNotOwner)
}

func TestStartRejectsSecondLiveRun(t *testing.T) {
	svc, _, order := fixture(t)

	_, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	assertCode(t, err, apperrors.ErrCodeAlreadyRunning)
}

func TestStartAllowsRerunAfterExpiredWindow(t *testing.T) {
	svc, repo, order := fixture(t)

	g, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)

	// An expired run keeps its stored "running" status; only ends_at decides
	// whether it blocks a re-run.
	repo.giveaways[g.ID].EndsAt = time.Now().UTC().Add(-time.Minute)

	_, err = svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)
}

func TestAddParticipant(t *testing.T) {
	svc, _, order := fixture(t)
	g, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)

	created, err := svc.AddParticipant(context.Background(), g.ID, &models.Participant{
		TwitchLogin: "viewer1", TwitchUserID: "1001",
	})
	require.NoError(t, err)
	assert.True(t, created)

	// Same user entering twice is a no-op.
	created, err = svc.AddParticipant(context.Background(), g.ID, &models.Participant{
		TwitchLogin: "viewer1", TwitchUserID: "1001",
	})
	require.NoError(t, err)
	assert.False(t, created)
}

func TestAddParticipantAfterWindowClosed(t *testing.T) {
	svc, repo, order := fixture(t)
	g, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)

	repo.giveaways[g.ID].EndsAt = time.Now().UTC().Add(-time.Second)

	_, err = svc.AddParticipant(context.Background(), g.ID, &models.Participant{
		TwitchLogin: "viewer1", TwitchUserID: "1001",
	})
	assertCode(t, err, apperrors.ErrCodeInvalidState)
}

func TestDrawPicksAmongParticipants(t *testing.T) {
	svc, repo, order := fixture(t)
	g, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)

	logins := []string{"viewer1", "viewer2", "viewer3"}
	for i, login := range logins {
		_, err := svc.AddParticipant(context.Background(), g.ID, &models.Participant{
			TwitchLogin: login, TwitchUserID: fmt.Sprintf("100%d", i),
		})
		require.NoError(t, err)
	}

	winner, detail, err := svc.Draw(context.Background(), g.ID)
	require.NoError(t, err)
	require.NotNil(t, winner)
	require.NotNil(t, detail)
	assert.Contains(t, logins, winner.TwitchLogin)
	assert.Equal(t, g.ID, detail.GiveawayID)
	assert.Equal(t, models.GiveawayStatusFinished, repo.giveaways[g.ID].Status)

	// A second draw loses the claim race by definition.
	_, _, err = svc.Draw(context.Background(), g.ID)
	assertCode(t, err, apperrors.ErrCodeAlreadyFinished)
}

func TestDrawSingleParticipant(t *testing.T) {
	svc, _, order := fixture(t)
	g, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)

	_, err = svc.AddParticipant(context.Background(), g.ID, &models.Participant{
		TwitchLogin: "only_one", TwitchUserID: "1001",
	})
	require.NoError(t, err)

	winner, _, err := svc.Draw(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, "only_one", winner.TwitchLogin)
}

func TestDrawWithoutParticipants(t *testing.T) {
	svc, _, order := fixture(t)
	g, err := svc.Start(context.Background(), StartInput{GiveawayOrderID: order.ID})
	require.NoError(t, err)

	_, _, err = svc.Draw(context.Background(), g.ID)
	assertCode(t, err, apperrors.ErrCodeNoParticipants)
}

func TestDrawUnknownGiveaway(t *testing.T) {
	svc, _, _ := fixture(t)

	_, _, err := svc.Draw(context.Background(), "missing")
	assertCode(t, err, apperrors.ErrCodeGiveawayNotFound)
}

func TestPickUniformBounds(t *testing.T) {
	for i := 0; i < 50; i++ {
		idx, err := pickUniform(3)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 3)
	}

	idx, err := pickUniform(1)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}
