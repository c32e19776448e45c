package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftday/mockdraft/internal/events"
	"github.com/draftday/mockdraft/internal/models"
	"github.com/draftday/mockdraft/internal/pickorder"
	"github.com/draftday/mockdraft/internal/store"
)

// DraftStore defines what the draft app needs from the document store.
type DraftStore interface {
	CreateDraft(ctx context.Context, draft *models.Draft) error
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	AtomicMutate(ctx context.Context, draftID uuid.UUID, fn func(*store.Txn) error) (*models.Draft, error)
	ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error)
}

// SeedSource defines what the draft app needs from the seed repository.
type SeedSource interface {
	TeamNeeds(ctx context.Context, year int, team string) ([]string, error)
	Players(ctx context.Context, year int) ([]models.Player, error)
	Teams(ctx context.Context, year int) ([]string, error)
}

// Notifier defines the fire-and-forget notification sink.
type Notifier interface {
	Notify(ctx context.Context, draftID uuid.UUID, eventType string, payload any)
}

// validTransitions is the draft lifecycle state machine. A transition not
// listed here is rejected with ErrInvalidState.
var validTransitions = map[models.DraftStatus][]models.DraftStatus{
	models.DraftStatusLobby:  {models.DraftStatusActive},
	models.DraftStatusActive: {models.DraftStatusPaused, models.DraftStatusComplete},
	models.DraftStatusPaused: {models.DraftStatusActive},
}

func canTransition(from, to models.DraftStatus) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// App orchestrates draft lifecycle, pick recording, CPU autopicking and
// the pick clock.
type App struct {
	store     DraftStore
	seeds     SeedSource
	builder   *pickorder.Builder
	heuristic *Heuristic
	notifier  Notifier
	timers    *TimerRegistry
	clock     clockwork.Clock

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewApp creates a draft App. The rng drives autopick jitter and random
// team assignment; pass a seeded source for deterministic behavior.
func NewApp(
	st DraftStore,
	seeds SeedSource,
	builder *pickorder.Builder,
	heuristic *Heuristic,
	notifier Notifier,
	timers *TimerRegistry,
	clock clockwork.Clock,
	rng *rand.Rand,
) *App {
	return &App{
		store:     st,
		seeds:     seeds,
		builder:   builder,
		heuristic: heuristic,
		notifier:  notifier,
		timers:    timers,
		clock:     clock,
		rng:       rng,
	}
}

// CreateDraftRequest describes a new draft.
type CreateDraftRequest struct {
	CreatorID uuid.UUID          `json:"creator_id"`
	Platform  string             `json:"platform"`
	Handle    string             `json:"handle"`
	Config    models.DraftConfig `json:"config"`
}

// CreateDraft builds the pick order and future-pick ownership from the
// seed tables and creates the draft in the lobby state with every team
// CPU-controlled. The creator joins automatically.
func (a *App) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	cfg := req.Config
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be greater than 0: %w", ErrInvalidState)
	}

	order, err := a.builder.Build(ctx, cfg.Rounds, cfg.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to build pick order: %w", err)
	}
	future, err := a.builder.BuildFuture(ctx, cfg.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to build future picks: %w", err)
	}
	teams, err := a.seeds.Teams(ctx, cfg.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load teams: %w", err)
	}

	assignments := make(map[string]*uuid.UUID, len(teams))
	for _, team := range teams {
		assignments[team] = nil
	}

	now := a.clock.Now().UTC()
	draft := &models.Draft{
		ID:              uuid.New(),
		CreatorID:       req.CreatorID,
		Status:          models.DraftStatusLobby,
		Config:          cfg,
		CurrentPick:     1,
		CurrentRound:    1,
		TeamAssignments: assignments,
		Participants: map[string]models.Participant{
			req.CreatorID.String(): {
				UserID:   req.CreatorID,
				Platform: req.Platform,
				Handle:   req.Handle,
			},
		},
		PickOrder:       order,
		PickedPlayerIDs: []string{},
		FuturePicks:     future,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := a.store.CreateDraft(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	log.Info().
		Str("draft_id", draft.ID.String()).
		Int("rounds", cfg.Rounds).
		Str("format", string(cfg.Format)).
		Msg("draft created")

	return draft, nil
}

// Join adds a participant to a lobby draft. Joining twice is a no-op
// that refreshes the platform identity.
func (a *App) Join(ctx context.Context, draftID uuid.UUID, p models.Participant) (*models.Draft, error) {
	return a.store.AtomicMutate(ctx, draftID, func(txn *store.Txn) error {
		if txn.Draft.Status != models.DraftStatusLobby {
			return fmt.Errorf("draft %s is %s: %w", draftID, txn.Draft.Status, ErrInvalidState)
		}
		txn.Draft.Participants[p.UserID.String()] = p
		txn.Draft.UpdatedAt = a.clock.Now().UTC()
		return nil
	})
}

// AssignTeam hands control of a team to a participant while the draft is
// in the lobby. Passing the zero UUID releases the team back to CPU. In
// SINGLE_TEAM format a new assignment releases the user's previous team.
func (a *App) AssignTeam(ctx context.Context, draftID, userID uuid.UUID, team string) (*models.Draft, error) {
	return a.store.AtomicMutate(ctx, draftID, func(txn *store.Txn) error {
		d := txn.Draft
		if d.Status != models.DraftStatusLobby {
			return fmt.Errorf("draft %s is %s: %w", draftID, d.Status, ErrInvalidState)
		}
		if _, ok := d.TeamAssignments[team]; !ok {
			return fmt.Errorf("unknown team %s: %w", team, ErrInvalidState)
		}

		if userID == uuid.Nil {
			d.TeamAssignments[team] = nil
			d.UpdatedAt = a.clock.Now().UTC()
			return nil
		}

		if _, ok := d.Participants[userID.String()]; !ok {
			return fmt.Errorf("user %s has not joined draft %s: %w", userID, draftID, ErrUnauthorized)
		}
		if owner := d.TeamAssignments[team]; owner != nil && *owner != userID {
			return fmt.Errorf("team %s is already assigned: %w", team, ErrInvalidState)
		}

		if d.Config.Format == models.DraftFormatSingleTeam {
			for t, owner := range d.TeamAssignments {
				if owner != nil && *owner == userID {
					d.TeamAssignments[t] = nil
				}
			}
		}

		id := userID
		d.TeamAssignments[team] = &id
		d.UpdatedAt = a.clock.Now().UTC()
		return nil
	})
}

// Start activates a lobby draft. Only the creator may start it. Under
// RANDOM assignment, participants without a team are dealt one from the
// unassigned pool; under FULL format the creator takes every remaining
// team.
func (a *App) Start(ctx context.Context, draftID, userID uuid.UUID) (*models.Draft, error) {
	startedAt := a.clock.Now().UTC()

	draft, err := a.store.AtomicMutate(ctx, draftID, func(txn *store.Txn) error {
		d := txn.Draft
		if d.CreatorID != userID {
			return fmt.Errorf("only the draft creator can start the draft: %w", ErrUnauthorized)
		}
		if !canTransition(d.Status, models.DraftStatusActive) || d.Status != models.DraftStatusLobby {
			return fmt.Errorf("cannot start draft in state %s: %w", d.Status, ErrInvalidState)
		}

		a.dealTeams(d)

		d.Status = models.DraftStatusActive
		d.CurrentPick = 1
		d.CurrentRound = 1
		d.StartedAt = &startedAt
		d.UpdatedAt = startedAt

		payload, err := json.Marshal(events.DraftStartedPayload{
			DraftID:    d.ID,
			StartedAt:  startedAt,
			Rounds:     d.Config.Rounds,
			TotalPicks: len(d.PickOrder),
		})
		if err != nil {
			return fmt.Errorf("failed to marshal draft event: %w", err)
		}
		txn.AppendEvent(events.TypeDraftStarted, payload)
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.notifier.Notify(ctx, draft.ID, events.TypeDraftStarted, events.DraftStartedPayload{
		DraftID:    draft.ID,
		StartedAt:  startedAt,
		Rounds:     draft.Config.Rounds,
		TotalPicks: len(draft.PickOrder),
	})
	a.armPickClock(ctx, draft)

	log.Info().Str("draft_id", draft.ID.String()).Msg("draft started")
	return draft, nil
}

// dealTeams fills in assignments at start time based on format and mode.
func (a *App) dealTeams(d *models.Draft) {
	if d.Config.Format == models.DraftFormatFull {
		creator := d.CreatorID
		for team, owner := range d.TeamAssignments {
			if owner == nil {
				id := creator
				d.TeamAssignments[team] = &id
			}
		}
		return
	}

	if d.Config.TeamAssignmentMode != models.AssignmentModeRandom {
		return
	}

	var unassigned []string
	for team, owner := range d.TeamAssignments {
		if owner == nil {
			unassigned = append(unassigned, team)
		}
	}
	sort.Strings(unassigned)

	a.rngMu.Lock()
	a.rng.Shuffle(len(unassigned), func(i, j int) {
		unassigned[i], unassigned[j] = unassigned[j], unassigned[i]
	})
	a.rngMu.Unlock()

	var waiting []uuid.UUID
	for _, p := range d.Participants {
		if !hasTeam(d, p.UserID) {
			waiting = append(waiting, p.UserID)
		}
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].String() < waiting[j].String()
	})

	for i, userID := range waiting {
		if i >= len(unassigned) {
			break
		}
		id := userID
		d.TeamAssignments[unassigned[i]] = &id
	}
}

// Pause suspends an active draft and stops the pick clock. Creator only.
func (a *App) Pause(ctx context.Context, draftID, userID uuid.UUID) (*models.Draft, error) {
	pausedAt := a.clock.Now().UTC()

	draft, err := a.transition(ctx, draftID, userID, models.DraftStatusPaused, events.TypeDraftPaused,
		events.DraftPausedPayload{DraftID: draftID, PausedAt: pausedAt})
	if err != nil {
		return nil, err
	}

	a.timers.Cancel(draftID)
	a.notifier.Notify(ctx, draftID, events.TypeDraftPaused, events.DraftPausedPayload{
		DraftID:  draftID,
		PausedAt: pausedAt,
	})
	return draft, nil
}

// Resume reactivates a paused draft and restarts the pick clock with a
// full window. Creator only.
func (a *App) Resume(ctx context.Context, draftID, userID uuid.UUID) (*models.Draft, error) {
	resumedAt := a.clock.Now().UTC()

	draft, err := a.transition(ctx, draftID, userID, models.DraftStatusActive, events.TypeDraftResumed,
		events.DraftResumedPayload{DraftID: draftID, ResumedAt: resumedAt})
	if err != nil {
		return nil, err
	}

	a.notifier.Notify(ctx, draftID, events.TypeDraftResumed, events.DraftResumedPayload{
		DraftID:   draftID,
		ResumedAt: resumedAt,
	})
	a.armPickClock(ctx, draft)
	return draft, nil
}

func (a *App) transition(ctx context.Context, draftID, userID uuid.UUID, to models.DraftStatus, eventType string, payload any) (*models.Draft, error) {
	return a.store.AtomicMutate(ctx, draftID, func(txn *store.Txn) error {
		if txn.Draft.CreatorID != userID {
			return fmt.Errorf("only the draft creator can change the draft state: %w", ErrUnauthorized)
		}
		if !canTransition(txn.Draft.Status, to) {
			return fmt.Errorf("cannot transition draft from %s to %s: %w", txn.Draft.Status, to, ErrInvalidState)
		}
		txn.Draft.Status = to
		txn.Draft.UpdatedAt = a.clock.Now().UTC()

		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal draft event: %w", err)
		}
		txn.AppendEvent(eventType, raw)
		return nil
	})
}

// MakePick records a pick on behalf of a participant. The caller must
// control the current slot; control is re-resolved inside the mutation so
// a trade landing between the check and the write still wins.
func (a *App) MakePick(ctx context.Context, draftID, userID uuid.UUID, playerID string) (*models.Pick, *models.Draft, error) {
	pick, draft, err := a.recordPick(ctx, draftID, playerID, &userID, true)
	if err != nil {
		return nil, nil, err
	}
	a.afterPick(ctx, draft, pick)
	return pick, draft, nil
}

// recordPick is the single write path for every pick: human, CPU cascade
// and clock timeout. All validation runs against the transactional
// aggregate; concurrent submissions serialize and the loser fails cleanly.
func (a *App) recordPick(ctx context.Context, draftID uuid.UUID, playerID string, userID *uuid.UUID, enforceControl bool) (*models.Pick, *models.Draft, error) {
	var made models.Pick
	madeAt := a.clock.Now().UTC()

	draft, err := a.store.AtomicMutate(ctx, draftID, func(txn *store.Txn) error {
		d := txn.Draft
		if d.Status != models.DraftStatusActive {
			return fmt.Errorf("draft %s is %s: %w", draftID, d.Status, ErrInvalidState)
		}

		slot, ok := d.CurrentSlot()
		if !ok {
			return fmt.Errorf("draft %s: %w", draftID, ErrOutOfPicks)
		}

		if enforceControl {
			controller := Controller(d, slot)
			if controller == nil || userID == nil || *controller != *userID {
				return fmt.Errorf("user does not control pick %d: %w", slot.Overall, ErrUnauthorized)
			}
		}

		if d.HasPicked(playerID) {
			return fmt.Errorf("player %s: %w", playerID, ErrAlreadyPicked)
		}
		if err := a.validatePlayer(ctx, d.Config.Year, playerID); err != nil {
			return err
		}

		made = models.Pick{
			ID:        uuid.New(),
			DraftID:   draftID,
			Overall:   slot.Overall,
			Round:     slot.Round,
			Pick:      slot.Pick,
			Team:      slot.EffectiveTeam(),
			UserID:    userID,
			PlayerID:  playerID,
			CreatedAt: madeAt,
		}
		txn.AppendPick(made)

		d.PickedPlayerIDs = append(d.PickedPlayerIDs, playerID)
		d.CurrentPick++
		d.UpdatedAt = madeAt
		if next, ok := d.CurrentSlot(); ok {
			d.CurrentRound = next.Round
		} else {
			d.Status = models.DraftStatusComplete
			d.CompletedAt = &madeAt

			done, err := json.Marshal(events.DraftCompletedPayload{
				DraftID:     draftID,
				CompletedAt: madeAt,
				TotalPicks:  len(d.PickOrder),
			})
			if err != nil {
				return fmt.Errorf("failed to marshal draft event: %w", err)
			}
			txn.AppendEvent(events.TypeDraftCompleted, done)
		}

		payload, err := json.Marshal(events.PickMadePayload{
			PickID:   made.ID,
			Overall:  made.Overall,
			Round:    made.Round,
			Pick:     made.Pick,
			Team:     made.Team,
			UserID:   made.UserID,
			PlayerID: made.PlayerID,
			MadeAt:   madeAt,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal pick event: %w", err)
		}
		txn.AppendEvent(events.TypePickMade, payload)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Int("overall", made.Overall).
		Str("team", made.Team).
		Str("player_id", made.PlayerID).
		Msg("pick recorded")

	return &made, draft, nil
}

// afterPick handles everything a committed pick triggers outside the
// transaction: notifications and the next slot's clock.
func (a *App) afterPick(ctx context.Context, draft *models.Draft, pick *models.Pick) {
	a.notifier.Notify(ctx, draft.ID, events.TypePickMade, events.PickMadePayload{
		PickID:   pick.ID,
		Overall:  pick.Overall,
		Round:    pick.Round,
		Pick:     pick.Pick,
		Team:     pick.Team,
		UserID:   pick.UserID,
		PlayerID: pick.PlayerID,
		MadeAt:   pick.CreatedAt,
	})

	if draft.Status == models.DraftStatusComplete {
		a.timers.Cancel(draft.ID)
		a.notifier.Notify(ctx, draft.ID, events.TypeDraftCompleted, events.DraftCompletedPayload{
			DraftID:     draft.ID,
			CompletedAt: draft.UpdatedAt,
			TotalPicks:  len(draft.PickOrder),
		})
		return
	}

	a.armPickClock(ctx, draft)
}

// armPickClock starts the pick clock when the current slot is controlled
// by a human and the draft enforces a per-pick limit. CPU slots are not
// clocked; the cascade handles them.
func (a *App) armPickClock(ctx context.Context, draft *models.Draft) {
	if draft.Status != models.DraftStatusActive || draft.Config.SecondsPerPick <= 0 {
		return
	}
	slot, ok := draft.CurrentSlot()
	if !ok {
		return
	}
	controller := Controller(draft, slot)
	if controller == nil {
		a.timers.Cancel(draft.ID)
		return
	}

	window := time.Duration(draft.Config.SecondsPerPick) * time.Second
	startedAt := a.clock.Now().UTC()
	draftID := draft.ID
	overall := slot.Overall

	a.timers.Arm(draftID, window, func() {
		a.onPickTimeout(context.Background(), draftID, overall)
	})

	a.notifier.Notify(ctx, draftID, events.TypePickStarted, events.PickStartedPayload{
		Overall:        slot.Overall,
		Round:          slot.Round,
		Team:           slot.EffectiveTeam(),
		UserID:         *controller,
		StartedAt:      startedAt,
		TimeoutAt:      startedAt.Add(window),
		SecondsPerPick: draft.Config.SecondsPerPick,
	})
}

// onPickTimeout fires when a human runs out the clock: the slot is
// autopicked as a CPU pick and the cascade resumes. A pick that landed
// after the timer fired makes this a no-op.
func (a *App) onPickTimeout(ctx context.Context, draftID uuid.UUID, overall int) {
	draft, err := a.store.GetDraft(ctx, draftID)
	if err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("pick timeout: draft lookup failed")
		return
	}
	if draft.Status != models.DraftStatusActive || draft.CurrentPick != overall {
		return
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Int("overall", overall).
		Msg("pick clock expired, autopicking")

	if _, _, err := a.AutopickCurrent(ctx, draftID); err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("timeout autopick failed")
		return
	}
	if _, _, err := a.RunCpuCascade(ctx, draftID); err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("post-timeout cascade failed")
	}
}

// AutopickCurrent selects and records a pick for the current slot using
// the CPU heuristic, regardless of who controls it.
func (a *App) AutopickCurrent(ctx context.Context, draftID uuid.UUID) (*models.Pick, *models.Draft, error) {
	draft, err := a.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, nil, fmt.Errorf("draft not found: %w", err)
	}
	slot, ok := draft.CurrentSlot()
	if !ok {
		return nil, nil, fmt.Errorf("draft %s: %w", draftID, ErrOutOfPicks)
	}

	player, err := a.selectForSlot(ctx, draft, slot)
	if err != nil {
		return nil, nil, err
	}

	pick, updated, err := a.recordPick(ctx, draftID, player.ID, nil, false)
	if err != nil {
		return nil, nil, err
	}
	a.afterPick(ctx, updated, pick)
	return pick, updated, nil
}

// selectForSlot runs the heuristic for a slot's effective team.
func (a *App) selectForSlot(ctx context.Context, draft *models.Draft, slot *models.DraftSlot) (models.Player, error) {
	team := slot.EffectiveTeam()

	available, err := a.AvailablePlayers(ctx, draft)
	if err != nil {
		return models.Player{}, err
	}

	baseNeeds, err := a.seeds.TeamNeeds(ctx, draft.Config.Year, team)
	if err != nil {
		return models.Player{}, fmt.Errorf("failed to load needs for %s: %w", team, err)
	}

	picks, err := a.store.ListPicks(ctx, draft.ID)
	if err != nil {
		return models.Player{}, fmt.Errorf("failed to list picks: %w", err)
	}
	pool, err := a.seeds.Players(ctx, draft.Config.Year)
	if err != nil {
		return models.Player{}, fmt.Errorf("failed to load player pool: %w", err)
	}
	needs := EffectiveNeeds(baseNeeds, draftedPositions(picks, team, pool))

	a.rngMu.Lock()
	defer a.rngMu.Unlock()
	return a.heuristic.Select(a.rng, available, needs)
}

// AvailablePlayers returns the seeded pool minus every drafted player,
// sorted by consensus rank as seeded.
func (a *App) AvailablePlayers(ctx context.Context, draft *models.Draft) ([]models.Player, error) {
	pool, err := a.seeds.Players(ctx, draft.Config.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load player pool: %w", err)
	}

	taken := make(map[string]bool, len(draft.PickedPlayerIDs))
	for _, id := range draft.PickedPlayerIDs {
		taken[id] = true
	}

	available := make([]models.Player, 0, len(pool))
	for _, p := range pool {
		if !taken[p.ID] {
			available = append(available, p)
		}
	}
	return available, nil
}

// Get returns a draft by id.
func (a *App) Get(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	return a.store.GetDraft(ctx, draftID)
}

// ListPicks returns the draft's pick log in overall order.
func (a *App) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	return a.store.ListPicks(ctx, draftID)
}

// validatePlayer confirms the player exists in the year's seeded pool.
func (a *App) validatePlayer(ctx context.Context, year int, playerID string) error {
	pool, err := a.seeds.Players(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to load player pool: %w", err)
	}
	for _, p := range pool {
		if p.ID == playerID {
			return nil
		}
	}
	return fmt.Errorf("player %s not in pool: %w", playerID, ErrNotFound)
}

// draftedPositions maps a team's picks so far to their positions.
func draftedPositions(picks []models.Pick, team string, pool []models.Player) []string {
	byID := make(map[string]models.Player, len(pool))
	for _, p := range pool {
		byID[p.ID] = p
	}

	var positions []string
	for _, pick := range picks {
		if pick.Team != team {
			continue
		}
		if p, ok := byID[pick.PlayerID]; ok {
			positions = append(positions, p.Position)
		}
	}
	return positions
}

func hasTeam(d *models.Draft, userID uuid.UUID) bool {
	for _, owner := range d.TeamAssignments {
		if owner != nil && *owner == userID {
			return true
		}
	}
	return false
}
