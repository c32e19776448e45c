package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftday/mockdraft/internal/events"
	"github.com/draftday/mockdraft/internal/models"
	"github.com/draftday/mockdraft/internal/store"
)

// DraftStore defines what the trade app needs from the document store.
type DraftStore interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	AtomicMutate(ctx context.Context, draftID uuid.UUID, fn func(*store.Txn) error) (*models.Draft, error)
	CreateTrade(ctx context.Context, trade *models.Trade) error
	GetTrade(ctx context.Context, id uuid.UUID) (*models.Trade, error)
	UpdateTrade(ctx context.Context, trade *models.Trade) error
	ListTradesByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Trade, error)
}

// Notifier defines the fire-and-forget notification sink. Implementations
// swallow their own failures; nothing here may roll back a commit.
type Notifier interface {
	Notify(ctx context.Context, draftID uuid.UUID, eventType string, payload any)
}

// App handles the trade proposal lifecycle, CPU counter-offer evaluation
// and atomic execution.
type App struct {
	store    DraftStore
	valuator *Valuator
	notifier Notifier
	clock    clockwork.Clock
}

// NewApp creates a trade App.
func NewApp(st DraftStore, valuator *Valuator, notifier Notifier, clock clockwork.Clock) *App {
	return &App{
		store:    st,
		valuator: valuator,
		notifier: notifier,
		clock:    clock,
	}
}

// ProposeRequest describes a new trade proposal.
type ProposeRequest struct {
	DraftID          uuid.UUID           `json:"draft_id"`
	ProposerID       uuid.UUID           `json:"proposer_id"`
	ProposerTeam     string              `json:"proposer_team"`
	RecipientTeam    string              `json:"recipient_team"`
	ProposerGives    []models.TradePiece `json:"proposer_gives"`
	ProposerReceives []models.TradePiece `json:"proposer_receives"`
	ExpiresAt        *time.Time          `json:"expires_at,omitempty"`
}

// Propose creates a pending trade after validating that the draft allows
// trading, the proposer controls the proposing team, and every piece is
// currently owned as claimed.
func (a *App) Propose(ctx context.Context, req ProposeRequest) (*models.Trade, error) {
	draft, err := a.store.GetDraft(ctx, req.DraftID)
	if err != nil {
		return nil, fmt.Errorf("draft not found: %w", err)
	}

	if draft.Status != models.DraftStatusActive {
		return nil, fmt.Errorf("draft %s is %s: %w", draft.ID, draft.Status, ErrInvalidState)
	}
	if !draft.Config.TradesEnabled {
		return nil, fmt.Errorf("trading disabled for draft %s: %w", draft.ID, ErrInvalidState)
	}

	if owner := draft.TeamAssignments[req.ProposerTeam]; owner == nil || *owner != req.ProposerID {
		return nil, fmt.Errorf("user %s does not control %s: %w", req.ProposerID, req.ProposerTeam, ErrUnauthorized)
	}
	if len(req.ProposerGives) == 0 && len(req.ProposerReceives) == 0 {
		return nil, fmt.Errorf("trade has no pieces: %w", ErrInvalidState)
	}

	now := a.clock.Now().UTC()
	trade := &models.Trade{
		ID:               uuid.New(),
		DraftID:          req.DraftID,
		ProposerID:       req.ProposerID,
		ProposerTeam:     req.ProposerTeam,
		RecipientID:      draft.TeamAssignments[req.RecipientTeam],
		RecipientTeam:    req.RecipientTeam,
		ProposerGives:    req.ProposerGives,
		ProposerReceives: req.ProposerReceives,
		Status:           models.TradeStatusPending,
		ExpiresAt:        req.ExpiresAt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	// Dry-run the execution so an immediately-stale proposal fails now
	// instead of at accept time.
	if _, err := ComputeExecution(trade, draft); err != nil {
		return nil, err
	}

	if err := a.store.CreateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	a.notifier.Notify(ctx, trade.DraftID, events.TypeTradeProposed, events.TradeProposedPayload{
		TradeID:       trade.ID,
		ProposerTeam:  trade.ProposerTeam,
		RecipientTeam: trade.RecipientTeam,
	})

	log.Info().
		Str("trade_id", trade.ID.String()).
		Str("proposer_team", trade.ProposerTeam).
		Str("recipient_team", trade.RecipientTeam).
		Msg("trade proposed")

	return trade, nil
}

// Evaluation is the advisory result of a CPU trade review. It never
// mutates state; callers display it and then accept, force or cancel.
type Evaluation struct {
	Accept            bool    `json:"accept"`
	Reason            string  `json:"reason"`
	CpuGivingValue    float64 `json:"cpu_giving_value"`
	CpuReceivingValue float64 `json:"cpu_receiving_value"`
	NetValue          float64 `json:"net_value"`
}

// EvaluateCpu scores a pending trade from the CPU counterparty's side:
// the CPU receives the proposer's gives and gives up the proposer's
// receives, and accepts only when its net gain clears the minimum surplus.
func (a *App) EvaluateCpu(ctx context.Context, tradeID uuid.UUID) (*Evaluation, error) {
	trade, err := a.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("trade not found: %w", err)
	}
	draft, err := a.store.GetDraft(ctx, trade.DraftID)
	if err != nil {
		return nil, fmt.Errorf("draft not found: %w", err)
	}
	return a.evaluate(trade, draft.Config.Year), nil
}

func (a *App) evaluate(trade *models.Trade, draftYear int) *Evaluation {
	receiving := a.valuator.TotalValue(trade.ProposerGives, draftYear)
	giving := a.valuator.TotalValue(trade.ProposerReceives, draftYear)
	net := receiving - giving

	eval := &Evaluation{
		CpuGivingValue:    giving,
		CpuReceivingValue: receiving,
		NetValue:          net,
	}
	if net >= a.valuator.cfg.MinAcceptSurplus {
		eval.Accept = true
		eval.Reason = fmt.Sprintf("fair return: net gain %.0f points", net)
	} else {
		eval.Reason = fmt.Sprintf("insufficient return: net %.0f points, need %.0f",
			net, a.valuator.cfg.MinAcceptSurplus)
	}
	return eval
}

// Accept resolves a pending trade in favor of execution. Only the
// recipient may accept; for a CPU counterparty the proposer accepts after
// the CPU evaluation has approved the offer.
func (a *App) Accept(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error) {
	trade, err := a.resolvable(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	if trade.RecipientID != nil {
		if *trade.RecipientID != userID {
			return nil, fmt.Errorf("user %s is not the trade recipient: %w", userID, ErrUnauthorized)
		}
	} else {
		if trade.ProposerID != userID {
			return nil, fmt.Errorf("user %s is not the trade proposer: %w", userID, ErrUnauthorized)
		}
		draft, err := a.store.GetDraft(ctx, trade.DraftID)
		if err != nil {
			return nil, fmt.Errorf("draft not found: %w", err)
		}
		if eval := a.evaluate(trade, draft.Config.Year); !eval.Accept {
			return nil, fmt.Errorf("cpu declined trade (%s): %w", eval.Reason, ErrInvalidState)
		}
	}

	return a.execute(ctx, trade, false)
}

// Force executes a pending trade regardless of the CPU evaluation. Only
// the proposer may force, and only against a CPU counterparty.
func (a *App) Force(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error) {
	trade, err := a.resolvable(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.ProposerID != userID {
		return nil, fmt.Errorf("user %s is not the trade proposer: %w", userID, ErrUnauthorized)
	}
	if trade.RecipientID != nil {
		return nil, fmt.Errorf("cannot force a trade with a human recipient: %w", ErrInvalidState)
	}
	return a.execute(ctx, trade, true)
}

// Reject resolves a pending trade against execution. Recipient only.
func (a *App) Reject(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error) {
	trade, err := a.resolvable(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.RecipientID == nil || *trade.RecipientID != userID {
		return nil, fmt.Errorf("user %s is not the trade recipient: %w", userID, ErrUnauthorized)
	}
	return a.finalize(ctx, trade, models.TradeStatusRejected)
}

// Cancel withdraws a pending trade. Proposer only.
func (a *App) Cancel(ctx context.Context, tradeID, userID uuid.UUID) (*models.Trade, error) {
	trade, err := a.resolvable(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.ProposerID != userID {
		return nil, fmt.Errorf("user %s is not the trade proposer: %w", userID, ErrUnauthorized)
	}
	return a.finalize(ctx, trade, models.TradeStatusCancelled)
}

// Get returns a trade by id.
func (a *App) Get(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error) {
	return a.store.GetTrade(ctx, tradeID)
}

// ListByDraft returns all trades proposed in a draft.
func (a *App) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]models.Trade, error) {
	return a.store.ListTradesByDraft(ctx, draftID)
}

// resolvable loads a trade and verifies it can still be acted on. An
// expired pending trade is finalized as EXPIRED on first touch.
func (a *App) resolvable(ctx context.Context, tradeID uuid.UUID) (*models.Trade, error) {
	trade, err := a.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, fmt.Errorf("trade not found: %w", err)
	}
	if trade.IsTerminal() {
		return nil, fmt.Errorf("trade %s is %s: %w", trade.ID, trade.Status, ErrInvalidState)
	}
	if trade.IsExpired(a.clock.Now()) {
		if _, err := a.finalize(ctx, trade, models.TradeStatusExpired); err != nil {
			log.Error().Err(err).Str("trade_id", trade.ID.String()).Msg("failed to expire trade")
		}
		return nil, fmt.Errorf("trade %s: %w", trade.ID, ErrExpired)
	}
	return trade, nil
}

// finalize writes a terminal non-executed status.
func (a *App) finalize(ctx context.Context, trade *models.Trade, status models.TradeStatus) (*models.Trade, error) {
	trade.Status = status
	trade.UpdatedAt = a.clock.Now().UTC()
	if err := a.store.UpdateTrade(ctx, trade); err != nil {
		return nil, fmt.Errorf("failed to update trade: %w", err)
	}

	a.notifier.Notify(ctx, trade.DraftID, events.TypeTradeResolved, events.TradeResolvedPayload{
		TradeID: trade.ID,
		Status:  string(trade.Status),
	})
	return trade, nil
}

// execute applies the trade's ownership rewrite inside a single draft
// transaction. Re-validation happens against the freshly loaded aggregate;
// either every piece moves or none do.
func (a *App) execute(ctx context.Context, trade *models.Trade, forced bool) (*models.Trade, error) {
	executedAt := a.clock.Now().UTC()

	_, err := a.store.AtomicMutate(ctx, trade.DraftID, func(txn *store.Txn) error {
		if txn.Draft.Status != models.DraftStatusActive {
			return fmt.Errorf("draft %s is %s: %w", txn.Draft.ID, txn.Draft.Status, ErrInvalidState)
		}

		exec, err := ComputeExecution(trade, txn.Draft)
		if err != nil {
			return err
		}
		txn.Draft.PickOrder = exec.PickOrder
		txn.Draft.FuturePicks = exec.FuturePicks
		txn.Draft.UpdatedAt = executedAt

		trade.Status = models.TradeStatusAccepted
		trade.IsForceTrade = forced
		trade.UpdatedAt = executedAt
		txn.StageTrade(trade)

		payload, err := json.Marshal(events.TradeExecutedPayload{
			TradeID:       trade.ID,
			ProposerTeam:  trade.ProposerTeam,
			RecipientTeam: trade.RecipientTeam,
			ExecutedAt:    executedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal trade event: %w", err)
		}
		txn.AppendEvent(events.TypeTradeExecuted, payload)
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.notifier.Notify(ctx, trade.DraftID, events.TypeTradeExecuted, events.TradeExecutedPayload{
		TradeID:       trade.ID,
		ProposerTeam:  trade.ProposerTeam,
		RecipientTeam: trade.RecipientTeam,
		ExecutedAt:    executedAt,
	})

	log.Info().
		Str("trade_id", trade.ID.String()).
		Bool("forced", forced).
		Msg("trade executed")

	return trade, nil
}
