package trade

import (
	"math"

	"github.com/draftday/mockdraft/internal/models"
)

// ValuationConfig holds the tunable constants of the trade value chart.
// The defaults approximate the classic chart (pick 1 worth 3000 points,
// decaying smoothly through the rounds); the exact values are product
// tuning, not business rules.
type ValuationConfig struct {
	// BaseValue is the value of the first overall pick.
	BaseValue float64
	// Decay is the per-slot exponential decay rate.
	Decay float64
	// FutureYearDiscount multiplies a pick's value once per year out.
	FutureYearDiscount float64
	// MinAcceptSurplus is the net gain a CPU team demands before accepting.
	MinAcceptSurplus float64
}

// DefaultValuationConfig returns the standard chart constants.
func DefaultValuationConfig() ValuationConfig {
	return ValuationConfig{
		BaseValue:          3000,
		Decay:              0.0425,
		FutureYearDiscount: 0.5,
		MinAcceptSurplus:   30,
	}
}

// Valuator maps trade pieces to chart points.
type Valuator struct {
	cfg ValuationConfig
}

// NewValuator creates a Valuator with the given chart constants.
func NewValuator(cfg ValuationConfig) *Valuator {
	return &Valuator{cfg: cfg}
}

// PickValue returns the chart value of a current-draft slot.
func (v *Valuator) PickValue(overall int) float64 {
	if overall < 1 {
		return 0
	}
	return v.cfg.BaseValue * math.Exp(-v.cfg.Decay*float64(overall-1))
}

// FutureValue returns the discounted value of a future pick. The pick is
// valued at the middle of its round and discounted once per year out.
func (v *Valuator) FutureValue(year, round, draftYear int) float64 {
	midRound := (round-1)*32 + 16
	value := v.PickValue(midRound)

	yearsOut := year - draftYear
	for i := 0; i < yearsOut; i++ {
		value *= v.cfg.FutureYearDiscount
	}
	return value
}

// PieceValue values a single trade piece relative to the given draft year.
func (v *Valuator) PieceValue(piece models.TradePiece, draftYear int) float64 {
	switch piece.Type {
	case models.TradePieceCurrentPick:
		return v.PickValue(piece.Overall)
	case models.TradePieceFuturePick:
		return v.FutureValue(piece.Year, piece.Round, draftYear)
	default:
		return 0
	}
}

// TotalValue sums the chart value of a package of pieces.
func (v *Valuator) TotalValue(pieces []models.TradePiece, draftYear int) float64 {
	var total float64
	for _, piece := range pieces {
		total += v.PieceValue(piece, draftYear)
	}
	return total
}

// SurplusValue is the net chart value of receiving `receives` in exchange
// for `gives`.
func (v *Valuator) SurplusValue(gives, receives []models.TradePiece, draftYear int) float64 {
	return v.TotalValue(receives, draftYear) - v.TotalValue(gives, draftYear)
}
