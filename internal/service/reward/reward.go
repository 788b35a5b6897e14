package reward

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/looksia/looksledger/internal/models"
)

// Source yields a value in [0, 1)
type Source func() float64

// Weight binds one outcome to its probability
type Weight struct {
	Outcome     models.PrizeType
	Probability float64
}

// DefaultTable is the production wheel: 10% pro, 90% basic
// Pro owns the low interval [0, 0.1), basic owns [0.1, 1)
func DefaultTable() []Weight {
	return []Weight{
		{Outcome: models.PrizePro, Probability: 0.1},
		{Outcome: models.PrizeBasic, Probability: 0.9},
	}
}

type Engine struct {
	table  []Weight
	source Source
}

// New validates the weight table once and returns a ready engine
// If source is nil the engine falls back to math/rand
func New(table []Weight, source Source) (*Engine, error) {
	if len(table) == 0 {
		return nil, errors.New("weight table must not be empty")
	}

	sum := 0.0
	for _, w := range table {
		if w.Probability <= 0 {
			return nil, fmt.Errorf("probability of %q must be positive, got %v", w.Outcome, w.Probability)
		}
		sum += w.Probability
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("probabilities must sum to 1, got %v", sum)
	}

	if source == nil {
		source = rand.Float64
	}

	return &Engine{table: table, source: source}, nil
}

// Draw partitions the cumulative probability line into contiguous
// half-open intervals [lo, hi) in table order and returns the outcome
// whose interval contains the drawn value
// A value exactly at an interval boundary resolves to the later outcome
func (e *Engine) Draw() models.PrizeType {
	value := e.source()

	cumulative := 0.0
	for _, w := range e.table[:len(e.table)-1] {
		cumulative += w.Probability
		if value < cumulative {
			return w.Outcome
		}
	}

	// Last interval is [cumulative, 1); it also absorbs float slop
	return e.table[len(e.table)-1].Outcome
}
