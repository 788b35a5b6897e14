package reward

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/looksia/looksledger/internal/models"
)

// fixedSource returns the given values in order
func fixedSource(values ...float64) Source {
	i := 0
	return func() float64 {
		v := values[i]
		i++
		return v
	}
}

func TestNew(t *testing.T) {
	t.Run("default table ok", func(t *testing.T) {
		engine, err := New(DefaultTable(), nil)

		require.NoError(t, err)
		require.NotNil(t, engine)
	})

	t.Run("empty table fail", func(t *testing.T) {
		_, err := New(nil, nil)

		require.Error(t, err, "empty table should be rejected")
	})

	t.Run("zero probability fail", func(t *testing.T) {
		_, err := New([]Weight{
			{Outcome: models.PrizeBasic, Probability: 1.0},
			{Outcome: models.PrizePro, Probability: 0},
		}, nil)

		require.Error(t, err, "non-positive probability should be rejected")
	})

	t.Run("sum not one fail", func(t *testing.T) {
		_, err := New([]Weight{
			{Outcome: models.PrizeBasic, Probability: 0.5},
			{Outcome: models.PrizePro, Probability: 0.4},
		}, nil)

		require.Error(t, err, "probabilities not summing to 1 should be rejected")
	})
}

func TestDraw(t *testing.T) {
	draw := func(t *testing.T, value float64) models.PrizeType {
		t.Helper()
		engine, err := New(DefaultTable(), fixedSource(value))
		require.NoError(t, err)
		return engine.Draw()
	}

	t.Run("low value wins pro", func(t *testing.T) {
		require.Equal(t, models.PrizePro, draw(t, 0.05))
	})

	t.Run("high value wins basic", func(t *testing.T) {
		require.Equal(t, models.PrizeBasic, draw(t, 0.95))
	})

	t.Run("boundary value belongs to later interval", func(t *testing.T) {
		// Intervals are half-open: pro owns [0, 0.1), basic owns [0.1, 1)
		require.Equal(t, models.PrizeBasic, draw(t, 0.1))
	})

	t.Run("zero value wins pro", func(t *testing.T) {
		require.Equal(t, models.PrizePro, draw(t, 0.0))
	})

	t.Run("table order defines intervals", func(t *testing.T) {
		table := []Weight{
			{Outcome: models.PrizeBasic, Probability: 0.9},
			{Outcome: models.PrizePro, Probability: 0.1},
		}

		engine, err := New(table, fixedSource(0.05, 0.9, 0.95))
		require.NoError(t, err)

		require.Equal(t, models.PrizeBasic, engine.Draw(), "0.05 falls into [0, 0.9)")
		require.Equal(t, models.PrizePro, engine.Draw(), "0.9 falls into [0.9, 1)")
		require.Equal(t, models.PrizePro, engine.Draw(), "0.95 falls into [0.9, 1)")
	})

	t.Run("distribution roughly matches weights", func(t *testing.T) {
		engine, err := New(DefaultTable(), nil)
		require.NoError(t, err)

		const draws = 10000
		pro := 0
		for range draws {
			if engine.Draw() == models.PrizePro {
				pro++
			}
		}

		require.InDelta(t, 0.1, float64(pro)/draws, 0.03, "pro share should be near 10%%")
	})
}
