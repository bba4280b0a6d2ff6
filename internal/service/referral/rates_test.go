package referral

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateForLevel(t *testing.T) {
	t.Run("各级费率", func(t *testing.T) {
		assert.Equal(t, 0.0200, RateForLevel(1))
		assert.Equal(t, 0.0075, RateForLevel(2))
		assert.Equal(t, 0.0050, RateForLevel(3))
		assert.Equal(t, 0.0025, RateForLevel(4))
		assert.Equal(t, 0.0015, RateForLevel(5))
		assert.Equal(t, 0.0010, RateForLevel(6))
	})

	t.Run("越界层级返回零", func(t *testing.T) {
		assert.Equal(t, 0.0, RateForLevel(0))
		assert.Equal(t, 0.0, RateForLevel(7))
		assert.Equal(t, 0.0, RateForLevel(-1))
	})
}

func TestTotalPoolRate(t *testing.T) {
	assert.InDelta(t, 0.0375, TotalPoolRate(), 1e-9)
}
