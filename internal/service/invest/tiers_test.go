package invest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierForAmount(t *testing.T) {
	cases := []struct {
		amount float64
		tier   string
	}{
		{100, "atom"},
		{999, "atom"},
		{1000, "neo"},
		{4999, "neo"},
		{5000, "sol"},
		{14999, "sol"},
		{15000, "eth"},
		{49999, "eth"},
		{50000, "btc"},
		{1000000, "btc"},
	}
	for _, c := range cases {
		tier := TierForAmount(c.amount)
		require.NotNil(t, tier, "amount %.2f", c.amount)
		assert.Equal(t, c.tier, tier.Name, "amount %.2f", c.amount)
	}

	t.Run("低于最小档位", func(t *testing.T) {
		assert.Nil(t, TierForAmount(99.99))
		assert.Nil(t, TierForAmount(0))
		assert.Nil(t, TierForAmount(-100))
	})
}

func TestTierByName(t *testing.T) {
	tier := TierByName("sol")
	require.NotNil(t, tier)
	assert.Equal(t, 3.5, tier.RoiPercent)

	assert.Nil(t, TierByName("doge"))
}

func TestTiersOrdered(t *testing.T) {
	all := Tiers()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].MinAmount, all[i-1].MinAmount)
		assert.Greater(t, all[i].RoiPercent, all[i-1].RoiPercent)
	}
}
