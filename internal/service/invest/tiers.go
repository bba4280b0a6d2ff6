// Package invest 投资套餐与订阅购买流程
package invest

// Tier 套餐档位
type Tier struct {
	Name       string  // 档位名
	MinAmount  float64 // 含
	MaxAmount  float64 // 含，0 表示无上限
	RoiPercent float64 // 月度收益率（百分数）
}

// tiers 档位表，按金额区间匹配
var tiers = []Tier{
	{Name: "atom", MinAmount: 100, MaxAmount: 999, RoiPercent: 2.5},
	{Name: "neo", MinAmount: 1000, MaxAmount: 4999, RoiPercent: 3.0},
	{Name: "sol", MinAmount: 5000, MaxAmount: 14999, RoiPercent: 3.5},
	{Name: "eth", MinAmount: 15000, MaxAmount: 49999, RoiPercent: 4.0},
	{Name: "btc", MinAmount: 50000, MaxAmount: 0, RoiPercent: 4.5},
}

// TierForAmount 按投资金额匹配档位，区间外返回 nil
func TierForAmount(amount float64) *Tier {
	for i := range tiers {
		t := &tiers[i]
		if amount < t.MinAmount {
			continue
		}
		if t.MaxAmount > 0 && amount > t.MaxAmount {
			continue
		}
		return t
	}
	return nil
}

// TierByName 按档位名查找
func TierByName(name string) *Tier {
	for i := range tiers {
		if tiers[i].Name == name {
			return &tiers[i]
		}
	}
	return nil
}

// Tiers 返回全部档位
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}
