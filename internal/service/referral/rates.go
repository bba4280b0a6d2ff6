// Package referral 推荐关系服务
package referral

// MaxLevel 分佣层级深度
const MaxLevel = 6

// levelRates 各级佣金比例，下标 0 对应一级直推。
// 一级计入直推佣金，2-6 级计入层级佣金，合计 3.75%。
var levelRates = [MaxLevel]float64{
	0.0200, // L1 直推 2.00%
	0.0075, // L2 0.75%
	0.0050, // L3 0.50%
	0.0025, // L4 0.25%
	0.0015, // L5 0.15%
	0.0010, // L6 0.10%
}

// RateForLevel 返回指定层级的佣金比例，层级越界返回 0
func RateForLevel(level int) float64 {
	if level < 1 || level > MaxLevel {
		return 0
	}
	return levelRates[level-1]
}

// TotalPoolRate 返回全部层级的佣金比例之和
func TotalPoolRate() float64 {
	var total float64
	for _, rate := range levelRates {
		total += rate
	}
	return total
}
