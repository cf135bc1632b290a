package trading

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/assist-by/hookbridge/internal/domain"
)

// 스캘핑 조정 기본 한도
const (
	DefaultScalpFractionCap = 0.5
	DefaultScalpLeverageCap = 10
)

// ScalpTags는 스캘핑 시그널의 정성적 태그입니다
type ScalpTags struct {
	SignalStrength  string // strong, weak
	RiskLevel       string // high, low
	MarketCondition string // volatile, ranging
}

// ScalpLimits는 조정 후 적용하는 상한입니다
type ScalpLimits struct {
	FractionCap float64
	LeverageCap int // 위험도 high일 때 레버리지 상한
}

// DefaultScalpLimits는 기본 상한을 반환합니다
func DefaultScalpLimits() ScalpLimits {
	return ScalpLimits{FractionCap: DefaultScalpFractionCap, LeverageCap: DefaultScalpLeverageCap}
}

var (
	fractionMultipliers = map[string]decimal.Decimal{
		"strong": decimal.RequireFromString("1.5"),
		"weak":   decimal.RequireFromString("0.7"),
		"high":   decimal.RequireFromString("0.6"),
		"low":    decimal.RequireFromString("1.2"),
	}
	volatileStop    = decimal.RequireFromString("1.5")
	volatileTarget  = decimal.RequireFromString("0.8")
	rangingTarget   = decimal.RequireFromString("1.3")
	adjustPrecision = int32(domain.QuantityPrecision)
)

// AdjustScalp는 태그에 따라 잔고 비율, 레버리지, 손절/익절 폭을 조정한 시그널을 반환합니다
// 같은 입력에는 항상 같은 결과를 반환합니다
func AdjustScalp(sig domain.Signal, tags ScalpTags, limits ScalpLimits) domain.Signal {
	strength := strings.ToLower(strings.TrimSpace(tags.SignalStrength))
	risk := strings.ToLower(strings.TrimSpace(tags.RiskLevel))
	market := strings.ToLower(strings.TrimSpace(tags.MarketCondition))

	// 1. 잔고 비율 조정
	fraction := decimal.NewFromFloat(sig.BalanceFraction)
	if strength == "strong" || strength == "weak" {
		fraction = fraction.Mul(fractionMultipliers[strength])
	}
	if risk == "high" || risk == "low" {
		fraction = fraction.Mul(fractionMultipliers[risk])
	}

	// 2. 비율 상한 적용
	if limits.FractionCap > 0 {
		fraction = decimal.Min(fraction, decimal.NewFromFloat(limits.FractionCap))
	}
	sig.BalanceFraction = fraction.Round(adjustPrecision).InexactFloat64()

	// 3. 위험도가 높으면 레버리지 제한
	if risk == "high" && limits.LeverageCap > 0 && sig.Leverage > limits.LeverageCap {
		sig.Leverage = limits.LeverageCap
	}

	// 4. 시장 상황에 따른 손절/익절 폭 조정
	switch market {
	case "volatile":
		sig.StopPercent = scalePercent(sig.StopPercent, volatileStop)
		sig.TargetPercent = scalePercent(sig.TargetPercent, volatileTarget)
	case "ranging":
		sig.TargetPercent = scalePercent(sig.TargetPercent, rangingTarget)
	}

	return sig
}

func scalePercent(value float64, factor decimal.Decimal) float64 {
	if value == 0 {
		return 0
	}
	return decimal.NewFromFloat(value).Mul(factor).Round(adjustPrecision).InexactFloat64()
}
