package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultMinNotional은 거래소 규칙에 최소 주문 가치가 없을 때 사용하는 기본값입니다 (USDT)
const DefaultMinNotional = 5.0

// QuantityPrecision은 수량/가격 반올림에 사용하는 소수점 자릿수입니다
const QuantityPrecision = 8

// SymbolRules는 심볼별 거래 제약 조건을 나타냅니다
type SymbolRules struct {
	Symbol      string  // 심볼 이름 (예: BTCUSDT)
	MinQuantity float64 // 최소 주문 수량
	MaxQuantity float64 // 최대 주문 수량 (0이면 제한 없음)
	StepSize    float64 // 수량 최소 단위 (예: 0.001 BTC)
	MinPrice    float64 // 최소 가격
	MaxPrice    float64 // 최대 가격 (0이면 제한 없음)
	TickSize    float64 // 가격 최소 단위 (예: 0.1 USDT)
	MinNotional float64 // 최소 주문 가치 (예: 5 USDT)
	IsFallback  bool    // 정적 테이블에서 가져온 경우 true
}

// Validate는 규칙의 불변 조건을 확인합니다
func (r SymbolRules) Validate() error {
	if r.StepSize <= 0 {
		return fmt.Errorf("%s: stepSize는 0보다 커야 합니다 (%v)", r.Symbol, r.StepSize)
	}
	if r.TickSize <= 0 {
		return fmt.Errorf("%s: tickSize는 0보다 커야 합니다 (%v)", r.Symbol, r.TickSize)
	}
	if r.MinQuantity < r.StepSize {
		return fmt.Errorf("%s: minQuantity(%v)가 stepSize(%v)보다 작습니다", r.Symbol, r.MinQuantity, r.StepSize)
	}
	return nil
}

// FloorToStep은 value를 step의 배수로 내림합니다
// 결과는 8자리에서 절사되며, step이 0 이하이면 value를 그대로 반환합니다
func FloorToStep(value, step float64) float64 {
	return FloorToStepDecimal(decimal.NewFromFloat(value), decimal.NewFromFloat(step)).InexactFloat64()
}

// FloorToStepDecimal은 FloorToStep의 decimal 버전입니다
func FloorToStepDecimal(value, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return value.Truncate(QuantityPrecision)
	}
	steps := value.Div(step).Floor()
	return steps.Mul(step).Truncate(QuantityPrecision)
}

// CeilToStepDecimal은 value를 step의 배수로 올림합니다
func CeilToStepDecimal(value, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return value
	}
	steps := value.Div(step).Ceil()
	return steps.Mul(step).Truncate(QuantityPrecision)
}

// AdjustQuantity는 수량을 stepSize에 맞춰 내림합니다
func (r SymbolRules) AdjustQuantity(quantity float64) float64 {
	return FloorToStep(quantity, r.StepSize)
}

// AdjustPrice는 가격을 tickSize에 맞춰 내림합니다
func (r SymbolRules) AdjustPrice(price float64) float64 {
	return FloorToStep(price, r.TickSize)
}

// PriceInRange는 가격이 거래소 가격 필터 범위 안에 있는지 확인합니다
func (r SymbolRules) PriceInRange(price float64) bool {
	if price <= 0 || price < r.MinPrice {
		return false
	}
	if r.MaxPrice > 0 && price > r.MaxPrice {
		return false
	}
	return true
}
