package position

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/assist-by/hookbridge/internal/domain"
)

// suggestionPrecision은 제안 비율의 소수점 자릿수입니다
const suggestionPrecision = 6

// AccountSource는 포지션 계산에 필요한 거래소 조회 기능입니다
type AccountSource interface {
	GetBalance(ctx context.Context) (domain.BalanceSnapshot, error)
	GetPrice(ctx context.Context, symbol string) (float64, error)
}

// RulesProvider는 심볼 거래 규칙을 제공합니다
type RulesProvider interface {
	Resolve(ctx context.Context, symbol string) (*domain.SymbolRules, error)
}

// SizingRequest는 포지션 사이즈 계산 요청입니다
type SizingRequest struct {
	Symbol          string
	BalanceFraction float64 // (0, 1]
	Leverage        int     // 1 이상
}

// Validate는 요청값 범위를 확인합니다
func (r SizingRequest) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: 심볼이 비어 있습니다", ErrValidation)
	}
	if r.BalanceFraction <= 0 || r.BalanceFraction > 1 {
		return fmt.Errorf("%w: 잔고 비율은 (0, 1] 범위여야 합니다 (%v)", ErrValidation, r.BalanceFraction)
	}
	if r.Leverage < 1 || r.Leverage > domain.MaxLeverage {
		return fmt.Errorf("%w: 레버리지는 1 이상 %d 이하이어야 합니다 (%d)", ErrValidation, domain.MaxLeverage, r.Leverage)
	}
	return nil
}

// SizingResult는 포지션 계산 결과를 담는 구조체입니다
type SizingResult struct {
	Symbol           string
	Quantity         float64 // stepSize로 내림한 최종 수량
	PositionNotional float64 // 가용 잔고 * 비율 * 레버리지 (USDT)
	ReferencePrice   float64 // 계산에 사용한 현재가
	RawQuantity      float64 // 내림 전 수량
	MinQuantity      float64
	MinNotional      float64
	Leverage         int
	BalanceFraction  float64
	Clamped          bool // 최대 수량으로 제한된 경우 true
	Balance          domain.BalanceSnapshot
	Rules            domain.SymbolRules
}

// Notional은 최종 수량의 주문 가치를 반환합니다
func (r SizingResult) Notional() float64 {
	return decimal.NewFromFloat(r.Quantity).Mul(decimal.NewFromFloat(r.ReferencePrice)).InexactFloat64()
}

// Sizer는 잔고 비율과 레버리지를 거래소 규칙에 맞는 주문 수량으로 변환합니다
type Sizer struct {
	account AccountSource
	rules   RulesProvider
}

// NewSizer는 새로운 Sizer를 생성합니다
func NewSizer(account AccountSource, rules RulesProvider) *Sizer {
	return &Sizer{account: account, rules: rules}
}

// Size는 적절한 포지션 크기를 계산합니다
func (s *Sizer) Size(ctx context.Context, req SizingRequest) (*SizingResult, error) {
	if err := req.Validate(); err != nil {
		return nil, NewPositionError(req.Symbol, "size", err)
	}

	// 1. 잔고 확인
	balance, err := s.account.GetBalance(ctx)
	if err != nil {
		return nil, NewPositionError(req.Symbol, "get_balance", err)
	}
	if err := balance.Validate(); err != nil {
		return nil, NewPositionError(req.Symbol, "get_balance", err)
	}

	// 2. 현재가 확인
	price, err := s.account.GetPrice(ctx, req.Symbol)
	if err != nil {
		return nil, NewPositionError(req.Symbol, "get_price", err)
	}
	if price <= 0 {
		return nil, NewPositionError(req.Symbol, "get_price", fmt.Errorf("유효하지 않은 현재가: %v", price))
	}

	// 3. 포지션 가치 = 가용 잔고 * 비율 * 레버리지
	available := decimal.NewFromFloat(balance.AvailableBalance)
	fraction := decimal.NewFromFloat(req.BalanceFraction)
	leverage := decimal.NewFromInt(int64(req.Leverage))
	refPrice := decimal.NewFromFloat(price)

	notional := available.Mul(fraction).Mul(leverage)

	// 4. 내림 전 수량
	rawQty := notional.Div(refPrice)

	// 5. 심볼 규칙 조회
	rules, err := s.rules.Resolve(ctx, req.Symbol)
	if err != nil {
		return nil, err
	}

	// 6. stepSize 배수로 내림
	step := decimal.NewFromFloat(rules.StepSize)
	qty := domain.FloorToStepDecimal(rawQty, step)

	clamped := false
	if rules.MaxQuantity > 0 {
		maxQty := domain.FloorToStepDecimal(decimal.NewFromFloat(rules.MaxQuantity), step)
		if qty.GreaterThan(maxQty) {
			qty = maxQty
			clamped = true
		}
	}

	// 7. 최소 수량 및 최소 주문 가치 확인
	minQty := decimal.NewFromFloat(rules.MinQuantity)
	minNotional := decimal.NewFromFloat(rules.MinNotional)
	if qty.LessThan(minQty) || qty.Mul(refPrice).LessThan(minNotional) {
		required := requiredQuantity(minQty, minNotional, refPrice, step)
		return nil, &InsufficientBalanceError{
			Symbol:            req.Symbol,
			RequestedFraction: req.BalanceFraction,
			Quantity:          qty.InexactFloat64(),
			RequiredQuantity:  required.InexactFloat64(),
			MinNotional:       rules.MinNotional,
			SuggestedFraction: suggestFraction(required, refPrice, available, leverage),
		}
	}

	// 8. 결과 반환
	return &SizingResult{
		Symbol:           req.Symbol,
		Quantity:         qty.InexactFloat64(),
		PositionNotional: notional.Truncate(domain.QuantityPrecision).InexactFloat64(),
		ReferencePrice:   price,
		RawQuantity:      rawQty.Truncate(domain.QuantityPrecision).InexactFloat64(),
		MinQuantity:      rules.MinQuantity,
		MinNotional:      rules.MinNotional,
		Leverage:         req.Leverage,
		BalanceFraction:  req.BalanceFraction,
		Clamped:          clamped,
		Balance:          balance,
		Rules:            *rules,
	}, nil
}

// requiredQuantity는 최소 수량과 최소 주문 가치를 모두 만족하는 가장 작은 step 배수입니다
func requiredQuantity(minQty, minNotional, price, step decimal.Decimal) decimal.Decimal {
	required := domain.CeilToStepDecimal(minQty, step)
	if minNotional.IsPositive() {
		byNotional := domain.CeilToStepDecimal(minNotional.Div(price), step)
		if byNotional.GreaterThan(required) {
			required = byNotional
		}
	}
	return required
}

// suggestFraction은 required 수량을 만들기 위한 최소 잔고 비율을 올림으로 계산합니다
// 가용 잔고가 0이면 0을 반환합니다
func suggestFraction(required, price, available, leverage decimal.Decimal) float64 {
	capacity := available.Mul(leverage)
	if !capacity.IsPositive() {
		return 0
	}
	fraction := required.Mul(price).Div(capacity)
	return fraction.RoundUp(suggestionPrecision).InexactFloat64()
}
