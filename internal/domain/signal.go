package domain

import (
	"fmt"
	"strings"
)

// Signal은 웹훅으로 수신한 매매 시그널을 표현합니다
// 별칭 필드 해석은 경계(webhook 패키지)에서 끝나며, 여기에는 확정된 값만 담깁니다
type Signal struct {
	Symbol          string  // 심볼 (예: BTCUSDT)
	Action          Action  // buy/sell/close
	BalanceFraction float64 // 사용할 가용 잔고 비율 (0, 1]
	Leverage        int     // 레버리지 (0이면 설정 기본값 사용)

	StopPercent   float64 // 손절 폭 (%)
	TargetPercent float64 // 익절 폭 (%)
	StopPrice     float64 // 명시적 손절가 (퍼센트보다 우선)
	TargetPrice   float64 // 명시적 익절가 (퍼센트보다 우선)

	Source string // 시그널 출처 (예: tradingview, scalp)
}

// HasBracket은 손절/익절 주문이 요청되었는지 확인합니다
func (s Signal) HasBracket() bool {
	return s.HasStop() || s.HasTarget()
}

// HasStop은 손절 주문이 요청되었는지 확인합니다
func (s Signal) HasStop() bool {
	return s.StopPrice > 0 || s.StopPercent > 0
}

// HasTarget은 익절 주문이 요청되었는지 확인합니다
func (s Signal) HasTarget() bool {
	return s.TargetPrice > 0 || s.TargetPercent > 0
}

// Validate는 시그널 입력값을 확인합니다
func (s Signal) Validate() error {
	if strings.TrimSpace(s.Symbol) == "" {
		return fmt.Errorf("심볼이 비어 있습니다")
	}
	switch s.Action {
	case ActionBuy, ActionSell:
		if s.BalanceFraction <= 0 || s.BalanceFraction > 1 {
			return fmt.Errorf("잔고 비율은 (0, 1] 범위여야 합니다: %v", s.BalanceFraction)
		}
		if s.Leverage < 0 || s.Leverage > MaxLeverage {
			return fmt.Errorf("레버리지는 1 이상 %d 이하이어야 합니다: %d", MaxLeverage, s.Leverage)
		}
		if s.StopPercent < 0 || s.TargetPercent < 0 || s.StopPrice < 0 || s.TargetPrice < 0 {
			return fmt.Errorf("손절/익절 값은 음수일 수 없습니다")
		}
	case ActionClose:
	default:
		return fmt.Errorf("지원하지 않는 액션: %q", s.Action)
	}
	return nil
}

// MaxLeverage는 거래소가 허용하는 최대 레버리지입니다
const MaxLeverage = 125

// NormalizeSymbol은 트레이딩뷰 심볼을 USDT 무기한 선물 심볼로 변환합니다
// (BTCUSD -> BTCUSDT, ETH -> ETHUSDT, BINANCE:BTCUSDT.P -> BTCUSDT)
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, ".P")
	s = strings.TrimSuffix(s, "PERP")
	if s == "" {
		return s
	}
	switch {
	case strings.HasSuffix(s, "USDT"):
		return s
	case strings.HasSuffix(s, "USD"):
		return s + "T"
	default:
		return s + "USDT"
	}
}
