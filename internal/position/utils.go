package position

import (
	"github.com/assist-by/hookbridge/internal/domain"
)

// GetOrderSideForEntry는 포지션 진입을 위한 주문 사이드를 반환합니다
func GetOrderSideForEntry(direction domain.Direction) domain.OrderSide {
	if direction == domain.Long {
		return domain.Buy
	}
	return domain.Sell
}

// GetOrderSideForExit는 포지션 청산을 위한 주문 사이드를 반환합니다
func GetOrderSideForExit(direction domain.Direction) domain.OrderSide {
	if direction == domain.Long {
		return domain.Sell
	}
	return domain.Buy
}

// GetPositionSideForEntry는 헤지 모드 여부에 따른 진입 포지션 사이드를 반환합니다
// 단방향 모드에서는 빈 값을 반환해 거래소 기본값(BOTH)을 사용합니다
func GetPositionSideForEntry(direction domain.Direction, hedgeMode bool) domain.PositionSide {
	if !hedgeMode {
		return ""
	}
	if direction == domain.Long {
		return domain.LongPosition
	}
	return domain.ShortPosition
}

// absAmount는 부호 있는 포지션 수량의 절대값을 8자리로 절사해 반환합니다
func absAmount(amount float64) float64 {
	if amount < 0 {
		amount = -amount
	}
	return domain.FloorToStep(amount, 0)
}
