package domain

import "time"

// OrderRequest는 주문 요청 정보를 표현합니다
type OrderRequest struct {
	Symbol        string       // 심볼 (예: BTCUSDT)
	Side          OrderSide    // 매수/매도
	PositionSide  PositionSide // 롱/숏 포지션 (헤지 모드에서만 사용)
	Type          OrderType    // 주문 유형 (시장가, 지정가 등)
	Quantity      float64      // 수량
	Price         float64      // 지정가 (Limit 주문 시)
	StopPrice     float64      // 스탑 가격 (Stop 주문 시)
	TimeInForce   TimeInForce  // 주문 유효 기간 (GTC, IOC 등)
	ReduceOnly    bool         // 포지션 축소 전용 여부
	ClientOrderID string       // 클라이언트 측 주문 ID
}

// NewMarketOrder는 시장가 주문 요청을 생성합니다
func NewMarketOrder(symbol string, side OrderSide, quantity float64, reduceOnly bool, clientOrderID string) OrderRequest {
	return OrderRequest{
		Symbol:        symbol,
		Side:          side,
		Type:          Market,
		Quantity:      quantity,
		ReduceOnly:    reduceOnly,
		ClientOrderID: clientOrderID,
	}
}

// NewStopOrder는 스탑 마켓 주문 요청을 생성합니다
func NewStopOrder(symbol string, side OrderSide, quantity, stopPrice float64, reduceOnly bool) OrderRequest {
	return OrderRequest{
		Symbol:     symbol,
		Side:       side,
		Type:       StopMarket,
		Quantity:   quantity,
		StopPrice:  stopPrice,
		ReduceOnly: reduceOnly,
	}
}

// NewLimitOrder는 지정가 주문 요청을 생성합니다
func NewLimitOrder(symbol string, side OrderSide, quantity, price float64, reduceOnly bool, tif TimeInForce) OrderRequest {
	if tif == "" {
		tif = GTC
	}
	return OrderRequest{
		Symbol:      symbol,
		Side:        side,
		Type:        Limit,
		Quantity:    quantity,
		Price:       price,
		ReduceOnly:  reduceOnly,
		TimeInForce: tif,
	}
}

// OrderResponse는 주문 응답을 표현합니다
type OrderResponse struct {
	OrderID          int64        // 주문 ID
	Symbol           string       // 심볼
	Status           string       // 주문 상태
	ClientOrderID    string       // 클라이언트 측 주문 ID
	Price            float64      // 주문 가격
	AvgPrice         float64      // 평균 체결 가격
	StopPrice        float64      // 스탑 가격
	OrigQuantity     float64      // 원래 주문 수량
	ExecutedQuantity float64      // 체결된 수량
	Side             OrderSide    // 매수/매도
	PositionSide     PositionSide // 롱/숏 포지션
	Type             OrderType    // 주문 유형
	ReduceOnly       bool         // 포지션 축소 전용 여부
	CreateTime       time.Time    // 주문 생성 시간
}

// Position은 거래소가 보고한 포지션 정보를 표현합니다
// 로컬에서 수정하지 않으며, 상태 변경은 항상 주문 후 재조회로 확인합니다
type Position struct {
	Symbol        string       // 심볼 (예: BTCUSDT)
	PositionSide  PositionSide // BOTH(단방향) 또는 LONG/SHORT(헤지)
	Amount        float64      // 부호 있는 수량 (양수: 롱, 음수: 숏, 0: 없음)
	EntryPrice    float64      // 평균 진입가
	MarkPrice     float64      // 마크 가격
	Leverage      int          // 레버리지
	UnrealizedPnL float64      // 미실현 손익
}

// IsFlat은 포지션이 없는지 확인합니다
func (p Position) IsFlat() bool {
	return p.Amount == 0
}

// Direction은 포지션 방향을 반환합니다. 포지션이 없으면 false를 반환합니다
func (p Position) Direction() (Direction, bool) {
	switch {
	case p.Amount > 0:
		return Long, true
	case p.Amount < 0:
		return Short, true
	default:
		return "", false
	}
}
