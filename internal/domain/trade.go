package domain

import "time"

// TradeStatus는 거래 기록의 상태입니다
type TradeStatus string

const (
	TradeActive    TradeStatus = "active"
	TradeCompleted TradeStatus = "completed"
)

// ClosedPosition은 청산된 포지션 한 건을 나타냅니다
type ClosedPosition struct {
	Symbol       string       `json:"symbol"`
	Direction    Direction    `json:"direction"`
	PositionSide PositionSide `json:"position_side"`
	Quantity     float64      `json:"quantity"`
	Side         OrderSide    `json:"side"`
	OrderID      int64        `json:"order_id"`
}

// TradeRecord는 거래 원장에 추가되는 실행 기록입니다
type TradeRecord struct {
	ID             string           `json:"id"`
	Timestamp      time.Time        `json:"timestamp"`
	Symbol         string           `json:"symbol"`
	Action         Action           `json:"action"`
	Source         string           `json:"source,omitempty"`
	Quantity       float64          `json:"quantity"`
	ReferencePrice float64          `json:"reference_price,omitempty"`
	Leverage       int              `json:"leverage,omitempty"`
	MarginType     MarginType       `json:"margin_type,omitempty"`
	EntryOrderID   int64            `json:"entry_order_id,omitempty"`
	StopOrderID    *int64           `json:"stop_order_id,omitempty"`
	TargetOrderID  *int64           `json:"target_order_id,omitempty"`
	StopPrice      float64          `json:"stop_price,omitempty"`
	TargetPrice    float64          `json:"target_price,omitempty"`
	ClosedOpposite bool             `json:"closed_opposite"`
	Closed         []ClosedPosition `json:"closed,omitempty"`
	Warnings       []string         `json:"warnings,omitempty"`
	Status         TradeStatus      `json:"status"`
}
