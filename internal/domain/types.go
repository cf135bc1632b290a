package domain

import (
	"fmt"
	"strings"
)

// Action은 웹훅 시그널이 요청하는 동작을 정의합니다
type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionClose Action = "close"
)

// ParseAction은 문자열을 Action으로 변환합니다 (long/short/exit 등의 별칭 허용)
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long":
		return ActionBuy, nil
	case "sell", "short":
		return ActionSell, nil
	case "close", "exit", "flat":
		return ActionClose, nil
	default:
		return "", fmt.Errorf("지원하지 않는 액션: %q", s)
	}
}

// Direction은 Action에 대응하는 포지션 방향을 반환합니다
// close 액션은 방향이 없으므로 false를 반환합니다
func (a Action) Direction() (Direction, bool) {
	switch a {
	case ActionBuy:
		return Long, true
	case ActionSell:
		return Short, true
	default:
		return "", false
	}
}

// Direction은 목표 포지션 방향을 정의합니다
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Opposite는 반대 방향을 반환합니다
func (d Direction) Opposite() Direction {
	if d == Long {
		return Short
	}
	return Long
}

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// PositionSide는 포지션 방향을 정의합니다
type PositionSide string

const (
	LongPosition  PositionSide = "LONG"
	ShortPosition PositionSide = "SHORT"
	BothPosition  PositionSide = "BOTH" // 헤지 모드가 아닌 경우
)

// IsHedge는 헤지 모드 포지션 사이드인지 확인합니다
func (p PositionSide) IsHedge() bool {
	return p == LongPosition || p == ShortPosition
}

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market           OrderType = "MARKET"
	Limit            OrderType = "LIMIT"
	StopMarket       OrderType = "STOP_MARKET"
	TakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
)

// TimeInForce는 지정가 주문 유효 기간을 정의합니다
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// MarginType은 선물 마진 모드를 정의합니다
type MarginType string

const (
	Isolated MarginType = "ISOLATED"
	Crossed  MarginType = "CROSSED"
)

// ParseMarginType은 문자열을 MarginType으로 변환합니다
func ParseMarginType(s string) (MarginType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ISOLATED":
		return Isolated, nil
	case "CROSSED", "CROSS":
		return Crossed, nil
	default:
		return "", fmt.Errorf("지원하지 않는 마진 타입: %q", s)
	}
}

// ErrorCode는 API 에러 코드를 정의합니다
const (
	ErrPositionModeNoChange = -4059 // 포지션 모드 변경 불필요 에러
	ErrMarginTypeNoChange   = -4046 // 마진 타입 변경 불필요 에러
)
