package position

import (
	"errors"
	"fmt"
)

// Error 타입들은 포지션 전환 중 발생할 수 있는 다양한 에러를 정의합니다
var (
	ErrValidation          = errors.New("잘못된 입력값입니다")
	ErrSymbolNotFound      = errors.New("심볼 거래 규칙을 찾을 수 없습니다")
	ErrInsufficientBalance = errors.New("최소 주문 단위에 못 미치는 잔고입니다")
	ErrTransition          = errors.New("반대 포지션 청산을 확인하지 못했습니다")
	ErrOrderRejected       = errors.New("거래소가 주문을 거부했습니다")
)

// PositionError는 포지션 관리 에러를 확장한 구조체입니다
type PositionError struct {
	Symbol string
	Op     string
	Err    error
}

// Error는 error 인터페이스를 구현합니다
func (e *PositionError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("포지션 에러 [%s, 작업: %s]: %v", e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("포지션 에러 [작업: %s]: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *PositionError) Unwrap() error {
	return e.Err
}

// NewPositionError는 새로운 PositionError를 생성합니다
func NewPositionError(symbol, op string, err error) *PositionError {
	return &PositionError{
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}

// InsufficientBalanceError는 계산된 수량이 최소 주문 단위보다 작을 때 반환됩니다
// SuggestedFraction으로 다시 요청하면 최소 수량을 만족합니다
type InsufficientBalanceError struct {
	Symbol            string
	RequestedFraction float64
	Quantity          float64 // 내림 후 수량
	RequiredQuantity  float64 // 최소 수량과 최소 주문 가치를 모두 만족하는 수량
	MinNotional       float64
	SuggestedFraction float64
}

// Error는 error 인터페이스를 구현합니다
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: 계산된 수량 %.8f이 필요 수량 %.8f보다 작습니다 (요청 비율 %.4f, 최소 비율 %.6f)",
		e.Symbol, e.Quantity, e.RequiredQuantity, e.RequestedFraction, e.SuggestedFraction)
}

// Unwrap은 ErrInsufficientBalance를 반환합니다
func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// OrderRejectedError는 거래소 주문 거부를 나타냅니다
type OrderRejectedError struct {
	Symbol  string
	Code    int    // 거래소 에러 코드 (없으면 0)
	Message string // 거래소 원문 메시지
	Hint    string // 알려진 코드에 대한 해결 방법
	Err     error
}

// Error는 error 인터페이스를 구현합니다
func (e *OrderRejectedError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s 주문 거부 (코드: %d): %s - %s", e.Symbol, e.Code, e.Message, e.Hint)
	}
	return fmt.Sprintf("%s 주문 거부 (코드: %d): %s", e.Symbol, e.Code, e.Message)
}

// Is는 errors.Is(err, ErrOrderRejected)를 지원합니다
func (e *OrderRejectedError) Is(target error) bool {
	return target == ErrOrderRejected
}

// Unwrap은 원인 에러를 반환합니다
func (e *OrderRejectedError) Unwrap() error {
	return e.Err
}

// WarningKind는 전환을 중단하지 않는 경고의 종류입니다
type WarningKind string

const (
	ConfigurationWarning WarningKind = "configuration"
	BracketWarning       WarningKind = "bracket"
	CancelWarning        WarningKind = "cancel"
)

// Warning은 실패해도 진행을 계속하는 보조 작업의 결과입니다
type Warning struct {
	Kind   WarningKind
	Symbol string
	Op     string
	Err    error
}

// String은 경고를 사람이 읽을 수 있는 형태로 반환합니다
func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s %s: %v", w.Kind, w.Symbol, w.Op, w.Err)
}

// MarshalText는 JSON 응답에서 경고를 문자열로 표현합니다
func (w Warning) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}
