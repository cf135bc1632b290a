package trading

import (
	"errors"
	"fmt"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange"
	"github.com/assist-by/hookbridge/internal/position"
)

// ValidationError는 거래 실행 중 발생한 유효성 검사 오류를 나타내는 구조체입니다.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

// Is는 errors.Is(err, position.ErrValidation)을 지원합니다
func (e *ValidationError) Is(target error) bool {
	return target == position.ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ExecutionError는 거래 실행 중 발생한 오류를 나타내는 구조체입니다.
// State는 실패한 단계이며, 호출자에게 심볼과 액션을 함께 전달합니다.
type ExecutionError struct {
	Symbol string
	Action domain.Action
	State  State
	Err    error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("매매 실행 실패 [%s %s] (%s): %v", e.Symbol, e.Action, e.State, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Kind는 에러 분류 이름을 반환합니다 (응답과 메트릭 라벨에 사용)
func (e *ExecutionError) Kind() string {
	return ErrorKind(e.Err)
}

// Hint는 거래소 거부 에러의 해결 방법을 반환합니다
func (e *ExecutionError) Hint() string {
	var rejected *position.OrderRejectedError
	if errors.As(e.Err, &rejected) {
		return rejected.Hint
	}
	if code, ok := exchange.ErrorCode(e.Err); ok {
		return RemediationHint(code)
	}
	return ""
}

// SuggestedFraction은 잔고 부족 시 제안 비율을 반환합니다
func (e *ExecutionError) SuggestedFraction() (float64, bool) {
	var insufficient *position.InsufficientBalanceError
	if errors.As(e.Err, &insufficient) {
		return insufficient.SuggestedFraction, true
	}
	return 0, false
}

// ErrorKind는 에러를 분류 이름으로 변환합니다
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, position.ErrValidation):
		return "validation"
	case errors.Is(err, position.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, position.ErrTransition):
		return "transition"
	case errors.Is(err, position.ErrOrderRejected):
		return "order_rejected"
	case errors.Is(err, position.ErrSymbolNotFound):
		return "symbol_not_found"
	case errors.Is(err, ErrLockHeld):
		return "lock_held"
	default:
		return "internal"
	}
}
