// internal/exchange/exchange.go
package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/assist-by/hookbridge/internal/domain"
)

// ErrSymbolNotFound는 거래소에 심볼이 존재하지 않을 때 반환됩니다
var ErrSymbolNotFound = errors.New("심볼을 찾을 수 없습니다")

// Exchange는 거래소와의 상호작용을 위한 인터페이스입니다.
// 모든 호출은 네트워크 I/O이며 실패할 수 있습니다. 재시도는 하지 않습니다.
type Exchange interface {
	// 시장 데이터 조회
	GetPrice(ctx context.Context, symbol string) (float64, error)
	GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error)

	// 계정 데이터 조회
	GetBalance(ctx context.Context) (domain.BalanceSnapshot, error)
	GetPositions(ctx context.Context, symbol string) ([]domain.Position, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]domain.OrderResponse, error)

	// 거래 기능
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error

	// 설정 기능
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetMarginType(ctx context.Context, symbol string, marginType domain.MarginType) error
}

// APIError는 거래소가 반환한 에러 응답입니다
type APIError struct {
	StatusCode int    // HTTP 상태 코드
	Code       int    // 거래소 에러 코드 (예: -2019)
	Message    string // 거래소 에러 메시지
}

// Error는 error 인터페이스를 구현합니다
func (e *APIError) Error() string {
	return fmt.Sprintf("API 에러(코드: %d): %s", e.Code, e.Message)
}

// ErrorCode는 err 체인에서 거래소 에러 코드를 추출합니다
func ErrorCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return 0, false
}
