package trading

import (
	"errors"

	"github.com/assist-by/hookbridge/internal/exchange"
	"github.com/assist-by/hookbridge/internal/position"
)

// remediationHints는 알려진 거래소 에러 코드별 해결 방법입니다
var remediationHints = map[int]string{
	-1121: "잘못된 심볼입니다. USDT 무기한 선물 심볼인지 확인하세요 (예: BTCUSDT)",
	-1111: "수량 또는 가격의 소수점 자릿수가 거래소 정밀도를 초과했습니다. stepSize/tickSize를 확인하세요",
	-2019: "증거금이 부족합니다. 잔고 비율이나 레버리지를 낮추세요",
	-2018: "잔고가 부족합니다. 선물 지갑으로 USDT를 이체하세요",
	-4003: "수량이 0 이하입니다. 잔고 비율을 높이세요",
	-4005: "수량이 최대 주문 수량을 초과했습니다",
	-1013: "수량이 LOT_SIZE 필터 범위를 벗어났습니다",
	-4164: "주문 가치가 최소 주문 가치(minNotional)보다 작습니다. 잔고 비율이나 레버리지를 높이세요",
	-4131: "가격 보호 장치가 작동했습니다. 시장 변동성이 줄어든 뒤 다시 시도하세요",
	-2022: "reduce-only 주문이 거부되었습니다. 청산할 포지션이 이미 없을 수 있습니다",
}

// RemediationHint는 거래소 에러 코드에 대한 해결 방법을 반환합니다
// 알려지지 않은 코드는 빈 문자열을 반환합니다
func RemediationHint(code int) string {
	return remediationHints[code]
}

// newOrderRejected는 거래소 에러를 OrderRejectedError로 변환합니다
// 매핑되지 않은 코드는 거래소 메시지를 그대로 전달합니다
func newOrderRejected(symbol string, err error) *position.OrderRejectedError {
	rejected := &position.OrderRejectedError{Symbol: symbol, Message: err.Error(), Err: err}

	var apiErr *exchange.APIError
	if errors.As(err, &apiErr) {
		rejected.Code = apiErr.Code
		rejected.Message = apiErr.Message
		rejected.Hint = RemediationHint(apiErr.Code)
	}
	return rejected
}
