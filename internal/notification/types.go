package notification

import "github.com/assist-by/hookbridge/internal/domain"

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendTradeInfo는 거래 실행 정보를 전송합니다
	SendTradeInfo(info TradeInfo) error

	// SendCloseInfo는 심볼 청산 결과를 전송합니다
	SendCloseInfo(info CloseInfo) error
}

// TradeInfo는 거래 실행 정보를 정의합니다
type TradeInfo struct {
	Symbol         string           // 심볼 (예: BTCUSDT)
	Direction      domain.Direction // LONG or SHORT
	PositionValue  float64          // 포지션 크기 (USDT)
	Quantity       float64          // 구매/판매 수량 (코인)
	EntryPrice     float64          // 기준가
	StopLoss       float64          // 손절가 (0이면 없음)
	TakeProfit     float64          // 익절가 (0이면 없음)
	Balance        float64          // 가용 USDT 잔고
	Leverage       int              // 사용 레버리지
	ClosedOpposite bool             // 반대 포지션을 청산했는지 여부
	Warnings       []string         // 진행을 막지 않은 경고
}

// CloseInfo는 심볼 청산 결과를 정의합니다
type CloseInfo struct {
	Symbol      string
	LongClosed  int
	ShortClosed int
	Cancelled   int
	Warnings    []string
}

// GetColorForPosition은 포지션 방향에 따른 색상을 반환합니다
func GetColorForPosition(direction domain.Direction) int {
	switch direction {
	case domain.Long:
		return ColorSuccess
	case domain.Short:
		return ColorError
	default:
		return ColorInfo
	}
}
