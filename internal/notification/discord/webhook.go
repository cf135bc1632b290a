package discord

import (
	"github.com/assist-by/hookbridge/internal/notification"
)

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := newEmbed("에러 발생", notification.ColorError).
		describe("```%v```", err)

	return c.sendToWebhook(c.errorWebhook, embed.message())
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := newEmbed("", notification.ColorInfo).
		describe("%s", message)

	return c.sendToWebhook(c.infoWebhook, embed.message())
}

// SendTradeInfo는 거래 실행 정보를 전송합니다
func (c *Client) SendTradeInfo(info notification.TradeInfo) error {
	embed := newEmbed("거래 실행: "+info.Symbol+" "+string(info.Direction), notification.GetColorForPosition(info.Direction)).
		describe("**수량**: %.8f\n**기준가**: $%.4f\n**포지션 가치**: $%.2f\n**레버리지**: %dx\n**가용 잔고**: $%.2f",
			info.Quantity, info.EntryPrice, info.PositionValue, info.Leverage, info.Balance).
		addPrice("손절가", info.StopLoss).
		addPrice("익절가", info.TakeProfit)

	if info.ClosedOpposite {
		embed.AddField("반대 포지션", "청산됨", true)
	}
	embed.addWarnings(info.Warnings)

	return c.sendToWebhook(c.tradeWebhook, embed.message())
}

// SendCloseInfo는 심볼 청산 결과를 전송합니다
func (c *Client) SendCloseInfo(info notification.CloseInfo) error {
	embed := newEmbed("포지션 청산: "+info.Symbol, notification.ColorInfo).
		describe("**롱 청산**: %d\n**숏 청산**: %d\n**취소한 주문**: %d",
			info.LongClosed, info.ShortClosed, info.Cancelled).
		addWarnings(info.Warnings)

	return c.sendToWebhook(c.tradeWebhook, embed.message())
}
