package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange"
)

// symbolFilter는 exchangeInfo 필터 항목입니다
// 최소 주문 가치 필드는 배포 환경마다 이름이 달라 세 가지 철자를 모두 받습니다
type symbolFilter struct {
	FilterType       string `json:"filterType"`
	StepSize         string `json:"stepSize"`
	MinQty           string `json:"minQty"`
	MaxQty           string `json:"maxQty"`
	TickSize         string `json:"tickSize"`
	MinPrice         string `json:"minPrice"`
	MaxPrice         string `json:"maxPrice"`
	Notional         string `json:"notional"`
	MinNotional      string `json:"minNotional"`
	MinNotionalValue string `json:"minNotionalValue"`
}

// GetSymbolRules는 거래소 전체 규칙에서 심볼의 거래 제약 조건을 찾습니다
func (c *Client) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/exchangeInfo", nil, false)
	if err != nil {
		return nil, fmt.Errorf("심볼 정보 조회 실패: %w", err)
	}

	var exchangeInfo struct {
		Symbols []struct {
			Symbol  string         `json:"symbol"`
			Filters []symbolFilter `json:"filters"`
		} `json:"symbols"`
	}
	if err := json.Unmarshal(resp, &exchangeInfo); err != nil {
		return nil, fmt.Errorf("심볼 정보 파싱 실패: %w", err)
	}

	for _, s := range exchangeInfo.Symbols {
		if s.Symbol == symbol {
			return parseSymbolRules(symbol, s.Filters)
		}
	}

	return nil, fmt.Errorf("%w: %s", exchange.ErrSymbolNotFound, symbol)
}

// parseSymbolRules는 필터 목록을 SymbolRules로 변환합니다
// LOT_SIZE와 PRICE_FILTER는 필수이며, 최소 주문 가치가 없으면 DefaultMinNotional을 사용합니다
func parseSymbolRules(symbol string, filters []symbolFilter) (*domain.SymbolRules, error) {
	rules := &domain.SymbolRules{Symbol: symbol}
	var hasLot, hasPrice, hasNotional bool

	for _, f := range filters {
		switch f.FilterType {
		case "LOT_SIZE": // 수량 단위 필터
			step, err := strconv.ParseFloat(f.StepSize, 64)
			if err != nil {
				return nil, fmt.Errorf("%s LOT_SIZE stepSize 파싱 실패: %w", symbol, err)
			}
			rules.StepSize = step
			rules.MinQuantity = parseFloat(f.MinQty)
			rules.MaxQuantity = parseFloat(f.MaxQty)
			hasLot = true
		case "PRICE_FILTER": // 가격 단위 필터
			tick, err := strconv.ParseFloat(f.TickSize, 64)
			if err != nil {
				return nil, fmt.Errorf("%s PRICE_FILTER tickSize 파싱 실패: %w", symbol, err)
			}
			rules.TickSize = tick
			rules.MinPrice = parseFloat(f.MinPrice)
			rules.MaxPrice = parseFloat(f.MaxPrice)
			hasPrice = true
		case "MIN_NOTIONAL", "NOTIONAL": // 최소 주문 가치 필터
			if v, ok := minNotionalOf(f); ok {
				rules.MinNotional = v
				hasNotional = true
			}
		}
	}

	if !hasLot {
		return nil, fmt.Errorf("%s: LOT_SIZE 필터가 없습니다", symbol)
	}
	if !hasPrice {
		return nil, fmt.Errorf("%s: PRICE_FILTER 필터가 없습니다", symbol)
	}
	if !hasNotional {
		rules.MinNotional = domain.DefaultMinNotional
	}
	// 최소 수량이 비어 있으면 한 스텝을 최소 수량으로 봅니다
	if rules.MinQuantity < rules.StepSize {
		rules.MinQuantity = rules.StepSize
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return rules, nil
}

// minNotionalOf는 notional, minNotional, minNotionalValue 순서로 값을 찾습니다
func minNotionalOf(f symbolFilter) (float64, bool) {
	for _, raw := range []string{f.Notional, f.MinNotional, f.MinNotionalValue} {
		if raw == "" {
			continue
		}
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			return v, true
		}
	}
	return 0, false
}
