// Package webhook은 트레이딩뷰 웹훅 페이로드 해석과 HTTP 엔드포인트를 제공합니다
package webhook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/trading"
)

// 필드별 별칭 목록 (앞쪽이 우선)
var (
	symbolAliases        = []string{"symbol", "ticker"}
	actionAliases        = []string{"action", "alert_type", "side"}
	fractionAliases      = []string{"balance_percentage", "quantity_percent", "quantity"}
	leverageAliases      = []string{"leverage"}
	stopPercentAliases   = []string{"sl_percent", "stop_loss_percent", "sl_percentage"}
	targetPercentAliases = []string{"tp_percent", "take_profit_percent", "tp_percentage"}
	stopPriceAliases     = []string{"sl", "stop_loss"}
	targetPriceAliases   = []string{"tp", "take_profit"}
	sourceAliases        = []string{"source", "name_of_strategy"}

	strengthAliases = []string{"signal_strength"}
	riskAliases     = []string{"risk_level"}
	marketAliases   = []string{"market_condition"}
)

// SignalRequest는 별칭 해석이 끝난 웹훅 요청입니다
type SignalRequest struct {
	Signal domain.Signal
	Tags   trading.ScalpTags
}

// payload는 필드명별 원본 JSON 값입니다
type payload map[string]json.RawMessage

// DecodeSignal은 웹훅 본문을 읽어 SignalRequest로 변환합니다
// 숫자 필드는 JSON 숫자와 문자열을 모두 허용하며, 검증 실패는 trading.ValidationError로 반환합니다
func DecodeSignal(r io.Reader) (*SignalRequest, error) {
	var p payload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return nil, invalid("body", fmt.Errorf("JSON 파싱 실패: %w", err))
	}
	if p == nil {
		return nil, invalid("body", errors.New("빈 요청입니다"))
	}
	return p.toRequest()
}

func (p payload) toRequest() (*SignalRequest, error) {
	var (
		req SignalRequest
		err error
	)
	sig := &req.Signal

	// 1. 심볼과 액션
	symbol, _, err := p.text(symbolAliases)
	if err != nil {
		return nil, err
	}
	sig.Symbol = domain.NormalizeSymbol(symbol)
	if sig.Symbol == "" {
		return nil, invalid("symbol", errors.New("심볼이 필요합니다"))
	}

	action, field, err := p.text(actionAliases)
	if err != nil {
		return nil, err
	}
	if sig.Action, err = domain.ParseAction(action); err != nil {
		if field == "" {
			field = "action"
		}
		return nil, invalid(field, err)
	}

	// 2. 수량과 레버리지
	if sig.BalanceFraction, _, err = p.number(fractionAliases); err != nil {
		return nil, err
	}
	leverage, field, err := p.number(leverageAliases)
	if err != nil {
		return nil, err
	}
	if leverage != math.Trunc(leverage) {
		return nil, invalid(field, fmt.Errorf("레버리지는 정수여야 합니다: %v", leverage))
	}
	sig.Leverage = int(leverage)

	// 3. 손절/익절
	if sig.StopPercent, _, err = p.number(stopPercentAliases); err != nil {
		return nil, err
	}
	if sig.TargetPercent, _, err = p.number(targetPercentAliases); err != nil {
		return nil, err
	}
	if sig.StopPrice, _, err = p.number(stopPriceAliases); err != nil {
		return nil, err
	}
	if sig.TargetPrice, _, err = p.number(targetPriceAliases); err != nil {
		return nil, err
	}

	// 4. 부가 정보
	if sig.Source, _, err = p.text(sourceAliases); err != nil {
		return nil, err
	}
	if req.Tags.SignalStrength, _, err = p.text(strengthAliases); err != nil {
		return nil, err
	}
	if req.Tags.RiskLevel, _, err = p.text(riskAliases); err != nil {
		return nil, err
	}
	if req.Tags.MarketCondition, _, err = p.text(marketAliases); err != nil {
		return nil, err
	}

	return &req, nil
}

// lookup은 별칭 순서대로 처음 값이 있는 필드를 찾습니다
// null과 빈 문자열은 값이 없는 것으로 취급합니다
func (p payload) lookup(aliases []string) (json.RawMessage, string) {
	for _, name := range aliases {
		raw, ok := p[name]
		if !ok {
			continue
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 || string(trimmed) == "null" || string(trimmed) == `""` {
			continue
		}
		return trimmed, name
	}
	return nil, ""
}

// text는 문자열 필드를 읽습니다 (숫자도 문자열로 허용)
func (p payload) text(aliases []string) (string, string, error) {
	raw, name := p.lookup(aliases)
	if raw == nil {
		return "", "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), name, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), name, nil
	}
	return "", name, invalid(name, fmt.Errorf("문자열이 아닙니다: %s", raw))
}

// number는 숫자 필드를 읽습니다 (숫자 문자열 허용)
func (p payload) number(aliases []string) (float64, string, error) {
	raw, name := p.lookup(aliases)
	if raw == nil {
		return 0, "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		v, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if perr != nil {
			return 0, name, invalid(name, fmt.Errorf("숫자 형식이 아닙니다: %q", s))
		}
		return checkFinite(name, v)
	}

	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, name, invalid(name, fmt.Errorf("숫자 형식이 아닙니다: %s", raw))
	}
	return checkFinite(name, v)
}

func checkFinite(name string, v float64) (float64, string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, name, invalid(name, fmt.Errorf("유효하지 않은 숫자: %v", v))
	}
	return v, name, nil
}

func invalid(field string, err error) error {
	return &trading.ValidationError{Field: field, Err: err}
}
