package position

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/assist-by/hookbridge/internal/domain"
)

// FallbackRule은 정적 테이블의 한 항목입니다
type FallbackRule struct {
	MinQuantity float64 `yaml:"min_qty"`
	StepSize    float64 `yaml:"step_size"`
	TickSize    float64 `yaml:"tick_size"`
	MinNotional float64 `yaml:"min_notional"`
}

// FallbackTable은 거래소 조회가 실패했을 때 사용하는 주요 심볼의 거래 규칙입니다
type FallbackTable map[string]FallbackRule

// DefaultFallbackTable은 수작업으로 정리한 주요 USDT 무기한 선물 규칙입니다
func DefaultFallbackTable() FallbackTable {
	return FallbackTable{
		"BTCUSDT":  {MinQuantity: 0.001, StepSize: 0.001, TickSize: 0.1, MinNotional: 100},
		"ETHUSDT":  {MinQuantity: 0.001, StepSize: 0.001, TickSize: 0.01, MinNotional: 20},
		"BNBUSDT":  {MinQuantity: 0.01, StepSize: 0.01, TickSize: 0.01, MinNotional: 5},
		"SOLUSDT":  {MinQuantity: 0.01, StepSize: 0.01, TickSize: 0.01, MinNotional: 5},
		"XRPUSDT":  {MinQuantity: 0.1, StepSize: 0.1, TickSize: 0.0001, MinNotional: 5},
		"ADAUSDT":  {MinQuantity: 1, StepSize: 1, TickSize: 0.0001, MinNotional: 5},
		"DOGEUSDT": {MinQuantity: 1, StepSize: 1, TickSize: 0.00001, MinNotional: 5},
		"DOTUSDT":  {MinQuantity: 0.1, StepSize: 0.1, TickSize: 0.001, MinNotional: 5},
		"LINKUSDT": {MinQuantity: 0.01, StepSize: 0.01, TickSize: 0.001, MinNotional: 5},
		"LTCUSDT":  {MinQuantity: 0.001, StepSize: 0.001, TickSize: 0.01, MinNotional: 20},
	}
}

// Lookup은 심볼의 대체 규칙을 반환합니다
func (t FallbackTable) Lookup(symbol string) (*domain.SymbolRules, bool) {
	rule, ok := t[symbol]
	if !ok {
		return nil, false
	}
	minNotional := rule.MinNotional
	if minNotional <= 0 {
		minNotional = domain.DefaultMinNotional
	}
	return &domain.SymbolRules{
		Symbol:      symbol,
		MinQuantity: rule.MinQuantity,
		StepSize:    rule.StepSize,
		TickSize:    rule.TickSize,
		MinNotional: minNotional,
		IsFallback:  true,
	}, true
}

// LoadFallbackTable은 YAML 파일에서 대체 규칙을 읽어 기본 테이블 위에 덮어씁니다
//
//	BTCUSDT:
//	  min_qty: 0.001
//	  step_size: 0.001
//	  tick_size: 0.1
//	  min_notional: 100
func LoadFallbackTable(path string) (FallbackTable, error) {
	table := DefaultFallbackTable()
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("대체 규칙 파일 읽기 실패: %w", err)
	}

	var overrides FallbackTable
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("대체 규칙 파일 파싱 실패: %w", err)
	}

	for symbol, rule := range overrides {
		symbol = strings.ToUpper(symbol)
		rules := domain.SymbolRules{
			Symbol:      symbol,
			MinQuantity: rule.MinQuantity,
			StepSize:    rule.StepSize,
			TickSize:    rule.TickSize,
		}
		if err := rules.Validate(); err != nil {
			return nil, fmt.Errorf("대체 규칙 검증 실패: %w", err)
		}
		table[symbol] = rule
	}

	return table, nil
}
