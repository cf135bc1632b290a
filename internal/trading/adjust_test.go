package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/assist-by/hookbridge/internal/domain"
)

func TestAdjustScalp(t *testing.T) {
	base := domain.Signal{
		Symbol:          "BTCUSDT",
		Action:          domain.ActionBuy,
		BalanceFraction: 0.15,
		Leverage:        20,
		StopPercent:     1,
		TargetPercent:   2,
	}

	tests := []struct {
		name         string
		sig          domain.Signal
		tags         ScalpTags
		wantFraction float64
		wantLeverage int
		wantStop     float64
		wantTarget   float64
	}{
		{
			name:         "강한 시그널 + 높은 위험도",
			sig:          base,
			tags:         ScalpTags{SignalStrength: "strong", RiskLevel: "high"},
			wantFraction: 0.135,
			wantLeverage: 10,
			wantStop:     1,
			wantTarget:   2,
		},
		{
			name:         "약한 시그널 + 낮은 위험도",
			sig:          base,
			tags:         ScalpTags{SignalStrength: "weak", RiskLevel: "low"},
			wantFraction: 0.126,
			wantLeverage: 20,
			wantStop:     1,
			wantTarget:   2,
		},
		{
			name:         "비율 상한 적용",
			sig:          domain.Signal{BalanceFraction: 0.4, Leverage: 5},
			tags:         ScalpTags{SignalStrength: "strong", RiskLevel: "low"},
			wantFraction: 0.5,
			wantLeverage: 5,
		},
		{
			name:         "변동성 장세",
			sig:          base,
			tags:         ScalpTags{MarketCondition: "volatile"},
			wantFraction: 0.15,
			wantLeverage: 20,
			wantStop:     1.5,
			wantTarget:   1.6,
		},
		{
			name:         "횡보 장세",
			sig:          base,
			tags:         ScalpTags{MarketCondition: "Ranging"},
			wantFraction: 0.15,
			wantLeverage: 20,
			wantStop:     1,
			wantTarget:   2.6,
		},
		{
			name:         "알 수 없는 태그는 무시",
			sig:          base,
			tags:         ScalpTags{SignalStrength: "medium", RiskLevel: "unknown", MarketCondition: "trending"},
			wantFraction: 0.15,
			wantLeverage: 20,
			wantStop:     1,
			wantTarget:   2,
		},
		{
			name:         "레버리지가 상한 이하면 유지",
			sig:          domain.Signal{BalanceFraction: 0.1, Leverage: 5},
			tags:         ScalpTags{RiskLevel: "HIGH"},
			wantFraction: 0.06,
			wantLeverage: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustScalp(tt.sig, tt.tags, DefaultScalpLimits())
			assert.Equal(t, tt.wantFraction, got.BalanceFraction)
			assert.Equal(t, tt.wantLeverage, got.Leverage)
			assert.Equal(t, tt.wantStop, got.StopPercent)
			assert.Equal(t, tt.wantTarget, got.TargetPercent)
		})
	}
}

func TestAdjustScalp_Deterministic(t *testing.T) {
	sig := domain.Signal{BalanceFraction: 0.33, Leverage: 15, StopPercent: 0.7, TargetPercent: 1.1}
	tags := ScalpTags{SignalStrength: "strong", RiskLevel: "high", MarketCondition: "volatile"}

	first := AdjustScalp(sig, tags, DefaultScalpLimits())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AdjustScalp(sig, tags, DefaultScalpLimits()))
	}
	// 원본 시그널은 변경되지 않음
	assert.Equal(t, 0.33, sig.BalanceFraction)
}

func TestAdjustScalp_CustomLimits(t *testing.T) {
	sig := domain.Signal{BalanceFraction: 0.2, Leverage: 50}
	got := AdjustScalp(sig, ScalpTags{SignalStrength: "strong", RiskLevel: "high"}, ScalpLimits{FractionCap: 0.1, LeverageCap: 20})

	assert.Equal(t, 0.1, got.BalanceFraction)
	assert.Equal(t, 20, got.Leverage)
}
