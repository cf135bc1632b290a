package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange"
	"github.com/assist-by/hookbridge/internal/exchange/fake"
	"github.com/assist-by/hookbridge/internal/ledger"
	"github.com/assist-by/hookbridge/internal/metrics"
	"github.com/assist-by/hookbridge/internal/notification"
	"github.com/assist-by/hookbridge/internal/position"
)

type recordingNotifier struct {
	trades []notification.TradeInfo
	closes []notification.CloseInfo
	errors []error
}

func (n *recordingNotifier) SendError(err error) error {
	n.errors = append(n.errors, err)
	return nil
}

func (n *recordingNotifier) SendInfo(message string) error { return nil }

func (n *recordingNotifier) SendTradeInfo(info notification.TradeInfo) error {
	n.trades = append(n.trades, info)
	return nil
}

func (n *recordingNotifier) SendCloseInfo(info notification.CloseInfo) error {
	n.closes = append(n.closes, info)
	return nil
}

type testEnv struct {
	ex       *fake.Exchange
	ledger   *ledger.Ledger
	notifier *recordingNotifier
	executor *Executor
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	ex := fake.New()
	ex.Balance = domain.BalanceSnapshot{Asset: "USDT", TotalBalance: 1000, AvailableBalance: 1000}
	ex.Prices["BTCUSDT"] = 50000
	ex.Rules["BTCUSDT"] = domain.SymbolRules{
		Symbol: "BTCUSDT", MinQuantity: 0.001, MaxQuantity: 1000, StepSize: 0.001,
		MinPrice: 100, MaxPrice: 1000000, TickSize: 0.1, MinNotional: 5,
	}

	resolver := position.NewRulesResolver(ex)
	l := ledger.New(10)
	n := &recordingNotifier{}
	executor := NewExecutor(ex,
		position.NewSizer(ex, resolver),
		position.NewTransitioner(ex),
		cfg,
		WithLedger(l),
		WithNotifier(n),
		WithMetrics(metrics.New()),
	)
	return &testEnv{ex: ex, ledger: l, notifier: n, executor: executor}
}

func buySignal() domain.Signal {
	return domain.Signal{Symbol: "BTCUSDT", Action: domain.ActionBuy, BalanceFraction: 0.1, Leverage: 10, Source: "test"}
}

func TestExecutor_BuyWithBracket(t *testing.T) {
	env := newTestEnv(t, Config{})
	sig := buySignal()
	sig.StopPercent = 2
	sig.TargetPercent = 4

	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, StateRecorded, result.State)
	assert.Equal(t, 0.02, result.Quantity)
	assert.Equal(t, 49000.0, result.StopPrice)
	assert.Equal(t, 52000.0, result.TargetPrice)
	require.NotNil(t, result.StopOrderID)
	require.NotNil(t, result.TargetOrderID)
	assert.False(t, result.Transition.Closed)
	assert.Equal(t, position.ReasonFlat, result.Transition.Reason)
	assert.Empty(t, result.Warnings)

	placed := env.ex.PlacedOrders()
	require.Len(t, placed, 3)

	entry := placed[0]
	assert.Equal(t, domain.Market, entry.Type)
	assert.Equal(t, domain.Buy, entry.Side)
	assert.Equal(t, 0.02, entry.Quantity)
	assert.False(t, entry.ReduceOnly)
	assert.NotEmpty(t, entry.ClientOrderID)

	stop := placed[1]
	assert.Equal(t, domain.StopMarket, stop.Type)
	assert.Equal(t, domain.Sell, stop.Side)
	assert.Equal(t, 49000.0, stop.StopPrice)
	assert.True(t, stop.ReduceOnly)

	target := placed[2]
	assert.Equal(t, domain.Limit, target.Type)
	assert.Equal(t, domain.Sell, target.Side)
	assert.Equal(t, 52000.0, target.Price)
	assert.Equal(t, domain.GTC, target.TimeInForce)
	assert.True(t, target.ReduceOnly)

	assert.Equal(t, 10, env.ex.LeverageSet["BTCUSDT"])
	assert.Equal(t, domain.Isolated, env.ex.MarginSet["BTCUSDT"])

	records := env.ledger.Recent(0)
	require.Len(t, records, 1)
	assert.Equal(t, domain.TradeActive, records[0].Status)
	assert.Equal(t, result.EntryOrderID, records[0].EntryOrderID)
	assert.Equal(t, *result.StopOrderID, *records[0].StopOrderID)
	assert.Equal(t, "test", records[0].Source)

	require.Len(t, env.notifier.trades, 1)
	assert.Equal(t, domain.Long, env.notifier.trades[0].Direction)
}

func TestExecutor_SellClosesOppositeFirst(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.SetPosition("BTCUSDT", 0.01)
	env.ex.AddOpenOrder("BTCUSDT", 9, domain.StopMarket)

	sig := buySignal()
	sig.Action = domain.ActionSell

	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)
	require.True(t, result.Transition.Closed)
	assert.Equal(t, 0.01, result.Transition.ClosedQuantity)

	placed := env.ex.PlacedOrders()
	require.Len(t, placed, 2)
	assert.Equal(t, domain.Sell, placed[0].Side)
	assert.Equal(t, 0.01, placed[0].Quantity)
	assert.True(t, placed[0].ReduceOnly)
	assert.Equal(t, domain.Sell, placed[1].Side)
	assert.Equal(t, 0.02, placed[1].Quantity)
	assert.False(t, placed[1].ReduceOnly)
	assert.Equal(t, []int64{9}, env.ex.Cancelled)

	records := env.ledger.Recent(0)
	require.Len(t, records, 1)
	assert.True(t, records[0].ClosedOpposite)
	require.Len(t, records[0].Closed, 1)
}

func TestExecutor_SameDirectionDoesNotClose(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.SetPosition("BTCUSDT", 0.05)

	result, err := env.executor.ExecuteSignal(context.Background(), buySignal())
	require.NoError(t, err)
	assert.Equal(t, position.ReasonSameDirection, result.Transition.Reason)
	assert.Len(t, env.ex.PlacedOrders(), 1)
}

func TestExecutor_ConfigurationFailureIsWarning(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.Errors["SetLeverage"] = &exchange.APIError{Code: -4028, Message: "Leverage 200 is not valid"}
	env.ex.Errors["SetMarginType"] = errors.New("timeout")

	result, err := env.executor.ExecuteSignal(context.Background(), buySignal())
	require.NoError(t, err)
	assert.Equal(t, StateRecorded, result.State)
	require.Len(t, result.Warnings, 2)
	for _, w := range result.Warnings {
		assert.Equal(t, position.ConfigurationWarning, w.Kind)
	}
	assert.NotZero(t, result.EntryOrderID)
}

func TestExecutor_BracketFailureKeepsEntry(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.OrderErrors[domain.StopMarket] = &exchange.APIError{Code: -2021, Message: "Order would immediately trigger."}

	sig := buySignal()
	sig.StopPercent = 1
	sig.TargetPercent = 2

	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.Nil(t, result.StopOrderID)
	require.NotNil(t, result.TargetOrderID)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, position.BracketWarning, result.Warnings[0].Kind)

	records := env.ledger.Recent(0)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Warnings, 1)
}

func TestExecutor_InvalidBracketPrices(t *testing.T) {
	env := newTestEnv(t, Config{})

	sig := buySignal()
	sig.StopPrice = 51000   // 롱 손절가가 기준가보다 높음
	sig.TargetPrice = 48000 // 롱 익절가가 기준가보다 낮음

	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.Len(t, result.Warnings, 2)
	assert.Len(t, env.ex.PlacedOrders(), 1)
}

func TestExecutor_ShortBracketPrices(t *testing.T) {
	env := newTestEnv(t, Config{})

	sig := buySignal()
	sig.Action = domain.ActionSell
	sig.StopPercent = 1.5
	sig.TargetPrice = 47500.05

	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, 50750.0, result.StopPrice)
	assert.Equal(t, 47500.0, result.TargetPrice)

	placed := env.ex.PlacedOrders()
	require.Len(t, placed, 3)
	assert.Equal(t, domain.Buy, placed[1].Side)
	assert.Equal(t, domain.Buy, placed[2].Side)
}

func TestExecutor_EntryRejected(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.OrderErrors[domain.Market] = &exchange.APIError{StatusCode: 400, Code: -2019, Message: "Margin is insufficient."}

	_, err := env.executor.ExecuteSignal(context.Background(), buySignal())
	require.Error(t, err)

	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, StateEntering, execErr.State)
	assert.Equal(t, "BTCUSDT", execErr.Symbol)
	assert.Equal(t, domain.ActionBuy, execErr.Action)
	assert.Equal(t, "order_rejected", execErr.Kind())
	assert.ErrorIs(t, err, position.ErrOrderRejected)
	assert.NotEmpty(t, execErr.Hint())

	var rejected *position.OrderRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, -2019, rejected.Code)

	assert.Zero(t, env.ledger.Len())
	assert.Len(t, env.notifier.errors, 1)
}

func TestExecutor_TransitionFailureSkipsEntry(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.SetPosition("BTCUSDT", -0.01)
	env.ex.OrderErrors[domain.Market] = &exchange.APIError{Code: -2022, Message: "ReduceOnly Order is rejected."}

	_, err := env.executor.ExecuteSignal(context.Background(), buySignal())
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, StateTransitioning, execErr.State)
	assert.ErrorIs(t, err, position.ErrTransition)
	assert.NotEmpty(t, execErr.Hint())

	assert.Empty(t, env.ex.PlacedOrders())
	assert.Equal(t, 0, env.ex.CallCount("SetLeverage"))
}

func TestExecutor_InsufficientBalance(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.Balance = domain.BalanceSnapshot{Asset: "USDT", TotalBalance: 100, AvailableBalance: 100}

	sig := buySignal()
	sig.BalanceFraction = 0.001
	sig.Leverage = 1

	_, err := env.executor.ExecuteSignal(context.Background(), sig)
	var execErr *ExecutionError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, StateSizing, execErr.State)

	suggested, ok := execErr.SuggestedFraction()
	require.True(t, ok)
	assert.Equal(t, 0.5, suggested)
	assert.Equal(t, 0, env.ex.CallCount("GetPositions"))

	sig.BalanceFraction = suggested
	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, 0.001, result.Quantity)
}

func TestExecutor_Validation(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()

	tests := []struct {
		name string
		sig  domain.Signal
	}{
		{"심볼 없음", domain.Signal{Action: domain.ActionBuy, BalanceFraction: 0.1}},
		{"비율 0", domain.Signal{Symbol: "BTCUSDT", Action: domain.ActionBuy}},
		{"비율 초과", domain.Signal{Symbol: "BTCUSDT", Action: domain.ActionSell, BalanceFraction: 1.5}},
		{"알 수 없는 액션", domain.Signal{Symbol: "BTCUSDT", Action: "hold", BalanceFraction: 0.1}},
		{"레버리지 초과", domain.Signal{Symbol: "BTCUSDT", Action: domain.ActionBuy, BalanceFraction: 0.1, Leverage: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.executor.ExecuteSignal(ctx, tt.sig)
			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr))
			assert.Equal(t, StateReceived, execErr.State)
			assert.ErrorIs(t, err, position.ErrValidation)
			assert.Equal(t, "validation", execErr.Kind())
		})
	}
	assert.Equal(t, 0, env.ex.CallCount("GetBalance"))
}

func TestExecutor_CloseAction(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.SetPosition("BTCUSDT", 0.02)
	env.ex.AddOpenOrder("BTCUSDT", 101, domain.StopMarket)
	env.ex.AddOpenOrder("BTCUSDT", 102, domain.Limit)

	result, err := env.executor.ExecuteSignal(context.Background(), domain.Signal{Symbol: "BTCUSDT", Action: domain.ActionClose})
	require.NoError(t, err)
	require.NotNil(t, result.Close)

	assert.Equal(t, 1, result.Close.ClosedPositions)
	assert.Equal(t, 1, result.Close.LongClosed)
	assert.Equal(t, 0, result.Close.ShortClosed)
	assert.Equal(t, 2, result.Close.CancelledOrders)
	assert.Equal(t, 0.02, result.Quantity)

	placed := env.ex.PlacedOrders()
	require.Len(t, placed, 1)
	assert.Equal(t, domain.Sell, placed[0].Side)
	assert.Equal(t, 0.02, placed[0].Quantity)
	assert.True(t, placed[0].ReduceOnly)
	assert.ElementsMatch(t, []int64{101, 102}, env.ex.Cancelled)

	// 사이즈 계산과 설정 단계는 실행하지 않음
	assert.Equal(t, 0, env.ex.CallCount("GetBalance"))
	assert.Equal(t, 0, env.ex.CallCount("SetLeverage"))

	records := env.ledger.Recent(0)
	require.Len(t, records, 1)
	assert.Equal(t, domain.TradeCompleted, records[0].Status)
	assert.Equal(t, domain.ActionClose, records[0].Action)
	require.Len(t, env.notifier.closes, 1)
}

func TestExecutor_CloseSymbol(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.Positions["BTCUSDT"] = []domain.Position{
		{Symbol: "BTCUSDT", PositionSide: domain.LongPosition, Amount: 0.1},
		{Symbol: "BTCUSDT", PositionSide: domain.ShortPosition, Amount: -0.3},
	}

	result, err := env.executor.CloseSymbol(context.Background(), "btcusdt")
	require.NoError(t, err)
	assert.Equal(t, 2, result.ClosedPositions)
	assert.Equal(t, 1, result.LongClosed)
	assert.Equal(t, 1, result.ShortClosed)
}

func TestExecutor_CloseFlatSymbol(t *testing.T) {
	env := newTestEnv(t, Config{})

	result, err := env.executor.CloseSymbol(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ClosedPositions)
	assert.Empty(t, env.ex.PlacedOrders())
}

func TestExecutor_FallbackRules(t *testing.T) {
	env := newTestEnv(t, Config{})
	env.ex.Prices["DOGEUSDT"] = 0.1234
	env.ex.Errors["GetSymbolRules"] = errors.New("exchangeInfo unavailable")

	sig := domain.Signal{Symbol: "DOGEUSDT", Action: domain.ActionBuy, BalanceFraction: 0.1, Leverage: 5}
	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.True(t, result.RulesFallback)

	// 500 USDT / 0.1234 = 4051.86 -> stepSize 1
	assert.Equal(t, 4051.0, result.Quantity)
}

func TestExecutor_HedgeMode(t *testing.T) {
	env := newTestEnv(t, Config{HedgeMode: true})

	sig := buySignal()
	sig.StopPercent = 2
	_, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)

	placed := env.ex.PlacedOrders()
	require.Len(t, placed, 2)
	assert.Equal(t, domain.LongPosition, placed[0].PositionSide)
	assert.Equal(t, domain.LongPosition, placed[1].PositionSide)
}

func TestExecutor_DefaultLeverage(t *testing.T) {
	env := newTestEnv(t, Config{DefaultLeverage: 3, MarginType: domain.Crossed})

	sig := buySignal()
	sig.Leverage = 0
	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Leverage)
	assert.Equal(t, 3, env.ex.LeverageSet["BTCUSDT"])
	assert.Equal(t, domain.Crossed, env.ex.MarginSet["BTCUSDT"])
	// 1000 * 0.1 * 3 / 50000 = 0.006
	assert.Equal(t, 0.006, result.Quantity)
}

func TestExecutor_Scalp(t *testing.T) {
	env := newTestEnv(t, Config{})

	sig := buySignal()
	sig.BalanceFraction = 0.15
	sig.Leverage = 20
	result, err := env.executor.ExecuteScalp(context.Background(), sig, ScalpTags{SignalStrength: "strong", RiskLevel: "high"})
	require.NoError(t, err)

	assert.Equal(t, 0.135, result.BalanceFraction)
	assert.Equal(t, 10, result.Leverage)
	assert.Equal(t, 10, env.ex.LeverageSet["BTCUSDT"])
	// 1000 * 0.135 * 10 / 50000 = 0.027
	assert.Equal(t, 0.027, result.Quantity)
}

func TestExecutor_ScalpValidatesBeforeAdjusting(t *testing.T) {
	env := newTestEnv(t, Config{})
	ctx := context.Background()
	tags := ScalpTags{SignalStrength: "strong", RiskLevel: "low"}

	tests := []struct {
		name     string
		fraction float64
		leverage int
	}{
		{"비율 300%", 3.0, 10},
		{"비율 0", 0, 10},
		{"음수 비율", -0.1, 10},
		{"레버리지 초과", 0.1, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := buySignal()
			sig.BalanceFraction = tt.fraction
			sig.Leverage = tt.leverage

			result, err := env.executor.ExecuteScalp(ctx, sig, tags)
			assert.Nil(t, result)
			var execErr *ExecutionError
			require.True(t, errors.As(err, &execErr))
			assert.Equal(t, StateReceived, execErr.State)
			assert.Equal(t, "validation", execErr.Kind())
			assert.ErrorIs(t, err, position.ErrValidation)
		})
	}

	assert.Equal(t, 0, env.ex.CallCount("GetBalance"))
	assert.Empty(t, env.ex.PlacedOrders())
	assert.Empty(t, env.ledger.Recent(0))
}

func TestExecutor_DefaultBracketLeg(t *testing.T) {
	env := newTestEnv(t, Config{DefaultStopPercent: 1, DefaultTargetPercent: 2})

	sig := buySignal()
	sig.StopPercent = 2
	result, err := env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)

	assert.Equal(t, 49000.0, result.StopPrice)
	assert.Equal(t, 51000.0, result.TargetPrice)
	require.NotNil(t, result.TargetOrderID)
	assert.Len(t, env.ex.PlacedOrders(), 3)

	sig = buySignal()
	sig.Action = domain.ActionSell
	sig.TargetPrice = 45000
	result, err = env.executor.ExecuteSignal(context.Background(), sig)
	require.NoError(t, err)

	// 숏 기본 손절: 50000 * 1.01
	assert.Equal(t, 50500.0, result.StopPrice)
	assert.Equal(t, 45000.0, result.TargetPrice)
}

func TestExecutor_DefaultBracketNeedsOneLeg(t *testing.T) {
	env := newTestEnv(t, Config{DefaultStopPercent: 1, DefaultTargetPercent: 2})

	result, err := env.executor.ExecuteSignal(context.Background(), buySignal())
	require.NoError(t, err)

	assert.Nil(t, result.StopOrderID)
	assert.Nil(t, result.TargetOrderID)
	assert.Len(t, env.ex.PlacedOrders(), 1)
}

func TestExecutor_LockHeld(t *testing.T) {
	locker := NewLocalLocker()
	env := newTestEnv(t, Config{})
	env.executor.locker = locker

	unlock, err := locker.Lock(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.executor.ExecuteSignal(ctx, buySignal())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLockHeld)
	assert.Empty(t, env.ex.PlacedOrders())

	unlock()
	_, err = env.executor.ExecuteSignal(context.Background(), buySignal())
	assert.NoError(t, err)
}
