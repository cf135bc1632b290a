package trading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange"
	"github.com/assist-by/hookbridge/internal/metrics"
	"github.com/assist-by/hookbridge/internal/notification"
	"github.com/assist-by/hookbridge/internal/position"
)

// State는 거래 실행 단계입니다
type State string

const (
	StateReceived      State = "RECEIVED"
	StateSizing        State = "SIZING"
	StateTransitioning State = "TRANSITIONING"
	StateConfiguring   State = "CONFIGURING"
	StateEntering      State = "ENTERING"
	StateBracketing    State = "BRACKETING"
	StateRecorded      State = "RECORDED"
	StateFailed        State = "FAILED"
)

// Sizer는 주문 수량을 계산합니다
type Sizer interface {
	Size(ctx context.Context, req position.SizingRequest) (*position.SizingResult, error)
}

// Transitioner는 기존 포지션을 정리합니다
type Transitioner interface {
	CloseOpposite(ctx context.Context, symbol string, target domain.Direction) (*position.TransitionOutcome, error)
	CloseAll(ctx context.Context, symbol string) (*position.CloseOutcome, error)
}

// Recorder는 거래 기록을 보관합니다
type Recorder interface {
	Append(ctx context.Context, record domain.TradeRecord)
}

// Config는 실행기 설정입니다
type Config struct {
	DefaultLeverage int               // 시그널에 레버리지가 없을 때 사용
	MarginType      domain.MarginType // 진입 전 설정할 마진 타입
	CallTimeout     time.Duration     // 단계별 거래소 호출 타임아웃 (0이면 제한 없음)
	HedgeMode       bool              // 헤지 모드 계정이면 positionSide를 지정
	Scalp           ScalpLimits

	// 손절/익절 중 하나만 지정된 경우 나머지 쪽에 쓰는 기본 폭 (%), 0이면 배치하지 않음
	DefaultStopPercent   float64
	DefaultTargetPercent float64
}

// ExecutionResult는 시그널 실행 결과입니다
type ExecutionResult struct {
	ID               string                      `json:"id"`
	Symbol           string                      `json:"symbol"`
	Action           domain.Action               `json:"action"`
	State            State                       `json:"state"`
	Quantity         float64                     `json:"quantity"`
	ReferencePrice   float64                     `json:"reference_price,omitempty"`
	PositionNotional float64                     `json:"position_notional,omitempty"`
	BalanceFraction  float64                     `json:"balance_fraction,omitempty"`
	Leverage         int                         `json:"leverage,omitempty"`
	MarginType       domain.MarginType           `json:"margin_type,omitempty"`
	RulesFallback    bool                        `json:"rules_fallback,omitempty"`
	EntryOrderID     int64                       `json:"entry_order_id,omitempty"`
	StopOrderID      *int64                      `json:"stop_order_id,omitempty"`
	TargetOrderID    *int64                      `json:"target_order_id,omitempty"`
	StopPrice        float64                     `json:"stop_price,omitempty"`
	TargetPrice      float64                     `json:"target_price,omitempty"`
	Transition       *position.TransitionOutcome `json:"transition,omitempty"`
	Close            *CloseResult                `json:"close,omitempty"`
	Warnings         []position.Warning          `json:"warnings,omitempty"`
}

// CloseResult는 심볼 청산 결과입니다
type CloseResult struct {
	Symbol          string                  `json:"symbol"`
	ClosedPositions int                     `json:"closed_positions"`
	LongClosed      int                     `json:"long_positions_closed"`
	ShortClosed     int                     `json:"short_positions_closed"`
	CancelledOrders int                     `json:"cancelled_orders"`
	Positions       []domain.ClosedPosition `json:"positions"`
	Warnings        []position.Warning      `json:"warnings,omitempty"`
}

// Executor는 시그널을 주문으로 변환하는 실행기입니다
// 단계는 항상 순서대로 진행되며, 필수 단계가 실패하면 이후 단계는 실행하지 않습니다
type Executor struct {
	exchange     exchange.Exchange
	sizer        Sizer
	transitioner Transitioner
	cfg          Config

	ledger   Recorder
	notifier notification.Notifier
	metrics  *metrics.Metrics
	locker   SymbolLocker
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

// ExecutorOption은 실행기 생성 옵션을 정의합니다
type ExecutorOption func(*Executor)

// WithLedger는 거래 원장을 설정합니다
func WithLedger(ledger Recorder) ExecutorOption {
	return func(e *Executor) { e.ledger = ledger }
}

// WithNotifier는 알림 전송기를 설정합니다
func WithNotifier(notifier notification.Notifier) ExecutorOption {
	return func(e *Executor) { e.notifier = notifier }
}

// WithMetrics는 지표 수집기를 설정합니다
func WithMetrics(m *metrics.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithLocker는 심볼 잠금 전략을 설정합니다
func WithLocker(locker SymbolLocker) ExecutorOption {
	return func(e *Executor) { e.locker = locker }
}

// WithLogger는 로거를 설정합니다
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger }
}

// NewExecutor는 새로운 실행기를 생성합니다
func NewExecutor(ex exchange.Exchange, sizer Sizer, transitioner Transitioner, cfg Config, opts ...ExecutorOption) *Executor {
	if cfg.DefaultLeverage <= 0 {
		cfg.DefaultLeverage = 10
	}
	if cfg.MarginType == "" {
		cfg.MarginType = domain.Isolated
	}
	if cfg.Scalp.FractionCap <= 0 {
		cfg.Scalp.FractionCap = DefaultScalpFractionCap
	}
	if cfg.Scalp.LeverageCap <= 0 {
		cfg.Scalp.LeverageCap = DefaultScalpLeverageCap
	}

	e := &Executor{
		exchange:     ex,
		sizer:        sizer,
		transitioner: transitioner,
		cfg:          cfg,
		locker:       NoopLocker{},
		logger:       zap.NewNop(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteScalp는 스캘핑 태그로 시그널을 조정한 뒤 실행합니다
func (e *Executor) ExecuteScalp(ctx context.Context, sig domain.Signal, tags ScalpTags) (*ExecutionResult, error) {
	if sig.Leverage == 0 {
		sig.Leverage = e.cfg.DefaultLeverage
	}
	if sig.Source == "" {
		sig.Source = "scalp"
	}

	// 조정 전 요청값을 검증합니다
	if err := sig.Validate(); err != nil {
		sig.Symbol = strings.ToUpper(strings.TrimSpace(sig.Symbol))
		return nil, e.fail(sig, StateReceived, e.now(), &ValidationError{Field: "signal", Err: err})
	}
	adjusted := AdjustScalp(sig, tags, e.cfg.Scalp)

	e.logger.Info("스캘핑 조정 적용",
		zap.String("symbol", sig.Symbol),
		zap.Float64("fraction", sig.BalanceFraction),
		zap.Float64("adjusted_fraction", adjusted.BalanceFraction),
		zap.Int("leverage", adjusted.Leverage),
		zap.String("strength", tags.SignalStrength),
		zap.String("risk", tags.RiskLevel),
		zap.String("market", tags.MarketCondition))

	return e.ExecuteSignal(ctx, adjusted)
}

// ExecuteSignal은 시그널에 따라 실제 매매를 실행합니다
func (e *Executor) ExecuteSignal(ctx context.Context, sig domain.Signal) (*ExecutionResult, error) {
	start := e.now()
	sig.Symbol = strings.ToUpper(strings.TrimSpace(sig.Symbol))
	if sig.Leverage == 0 {
		sig.Leverage = e.cfg.DefaultLeverage
	}

	// 1. 입력 검증
	if err := sig.Validate(); err != nil {
		return nil, e.fail(sig, StateReceived, start, &ValidationError{Field: "signal", Err: err})
	}

	// 2. 심볼 잠금
	unlock, err := e.locker.Lock(ctx, sig.Symbol)
	if err != nil {
		return nil, e.fail(sig, StateReceived, start, err)
	}
	defer unlock()

	// close는 사이즈 계산 없이 전체 청산으로 끝납니다
	if sig.Action == domain.ActionClose {
		return e.executeClose(ctx, sig, start)
	}

	direction, _ := sig.Action.Direction()
	result := &ExecutionResult{
		ID:              e.newID(),
		Symbol:          sig.Symbol,
		Action:          sig.Action,
		BalanceFraction: sig.BalanceFraction,
		Leverage:        sig.Leverage,
		MarginType:      e.cfg.MarginType,
	}

	// 3. 포지션 사이즈 계산
	sizing, err := e.size(ctx, sig)
	if err != nil {
		return nil, e.fail(sig, StateSizing, start, err)
	}
	result.Quantity = sizing.Quantity
	result.ReferencePrice = sizing.ReferencePrice
	result.PositionNotional = sizing.PositionNotional
	result.RulesFallback = sizing.Rules.IsFallback
	if sizing.Rules.IsFallback {
		e.metrics.IncFallbackRules()
		e.logger.Warn("대체 거래 규칙으로 수량 계산", zap.String("symbol", sig.Symbol))
	}

	// 4. 반대 포지션 청산
	transition, err := e.closeOpposite(ctx, sig.Symbol, direction)
	if err != nil {
		return nil, e.fail(sig, StateTransitioning, start, err)
	}
	result.Transition = transition
	result.Warnings = append(result.Warnings, transition.Warnings...)
	e.observeClosed(transition.Positions)

	// 5. 마진 타입과 레버리지 설정 (실패해도 진행)
	result.Warnings = append(result.Warnings, e.configure(ctx, sig.Symbol, sig.Leverage)...)

	// 6. 진입 주문
	entry, err := e.enter(ctx, sig.Symbol, direction, sizing.Quantity)
	if err != nil {
		if transition.Closed {
			e.record(ctx, e.partialRecord(result, sig, err))
		}
		return nil, e.fail(sig, StateEntering, start, err)
	}
	result.EntryOrderID = entry.OrderID

	// 7. 손절/익절 주문 (실패해도 진입은 유지)
	if sig.HasBracket() {
		refPrice := sizing.ReferencePrice
		if entry.AvgPrice > 0 {
			refPrice = entry.AvgPrice
		}
		result.Warnings = append(result.Warnings, e.bracket(ctx, sig, direction, sizing, refPrice, result)...)
	}

	// 8. 기록
	result.State = StateRecorded
	e.record(ctx, e.tradeRecord(result, sig))
	e.observeWarnings(result.Warnings)
	e.metrics.ObserveExecution(string(sig.Action), "recorded", e.now().Sub(start).Seconds())

	e.logger.Info("거래 실행 완료",
		zap.String("symbol", sig.Symbol),
		zap.String("action", string(sig.Action)),
		zap.String("state", string(result.State)),
		zap.Float64("quantity", result.Quantity),
		zap.Int64("entry_order_id", result.EntryOrderID),
		zap.Int("warnings", len(result.Warnings)))

	if e.notifier != nil {
		if err := e.notifier.SendTradeInfo(notification.TradeInfo{
			Symbol:         sig.Symbol,
			Direction:      direction,
			PositionValue:  sizing.PositionNotional,
			Quantity:       sizing.Quantity,
			EntryPrice:     result.ReferencePrice,
			StopLoss:       result.StopPrice,
			TakeProfit:     result.TargetPrice,
			Balance:        sizing.Balance.AvailableBalance,
			Leverage:       sig.Leverage,
			ClosedOpposite: transition.Closed,
			Warnings:       warningStrings(result.Warnings),
		}); err != nil {
			e.logger.Warn("거래 알림 전송 실패", zap.Error(err))
		}
	}

	return result, nil
}

// CloseSymbol은 심볼의 모든 포지션을 청산하고 열린 주문을 취소합니다
func (e *Executor) CloseSymbol(ctx context.Context, symbol string) (*CloseResult, error) {
	result, err := e.ExecuteSignal(ctx, domain.Signal{Symbol: symbol, Action: domain.ActionClose, Source: "api"})
	if err != nil {
		return nil, err
	}
	return result.Close, nil
}

func (e *Executor) executeClose(ctx context.Context, sig domain.Signal, start time.Time) (*ExecutionResult, error) {
	stepCtx, cancel := e.stepContext(ctx)
	outcome, err := e.transitioner.CloseAll(stepCtx, sig.Symbol)
	cancel()

	if err != nil {
		// 일부만 청산된 경우에도 청산된 내역은 기록합니다
		if outcome != nil && outcome.ClosedCount() > 0 {
			partial := &ExecutionResult{ID: e.newID(), Symbol: sig.Symbol, Action: sig.Action, Close: newCloseResult(outcome)}
			partial.Quantity = closedQuantity(outcome.Positions)
			e.observeClosed(outcome.Positions)
			e.record(ctx, e.partialRecord(partial, sig, err))
		}
		return nil, e.fail(sig, StateTransitioning, start, err)
	}

	closeResult := newCloseResult(outcome)
	result := &ExecutionResult{
		ID:       e.newID(),
		Symbol:   sig.Symbol,
		Action:   sig.Action,
		State:    StateRecorded,
		Quantity: closedQuantity(outcome.Positions),
		Close:    closeResult,
		Warnings: outcome.Warnings,
	}

	e.observeClosed(outcome.Positions)
	e.observeWarnings(result.Warnings)
	e.record(ctx, e.tradeRecord(result, sig))
	e.metrics.ObserveExecution(string(sig.Action), "recorded", e.now().Sub(start).Seconds())

	e.logger.Info("심볼 청산 완료",
		zap.String("symbol", sig.Symbol),
		zap.Int("closed_positions", closeResult.ClosedPositions),
		zap.Int("cancelled_orders", closeResult.CancelledOrders))

	if e.notifier != nil {
		if err := e.notifier.SendCloseInfo(notification.CloseInfo{
			Symbol:      sig.Symbol,
			LongClosed:  closeResult.LongClosed,
			ShortClosed: closeResult.ShortClosed,
			Cancelled:   closeResult.CancelledOrders,
			Warnings:    warningStrings(result.Warnings),
		}); err != nil {
			e.logger.Warn("청산 알림 전송 실패", zap.Error(err))
		}
	}

	return result, nil
}

func (e *Executor) size(ctx context.Context, sig domain.Signal) (*position.SizingResult, error) {
	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()
	return e.sizer.Size(stepCtx, position.SizingRequest{
		Symbol:          sig.Symbol,
		BalanceFraction: sig.BalanceFraction,
		Leverage:        sig.Leverage,
	})
}

func (e *Executor) closeOpposite(ctx context.Context, symbol string, direction domain.Direction) (*position.TransitionOutcome, error) {
	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()
	return e.transitioner.CloseOpposite(stepCtx, symbol, direction)
}

// configure는 마진 타입과 레버리지를 설정하고 실패를 경고로 반환합니다
func (e *Executor) configure(ctx context.Context, symbol string, leverage int) []position.Warning {
	var warnings []position.Warning

	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()

	if err := e.exchange.SetMarginType(stepCtx, symbol, e.cfg.MarginType); err != nil {
		e.logger.Warn("마진 타입 설정 실패", zap.String("symbol", symbol), zap.Error(err))
		warnings = append(warnings, position.Warning{
			Kind: position.ConfigurationWarning, Symbol: symbol, Op: "set_margin_type", Err: err,
		})
	}
	if err := e.exchange.SetLeverage(stepCtx, symbol, leverage); err != nil {
		e.logger.Warn("레버리지 설정 실패", zap.String("symbol", symbol), zap.Int("leverage", leverage), zap.Error(err))
		warnings = append(warnings, position.Warning{
			Kind: position.ConfigurationWarning, Symbol: symbol, Op: "set_leverage", Err: err,
		})
	}
	return warnings
}

func (e *Executor) enter(ctx context.Context, symbol string, direction domain.Direction, quantity float64) (*domain.OrderResponse, error) {
	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()

	side := position.GetOrderSideForEntry(direction)
	order := domain.NewMarketOrder(symbol, side, quantity, false, e.newID())
	order.PositionSide = position.GetPositionSideForEntry(direction, e.cfg.HedgeMode)

	resp, err := e.exchange.PlaceOrder(stepCtx, order)
	if err != nil {
		return nil, newOrderRejected(symbol, err)
	}
	e.metrics.IncOrder(string(order.Type), string(order.Side))
	return resp, nil
}

// bracket은 손절/익절 주문을 배치하고 실패를 경고로 반환합니다
func (e *Executor) bracket(ctx context.Context, sig domain.Signal, direction domain.Direction, sizing *position.SizingResult, refPrice float64, result *ExecutionResult) []position.Warning {
	var warnings []position.Warning
	rules := sizing.Rules
	exitSide := position.GetOrderSideForExit(direction)
	positionSide := position.GetPositionSideForEntry(direction, e.cfg.HedgeMode)

	stepCtx, cancel := e.stepContext(ctx)
	defer cancel()

	bracketWarning := func(op string, err error) {
		e.logger.Warn("브라켓 주문 실패", zap.String("symbol", sig.Symbol), zap.String("op", op), zap.Error(err))
		warnings = append(warnings, position.Warning{Kind: position.BracketWarning, Symbol: sig.Symbol, Op: op, Err: err})
	}

	// 한쪽만 지정되면 다른 쪽은 기본 폭으로 채웁니다
	if !sig.HasStop() {
		sig.StopPercent = e.cfg.DefaultStopPercent
	}
	if !sig.HasTarget() {
		sig.TargetPercent = e.cfg.DefaultTargetPercent
	}

	if sig.HasStop() {
		stopPrice := rules.AdjustPrice(bracketPrice(refPrice, sig.StopPrice, sig.StopPercent, direction, true))
		if err := validateBracket(rules, refPrice, stopPrice, direction, true); err != nil {
			bracketWarning("place_stop", err)
		} else {
			order := domain.NewStopOrder(sig.Symbol, exitSide, sizing.Quantity, stopPrice, true)
			order.PositionSide = positionSide
			if resp, err := e.exchange.PlaceOrder(stepCtx, order); err != nil {
				bracketWarning("place_stop", newOrderRejected(sig.Symbol, err))
			} else {
				id := resp.OrderID
				result.StopOrderID = &id
				result.StopPrice = stopPrice
				e.metrics.IncOrder(string(order.Type), string(order.Side))
			}
		}
	}

	if sig.HasTarget() {
		targetPrice := rules.AdjustPrice(bracketPrice(refPrice, sig.TargetPrice, sig.TargetPercent, direction, false))
		if err := validateBracket(rules, refPrice, targetPrice, direction, false); err != nil {
			bracketWarning("place_target", err)
		} else {
			order := domain.NewLimitOrder(sig.Symbol, exitSide, sizing.Quantity, targetPrice, true, domain.GTC)
			order.PositionSide = positionSide
			if resp, err := e.exchange.PlaceOrder(stepCtx, order); err != nil {
				bracketWarning("place_target", newOrderRejected(sig.Symbol, err))
			} else {
				id := resp.OrderID
				result.TargetOrderID = &id
				result.TargetPrice = targetPrice
				e.metrics.IncOrder(string(order.Type), string(order.Side))
			}
		}
	}

	return warnings
}

// bracketPrice는 명시적 가격이 있으면 그대로, 없으면 퍼센트로 가격을 계산합니다
func bracketPrice(refPrice, explicit, percent float64, direction domain.Direction, isStop bool) float64 {
	if explicit > 0 {
		return explicit
	}
	offset := refPrice * percent / 100
	// 롱 손절/숏 익절은 기준가 아래, 롱 익절/숏 손절은 기준가 위
	if (direction == domain.Long) == isStop {
		return refPrice - offset
	}
	return refPrice + offset
}

// validateBracket은 손절가가 손실 방향, 익절가가 이익 방향에 있는지 확인합니다
func validateBracket(rules domain.SymbolRules, refPrice, price float64, direction domain.Direction, isStop bool) error {
	if price <= 0 {
		return fmt.Errorf("유효하지 않은 가격: %v", price)
	}
	if !rules.PriceInRange(price) {
		return fmt.Errorf("가격 %v가 허용 범위를 벗어났습니다 (%v ~ %v)", price, rules.MinPrice, rules.MaxPrice)
	}
	below := (direction == domain.Long) == isStop
	if below && price >= refPrice {
		return fmt.Errorf("가격 %v는 기준가 %v보다 낮아야 합니다", price, refPrice)
	}
	if !below && price <= refPrice {
		return fmt.Errorf("가격 %v는 기준가 %v보다 높아야 합니다", price, refPrice)
	}
	return nil
}

// fail은 실패를 기록하고 ExecutionError를 반환합니다
func (e *Executor) fail(sig domain.Signal, state State, start time.Time, err error) error {
	execErr := &ExecutionError{Symbol: sig.Symbol, Action: sig.Action, State: state, Err: err}

	e.metrics.IncFailure(string(state), execErr.Kind())
	e.metrics.ObserveExecution(string(sig.Action), "failed", e.now().Sub(start).Seconds())

	e.logger.Error("거래 실행 실패",
		zap.String("symbol", sig.Symbol),
		zap.String("action", string(sig.Action)),
		zap.String("state", string(state)),
		zap.String("kind", execErr.Kind()),
		zap.Error(err))

	if e.notifier != nil {
		if nerr := e.notifier.SendError(execErr); nerr != nil {
			e.logger.Warn("에러 알림 전송 실패", zap.Error(nerr))
		}
	}
	return execErr
}

func (e *Executor) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.CallTimeout)
}

func (e *Executor) record(ctx context.Context, record domain.TradeRecord) {
	if e.ledger != nil {
		e.ledger.Append(ctx, record)
	}
}

func (e *Executor) tradeRecord(result *ExecutionResult, sig domain.Signal) domain.TradeRecord {
	record := domain.TradeRecord{
		ID:             result.ID,
		Timestamp:      e.now(),
		Symbol:         result.Symbol,
		Action:         result.Action,
		Source:         sig.Source,
		Quantity:       result.Quantity,
		ReferencePrice: result.ReferencePrice,
		Leverage:       result.Leverage,
		MarginType:     result.MarginType,
		EntryOrderID:   result.EntryOrderID,
		StopOrderID:    result.StopOrderID,
		TargetOrderID:  result.TargetOrderID,
		StopPrice:      result.StopPrice,
		TargetPrice:    result.TargetPrice,
		Warnings:       warningStrings(result.Warnings),
		Status:         domain.TradeActive,
	}
	if result.Transition != nil && result.Transition.Closed {
		record.ClosedOpposite = true
		record.Closed = result.Transition.Positions
	}
	if result.Close != nil {
		record.Closed = result.Close.Positions
		record.Status = domain.TradeCompleted
	}
	return record
}

// partialRecord는 포지션은 청산했지만 이후 단계가 실패한 경우의 기록입니다
func (e *Executor) partialRecord(result *ExecutionResult, sig domain.Signal, cause error) domain.TradeRecord {
	record := e.tradeRecord(result, sig)
	record.Quantity = 0
	if result.Close != nil {
		record.Quantity = result.Quantity
	}
	record.Status = domain.TradeCompleted
	record.Warnings = append(record.Warnings, cause.Error())
	return record
}

func (e *Executor) observeClosed(positions []domain.ClosedPosition) {
	for _, p := range positions {
		e.metrics.IncOrder(string(domain.Market), string(p.Side))
		e.metrics.IncClosed(string(p.Direction))
	}
}

func (e *Executor) observeWarnings(warnings []position.Warning) {
	for _, w := range warnings {
		e.metrics.IncWarning(string(w.Kind))
	}
}

func newCloseResult(outcome *position.CloseOutcome) *CloseResult {
	return &CloseResult{
		Symbol:          outcome.Symbol,
		ClosedPositions: outcome.ClosedCount(),
		LongClosed:      outcome.LongClosed,
		ShortClosed:     outcome.ShortClosed,
		CancelledOrders: outcome.CancelledOrders,
		Positions:       outcome.Positions,
		Warnings:        outcome.Warnings,
	}
}

func closedQuantity(positions []domain.ClosedPosition) float64 {
	total := 0.0
	for _, p := range positions {
		total += p.Quantity
	}
	return domain.FloorToStep(total, 0)
}

func warningStrings(warnings []position.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	result := make([]string, 0, len(warnings))
	for _, w := range warnings {
		result = append(result, w.String())
	}
	return result
}
