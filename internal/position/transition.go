package position

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/assist-by/hookbridge/internal/domain"
)

// 전환을 수행하지 않은 이유
const (
	ReasonFlat          = "flat"
	ReasonSameDirection = "same-direction"
)

// OrderGateway는 포지션 전환에 필요한 거래소 기능입니다
type OrderGateway interface {
	GetPositions(ctx context.Context, symbol string) ([]domain.Position, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]domain.OrderResponse, error)
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
	CancelOrder(ctx context.Context, symbol string, orderID int64) error
}

// TransitionOutcome은 반대 포지션 청산 결과입니다
type TransitionOutcome struct {
	Closed         bool                    `json:"closed"`
	Reason         string                  `json:"reason,omitempty"`
	ClosedQuantity float64                 `json:"closed_quantity,omitempty"`
	ClosedSide     domain.OrderSide        `json:"closed_side,omitempty"`
	OrderID        int64                   `json:"order_id,omitempty"`
	Positions      []domain.ClosedPosition `json:"positions,omitempty"`
	Warnings       []Warning               `json:"warnings,omitempty"`
}

// CloseOutcome은 심볼 전체 청산 결과입니다
type CloseOutcome struct {
	Symbol          string                  `json:"symbol"`
	Positions       []domain.ClosedPosition `json:"positions"`
	LongClosed      int                     `json:"long_positions_closed"`
	ShortClosed     int                     `json:"short_positions_closed"`
	CancelledOrders int                     `json:"cancelled_orders"`
	Warnings        []Warning               `json:"warnings,omitempty"`
}

// ClosedCount는 청산한 포지션 수를 반환합니다
func (o CloseOutcome) ClosedCount() int {
	return len(o.Positions)
}

// Transitioner는 새 진입 전에 반대 방향 포지션을 정리합니다
// 포지션 상태는 로컬에 보관하지 않고 매번 거래소에서 다시 조회합니다
type Transitioner struct {
	gateway       OrderGateway
	logger        *zap.Logger
	clientOrderID func() string
}

// TransitionerOption은 Transitioner 생성 옵션을 정의합니다
type TransitionerOption func(*Transitioner)

// WithTransitionLogger는 로거를 설정합니다
func WithTransitionLogger(logger *zap.Logger) TransitionerOption {
	return func(t *Transitioner) {
		t.logger = logger
	}
}

// WithClientOrderID는 청산 주문의 클라이언트 주문 ID 생성기를 설정합니다
func WithClientOrderID(fn func() string) TransitionerOption {
	return func(t *Transitioner) {
		t.clientOrderID = fn
	}
}

// NewTransitioner는 새로운 Transitioner를 생성합니다
func NewTransitioner(gateway OrderGateway, opts ...TransitionerOption) *Transitioner {
	t := &Transitioner{
		gateway:       gateway,
		logger:        zap.NewNop(),
		clientOrderID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CloseOpposite는 target과 반대 방향인 포지션을 reduce-only 시장가로 청산합니다
// 포지션이 없거나 같은 방향이면 주문 없이 반환합니다
func (t *Transitioner) CloseOpposite(ctx context.Context, symbol string, target domain.Direction) (*TransitionOutcome, error) {
	// 1. 현재 포지션 조회
	positions, err := t.gateway.GetPositions(ctx, symbol)
	if err != nil {
		return nil, NewPositionError(symbol, "get_positions", fmt.Errorf("%w: %w", ErrTransition, err))
	}

	// 2. 반대 방향 포지션 선별
	var opposite []domain.Position
	open := 0
	for _, pos := range positions {
		dir, ok := pos.Direction()
		if pos.Symbol != symbol || !ok {
			continue
		}
		open++
		if dir != target {
			opposite = append(opposite, pos)
		}
	}

	if open == 0 {
		return &TransitionOutcome{Closed: false, Reason: ReasonFlat}, nil
	}
	if len(opposite) == 0 {
		return &TransitionOutcome{Closed: false, Reason: ReasonSameDirection}, nil
	}

	// 3. 반대 포지션 청산
	outcome := &TransitionOutcome{Closed: true}
	for _, pos := range opposite {
		closed, err := t.closePosition(ctx, pos)
		if err != nil {
			return nil, NewPositionError(symbol, "close_opposite", fmt.Errorf("%w: %w", ErrTransition, err))
		}
		outcome.Positions = append(outcome.Positions, *closed)
		outcome.ClosedQuantity += closed.Quantity
		outcome.ClosedSide = closed.Side
		outcome.OrderID = closed.OrderID
	}
	outcome.ClosedQuantity = domain.FloorToStep(outcome.ClosedQuantity, 0)

	// 4. 남은 조건부 주문 취소
	_, outcome.Warnings = t.cancelOpenOrders(ctx, symbol)

	return outcome, nil
}

// CloseAll은 심볼의 모든 포지션(롱/숏 모두)을 청산하고 열린 주문을 취소합니다
// 일부 청산이 실패해도 나머지는 계속 진행하며, 실패가 있으면 부분 결과와 함께 에러를 반환합니다
func (t *Transitioner) CloseAll(ctx context.Context, symbol string) (*CloseOutcome, error) {
	// 1. 현재 포지션 조회
	positions, err := t.gateway.GetPositions(ctx, symbol)
	if err != nil {
		return nil, NewPositionError(symbol, "get_positions", fmt.Errorf("%w: %w", ErrTransition, err))
	}

	outcome := &CloseOutcome{Symbol: symbol, Positions: []domain.ClosedPosition{}}
	var firstErr error

	// 2. 열린 포지션을 모두 청산
	for _, pos := range positions {
		if pos.Symbol != symbol || pos.IsFlat() {
			continue
		}
		closed, err := t.closePosition(ctx, pos)
		if err != nil {
			t.logger.Error("포지션 청산 실패",
				zap.String("symbol", symbol),
				zap.Float64("amount", pos.Amount),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		outcome.Positions = append(outcome.Positions, *closed)
		if closed.Direction == domain.Long {
			outcome.LongClosed++
		} else {
			outcome.ShortClosed++
		}
	}

	// 3. 열린 주문 취소
	outcome.CancelledOrders, outcome.Warnings = t.cancelOpenOrders(ctx, symbol)

	if firstErr != nil {
		return outcome, NewPositionError(symbol, "close_all", fmt.Errorf("%w: %w", ErrTransition, firstErr))
	}
	return outcome, nil
}

// closePosition은 포지션 하나를 reduce-only 시장가 주문으로 청산합니다
func (t *Transitioner) closePosition(ctx context.Context, pos domain.Position) (*domain.ClosedPosition, error) {
	dir, _ := pos.Direction()
	quantity := absAmount(pos.Amount)
	exitSide := GetOrderSideForExit(dir)

	order := domain.NewMarketOrder(pos.Symbol, exitSide, quantity, true, t.clientOrderID())
	if pos.PositionSide.IsHedge() {
		order.PositionSide = pos.PositionSide
	}

	resp, err := t.gateway.PlaceOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	t.logger.Info("포지션 청산 주문 성공",
		zap.String("symbol", pos.Symbol),
		zap.String("direction", string(dir)),
		zap.Float64("quantity", quantity),
		zap.Int64("order_id", resp.OrderID))

	return &domain.ClosedPosition{
		Symbol:       pos.Symbol,
		Direction:    dir,
		PositionSide: pos.PositionSide,
		Quantity:     quantity,
		Side:         exitSide,
		OrderID:      resp.OrderID,
	}, nil
}

// cancelOpenOrders는 심볼의 열린 주문을 모두 취소합니다
// 실패는 CancelWarning으로 모아 반환하며 전환을 중단하지 않습니다
func (t *Transitioner) cancelOpenOrders(ctx context.Context, symbol string) (int, []Warning) {
	var warnings []Warning

	openOrders, err := t.gateway.GetOpenOrders(ctx, symbol)
	if err != nil {
		t.logger.Warn("열린 주문 조회 실패", zap.String("symbol", symbol), zap.Error(err))
		return 0, append(warnings, Warning{Kind: CancelWarning, Symbol: symbol, Op: "get_open_orders", Err: err})
	}

	cancelled := 0
	for _, order := range openOrders {
		if err := t.gateway.CancelOrder(ctx, symbol, order.OrderID); err != nil {
			t.logger.Warn("주문 취소 실패",
				zap.String("symbol", symbol), zap.Int64("order_id", order.OrderID), zap.Error(err))
			warnings = append(warnings, Warning{
				Kind:   CancelWarning,
				Symbol: symbol,
				Op:     fmt.Sprintf("cancel_order(%d)", order.OrderID),
				Err:    err,
			})
			continue
		}
		cancelled++
		t.logger.Info("주문 취소 성공",
			zap.String("symbol", symbol),
			zap.String("type", string(order.Type)),
			zap.String("side", string(order.Side)),
			zap.Int64("order_id", order.OrderID))
	}

	return cancelled, warnings
}
