// Package fake는 테스트용 인메모리 거래소 구현을 제공합니다
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange"
)

var _ exchange.Exchange = (*Exchange)(nil)

// Exchange는 호출을 기록하고 주문을 포지션에 반영하는 인메모리 거래소입니다
type Exchange struct {
	mu sync.Mutex

	Balance   domain.BalanceSnapshot
	Prices    map[string]float64
	Rules     map[string]domain.SymbolRules
	Positions map[string][]domain.Position
	Open      map[string][]domain.OrderResponse

	// 메서드별 강제 에러 (키: "GetBalance", "PlaceOrder" 등)
	Errors map[string]error
	// PlaceOrder 에러를 주문 유형별로 지정합니다
	OrderErrors map[domain.OrderType]error

	Placed      []domain.OrderRequest
	Cancelled   []int64
	LeverageSet map[string]int
	MarginSet   map[string]domain.MarginType
	Calls       map[string]int
	nextOrderID int64
}

// New는 빈 거래소를 생성합니다
func New() *Exchange {
	return &Exchange{
		Prices:      make(map[string]float64),
		Rules:       make(map[string]domain.SymbolRules),
		Positions:   make(map[string][]domain.Position),
		Open:        make(map[string][]domain.OrderResponse),
		Errors:      make(map[string]error),
		OrderErrors: make(map[domain.OrderType]error),
		LeverageSet: make(map[string]int),
		MarginSet:   make(map[string]domain.MarginType),
		Calls:       make(map[string]int),
		nextOrderID: 1000,
	}
}

// SetPosition은 심볼의 단방향 포지션 수량을 설정합니다
func (e *Exchange) SetPosition(symbol string, amount float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Positions[symbol] = []domain.Position{{
		Symbol:       symbol,
		PositionSide: domain.BothPosition,
		Amount:       amount,
		Leverage:     10,
	}}
}

// AddOpenOrder는 열린 주문을 추가합니다
func (e *Exchange) AddOpenOrder(symbol string, orderID int64, orderType domain.OrderType) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Open[symbol] = append(e.Open[symbol], domain.OrderResponse{OrderID: orderID, Symbol: symbol, Type: orderType})
}

// PlacedOrders는 기록된 주문의 복사본을 반환합니다
func (e *Exchange) PlacedOrders() []domain.OrderRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.OrderRequest(nil), e.Placed...)
}

// CallCount는 메서드 호출 횟수를 반환합니다
func (e *Exchange) CallCount(method string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Calls[method]
}

func (e *Exchange) enter(method string) error {
	e.Calls[method]++
	return e.Errors[method]
}

func (e *Exchange) GetPrice(ctx context.Context, symbol string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("GetPrice"); err != nil {
		return 0, err
	}
	price, ok := e.Prices[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: %s", exchange.ErrSymbolNotFound, symbol)
	}
	return price, nil
}

func (e *Exchange) GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("GetSymbolRules"); err != nil {
		return nil, err
	}
	rules, ok := e.Rules[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", exchange.ErrSymbolNotFound, symbol)
	}
	return &rules, nil
}

func (e *Exchange) GetBalance(ctx context.Context) (domain.BalanceSnapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("GetBalance"); err != nil {
		return domain.BalanceSnapshot{}, err
	}
	return e.Balance, nil
}

func (e *Exchange) GetPositions(ctx context.Context, symbol string) ([]domain.Position, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("GetPositions"); err != nil {
		return nil, err
	}
	var result []domain.Position
	for _, pos := range e.Positions[symbol] {
		if !pos.IsFlat() {
			result = append(result, pos)
		}
	}
	return result, nil
}

func (e *Exchange) GetOpenOrders(ctx context.Context, symbol string) ([]domain.OrderResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("GetOpenOrders"); err != nil {
		return nil, err
	}
	return append([]domain.OrderResponse(nil), e.Open[symbol]...), nil
}

// PlaceOrder는 주문을 기록하고 시장가 주문을 포지션에 즉시 반영합니다
// 지정가/스탑 주문은 열린 주문 목록에 추가됩니다
func (e *Exchange) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("PlaceOrder"); err != nil {
		return nil, err
	}
	if err := e.OrderErrors[order.Type]; err != nil {
		return nil, err
	}

	e.nextOrderID++
	resp := &domain.OrderResponse{
		OrderID:       e.nextOrderID,
		Symbol:        order.Symbol,
		Status:        "NEW",
		ClientOrderID: order.ClientOrderID,
		Price:         order.Price,
		StopPrice:     order.StopPrice,
		OrigQuantity:  order.Quantity,
		Side:          order.Side,
		PositionSide:  order.PositionSide,
		Type:          order.Type,
		ReduceOnly:    order.ReduceOnly,
	}
	e.Placed = append(e.Placed, order)

	if order.Type != domain.Market {
		e.Open[order.Symbol] = append(e.Open[order.Symbol], *resp)
		return resp, nil
	}

	resp.Status = "FILLED"
	resp.ExecutedQuantity = order.Quantity
	resp.AvgPrice = e.Prices[order.Symbol]
	e.fill(order)
	return resp, nil
}

func (e *Exchange) fill(order domain.OrderRequest) {
	delta := order.Quantity
	if order.Side == domain.Sell {
		delta = -delta
	}
	side := order.PositionSide
	if side == "" {
		side = domain.BothPosition
	}

	positions := e.Positions[order.Symbol]
	for i := range positions {
		if positions[i].PositionSide == side {
			positions[i].Amount = domain.FloorToStep(positions[i].Amount+delta, 0)
			return
		}
	}
	e.Positions[order.Symbol] = append(positions, domain.Position{
		Symbol:       order.Symbol,
		PositionSide: side,
		Amount:       delta,
		EntryPrice:   e.Prices[order.Symbol],
	})
}

func (e *Exchange) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("CancelOrder"); err != nil {
		return err
	}
	orders := e.Open[symbol]
	for i, o := range orders {
		if o.OrderID == orderID {
			e.Open[symbol] = append(orders[:i], orders[i+1:]...)
			break
		}
	}
	e.Cancelled = append(e.Cancelled, orderID)
	return nil
}

func (e *Exchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("SetLeverage"); err != nil {
		return err
	}
	e.LeverageSet[symbol] = leverage
	return nil
}

func (e *Exchange) SetMarginType(ctx context.Context, symbol string, marginType domain.MarginType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enter("SetMarginType"); err != nil {
		return err
	}
	e.MarginSet[symbol] = marginType
	return nil
}
