package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange"
)

const exchangeInfoJSON = `{
  "symbols": [
    {"symbol": "BTCUSDT", "filters": [
      {"filterType": "PRICE_FILTER", "minPrice": "556.80", "maxPrice": "4529764", "tickSize": "0.10"},
      {"filterType": "LOT_SIZE", "stepSize": "0.001", "maxQty": "1000", "minQty": "0.001"},
      {"filterType": "MIN_NOTIONAL", "notional": "100"}
    ]},
    {"symbol": "ETHUSDT", "filters": [
      {"filterType": "PRICE_FILTER", "minPrice": "39.86", "maxPrice": "306177", "tickSize": "0.01"},
      {"filterType": "LOT_SIZE", "stepSize": "0.001", "maxQty": "10000", "minQty": "0.001"},
      {"filterType": "MIN_NOTIONAL", "minNotionalValue": "20"}
    ]},
    {"symbol": "XRPUSDT", "filters": [
      {"filterType": "PRICE_FILTER", "minPrice": "0.0143", "maxPrice": "100000", "tickSize": "0.0001"},
      {"filterType": "LOT_SIZE", "stepSize": "0.1", "maxQty": "10000000", "minQty": "0.1"}
    ]},
    {"symbol": "BROKENUSDT", "filters": [
      {"filterType": "LOT_SIZE", "stepSize": "1", "minQty": "1"}
    ]}
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("key", "secret", WithBaseURL(srv.URL))
}

func TestClient_GetSymbolRules(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/exchangeInfo", r.URL.Path)
		w.Write([]byte(exchangeInfoJSON))
	})
	ctx := context.Background()

	tests := []struct {
		name        string
		symbol      string
		minNotional float64
		stepSize    float64
		tickSize    float64
	}{
		{"notional 필드", "BTCUSDT", 100, 0.001, 0.1},
		{"minNotionalValue 필드", "ETHUSDT", 20, 0.001, 0.01},
		{"최소 주문 가치 없음 - 기본값", "XRPUSDT", domain.DefaultMinNotional, 0.1, 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := client.GetSymbolRules(ctx, tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, rules.Symbol)
			assert.Equal(t, tt.minNotional, rules.MinNotional)
			assert.Equal(t, tt.stepSize, rules.StepSize)
			assert.Equal(t, tt.tickSize, rules.TickSize)
			assert.False(t, rules.IsFallback)
		})
	}

	t.Run("없는 심볼", func(t *testing.T) {
		_, err := client.GetSymbolRules(ctx, "NOPEUSDT")
		require.Error(t, err)
		assert.ErrorIs(t, err, exchange.ErrSymbolNotFound)
	})

	t.Run("필수 필터 누락", func(t *testing.T) {
		_, err := client.GetSymbolRules(ctx, "BROKENUSDT")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "PRICE_FILTER")
	})
}

func TestMinNotionalOf_AliasPriority(t *testing.T) {
	v, ok := minNotionalOf(symbolFilter{Notional: "10", MinNotional: "7", MinNotionalValue: "3"})
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	v, ok = minNotionalOf(symbolFilter{Notional: "abc", MinNotional: "7"})
	require.True(t, ok)
	assert.Equal(t, 7.0, v)

	_, ok = minNotionalOf(symbolFilter{})
	assert.False(t, ok)
}

func TestClient_PlaceOrder_ReduceOnly(t *testing.T) {
	var got url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
		got = r.URL.Query()
		w.Write([]byte(`{"orderId": 42, "symbol": "BTCUSDT", "status": "NEW", "origQty": "0.02", "side": "SELL", "type": "MARKET", "reduceOnly": true}`))
	})

	resp, err := client.PlaceOrder(context.Background(), domain.NewMarketOrder("BTCUSDT", domain.Sell, 0.02, true, "cid-1"))
	require.NoError(t, err)

	assert.Equal(t, int64(42), resp.OrderID)
	assert.Equal(t, 0.02, resp.OrigQuantity)
	assert.Equal(t, "true", got.Get("reduceOnly"))
	assert.Equal(t, "0.02", got.Get("quantity"))
	assert.Equal(t, "MARKET", got.Get("type"))
	assert.Equal(t, "cid-1", got.Get("newClientOrderId"))
	assert.NotEmpty(t, got.Get("signature"))
	assert.Empty(t, got.Get("positionSide"))
}

func TestClient_PlaceOrder_HedgeModeUsesPositionSide(t *testing.T) {
	var got url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"orderId": 7}`))
	})

	order := domain.NewMarketOrder("ETHUSDT", domain.Buy, 1.5, true, "")
	order.PositionSide = domain.ShortPosition

	_, err := client.PlaceOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "SHORT", got.Get("positionSide"))
	assert.Empty(t, got.Get("reduceOnly"))
}

func TestClient_PlaceOrder_LimitAndStop(t *testing.T) {
	var got url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		w.Write([]byte(`{"orderId": 1}`))
	})
	ctx := context.Background()

	_, err := client.PlaceOrder(ctx, domain.NewLimitOrder("BTCUSDT", domain.Sell, 0.01, 51000.5, true, ""))
	require.NoError(t, err)
	assert.Equal(t, "LIMIT", got.Get("type"))
	assert.Equal(t, "GTC", got.Get("timeInForce"))
	assert.Equal(t, "51000.5", got.Get("price"))

	_, err = client.PlaceOrder(ctx, domain.NewStopOrder("BTCUSDT", domain.Sell, 0.01, 49000, true))
	require.NoError(t, err)
	assert.Equal(t, "STOP_MARKET", got.Get("type"))
	assert.Equal(t, "49000", got.Get("stopPrice"))
}

func TestClient_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": -2019, "msg": "Margin is insufficient."}`))
	})

	_, err := client.PlaceOrder(context.Background(), domain.NewMarketOrder("BTCUSDT", domain.Buy, 1, false, ""))
	require.Error(t, err)

	var apiErr *exchange.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, -2019, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	code, ok := exchange.ErrorCode(err)
	assert.True(t, ok)
	assert.Equal(t, -2019, code)
}

func TestClient_SetMarginType_NoChangeIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": -4046, "msg": "No need to change margin type."}`))
	})

	assert.NoError(t, client.SetMarginType(context.Background(), "BTCUSDT", domain.Isolated))
}

func TestClient_GetBalance(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"assets": [
			{"asset": "BNB", "walletBalance": "1", "marginBalance": "1", "availableBalance": "1"},
			{"asset": "USDT", "walletBalance": "100", "marginBalance": "98.5", "availableBalance": "120"}
		]}`))
	})

	snap, err := client.GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "USDT", snap.Asset)
	assert.Equal(t, 98.5, snap.TotalBalance)
	assert.Equal(t, 98.5, snap.AvailableBalance)
	assert.NoError(t, snap.Validate())
}

func TestClient_GetPositions(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`[
			{"symbol": "BTCUSDT", "positionAmt": "-0.020", "entryPrice": "50000", "markPrice": "49900", "unRealizedProfit": "2", "leverage": "10", "positionSide": "BOTH"},
			{"symbol": "BTCUSDT", "positionAmt": "0", "entryPrice": "0", "markPrice": "49900", "unRealizedProfit": "0", "leverage": "10", "positionSide": "BOTH"}
		]`))
	})

	positions, err := client.GetPositions(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, -0.02, positions[0].Amount)
	assert.Equal(t, 10, positions[0].Leverage)
	assert.Equal(t, domain.BothPosition, positions[0].PositionSide)
}

func TestClient_GetPrice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fapi/v1/ticker/price", r.URL.Path)
		w.Write([]byte(`{"symbol": "BTCUSDT", "price": "50123.4"}`))
	})

	price, err := client.GetPrice(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, 50123.4, price)
}
