// internal/exchange/binance/client.go
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange"
)

const (
	mainnetURL = "https://fapi.binance.com"
	testnetURL = "https://testnet.binancefuture.com"
)

// Client는 바이낸스 USDT-M 선물 API 클라이언트를 구현합니다
type Client struct {
	apiKey           string
	secretKey        string
	baseURL          string
	quoteAsset       string
	httpClient       *http.Client
	serverTimeOffset int64 // 서버 시간과의 차이를 저장
	mu               sync.RWMutex
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 HTTP 클라이언트의 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTestnet은 테스트넷 사용 여부를 설정합니다
func WithTestnet(useTestnet bool) ClientOption {
	return func(c *Client) {
		if useTestnet {
			c.baseURL = testnetURL
		} else {
			c.baseURL = mainnetURL
		}
	}
}

// WithQuoteAsset은 잔고 조회에 사용할 증거금 자산을 설정합니다 (기본값: USDT)
func WithQuoteAsset(asset string) ClientOption {
	return func(c *Client) {
		c.quoteAsset = strings.ToUpper(asset)
	}
}

// NewClient는 새로운 바이낸스 API 클라이언트를 생성합니다
func NewClient(apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    mainnetURL, // 기본값은 선물 거래소
		quoteAsset: "USDT",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ exchange.Exchange = (*Client)(nil)

// GetServerTime은 서버 시간을 조회합니다
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/time", nil, false)
	if err != nil {
		return time.Time{}, err
	}

	var result struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return time.Time{}, fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	return time.UnixMilli(result.ServerTime), nil
}

// doRequest는 HTTP 요청을 실행하고 결과를 반환합니다
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params url.Values, needSign bool) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}

	// URL 생성
	reqURL, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("URL 파싱 실패: %w", err)
	}

	// 타임스탬프 추가
	if needSign {
		params.Set("timestamp", strconv.FormatInt(c.getServerTime(), 10))
		params.Set("recvWindow", "5000")
	}

	reqURL.RawQuery = params.Encode()

	// 서명 추가
	if needSign {
		reqURL.RawQuery = reqURL.RawQuery + "&signature=" + c.sign(params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("요청 생성 실패: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if needSign {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API 요청 실패: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("응답 읽기 실패: %w", err)
	}

	// 상태 코드 확인
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"msg"`
		}
		if err := json.Unmarshal(body, &apiErr); err != nil {
			return nil, fmt.Errorf("HTTP 에러(%d): %s", resp.StatusCode, string(body))
		}
		return nil, &exchange.APIError{
			StatusCode: resp.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
		}
	}

	return body, nil
}

// sign은 요청에 대한 서명을 생성합니다
func (c *Client) sign(payload string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// getServerTime은 현재 서버 시간을 반환합니다
func (c *Client) getServerTime() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Now().UnixMilli() + c.serverTimeOffset
}

// GetPrice는 심볼의 최근 체결가를 조회합니다
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Add("symbol", symbol)

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/ticker/price", params, false)
	if err != nil {
		return 0, fmt.Errorf("가격 조회 실패: %w", err)
	}

	var ticker struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price,string"`
	}
	if err := json.Unmarshal(resp, &ticker); err != nil {
		return 0, fmt.Errorf("가격 데이터 파싱 실패: %w", err)
	}
	if ticker.Price <= 0 {
		return 0, fmt.Errorf("유효하지 않은 가격: %s %v", symbol, ticker.Price)
	}

	return ticker.Price, nil
}

// GetBalance는 증거금 자산의 잔고를 조회합니다
func (c *Client) GetBalance(ctx context.Context) (domain.BalanceSnapshot, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/account", nil, true)
	if err != nil {
		return domain.BalanceSnapshot{}, fmt.Errorf("잔고 조회 실패: %w", err)
	}

	var result struct {
		Assets []struct {
			Asset            string  `json:"asset"`
			WalletBalance    float64 `json:"walletBalance,string"`
			MarginBalance    float64 `json:"marginBalance,string"`
			AvailableBalance float64 `json:"availableBalance,string"`
		} `json:"assets"`
	}

	if err := json.Unmarshal(resp, &result); err != nil {
		return domain.BalanceSnapshot{}, fmt.Errorf("응답 파싱 실패: %w", err)
	}

	snapshot := domain.BalanceSnapshot{Asset: c.quoteAsset}
	for _, asset := range result.Assets {
		if asset.Asset != c.quoteAsset {
			continue
		}
		total := asset.MarginBalance
		if total <= 0 {
			total = asset.WalletBalance
		}
		// 미실현 손익 때문에 가용 잔고가 총 잔고를 넘는 경우가 있어 총 잔고로 제한
		snapshot.TotalBalance = max(total, 0)
		snapshot.AvailableBalance = min(max(asset.AvailableBalance, 0), snapshot.TotalBalance)
		break
	}

	return snapshot, nil
}

// GetPositions는 심볼의 열린 포지션을 조회합니다
func (c *Client) GetPositions(ctx context.Context, symbol string) ([]domain.Position, error) {
	params := url.Values{}
	if symbol != "" {
		params.Add("symbol", symbol)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v2/positionRisk", params, true)
	if err != nil {
		return nil, fmt.Errorf("포지션 조회 실패: %w", err)
	}

	var positionsRaw []struct {
		Symbol           string  `json:"symbol"`
		PositionAmt      float64 `json:"positionAmt,string"`
		EntryPrice       float64 `json:"entryPrice,string"`
		MarkPrice        float64 `json:"markPrice,string"`
		UnrealizedProfit float64 `json:"unRealizedProfit,string"`
		Leverage         float64 `json:"leverage,string"`
		PositionSide     string  `json:"positionSide"`
	}

	if err := json.Unmarshal(resp, &positionsRaw); err != nil {
		return nil, fmt.Errorf("포지션 데이터 파싱 실패: %w", err)
	}

	// 활성 포지션만 필터링 (수량이 0이 아닌 포지션)
	var positions []domain.Position
	for _, p := range positionsRaw {
		if p.PositionAmt == 0 || (symbol != "" && p.Symbol != symbol) {
			continue
		}
		positions = append(positions, domain.Position{
			Symbol:        p.Symbol,
			PositionSide:  domain.PositionSide(p.PositionSide),
			Amount:        p.PositionAmt,
			EntryPrice:    p.EntryPrice,
			MarkPrice:     p.MarkPrice,
			Leverage:      int(p.Leverage),
			UnrealizedPnL: p.UnrealizedProfit,
		})
	}

	return positions, nil
}

// GetOpenOrders는 현재 열린 주문 목록을 조회합니다
func (c *Client) GetOpenOrders(ctx context.Context, symbol string) ([]domain.OrderResponse, error) {
	params := url.Values{}
	if symbol != "" {
		params.Add("symbol", symbol)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/fapi/v1/openOrders", params, true)
	if err != nil {
		return nil, fmt.Errorf("열린 주문 조회 실패: %w", err)
	}

	var ordersRaw []orderPayload
	if err := json.Unmarshal(resp, &ordersRaw); err != nil {
		return nil, fmt.Errorf("주문 데이터 파싱 실패: %w", err)
	}

	orders := make([]domain.OrderResponse, len(ordersRaw))
	for i, o := range ordersRaw {
		orders[i] = o.toDomain()
	}

	return orders, nil
}

// PlaceOrder는 새로운 주문을 생성합니다
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	params := url.Values{}
	params.Add("symbol", order.Symbol)
	params.Add("side", string(order.Side))
	params.Add("type", string(order.Type))
	params.Add("quantity", formatDecimal(order.Quantity))

	// 헤지 모드에서는 reduceOnly 대신 positionSide로 청산 방향을 지정해야 합니다
	if order.PositionSide.IsHedge() {
		params.Add("positionSide", string(order.PositionSide))
	} else if order.ReduceOnly {
		params.Add("reduceOnly", "true")
	}

	switch order.Type {
	case domain.Market:
	case domain.Limit:
		tif := order.TimeInForce
		if tif == "" {
			tif = domain.GTC
		}
		params.Add("timeInForce", string(tif))
		params.Add("price", formatDecimal(order.Price))
	case domain.StopMarket, domain.TakeProfitMarket:
		params.Add("stopPrice", formatDecimal(order.StopPrice))
	default:
		return nil, fmt.Errorf("지원하지 않는 주문 유형: %s", order.Type)
	}

	// 클라이언트 주문 ID가 설정되었으면 추가
	if order.ClientOrderID != "" {
		params.Add("newClientOrderId", order.ClientOrderID)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/order", params, true)
	if err != nil {
		return nil, fmt.Errorf("주문 실행 실패 [심볼: %s, 타입: %s, 수량: %.8f]: %w",
			order.Symbol, order.Type, order.Quantity, err)
	}

	var result orderPayload
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}

	response := result.toDomain()
	return &response, nil
}

// CancelOrder는 주문을 취소합니다
func (c *Client) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("orderId", strconv.FormatInt(orderID, 10))

	_, err := c.doRequest(ctx, http.MethodDelete, "/fapi/v1/order", params, true)
	if err != nil {
		return fmt.Errorf("주문 취소 실패: %w", err)
	}

	return nil
}

// SetLeverage는 레버리지를 설정합니다
func (c *Client) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("leverage", strconv.Itoa(leverage))

	_, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/leverage", params, true)
	if err != nil {
		return fmt.Errorf("레버리지 설정 실패: %w", err)
	}

	return nil
}

// SetMarginType은 심볼의 마진 모드를 설정합니다
func (c *Client) SetMarginType(ctx context.Context, symbol string, marginType domain.MarginType) error {
	params := url.Values{}
	params.Add("symbol", symbol)
	params.Add("marginType", string(marginType))

	_, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/marginType", params, true)
	if err != nil {
		// 이미 원하는 모드로 설정된 경우, 에러가 아님
		if code, ok := exchange.ErrorCode(err); ok && code == domain.ErrMarginTypeNoChange {
			return nil
		}
		return fmt.Errorf("마진 타입 설정 실패: %w", err)
	}

	return nil
}

// SetPositionMode는 포지션 모드를 설정합니다
func (c *Client) SetPositionMode(ctx context.Context, hedgeMode bool) error {
	params := url.Values{}
	params.Add("dualSidePosition", strconv.FormatBool(hedgeMode))

	_, err := c.doRequest(ctx, http.MethodPost, "/fapi/v1/positionSide/dual", params, true)
	if err != nil {
		if code, ok := exchange.ErrorCode(err); ok && code == domain.ErrPositionModeNoChange {
			return nil
		}
		return fmt.Errorf("포지션 모드 설정 실패: %w", err)
	}

	return nil
}

// SyncTime은 바이낸스 서버와 시간을 동기화합니다
func (c *Client) SyncTime(ctx context.Context) error {
	serverTime, err := c.GetServerTime(ctx)
	if err != nil {
		return fmt.Errorf("서버 시간 조회 실패: %w", err)
	}

	c.mu.Lock()
	c.serverTimeOffset = serverTime.UnixMilli() - time.Now().UnixMilli()
	c.mu.Unlock()

	return nil
}

// orderPayload는 주문 조회/생성 응답의 공통 형식입니다
type orderPayload struct {
	OrderID       int64  `json:"orderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	ClientOrderID string `json:"clientOrderId"`
	Price         string `json:"price"`
	AvgPrice      string `json:"avgPrice"`
	StopPrice     string `json:"stopPrice"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Side          string `json:"side"`
	PositionSide  string `json:"positionSide"`
	Type          string `json:"type"`
	ReduceOnly    bool   `json:"reduceOnly"`
	UpdateTime    int64  `json:"updateTime"`
	Time          int64  `json:"time"`
}

func (o orderPayload) toDomain() domain.OrderResponse {
	created := o.Time
	if created == 0 {
		created = o.UpdateTime
	}
	return domain.OrderResponse{
		OrderID:          o.OrderID,
		Symbol:           o.Symbol,
		Status:           o.Status,
		ClientOrderID:    o.ClientOrderID,
		Price:            parseFloat(o.Price),
		AvgPrice:         parseFloat(o.AvgPrice),
		StopPrice:        parseFloat(o.StopPrice),
		OrigQuantity:     parseFloat(o.OrigQty),
		ExecutedQuantity: parseFloat(o.ExecutedQty),
		Side:             domain.OrderSide(o.Side),
		PositionSide:     domain.PositionSide(o.PositionSide),
		Type:             domain.OrderType(o.Type),
		ReduceOnly:       o.ReduceOnly,
		CreateTime:       time.UnixMilli(created),
	}
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
