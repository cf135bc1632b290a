package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/trading"
)

// maxBodyBytes는 웹훅 본문 최대 크기입니다
const maxBodyBytes = 1 << 20

// 거래 목록 조회 기본값
const (
	defaultTradeLimit = 50
	maxTradeLimit     = 1000
)

// Executor는 핸들러가 호출하는 거래 실행기입니다
type Executor interface {
	ExecuteSignal(ctx context.Context, sig domain.Signal) (*trading.ExecutionResult, error)
	ExecuteScalp(ctx context.Context, sig domain.Signal, tags trading.ScalpTags) (*trading.ExecutionResult, error)
	CloseSymbol(ctx context.Context, symbol string) (*trading.CloseResult, error)
}

// TradeLister는 최근 거래 기록을 제공합니다
type TradeLister interface {
	Recent(limit int) []domain.TradeRecord
}

// Handler는 웹훅과 조회 엔드포인트를 제공합니다
type Handler struct {
	executor Executor
	trades   TradeLister
	metrics  http.Handler
	logger   *zap.Logger
	now      func() time.Time
}

// HandlerOption은 핸들러 생성 옵션을 정의합니다
type HandlerOption func(*Handler)

// WithMetricsHandler는 /metrics 엔드포인트 핸들러를 설정합니다
func WithMetricsHandler(metrics http.Handler) HandlerOption {
	return func(h *Handler) { h.metrics = metrics }
}

// WithHandlerLogger는 로거를 설정합니다
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler는 새로운 핸들러를 생성합니다
func NewHandler(executor Executor, trades TradeLister, opts ...HandlerOption) *Handler {
	h := &Handler{
		executor: executor,
		trades:   trades,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes는 모든 경로를 등록한 http.Handler를 반환합니다
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook", h.Signal)
	mux.HandleFunc("POST /webhook/scalp", h.Scalp)
	mux.HandleFunc("POST /positions/{symbol}/close", h.ClosePosition)
	mux.HandleFunc("GET /trades", h.ListTrades)
	mux.HandleFunc("GET /health", h.Health)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	return requestLogging(h.logger)(mux)
}

// errorResponse는 실패 응답 본문입니다
type errorResponse struct {
	Success           bool          `json:"success"`
	Error             string        `json:"error"`
	Kind              string        `json:"kind"`
	Symbol            string        `json:"symbol,omitempty"`
	Action            domain.Action `json:"action,omitempty"`
	State             trading.State `json:"state,omitempty"`
	Hint              string        `json:"hint,omitempty"`
	SuggestedFraction *float64      `json:"suggested_fraction,omitempty"`
}

type executionResponse struct {
	Success bool                     `json:"success"`
	Result  *trading.ExecutionResult `json:"result"`
}

type closeResponse struct {
	Success bool `json:"success"`
	*trading.CloseResult
}

type tradesResponse struct {
	Trades []domain.TradeRecord `json:"trades"`
	Count  int                  `json:"count"`
}

// Signal은 표준 웹훅 시그널을 실행합니다
// POST /webhook
func (h *Handler) Signal(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Signal.Source == "" {
		req.Signal.Source = "webhook"
	}

	result, err := h.executor.ExecuteSignal(r.Context(), req.Signal)
	if err != nil {
		h.writeFailure(w, req.Signal, err)
		return
	}
	writeJSON(w, http.StatusOK, executionResponse{Success: true, Result: result})
}

// Scalp은 스캘핑 태그를 반영해 시그널을 실행합니다
// POST /webhook/scalp
func (h *Handler) Scalp(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.executor.ExecuteScalp(r.Context(), req.Signal, req.Tags)
	if err != nil {
		h.writeFailure(w, req.Signal, err)
		return
	}
	writeJSON(w, http.StatusOK, executionResponse{Success: true, Result: result})
}

// ClosePosition은 심볼의 모든 포지션을 청산합니다
// POST /positions/{symbol}/close
func (h *Handler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(r.PathValue("symbol"))
	if symbol == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "심볼이 필요합니다", Kind: "validation", Action: domain.ActionClose})
		return
	}

	result, err := h.executor.CloseSymbol(r.Context(), symbol)
	if err != nil {
		h.writeFailure(w, domain.Signal{Symbol: symbol, Action: domain.ActionClose}, err)
		return
	}
	writeJSON(w, http.StatusOK, closeResponse{Success: true, CloseResult: result})
}

// ListTrades는 최근 거래 기록을 반환합니다
// GET /trades?limit=50
func (h *Handler) ListTrades(w http.ResponseWriter, r *http.Request) {
	limit := defaultTradeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit은 양의 정수여야 합니다", Kind: "validation"})
			return
		}
		limit = min(n, maxTradeLimit)
	}

	trades := h.trades.Recent(limit)
	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	writeJSON(w, http.StatusOK, tradesResponse{Trades: trades, Count: len(trades)})
}

// Health는 서버 상태를 반환합니다
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*SignalRequest, bool) {
	req, err := DecodeSignal(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("웹훅 페이로드 해석 실패", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "validation"})
		return nil, false
	}
	return req, true
}

// writeFailure는 실행 실패를 진단 정보와 함께 응답합니다
func (h *Handler) writeFailure(w http.ResponseWriter, sig domain.Signal, err error) {
	resp := errorResponse{
		Error:  err.Error(),
		Kind:   trading.ErrorKind(err),
		Symbol: sig.Symbol,
		Action: sig.Action,
	}

	var execErr *trading.ExecutionError
	if errors.As(err, &execErr) {
		resp.Symbol = execErr.Symbol
		resp.Action = execErr.Action
		resp.State = execErr.State
		resp.Hint = execErr.Hint()
		if fraction, ok := execErr.SuggestedFraction(); ok {
			resp.SuggestedFraction = &fraction
		}
	}

	writeJSON(w, statusForKind(resp.Kind), resp)
}

func statusForKind(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "symbol_not_found":
		return http.StatusNotFound
	case "lock_held":
		return http.StatusConflict
	case "insufficient_balance":
		return http.StatusUnprocessableEntity
	case "order_rejected", "transition":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON은 v를 JSON으로 직렬화해 응답합니다
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
