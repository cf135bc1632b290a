package position

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange"
)

// RulesSource는 심볼 거래 규칙을 제공하는 거래소 기능입니다
type RulesSource interface {
	GetSymbolRules(ctx context.Context, symbol string) (*domain.SymbolRules, error)
}

// RulesResolver는 심볼 거래 규칙을 조회하고 짧은 TTL로 캐시합니다
// 거래소 조회가 실패하면 정적 대체 테이블을 사용합니다
type RulesResolver struct {
	source   RulesSource
	fallback FallbackTable
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]cachedRules
}

type cachedRules struct {
	rules     domain.SymbolRules
	expiresAt time.Time
}

// ResolverOption은 RulesResolver 생성 옵션을 정의합니다
type ResolverOption func(*RulesResolver)

// WithCacheTTL은 캐시 유지 시간을 설정합니다 (0이면 캐시하지 않음)
func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *RulesResolver) {
		r.ttl = ttl
	}
}

// WithFallbackTable은 대체 테이블을 설정합니다
func WithFallbackTable(table FallbackTable) ResolverOption {
	return func(r *RulesResolver) {
		r.fallback = table
	}
}

// WithResolverLogger는 로거를 설정합니다
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *RulesResolver) {
		r.logger = logger
	}
}

// NewRulesResolver는 새로운 RulesResolver를 생성합니다
func NewRulesResolver(source RulesSource, opts ...ResolverOption) *RulesResolver {
	r := &RulesResolver{
		source:   source,
		fallback: DefaultFallbackTable(),
		logger:   zap.NewNop(),
		now:      time.Now,
		cache:    make(map[string]cachedRules),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve는 심볼의 거래 규칙을 반환합니다
func (r *RulesResolver) Resolve(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	if rules, ok := r.cached(symbol); ok {
		return rules, nil
	}

	v, err, _ := r.group.Do(symbol, func() (interface{}, error) {
		return r.resolve(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}

	rules := *v.(*domain.SymbolRules)
	return &rules, nil
}

func (r *RulesResolver) resolve(ctx context.Context, symbol string) (*domain.SymbolRules, error) {
	rules, err := r.source.GetSymbolRules(ctx, symbol)
	if err == nil {
		err = rules.Validate()
	}
	if err == nil {
		r.store(symbol, *rules)
		return rules, nil
	}

	// 조회 실패 시 정적 테이블 확인
	if fb, ok := r.fallback.Lookup(symbol); ok {
		r.logger.Warn("거래 규칙 조회 실패, 대체 테이블 사용",
			zap.String("symbol", symbol), zap.Error(err))
		return fb, nil
	}

	if errors.Is(err, exchange.ErrSymbolNotFound) {
		return nil, NewPositionError(symbol, "resolve_rules", ErrSymbolNotFound)
	}
	return nil, NewPositionError(symbol, "resolve_rules", errors.Join(ErrSymbolNotFound, err))
}

func (r *RulesResolver) cached(symbol string) (*domain.SymbolRules, bool) {
	if r.ttl <= 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[symbol]
	if !ok || !r.now().Before(entry.expiresAt) {
		return nil, false
	}
	rules := entry.rules
	return &rules, true
}

func (r *RulesResolver) store(symbol string, rules domain.SymbolRules) {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[symbol] = cachedRules{rules: rules, expiresAt: r.now().Add(r.ttl)}
}

// Purge는 만료된 캐시 항목을 제거합니다
func (r *RulesResolver) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for symbol, entry := range r.cache {
		if !now.Before(entry.expiresAt) {
			delete(r.cache, symbol)
			removed++
		}
	}
	return removed
}
