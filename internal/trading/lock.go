package trading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrLockHeld는 다른 요청이 같은 심볼의 전환을 진행 중일 때 반환됩니다
var ErrLockHeld = errors.New("같은 심볼의 다른 거래가 진행 중입니다")

// 잠금 전략 이름
const (
	LockNone  = "none"
	LockLocal = "local"
	LockRedis = "redis"
)

// SymbolLocker는 심볼 단위 권고 잠금입니다
// Lock이 성공하면 반드시 반환된 unlock을 호출해야 합니다
type SymbolLocker interface {
	Lock(ctx context.Context, symbol string) (func(), error)
}

// NoopLocker는 잠금을 하지 않습니다 (요청 간 조정 없음)
type NoopLocker struct{}

// Lock은 즉시 성공합니다
func (NoopLocker) Lock(ctx context.Context, symbol string) (func(), error) {
	return func() {}, nil
}

// LocalLocker는 프로세스 내 심볼별 잠금입니다
// 컨텍스트가 끝날 때까지 대기합니다
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker는 새로운 LocalLocker를 생성합니다
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(symbol string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[symbol]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[symbol] = ch
	}
	return ch
}

// Lock은 심볼 잠금을 획득합니다
func (l *LocalLocker) Lock(ctx context.Context, symbol string) (func(), error) {
	ch := l.slot(symbol)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrLockHeld, symbol, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}

// unlockScript는 토큰이 일치할 때만 키를 삭제합니다
const unlockScript = `
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`

// RedisLocker는 여러 인스턴스 간 심볼 잠금입니다 (SETNX + TTL)
type RedisLocker struct {
	rdb      redis.UniversalClient
	unlockSc *redis.Script
	ttl      time.Duration
	retry    time.Duration
	prefix   string
	logger   *zap.Logger
}

// RedisLockerOption은 RedisLocker 생성 옵션을 정의합니다
type RedisLockerOption func(*RedisLocker)

// WithLockLogger는 잠금 해제 실패를 기록할 로거를 설정합니다
func WithLockLogger(logger *zap.Logger) RedisLockerOption {
	return func(l *RedisLocker) { l.logger = logger }
}

// NewRedisLocker는 새로운 RedisLocker를 생성합니다
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration, opts ...RedisLockerOption) *RedisLocker {
	if ttl <= 0 {
		ttl = time.Minute
	}
	l := &RedisLocker{
		rdb:      rdb,
		unlockSc: redis.NewScript(unlockScript),
		ttl:      ttl,
		retry:    100 * time.Millisecond,
		prefix:   "hookbridge:lock:",
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock은 잠금을 얻을 때까지 재시도하며, 컨텍스트가 끝나면 ErrLockHeld를 반환합니다
func (l *RedisLocker) Lock(ctx context.Context, symbol string) (func(), error) {
	token := uuid.NewString()
	key := l.prefix + strings.ToUpper(symbol)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrLockHeld, symbol, ctx.Err())
			}
			return nil, fmt.Errorf("redis 잠금 실패 (%s): %w", symbol, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrLockHeld, symbol, ctx.Err())
		case <-time.After(l.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 호출자 컨텍스트가 취소되어도 해제되도록 별도 컨텍스트 사용
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := l.unlockSc.Run(unlockCtx, l.rdb, []string{key}, token).Err(); err != nil {
				// 해제하지 못한 잠금은 TTL이 지나면 만료됩니다
				l.logger.Warn("redis 잠금 해제 실패",
					zap.String("symbol", symbol),
					zap.String("key", key),
					zap.Duration("ttl", l.ttl),
					zap.Error(err))
			}
		})
	}, nil
}

var (
	_ SymbolLocker = NoopLocker{}
	_ SymbolLocker = (*LocalLocker)(nil)
	_ SymbolLocker = (*RedisLocker)(nil)
)
