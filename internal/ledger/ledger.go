// Package ledger는 실행된 거래와 청산 기록을 보관합니다
package ledger

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/assist-by/hookbridge/internal/domain"
)

// DefaultCapacity는 메모리에 유지하는 기본 기록 수입니다
const DefaultCapacity = 100

// Sink는 기록을 외부 저장소로 내보냅니다
type Sink interface {
	Save(ctx context.Context, record domain.TradeRecord) error
}

// Ledger는 고정 크기 링 버퍼 거래 원장입니다
// 용량을 넘으면 가장 오래된 기록부터 덮어씁니다 (기록을 수정하거나 삭제하지 않음)
type Ledger struct {
	mu      sync.RWMutex
	records []domain.TradeRecord
	next    int
	full    bool
	total   int

	sink   Sink
	logger *zap.Logger
}

// Option은 Ledger 생성 옵션을 정의합니다
type Option func(*Ledger)

// WithSink는 외부 저장소를 설정합니다
func WithSink(sink Sink) Option {
	return func(l *Ledger) {
		l.sink = sink
	}
}

// WithLogger는 로거를 설정합니다
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// New는 capacity 크기의 원장을 생성합니다 (0 이하이면 DefaultCapacity)
func New(capacity int, opts ...Option) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	l := &Ledger{
		records: make([]domain.TradeRecord, capacity),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append는 기록을 추가합니다
// 외부 저장소 실패는 로그만 남기고 메모리 기록은 유지합니다
func (l *Ledger) Append(ctx context.Context, record domain.TradeRecord) {
	l.mu.Lock()
	l.records[l.next] = record
	l.next = (l.next + 1) % len(l.records)
	if l.next == 0 {
		l.full = true
	}
	l.total++
	l.mu.Unlock()

	if l.sink != nil {
		if err := l.sink.Save(ctx, record); err != nil {
			l.logger.Warn("거래 기록 저장 실패",
				zap.String("id", record.ID),
				zap.String("symbol", record.Symbol),
				zap.Error(err))
		}
	}
}

// Recent는 최신 기록부터 최대 limit개를 반환합니다 (0 이하이면 전체)
func (l *Ledger) Recent(limit int) []domain.TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := l.lenLocked()
	if limit <= 0 || limit > size {
		limit = size
	}

	result := make([]domain.TradeRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (l.next - i + len(l.records)) % len(l.records)
		result = append(result, l.records[idx])
	}
	return result
}

// Len은 보관 중인 기록 수를 반환합니다
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lenLocked()
}

// Total은 지금까지 추가된 전체 기록 수를 반환합니다
func (l *Ledger) Total() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

// Capacity는 원장 용량을 반환합니다
func (l *Ledger) Capacity() int {
	return len(l.records)
}

func (l *Ledger) lenLocked() int {
	if l.full {
		return len(l.records)
	}
	return l.next
}
