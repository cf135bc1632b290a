package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc는 함수를 Task로 사용할 수 있게 합니다
type TaskFunc func(ctx context.Context) error

// Execute는 함수를 호출합니다
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Scheduler는 정해진 주기마다 작업을 실행하는 스케줄러입니다
type Scheduler struct {
	name     string
	interval time.Duration
	task     Task
	logger   *zap.Logger
	stopCh   chan struct{}
}

// Option은 스케줄러 생성 옵션을 정의합니다
type Option func(*Scheduler)

// WithLogger는 로거를 설정합니다
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(name string, interval time.Duration, task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		name:     name,
		interval: interval,
		task:     task,
		logger:   zap.NewNop(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start는 스케줄러를 시작합니다
// 실행 시각은 interval 경계에 맞춰지며, 작업이 실패해도 다음 주기에 다시 실행합니다
func (s *Scheduler) Start(ctx context.Context) error {
	timer := time.NewTimer(s.untilNextRun())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			// 작업 실행
			if err := s.task.Execute(ctx); err != nil {
				s.logger.Warn("작업 실행 실패", zap.String("task", s.name), zap.Error(err))
			}

			// 타이머 리셋
			timer.Reset(s.untilNextRun())
		}
	}
}

// untilNextRun은 다음 실행까지 남은 시간을 계산합니다
func (s *Scheduler) untilNextRun() time.Duration {
	now := time.Now()
	nextRun := now.Truncate(s.interval).Add(s.interval)
	wait := nextRun.Sub(now)

	s.logger.Debug("다음 실행 대기",
		zap.String("task", s.name),
		zap.Duration("wait", wait.Round(time.Millisecond)),
		zap.Time("next_run", nextRun))
	return wait
}

// Stop은 스케줄러를 중지합니다
func (s *Scheduler) Stop() {
	close(s.stopCh)
}
