package main

import (
	"context"
	"fmt"
	"log"
	osSignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/assist-by/hookbridge/internal/config"
	eBinance "github.com/assist-by/hookbridge/internal/exchange/binance"
	"github.com/assist-by/hookbridge/internal/ledger"
	"github.com/assist-by/hookbridge/internal/ledger/sqlite"
	"github.com/assist-by/hookbridge/internal/logger"
	"github.com/assist-by/hookbridge/internal/metrics"
	"github.com/assist-by/hookbridge/internal/notification"
	"github.com/assist-by/hookbridge/internal/notification/discord"
	"github.com/assist-by/hookbridge/internal/position"
	"github.com/assist-by/hookbridge/internal/scheduler"
	"github.com/assist-by/hookbridge/internal/trading"
	"github.com/assist-by/hookbridge/internal/webhook"
)

// shutdownTimeout은 종료 시 진행 중인 요청을 기다리는 최대 시간입니다
const shutdownTimeout = 30 * time.Second

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if err := run(); err != nil {
		log.Fatalf("웹훅 브리지 실행 실패: %v", err)
	}
}

func run() error {
	// 컨텍스트 생성 (SIGINT/SIGTERM 수신 시 취소)
	ctx, stop := osSignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("설정 로드 실패: %w", err)
	}

	// 로거 생성
	zlog, err := logger.New(cfg.App.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("웹훅 브리지 시작",
		zap.Bool("testnet", cfg.Binance.UseTestnet),
		zap.String("lock_strategy", cfg.Trading.LockStrategy),
		zap.Bool("hedge_mode", cfg.Trading.HedgeMode))

	// Discord 클라이언트 생성
	discordClient := discord.NewClient(
		cfg.Discord.TradeWebhook,
		cfg.Discord.ErrorWebhook,
		cfg.Discord.InfoWebhook,
		discord.WithTimeout(10*time.Second),
	)
	var notifier notification.Notifier
	if discordClient.Enabled() {
		notifier = discordClient
	}
	sendInfo := func(message string) {
		if notifier == nil {
			return
		}
		if err := notifier.SendInfo(message); err != nil {
			zlog.Warn("알림 전송 실패", zap.Error(err))
		}
	}

	// 바이낸스 클라이언트 생성
	binanceClient := eBinance.NewClient(
		cfg.Binance.APIKey,
		cfg.Binance.SecretKey,
		eBinance.WithTimeout(cfg.Binance.Timeout),
		eBinance.WithTestnet(cfg.Binance.UseTestnet),
	)

	// 바이낸스 서버와 시간 동기화
	if err := binanceClient.SyncTime(ctx); err != nil {
		return fmt.Errorf("바이낸스 서버 시간 동기화 실패: %w", err)
	}

	// 헤지 모드 설정
	if cfg.Trading.HedgeMode {
		if err := binanceClient.SetPositionMode(ctx, true); err != nil {
			zlog.Warn("포지션 모드 설정 실패", zap.Error(err))
		}
	}

	// 거래 규칙 해석기 생성
	fallback, err := position.LoadFallbackTable(cfg.Trading.FallbackRulesFile)
	if err != nil {
		return fmt.Errorf("대체 거래 규칙 로드 실패: %w", err)
	}
	resolver := position.NewRulesResolver(binanceClient,
		position.WithCacheTTL(cfg.Trading.RulesCacheTTL),
		position.WithFallbackTable(fallback),
		position.WithResolverLogger(zlog.Named("rules")),
	)

	// 거래 원장 생성
	ledgerOpts := []ledger.Option{ledger.WithLogger(zlog.Named("ledger"))}
	if cfg.Ledger.SQLitePath != "" {
		store, err := sqlite.Open(cfg.Ledger.SQLitePath)
		if err != nil {
			return fmt.Errorf("거래 기록 저장소 열기 실패: %w", err)
		}
		defer store.Close()
		ledgerOpts = append(ledgerOpts, ledger.WithSink(store))
	}
	tradeLedger := ledger.New(cfg.Ledger.Capacity, ledgerOpts...)

	// 심볼 잠금 전략 선택
	locker, closeLocker, err := newLocker(ctx, cfg, zlog)
	if err != nil {
		return err
	}
	defer closeLocker()

	// 실행기 생성
	m := metrics.New()
	executorOpts := []trading.ExecutorOption{
		trading.WithLedger(tradeLedger),
		trading.WithMetrics(m),
		trading.WithLocker(locker),
		trading.WithLogger(zlog.Named("executor")),
	}
	if notifier != nil {
		executorOpts = append(executorOpts, trading.WithNotifier(notifier))
	}
	executor := trading.NewExecutor(
		binanceClient,
		position.NewSizer(binanceClient, resolver),
		position.NewTransitioner(binanceClient, position.WithTransitionLogger(zlog.Named("transition"))),
		trading.Config{
			DefaultLeverage:      cfg.Trading.Leverage,
			MarginType:           cfg.MarginType(),
			CallTimeout:          cfg.Trading.CallTimeout,
			HedgeMode:            cfg.Trading.HedgeMode,
			DefaultStopPercent:   cfg.Trading.DefaultSLPercent,
			DefaultTargetPercent: cfg.Trading.DefaultTPPercent,
			Scalp: trading.ScalpLimits{
				FractionCap: cfg.Trading.ScalpFractionCap,
				LeverageCap: cfg.Trading.ScalpLeverageCap,
			},
		},
		executorOpts...,
	)

	// 시간 동기화 및 캐시 정리 작업
	syncScheduler := scheduler.NewScheduler("sync_time", cfg.App.SyncInterval,
		scheduler.TaskFunc(binanceClient.SyncTime), scheduler.WithLogger(zlog))
	purgeScheduler := scheduler.NewScheduler("purge_rules", time.Minute,
		scheduler.TaskFunc(func(ctx context.Context) error {
			if n := resolver.Purge(); n > 0 {
				zlog.Debug("만료된 거래 규칙 정리", zap.Int("count", n))
			}
			return nil
		}), scheduler.WithLogger(zlog))
	go func() { _ = syncScheduler.Start(ctx) }()
	go func() { _ = purgeScheduler.Start(ctx) }()

	// HTTP 서버 시작
	handler := webhook.NewHandler(executor, tradeLedger,
		webhook.WithMetricsHandler(m.Handler()),
		webhook.WithHandlerLogger(zlog.Named("http")),
	)
	server := webhook.NewServer(cfg.App.ServerAddr, handler.Routes(), zlog)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sendInfo(fmt.Sprintf("🚀 웹훅 브리지가 시작되었습니다 (%s)", networkName(cfg.Binance.UseTestnet)))

	// 시그널 대기
	select {
	case <-ctx.Done():
		zlog.Info("시스템 종료 신호 수신")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	// 스케줄러 중지
	syncScheduler.Stop()
	purgeScheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("서버 종료 실패", zap.Error(err))
	}

	sendInfo("👋 웹훅 브리지가 정상적으로 종료되었습니다.")
	zlog.Info("프로그램을 종료합니다.")
	return nil
}

// newLocker는 설정된 잠금 전략에 맞는 SymbolLocker를 생성합니다
func newLocker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (trading.SymbolLocker, func(), error) {
	switch strings.ToLower(cfg.Trading.LockStrategy) {
	case trading.LockLocal:
		return trading.NewLocalLocker(), func() {}, nil
	case trading.LockRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis 연결 실패 (%s): %w", cfg.Redis.Addr, err)
		}
		return trading.NewRedisLocker(rdb, cfg.Trading.LockTTL, trading.WithLockLogger(logger)), func() { _ = rdb.Close() }, nil
	default:
		return trading.NoopLocker{}, func() {}, nil
	}
}

func networkName(testnet bool) string {
	if testnet {
		return "테스트넷"
	}
	return "메인넷"
}
