package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/assist-by/hookbridge/internal/domain"
)

type Config struct {
	// 바이낸스 API 설정
	Binance struct {
		APIKey     string        `envconfig:"BINANCE_API_KEY" required:"true"`
		SecretKey  string        `envconfig:"BINANCE_SECRET_KEY" required:"true"`
		UseTestnet bool          `envconfig:"BINANCE_USE_TESTNET" default:"true"`
		Timeout    time.Duration `envconfig:"BINANCE_TIMEOUT" default:"15s"`
	}

	// 거래 설정
	Trading struct {
		Leverage          int           `envconfig:"TRADING_LEVERAGE" default:"10"`
		MarginType        string        `envconfig:"TRADING_MARGIN_TYPE" default:"ISOLATED"`
		CallTimeout       time.Duration `envconfig:"TRADING_CALL_TIMEOUT" default:"20s"`
		RulesCacheTTL     time.Duration `envconfig:"TRADING_RULES_CACHE_TTL" default:"30s"`
		FallbackRulesFile string        `envconfig:"TRADING_FALLBACK_RULES_FILE"`
		LockStrategy      string        `envconfig:"TRADING_LOCK_STRATEGY" default:"none"`
		LockTTL           time.Duration `envconfig:"TRADING_LOCK_TTL" default:"120s"`
		ScalpFractionCap  float64       `envconfig:"TRADING_SCALP_FRACTION_CAP" default:"0.5"`
		ScalpLeverageCap  int           `envconfig:"TRADING_SCALP_LEVERAGE_CAP" default:"10"`
		HedgeMode         bool          `envconfig:"TRADING_HEDGE_MODE" default:"false"`
		DefaultSLPercent  float64       `envconfig:"TRADING_DEFAULT_SL_PERCENT" default:"1"`
		DefaultTPPercent  float64       `envconfig:"TRADING_DEFAULT_TP_PERCENT" default:"2"`
	}

	// 거래 원장 설정
	Ledger struct {
		Capacity   int    `envconfig:"LEDGER_CAPACITY" default:"100"`
		SQLitePath string `envconfig:"LEDGER_SQLITE_PATH"`
	}

	// redis 설정 (redis 잠금 전략에서만 사용)
	Redis struct {
		Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	// 디스코드 웹훅 설정 (비어 있으면 알림 비활성화)
	Discord struct {
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
		InfoWebhook  string `envconfig:"DISCORD_INFO_WEBHOOK"`
	}

	// 애플리케이션 설정
	App struct {
		ServerAddr   string        `envconfig:"SERVER_ADDR" default:":5000"`
		LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
		SyncInterval time.Duration `envconfig:"SYNC_INTERVAL" default:"30m"`
	}
}

// MarginType은 설정된 마진 타입을 도메인 값으로 반환합니다
func (c *Config) MarginType() domain.MarginType {
	mt, err := domain.ParseMarginType(c.Trading.MarginType)
	if err != nil {
		return domain.Isolated
	}
	return mt
}

// lockTTLSteps는 잠금 하나가 감싸는 최대 거래소 호출 단계 수입니다
const lockTTLSteps = 5

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	// 빈 API 키는 거부합니다
	if strings.TrimSpace(cfg.Binance.APIKey) == "" || strings.TrimSpace(cfg.Binance.SecretKey) == "" {
		return fmt.Errorf("BINANCE_API_KEY와 BINANCE_SECRET_KEY는 비어 있을 수 없습니다")
	}

	if cfg.Trading.Leverage < 1 || cfg.Trading.Leverage > domain.MaxLeverage {
		return fmt.Errorf("레버리지는 1 이상 %d 이하이어야 합니다", domain.MaxLeverage)
	}

	if _, err := domain.ParseMarginType(cfg.Trading.MarginType); err != nil {
		return fmt.Errorf("TRADING_MARGIN_TYPE: %w", err)
	}

	switch strings.ToLower(cfg.Trading.LockStrategy) {
	case "none", "local", "redis":
	default:
		return fmt.Errorf("TRADING_LOCK_STRATEGY는 none, local, redis 중 하나여야 합니다: %q", cfg.Trading.LockStrategy)
	}

	if cfg.Trading.CallTimeout < 0 || cfg.Trading.RulesCacheTTL < 0 {
		return fmt.Errorf("타임아웃과 캐시 TTL은 음수일 수 없습니다")
	}

	if strings.EqualFold(cfg.Trading.LockStrategy, "redis") && cfg.Trading.CallTimeout > 0 &&
		cfg.Trading.LockTTL < lockTTLSteps*cfg.Trading.CallTimeout {
		return fmt.Errorf("TRADING_LOCK_TTL(%s)은 TRADING_CALL_TIMEOUT의 %d배(%s) 이상이어야 합니다",
			cfg.Trading.LockTTL, lockTTLSteps, lockTTLSteps*cfg.Trading.CallTimeout)
	}

	if cfg.Trading.DefaultSLPercent < 0 || cfg.Trading.DefaultTPPercent < 0 {
		return fmt.Errorf("기본 손절/익절 폭은 음수일 수 없습니다")
	}

	if cfg.Trading.ScalpFractionCap <= 0 || cfg.Trading.ScalpFractionCap > 1 {
		return fmt.Errorf("TRADING_SCALP_FRACTION_CAP은 (0, 1] 범위여야 합니다")
	}

	if cfg.Trading.ScalpLeverageCap < 1 || cfg.Trading.ScalpLeverageCap > domain.MaxLeverage {
		return fmt.Errorf("TRADING_SCALP_LEVERAGE_CAP은 1 이상 %d 이하이어야 합니다", domain.MaxLeverage)
	}

	if cfg.Ledger.Capacity < 1 {
		return fmt.Errorf("LEDGER_CAPACITY는 1 이상이어야 합니다")
	}

	if cfg.App.SyncInterval < time.Minute {
		return fmt.Errorf("SYNC_INTERVAL은 1분 이상이어야 합니다")
	}

	return nil
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// .env 파일이 없으면 환경변수만 사용합니다.
func LoadConfig() (*Config, error) {
	// .env 파일 로드
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
