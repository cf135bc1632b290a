package position

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/exchange/fake"
)

func TestRulesResolver_LiveLookup(t *testing.T) {
	ex := fake.New()
	ex.Rules["BTCUSDT"] = domain.SymbolRules{Symbol: "BTCUSDT", MinQuantity: 0.001, StepSize: 0.001, TickSize: 0.1, MinNotional: 100}

	r := NewRulesResolver(ex)
	rules, err := r.Resolve(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.False(t, rules.IsFallback)
	assert.Equal(t, 100.0, rules.MinNotional)
}

func TestRulesResolver_FallbackOnError(t *testing.T) {
	ex := fake.New()
	ex.Errors["GetSymbolRules"] = errors.New("connection reset")

	r := NewRulesResolver(ex)
	rules, err := r.Resolve(context.Background(), "DOGEUSDT")
	require.NoError(t, err)

	assert.True(t, rules.IsFallback)
	assert.Equal(t, 1.0, rules.MinQuantity)
	assert.Equal(t, 1.0, rules.StepSize)
	assert.Equal(t, 5.0, rules.MinNotional)
}

func TestRulesResolver_FallbackOnInvalidLiveRules(t *testing.T) {
	ex := fake.New()
	ex.Rules["ETHUSDT"] = domain.SymbolRules{Symbol: "ETHUSDT", StepSize: 0, TickSize: 0.01}

	r := NewRulesResolver(ex)
	rules, err := r.Resolve(context.Background(), "ETHUSDT")
	require.NoError(t, err)
	assert.True(t, rules.IsFallback)
	assert.Equal(t, 0.001, rules.StepSize)
}

func TestRulesResolver_UnknownSymbolPropagates(t *testing.T) {
	ex := fake.New()
	cause := errors.New("timeout")
	ex.Errors["GetSymbolRules"] = cause

	r := NewRulesResolver(ex)
	_, err := r.Resolve(context.Background(), "NOPEUSDT")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.ErrorIs(t, err, cause)

	ex.Errors["GetSymbolRules"] = nil
	_, err = r.Resolve(context.Background(), "NOPEUSDT")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestRulesResolver_Cache(t *testing.T) {
	ex := fake.New()
	ex.Rules["SOLUSDT"] = domain.SymbolRules{Symbol: "SOLUSDT", MinQuantity: 0.01, StepSize: 0.01, TickSize: 0.01, MinNotional: 5}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRulesResolver(ex, WithCacheTTL(time.Minute))
	r.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := r.Resolve(ctx, "SOLUSDT")
	require.NoError(t, err)
	_, err = r.Resolve(ctx, "SOLUSDT")
	require.NoError(t, err)
	assert.Equal(t, 1, ex.CallCount("GetSymbolRules"))

	// TTL 경과 후 재조회
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, r.Purge())
	_, err = r.Resolve(ctx, "SOLUSDT")
	require.NoError(t, err)
	assert.Equal(t, 2, ex.CallCount("GetSymbolRules"))
}

func TestRulesResolver_FallbackIsNotCached(t *testing.T) {
	ex := fake.New()
	ex.Errors["GetSymbolRules"] = errors.New("boom")

	r := NewRulesResolver(ex, WithCacheTTL(time.Minute))
	ctx := context.Background()
	_, err := r.Resolve(ctx, "BTCUSDT")
	require.NoError(t, err)

	ex.Errors["GetSymbolRules"] = nil
	ex.Rules["BTCUSDT"] = domain.SymbolRules{Symbol: "BTCUSDT", MinQuantity: 0.001, StepSize: 0.001, TickSize: 0.1, MinNotional: 50}
	rules, err := r.Resolve(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.False(t, rules.IsFallback)
	assert.Equal(t, 50.0, rules.MinNotional)
}

func TestLoadFallbackTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pepeusdt:
  min_qty: 100
  step_size: 100
  tick_size: 0.0000001
DOGEUSDT:
  min_qty: 10
  step_size: 1
  tick_size: 0.00001
  min_notional: 6
`), 0o600))

	table, err := LoadFallbackTable(path)
	require.NoError(t, err)

	pepe, ok := table.Lookup("PEPEUSDT")
	require.True(t, ok)
	assert.Equal(t, 100.0, pepe.StepSize)
	assert.Equal(t, domain.DefaultMinNotional, pepe.MinNotional)

	doge, ok := table.Lookup("DOGEUSDT")
	require.True(t, ok)
	assert.Equal(t, 10.0, doge.MinQuantity)
	assert.Equal(t, 6.0, doge.MinNotional)

	// 기본 테이블 항목은 유지
	_, ok = table.Lookup("BTCUSDT")
	assert.True(t, ok)
}

func TestLoadFallbackTable_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("BADUSDT:\n  min_qty: 1\n  step_size: 0\n  tick_size: 0.1\n"), 0o600))

	_, err := LoadFallbackTable(path)
	assert.Error(t, err)

	_, err = LoadFallbackTable(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	table, err := LoadFallbackTable("")
	require.NoError(t, err)
	assert.Len(t, table, len(DefaultFallbackTable()))
}
