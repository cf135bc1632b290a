package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/hookbridge/internal/domain"
	"github.com/assist-by/hookbridge/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_SaveAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	stopID := int64(77)
	entry := domain.TradeRecord{
		ID:             "t-1",
		Timestamp:      base,
		Symbol:         "BTCUSDT",
		Action:         domain.ActionBuy,
		Source:         "tradingview",
		Quantity:       0.02,
		ReferencePrice: 50000,
		Leverage:       10,
		MarginType:     domain.Isolated,
		EntryOrderID:   1001,
		StopOrderID:    &stopID,
		StopPrice:      49000,
		ClosedOpposite: true,
		Closed: []domain.ClosedPosition{
			{Symbol: "BTCUSDT", Direction: domain.Short, Quantity: 0.01, Side: domain.Buy, OrderID: 1000},
		},
		Warnings: []string{"[bracket] BTCUSDT place_target: rejected"},
		Status:   domain.TradeActive,
	}
	closeRec := domain.TradeRecord{
		ID:        "t-2",
		Timestamp: base.Add(time.Minute),
		Symbol:    "ETHUSDT",
		Action:    domain.ActionClose,
		Quantity:  1.5,
		Status:    domain.TradeCompleted,
	}

	require.NoError(t, store.Save(ctx, entry))
	require.NoError(t, store.Save(ctx, closeRec))

	all, err := store.List(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t-2", all[0].ID)
	assert.Nil(t, all[0].StopOrderID)
	assert.Empty(t, all[0].Closed)

	btc, err := store.List(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, btc, 1)
	got := btc[0]
	assert.Equal(t, domain.ActionBuy, got.Action)
	assert.Equal(t, 0.02, got.Quantity)
	require.NotNil(t, got.StopOrderID)
	assert.Equal(t, int64(77), *got.StopOrderID)
	assert.Nil(t, got.TargetOrderID)
	assert.True(t, got.ClosedOpposite)
	require.Len(t, got.Closed, 1)
	assert.Equal(t, domain.Short, got.Closed[0].Direction)
	assert.Equal(t, entry.Warnings, got.Warnings)
	assert.Equal(t, domain.Isolated, got.MarginType)
	assert.True(t, base.Equal(got.Timestamp))
}

func TestStore_AsLedgerSink(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	l := ledger.New(1, ledger.WithSink(store))
	l.Append(ctx, domain.TradeRecord{ID: "a", Timestamp: time.Now(), Symbol: "SOLUSDT", Action: domain.ActionSell, Status: domain.TradeActive})
	l.Append(ctx, domain.TradeRecord{ID: "b", Timestamp: time.Now(), Symbol: "SOLUSDT", Action: domain.ActionClose, Status: domain.TradeCompleted})

	// 메모리에는 1개만 남지만 저장소에는 모두 남음
	assert.Equal(t, 1, l.Len())
	records, err := store.List(ctx, "SOLUSDT", 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
