package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidar/internal/common"
)

func ownOrder(t *testing.T, id common.ClientOrderID, side common.OrderSide, price, size string, status common.OrderStatus) OwnBookOrder {
	t.Helper()
	return OwnBookOrder{
		TraderID:      "TRADER-001",
		ClientOrderID: id,
		Side:          side,
		Price:         px(t, price),
		Size:          qty(t, size),
		OrderType:     common.Limit,
		TimeInForce:   common.GTC,
		Status:        status,
	}
}

func TestOwnBookAddDuplicateClientOrderID(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	require.NoError(t, own.Add(ownOrder(t, "O-1", common.Buy, "100.00", "1.0", common.StatusAccepted)))

	err := own.Add(ownOrder(t, "O-1", common.Buy, "99.00", "1.0", common.StatusAccepted))
	require.ErrorIs(t, err, ErrDuplicateClientOrderID)
	assert.Equal(t, 1, own.Count())
}

func TestOwnBookUpdateAbsent(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	err := own.Update(ownOrder(t, "O-9", common.Buy, "100.00", "1.0", common.StatusAccepted))
	require.ErrorIs(t, err, ErrClientOrderNotFound)
}

func TestOwnBookUpdateDetectsIndexWithoutLevel(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	require.NoError(t, own.Add(ownOrder(t, "O-1", common.Buy, "100.00", "1.0", common.StatusAccepted)))

	// Index an order without resting it on the ladder.
	ghost := ownOrder(t, "O-2", common.Buy, "99.00", "1.0", common.StatusAccepted)
	own.index[ghost.ClientOrderID] = ghost

	err := own.Update(ghost)
	require.ErrorIs(t, err, ErrClientOrderNotFound)
}

func TestOwnBookDeleteAbsent(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	err := own.Delete(ownOrder(t, "O-9", common.Buy, "100.00", "1.0", common.StatusAccepted))
	require.ErrorIs(t, err, ErrClientOrderNotFound)
}

func TestOwnBookUpdateSamePriceKeepsPosition(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	require.NoError(t, own.Add(ownOrder(t, "O-1", common.Buy, "100.00", "1.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-2", common.Buy, "100.00", "2.0", common.StatusAccepted)))

	require.NoError(t, own.Update(ownOrder(t, "O-1", common.Buy, "100.00", "0.5", common.StatusAccepted)))

	levels := own.BidsAsMap(nil, 0, 0)
	require.Len(t, levels, 1)
	require.Len(t, levels[0].Orders, 2)
	assert.Equal(t, common.ClientOrderID("O-1"), levels[0].Orders[0].ClientOrderID)
	assert.Equal(t, qty(t, "0.5"), levels[0].Orders[0].Size)
}

func TestOwnBookUpdatePriceMoveChangesLevel(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	require.NoError(t, own.Add(ownOrder(t, "O-1", common.Buy, "100.00", "1.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-2", common.Buy, "101.00", "2.0", common.StatusAccepted)))

	require.NoError(t, own.Update(ownOrder(t, "O-1", common.Buy, "101.00", "1.0", common.StatusAccepted)))

	levels := own.BidsAsMap(nil, 0, 0)
	require.Len(t, levels, 1)
	assert.Equal(t, px(t, "101.00"), levels[0].Price)
	require.Len(t, levels[0].Orders, 2)
	// The moved order joins the back of its new level.
	assert.Equal(t, common.ClientOrderID("O-1"), levels[0].Orders[1].ClientOrderID)
}

func TestOwnBookDeleteRemovesEmptyLevel(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	o := ownOrder(t, "O-1", common.Sell, "101.00", "1.0", common.StatusAccepted)
	require.NoError(t, own.Add(o))
	require.NoError(t, own.Delete(o))

	assert.Empty(t, own.AsksAsMap(nil, 0, 0))
	assert.Equal(t, 0, own.Count())
}

func TestOwnBookStatusFilter(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	require.NoError(t, own.Add(ownOrder(t, "O-1", common.Buy, "100.00", "1.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-2", common.Buy, "100.00", "2.0", common.StatusSubmitted)))

	accepted := map[common.OrderStatus]struct{}{common.StatusAccepted: {}}
	entries := own.BidQuantity(accepted, 0, decimal.Zero, 0, 0)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Size.Equal(decimal.RequireFromString("1")), entries[0].Size.String())

	// A nil filter admits every status.
	entries = own.BidQuantity(nil, 0, decimal.Zero, 0, 0)
	assert.True(t, entries[0].Size.Equal(decimal.RequireFromString("3")), entries[0].Size.String())
}

func TestOwnBookAcceptedBufferGate(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)

	young := ownOrder(t, "O-1", common.Buy, "100.00", "1.0", common.StatusAccepted)
	young.TsAccepted = 950
	old := ownOrder(t, "O-2", common.Buy, "100.00", "2.0", common.StatusAccepted)
	old.TsAccepted = 100
	require.NoError(t, own.Add(young))
	require.NoError(t, own.Add(old))

	// Buffer of 100ns at tsNow=1000: only the order accepted at 100 has
	// been resident long enough.
	entries := own.BidQuantity(nil, 0, decimal.Zero, 100, 1000)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Size.Equal(decimal.RequireFromString("2")), entries[0].Size.String())

	// Boundary: tsNow - tsAccepted == buffer includes the order.
	entries = own.BidQuantity(nil, 0, decimal.Zero, 50, 1000)
	assert.True(t, entries[0].Size.Equal(decimal.RequireFromString("3")), entries[0].Size.String())

	// tsNow of zero disables gating.
	entries = own.BidQuantity(nil, 0, decimal.Zero, 100, 0)
	assert.True(t, entries[0].Size.Equal(decimal.RequireFromString("3")), entries[0].Size.String())
}

func TestOwnBookQuantityGroupingAndDepth(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	require.NoError(t, own.Add(ownOrder(t, "O-1", common.Sell, "100.25", "1.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-2", common.Sell, "100.40", "2.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-3", common.Sell, "101.10", "4.0", common.StatusAccepted)))

	grouped := own.AskQuantity(nil, 0, decimal.RequireFromString("0.5"), 0, 0)
	require.Len(t, grouped, 2)
	assert.True(t, grouped[0].Price.Equal(decimal.RequireFromString("100.5")), grouped[0].Price.String())
	assert.True(t, grouped[0].Size.Equal(decimal.RequireFromString("3")), grouped[0].Size.String())

	limited := own.AskQuantity(nil, 1, decimal.Zero, 0, 0)
	assert.Len(t, limited, 1)
}

func TestOwnBookAuditOpenOrders(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	require.NoError(t, own.Add(ownOrder(t, "O-1", common.Buy, "100.00", "1.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-2", common.Sell, "101.00", "1.0", common.StatusAccepted)))

	open := map[common.ClientOrderID]struct{}{"O-1": {}}
	own.AuditOpenOrders(open)

	assert.Equal(t, 1, own.Count())
	_, ok := own.Order("O-1")
	assert.True(t, ok)
	_, ok = own.Order("O-2")
	assert.False(t, ok)

	// Idempotent.
	own.AuditOpenOrders(open)
	assert.Equal(t, 1, own.Count())
}

func TestOwnBookOrdering(t *testing.T) {
	own := NewOwnOrderBook(testInstrument)
	require.NoError(t, own.Add(ownOrder(t, "O-1", common.Buy, "99.00", "1.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-2", common.Buy, "100.00", "1.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-3", common.Sell, "102.00", "1.0", common.StatusAccepted)))
	require.NoError(t, own.Add(ownOrder(t, "O-4", common.Sell, "101.00", "1.0", common.StatusAccepted)))

	bids := own.BidsAsMap(nil, 0, 0)
	require.Len(t, bids, 2)
	assert.Equal(t, px(t, "100.00"), bids[0].Price)

	asks := own.AsksAsMap(nil, 0, 0)
	require.Len(t, asks, 2)
	assert.Equal(t, px(t, "101.00"), asks[0].Price)
}
