// Command replay runs a small deterministic demonstration of the data
// plane: it builds synthetic delta and trade streams, merges them with
// the time-ordered iterator, applies them to an order book, and prints
// the resulting book state.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vidar/internal/common"
	"vidar/internal/engine"
	"vidar/internal/feed"
	"vidar/internal/iterator"
	"vidar/internal/types"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("replay failed")
	}
}

func run(ctx context.Context) error {
	instrumentID, err := common.NewInstrumentID("BTCUSDT", "BINANCE")
	if err != nil {
		return err
	}

	deltas, err := syntheticDeltas(instrumentID)
	if err != nil {
		return err
	}
	trades, err := syntheticTrades(instrumentID)
	if err != nil {
		return err
	}

	it := iterator.New()
	it.AddData("deltas", deltas, true)
	it.AddData("trades", trades, true)

	book := engine.NewOrderBook(instrumentID, common.L2MBP)
	replayer := feed.NewReplayer(it, func(record common.Record) error {
		return feed.Apply(book, record)
	})

	if err := replayer.Run(ctx); err != nil {
		return err
	}
	if err := book.CheckIntegrity(); err != nil {
		return err
	}

	os.Stdout.WriteString(book.Pprint(5))

	if spread, ok := book.Spread(); ok {
		log.Info().
			Float64("spread", spread).
			Uint64("records", replayer.Emitted()).
			Msg("replay finished")
	}
	return nil
}

func syntheticDeltas(instrumentID common.InstrumentID) ([]common.Record, error) {
	type row struct {
		side  common.OrderSide
		price string
		size  string
	}
	rows := []row{
		{common.Buy, "64000.00", "1.50"},
		{common.Buy, "63990.00", "2.25"},
		{common.Buy, "63980.00", "4.00"},
		{common.Sell, "64010.00", "1.10"},
		{common.Sell, "64020.00", "3.75"},
		{common.Sell, "64030.00", "5.00"},
	}

	records := make([]common.Record, 0, len(rows))
	for i, r := range rows {
		price, err := types.ParsePrice(r.price, 2)
		if err != nil {
			return nil, err
		}
		size, err := types.ParseQuantity(r.size, 2)
		if err != nil {
			return nil, err
		}
		ts := uint64(i+1) * 1_000
		records = append(records, common.BookDelta{
			InstrumentID: instrumentID,
			Action:       common.ActionAdd,
			Order:        common.NewBookOrder(r.side, price, size, 0),
			Flags:        common.FlagLast,
			Sequence:     uint64(i + 1),
			TsEvent:      ts,
			TsInit:       ts + 50,
		})
	}
	return records, nil
}

func syntheticTrades(instrumentID common.InstrumentID) ([]common.Record, error) {
	price, err := types.ParsePrice("64005.00", 2)
	if err != nil {
		return nil, err
	}
	size, err := types.ParseQuantity("0.25", 2)
	if err != nil {
		return nil, err
	}
	return []common.Record{
		common.Trade{
			InstrumentID:  instrumentID,
			Price:         price,
			Size:          size,
			AggressorSide: common.BuyAggressor,
			TradeID:       common.TradeID("T-0001"),
			TsEvent:       3_500,
			TsInit:        3_550,
		},
	}, nil
}
