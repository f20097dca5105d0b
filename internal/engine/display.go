package engine

import (
	"fmt"
	"strings"
)

// Pprint renders the top levels of the book as an aligned three-column
// table: bid sizes, price, ask sizes. Levels interleave so that asks sit
// above bids when the book is not crossed.
func (b *OrderBook) Pprint(depth int) string {
	bids := b.BidLevels(depth)
	asks := b.AskLevels(depth)

	type row struct {
		bid   string
		price string
		ask   string
	}
	rows := make([]row, 0, len(bids)+len(asks))

	// Asks render worst first so the best ask sits just above the best bid.
	for i := len(asks) - 1; i >= 0; i-- {
		rows = append(rows, row{
			price: asks[i].Price.String(),
			ask:   fmt.Sprintf("%v", levelSizes(&asks[i])),
		})
	}
	for i := range bids {
		rows = append(rows, row{
			price: bids[i].Price.String(),
			bid:   fmt.Sprintf("%v", levelSizes(&bids[i])),
		})
	}

	bidWidth, priceWidth, askWidth := len("bids"), len("price"), len("asks")
	for _, r := range rows {
		bidWidth = max(bidWidth, len(r.bid))
		priceWidth = max(priceWidth, len(r.price))
		askWidth = max(askWidth, len(r.ask))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", b.InstrumentID, b.BookType)
	fmt.Fprintf(&sb, "%-*s  %-*s  %-*s\n", bidWidth, "bids", priceWidth, "price", askWidth, "asks")
	for _, r := range rows {
		fmt.Fprintf(&sb, "%-*s  %-*s  %-*s\n", bidWidth, r.bid, priceWidth, r.price, askWidth, r.ask)
	}
	return sb.String()
}

func levelSizes(level *Level) []string {
	orders := level.Orders()
	out := make([]string, len(orders))
	for i, order := range orders {
		out[i] = order.Size.String()
	}
	return out
}
