package engine

import (
	"vidar/internal/common"
	"vidar/internal/types"
)

// avgPxForQuantity returns the volume-weighted average price to execute qty
// against the given ladder. When the ladder holds less than qty the VWAP of
// the available liquidity is returned; an empty ladder yields zero.
func avgPxForQuantity(qty types.Quantity, ladder *Ladder) float64 {
	target := qty.AsFloat()
	var cumVolume, cumValue float64

	ladder.Ascend(func(level *Level) bool {
		take := level.Size()
		if cumVolume+take > target {
			take = target - cumVolume
		}
		cumVolume += take
		cumValue += take * level.Price.AsFloat()
		return cumVolume < target
	})

	if cumVolume == 0 {
		return 0.0
	}
	return cumValue / cumVolume
}

// avgPxQtyForExposure returns (avgPrice, quantity, executedExposure) to
// reach a target exposure (price*size) against the ladder. When liquidity
// is short the achievable exposure is returned.
func avgPxQtyForExposure(targetExposure types.Quantity, ladder *Ladder) (float64, float64, float64) {
	target := targetExposure.AsFloat()
	var cumExposure, cumVolume float64

	ladder.Ascend(func(level *Level) bool {
		px := level.Price.AsFloat()
		if px <= 0 {
			return true
		}
		levelExposure := level.Size() * px
		take := levelExposure
		if cumExposure+take > target {
			take = target - cumExposure
		}
		cumExposure += take
		cumVolume += take / px
		return cumExposure < target
	})

	if cumVolume == 0 {
		return 0.0, 0.0, 0.0
	}
	return cumExposure / cumVolume, cumVolume, cumExposure
}

// quantityForPrice returns the cumulative size available at prices no worse
// than the given limit: at or below it when sweeping asks, at or above it
// when sweeping bids.
func quantityForPrice(price types.Price, ladder *Ladder) float64 {
	var total float64
	ladder.Ascend(func(level *Level) bool {
		if ladder.Side == common.Sell {
			if level.Price.Raw > price.Raw {
				return false
			}
		} else {
			if level.Price.Raw < price.Raw {
				return false
			}
		}
		total += level.Size()
		return true
	})
	return total
}
