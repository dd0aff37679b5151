package exchange

import (
	"context"
	"fmt"

	"github.com/samber/mo"

	"github.com/visvirial/hyperliquid/internal/utils"
)

// DEFAULT_SLIPPAGE is the slippage tolerance for market orders, as a
// fraction of the mid price.
const DEFAULT_SLIPPAGE = 0.05

// slippagePrice computes the aggressive limit price a market order is
// submitted at: the mid price (or override) pushed slippage in the taker
// direction, then rounded to what the exchange accepts.
func (e *Exchange) slippagePrice(
	ctx context.Context,
	coin string,
	isBuy bool,
	slippage float64,
	pxOverride mo.Option[float64],
) (float64, error) {
	var px float64

	// Use override price if present, otherwise fetch midprice
	if override, ok := pxOverride.Get(); ok {
		px = override
	} else {
		dex := utils.GetDex(coin)

		mids, err := e.info.AllMids(ctx, dex)
		if err != nil {
			return 0, fmt.Errorf("failed to fetch mid prices: %w", err)
		}

		// Spot pairs are keyed by coin ("@107"), not display name
		mid, ok := mids[e.info.CoinFromName(coin)]
		if !ok {
			return 0, fmt.Errorf("mid price not found for coin: %s", coin)
		}

		px = mid.Raw()
	}

	asset, ok := e.info.GetAsset(coin)
	if !ok {
		return 0, &UnknownSymbolError{Symbol: coin}
	}

	// Spot assets start at 10000
	isSpot := asset >= 10_000

	if isBuy {
		px = px * (1 + slippage)
	} else {
		px = px * (1 - slippage)
	}

	// Five significant figures, capped at six decimals for perps and
	// eight for spot, less the asset's size decimals.
	px = utils.RoundToSigfig(px, 5)

	baseDecimals := int64(6)
	if isSpot {
		baseDecimals = 8
	}

	szDecimals, ok := e.info.SzDecimals(asset)
	if !ok {
		return 0, fmt.Errorf("size decimals not found for asset: %d", asset)
	}

	return utils.RoundToDecimals(px, baseDecimals-int64(szDecimals)), nil
}

func optionMap[T, U any](o mo.Option[T], f func(T) U) mo.Option[U] {
	if v, ok := o.Get(); ok {
		return mo.Some(f(v))
	}
	return mo.None[U]()
}
