package exchange

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/visvirial/hyperliquid/info"
	"github.com/visvirial/hyperliquid/types"
)

// assetDirectory is the slice of the info client the exchange needs:
// symbol resolution, size decimals and mid prices.
type assetDirectory interface {
	GetAsset(name string) (int, bool)
	SzDecimals(asset int) (int, bool)
	CoinFromName(name string) string
	AllMids(ctx context.Context, dex string) (map[string]types.FloatString, error)
}

var _ assetDirectory = (*info.Info)(nil)

// resolveAsset maps a coin name to its asset index. The directory is never
// refreshed here; a miss fails before anything is signed or sent.
func resolveAsset(dir assetDirectory, name string) (int64, error) {
	asset, ok := dir.GetAsset(name)
	if !ok {
		return 0, &UnknownSymbolError{Symbol: name}
	}
	return int64(asset), nil
}

// resolveAssets maps coin names to asset indexes, preserving input order.
// Lookups fan out per name and the first miss fails the whole batch.
func resolveAssets(dir assetDirectory, names []string) ([]int64, error) {
	assets := make([]int64, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			asset, err := resolveAsset(dir, name)
			if err != nil {
				return err
			}
			assets[i] = asset
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assets, nil
}
