// Package info maintains the symbol directory: the mapping from
// human-readable coin names to the integer asset indices the exchange
// actually trades on, together with the metadata snapshots the mapping is
// built from.
package info

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/visvirial/hyperliquid/constants"
	"github.com/visvirial/hyperliquid/rest"
	"github.com/visvirial/hyperliquid/types"
)

// Asset index layout: perps on the first-party dex occupy [0, 10000), spot
// pairs live at 10000+index, builder-dex perps at 110000 plus a 10000-wide
// block per dex.
const (
	spotAssetOffset    = 10_000
	builderAssetOffset = 110_000
	builderAssetStride = 10_000
)

// Info resolves coin names to asset indices. The maps are rebuilt atomically
// by Refresh/RefreshDex; lookups never observe a half-built view.
type Info struct {
	rest rest.ClientInterface

	mu                sync.RWMutex
	coinToAsset       map[string]int
	nameToCoin        map[string]string
	assetToSzDecimals map[int]int
}

// Config for initializing the Info client.
type Config struct {
	// BaseURL of the Hyperliquid API. Mainnet when empty.
	BaseURL string
	// Timeout in seconds for network requests. No timeout when zero.
	Timeout uint
	// Logger receives transport diagnostics. Nil keeps the client silent.
	Logger *zap.SugaredLogger
	// SkipMeta skips the initial metadata load. Nothing resolves until
	// Refresh is called.
	SkipMeta bool
}

// New creates an Info client and, unless cfg.SkipMeta is set, performs the
// initial metadata load so the directory is usable immediately.
func New(ctx context.Context, cfg Config) (*Info, error) {
	client := rest.New(rest.Config{
		BaseUrl: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Logger:  cfg.Logger,
	})

	info := &Info{
		rest:              client,
		coinToAsset:       make(map[string]int),
		nameToCoin:        make(map[string]string),
		assetToSzDecimals: make(map[int]int),
	}

	if !cfg.SkipMeta {
		if err := info.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("load asset metadata: %w", err)
		}
	}

	return info, nil
}

/*//////////////////////////////////////////////////////////////
                      METADATA QUERIES
//////////////////////////////////////////////////////////////*/

// Meta retrieves exchange metadata for perpetuals. dex selects a builder
// dex, "" the first-party one.
func (i *Info) Meta(ctx context.Context, dex string) (*Meta, error) {
	var result Meta
	err := i.rest.Post(
		ctx,
		"/info",
		map[string]any{
			"type": "meta",
			"dex":  dex,
		},
		constants.WEIGHT_INFO,
		&result,
	)

	return &result, err
}

// SpotMeta retrieves exchange metadata for spot trading.
func (i *Info) SpotMeta(ctx context.Context) (*SpotMeta, error) {
	var result SpotMeta
	err := i.rest.Post(
		ctx,
		"/info",
		map[string]any{
			"type": "spotMeta",
		},
		constants.WEIGHT_INFO,
		&result,
	)

	return &result, err
}

// PerpDexs retrieves the list of perp dexes. The first entry is nil, a
// placeholder for the first-party dex.
func (i *Info) PerpDexs(ctx context.Context) ([]*PerpDexInfo, error) {
	var result []*PerpDexInfo
	err := i.rest.Post(
		ctx,
		"/info",
		map[string]any{
			"type": "perpDexs",
		},
		constants.WEIGHT_INFO,
		&result,
	)

	return result, err
}

// AllMids retrieves mid-prices for all coins, falling back to the last
// trade price when the book is empty.
func (i *Info) AllMids(ctx context.Context, dex string) (map[string]types.FloatString, error) {
	var result map[string]types.FloatString
	err := i.rest.Post(
		ctx,
		"/info",
		map[string]any{
			"type": "allMids",
			"dex":  dex,
		},
		constants.WEIGHT_INFO_LIGHT,
		&result,
	)

	return result, err
}

/*//////////////////////////////////////////////////////////////
                      DIRECTORY REFRESH
//////////////////////////////////////////////////////////////*/

// Refresh rebuilds the directory from the first-party perp and spot
// metadata. On error the previous view stays intact.
func (i *Info) Refresh(ctx context.Context) error {
	meta, err := i.Meta(ctx, "")
	if err != nil {
		return fmt.Errorf("fetch perp metadata: %w", err)
	}

	spotMeta, err := i.SpotMeta(ctx)
	if err != nil {
		return fmt.Errorf("fetch spot metadata: %w", err)
	}

	coinToAsset := make(map[string]int, len(meta.Universe)+len(spotMeta.Universe))
	nameToCoin := make(map[string]string, len(meta.Universe)+2*len(spotMeta.Universe))
	assetToSzDecimals := make(map[int]int, len(meta.Universe)+len(spotMeta.Universe))

	for asset, assetInfo := range meta.Universe {
		coinToAsset[assetInfo.Name] = asset
		nameToCoin[assetInfo.Name] = assetInfo.Name
		assetToSzDecimals[asset] = assetInfo.SzDecimals
	}

	for _, spotInfo := range spotMeta.Universe {
		asset := spotInfo.Index + spotAssetOffset
		coinToAsset[spotInfo.Name] = asset
		nameToCoin[spotInfo.Name] = spotInfo.Name

		base, quote := spotInfo.Tokens[0], spotInfo.Tokens[1]
		if base >= len(spotMeta.Tokens) || quote >= len(spotMeta.Tokens) {
			continue
		}
		baseInfo := spotMeta.Tokens[base]
		assetToSzDecimals[asset] = baseInfo.SzDecimals

		// "BASE/QUOTE" resolves to the pair's canonical name unless some
		// earlier pair already claimed it.
		pair := baseInfo.Name + "/" + spotMeta.Tokens[quote].Name
		if _, ok := nameToCoin[pair]; !ok {
			nameToCoin[pair] = spotInfo.Name
		}
	}

	i.mu.Lock()
	i.coinToAsset = coinToAsset
	i.nameToCoin = nameToCoin
	i.assetToSzDecimals = assetToSzDecimals
	i.mu.Unlock()

	return nil
}

// RefreshDex adds a builder dex's universe to the directory. Coins arrive
// already prefixed ("dex:COIN") and index into that dex's asset block.
func (i *Info) RefreshDex(ctx context.Context, dex string) error {
	if dex == "" {
		return i.Refresh(ctx)
	}

	perpDexs, err := i.PerpDexs(ctx)
	if err != nil {
		return fmt.Errorf("fetch perp dexs: %w", err)
	}

	offset := -1
	for idx, perpDex := range perpDexs {
		if perpDex != nil && perpDex.Name == dex {
			offset = builderAssetOffset + (idx-1)*builderAssetStride
			break
		}
	}
	if offset < 0 {
		return fmt.Errorf("unknown perp dex: %s", dex)
	}

	meta, err := i.Meta(ctx, dex)
	if err != nil {
		return fmt.Errorf("fetch perp metadata for dex %s: %w", dex, err)
	}

	i.mu.Lock()
	for idx, assetInfo := range meta.Universe {
		asset := offset + idx
		i.coinToAsset[assetInfo.Name] = asset
		i.nameToCoin[assetInfo.Name] = assetInfo.Name
		i.assetToSzDecimals[asset] = assetInfo.SzDecimals
	}
	i.mu.Unlock()

	return nil
}

/*//////////////////////////////////////////////////////////////
                         LOOKUPS
//////////////////////////////////////////////////////////////*/

// GetAsset retrieves the asset index for a coin name.
func (i *Info) GetAsset(name string) (int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	asset, ok := i.coinToAsset[i.nameToCoin[name]]
	return asset, ok
}

// SzDecimals retrieves the size decimals for a resolved asset index.
func (i *Info) SzDecimals(asset int) (int, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	szDecimals, ok := i.assetToSzDecimals[asset]
	return szDecimals, ok
}

// CoinFromName maps a user-facing name ("PURR/USDC") to the coin key the
// exchange uses in market data ("@1"). Unmapped names pass through as-is.
func (i *Info) CoinFromName(name string) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if coin, ok := i.nameToCoin[name]; ok {
		return coin
	}
	return name
}
