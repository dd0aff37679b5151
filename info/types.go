package info

// AssetInfo contains metadata about a perpetual asset. Its position in
// Meta.Universe is its asset index on that dex.
type AssetInfo struct {
	Name       string `json:"name"`
	SzDecimals int    `json:"szDecimals"`
	IsDelisted bool   `json:"isDelisted,omitempty"`
}

// Meta contains exchange metadata for perpetuals
type Meta struct {
	Universe []AssetInfo `json:"universe"`
}

// SpotAssetInfo contains spot pair metadata. Tokens holds the base and
// quote token indices into SpotMeta.Tokens.
type SpotAssetInfo struct {
	Name        string `json:"name"`
	Tokens      [2]int `json:"tokens"`
	Index       int    `json:"index"`
	IsCanonical bool   `json:"isCanonical"`
}

// SpotTokenInfo contains spot token metadata
type SpotTokenInfo struct {
	Name        string       `json:"name"`
	SzDecimals  int          `json:"szDecimals"`
	WeiDecimals int          `json:"weiDecimals"`
	Index       int          `json:"index"`
	TokenId     string       `json:"tokenId"`
	IsCanonical bool         `json:"isCanonical"`
	EvmContract *EvmContract `json:"evmContract"`
	FullName    *string      `json:"fullName"`
}

// EvmContract links a spot token to its EVM deployment
type EvmContract struct {
	Address             string `json:"address"`
	EvmExtraWeiDecimals int    `json:"evm_extra_wei_decimals"`
}

// SpotMeta contains exchange metadata for spot trading
type SpotMeta struct {
	Universe []SpotAssetInfo `json:"universe"`
	Tokens   []SpotTokenInfo `json:"tokens"`
}

// PerpDexInfo contains metadata about a builder-deployed perp dex
type PerpDexInfo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Deployer      string `json:"deployer"`
	OracleUpdater string `json:"oracle_updater"`
}
