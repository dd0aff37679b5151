package constants

import "github.com/ethereum/go-ethereum/common"

const MAINNET_API_URL = "https://api.hyperliquid.xyz"
const TESTNET_API_URL = "https://api.hyperliquid-testnet.xyz"
const LOCAL_API_URL = "http://localhost:3001"

// Chain id signed into user-signed (typed data) actions. The exchange
// expects Arbitrum Sepolia regardless of which network the action targets.
const SIGNATURE_CHAIN_ID = 421614

// Rate limit weights. Every exchange action costs 1; info requests are
// heavier, with a reduced weight for the small market snapshots.
const WEIGHT_EXCHANGE = 1
const WEIGHT_INFO = 20
const WEIGHT_INFO_LIGHT = 2

var ZERO_ADDRESS = common.Address{}
