package exchange

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
)

// signedPayload is the envelope posted to /exchange. VaultAddress and
// ExpiresAfter serialize as explicit nulls when unset; the server treats
// a missing key and a null the same, but null matches what it echoes
// back.
type signedPayload struct {
	Action       any             `json:"action"`
	Nonce        int64           `json:"nonce"`
	Signature    Signature       `json:"signature"`
	VaultAddress *common.Address `json:"vaultAddress"`
	ExpiresAfter *int64          `json:"expiresAfter"`
}

// vaultForAction applies the per-action vault policy. usdClassTransfer
// and sendAsset name the sub account inside the action itself, so their
// envelopes never carry a vault.
func vaultForAction(
	act action,
	vault mo.Option[common.Address],
) mo.Option[common.Address] {
	switch act.getType() {
	case "usdClassTransfer", "sendAsset":
		return mo.None[common.Address]()
	}
	return vault
}
