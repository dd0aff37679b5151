package exchange

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"

	"github.com/visvirial/hyperliquid/internal/utils"
)

// action is implemented by every payload that can be signed and posted to
// the exchange endpoint. The type tag drives the request envelope policy.
type action interface {
	getType() string
}

/*//////////////////////////////////////////////////////////////
                      ACCOUNT ACTIONS (L1)
//////////////////////////////////////////////////////////////*/

type updateLeverageAction struct {
	Type     string `json:"type"`
	Asset    int64  `json:"asset"`
	IsCross  bool   `json:"isCross"`
	Leverage int64  `json:"leverage"`
}

func (u updateLeverageAction) getType() string {
	return u.Type
}

type updateIsolatedMarginAction struct {
	Type  string `json:"type"`
	Asset int64  `json:"asset"`
	IsBuy bool   `json:"isBuy"`
	Ntli  int64  `json:"ntli"`
}

func (u updateIsolatedMarginAction) getType() string {
	return u.Type
}

// buildUpdateIsolatedMarginAction adjusts isolated margin by amount USD.
// isBuy is always true; the sign of ntli selects add or remove.
func buildUpdateIsolatedMarginAction(
	assetId int64,
	amount float64,
) (updateIsolatedMarginAction, error) {
	ntli, err := utils.FloatToUsdInt(amount)
	if err != nil {
		return updateIsolatedMarginAction{}, fmt.Errorf(
			"failed to convert amount to USD: %w",
			err,
		)
	}

	return updateIsolatedMarginAction{
		Type:  "updateIsolatedMargin",
		Asset: assetId,
		IsBuy: true,
		Ntli:  ntli,
	}, nil
}

type scheduleCancelAction struct {
	Type string `json:"type"`
	Time *int64 `json:"time,omitempty"`
}

func (s scheduleCancelAction) getType() string {
	return s.Type
}

// buildScheduleCancelAction arms or, when no time is given, disarms the
// dead man's switch.
func buildScheduleCancelAction(at mo.Option[time.Time]) scheduleCancelAction {
	t := optionMap(at, func(value time.Time) int64 {
		return value.UnixMilli()
	})

	return scheduleCancelAction{
		Type: "scheduleCancel",
		Time: t.ToPointer(),
	}
}

type setReferrerAction struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

func (s setReferrerAction) getType() string {
	return s.Type
}

type createSubAccountAction struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

func (c createSubAccountAction) getType() string {
	return c.Type
}

// noopAction does nothing on the server but spends its nonce, which
// invalidates any in-flight action signed with an older one.
type noopAction struct {
	Type string `json:"type"`
}

func (n noopAction) getType() string {
	return n.Type
}

/*//////////////////////////////////////////////////////////////
                      TRANSFER ACTIONS (L1)
//////////////////////////////////////////////////////////////*/

// classTransferWire moves usdc micro-units between the spot and perp
// balances of the signing account.
type classTransferWire struct {
	Usdc   int64 `json:"usdc"`
	ToPerp bool  `json:"toPerp"`
}

type spotUserAction struct {
	Type          string            `json:"type"`
	ClassTransfer classTransferWire `json:"classTransfer"`
}

func (s spotUserAction) getType() string {
	return s.Type
}

// buildSpotUserAction converts amount USD into micro-units and wraps it in
// the legacy spotUser class transfer.
func buildSpotUserAction(amount float64, toPerp bool) (spotUserAction, error) {
	usdc, err := utils.FloatToUsdInt(amount)
	if err != nil {
		return spotUserAction{}, fmt.Errorf(
			"failed to convert amount to USD: %w",
			err,
		)
	}

	return spotUserAction{
		Type: "spotUser",
		ClassTransfer: classTransferWire{
			Usdc:   usdc,
			ToPerp: toPerp,
		},
	}, nil
}

type subAccountTransferAction struct {
	Type           string `json:"type"`
	SubAccountUser string `json:"subAccountUser"`
	IsDeposit      bool   `json:"isDeposit"`
	Usd            int64  `json:"usd"`
}

func (s subAccountTransferAction) getType() string {
	return s.Type
}

func buildSubAccountTransferAction(
	subAccount common.Address,
	isDeposit bool,
	usd int64,
) subAccountTransferAction {
	return subAccountTransferAction{
		Type:           "subAccountTransfer",
		SubAccountUser: strings.ToLower(subAccount.Hex()),
		IsDeposit:      isDeposit,
		Usd:            usd,
	}
}

type subAccountSpotTransferAction struct {
	Type           string `json:"type"`
	SubAccountUser string `json:"subAccountUser"`
	IsDeposit      bool   `json:"isDeposit"`
	Token          string `json:"token"`
	Amount         string `json:"amount"`
}

func (s subAccountSpotTransferAction) getType() string {
	return s.Type
}

func buildSubAccountSpotTransferAction(
	subAccount common.Address,
	isDeposit bool,
	token string,
	amount float64,
) (subAccountSpotTransferAction, error) {
	strAmount, err := utils.FloatToWire(amount)
	if err != nil {
		return subAccountSpotTransferAction{}, fmt.Errorf(
			"failed to convert amount to wire format: %w",
			err,
		)
	}

	return subAccountSpotTransferAction{
		Type:           "subAccountSpotTransfer",
		SubAccountUser: strings.ToLower(subAccount.Hex()),
		IsDeposit:      isDeposit,
		Token:          token,
		Amount:         strAmount,
	}, nil
}

type vaultTransferAction struct {
	Type         string `json:"type"`
	VaultAddress string `json:"vaultAddress"`
	IsDeposit    bool   `json:"isDeposit"`
	Usd          int64  `json:"usd"`
}

func (v vaultTransferAction) getType() string {
	return v.Type
}

func buildVaultTransferAction(
	vault common.Address,
	isDeposit bool,
	usd int64,
) vaultTransferAction {
	return vaultTransferAction{
		Type:         "vaultTransfer",
		VaultAddress: strings.ToLower(vault.Hex()),
		IsDeposit:    isDeposit,
		Usd:          usd,
	}
}

/*//////////////////////////////////////////////////////////////
                     USER-SIGNED ACTIONS
//////////////////////////////////////////////////////////////*/

type usdClassTransferAction struct {
	Type             string `json:"type"`
	Amount           string `json:"amount"`
	ToPerp           bool   `json:"toPerp"`
	Nonce            int64  `json:"nonce"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
}

func (u usdClassTransferAction) getType() string {
	return u.Type
}

// buildUsdClassTransferAction moves USDC between the perp and spot
// balances. When a vault is configured the transfer applies to it, encoded
// as a suffix on the amount.
func buildUsdClassTransferAction(
	amount float64,
	toPerp bool,
	vaultAddress mo.Option[common.Address],
	nonce int64,
	chain string,
) (usdClassTransferAction, error) {
	strAmount, err := utils.FloatToWire(amount)
	if err != nil {
		return usdClassTransferAction{}, fmt.Errorf(
			"failed to convert amount to wire format: %w",
			err,
		)
	}

	if v, ok := vaultAddress.Get(); ok {
		strAmount += fmt.Sprintf(" subaccount:%s", strings.ToLower(v.Hex()))
	}

	return usdClassTransferAction{
		Type:             "usdClassTransfer",
		Amount:           strAmount,
		ToPerp:           toPerp,
		Nonce:            nonce,
		SignatureChainId: getSignatureChainId(),
		HyperliquidChain: chain,
	}, nil
}

type usdTransferAction struct {
	Type             string `json:"type"`
	Amount           string `json:"amount"`
	Destination      string `json:"destination"`
	Time             int64  `json:"time"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
}

func (u usdTransferAction) getType() string {
	return u.Type
}

func buildUsdSendAction(
	amount float64,
	destination common.Address,
	nonce int64,
	chain string,
) (usdTransferAction, error) {
	strAmount, err := utils.FloatToWire(amount)
	if err != nil {
		return usdTransferAction{}, fmt.Errorf(
			"failed to convert amount to wire format: %w",
			err,
		)
	}

	return usdTransferAction{
		Type:             "usdSend",
		Amount:           strAmount,
		Destination:      strings.ToLower(destination.Hex()),
		Time:             nonce,
		SignatureChainId: getSignatureChainId(),
		HyperliquidChain: chain,
	}, nil
}

type spotTransferAction struct {
	Type             string `json:"type"`
	Destination      string `json:"destination"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	Time             int64  `json:"time"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
}

func (s spotTransferAction) getType() string {
	return s.Type
}

func buildSpotSendAction(
	amount float64,
	destination common.Address,
	token string,
	nonce int64,
	chain string,
) (spotTransferAction, error) {
	strAmount, err := utils.FloatToWire(amount)
	if err != nil {
		return spotTransferAction{}, fmt.Errorf(
			"failed to convert amount to wire format: %w",
			err,
		)
	}

	return spotTransferAction{
		Type:             "spotSend",
		Destination:      strings.ToLower(destination.Hex()),
		Token:            token,
		Amount:           strAmount,
		Time:             nonce,
		SignatureChainId: getSignatureChainId(),
		HyperliquidChain: chain,
	}, nil
}

type withdrawFromBridgeAction struct {
	Type             string `json:"type"`
	Destination      string `json:"destination"`
	Amount           string `json:"amount"`
	Time             int64  `json:"time"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
}

func (w withdrawFromBridgeAction) getType() string {
	return w.Type
}

func buildWithdrawFromBridgeAction(
	amount float64,
	destination common.Address,
	nonce int64,
	chain string,
) (withdrawFromBridgeAction, error) {
	strAmount, err := utils.FloatToWire(amount)
	if err != nil {
		return withdrawFromBridgeAction{}, fmt.Errorf(
			"failed to convert amount to wire format: %w",
			err,
		)
	}

	return withdrawFromBridgeAction{
		Type:             "withdraw3",
		Destination:      strings.ToLower(destination.Hex()),
		Amount:           strAmount,
		Time:             nonce,
		SignatureChainId: getSignatureChainId(),
		HyperliquidChain: chain,
	}, nil
}

type sendAssetAction struct {
	Type             string `json:"type"`
	Destination      string `json:"destination"`
	SourceDex        string `json:"sourceDex"`
	DestinationDex   string `json:"destinationDex"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	FromSubAccount   string `json:"fromSubAccount"`
	Nonce            int64  `json:"nonce"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
}

func (s sendAssetAction) getType() string {
	return s.Type
}

// buildSendAssetAction moves a token between dexes or accounts. When a
// vault is configured it becomes the sending sub account.
func buildSendAssetAction(
	destination common.Address,
	sourceDex string,
	destinationDex string,
	token string,
	amount float64,
	vaultAddress mo.Option[common.Address],
	nonce int64,
	chain string,
) (sendAssetAction, error) {
	strAmount, err := utils.FloatToWire(amount)
	if err != nil {
		return sendAssetAction{}, fmt.Errorf(
			"failed to convert amount to wire format: %w",
			err,
		)
	}

	fromSubAccount := ""
	if v, ok := vaultAddress.Get(); ok {
		fromSubAccount = strings.ToLower(v.Hex())
	}

	return sendAssetAction{
		Type:             "sendAsset",
		Destination:      strings.ToLower(destination.Hex()),
		SourceDex:        sourceDex,
		DestinationDex:   destinationDex,
		Token:            token,
		Amount:           strAmount,
		FromSubAccount:   fromSubAccount,
		Nonce:            nonce,
		SignatureChainId: getSignatureChainId(),
		HyperliquidChain: chain,
	}, nil
}

type tokenDelegateAction struct {
	Type             string `json:"type"`
	Validator        string `json:"validator"`
	Wei              int64  `json:"wei"`
	IsUndelegate     bool   `json:"isUndelegate"`
	Nonce            int64  `json:"nonce"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
}

func (t tokenDelegateAction) getType() string {
	return t.Type
}

func buildTokenDelegateAction(
	validator common.Address,
	wei int64,
	isUndelegate bool,
	nonce int64,
	chain string,
) tokenDelegateAction {
	return tokenDelegateAction{
		Type:             "tokenDelegate",
		Validator:        strings.ToLower(validator.Hex()),
		Wei:              wei,
		IsUndelegate:     isUndelegate,
		Nonce:            nonce,
		SignatureChainId: getSignatureChainId(),
		HyperliquidChain: chain,
	}
}

type approveAgentAction struct {
	Type             string  `json:"type"`
	AgentAddress     string  `json:"agentAddress"`
	AgentName        *string `json:"agentName,omitempty"`
	Nonce            int64   `json:"nonce"`
	SignatureChainId string  `json:"signatureChainId"`
	HyperliquidChain string  `json:"hyperliquidChain"`
}

func (a approveAgentAction) getType() string {
	return a.Type
}

// buildApproveAgentAction authorizes an agent wallet to sign on behalf of
// the account. The signature always covers an agentName, empty for an
// unnamed agent; the caller drops the empty name before posting.
func buildApproveAgentAction(
	agentAddress common.Address,
	agentName mo.Option[string],
	nonce int64,
	chain string,
) approveAgentAction {
	name := agentName.OrElse("")

	return approveAgentAction{
		Type:             "approveAgent",
		AgentAddress:     strings.ToLower(agentAddress.Hex()),
		AgentName:        &name,
		Nonce:            nonce,
		SignatureChainId: getSignatureChainId(),
		HyperliquidChain: chain,
	}
}

type approveBuilderFeeAction struct {
	Type             string `json:"type"`
	MaxFeeRate       string `json:"maxFeeRate"`
	Builder          string `json:"builder"`
	Nonce            int64  `json:"nonce"`
	SignatureChainId string `json:"signatureChainId"`
	HyperliquidChain string `json:"hyperliquidChain"`
}

func (a approveBuilderFeeAction) getType() string {
	return a.Type
}

// buildApproveBuilderFeeAction authorizes a builder to collect up to
// maxFeeRate, a percent string like "0.001%".
func buildApproveBuilderFeeAction(
	builder common.Address,
	maxFeeRate string,
	nonce int64,
	chain string,
) approveBuilderFeeAction {
	return approveBuilderFeeAction{
		Type:             "approveBuilderFee",
		MaxFeeRate:       maxFeeRate,
		Builder:          strings.ToLower(builder.Hex()),
		Nonce:            nonce,
		SignatureChainId: getSignatureChainId(),
		HyperliquidChain: chain,
	}
}
