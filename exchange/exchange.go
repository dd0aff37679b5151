// Package exchange signs and posts trade actions: orders, cancels,
// transfers, and account management. Every operation follows the same
// pipeline: resolve coins to asset indexes, build the action, draw a
// nonce, sign, and post the signed envelope.
package exchange

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"github.com/visvirial/hyperliquid/constants"
	"github.com/visvirial/hyperliquid/info"
	"github.com/visvirial/hyperliquid/rest"
	"github.com/visvirial/hyperliquid/types"
)

type Exchange struct {
	rest   rest.ClientInterface
	info   assetDirectory
	signer Signer
	nonces nonceSource

	isMainnet      bool
	accountAddress mo.Option[common.Address]
	vaultAddress   mo.Option[common.Address]
	expiresAfter   mo.Option[time.Duration]
}

type Config struct {
	// BaseURL is the base URL for the Hyperliquid API.
	// If none is provided, the mainnet url will be used.
	BaseURL string
	// Timeout is the timeout in seconds for network requests.
	// If none is provided, no timeout will be enforced.
	Timeout uint
	// Logger receives transport diagnostics. Nil keeps the client silent.
	Logger *zap.SugaredLogger
	// PrivateKey signs every action. Required unless Signer is set.
	PrivateKey *ecdsa.PrivateKey
	// Signer replaces the private key signer, for keys held elsewhere.
	Signer Signer
	// AccountAddress is the master account address when signing with an
	// agent key. Leave zero to act as the signing key's own account.
	AccountAddress common.Address
	// VaultAddress routes orders through a vault or sub account.
	VaultAddress common.Address
	// Transport replaces the default HTTP transport for delivering signed
	// payloads. The ws package's client satisfies this, for posting
	// actions over a websocket. The asset directory still loads over HTTP
	// from BaseURL.
	Transport rest.ClientInterface
	// SkipInfo skips loading the asset directory. Operations that resolve
	// coins will fail until one is attached; meant for tools that only
	// sign.
	SkipInfo bool
}

// New creates an Exchange. Unless SkipInfo is set this loads the asset
// directory from the target network before returning.
func New(ctx context.Context, cfg Config) (*Exchange, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = constants.MAINNET_API_URL
	}

	signer := cfg.Signer
	if signer == nil {
		if cfg.PrivateKey == nil {
			return nil, fmt.Errorf("either PrivateKey or Signer is required")
		}
		signer = NewSigner(cfg.PrivateKey)
	}

	transport := cfg.Transport
	if transport == nil {
		transport = rest.New(rest.Config{
			BaseUrl: baseURL,
			Timeout: cfg.Timeout,
			Logger:  cfg.Logger,
		})
	}

	e := &Exchange{
		rest:           transport,
		signer:         signer,
		isMainnet:      baseURL == constants.MAINNET_API_URL,
		accountAddress: mo.None[common.Address](),
		vaultAddress:   mo.None[common.Address](),
		expiresAfter:   mo.None[time.Duration](),
	}

	if cfg.AccountAddress != constants.ZERO_ADDRESS {
		e.accountAddress = mo.Some(cfg.AccountAddress)
	}

	if cfg.VaultAddress != constants.ZERO_ADDRESS {
		e.vaultAddress = mo.Some(cfg.VaultAddress)
	}

	if !cfg.SkipInfo {
		infoClient, err := info.New(ctx, info.Config{
			BaseURL: baseURL,
			Timeout: cfg.Timeout,
			Logger:  cfg.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load asset directory: %w", err)
		}
		e.info = infoClient
	}

	return e, nil
}

// Address is the account the exchange acts as: the configured master
// account when signing with an agent key, otherwise the signing key's own
// address.
func (e *Exchange) Address() common.Address {
	if a, ok := e.accountAddress.Get(); ok {
		return a
	}
	return e.signer.Address()
}

// SetExpiresAfter gives every following L1 action an expiry window. The
// server rejects actions landing after nonce + window.
func (e *Exchange) SetExpiresAfter(expiresAfter time.Duration) {
	e.expiresAfter = mo.Some(expiresAfter)
}

// ClearExpiresAfter removes the expiry window.
func (e *Exchange) ClearExpiresAfter() {
	e.expiresAfter = mo.None[time.Duration]()
}

func (e *Exchange) networkName() string {
	if e.isMainnet {
		return "Mainnet"
	}
	return "Testnet"
}

/*//////////////////////////////////////////////////////////////
                             ORDERS
//////////////////////////////////////////////////////////////*/

// Order places a single order and returns its status.
func (e *Exchange) Order(
	ctx context.Context,
	req OrderRequest,
	opts ...CreateOrderOption,
) (OrderStatus, error) {
	statuses, err := e.BulkOrders(ctx, []OrderRequest{req}, opts...)
	if err != nil {
		return OrderStatus{}, err
	}

	if len(statuses) != 1 {
		return OrderStatus{}, fmt.Errorf(
			"expected one order status, got %d",
			len(statuses),
		)
	}

	return statuses[0], nil
}

// BulkOrders places a batch of orders under one nonce and one signature.
// Statuses come back in request order.
func (e *Exchange) BulkOrders(
	ctx context.Context,
	reqs []OrderRequest,
	opts ...CreateOrderOption,
) (BulkOrdersResponse, error) {
	cfg := newCreateOrderConfig(opts...)

	coins := make([]string, len(reqs))
	for i, req := range reqs {
		coins[i] = req.Coin()
	}

	assets, err := resolveAssets(e.info, coins)
	if err != nil {
		return nil, err
	}

	wires := make([]orderWire, len(reqs))
	for i, req := range reqs {
		wire, err := req.toOrderWire(assets[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert order to wire: %w", err)
		}
		wires[i] = wire
	}

	act := ordersToAction(wires, cfg.builder, cfg.grouping)

	resp, err := postL1Action[BulkOrdersResponse](ctx, e, act)
	if err != nil {
		return nil, err
	}

	return *resp, nil
}

// MarketOpen opens a position with an aggressive IoC order priced off the
// current mid.
func (e *Exchange) MarketOpen(
	ctx context.Context,
	req MarketOpenRequest,
	opts ...CreateOrderOption,
) (OrderStatus, error) {
	px, err := e.slippagePrice(
		ctx,
		req.coin,
		req.isBuy,
		req.slippage.OrElse(DEFAULT_SLIPPAGE),
		req.px,
	)
	if err != nil {
		return OrderStatus{}, fmt.Errorf("failed to get slippage price: %w", err)
	}

	return e.Order(ctx, req.toOrderRequest(px), opts...)
}

// MarketClose closes a position with an aggressive reduce-only IoC order.
func (e *Exchange) MarketClose(
	ctx context.Context,
	req MarketCloseRequest,
	opts ...CreateOrderOption,
) (OrderStatus, error) {
	px, err := e.slippagePrice(
		ctx,
		req.coin,
		req.isBuy(),
		req.slippage.OrElse(DEFAULT_SLIPPAGE),
		req.px,
	)
	if err != nil {
		return OrderStatus{}, fmt.Errorf("failed to get slippage price: %w", err)
	}

	return e.Order(ctx, req.toOrderRequest(px), opts...)
}

// ModifyOrder replaces a single resting order.
func (e *Exchange) ModifyOrder(
	ctx context.Context,
	req ModifyRequest,
) (OrderStatus, error) {
	asset, err := resolveAsset(e.info, req.Coin())
	if err != nil {
		return OrderStatus{}, err
	}

	wire, err := req.toModifyWire(asset)
	if err != nil {
		return OrderStatus{}, err
	}

	resp, err := postL1Action[ModifyResponse](ctx, e, modifyToAction(wire))
	if err != nil {
		return OrderStatus{}, err
	}

	statuses := *resp
	if len(statuses) != 1 {
		return OrderStatus{}, fmt.Errorf(
			"expected one modify status, got %d",
			len(statuses),
		)
	}

	return statuses[0], nil
}

// BatchModify replaces a batch of resting orders under one nonce and one
// signature.
func (e *Exchange) BatchModify(
	ctx context.Context,
	reqs []ModifyRequest,
) (ModifyResponse, error) {
	coins := make([]string, len(reqs))
	for i, req := range reqs {
		coins[i] = req.Coin()
	}

	assets, err := resolveAssets(e.info, coins)
	if err != nil {
		return nil, err
	}

	wires := make([]modifyWire, len(reqs))
	for i, req := range reqs {
		wire, err := req.toModifyWire(assets[i])
		if err != nil {
			return nil, err
		}
		wires[i] = wire
	}

	resp, err := postL1Action[ModifyResponse](ctx, e, modifiesToAction(wires))
	if err != nil {
		return nil, err
	}

	return *resp, nil
}

// Cancel cancels a resting order by its order ID.
func (e *Exchange) Cancel(
	ctx context.Context,
	oid int64,
	coin string,
) (CloseStatus, error) {
	statuses, err := e.BulkCancel(ctx, []CancelRequest{
		NewCancelRequest(coin, oid),
	})
	if err != nil {
		return CloseStatus{}, err
	}

	if len(statuses) != 1 {
		return CloseStatus{}, fmt.Errorf(
			"expected one cancel status, got %d",
			len(statuses),
		)
	}

	return statuses[0], nil
}

// BulkCancel cancels a batch of orders under one nonce and one signature.
func (e *Exchange) BulkCancel(
	ctx context.Context,
	reqs []CancelRequest,
) (CancelResponse, error) {
	coins := make([]string, len(reqs))
	for i, req := range reqs {
		coins[i] = req.Coin
	}

	assets, err := resolveAssets(e.info, coins)
	if err != nil {
		return nil, err
	}

	wires := make([]cancelWire, len(reqs))
	for i, req := range reqs {
		wires[i] = req.toCancelWire(assets[i])
	}

	resp, err := postL1Action[CancelResponse](ctx, e, cancelsToAction(wires))
	if err != nil {
		return nil, err
	}

	return *resp, nil
}

// CancelByCloid cancels a resting order by its client order ID.
func (e *Exchange) CancelByCloid(
	ctx context.Context,
	coin string,
	cloid types.Cloid,
) (CloseStatus, error) {
	statuses, err := e.BulkCancelByCloid(ctx, []CancelByCloidRequest{
		NewCancelByCloidRequest(coin, cloid),
	})
	if err != nil {
		return CloseStatus{}, err
	}

	if len(statuses) != 1 {
		return CloseStatus{}, fmt.Errorf(
			"expected one cancel status, got %d",
			len(statuses),
		)
	}

	return statuses[0], nil
}

// BulkCancelByCloid cancels a batch of orders by client order ID under one
// nonce and one signature.
func (e *Exchange) BulkCancelByCloid(
	ctx context.Context,
	reqs []CancelByCloidRequest,
) (CancelResponse, error) {
	coins := make([]string, len(reqs))
	for i, req := range reqs {
		coins[i] = req.Coin
	}

	assets, err := resolveAssets(e.info, coins)
	if err != nil {
		return nil, err
	}

	wires := make([]cancelByCloidWire, len(reqs))
	for i, req := range reqs {
		wires[i] = req.toCancelByCloidWire(assets[i])
	}

	resp, err := postL1Action[CancelResponse](
		ctx,
		e,
		cancelsByCloidToAction(wires),
	)
	if err != nil {
		return nil, err
	}

	return *resp, nil
}

/*//////////////////////////////////////////////////////////////
                       ACCOUNT MANAGEMENT
//////////////////////////////////////////////////////////////*/

// UpdateLeverage sets the leverage for a coin, cross-margin unless
// WithIsCross(false) is given.
func (e *Exchange) UpdateLeverage(
	ctx context.Context,
	coin string,
	leverage int64,
	opts ...UpdateLeverageOption,
) error {
	cfg := updateLeverageConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	asset, err := resolveAsset(e.info, coin)
	if err != nil {
		return err
	}

	act := updateLeverageAction{
		Type:     "updateLeverage",
		Asset:    asset,
		IsCross:  cfg.isCross.OrElse(true),
		Leverage: leverage,
	}

	_, err = postL1Action[DefaultResponse](ctx, e, act)
	return err
}

// UpdateIsolatedMargin adds amount USD to a coin's isolated position, or
// removes it when negative.
func (e *Exchange) UpdateIsolatedMargin(
	ctx context.Context,
	coin string,
	amount float64,
) error {
	asset, err := resolveAsset(e.info, coin)
	if err != nil {
		return err
	}

	act, err := buildUpdateIsolatedMarginAction(asset, amount)
	if err != nil {
		return err
	}

	_, err = postL1Action[DefaultResponse](ctx, e, act)
	return err
}

// ScheduleCancel arms the dead man's switch: all open orders are
// cancelled at the given time. Without WithScheduleCancelTime any armed
// cancel is cleared. The trigger must be at least five seconds out.
func (e *Exchange) ScheduleCancel(
	ctx context.Context,
	opts ...ScheduleCancelOption,
) error {
	cfg := scheduleCancelConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	_, err := postL1Action[DefaultResponse](
		ctx,
		e,
		buildScheduleCancelAction(cfg.time),
	)
	return err
}

// SetReferrer sets the referral code credited for this account's volume.
func (e *Exchange) SetReferrer(ctx context.Context, code string) error {
	act := setReferrerAction{
		Type: "setReferrer",
		Code: code,
	}

	_, err := postL1Action[DefaultResponse](ctx, e, act)
	return err
}

// CreateSubAccountResponse carries the address of a newly created sub
// account.
type CreateSubAccountResponse struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// CreateSubAccount creates a named sub account owned by this account.
func (e *Exchange) CreateSubAccount(
	ctx context.Context,
	name string,
) (CreateSubAccountResponse, error) {
	act := createSubAccountAction{
		Type: "createSubAccount",
		Name: name,
	}

	resp, err := postL1Action[CreateSubAccountResponse](ctx, e, act)
	if err != nil {
		return CreateSubAccountResponse{}, err
	}

	return *resp, nil
}

// Noop does nothing on the server but consumes a nonce, invalidating any
// in-flight action signed with an older one.
func (e *Exchange) Noop(ctx context.Context) error {
	_, err := postL1Action[DefaultResponse](ctx, e, noopAction{Type: "noop"})
	return err
}

/*//////////////////////////////////////////////////////////////
                           TRANSFERS
//////////////////////////////////////////////////////////////*/

// ClassTransfer moves amount USD between the spot and perp balances using
// the legacy spotUser action.
func (e *Exchange) ClassTransfer(
	ctx context.Context,
	amount float64,
	toPerp bool,
) error {
	act, err := buildSpotUserAction(amount, toPerp)
	if err != nil {
		return err
	}

	_, err = postL1Action[DefaultResponse](ctx, e, act)
	return err
}

// SubAccountTransfer moves usd (micro-units) of perp collateral between
// the master account and a sub account.
func (e *Exchange) SubAccountTransfer(
	ctx context.Context,
	subAccount common.Address,
	isDeposit bool,
	usd int64,
) error {
	act := buildSubAccountTransferAction(subAccount, isDeposit, usd)

	_, err := postL1Action[DefaultResponse](ctx, e, act)
	return err
}

// SubAccountSpotTransfer moves a spot token between the master account
// and a sub account.
func (e *Exchange) SubAccountSpotTransfer(
	ctx context.Context,
	subAccount common.Address,
	isDeposit bool,
	token string,
	amount float64,
) error {
	act, err := buildSubAccountSpotTransferAction(
		subAccount,
		isDeposit,
		token,
		amount,
	)
	if err != nil {
		return err
	}

	_, err = postL1Action[DefaultResponse](ctx, e, act)
	return err
}

// VaultTransfer deposits usd (micro-units) into a vault or withdraws from
// it.
func (e *Exchange) VaultTransfer(
	ctx context.Context,
	vault common.Address,
	isDeposit bool,
	usd int64,
) error {
	act := buildVaultTransferAction(vault, isDeposit, usd)

	_, err := postL1Action[DefaultResponse](ctx, e, act)
	return err
}

// UsdClassTransfer moves amount USDC between the spot and perp balances.
// When a vault is configured the transfer applies to the vault.
func (e *Exchange) UsdClassTransfer(
	ctx context.Context,
	amount float64,
	toPerp bool,
) error {
	nonce := e.nonces.next()

	act, err := buildUsdClassTransferAction(
		amount,
		toPerp,
		e.vaultAddress,
		nonce,
		e.networkName(),
	)
	if err != nil {
		return err
	}

	_, err = postUserSignedAction[DefaultResponse](
		ctx,
		e,
		act,
		usdClassTransferSchema,
		nonce,
	)
	return err
}

// UsdTransfer sends amount USDC to another address.
func (e *Exchange) UsdTransfer(
	ctx context.Context,
	amount float64,
	destination common.Address,
) error {
	nonce := e.nonces.next()

	act, err := buildUsdSendAction(amount, destination, nonce, e.networkName())
	if err != nil {
		return err
	}

	_, err = postUserSignedAction[DefaultResponse](
		ctx,
		e,
		act,
		usdSendSchema,
		nonce,
	)
	return err
}

// SpotTransfer sends amount of a spot token to another address. The token
// is the full identifier, like "PURR:0xc4bf3f870c0e9465323c0b6ed28096c2".
func (e *Exchange) SpotTransfer(
	ctx context.Context,
	amount float64,
	destination common.Address,
	token string,
) error {
	nonce := e.nonces.next()

	act, err := buildSpotSendAction(
		amount,
		destination,
		token,
		nonce,
		e.networkName(),
	)
	if err != nil {
		return err
	}

	_, err = postUserSignedAction[DefaultResponse](
		ctx,
		e,
		act,
		spotSendSchema,
		nonce,
	)
	return err
}

// WithdrawFromBridge withdraws amount USDC to the destination address on
// the bridged chain. The bridge charges a fee; the withdrawal is not
// reversible.
func (e *Exchange) WithdrawFromBridge(
	ctx context.Context,
	amount float64,
	destination common.Address,
) error {
	nonce := e.nonces.next()

	act, err := buildWithdrawFromBridgeAction(
		amount,
		destination,
		nonce,
		e.networkName(),
	)
	if err != nil {
		return err
	}

	_, err = postUserSignedAction[DefaultResponse](
		ctx,
		e,
		act,
		withdrawSchema,
		nonce,
	)
	return err
}

// SendAsset moves a token balance between dexes, or to another address.
// When a vault is configured it becomes the sending sub account.
func (e *Exchange) SendAsset(
	ctx context.Context,
	destination common.Address,
	sourceDex string,
	destinationDex string,
	token string,
	amount float64,
) error {
	nonce := e.nonces.next()

	act, err := buildSendAssetAction(
		destination,
		sourceDex,
		destinationDex,
		token,
		amount,
		e.vaultAddress,
		nonce,
		e.networkName(),
	)
	if err != nil {
		return err
	}

	_, err = postUserSignedAction[DefaultResponse](
		ctx,
		e,
		act,
		sendAssetSchema,
		nonce,
	)
	return err
}

// TokenDelegate stakes wei of HYPE with a validator, or unstakes it.
func (e *Exchange) TokenDelegate(
	ctx context.Context,
	validator common.Address,
	wei int64,
	isUndelegate bool,
) error {
	nonce := e.nonces.next()

	act := buildTokenDelegateAction(
		validator,
		wei,
		isUndelegate,
		nonce,
		e.networkName(),
	)

	_, err := postUserSignedAction[DefaultResponse](
		ctx,
		e,
		act,
		tokenDelegateSchema,
		nonce,
	)
	return err
}

/*//////////////////////////////////////////////////////////////
                           APPROVALS
//////////////////////////////////////////////////////////////*/

// ApproveAgent authorizes an agent wallet to sign L1 actions for this
// account. The signature always covers an agent name, empty for an
// unnamed agent; the empty name is dropped from the posted action.
func (e *Exchange) ApproveAgent(
	ctx context.Context,
	agentAddress common.Address,
	opts ...ApproveAgentOption,
) error {
	cfg := approveAgentConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	nonce := e.nonces.next()

	act := buildApproveAgentAction(
		agentAddress,
		cfg.name,
		nonce,
		e.networkName(),
	)

	sig, err := e.signer.SignUserSignedAction(act, approveAgentSchema)
	if err != nil {
		return &SigningError{Type: act.getType(), Err: err}
	}

	if cfg.name.IsNone() {
		act.AgentName = nil
	}

	_, err = postPayload[DefaultResponse](ctx, e, act, signedPayload{
		Action:       act,
		Nonce:        nonce,
		Signature:    sig,
		VaultAddress: vaultForAction(act, e.vaultAddress).ToPointer(),
	})
	return err
}

// ApproveBuilderFee authorizes a builder to collect up to maxFeeRate on
// this account's orders, as a percent string like "0.001%".
func (e *Exchange) ApproveBuilderFee(
	ctx context.Context,
	builder common.Address,
	maxFeeRate string,
) error {
	nonce := e.nonces.next()

	act := buildApproveBuilderFeeAction(
		builder,
		maxFeeRate,
		nonce,
		e.networkName(),
	)

	_, err := postUserSignedAction[DefaultResponse](
		ctx,
		e,
		act,
		approveBuilderFeeSchema,
		nonce,
	)
	return err
}

/*//////////////////////////////////////////////////////////////
                          POST PIPELINE
//////////////////////////////////////////////////////////////*/

// postL1Action draws a nonce, signs under the L1 scheme and posts. The
// vault and expiry the signature covers are the ones the envelope
// carries.
func postL1Action[T any](
	ctx context.Context,
	e *Exchange,
	act action,
) (*T, error) {
	nonce := e.nonces.next()

	vault := vaultForAction(act, e.vaultAddress)
	expiresAt := optionMap(e.expiresAfter, func(d time.Duration) int64 {
		return nonce + d.Milliseconds()
	})

	sig, err := e.signer.SignL1Action(
		act,
		uint64(nonce),
		vault,
		expiresAt,
		e.isMainnet,
	)
	if err != nil {
		return nil, &SigningError{Type: act.getType(), Err: err}
	}

	return postPayload[T](ctx, e, act, signedPayload{
		Action:       act,
		Nonce:        nonce,
		Signature:    sig,
		VaultAddress: vault.ToPointer(),
		ExpiresAfter: expiresAt.ToPointer(),
	})
}

// postUserSignedAction signs a fully built user-signed action and posts
// it. The action already carries its nonce; expiry windows do not apply
// to this scheme.
func postUserSignedAction[T any](
	ctx context.Context,
	e *Exchange,
	act action,
	schema typedSchema,
	nonce int64,
) (*T, error) {
	sig, err := e.signer.SignUserSignedAction(act, schema)
	if err != nil {
		return nil, &SigningError{Type: act.getType(), Err: err}
	}

	return postPayload[T](ctx, e, act, signedPayload{
		Action:       act,
		Nonce:        nonce,
		Signature:    sig,
		VaultAddress: vaultForAction(act, e.vaultAddress).ToPointer(),
	})
}

// postPayload posts a signed envelope and decodes the response, turning
// an application-level rejection into an ActionError.
func postPayload[T any](
	ctx context.Context,
	e *Exchange,
	act action,
	payload signedPayload,
) (*T, error) {
	var resp Response[T]
	err := e.rest.Post(
		ctx,
		"/exchange",
		payload,
		constants.WEIGHT_EXCHANGE,
		&resp,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to post %s action: %w",
			act.getType(),
			err,
		)
	}

	if resp.IsErr() {
		return nil, &ActionError{
			Type:    act.getType(),
			Message: resp.ErrorMessage,
		}
	}

	if resp.Data == nil {
		return nil, fmt.Errorf("empty %s response", act.getType())
	}

	return resp.Data, nil
}
