package exchange

import (
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/mo"

	"github.com/visvirial/hyperliquid/internal/utils"
	"github.com/visvirial/hyperliquid/types"
)

/*//////////////////////////////////////////////////////////////
                          ORDER TYPES
//////////////////////////////////////////////////////////////*/

// Time-in-force values for limit orders.
const (
	TifAlo = "Alo"
	TifIoc = "Ioc"
	TifGtc = "Gtc"
)

// Trigger directions for stop and take-profit orders.
const (
	TpslTakeProfit = "tp"
	TpslStopLoss   = "sl"
)

type OrderType struct {
	Limit   *LimitOrder
	Trigger *TriggerOrder
}

type LimitOrder struct {
	Tif string `json:"tif"`
}

type TriggerOrder struct {
	IsMarket  bool
	TriggerPx float64
	TpSl      string
}

type orderTypeWire struct {
	Limit   *LimitOrder       `json:"limit,omitempty"`
	Trigger *triggerOrderWire `json:"trigger,omitempty"`
}

type triggerOrderWire struct {
	IsMarket  bool   `json:"isMarket"`
	TriggerPx string `json:"triggerPx"`
	TpSl      string `json:"tpsl"`
}

// toOrderTypeWire converts OrderType to wire format
func (t OrderType) toOrderTypeWire() (orderTypeWire, error) {
	wire := orderTypeWire{}

	switch {
	case t.Limit != nil:
		wire.Limit = &LimitOrder{
			Tif: t.Limit.Tif,
		}
	case t.Trigger != nil:
		triggerPxStr, err := utils.FloatToWire(t.Trigger.TriggerPx)
		if err != nil {
			return orderTypeWire{}, fmt.Errorf(
				"failed to convert trigger price: %w",
				err,
			)
		}

		wire.Trigger = &triggerOrderWire{
			IsMarket:  t.Trigger.IsMarket,
			TriggerPx: triggerPxStr,
			TpSl:      t.Trigger.TpSl,
		}
	default:
		return orderTypeWire{}, fmt.Errorf(
			"order type must set either limit or trigger",
		)
	}

	return wire, nil
}

/*//////////////////////////////////////////////////////////////
                         ORDER REQUEST
//////////////////////////////////////////////////////////////*/

// OrderRequest describes a single order before the coin is resolved to an
// asset index. Build one with NewOrderRequest.
type OrderRequest struct {
	coin       string
	isBuy      bool
	sz         float64
	limitPx    float64
	orderType  OrderType
	reduceOnly bool
	cloid      mo.Option[types.Cloid]
}

type orderRequestOption func(*orderRequestConfig)

type orderRequestConfig struct {
	reduceOnly   bool
	cloid        mo.Option[types.Cloid]
	limitOrder   mo.Option[LimitOrder]
	triggerOrder mo.Option[TriggerOrder]
}

// NewOrderRequest creates an order request. One of WithLimitOrder or
// WithTriggerOrder must be given; a request without an order type fails
// when it is sent.
func NewOrderRequest(
	coin string,
	isBuy bool,
	sz float64,
	limitPx float64,
	opts ...orderRequestOption,
) OrderRequest {
	cfg := orderRequestConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var orderType OrderType
	if l, ok := cfg.limitOrder.Get(); ok {
		orderType.Limit = &l
	} else if t, ok := cfg.triggerOrder.Get(); ok {
		orderType.Trigger = &t
	}

	return OrderRequest{
		coin:       coin,
		isBuy:      isBuy,
		sz:         sz,
		limitPx:    limitPx,
		orderType:  orderType,
		reduceOnly: cfg.reduceOnly,
		cloid:      cfg.cloid,
	}
}

// WithReduceOnly sets the reduce-only flag
func WithReduceOnly(reduceOnly bool) orderRequestOption {
	return func(cfg *orderRequestConfig) {
		cfg.reduceOnly = reduceOnly
	}
}

// WithCloid sets the client order ID
func WithCloid(c types.Cloid) orderRequestOption {
	return func(cfg *orderRequestConfig) {
		cfg.cloid = mo.Some(c)
	}
}

func withCloid(c mo.Option[types.Cloid]) orderRequestOption {
	return func(cfg *orderRequestConfig) {
		cfg.cloid = c
	}
}

func WithLimitOrder(limitOrder LimitOrder) orderRequestOption {
	return func(cfg *orderRequestConfig) {
		cfg.limitOrder = mo.Some(limitOrder)
	}
}

func WithTriggerOrder(triggerOrder TriggerOrder) orderRequestOption {
	return func(cfg *orderRequestConfig) {
		cfg.triggerOrder = mo.Some(triggerOrder)
	}
}

// Coin returns the coin the order targets.
func (o OrderRequest) Coin() string {
	return o.coin
}

type orderWire struct {
	A int64         `json:"a"`
	B bool          `json:"b"`
	P string        `json:"p"`
	S string        `json:"s"`
	R bool          `json:"r"`
	T orderTypeWire `json:"t"`
	C *types.Cloid  `json:"c,omitempty"`
}

// toOrderWire converts an OrderRequest to wire format
func (o OrderRequest) toOrderWire(assetId int64) (orderWire, error) {
	sizeStr, err := utils.FloatToWire(o.sz)
	if err != nil {
		return orderWire{}, fmt.Errorf("failed to convert size: %w", err)
	}

	priceStr, err := utils.FloatToWire(o.limitPx)
	if err != nil {
		return orderWire{}, fmt.Errorf("failed to convert limit price: %w", err)
	}

	orderTypeWire, err := o.orderType.toOrderTypeWire()
	if err != nil {
		return orderWire{}, fmt.Errorf("failed to convert order type: %w", err)
	}

	return orderWire{
		A: assetId,
		B: o.isBuy,
		P: priceStr,
		S: sizeStr,
		R: o.reduceOnly,
		T: orderTypeWire,
		C: o.cloid.ToPointer(),
	}, nil
}

/*//////////////////////////////////////////////////////////////
                         ORDER ACTION
//////////////////////////////////////////////////////////////*/

type BuilderInfo struct {
	// Public address of the builder
	PublicAddress common.Address
	// Amount of the fee in tenths of basis points.
	// eg. 10 means 1 basis point
	FeeAmount int64
}

// builderWire renders the builder address as the lowercase string the
// signed bytes must contain.
type builderWire struct {
	B string `json:"b"`
	F int64  `json:"f"`
}

func (b BuilderInfo) toBuilderWire() builderWire {
	return builderWire{
		B: strings.ToLower(b.PublicAddress.Hex()),
		F: b.FeeAmount,
	}
}

type orderAction struct {
	Type     string        `json:"type"`
	Orders   []orderWire   `json:"orders"`
	Grouping OrderGrouping `json:"grouping"`
	Builder  *builderWire  `json:"builder,omitempty"`
}

type OrderGrouping string

const (
	OrderGroupingNA           = "na"
	OrderGroupingNormalTpSl   = "normalTpsl"
	OrderGroupingPositionTpSl = "positionTpsl"
)

func (o orderAction) getType() string {
	return o.Type
}

func ordersToAction(
	orders []orderWire,
	builder mo.Option[BuilderInfo],
	grouping mo.Option[OrderGrouping],
) orderAction {
	action := orderAction{
		Type:   "order",
		Orders: orders,
	}

	if g, ok := grouping.Get(); ok {
		action.Grouping = g
	} else {
		action.Grouping = OrderGroupingNA
	}

	if b, ok := builder.Get(); ok {
		wire := b.toBuilderWire()
		action.Builder = &wire
	}

	return action
}

/*//////////////////////////////////////////////////////////////
                        MODIFY REQUEST
//////////////////////////////////////////////////////////////*/

// ModifyRequest replaces a resting order, located by order ID or by client
// order ID, with a new order.
type ModifyRequest struct {
	oid   mo.Option[int64]
	cloid mo.Option[types.Cloid]
	order OrderRequest
}

type modifyRequestOption func(*modifyRequestConfig)

type modifyRequestConfig struct {
	oid   mo.Option[int64]
	cloid mo.Option[types.Cloid]
}

// NewModifyRequest creates a modify request. One of WithModifyOrderId or
// WithModifyCloid must be given.
func NewModifyRequest(
	order OrderRequest,
	opts ...modifyRequestOption,
) ModifyRequest {
	cfg := modifyRequestConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return ModifyRequest{
		oid:   cfg.oid,
		cloid: cfg.cloid,
		order: order,
	}
}

func WithModifyOrderId(id int64) modifyRequestOption {
	return func(cfg *modifyRequestConfig) {
		cfg.oid = mo.Some(id)
	}
}

func WithModifyCloid(c types.Cloid) modifyRequestOption {
	return func(cfg *modifyRequestConfig) {
		cfg.cloid = mo.Some(c)
	}
}

// Coin returns the coin of the replacement order.
func (m ModifyRequest) Coin() string {
	return m.order.coin
}

// toModifyWire converts a ModifyRequest to wire format. The oid slot holds
// either the numeric order ID or the cloid string.
func (m ModifyRequest) toModifyWire(assetId int64) (modifyWire, error) {
	wire, err := m.order.toOrderWire(assetId)
	if err != nil {
		return modifyWire{}, fmt.Errorf(
			"failed to convert order to wire: %w",
			err,
		)
	}

	var oid any
	if o, ok := m.oid.Get(); ok {
		oid = o
	} else if c, ok := m.cloid.Get(); ok {
		oid = c
	} else {
		return modifyWire{}, fmt.Errorf(
			"either order ID or CLOID must be provided",
		)
	}

	return modifyWire{
		Oid:   oid,
		Order: wire,
	}, nil
}

type modifyWire struct {
	Oid   any       `json:"oid"`
	Order orderWire `json:"order"`
}

// modifyAction replaces a single order.
type modifyAction struct {
	Type  string    `json:"type"`
	Oid   any       `json:"oid"`
	Order orderWire `json:"order"`
}

func (m modifyAction) getType() string {
	return m.Type
}

func modifyToAction(m modifyWire) modifyAction {
	return modifyAction{
		Type:  "modify",
		Oid:   m.Oid,
		Order: m.Order,
	}
}

type batchModifyAction struct {
	Type     string       `json:"type"`
	Modifies []modifyWire `json:"modifies"`
}

func (b batchModifyAction) getType() string {
	return b.Type
}

func modifiesToAction(modifies []modifyWire) batchModifyAction {
	return batchModifyAction{
		Type:     "batchModify",
		Modifies: modifies,
	}
}

/*//////////////////////////////////////////////////////////////
                        CANCEL REQUESTS
//////////////////////////////////////////////////////////////*/

// CancelRequest cancels a resting order by its order ID.
type CancelRequest struct {
	Coin string
	Oid  int64
}

func NewCancelRequest(coin string, oid int64) CancelRequest {
	return CancelRequest{
		Coin: coin,
		Oid:  oid,
	}
}

type cancelWire struct {
	AssetId int64 `json:"a"`
	Oid     int64 `json:"o"`
}

func (c CancelRequest) toCancelWire(assetId int64) cancelWire {
	return cancelWire{
		AssetId: assetId,
		Oid:     c.Oid,
	}
}

type cancelAction struct {
	Type    string       `json:"type"`
	Cancels []cancelWire `json:"cancels"`
}

func (c cancelAction) getType() string {
	return c.Type
}

func cancelsToAction(cancels []cancelWire) cancelAction {
	return cancelAction{
		Type:    "cancel",
		Cancels: cancels,
	}
}

// CancelByCloidRequest cancels a resting order by its client order ID.
type CancelByCloidRequest struct {
	Coin  string
	Cloid types.Cloid
}

func NewCancelByCloidRequest(
	coin string,
	cloid types.Cloid,
) CancelByCloidRequest {
	return CancelByCloidRequest{
		Coin:  coin,
		Cloid: cloid,
	}
}

type cancelByCloidWire struct {
	AssetId int64       `json:"asset"`
	Cloid   types.Cloid `json:"cloid"`
}

func (c CancelByCloidRequest) toCancelByCloidWire(
	assetId int64,
) cancelByCloidWire {
	return cancelByCloidWire{
		AssetId: assetId,
		Cloid:   c.Cloid,
	}
}

type cancelByCloidAction struct {
	Type    string              `json:"type"`
	Cancels []cancelByCloidWire `json:"cancels"`
}

func (c cancelByCloidAction) getType() string {
	return c.Type
}

func cancelsByCloidToAction(cancels []cancelByCloidWire) cancelByCloidAction {
	return cancelByCloidAction{
		Type:    "cancelByCloid",
		Cancels: cancels,
	}
}

/*//////////////////////////////////////////////////////////////
                        MARKET REQUESTS
//////////////////////////////////////////////////////////////*/

// MarketOpenRequest opens a position with an aggressive IoC order priced
// off the current mid.
type MarketOpenRequest struct {
	coin     string
	isBuy    bool
	sz       float64
	px       mo.Option[float64]
	slippage mo.Option[float64]
	cloid    mo.Option[types.Cloid]
}

type marketOpenRequestOption func(*marketOpenRequestConfig)

type marketOpenRequestConfig struct {
	px       mo.Option[float64]
	slippage mo.Option[float64]
	cloid    mo.Option[types.Cloid]
}

func NewMarketOpenRequest(
	coin string,
	isBuy bool,
	sz float64,
	opts ...marketOpenRequestOption,
) MarketOpenRequest {
	cfg := marketOpenRequestConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return MarketOpenRequest{
		coin:     coin,
		isBuy:    isBuy,
		sz:       sz,
		px:       cfg.px,
		slippage: cfg.slippage,
		cloid:    cfg.cloid,
	}
}

// WithMarketPrice overrides the mid price the slippage is applied to
func WithMarketPrice(px float64) marketOpenRequestOption {
	return func(cfg *marketOpenRequestConfig) {
		cfg.px = mo.Some(px)
	}
}

// WithMarketSlippage sets the slippage tolerance for a market order
func WithMarketSlippage(slippage float64) marketOpenRequestOption {
	return func(cfg *marketOpenRequestConfig) {
		cfg.slippage = mo.Some(slippage)
	}
}

// WithMarketCloid sets the client order ID for a market order
func WithMarketCloid(c types.Cloid) marketOpenRequestOption {
	return func(cfg *marketOpenRequestConfig) {
		cfg.cloid = mo.Some(c)
	}
}

// toOrderRequest prices the market order and lowers it to a plain IoC
// limit order.
func (m MarketOpenRequest) toOrderRequest(px float64) OrderRequest {
	return NewOrderRequest(
		m.coin,
		m.isBuy,
		m.sz,
		px,
		WithLimitOrder(LimitOrder{Tif: TifIoc}),
		WithReduceOnly(false),
		withCloid(m.cloid),
	)
}

// MarketCloseRequest closes a position with an aggressive IoC order. szi is
// the signed position size as reported by the clearinghouse; the close
// order takes the opposite side.
type MarketCloseRequest struct {
	coin     string
	szi      float64
	sz       mo.Option[float64]
	px       mo.Option[float64]
	slippage mo.Option[float64]
	cloid    mo.Option[types.Cloid]
}

type marketCloseRequestOption func(*marketCloseRequestConfig)

type marketCloseRequestConfig struct {
	sz       mo.Option[float64]
	px       mo.Option[float64]
	slippage mo.Option[float64]
	cloid    mo.Option[types.Cloid]
}

func NewMarketCloseRequest(
	coin string,
	szi float64,
	opts ...marketCloseRequestOption,
) MarketCloseRequest {
	cfg := marketCloseRequestConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	return MarketCloseRequest{
		coin:     coin,
		szi:      szi,
		sz:       cfg.sz,
		px:       cfg.px,
		slippage: cfg.slippage,
		cloid:    cfg.cloid,
	}
}

// WithMarketCloseSize closes only part of the position
func WithMarketCloseSize(sz float64) marketCloseRequestOption {
	return func(cfg *marketCloseRequestConfig) {
		cfg.sz = mo.Some(sz)
	}
}

// WithMarketClosePrice overrides the mid price the slippage is applied to
func WithMarketClosePrice(px float64) marketCloseRequestOption {
	return func(cfg *marketCloseRequestConfig) {
		cfg.px = mo.Some(px)
	}
}

// WithMarketCloseSlippage sets the slippage tolerance for a market close
// request
func WithMarketCloseSlippage(slippage float64) marketCloseRequestOption {
	return func(cfg *marketCloseRequestConfig) {
		cfg.slippage = mo.Some(slippage)
	}
}

// WithMarketCloseCloid sets the client order ID for a market close request
func WithMarketCloseCloid(c types.Cloid) marketCloseRequestOption {
	return func(cfg *marketCloseRequestConfig) {
		cfg.cloid = mo.Some(c)
	}
}

// isBuy reports the side that reduces the position.
func (m MarketCloseRequest) isBuy() bool {
	return m.szi < 0
}

// closeSize is the unsigned size to close, the whole position by default.
func (m MarketCloseRequest) closeSize() float64 {
	if sz, ok := m.sz.Get(); ok {
		return sz
	}
	return math.Abs(m.szi)
}

// toOrderRequest prices the close and lowers it to a plain IoC limit
// order.
func (m MarketCloseRequest) toOrderRequest(px float64) OrderRequest {
	return NewOrderRequest(
		m.coin,
		m.isBuy(),
		m.closeSize(),
		px,
		WithLimitOrder(LimitOrder{Tif: TifIoc}),
		WithReduceOnly(true),
		withCloid(m.cloid),
	)
}
