package exchange

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
	"github.com/maxatome/go-testdeep/helpers/tdsuite"
	"github.com/maxatome/go-testdeep/td"

	"github.com/visvirial/hyperliquid/constants"
	"github.com/visvirial/hyperliquid/types"
)

// ExchangeIntegrationSuite groups manual integration tests for the
// exchange. They place and cancel real testnet orders, so they need a
// funded testnet wallet.
type ExchangeIntegrationSuite struct {
	privateKey *ecdsa.PrivateKey
	exchange   *Exchange
}

// Setup is called once before any test runs.
func (s *ExchangeIntegrationSuite) Setup(t *td.T) error {
	_ = godotenv.Load("../.env")

	rawKey := os.Getenv("WALLET_PRIVATE_KEY")
	if rawKey == "" {
		return fmt.Errorf("WALLET_PRIVATE_KEY not set in environment")
	}

	privateKey, err := crypto.HexToECDSA(rawKey)
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}

	e, err := New(context.Background(), Config{
		BaseURL:    constants.TESTNET_API_URL,
		PrivateKey: privateKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create exchange client: %w", err)
	}

	s.privateKey = privateKey
	s.exchange = e

	return nil
}

// Test entry point for the suite. Set SKIP_INTEGRATION=true to skip.
func TestExchangeIntegrationSuite(t *testing.T) {
	if os.Getenv("SKIP_INTEGRATION") == "true" {
		t.Skip("skipping ExchangeIntegrationSuite; SKIP_INTEGRATION is set")
	}

	tdsuite.Run(t, &ExchangeIntegrationSuite{})
}

func (s *ExchangeIntegrationSuite) TestOrder(assert, require *td.T) {
	ctx := context.Background()

	// Place an order that should rest by setting the price very low
	orderResponse, err := s.exchange.Order(
		ctx,
		NewOrderRequest(
			"ETH",
			true,
			0.2,
			1100,
			WithLimitOrder(LimitOrder{Tif: TifGtc}),
		),
	)
	require.CmpNoError(err)

	require.NotNil(orderResponse.Resting)
	oid := orderResponse.Resting.Oid

	cancelResponse, err := s.exchange.Cancel(
		ctx,
		oid,
		"ETH",
	)
	require.CmpNoError(err)
	assert.True(cancelResponse.IsSuccess())
}

func (s *ExchangeIntegrationSuite) TestModify(assert, require *td.T) {
	ctx := context.Background()

	cloid := types.HexToCloid("0x00000000000000000000000000000001")

	orderResponse, err := s.exchange.Order(
		ctx,
		NewOrderRequest(
			"ETH",
			true,
			0.2,
			1100,
			WithLimitOrder(LimitOrder{Tif: TifGtc}),
			WithCloid(cloid),
		),
	)
	require.CmpNoError(err)

	require.NotNil(orderResponse.Resting)
	oid := orderResponse.Resting.Oid

	modifyResponse, err := s.exchange.ModifyOrder(
		ctx,
		NewModifyRequest(
			NewOrderRequest(
				"ETH",
				true,
				0.1,
				1105,
				WithLimitOrder(LimitOrder{Tif: TifGtc}),
				WithCloid(cloid),
			),
			WithModifyOrderId(oid),
		),
	)
	require.CmpNoError(err)

	require.NotNil(modifyResponse.Resting)
	newOid := modifyResponse.Resting.Oid

	cancelResponse, err := s.exchange.Cancel(
		ctx,
		newOid,
		"ETH",
	)
	require.CmpNoError(err)
	assert.True(cancelResponse.IsSuccess())
}

func (s *ExchangeIntegrationSuite) TestScheduleCancel(assert, require *td.T) {
	ctx := context.Background()

	// Arm the dead man's switch a minute out, then disarm it.
	err := s.exchange.ScheduleCancel(
		ctx,
		WithScheduleCancelTime(time.Now().Add(time.Minute)),
	)
	require.CmpNoError(err)

	err = s.exchange.ScheduleCancel(ctx)
	assert.CmpNoError(err)
}
