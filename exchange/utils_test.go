package exchange

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samber/mo"
)

func TestSlippagePriceBuyFromMid(t *testing.T) {
	e := &Exchange{info: testDirectory()}

	px, err := e.slippagePrice(
		context.Background(),
		"BTC",
		true,
		DEFAULT_SLIPPAGE,
		mo.None[float64](),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 27000 * 1.05, already within five significant figures
	if math.Abs(px-28350) > 1e-9 {
		t.Fatalf("expected 28350, got %v", px)
	}
}

func TestSlippagePriceSellFromMid(t *testing.T) {
	e := &Exchange{info: testDirectory()}

	px, err := e.slippagePrice(
		context.Background(),
		"ETH",
		false,
		DEFAULT_SLIPPAGE,
		mo.None[float64](),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1670.1 * 0.95 = 1586.595, rounded to five significant figures
	if math.Abs(px-1586.6) > 1e-9 {
		t.Fatalf("expected 1586.6, got %v", px)
	}
}

func TestSlippagePriceOverrideSkipsMids(t *testing.T) {
	dir := testDirectory()
	dir.midsErr = errors.New("mids must not be fetched")
	e := &Exchange{info: dir}

	px, err := e.slippagePrice(
		context.Background(),
		"ETH",
		true,
		DEFAULT_SLIPPAGE,
		mo.Some(float64(1000)),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(px-1050) > 1e-9 {
		t.Fatalf("expected 1050, got %v", px)
	}
}

func TestSlippagePriceSpotDecimals(t *testing.T) {
	e := &Exchange{info: testDirectory()}

	px, err := e.slippagePrice(
		context.Background(),
		"PURR/USDC",
		true,
		DEFAULT_SLIPPAGE,
		mo.None[float64](),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(px-0.21) > 1e-9 {
		t.Fatalf("expected 0.21, got %v", px)
	}
}

func TestSlippagePriceUnknownSymbol(t *testing.T) {
	e := &Exchange{info: testDirectory()}

	_, err := e.slippagePrice(
		context.Background(),
		"DOGE",
		true,
		DEFAULT_SLIPPAGE,
		mo.Some(float64(1000)),
	)
	if err == nil {
		t.Fatal("expected error for unknown symbol, got nil")
	}

	var unknownErr *UnknownSymbolError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownSymbolError, got %T", err)
	}
}

func TestSlippagePriceMidsError(t *testing.T) {
	dir := testDirectory()
	dir.midsErr = errors.New("info unavailable")
	e := &Exchange{info: dir}

	_, err := e.slippagePrice(
		context.Background(),
		"ETH",
		true,
		DEFAULT_SLIPPAGE,
		mo.None[float64](),
	)
	if err == nil {
		t.Fatal("expected error when mids fetch fails, got nil")
	}
}

func TestOptionMap(t *testing.T) {
	doubled := optionMap(mo.Some(21), func(v int) int { return v * 2 })
	if got, ok := doubled.Get(); !ok || got != 42 {
		t.Fatalf("expected Some(42), got %v", doubled)
	}

	empty := optionMap(mo.None[int](), func(v int) int { return v * 2 })
	if empty.IsPresent() {
		t.Fatalf("expected None, got %v", empty)
	}
}
