package exchange

import (
	"sync"
	"testing"
	"time"
)

func TestNonceTracksWallClock(t *testing.T) {
	var n nonceSource

	before := time.Now().UnixMilli()
	nonce := n.next()
	after := time.Now().UnixMilli()

	if nonce < before {
		t.Fatalf("nonce %d behind wall clock %d", nonce, before)
	}
	if nonce > after {
		t.Fatalf("nonce %d ahead of wall clock %d", nonce, after)
	}
}

func TestNonceStrictlyIncreasing(t *testing.T) {
	var n nonceSource

	prev := n.next()
	for i := 0; i < 10_000; i++ {
		nonce := n.next()
		if nonce <= prev {
			t.Fatalf("nonce %d not greater than previous %d", nonce, prev)
		}
		prev = nonce
	}
}

func TestNonceAdvancesPastClockRegression(t *testing.T) {
	var n nonceSource

	future := time.Now().UnixMilli() + 10_000
	n.last.Store(future)

	nonce := n.next()
	if nonce != future+1 {
		t.Fatalf("expected %d after clock regression, got %d", future+1, nonce)
	}
}

func TestNonceConcurrentDrawsUnique(t *testing.T) {
	var n nonceSource

	const workers = 8
	const draws = 1_000

	results := make([][]int64, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			drawn := make([]int64, draws)
			for i := 0; i < draws; i++ {
				drawn[i] = n.next()
			}
			results[w] = drawn
		}(w)
	}
	wg.Wait()

	seen := make(map[int64]bool, workers*draws)
	for w, drawn := range results {
		prev := int64(0)
		for i, nonce := range drawn {
			if nonce <= prev {
				t.Fatalf(
					"worker %d draw %d: nonce %d not greater than previous %d",
					w, i, nonce, prev,
				)
			}
			prev = nonce

			if seen[nonce] {
				t.Fatalf("nonce %d drawn twice", nonce)
			}
			seen[nonce] = true
		}
	}
}
