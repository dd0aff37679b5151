package exchange

import (
	"sync/atomic"
	"time"
)

// nonceSource hands out the millisecond timestamps used as action nonces.
// The exchange requires nonces to be within about a day of server time and
// increasing per wallet, so two actions built in the same millisecond must
// not share one. next bumps past the previous value whenever the clock
// hasn't moved.
type nonceSource struct {
	last atomic.Int64
}

func (n *nonceSource) next() int64 {
	for {
		now := time.Now().UnixMilli()
		prev := n.last.Load()
		if prev >= now {
			now = prev + 1
		}
		if n.last.CompareAndSwap(prev, now) {
			return now
		}
	}
}
