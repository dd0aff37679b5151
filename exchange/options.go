package exchange

import (
	"time"

	"github.com/samber/mo"
)

/*//////////////////////////////////////////////////////////////
                             ORDER
//////////////////////////////////////////////////////////////*/

// CreateOrderOption is a functional option for Order operations
type CreateOrderOption func(*createOrderConfig)

type createOrderConfig struct {
	builder  mo.Option[BuilderInfo]
	grouping mo.Option[OrderGrouping]
}

func newCreateOrderConfig(opts ...CreateOrderOption) createOrderConfig {
	cfg := createOrderConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithOrderBuilderInfo routes the order through a builder who collects an
// approved fee
func WithOrderBuilderInfo(builder BuilderInfo) CreateOrderOption {
	return func(cfg *createOrderConfig) {
		cfg.builder = mo.Some(builder)
	}
}

// WithOrderGrouping groups the batch for TP/SL bracket handling
func WithOrderGrouping(grouping OrderGrouping) CreateOrderOption {
	return func(cfg *createOrderConfig) {
		cfg.grouping = mo.Some(grouping)
	}
}

/*//////////////////////////////////////////////////////////////
                            LEVERAGE
//////////////////////////////////////////////////////////////*/

// UpdateLeverageOption is a functional option for leverage updates
type UpdateLeverageOption func(*updateLeverageConfig)

type updateLeverageConfig struct {
	isCross mo.Option[bool]
}

// WithIsCross selects cross margin (the default) or isolated margin
func WithIsCross(isCross bool) UpdateLeverageOption {
	return func(cfg *updateLeverageConfig) {
		cfg.isCross = mo.Some(isCross)
	}
}

/*//////////////////////////////////////////////////////////////
                        SCHEDULE CANCEL
//////////////////////////////////////////////////////////////*/

// ScheduleCancelOption is a functional option for the dead man's switch
type ScheduleCancelOption func(*scheduleCancelConfig)

type scheduleCancelConfig struct {
	time mo.Option[time.Time]
}

// WithScheduleCancelTime sets the time at which all open orders are
// cancelled. Without it the scheduled cancel is cleared.
func WithScheduleCancelTime(t time.Time) ScheduleCancelOption {
	return func(cfg *scheduleCancelConfig) {
		cfg.time = mo.Some(t)
	}
}

/*//////////////////////////////////////////////////////////////
                         APPROVE AGENT
//////////////////////////////////////////////////////////////*/

// ApproveAgentOption is a functional option for approve agent operations
type ApproveAgentOption func(*approveAgentConfig)

type approveAgentConfig struct {
	name mo.Option[string]
}

// WithAgentName names the agent. Unnamed agents are replaced by the next
// unnamed approval
func WithAgentName(name string) ApproveAgentOption {
	return func(cfg *approveAgentConfig) {
		cfg.name = mo.Some(name)
	}
}
