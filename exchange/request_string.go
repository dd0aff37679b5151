package exchange

import (
	"fmt"
	"strings"
)

// String implements fmt.Stringer for OrderRequest
func (o OrderRequest) String() string {
	cloid := ""
	if c, ok := o.cloid.Get(); ok {
		cloid = c.String()
	}

	return fmt.Sprintf(
		"OrderRequest{\n"+
			"  Coin:       %s\n"+
			"  IsBuy:      %v\n"+
			"  Sz:         %g\n"+
			"  LimitPx:    %g\n"+
			"  OrderType:  %s\n"+
			"  ReduceOnly: %v\n"+
			"  Cloid:      %s\n"+
			"}",
		o.coin, o.isBuy, o.sz, o.limitPx, indentString(o.orderType.String(), 2),
		o.reduceOnly, cloid,
	)
}

// String implements fmt.Stringer for OrderType
func (o OrderType) String() string {
	if o.Limit != nil {
		return fmt.Sprintf("OrderType{Limit: %s}", o.Limit)
	}
	if o.Trigger != nil {
		return fmt.Sprintf("OrderType{Trigger: %s}", o.Trigger)
	}
	return "OrderType{}"
}

// String implements fmt.Stringer for LimitOrder
func (l LimitOrder) String() string {
	return fmt.Sprintf(
		"LimitOrder{\n"+
			"  Tif: %s\n"+
			"}",
		l.Tif,
	)
}

// String implements fmt.Stringer for TriggerOrder
func (t TriggerOrder) String() string {
	return fmt.Sprintf(
		"TriggerOrder{\n"+
			"  IsMarket:  %v\n"+
			"  TriggerPx: %g\n"+
			"  TpSl:      %s\n"+
			"}",
		t.IsMarket, t.TriggerPx, t.TpSl,
	)
}

// String implements fmt.Stringer for BuilderInfo
func (b BuilderInfo) String() string {
	return fmt.Sprintf(
		"BuilderInfo{\n"+
			"  PublicAddress: %s\n"+
			"  FeeAmount:     %d\n"+
			"}",
		b.PublicAddress.Hex(), b.FeeAmount,
	)
}

// String implements fmt.Stringer for ModifyRequest
func (m ModifyRequest) String() string {
	oid := ""
	if id, ok := m.oid.Get(); ok {
		oid = fmt.Sprintf("%d", id)
	}

	cloid := ""
	if c, ok := m.cloid.Get(); ok {
		cloid = c.String()
	}

	return fmt.Sprintf(
		"ModifyRequest{\n"+
			"  Oid:   %s\n"+
			"  Cloid: %s\n"+
			"  Order: %s\n"+
			"}",
		oid, cloid, indentString(m.order.String(), 2),
	)
}

// String implements fmt.Stringer for CancelRequest
func (c CancelRequest) String() string {
	return fmt.Sprintf(
		"CancelRequest{\n"+
			"  Coin: %s\n"+
			"  Oid:  %d\n"+
			"}",
		c.Coin, c.Oid,
	)
}

// String implements fmt.Stringer for CancelByCloidRequest
func (c CancelByCloidRequest) String() string {
	return fmt.Sprintf(
		"CancelByCloidRequest{\n"+
			"  Coin:  %s\n"+
			"  Cloid: %s\n"+
			"}",
		c.Coin, c.Cloid.String(),
	)
}

// String implements fmt.Stringer for orderWire
func (o orderWire) String() string {
	cloid := ""
	if o.C != nil {
		cloid = o.C.String()
	}

	return fmt.Sprintf(
		"orderWire{\n"+
			"  A: %d\n"+
			"  B: %v\n"+
			"  P: %s\n"+
			"  S: %s\n"+
			"  R: %v\n"+
			"  T: %s\n"+
			"  C: %s\n"+
			"}",
		o.A, o.B, o.P, o.S, o.R, indentString(o.T.String(), 2), cloid,
	)
}

// String implements fmt.Stringer for orderTypeWire
func (o orderTypeWire) String() string {
	if o.Limit != nil {
		return fmt.Sprintf("orderTypeWire{Limit: %s}", o.Limit)
	}
	if o.Trigger != nil {
		return fmt.Sprintf("orderTypeWire{Trigger: %s}", o.Trigger)
	}
	return "orderTypeWire{}"
}

// String implements fmt.Stringer for triggerOrderWire
func (t triggerOrderWire) String() string {
	return fmt.Sprintf(
		"triggerOrderWire{\n"+
			"  IsMarket:  %v\n"+
			"  TriggerPx: %s\n"+
			"  TpSl:      %s\n"+
			"}",
		t.IsMarket, t.TriggerPx, t.TpSl,
	)
}

// String implements fmt.Stringer for modifyWire
func (m modifyWire) String() string {
	return fmt.Sprintf(
		"modifyWire{\n"+
			"  Oid:   %v\n"+
			"  Order: %s\n"+
			"}",
		m.Oid, indentString(m.Order.String(), 2),
	)
}

// String implements fmt.Stringer for cancelWire
func (c cancelWire) String() string {
	return fmt.Sprintf(
		"cancelWire{\n"+
			"  AssetId: %d\n"+
			"  Oid:     %d\n"+
			"}",
		c.AssetId, c.Oid,
	)
}

// String implements fmt.Stringer for cancelByCloidWire
func (c cancelByCloidWire) String() string {
	return fmt.Sprintf(
		"cancelByCloidWire{\n"+
			"  AssetId: %d\n"+
			"  Cloid:   %s\n"+
			"}",
		c.AssetId, c.Cloid.String(),
	)
}

// String implements fmt.Stringer for orderAction
func (o orderAction) String() string {
	builder := ""
	if o.Builder != nil {
		builder = fmt.Sprintf("%s:%d", o.Builder.B, o.Builder.F)
	}

	return fmt.Sprintf(
		"orderAction{\n"+
			"  Type:     %s\n"+
			"  Orders:   %s\n"+
			"  Grouping: %s\n"+
			"  Builder:  %s\n"+
			"}",
		o.Type, formatWireSlice(o.Orders), o.Grouping, builder,
	)
}

// String implements fmt.Stringer for cancelAction
func (c cancelAction) String() string {
	return fmt.Sprintf(
		"cancelAction{\n"+
			"  Type:    %s\n"+
			"  Cancels: %s\n"+
			"}",
		c.Type, formatWireSlice(c.Cancels),
	)
}

// String implements fmt.Stringer for cancelByCloidAction
func (c cancelByCloidAction) String() string {
	return fmt.Sprintf(
		"cancelByCloidAction{\n"+
			"  Type:    %s\n"+
			"  Cancels: %s\n"+
			"}",
		c.Type, formatWireSlice(c.Cancels),
	)
}

// String implements fmt.Stringer for modifyAction
func (m modifyAction) String() string {
	return fmt.Sprintf(
		"modifyAction{\n"+
			"  Type:  %s\n"+
			"  Oid:   %v\n"+
			"  Order: %s\n"+
			"}",
		m.Type, m.Oid, indentString(m.Order.String(), 2),
	)
}

// String implements fmt.Stringer for batchModifyAction
func (b batchModifyAction) String() string {
	return fmt.Sprintf(
		"batchModifyAction{\n"+
			"  Type:     %s\n"+
			"  Modifies: %s\n"+
			"}",
		b.Type, formatWireSlice(b.Modifies),
	)
}

// Helper functions

func indentString(s string, spaces int) string {
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func formatWireSlice[T fmt.Stringer](wires []T) string {
	if len(wires) == 0 {
		return "[]"
	}
	var buf strings.Builder
	buf.WriteString("[\n")
	for i, wire := range wires {
		buf.WriteString(fmt.Sprintf("    %s", indentString(wire.String(), 4)))
		if i < len(wires)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("  ]")
	return buf.String()
}
