package types

import (
	"encoding/json"

	"github.com/visvirial/hyperliquid/internal/utils"
)

// FloatString is a float64 that accepts either a JSON string or a JSON
// number. The exchange serializes most prices and sizes as decimal strings.
type FloatString float64

func (f *FloatString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = 0
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := utils.StringToFloat(s)
		if err != nil {
			return err
		}
		*f = FloatString(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FloatString(v)
	return nil
}

// String renders the value in wire form, trailing zeros trimmed.
func (f FloatString) String() string {
	s, _ := utils.FloatToWire(f.Raw())
	return s
}

func (f FloatString) Raw() float64 {
	return float64(f)
}
