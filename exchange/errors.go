package exchange

import "fmt"

// UnknownSymbolError is returned when a coin has no entry in the asset
// directory. Nothing is signed or sent when this happens.
type UnknownSymbolError struct {
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol: %s", e.Symbol)
}

// SigningError wraps a failure from hashing or signing an action.
type SigningError struct {
	Type string
	Err  error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign %s action: %v", e.Type, e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

// ActionError is an application-level rejection from the exchange. The
// request reached the server and was refused, so the nonce is spent.
type ActionError struct {
	Type    string
	Message string
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s action rejected: %s", e.Type, e.Message)
}
