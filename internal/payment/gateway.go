// Package payment abstracts the payment provider behind an order/poll
// contract.  Two gateways exist: a simulated one that treats every order
// as pre-paid and an HTTP one that talks to a real provider.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrGatewayUnavailable marks transport, provider and timeout failures.
	// It never means "not paid".
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrInvalidAmount is returned for non-positive order amounts.
	ErrInvalidAmount = errors.New("order amount must be positive")
)

// Order is a request for a payable order.
type Order struct {
	OrderRef    string // idempotency key, unique per session
	AmountMinor int64  // amount in the smallest currency unit
	Description string
}

// OrderResult is what the provider hands back for a created order.
type OrderResult struct {
	PayToken  string // opaque token the client pays with, e.g. a QR payment URI
	Simulated bool   // no real money moves; the order counts as paid
}

// OrderState is the settlement state of a previously created order.
type OrderState struct {
	Settled bool
}

// Gateway is the order/poll contract every payment provider implements.
// QueryOrder must be side-effect free and safe for concurrent callers.
type Gateway interface {
	CreateOrder(ctx context.Context, o Order) (OrderResult, error)
	QueryOrder(ctx context.Context, orderRef string) (OrderState, error)
}
