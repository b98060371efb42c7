package payment

import (
	"context"
	"net/url"
)

// SimulatedGateway auto-settles every order.  It is used outside
// production so the full flow can be exercised without a merchant account.
type SimulatedGateway struct{}

// NewSimulatedGateway returns a SimulatedGateway.
func NewSimulatedGateway() *SimulatedGateway { return &SimulatedGateway{} }

func (g *SimulatedGateway) CreateOrder(ctx context.Context, o Order) (OrderResult, error) {
	if o.AmountMinor <= 0 {
		return OrderResult{}, ErrInvalidAmount
	}
	return OrderResult{
		PayToken:  "weixin://wxpay/bizpayurl?demo=" + url.QueryEscape(o.OrderRef),
		Simulated: true,
	}, nil
}

func (g *SimulatedGateway) QueryOrder(ctx context.Context, orderRef string) (OrderState, error) {
	return OrderState{Settled: true}, nil
}
