package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const tradeStateSuccess = "SUCCESS"

// HTTPConfig configures HTTPGateway.  QueryRetries and RetryBackoff form
// the settlement polling policy for a single status check.
type HTTPConfig struct {
	BaseURL      string
	MerchantID   string
	APIKey       string
	Timeout      time.Duration
	QueryRetries int
	RetryBackoff time.Duration
}

// HTTPGateway talks JSON to a native-QR payment provider:
//
//	POST {base}/orders        {out_trade_no, amount, description, merchant_id} -> {code_url}
//	GET  {base}/orders/{ref}  -> {out_trade_no, trade_state}
type HTTPGateway struct {
	cfg    HTTPConfig
	client *http.Client
}

// NewHTTPGateway returns an HTTPGateway.  The client timeout bounds every
// attempt even when the caller's context has no deadline.
func NewHTTPGateway(cfg HTTPConfig) *HTTPGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPGateway{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type createOrderRequest struct {
	OutTradeNo  string `json:"out_trade_no"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	MerchantID  string `json:"merchant_id,omitempty"`
}

type createOrderResponse struct {
	CodeURL string `json:"code_url"`
}

type queryOrderResponse struct {
	OutTradeNo string `json:"out_trade_no"`
	TradeState string `json:"trade_state"`
}

func (g *HTTPGateway) CreateOrder(ctx context.Context, o Order) (OrderResult, error) {
	if o.AmountMinor <= 0 {
		return OrderResult{}, ErrInvalidAmount
	}
	body, err := json.Marshal(createOrderRequest{
		OutTradeNo:  o.OrderRef,
		Amount:      o.AmountMinor,
		Description: o.Description,
		MerchantID:  g.cfg.MerchantID,
	})
	if err != nil {
		return OrderResult{}, err
	}
	var out createOrderResponse
	if err := g.do(ctx, http.MethodPost, g.cfg.BaseURL+"/orders", body, &out); err != nil {
		return OrderResult{}, err
	}
	if out.CodeURL == "" {
		return OrderResult{}, fmt.Errorf("%w: empty code_url", ErrGatewayUnavailable)
	}
	return OrderResult{PayToken: out.CodeURL}, nil
}

func (g *HTTPGateway) QueryOrder(ctx context.Context, orderRef string) (OrderState, error) {
	endpoint := g.cfg.BaseURL + "/orders/" + url.PathEscape(orderRef)
	var lastErr error
	for attempt := 0; attempt <= g.cfg.QueryRetries; attempt++ {
		if attempt > 0 {
			backoff := g.cfg.RetryBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return OrderState{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, ctx.Err())
			}
		}
		var out queryOrderResponse
		lastErr = g.do(ctx, http.MethodGet, endpoint, nil, &out)
		if lastErr == nil {
			return OrderState{Settled: out.TradeState == tradeStateSuccess}, nil
		}
		if ctx.Err() != nil {
			break
		}
	}
	return OrderState{}, lastErr
}

// do performs one request.  Every failure is reported as
// ErrGatewayUnavailable so callers never mistake it for "not paid".
func (g *HTTPGateway) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: provider status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Join(ErrGatewayUnavailable, fmt.Errorf("decode provider response: %w", err))
	}
	return nil
}
