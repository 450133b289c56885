package adapter

import (
	"fmt"

	"github.com/avrelio/warden/internal/executor"
	"github.com/avrelio/warden/internal/model"
)

// Trading action types.
const (
	TypeDCABuy    = "dca_buy"
	TypeSwap      = "swap"
	TypeRebalance = "rebalance"
)

// TradeRequest is the trading engine's domain request.
type TradeRequest struct {
	Kind      string  // dca_buy | swap | rebalance
	Pair      string  // e.g. "SOL/USDC"
	AmountUSD float64
	Urgent    bool
}

// TradingAdapter maps trade requests to actions. The producer supplies
// the execution and compensation handlers; positions can be unwound,
// so trades register rollbacks.
type TradingAdapter struct {
	execute  executor.Handler
	unwind   executor.Handler
}

// NewTradingAdapter wires the producer's handlers. unwind may be nil
// when the producer cannot compensate.
func NewTradingAdapter(execute, unwind executor.Handler) *TradingAdapter {
	return &TradingAdapter{execute: execute, unwind: unwind}
}

func (t *TradingAdapter) Category() model.Category { return model.CategoryTrading }

func (t *TradingAdapter) Translate(request any) (*model.Action, error) {
	req, ok := request.(TradeRequest)
	if !ok {
		return nil, fmt.Errorf("adapter: trading adapter got %T", request)
	}
	switch req.Kind {
	case TypeDCABuy, TypeSwap, TypeRebalance:
	default:
		return nil, fmt.Errorf("adapter: unknown trade kind %q", req.Kind)
	}

	a := model.NewAction(model.CategoryTrading, req.Kind, "trading")
	value := req.AmountUSD
	a.FinancialValue = &value
	a.Reversible = true // positions can be unwound at market
	if req.Urgent {
		a.Urgency = model.UrgencyHigh
	}
	a.Payload = map[string]any{
		"pair":       req.Pair,
		"amount_usd": req.AmountUSD,
	}
	return a, nil
}

func (t *TradingAdapter) RegisterExecutors(reg *executor.Registry) {
	for _, typ := range []string{TypeDCABuy, TypeSwap, TypeRebalance} {
		reg.Register(typ, t.execute)
		if t.unwind != nil {
			reg.RegisterRollback(typ, t.unwind)
		}
	}
}
