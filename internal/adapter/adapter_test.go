package adapter

import (
	"context"
	"testing"

	"github.com/avrelio/warden/internal/boundary"
	"github.com/avrelio/warden/internal/executor"
	"github.com/avrelio/warden/internal/model"
)

func noop(ctx context.Context, a *model.Action) error { return nil }

func TestTradingTranslate(t *testing.T) {
	a, err := NewTradingAdapter(noop, noop).Translate(TradeRequest{
		Kind: TypeDCABuy, Pair: "SOL/USDC", AmountUSD: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if a.Category != model.CategoryTrading || a.Type != TypeDCABuy {
		t.Errorf("wrong shape: %s/%s", a.Category, a.Type)
	}
	if a.Value() != 10 {
		t.Errorf("expected $10, got %f", a.Value())
	}
	if !a.Reversible || a.ExternallyVisible {
		t.Error("trades are reversible and not externally visible")
	}
	if err := a.Validate(); err != nil {
		t.Errorf("translated action must validate: %v", err)
	}
}

func TestTradingRejectsWrongRequestType(t *testing.T) {
	if _, err := NewTradingAdapter(noop, nil).Translate(PublishRequest{}); err == nil {
		t.Error("wrong request type must error")
	}
	if _, err := NewTradingAdapter(noop, nil).Translate(TradeRequest{Kind: "yolo"}); err == nil {
		t.Error("unknown trade kind must error")
	}
}

func TestContentTranslate(t *testing.T) {
	a, err := NewContentAdapter(noop, noop).Translate(PublishRequest{
		Kind: TypeTweetPost, Body: "gm",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !a.ExternallyVisible {
		t.Error("published content is externally visible")
	}
	if a.Payload["body"] != "gm" {
		t.Error("body must travel in the payload for keyword checks")
	}
	if _, err := NewContentAdapter(noop, nil).Translate(PublishRequest{Kind: TypeTweetPost}); err == nil {
		t.Error("empty body must error")
	}
}

func TestDevTranslateReversibility(t *testing.T) {
	ad := NewDevAdapter(noop, noop)
	commit, err := ad.Translate(ChangeRequest{Kind: TypeCommitPush, Files: []string{"main.go"}, LinesChanged: 10})
	if err != nil {
		t.Fatal(err)
	}
	if !commit.Reversible {
		t.Error("commits are revertible")
	}
	deploy, err := ad.Translate(ChangeRequest{Kind: boundary.TypeDeployProduction})
	if err != nil {
		t.Fatal(err)
	}
	if deploy.Reversible {
		t.Error("production deploys are irreversible")
	}
}

func TestRegisterExecutorsBindsAllTypes(t *testing.T) {
	reg := executor.NewRegistry()
	NewTradingAdapter(noop, noop).RegisterExecutors(reg)
	NewDevAdapter(noop, noop).RegisterExecutors(reg)

	for _, typ := range []string{TypeDCABuy, TypeSwap, TypeRebalance, TypeCommitPush, boundary.TypeDeployProduction} {
		if _, ok := reg.Handler(typ); !ok {
			t.Errorf("no handler for %s", typ)
		}
	}
	if _, ok := reg.Rollback(TypeDCABuy); !ok {
		t.Error("trade rollback missing")
	}
	if _, ok := reg.Rollback(boundary.TypeDeployProduction); ok {
		t.Error("deploys must not have a rollback")
	}
}

func TestRegistryDuplicateCategory(t *testing.T) {
	r := NewRegistry()
	reg := executor.NewRegistry()
	if err := r.Register(NewTradingAdapter(noop, nil), reg); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(NewTradingAdapter(noop, nil), reg); err == nil {
		t.Error("duplicate category registration must error")
	}
	if _, ok := r.Lookup(model.CategoryTrading); !ok {
		t.Error("registered adapter not found")
	}
	if _, ok := r.Lookup(model.CategoryContent); ok {
		t.Error("missing adapter should be a normal absent state")
	}
}
