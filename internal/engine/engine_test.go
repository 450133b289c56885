package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avrelio/warden/internal/adapter"
	"github.com/avrelio/warden/internal/approval"
	"github.com/avrelio/warden/internal/audit"
	"github.com/avrelio/warden/internal/boundary"
	"github.com/avrelio/warden/internal/executor"
	"github.com/avrelio/warden/internal/model"
	"github.com/avrelio/warden/internal/notify"
	"github.com/avrelio/warden/internal/route"
)

// captureEmitter records emitted events for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *captureEmitter) Emit(event notify.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureEmitter) all() []notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notify.Event(nil), c.events...)
}

// countingHandler counts executions per action type.
type countingHandler struct {
	mu    sync.Mutex
	calls int
}

func (h *countingHandler) handle(ctx context.Context, a *model.Action) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return nil
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

type fixture struct {
	engine  *Engine
	log     *audit.Log
	emitter *captureEmitter
	trades  *countingHandler
	deploys *countingHandler
	clock   *fakeClock
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newFixture(t *testing.T, level, maxPending int) *fixture {
	t.Helper()

	log, err := audit.Open(filepath.Join(t.TempDir(), "audit.jsonl"))
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	queue, err := approval.NewQueue(nil, maxPending)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Date(2025, 6, 3, 10, 0, 0, 0, time.UTC)}
	emitter := &captureEmitter{}

	e, err := New(Options{
		AutonomyLevel: level,
		Log:           log,
		Queue:         queue,
		Emitter:       emitter,
		Now:           clock.now,
	})
	require.NoError(t, err)

	trades := &countingHandler{}
	deploys := &countingHandler{}
	require.NoError(t, e.RegisterAdapter(adapter.NewTradingAdapter(trades.handle, trades.handle)))
	require.NoError(t, e.RegisterAdapter(adapter.NewDevAdapter(deploys.handle, deploys.handle)))

	return &fixture{engine: e, log: log, emitter: emitter, trades: trades, deploys: deploys, clock: clock}
}

func TestSmallTradeAutoExecutesEndToEnd(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 100)

	sub, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeDCABuy, Pair: "SOL/USDC", AmountUSD: 10,
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeAutoExecute, sub.Decision.Outcome)
	require.NotNil(t, sub.Exec)
	require.Equal(t, executor.StatusExecuted, sub.Exec.Status)
	require.Equal(t, 1, f.trades.count())

	// Daily spend advanced by exactly the trade value.
	_, usage := f.engine.Boundaries()
	require.Equal(t, 10.0, usage[model.CategoryTrading].DailySpend)

	// Full lifecycle on the chain, and the chain verifies.
	counts, err := audit.CountByType(f.log.Path())
	require.NoError(t, err)
	require.Equal(t, 1, counts[audit.TypeActionReceived])
	require.Equal(t, 1, counts[audit.TypeRiskAssessed])
	require.Equal(t, 1, counts[audit.TypeDecisionMade])
	require.Equal(t, 1, counts[audit.TypeExecuted])
	require.True(t, audit.Verify(f.log.Path()).Valid)

	// Auto-execution is silent: no human notification.
	require.Empty(t, f.emitter.all())
}

func TestOversizedExpenseQueuesAndNotifies(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 100)

	// $80 exceeds the $50 auto-expense cap: a soft violation queues the
	// action even at low risk.
	sub, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeSwap, Pair: "SOL/USDC", AmountUSD: 80,
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeQueueApproval, sub.Decision.Outcome)
	require.NotNil(t, sub.Request)
	require.Equal(t, approval.StatusPending, sub.Request.Status)
	require.Zero(t, f.trades.count())

	// Counters never advance for queued actions.
	_, usage := f.engine.Boundaries()
	require.Zero(t, usage[model.CategoryTrading].DailySpend)

	counts, err := audit.CountByType(f.log.Path())
	require.NoError(t, err)
	require.Equal(t, 1, counts[audit.TypeBoundaryViolation])
	require.Equal(t, 1, counts[audit.TypeQueuedApproval])

	events := f.emitter.all()
	require.Len(t, events, 1)
	require.Equal(t, sub.Request.ID, events[0].RequestID)
	require.Equal(t, "queue_approval", events[0].Outcome)
}

func TestProductionDeployEscalates(t *testing.T) {
	f := newFixture(t, route.LevelAutonomous, 100)

	sub, err := f.engine.Process(context.Background(), model.CategoryDevelopment, adapter.ChangeRequest{
		Kind: boundary.TypeDeployProduction, Repo: "infra",
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeEscalate, sub.Decision.Outcome)
	require.Zero(t, f.deploys.count())

	counts, err := audit.CountByType(f.log.Path())
	require.NoError(t, err)
	require.Equal(t, 1, counts[audit.TypeEscalated])

	events := f.emitter.all()
	require.Len(t, events, 1)
	require.Equal(t, "escalate", events[0].Outcome)
}

func TestInvalidActionRejectedBeforeScoring(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 100)

	a := model.NewAction("gambling", "spin", "test")
	_, err := f.engine.Submit(context.Background(), a)
	require.Error(t, err)
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)

	counts, err := audit.CountByType(f.log.Path())
	require.NoError(t, err)
	require.Equal(t, 1, counts[audit.TypeValidationError])
	require.Zero(t, counts[audit.TypeRiskAssessed])
	require.Empty(t, f.engine.Pending())
}

func TestApproveExecutesQueuedAction(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 100)

	sub, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeSwap, AmountUSD: 80,
	})
	require.NoError(t, err)
	require.NotNil(t, sub.Request)

	r, result, err := f.engine.Approve(context.Background(), sub.Request.ID, "verified manually")
	require.NoError(t, err)
	require.Equal(t, approval.StatusApproved, r.Status)
	require.NotNil(t, result)
	require.Equal(t, executor.StatusExecuted, result.Status)
	require.Equal(t, 1, f.trades.count())

	_, usage := f.engine.Boundaries()
	require.Equal(t, 80.0, usage[model.CategoryTrading].DailySpend)

	// Approving again is a no-op reporting the resolved state.
	again, result2, err := f.engine.Approve(context.Background(), sub.Request.ID, "twice")
	require.NoError(t, err)
	require.Equal(t, approval.StatusApproved, again.Status)
	require.Nil(t, result2)
	require.Equal(t, 1, f.trades.count())
}

func TestRejectNeverExecutes(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 100)

	sub, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeSwap, AmountUSD: 80,
	})
	require.NoError(t, err)

	r, changed, err := f.engine.Reject(sub.Request.ID, "too large for today")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, approval.StatusRejected, r.Status)
	require.Zero(t, f.trades.count())

	_, usage := f.engine.Boundaries()
	require.Zero(t, usage[model.CategoryTrading].DailySpend)
}

func TestExpiredRequestCannotBeApproved(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 100)

	sub, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeSwap, AmountUSD: 80,
	})
	require.NoError(t, err)

	f.clock.advance(25 * time.Hour)

	r, result, err := f.engine.Approve(context.Background(), sub.Request.ID, "too late")
	require.NoError(t, err)
	require.Equal(t, approval.StatusExpired, r.Status)
	require.Nil(t, result)
	require.Zero(t, f.trades.count())

	counts, err := audit.CountByType(f.log.Path())
	require.NoError(t, err)
	require.Equal(t, 1, counts[audit.TypeExpired])
}

func TestFullQueueBacksOff(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 1)

	_, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeSwap, AmountUSD: 80,
	})
	require.NoError(t, err)

	_, err = f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeSwap, AmountUSD: 90,
	})
	require.ErrorIs(t, err, approval.ErrQueueFull)
}

func TestManualLevelQueuesEverything(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 100)
	require.NoError(t, f.engine.SetLevel(route.LevelManual))

	sub, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeDCABuy, AmountUSD: 5,
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeQueueApproval, sub.Decision.Outcome)
	require.Zero(t, f.trades.count())

	require.Error(t, f.engine.SetLevel(9))
}

func TestBatchApproveExecutesMatches(t *testing.T) {
	f := newFixture(t, route.LevelManual, 100)

	for _, amount := range []float64{5, 8, 12} {
		_, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
			Kind: adapter.TypeDCABuy, AmountUSD: amount,
		})
		require.NoError(t, err)
	}

	approved, err := f.engine.BatchApprove(context.Background(), approval.Filter{SafeOnly: true}, "routine")
	require.NoError(t, err)
	require.Len(t, approved, 3)
	require.Equal(t, 3, f.trades.count())
	require.Empty(t, f.engine.Pending())
}

func TestSnapshotReportsState(t *testing.T) {
	f := newFixture(t, route.LevelBounded, 100)

	_, err := f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeDCABuy, AmountUSD: 10,
	})
	require.NoError(t, err)
	_, err = f.engine.Process(context.Background(), model.CategoryTrading, adapter.TradeRequest{
		Kind: adapter.TypeSwap, AmountUSD: 80,
	})
	require.NoError(t, err)

	s := f.engine.Snapshot()
	require.Equal(t, route.LevelBounded, s.AutonomyLevel)
	require.Equal(t, "bounded", s.LevelLabel)
	require.Equal(t, 1, s.Queue[approval.StatusPending])
	require.Equal(t, 10.0, s.Usage[model.CategoryTrading].DailySpend)
	require.Positive(t, s.AuditSeq)
}
