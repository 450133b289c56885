package executor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/avrelio/warden/internal/audit"
	"github.com/avrelio/warden/internal/boundary"
	"github.com/avrelio/warden/internal/model"
)

// Status is the terminal state of one execution attempt.
type Status string

const (
	StatusExecuted   Status = "executed"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
)

// Result reports how an execution attempt ended. Err carries the handler
// failure; RollbackErr carries a failed compensation on top of it.
type Result struct {
	Status      Status
	Err         error
	RollbackErr error
}

// Executor invokes registered handlers and owns the post-execution
// bookkeeping: boundary counter commits and audit entries. There is no
// cancellation once execution starts; an action runs to completion or
// failure.
type Executor struct {
	registry *Registry
	state    *boundary.State
	log      *audit.Log
}

func New(registry *Registry, state *boundary.State, log *audit.Log) *Executor {
	return &Executor{registry: registry, state: state, log: log}
}

// Registry exposes the handler registry for adapter registration.
func (e *Executor) Registry() *Registry { return e.registry }

// Execute runs the action's handler. On success it commits the action
// against the boundary counters and appends an executed entry; counters
// never advance for failed, rejected, or queued actions. On failure it
// appends execution_failed and, for a reversible action with a
// registered compensator, attempts rollback. Irreversible failures are
// surfaced as-is: no retry, no compensation.
func (e *Executor) Execute(ctx context.Context, a *model.Action, decisionID string) Result {
	handler, ok := e.registry.Handler(a.Type)
	if !ok {
		err := fmt.Errorf("%w for type %q", ErrNoHandler, a.Type)
		e.record(audit.TypeExecutionFailed, a, decisionID, err.Error(), nil)
		return Result{Status: StatusFailed, Err: err}
	}

	if err := handler(ctx, a); err != nil {
		e.record(audit.TypeExecutionFailed, a, decisionID, err.Error(), nil)
		return e.tryRollback(ctx, a, decisionID, err)
	}

	e.state.Commit(a, time.Now().UTC())
	e.record(audit.TypeExecuted, a, decisionID, "", map[string]string{
		"value": fmt.Sprintf("%.2f", a.Value()),
	})
	return Result{Status: StatusExecuted}
}

func (e *Executor) tryRollback(ctx context.Context, a *model.Action, decisionID string, execErr error) Result {
	if !a.Reversible {
		return Result{Status: StatusFailed, Err: execErr}
	}
	rollback, ok := e.registry.Rollback(a.Type)
	if !ok {
		return Result{Status: StatusFailed, Err: execErr}
	}

	if err := rollback(ctx, a); err != nil {
		// Compensation failed: keep the failure status and attach both
		// errors; the operator surface shows the action unresolved.
		e.record(audit.TypeExecutionFailed, a, decisionID,
			fmt.Sprintf("rollback failed: %v", err), nil)
		return Result{Status: StatusFailed, Err: execErr, RollbackErr: err}
	}

	e.record(audit.TypeRolledBack, a, decisionID, execErr.Error(), nil)
	return Result{Status: StatusRolledBack, Err: execErr}
}

func (e *Executor) record(typ audit.EntryType, a *model.Action, decisionID, reason string, metadata map[string]string) {
	if e.log == nil {
		return
	}
	if _, err := e.log.Record(audit.Entry{
		Type:       typ,
		ActionID:   a.ID,
		DecisionID: decisionID,
		Reason:     reason,
		Metadata:   metadata,
	}); err != nil {
		// The audit chain is the source of truth; a write failure here
		// is surfaced loudly but cannot un-run the handler.
		fmt.Fprintf(os.Stderr, "executor: audit write failed: %v\n", err)
	}
}
