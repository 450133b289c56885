// Package engine runs the decision pipeline: validate, classify, check,
// route, then execute, queue, or escalate. Every state transition lands
// in the audit chain before the pipeline moves on.
package engine

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avrelio/warden/internal/adapter"
	"github.com/avrelio/warden/internal/approval"
	"github.com/avrelio/warden/internal/audit"
	"github.com/avrelio/warden/internal/boundary"
	"github.com/avrelio/warden/internal/executor"
	"github.com/avrelio/warden/internal/model"
	"github.com/avrelio/warden/internal/notify"
	"github.com/avrelio/warden/internal/risk"
	"github.com/avrelio/warden/internal/route"
)

// Options configures a new Engine. Zero values fall back to defaults:
// bounded autonomy, built-in boundary config, 24h approval expiry, log
// emitter.
type Options struct {
	AutonomyLevel  int
	BoundaryConfig *boundary.Config
	ConfigHash     string
	Log            *audit.Log
	Queue          *approval.Queue
	Emitter        notify.Emitter
	ApprovalExpiry time.Duration
	RetentionDays  int
	Now            func() time.Time
}

// Engine wires the pipeline stages together and owns the mutable pieces:
// the autonomy level, the active boundary config, and the usage state.
type Engine struct {
	mu         sync.RWMutex
	level      int
	checker    *boundary.Checker
	baseRisk   risk.BaseRiskTable
	configHash string

	state     *boundary.State
	log       *audit.Log
	queue     *approval.Queue
	exec      *executor.Executor
	emitter   notify.Emitter
	adapters  *adapter.Registry
	expiry    time.Duration
	retention int
	startedAt time.Time
	now       func() time.Time
}

// Submission is the result of one pipeline run: the decision, plus the
// approval request when queued or the execution result when auto-executed.
type Submission struct {
	Decision *model.Decision
	Request  *approval.Request
	Exec     *executor.Result
}

// New builds an Engine from options.
func New(opts Options) (*Engine, error) {
	level := opts.AutonomyLevel
	if level == 0 {
		level = route.LevelBounded
	}
	if !route.ValidLevel(level) {
		return nil, fmt.Errorf("engine: invalid autonomy level %d", level)
	}

	cfg := opts.BoundaryConfig
	if cfg == nil {
		cfg = boundary.DefaultConfig()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	emitter := opts.Emitter
	if emitter == nil {
		emitter = notify.NewLogEmitter()
	}
	queue := opts.Queue
	if queue == nil {
		var err error
		queue, err = approval.NewQueue(nil, 0)
		if err != nil {
			return nil, err
		}
	}
	expiry := opts.ApprovalExpiry
	if expiry <= 0 {
		expiry = approval.DefaultExpiry
	}

	state := boundary.NewState(now())
	registry := executor.NewRegistry()

	return &Engine{
		level:      level,
		checker:    boundary.NewChecker(cfg, state),
		baseRisk:   baseRiskFrom(cfg),
		configHash: opts.ConfigHash,
		state:      state,
		log:        opts.Log,
		queue:      queue,
		exec:       executor.New(registry, state, opts.Log),
		emitter:    emitter,
		adapters:   adapter.NewRegistry(),
		expiry:     expiry,
		retention:  opts.RetentionDays,
		startedAt:  now(),
		now:        now,
	}, nil
}

func baseRiskFrom(cfg *boundary.Config) risk.BaseRiskTable {
	if cfg == nil || len(cfg.BaseRisk) == 0 {
		return risk.DefaultBaseRisk()
	}
	table := make(risk.BaseRiskTable, len(cfg.BaseRisk))
	for c, score := range cfg.BaseRisk {
		table[c] = score
	}
	return table
}

// RegisterAdapter wires an engine adapter's category and executors.
func (e *Engine) RegisterAdapter(ad adapter.EngineAdapter) error {
	return e.adapters.Register(ad, e.exec.Registry())
}

// Process translates a domain request through the category's adapter and
// submits the resulting action.
func (e *Engine) Process(ctx context.Context, category model.Category, request any) (*Submission, error) {
	ad, ok := e.adapters.Lookup(category)
	if !ok {
		return nil, fmt.Errorf("engine: no adapter for category %q", category)
	}
	a, err := ad.Translate(request)
	if err != nil {
		return nil, err
	}
	return e.Submit(ctx, a)
}

// Submit runs one action through the pipeline. Malformed actions are
// rejected before scoring and never reach the queue or an executor; the
// rejection itself is audited.
func (e *Engine) Submit(ctx context.Context, a *model.Action) (*Submission, error) {
	now := e.now()

	e.mu.RLock()
	level := e.level
	checker := e.checker
	base := e.baseRisk
	hash := e.configHash
	e.mu.RUnlock()

	if err := a.Validate(); err != nil {
		e.record(audit.Entry{
			Type:     audit.TypeValidationError,
			ActionID: actionID(a),
			Reason:   err.Error(),
		})
		return nil, err
	}

	e.record(audit.Entry{
		Type:     audit.TypeActionReceived,
		ActionID: a.ID,
		Metadata: map[string]string{
			"category": string(a.Category),
			"type":     a.Type,
			"source":   a.SourceEngine,
			"value":    fmt.Sprintf("%.2f", a.Value()),
		},
	})

	assessment := risk.Classify(a, base)
	e.record(audit.Entry{
		Type:       audit.TypeRiskAssessed,
		ActionID:   a.ID,
		ConfigHash: hash,
		Metadata: map[string]string{
			"score": strconv.Itoa(assessment.Score),
			"level": string(assessment.Level),
		},
	})

	violations := checker.Check(a, now)
	if len(violations) > 0 {
		e.record(audit.Entry{
			Type:       audit.TypeBoundaryViolation,
			ActionID:   a.ID,
			ConfigHash: hash,
			Reason:     violations[0].Detail,
			Metadata: map[string]string{
				"limits": limitNames(violations),
				"hard":   strconv.FormatBool(model.HasHard(violations)),
			},
		})
	}

	d := route.Route(a, assessment, violations, level)
	e.record(audit.Entry{
		Type:       audit.TypeDecisionMade,
		ActionID:   a.ID,
		DecisionID: d.ID,
		Outcome:    string(d.Outcome),
		Reason:     d.Reason,
		ConfigHash: hash,
	})

	sub := &Submission{Decision: d}

	switch d.Outcome {
	case model.OutcomeAutoExecute:
		result := e.exec.Execute(ctx, a, d.ID)
		sub.Exec = &result

	case model.OutcomeQueueApproval:
		r := approval.NewRequest(a, *d, now, e.expiry)
		if err := e.queue.Enqueue(r); err != nil {
			// Full queue: the producer backs off, nothing executes.
			return sub, fmt.Errorf("engine: %w", err)
		}
		sub.Request = r
		e.record(audit.Entry{
			Type:       audit.TypeQueuedApproval,
			ActionID:   a.ID,
			DecisionID: d.ID,
			Reason:     d.Reason,
			Metadata: map[string]string{
				"request_id": r.ID,
				"priority":   r.Priority.String(),
				"expires_at": r.ExpiresAt.Format(audit.TimestampFormat),
			},
		})
		e.emit(a, d, r.ID)

	case model.OutcomeEscalate:
		e.record(audit.Entry{
			Type:       audit.TypeEscalated,
			ActionID:   a.ID,
			DecisionID: d.ID,
			Reason:     d.Reason,
		})
		e.emit(a, d, "")

	case model.OutcomeReject:
		e.record(audit.Entry{
			Type:       audit.TypeRejected,
			ActionID:   a.ID,
			DecisionID: d.ID,
			Reason:     d.Reason,
		})
	}

	return sub, nil
}

// Approve resolves a pending request and, when this call performed the
// transition, executes the approved action through the normal executor
// path. Approving an already resolved request reports its current state
// and runs nothing.
func (e *Engine) Approve(ctx context.Context, id, feedback string) (*approval.Request, *executor.Result, error) {
	now := e.now()
	e.sweep(now)

	r, changed, err := e.queue.Approve(id, feedback, now)
	if err != nil {
		return nil, nil, err
	}
	if !changed {
		return r, nil, nil
	}

	e.record(audit.Entry{
		Type:       audit.TypeApproved,
		ActionID:   r.Action.ID,
		DecisionID: r.Decision.ID,
		Reason:     feedback,
		Metadata:   map[string]string{"request_id": r.ID},
	})

	result := e.exec.Execute(ctx, r.Action, r.Decision.ID)
	return r, &result, nil
}

// Reject resolves a pending request without executing it. The bool
// reports whether this call performed the transition.
func (e *Engine) Reject(id, reason string) (*approval.Request, bool, error) {
	now := e.now()
	e.sweep(now)

	r, changed, err := e.queue.Reject(id, reason, now)
	if err != nil {
		return nil, false, err
	}
	if changed {
		e.record(audit.Entry{
			Type:       audit.TypeRejected,
			ActionID:   r.Action.ID,
			DecisionID: r.Decision.ID,
			Reason:     reason,
			Metadata:   map[string]string{"request_id": r.ID},
		})
	}
	return r, changed, nil
}

// BatchApprove approves and executes every pending request matching the
// filter. Each approved action runs through the executor individually; a
// failure does not stop the batch.
func (e *Engine) BatchApprove(ctx context.Context, f approval.Filter, feedback string) ([]*approval.Request, error) {
	now := e.now()
	e.sweep(now)

	approved, err := e.queue.BatchApprove(f, feedback, now)
	for _, r := range approved {
		e.record(audit.Entry{
			Type:       audit.TypeApproved,
			ActionID:   r.Action.ID,
			DecisionID: r.Decision.ID,
			Reason:     feedback,
			Metadata:   map[string]string{"request_id": r.ID},
		})
		e.exec.Execute(ctx, r.Action, r.Decision.ID)
	}
	return approved, err
}

// Pending returns the prioritized pending queue, expiring overdue
// requests first.
func (e *Engine) Pending() []*approval.Request {
	now := e.now()
	e.sweep(now)
	return e.queue.Pending(now)
}

// Request returns one approval request by id.
func (e *Engine) Request(id string) (*approval.Request, error) {
	return e.queue.Get(id)
}

// sweep expires overdue requests and audits each expiry.
func (e *Engine) sweep(now time.Time) {
	for _, r := range e.queue.Sweep(now) {
		e.record(audit.Entry{
			Type:       audit.TypeExpired,
			ActionID:   r.Action.ID,
			DecisionID: r.Decision.ID,
			Reason:     fmt.Sprintf("no decision within %s", e.expiry),
			Metadata:   map[string]string{"request_id": r.ID},
		})
	}
}

// AuditPath returns the audit log location, or "" when auditing is off.
func (e *Engine) AuditPath() string {
	if e.log == nil {
		return ""
	}
	return e.log.Path()
}

// Level returns the current autonomy level.
func (e *Engine) Level() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.level
}

// SetLevel changes the autonomy level at runtime.
func (e *Engine) SetLevel(level int) error {
	if !route.ValidLevel(level) {
		return fmt.Errorf("engine: invalid autonomy level %d", level)
	}
	e.mu.Lock()
	e.level = level
	e.mu.Unlock()
	return nil
}

// ReloadBoundaries loads boundary configuration from path and swaps it
// in. Usage counters survive the swap: limits change, consumption does not.
func (e *Engine) ReloadBoundaries(path string) error {
	cfg, hash, err := boundary.LoadConfigWithHash(path)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.checker = boundary.NewChecker(cfg, e.state)
	e.baseRisk = baseRiskFrom(cfg)
	e.configHash = hash
	e.mu.Unlock()
	return nil
}

// Boundaries returns the active config and per-category usage.
func (e *Engine) Boundaries() (*boundary.Config, map[model.Category]boundary.Usage) {
	e.mu.RLock()
	cfg := e.checker.Config()
	e.mu.RUnlock()
	return cfg, e.state.All(e.now())
}

// Stats is a point-in-time operational snapshot.
type Stats struct {
	StartedAt     time.Time                         `json:"started_at"`
	AutonomyLevel int                               `json:"autonomy_level"`
	LevelLabel    string                            `json:"level_label"`
	ConfigHash    string                            `json:"config_hash,omitempty"`
	Queue         map[approval.Status]int           `json:"queue"`
	Usage         map[model.Category]boundary.Usage `json:"usage"`
	AuditSeq      int                               `json:"audit_seq"`
	AuditCounts   map[audit.EntryType]int           `json:"audit_counts,omitempty"`
}

// Snapshot returns current operational stats.
func (e *Engine) Snapshot() Stats {
	e.mu.RLock()
	level := e.level
	hash := e.configHash
	e.mu.RUnlock()

	s := Stats{
		StartedAt:     e.startedAt,
		AutonomyLevel: level,
		LevelLabel:    route.LevelLabel(level),
		ConfigHash:    hash,
		Queue:         e.queue.Counts(),
		Usage:         e.state.All(e.now()),
	}
	if e.log != nil {
		s.AuditSeq = e.log.Seq()
		if counts, err := audit.CountByType(e.log.Path()); err == nil {
			s.AuditCounts = counts
		}
	}
	return s
}

// Run drives the background maintenance loops until ctx is cancelled:
// window rollover, approval expiry, and audit retention. Rollover is also
// performed lazily on every counter read, so Run only makes it prompt.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	var lastArchive time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := e.now()
			e.state.Reset(now)
			e.sweep(now)

			if e.retention > 0 && e.log != nil && now.Sub(lastArchive) >= 24*time.Hour {
				cutoff := now.AddDate(0, 0, -e.retention)
				if _, n, err := audit.Archive(e.log.Path(), cutoff); err != nil {
					log.Printf("engine: audit archive failed: %v", err)
				} else if n > 0 {
					log.Printf("engine: archived %d audit entries older than %s", n, cutoff.Format("2006-01-02"))
				}
				lastArchive = now
			}
		}
	}
}

func (e *Engine) record(entry audit.Entry) {
	if e.log == nil {
		return
	}
	if _, err := e.log.Record(entry); err != nil {
		log.Printf("engine: audit write failed: %v", err)
	}
}

func (e *Engine) emit(a *model.Action, d *model.Decision, requestID string) {
	e.emitter.Emit(notify.Event{
		Timestamp:  e.now().Format(audit.TimestampFormat),
		ActionID:   a.ID,
		Category:   string(a.Category),
		ActionType: a.Type,
		Outcome:    string(d.Outcome),
		RiskLevel:  string(d.Assessment.Level),
		RiskScore:  d.Assessment.Score,
		Reason:     d.Reason,
		RequestID:  requestID,
	})
}

func actionID(a *model.Action) string {
	if a == nil {
		return ""
	}
	return a.ID
}

func limitNames(violations []model.Violation) string {
	names := make([]string, len(violations))
	for i, v := range violations {
		names[i] = v.Limit
	}
	return strings.Join(names, ",")
}
