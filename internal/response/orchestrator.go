// Package response maps triggered alerts and events to registered
// remediation actions and executes them with per-action failure
// isolation. Action executors may do external I/O; each run is bounded
// by a timeout so one slow action cannot stall a burst of events.
package response

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platformbuilds/vigil-core/internal/config"
	"github.com/platformbuilds/vigil-core/internal/metrics"
	"github.com/platformbuilds/vigil-core/internal/models"
	"github.com/platformbuilds/vigil-core/pkg/clock"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

// Action is one registered remediation step. Run must be idempotent-safe:
// re-applying an already applied remediation is a no-op, not an error.
type Action struct {
	ID      string
	Name    string
	Trigger models.TriggerConditions
	Enabled bool
	Run     func(ctx context.Context, ev models.Event) error
}

// actionRecorder lets events capture which actions they triggered.
// SecurityEvent and AIGovernanceEvent implement it via their Actions
// field; plain alerts do not record.
type actionRecorder interface {
	RecordActions([]string)
}

type workItem struct {
	event   models.Event
	actions []*Action // matched snapshot, registration order
}

// Orchestrator executes matching actions for each dispatched event on a
// fixed-size worker pool with a bounded queue. When the queue is full
// the event's remediation is dropped with a logged warning rather than
// blocking the dispatching path.
type Orchestrator struct {
	mu      sync.Mutex
	actions []*Action
	byID    map[string]*Action
	log     []models.ActionExecution

	queue   chan workItem
	wg      sync.WaitGroup
	closed  bool
	closeMu sync.Mutex

	timeout  time.Duration
	logLimit int
	clock    clock.Clock
	logger   logger.Logger
}

func NewOrchestrator(cfg config.ResponseConfig, clk clock.Clock, log logger.Logger) *Orchestrator {
	o := &Orchestrator{
		byID:     make(map[string]*Action),
		queue:    make(chan workItem, cfg.QueueSize),
		timeout:  cfg.ActionTimeout(),
		logLimit: cfg.ExecutionLogLimit,
		clock:    clk,
		logger:   log.With("component", "response-orchestrator"),
	}
	for i := 0; i < cfg.Workers; i++ {
		o.wg.Add(1)
		go o.worker()
	}
	return o
}

// Register adds an action. Actions run in registration order per event.
func (o *Orchestrator) Register(a *Action) error {
	if a.Run == nil {
		return fmt.Errorf("action %s has no executor", a.ID)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.byID[a.ID]; exists {
		return fmt.Errorf("action id already registered: %s", a.ID)
	}
	o.actions = append(o.actions, a)
	o.byID[a.ID] = a
	return nil
}

// SetEnabled flips an action at runtime.
func (o *Orchestrator) SetEnabled(id string, enabled bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	a, ok := o.byID[id]
	if !ok {
		return fmt.Errorf("action not found: %s", id)
	}
	a.Enabled = enabled
	return nil
}

// Dispatch matches the event against registered actions and enqueues
// their execution. Matching happens synchronously so the event's
// triggered-action list is complete when Dispatch returns; execution is
// asynchronous on the worker pool.
func (o *Orchestrator) Dispatch(ev models.Event) {
	o.mu.Lock()
	matched := make([]*Action, 0, len(o.actions))
	for _, a := range o.actions {
		if a.Enabled && a.Trigger.Matches(ev) {
			matched = append(matched, a)
		}
	}
	o.mu.Unlock()

	if rec, ok := ev.(actionRecorder); ok {
		ids := make([]string, len(matched))
		for i, a := range matched {
			ids[i] = a.ID
		}
		rec.RecordActions(ids)
	}

	if len(matched) == 0 {
		return
	}

	// The send must stay under closeMu: Shutdown closes the queue under
	// the same lock, so the closed-check and the send are atomic with
	// respect to it. The send is non-blocking, so the critical section
	// never stalls on a full queue.
	o.closeMu.Lock()
	defer o.closeMu.Unlock()
	if o.closed {
		o.logger.Warn("Orchestrator shut down, dropping event", "event_id", ev.EventID())
		return
	}

	select {
	case o.queue <- workItem{event: ev, actions: matched}:
	default:
		metrics.ActionQueueDropsTotal.Inc()
		o.logger.Warn("Action queue full, dropping event remediation",
			"event_id", ev.EventID(),
			"actions", len(matched),
		)
	}
}

func (o *Orchestrator) worker() {
	defer o.wg.Done()
	for item := range o.queue {
		for _, a := range item.actions {
			o.execute(a, item.event)
		}
	}
}

// execute runs one action with panic containment and a bounded timeout,
// recording the attempt in the execution log either way. A failing
// action never prevents subsequent actions from running.
func (o *Orchestrator) execute(a *Action, ev models.Event) {
	start := o.clock.Now()
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	err := o.runContained(ctx, a, ev)

	status := "success"
	if err != nil {
		status = "error"
		if ctx.Err() == context.DeadlineExceeded {
			status = "timeout"
		}
		o.logger.Error("Action execution failed",
			"action", a.ID,
			"event_id", ev.EventID(),
			"error", err,
		)
	}

	elapsed := o.clock.Now().Sub(start)
	metrics.ActionExecutionsTotal.WithLabelValues(a.ID, status).Inc()
	metrics.ActionExecutionDuration.WithLabelValues(a.ID).Observe(elapsed.Seconds())

	rec := models.ActionExecution{
		ID:         uuid.NewString(),
		EventID:    ev.EventID(),
		ActionID:   a.ID,
		Timestamp:  start,
		Success:    err == nil,
		DurationMs: float64(elapsed.Milliseconds()),
	}
	if err != nil {
		rec.Error = err.Error()
	}

	o.mu.Lock()
	o.log = append(o.log, rec)
	if o.logLimit > 0 && len(o.log) > o.logLimit {
		o.log = append([]models.ActionExecution(nil), o.log[len(o.log)/2:]...)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) runContained(ctx context.Context, a *Action, ev models.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panicked: %v", r)
		}
	}()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("action panicked: %v", r)
			}
		}()
		done <- a.Run(ctx, ev)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("action timed out after %s", o.timeout)
	}
}

// Executions returns the most recent execution records, newest last,
// capped at limit (0 means all retained records).
func (o *Orchestrator) Executions(limit int) []models.ActionExecution {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.log
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	cp := make([]models.ActionExecution, len(out))
	copy(cp, out)
	return cp
}

// Actions lists the registered actions in registration order.
func (o *Orchestrator) Actions() []Action {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Action, 0, len(o.actions))
	for _, a := range o.actions {
		out = append(out, *a)
	}
	return out
}

// Shutdown stops accepting events and lets in-flight executions finish
// up to their timeout.
func (o *Orchestrator) Shutdown() {
	o.closeMu.Lock()
	if o.closed {
		o.closeMu.Unlock()
		return
	}
	o.closed = true
	close(o.queue)
	o.closeMu.Unlock()

	o.wg.Wait()
}
