package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/assetscan/assetscan/internal/asset"
	"github.com/assetscan/assetscan/internal/findings"
	"github.com/assetscan/assetscan/internal/metrics"
	"github.com/assetscan/assetscan/internal/rules"
	"github.com/assetscan/assetscan/internal/rules/engine"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrScanInProgress rejects a trigger while another scan is running. Callers
// retry; triggers are never queued or coalesced.
var ErrScanInProgress = errors.New("scan already in progress")

// State is the orchestrator's lifecycle phase.
type State string

const (
	StateIdle       State = "idle"
	StateRunning    State = "running"
	StateCommitting State = "committing"
)

const (
	defaultBatchSize = 256
	commitChunkSize  = 500
	sweepTimeout     = time.Minute
)

// Result reports what one completed scan did. RulesEvaluated counts every
// (resource, applicable rule) pair attempted, including pairs skipped as
// incomparable.
type Result struct {
	ResourcesScanned int64 `json:"resources_scanned"`
	RulesEvaluated   int64 `json:"rules_evaluated"`
	FindingsCreated  int64 `json:"findings_created"`
}

// Orchestrator owns the scan lifecycle: single-flight trigger, snapshot of
// the resource and rule sets, worker fan-out over the cross product, and the
// atomic generation commit. The resource and rule stores are read-only from
// its perspective and may be written to concurrently; a scan simply misses
// documents uploaded after its snapshot.
type Orchestrator struct {
	resources asset.Store
	rules     rules.Store
	findings  findings.Store

	workers   int
	batchSize int
	newScanID func() string
	now       func() time.Time

	mu    sync.Mutex
	state State
}

// NewOrchestrator wires an orchestrator with workers defaulted to the
// available cores.
func NewOrchestrator(res asset.Store, rl rules.Store, fnd findings.Store) *Orchestrator {
	return &Orchestrator{
		resources: res,
		rules:     rl,
		findings:  fnd,
		workers:   runtime.GOMAXPROCS(0),
		batchSize: defaultBatchSize,
		newScanID: uuid.NewString,
		now:       time.Now,
		state:     StateIdle,
	}
}

// SetWorkers overrides the worker pool size.
func (o *Orchestrator) SetWorkers(n int) {
	if n > 0 {
		o.workers = n
	}
}

// SetBatchSize overrides how many resources each work unit carries.
func (o *Orchestrator) SetBatchSize(n int) {
	if n > 0 {
		o.batchSize = n
	}
}

// State returns the current lifecycle phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run executes one full scan. It fails fast with ErrScanInProgress when a
// scan is already running. On any error the previously committed generation
// stays current and no partial findings become visible.
func (o *Orchestrator) Run(ctx context.Context) (Result, error) {
	if err := o.begin(); err != nil {
		return Result{}, err
	}
	defer o.setState(StateIdle)

	started := o.now()
	result, err := o.run(ctx)
	metrics.ScanDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ScansTotal.WithLabelValues("failure").Inc()
		slog.Error("scan failed", "err", err)
		return Result{}, err
	}

	metrics.ScansTotal.WithLabelValues("success").Inc()
	metrics.ScanLastSuccessTimestamp.Set(float64(o.now().Unix()))
	slog.Info("scan completed",
		"resources_scanned", result.ResourcesScanned,
		"rules_evaluated", result.RulesEvaluated,
		"findings_created", result.FindingsCreated,
	)
	return result, nil
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != StateIdle {
		return ErrScanInProgress
	}
	o.state = StateRunning
	return nil
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) run(ctx context.Context) (Result, error) {
	scanID := o.newScanID()

	resourceSet, err := o.resources.SnapshotResources(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot resources: %w", err)
	}
	ruleSet, err := o.rules.ListRules(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot rules: %w", err)
	}
	slog.Debug("scan snapshot taken", "scan_id", scanID, "resources", len(resourceSet), "rules", len(ruleSet))

	found, evaluated, err := o.evaluateAll(ctx, scanID, resourceSet, ruleSet)
	if err != nil {
		return Result{}, err
	}

	if err := o.commit(ctx, scanID, found); err != nil {
		return Result{}, err
	}

	return Result{
		ResourcesScanned: int64(len(resourceSet)),
		RulesEvaluated:   evaluated,
		FindingsCreated:  int64(len(found)),
	}, nil
}

// evaluateAll fans the resource batches out over the worker pool. Workers
// append findings to worker-local buffers and merge them once; cancellation
// is cooperative between batches and discards everything computed so far.
func (o *Orchestrator) evaluateAll(ctx context.Context, scanID string, resourceSet []asset.Resource, ruleSet []rules.Rule) ([]findings.Finding, int64, error) {
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan []asset.Resource)

	g.Go(func() error {
		defer close(jobs)
		for start := 0; start < len(resourceSet); start += o.batchSize {
			end := min(start+o.batchSize, len(resourceSet))
			select {
			case jobs <- resourceSet[start:end]:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var (
		mu        sync.Mutex
		all       []findings.Finding
		evaluated int64
	)

	workers := min(o.workers, max(len(resourceSet), 1))
	for range workers {
		g.Go(func() error {
			var local []findings.Finding
			var attempted, matched, skipped int64

			for batch := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, res := range batch {
					for _, rule := range engine.ApplicableRules(res, ruleSet) {
						attempted++
						ok, err := engine.EvaluateRule(res, rule)
						if err != nil {
							skipped++
							slog.Debug("rule evaluation skipped", "rule", rule.Name, "resource_id", res.ID, "err", err)
							continue
						}
						if ok {
							matched++
							local = append(local, o.newFinding(scanID, res, rule))
						}
					}
				}
			}

			metrics.RuleEvaluationsTotal.WithLabelValues(metrics.EvalMatched).Add(float64(matched))
			metrics.RuleEvaluationsTotal.WithLabelValues(metrics.EvalSkipped).Add(float64(skipped))
			metrics.RuleEvaluationsTotal.WithLabelValues(metrics.EvalNoMatch).Add(float64(attempted - matched - skipped))

			mu.Lock()
			all = append(all, local...)
			evaluated += attempted
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("evaluate resources: %w", err)
	}
	return all, evaluated, nil
}

func (o *Orchestrator) newFinding(scanID string, res asset.Resource, rule rules.Rule) findings.Finding {
	actual := ""
	if raw, ok := res.Field(rule.Field); ok {
		if s, ok := engine.ValueOf(raw).Text(); ok {
			actual = s
		} else {
			actual = fmt.Sprintf("%v", raw)
		}
	}

	return findings.Finding{
		ID:              uuid.NewString(),
		ResourceID:      res.ID,
		ResourceName:    res.Name,
		ResourceType:    res.ResourceType,
		Region:          res.Region,
		RuleName:        rule.Name,
		RuleDescription: rule.Description,
		Severity:        rule.Severity,
		Field:           rule.Field,
		ActualValue:     actual,
		ExpectedValue:   rule.Value.String(),
		Operator:        rule.Op,
		CreatedAt:       o.now().UTC(),
		ScanID:          scanID,
	}
}

// commit writes the new generation and only then flips the current pointer.
// Readers resolve findings through the pointer, so they observe either the
// previous complete generation or the new one, never a partial mix. The
// superseded generation is swept in the background.
func (o *Orchestrator) commit(ctx context.Context, scanID string, found []findings.Finding) error {
	o.setState(StateCommitting)

	prev, err := o.findings.CurrentScanID(ctx)
	if err != nil {
		return fmt.Errorf("read current scan id: %w", err)
	}

	for start := 0; start < len(found); start += commitChunkSize {
		end := min(start+commitChunkSize, len(found))
		if err := o.findings.InsertFindings(ctx, found[start:end]); err != nil {
			return fmt.Errorf("commit findings: %w", err)
		}
	}

	if err := o.findings.SetCurrentScan(ctx, scanID); err != nil {
		return fmt.Errorf("mark scan current: %w", err)
	}

	bySeverity := make(map[rules.Severity]int64, len(rules.Severities))
	for _, f := range found {
		bySeverity[f.Severity]++
	}
	for _, s := range rules.Severities {
		metrics.CurrentFindings.WithLabelValues(string(s)).Set(float64(bySeverity[s]))
	}

	if prev != "" && prev != scanID {
		go o.sweep(prev)
	}
	return nil
}

func (o *Orchestrator) sweep(scanID string) {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := o.findings.DeleteScanGeneration(ctx, scanID)
	if err != nil {
		slog.Warn("failed to sweep superseded findings", "scan_id", scanID, "err", err)
		return
	}
	slog.Debug("swept superseded findings", "scan_id", scanID, "deleted", n)
}
