// Package harvest sweeps an integer key range against the registry one query at a time.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"agencyharvest/internal/components/assert"
	"agencyharvest/internal/components/chrono"
	"agencyharvest/internal/components/fsdump"
	"agencyharvest/internal/components/telemetry"
	"agencyharvest/internal/document"
	"agencyharvest/internal/extract"
	"agencyharvest/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_controller_open       = "controller.open"
	report_controller_close      = "controller.close"
	report_controller_query      = "controller.query"
	report_controller_reset      = "controller.reset"
	report_controller_extract    = "controller.extract"
	report_controller_iteration  = "controller.iteration"
	report_controller_cooldown   = "controller.cooldown"
	report_controller_checkpoint = "controller.checkpoint"
	report_controller_dump       = "controller.dump"
)

var tracer = otel.Tracer("agencyharvest/internal/harvest")

var meter = otel.Meter("agencyharvest.harvest")
var queriesCounter, _ = meter.Int64Counter("harvest.queries", metric.WithDescription("queries by outcome"))
var insertedCounter, _ = meter.Int64Counter("store.inserted")
var updatedCounter, _ = meter.Int64Counter("store.updated")

// Controller drives one harvest run. It owns its EnumerationState, nothing about a run is global.
type Controller struct {
	opener    Opener
	extractor extract.Extractor
	store     Store
	sleep     chrono.SleepAPI
	tel       telemetry.API
	cfg       Config

	status atomic.Int32
}

func NewController(
	opener Opener,
	extractor extract.Extractor,
	store Store,
	sleep chrono.SleepAPI,
	tel telemetry.API,
	cfg Config,
) *Controller {
	assert.NotNil(opener)
	assert.NotNil(store)
	assert.NotNil(sleep)
	assert.NotNil(tel)
	assert.Range(cfg.Start, cfg.End)
	cfg = cfg.WithDefaults()
	assert.NotEmptyStr(cfg.CheckpointName)

	return &Controller{
		opener:    opener,
		extractor: extractor,
		store:     store,
		sleep:     sleep,
		tel:       telemetry.NewScopedAPI("harvest", tel),
		cfg:       cfg,
	}
}

// Status is safe to call while Run is in progress.
func (c *Controller) Status() Status {
	return Status(c.status.Load())
}

func (c *Controller) setStatus(s Status) {
	c.status.Store(int32(s))
}

// Run sweeps [Start, End) until the range is exhausted or ctx is cancelled. It only returns an
// error when no session could be opened, every other fault is counted as a failed query.
func (c *Controller) Run(ctx context.Context) (summary Summary, err error) {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "harvest.run", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("start", c.cfg.Start),
		attribute.Int("end", c.cfg.End),
	))
	defer span.End()

	state := EnumerationState{CurrentKey: c.resumeKey(ctx)}
	startKey := state.CurrentKey

	session, err := c.opener.Open(ctx)
	if err != nil {
		c.tel.ReportBroken(report_controller_open, err)
		span.SetStatus(codes.Error, "open session")
		return Summary{RunID: runID, Status: c.Status(), StartKey: startKey, State: state},
			fmt.Errorf("open session: %w", err)
	}

	c.setStatus(StatusRunning)
	c.tel.ReportInfo(
		"harvest started",
		"run_id", runID,
		"from", state.CurrentKey,
		"to", c.cfg.End,
	)

	defer func() {
		closeErr := session.Close()
		if closeErr != nil {
			c.tel.ReportWarning(report_controller_close, closeErr)
		}
		c.saveCheckpoint(context.WithoutCancel(ctx), runID, state)

		summary = Summary{
			RunID:    runID,
			Status:   c.Status(),
			StartKey: startKey,
			State:    state,
		}
		span.SetAttributes(
			attribute.String("status", summary.Status.String()),
			attribute.Int("successful", state.SuccessfulQueries),
			attribute.Int("failed", state.FailedQueries),
		)
		c.tel.ReportInfo(
			"harvest summary",
			"run_id", runID,
			"status", summary.Status.String(),
			"successful", state.SuccessfulQueries,
			"failed", state.FailedQueries,
			"inserted", state.Inserted,
			"updated", state.Updated,
			"next_key", state.CurrentKey,
		)
	}()

	sinceCheckpoint := 0
	for state.CurrentKey < c.cfg.End {
		if ctx.Err() != nil {
			c.setStatus(StatusAborted)
			return summary, nil
		}

		if !c.iterate(ctx, session, &state) {
			continue
		}
		state.CurrentKey++

		sinceCheckpoint++
		if sinceCheckpoint >= c.cfg.CheckpointEvery {
			sinceCheckpoint = 0
			c.saveCheckpoint(ctx, runID, state)
		}
	}

	c.setStatus(StatusFinished)
	return summary, nil
}

func (c *Controller) resumeKey(ctx context.Context) int {
	if !c.cfg.Resume {
		return c.cfg.Start
	}
	checkpoint, err := c.store.LoadCheckpoint(ctx, c.cfg.checkpointKey())
	if errors.Is(err, store.ErrNotFound) {
		return c.cfg.Start
	}
	if err != nil {
		c.tel.ReportWarning(report_controller_checkpoint, fmt.Errorf("load: %w", err))
		return c.cfg.Start
	}
	if checkpoint.NextKey < c.cfg.Start || checkpoint.NextKey >= c.cfg.End {
		c.tel.ReportInfo(
			"checkpoint outside of range, starting over",
			"next_key", checkpoint.NextKey,
		)
		return c.cfg.Start
	}
	c.tel.ReportInfo(
		"resuming from checkpoint",
		"next_key", checkpoint.NextKey,
		"previous_run", checkpoint.RunID,
	)
	return checkpoint.NextKey
}

func (c *Controller) saveCheckpoint(ctx context.Context, runID string, state EnumerationState) {
	err := c.store.SaveCheckpoint(ctx, store.Checkpoint{
		Name:    c.cfg.checkpointKey(),
		NextKey: state.CurrentKey,
		RunID:   runID,
	})
	if err != nil {
		c.tel.ReportWarning(report_controller_checkpoint, fmt.Errorf("save: %w", err))
	}
}

// iterate runs the query cycle for state.CurrentKey. It reports false when the key was
// interrupted by cancellation before its outcome was known and must be queried again.
func (c *Controller) iterate(ctx context.Context, session Session, state *EnumerationState) (done bool) {
	key := state.CurrentKey
	query := strconv.Itoa(key)

	ctx, span := tracer.Start(ctx, "harvest.iteration", trace.WithAttributes(
		attribute.Int("key", key),
	))
	defer span.End()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err := fmt.Errorf("panic: %v", r)
		span.RecordError(err)
		c.tel.ReportBroken(report_controller_iteration, query, err)
		c.fail(ctx, state, "fault")
		c.pause(ctx, c.cfg.FaultPause)
		c.backoff(ctx, state)
		done = true
	}()

	tree, err := c.query(ctx, session, query)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		span.RecordError(err)
		c.tel.ReportWarning(report_controller_query, query, err)
		c.fail(ctx, state, "retrieval_error")
	} else {
		c.handle(ctx, query, tree, state)
		c.reset(ctx, session)
	}

	c.backoff(ctx, state)
	c.pause(ctx, c.sleep.Jitter(c.cfg.DelayMin, c.cfg.DelayMax))
	return true
}

func (c *Controller) query(ctx context.Context, session Session, query string) (*document.Tree, error) {
	err := session.Submit(ctx, query)
	if err != nil {
		return nil, err
	}
	return session.AwaitRendered(ctx, c.extractor.Layout.Markers()...)
}

func (c *Controller) handle(ctx context.Context, query string, tree *document.Tree, state *EnumerationState) {
	outcome := c.extractor.Extract(tree)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("outcome", outcome.Kind.String()))

	switch outcome.Kind {
	case extract.KindRecords:
		report := c.store.Upsert(ctx, outcome.Records)
		state.SuccessfulQueries++
		state.ConsecutiveFailures = 0
		state.Inserted += report.Inserted
		state.Updated += report.Updated

		queriesCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.Kind.String())))
		insertedCounter.Add(ctx, int64(report.Inserted))
		updatedCounter.Add(ctx, int64(report.Updated))

		for _, r := range outcome.Records {
			c.tel.ReportInfo(
				"agency found",
				"query", query,
				"document_number", r.DocumentNumber,
				"name", r.Name,
				"district", r.District,
				"city", r.City,
			)
		}
		c.tel.ReportInfo(
			"progress",
			"successful", state.SuccessfulQueries,
			"failed", state.FailedQueries,
			"inserted", report.Inserted,
			"updated", report.Updated,
		)
	case extract.KindNoResult:
		c.tel.ReportDebug("no result", query)
		c.fail(ctx, state, outcome.Kind.String())
	case extract.KindSystemError:
		c.tel.ReportWarning(report_controller_extract, query, outcome.Kind.String(), outcome.Message)
		c.dump(query, tree)
		c.fail(ctx, state, outcome.Kind.String())
	case extract.KindParseFailure:
		c.tel.ReportWarning(report_controller_extract, query, outcome.Kind.String(), outcome.Message)
		c.dump(query, tree)
		c.fail(ctx, state, outcome.Kind.String())
	}
}

func (c *Controller) fail(ctx context.Context, state *EnumerationState, outcome string) {
	state.FailedQueries++
	state.ConsecutiveFailures++
	queriesCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// reset never fails the iteration, the outcome of the key is already counted by then.
func (c *Controller) reset(ctx context.Context, session Session) {
	err := c.tryReset(ctx, session)
	if err != nil {
		c.tel.ReportWarning(report_controller_reset, err)
	}
	c.pause(ctx, c.cfg.ResetDelay)
}

func (c *Controller) tryReset(ctx context.Context, session Session) (err error) {
	defer func() {
		r := recover()
		if r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return session.Reset(ctx)
}

func (c *Controller) backoff(ctx context.Context, state *EnumerationState) {
	if state.ConsecutiveFailures < c.cfg.CooldownThreshold {
		return
	}
	c.tel.ReportWarning(
		report_controller_cooldown,
		fmt.Errorf("%d consecutive failures", state.ConsecutiveFailures),
		c.cfg.CooldownDuration.String(),
	)
	c.setStatus(StatusPaused)
	c.pause(ctx, c.cfg.CooldownDuration)
	state.ConsecutiveFailures = 0
	c.setStatus(StatusRunning)
}

// pause waits d, cancellation ends the wait early and is picked up between iterations.
func (c *Controller) pause(ctx context.Context, d time.Duration) {
	_ = c.sleep.Sleep(ctx, d)
}

func (c *Controller) dump(query string, tree *document.Tree) {
	if c.cfg.DumpDir == "" {
		return
	}
	dir, err := fsdump.New(c.cfg.DumpDir)
	if err == nil {
		err = dir.Write(query+".html", tree.HTML())
	}
	if err != nil {
		c.tel.ReportWarning(report_controller_dump, query, err)
	}
}
