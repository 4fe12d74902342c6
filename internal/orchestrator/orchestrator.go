// Package orchestrator drives one pipeline invocation end to end: resolve
// the edition, lock the date, execute the stage graph, and always leave
// exactly one run-log entry behind.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/africagold/briefing/internal/config"
	"github.com/africagold/briefing/internal/distribution"
	"github.com/africagold/briefing/internal/engine"
	"github.com/africagold/briefing/internal/feeds"
	"github.com/africagold/briefing/internal/logger"
	"github.com/africagold/briefing/internal/model"
	"github.com/africagold/briefing/internal/notify"
	"github.com/africagold/briefing/internal/retry"
	"github.com/africagold/briefing/internal/runlock"
	"github.com/africagold/briefing/internal/runlog"
	"github.com/africagold/briefing/internal/stages/africa"
	"github.com/africagold/briefing/internal/stages/analytics"
	"github.com/africagold/briefing/internal/stages/contracts"
	"github.com/africagold/briefing/internal/stages/market"
	"github.com/africagold/briefing/internal/stages/monetization"
	"github.com/africagold/briefing/internal/stages/partnership"
	"github.com/africagold/briefing/internal/stages/seo"
	"github.com/africagold/briefing/internal/stages/social"
	"github.com/africagold/briefing/internal/stages/synthesis"
	briefingerrors "github.com/africagold/briefing/pkg/errors"
)

// RunLogFile is the durable run log's file name under the log directory.
const RunLogFile = "run_log.jsonl"

// Auxiliary per-stage log file names under the log directory.
const (
	SEOLogFile          = "seo.jsonl"
	SocialLogFile       = "social.jsonl"
	PartnershipLogFile  = "partnership.jsonl"
	MonetizationLogFile = "monetization.jsonl"
)

// AnalyticsLogs opens the stores the analytics aggregators read.
func AnalyticsLogs(logDir string) analytics.Logs {
	return analytics.Logs{
		Runs:         runlog.NewStore(filepath.Join(logDir, RunLogFile)),
		SEO:          runlog.NewStore(filepath.Join(logDir, SEOLogFile)),
		Social:       runlog.NewStore(filepath.Join(logDir, SocialLogFile)),
		Partnership:  runlog.NewStore(filepath.Join(logDir, PartnershipLogFile)),
		Monetization: runlog.NewStore(filepath.Join(logDir, MonetizationLogFile)),
	}
}

// Orchestrator owns one configured pipeline. Each Run call is an
// independent invocation with its own RunContext.
type Orchestrator struct {
	cfg        *config.Config
	log        *logger.Logger
	notifier   *notify.Notifier
	transports []distribution.Transport
	now        func() time.Time
	diag       io.Writer
}

// Option adjusts orchestrator construction, mainly as test seams.
type Option func(*Orchestrator)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithTransports overrides the distribution transports.
func WithTransports(transports ...distribution.Transport) Option {
	return func(o *Orchestrator) { o.transports = transports }
}

// WithNotifier overrides the operator notifier.
func WithNotifier(n *notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithDiagnostics redirects the reporting fallback channel.
func WithDiagnostics(w io.Writer) Option {
	return func(o *Orchestrator) { o.diag = w }
}

// New creates an orchestrator for the given configuration.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:  cfg,
		log:  log,
		now:  time.Now,
		diag: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.notifier == nil {
		o.notifier = notify.New(cfg.Notify, log)
	}
	return o
}

// Run executes one pipeline invocation. The returned error is nil whenever
// reporting ran; validation and lock errors fail fast before any stage, and
// a run-log append failure is the one post-execution error surfaced.
func (o *Orchestrator) Run(ctx context.Context, mode model.Mode, postTypeFlag string) error {
	started := o.now()

	postType := model.PostTypeForDate(started)
	if postTypeFlag != "" {
		parsed, err := model.ParsePostType(postTypeFlag)
		if err != nil {
			return briefingerrors.NewValidationError("post-type", err.Error(), err)
		}
		postType = parsed
	}

	lock, err := runlock.Acquire(o.cfg.Settings.DataDir, started)
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			o.log.Error(err, "releasing run lock")
		}
	}()

	rc := model.NewRunContext(started, postType, mode)
	log := o.log.WithFields(map[string]any{
		"run_id":    rc.ID,
		"post_type": string(postType),
		"mode":      string(mode),
	})
	log.Info("run starting")

	stages, err := o.buildStages(rc)
	if err != nil {
		return err
	}
	graph, err := engine.BuildGraph(stages)
	if err != nil {
		return err
	}

	runs := runlog.NewStore(filepath.Join(o.cfg.Settings.LogDir, RunLogFile))

	// Reporting is the run's finally block: the entry is built and appended
	// whatever the executor did, including a panic.
	var entry *model.RunLogEntry
	var reportErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error(fmt.Errorf("panic: %v", r), "run panicked, reporting partial results")
			}
			entry, reportErr = o.report(runs, rc)
		}()
		engine.NewExecutor(o.cfg.Settings.Parallel, o.log).Execute(ctx, rc, graph)
	}()

	o.sendNotifications(ctx, rc, entry)

	if reportErr != nil {
		fmt.Fprintf(o.diag, "briefing: run log append failed: %v\n", reportErr)
		return reportErr
	}
	log.Info("run complete: " + entry.Status)
	return nil
}

// buildStages constructs the per-run stage set with shared collaborators.
func (o *Orchestrator) buildStages(rc *model.RunContext) ([]engine.Stage, error) {
	settings := o.cfg.Settings
	dataTimeout := time.Duration(settings.DataTimeout) * time.Second
	distTimeout := time.Duration(settings.DistributionTimeout) * time.Second
	postTimeout := time.Duration(settings.PostProcessTimeout) * time.Second

	quotes := feeds.NewQuoteClient(o.cfg.Feeds.ChartBaseURL)
	news := feeds.NewNewsClient(o.log)
	policy := retry.DefaultPolicy()

	transports := o.transports
	if transports == nil {
		var err error
		transports, err = distribution.Transports(o.cfg.Beehiiv, o.log)
		if err != nil {
			return nil, err
		}
	}

	aux := func(name string) *runlog.Store {
		return runlog.NewStore(filepath.Join(settings.LogDir, name))
	}
	runs := runlog.NewStore(filepath.Join(settings.LogDir, RunLogFile))

	return []engine.Stage{
		market.New(o.cfg.Feeds, quotes, news, policy, dataTimeout),
		africa.New(o.cfg.Feeds, news, rc.Date, dataTimeout),
		contracts.New(o.cfg.Contracts, o.log, dataTimeout),
		synthesis.New(rc.PostType, rc.Date, 0),
		seo.New(rc.ID, rc.PostType, rc.Date, aux(SEOLogFile), o.log, postTimeout),
		distribution.New(settings.PreviewDir, rc.Mode, transports, policy, o.log, distTimeout),
		social.New(rc.ID, rc.PostType, rc.Date, aux(SocialLogFile), o.log, postTimeout),
		partnership.New(rc.ID, rc.Date, aux(PartnershipLogFile), o.log, postTimeout),
		monetization.New(rc.ID, rc.Date, runs, aux(MonetizationLogFile), o.log, postTimeout),
		analytics.New(rc.Date, AnalyticsLogs(settings.LogDir), o.log, postTimeout),
	}, nil
}

// sendNotifications emails the operator about the finished run with the
// analytics snapshot attached, the weekly report when one is due, and the
// full edition itself when content exists but nothing could deliver it.
func (o *Orchestrator) sendNotifications(ctx context.Context, rc *model.RunContext, entry *model.RunLogEntry) {
	if entry == nil {
		return
	}

	snapshot := ""
	var weekly *analytics.Report
	if raw, ok := rc.Payload(analytics.StageName); ok {
		data := raw.(*analytics.Data)
		if data.Snapshot != nil {
			snapshot = data.Snapshot.Text()
		}
		weekly = data.Weekly
	}
	o.notifier.Send(ctx, notify.RunMessage(entry, snapshot))
	if weekly != nil {
		o.notifier.Send(ctx, notify.WeeklyReport(weekly.WeekEnd, weekly.Text, weekly.HTML))
	}

	if rc.Mode == model.ModeDryRun || entry.Publish == nil || entry.Publish.State != model.PublishFailed {
		return
	}
	if raw, ok := rc.Payload(synthesis.StageName); ok {
		edition := raw.(*synthesis.Output).Edition
		if !edition.Empty() {
			o.notifier.Send(ctx, notify.FallbackEdition(edition))
		}
	}
}
