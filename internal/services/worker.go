package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/db/repos"
	"github.com/milescrape/milescrape/internal/events"
	"github.com/milescrape/milescrape/internal/logger"
	"github.com/milescrape/milescrape/internal/sources"
)

// finalWriteTimeout bounds the terminal write made after shutdown cancelled the worker context
const finalWriteTimeout = 5 * time.Second

// errStopRequested ends discovery early when the handle is signalled
var errStopRequested = errors.New("stop requested")

// worker runs one scan. It owns a working copy of the record and writes back
// only progress, stats, timestamps, error and status transitions.
type worker struct {
	o      *Orchestrator
	scan   *models.Scan
	handle *Handle
	log    *logrus.Entry
	seq    int
}

type analyzedPost struct {
	candidate sources.Candidate
	relevance float64
}

func newWorker(o *Orchestrator, scan *models.Scan, h *Handle) *worker {
	return &worker{
		o:      o,
		scan:   scan,
		handle: h,
		log:    logger.ForScan(scan.ID),
	}
}

func (w *worker) run(ctx context.Context) {
	if !w.start(ctx) {
		return
	}

	companies, err := w.discover(ctx)
	if err != nil {
		switch {
		case errors.Is(err, errStopRequested):
			w.log.Info("Cancellation signalled during discovery")
		case ctx.Err() != nil:
			w.interrupt(ctx)
		default:
			w.fail(ctx, fmt.Errorf("company discovery failed: %w", err))
		}
		return
	}

	w.scan.Stats.CompaniesDiscovered = len(companies)
	w.appendLog(ctx, fmt.Sprintf("Discovered %d companies near %s", len(companies), w.scan.Params.Location))
	if !w.persist(ctx) {
		return
	}

	failures := 0
	for i, company := range companies {
		if w.checkpoint(ctx) {
			return
		}

		posts, err := w.collect(ctx, company)
		if err != nil {
			if ctx.Err() != nil {
				w.interrupt(ctx)
				return
			}
			failures++
			w.log.Warnf("Skipping company %s: %v", company.Name, err)
			w.appendLog(ctx, fmt.Sprintf("Skipped %s: %v", company.Name, err))
			if failures > w.o.opts.MaxConsecutiveFailures {
				w.fail(ctx, fmt.Errorf("%d consecutive companies failed, last error: %w", failures, err))
				return
			}
		} else {
			failures = 0
			w.scan.Stats.PostsExamined += len(posts)
			accepted, err := w.storeLeads(ctx, posts)
			if err != nil {
				if errors.Is(err, repos.ErrScanNotActive) {
					w.log.Info("Scan left in_progress while storing leads, stopping")
					return
				}
				w.fail(ctx, fmt.Errorf("failed to store lead: %w", err))
				return
			}
			w.appendLog(ctx, fmt.Sprintf("Processed %s: %d posts, %d leads", company.Name, len(posts), accepted))
		}

		w.scan.Progress = min(99, (i+1)*100/len(companies))
		if !w.persist(ctx) {
			return
		}
	}

	w.complete(ctx)
}

// start moves the scan from pending to in_progress
func (w *worker) start(ctx context.Context) bool {
	update := models.NewScanUpdate().WithStartedAt(w.o.opts.Now())
	err := w.o.store.TransitionStatus(ctx, w.scan.ID,
		[]models.ScanStatus{models.ScanStatusPending}, models.ScanStatusInProgress, update)
	if err != nil {
		if errors.Is(err, repos.ErrStatusConflict) || errors.Is(err, repos.ErrNotFound) {
			w.log.Infof("Scan not started: %v", err)
		} else {
			// Left pending, Recover queues it again
			w.log.Errorf("Failed to start scan: %v", err)
		}
		return false
	}

	update.Apply(w.scan)
	w.scan.Status = models.ScanStatusInProgress
	w.log.Info("Scan started")
	w.appendLog(ctx, "Scan started")
	w.publish(events.Event{Type: events.EventScanStarted})
	return true
}

// checkpoint reports whether the scan must stop before the next company.
// A signalled handle or a persisted status other than in_progress stops it.
func (w *worker) checkpoint(ctx context.Context) bool {
	if w.handle.IsCancelled() {
		w.log.Info("Cancellation signalled, stopping at checkpoint")
		return true
	}
	if ctx.Err() != nil {
		w.interrupt(ctx)
		return true
	}

	status, err := w.o.store.GetScanStatus(ctx, w.scan.ID)
	if err != nil {
		w.fail(ctx, fmt.Errorf("failed to read scan status: %w", err))
		return true
	}
	if status != models.ScanStatusInProgress {
		w.log.Infof("Scan is %s, stopping at checkpoint", status)
		return true
	}
	return false
}

// discover finds the companies, retrying failed attempts with a linear backoff
func (w *worker) discover(ctx context.Context) ([]sources.Company, error) {
	attempts := w.o.opts.DiscoveryAttempts
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-w.handle.Cancelled():
				return nil, errStopRequested
			case <-time.After(time.Duration(attempt-1) * w.o.opts.RetryBackoff):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, w.o.opts.CallTimeout)
		companies, err := w.o.sources.Discovery.FindCompanies(callCtx, w.scan.Params.Location, w.scan.Params.RadiusKm)
		cancel()
		if err == nil {
			return companies, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
		w.log.Warnf("Discovery attempt %d/%d failed: %v", attempt, attempts, err)
		w.appendLog(ctx, fmt.Sprintf("Discovery attempt %d/%d failed: %v", attempt, attempts, err))
	}
	return nil, lastErr
}

// collect extracts the milestone posts of one company and rates each of them
func (w *worker) collect(ctx context.Context, company sources.Company) ([]analyzedPost, error) {
	callCtx, cancel := context.WithTimeout(ctx, w.o.opts.CallTimeout)
	candidates, err := w.o.sources.Extractor.FindMilestones(callCtx, company,
		w.scan.Params.LookbackDays, w.scan.Params.MilestoneTypes)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("extracting milestones: %w", err)
	}

	posts := make([]analyzedPost, 0, len(candidates))
	for _, c := range candidates {
		callCtx, cancel := context.WithTimeout(ctx, w.o.opts.CallTimeout)
		rel, err := w.o.sources.Analyzer.Relevance(callCtx, c.Content)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("analyzing post %s: %w", c.URL, err)
		}
		posts = append(posts, analyzedPost{candidate: c, relevance: rel})
	}
	return posts, nil
}

// storeLeads scores the posts and persists the accepted ones in order
func (w *worker) storeLeads(ctx context.Context, posts []analyzedPost) (int, error) {
	now := w.o.opts.Now()
	accepted := 0
	for _, p := range posts {
		d := w.o.engine.ScoreAndFilter(p.candidate, w.scan.Params, p.relevance, now)
		if !d.Accept {
			w.log.Debugf("Rejected %s post from %s (score %d): %s",
				p.candidate.MilestoneType, p.candidate.Company.Name, d.Score, d.Reason)
			continue
		}

		w.seq++
		lead := w.newLead(p.candidate, d.Score, w.seq, now)
		created, err := w.o.store.CreateLead(ctx, lead)
		if err != nil {
			return accepted, err
		}
		if !created {
			continue
		}
		w.scan.Stats.LeadsCreated++
		accepted++
		w.publish(events.Event{Type: events.EventLeadCreated, LeadID: lead.ID, Score: lead.Score})
	}
	return accepted, nil
}

func (w *worker) newLead(c sources.Candidate, score, seq int, now time.Time) *models.Lead {
	discovered := now.UTC()
	if c.PostedAt != nil {
		discovered = c.PostedAt.UTC()
	}
	seniority := c.Seniority
	if seniority == "" {
		seniority = models.SeniorityUnknown
	}
	return &models.Lead{
		ID:            models.LeadID(w.scan.ID, seq),
		ScanID:        w.scan.ID,
		Sequence:      seq,
		CompanyName:   c.Company.Name,
		MilestoneType: c.MilestoneType,
		Score:         score,
		SourceText:    c.Content,
		SourceURL:     c.URL,
		Location:      c.EffectiveLocation(),
		Seniority:     seniority,
		DiscoveredAt:  discovered,
	}
}

// persist writes progress and stats while the scan is still in_progress
func (w *worker) persist(ctx context.Context) bool {
	update := models.NewScanUpdate().WithProgress(w.scan.Progress).WithStats(w.scan.Stats)
	err := w.o.store.SaveProgress(ctx, w.scan.ID, models.ScanStatusInProgress, update)
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, repos.ErrStatusConflict), errors.Is(err, repos.ErrNotFound):
		w.log.Infof("Progress not saved, stopping: %v", err)
	case ctx.Err() != nil:
		w.interrupt(ctx)
	default:
		w.fail(ctx, fmt.Errorf("failed to save progress: %w", err))
	}
	return false
}

func (w *worker) complete(ctx context.Context) {
	now := w.o.opts.Now()
	update := models.NewScanUpdate().WithProgress(100).WithStats(w.scan.Stats).WithEndedAt(now)
	err := w.o.store.TransitionStatus(ctx, w.scan.ID,
		[]models.ScanStatus{models.ScanStatusInProgress}, models.ScanStatusCompleted, update)
	if err != nil {
		if errors.Is(err, repos.ErrStatusConflict) {
			w.log.Infof("Scan not completed: %v", err)
			return
		}
		w.fail(ctx, fmt.Errorf("failed to complete scan: %w", err))
		return
	}

	update.Apply(w.scan)
	w.scan.Status = models.ScanStatusCompleted
	msg := fmt.Sprintf("Scan completed: %d leads from %d posts across %d companies",
		w.scan.Stats.LeadsCreated, w.scan.Stats.PostsExamined, w.scan.Stats.CompaniesDiscovered)
	w.log.Info(msg)
	w.appendLog(ctx, msg)
	w.publish(events.Event{Type: events.EventScanCompleted, Message: msg})
}

// fail records a fatal error. Leads already written stay.
func (w *worker) fail(ctx context.Context, cause error) {
	now := w.o.opts.Now()
	update := models.NewScanUpdate().WithStats(w.scan.Stats).WithEndedAt(now).WithError(cause.Error())
	err := w.o.store.TransitionStatus(ctx, w.scan.ID,
		[]models.ScanStatus{models.ScanStatusInProgress}, models.ScanStatusFailed, update)
	if err != nil {
		if errors.Is(err, repos.ErrStatusConflict) {
			w.log.Infof("Scan already finished, not marking failed: %v", err)
			return
		}
		w.log.Errorf("Failed to mark scan failed (%v): %v", cause, err)
		return
	}

	update.Apply(w.scan)
	w.scan.Status = models.ScanStatusFailed
	w.log.Errorf("Scan failed: %v", cause)
	w.appendLog(ctx, "Scan failed: "+cause.Error())
	w.publish(events.Event{Type: events.EventScanFailed, Message: cause.Error()})
}

// interrupt fails the scan after shutdown cancelled ctx
func (w *worker) interrupt(ctx context.Context) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalWriteTimeout)
	defer cancel()
	w.fail(writeCtx, errors.New(interruptedMessage))
}

func (w *worker) appendLog(ctx context.Context, msg string) {
	w.o.appendLog(ctx, w.scan.ID, msg)
}

func (w *worker) publish(e events.Event) {
	e.ScanID = w.scan.ID
	e.Time = w.o.opts.Now()
	w.o.bus.Publish(e)
}
