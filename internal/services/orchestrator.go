// Package services runs scans: admission, the per scan worker loop and the lead queries
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/db/repos"
	"github.com/milescrape/milescrape/internal/events"
	"github.com/milescrape/milescrape/internal/logger"
	"github.com/milescrape/milescrape/internal/scoring"
	"github.com/milescrape/milescrape/internal/sources"
)

// Orchestrator defaults
const (
	DefaultMaxConcurrentScans     = 2
	DefaultCallTimeout            = 30 * time.Second
	DefaultMaxConsecutiveFailures = 3
	DefaultDiscoveryAttempts      = 3
	DefaultRetryBackoff           = 2 * time.Second

	// interruptedMessage is the error recorded on scans whose worker did not survive
	interruptedMessage = "interrupted: worker stopped before the scan finished"
)

// Options tunes the orchestrator. Zero values take the defaults.
type Options struct {
	MaxConcurrentScans int
	// QueueLimit caps the scans waiting for a slot, 0 for no cap
	QueueLimit             int
	CallTimeout            time.Duration
	MaxConsecutiveFailures int
	DiscoveryAttempts      int
	RetryBackoff           time.Duration
	Now                    func() time.Time
}

func (o *Options) setDefaults() {
	if o.MaxConcurrentScans <= 0 {
		o.MaxConcurrentScans = DefaultMaxConcurrentScans
	}
	if o.QueueLimit < 0 {
		o.QueueLimit = 0
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.MaxConsecutiveFailures <= 0 {
		o.MaxConsecutiveFailures = DefaultMaxConsecutiveFailures
	}
	if o.DiscoveryAttempts <= 0 {
		o.DiscoveryAttempts = DefaultDiscoveryAttempts
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultRetryBackoff
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
}

// Health is a snapshot of the orchestrator's load
type Health struct {
	ActiveScans        int  `json:"active_scans"`
	QueuedScans        int  `json:"queued_scans"`
	MaxConcurrentScans int  `json:"max_concurrent_scans"`
	Live               bool `json:"live"`
}

// RecoveryReport counts what Recover did with the scans it found
type RecoveryReport struct {
	Requeued    int `json:"requeued"`
	Interrupted int `json:"interrupted"`
}

// Orchestrator turns scan requests into supervised background workers
type Orchestrator struct {
	store    ScanStore
	sources  *sources.Set
	engine   *scoring.Engine
	bus      *events.Bus
	registry *Registry
	sem      *semaphore.Weighted
	opts     Options

	// base is the parent context of every worker, cancelled by Shutdown
	base context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	// waiting holds registered scans in arrival order until a slot frees up
	mu      sync.Mutex
	waiting []queuedScan
	queued  int
	running int
	closed  bool
}

type queuedScan struct {
	scan   *models.Scan
	handle *Handle
}

// NewOrchestrator creates an orchestrator. bus may be nil.
func NewOrchestrator(store ScanStore, src *sources.Set, engine *scoring.Engine, bus *events.Bus, opts Options) *Orchestrator {
	opts.setDefaults()
	base, stop := context.WithCancel(context.Background())
	return &Orchestrator{
		store:    store,
		sources:  src,
		engine:   engine,
		bus:      bus,
		registry: NewRegistry(),
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrentScans)),
		opts:     opts,
		base:     base,
		stop:     stop,
	}
}

// Registry exposes the orchestrator's handle registry
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// Start validates params, records a pending scan and queues its worker.
// It returns as soon as the scan is queued.
func (o *Orchestrator) Start(ctx context.Context, params models.ScanParams) (string, error) {
	params, err := ValidateParams(params)
	if err != nil {
		return "", err
	}

	if err := o.reserve(); err != nil {
		return "", err
	}

	scan := &models.Scan{
		ID:        models.NewScanID(),
		Status:    models.ScanStatusPending,
		Params:    params,
		CreatedAt: o.opts.Now(),
	}
	if err := o.store.CreateScan(ctx, scan); err != nil {
		o.unreserve()
		return "", fmt.Errorf("failed to create scan: %w", err)
	}
	o.appendLog(ctx, scan.ID, fmt.Sprintf("Scan queued for %s (radius %.1f km, lookback %d days)",
		params.Location, params.RadiusKm, params.LookbackDays))

	if err := o.enqueue(scan); err != nil {
		o.unreserve()
		if errors.Is(err, ErrShuttingDown) {
			o.abandon(ctx, scan.ID)
		}
		return "", err
	}

	logger.InfoWithFields("Scan queued", map[string]interface{}{
		"scan_id":  scan.ID,
		"location": params.Location,
	})
	return scan.ID, nil
}

// Cancel stops a pending or running scan. Cancelling a finished scan is a no-op.
func (o *Orchestrator) Cancel(ctx context.Context, id string) error {
	status, err := o.store.GetScanStatus(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return &NotFoundError{Kind: "scan", ID: id}
		}
		return err
	}
	if status.IsTerminal() {
		return nil
	}

	update := models.NewScanUpdate().WithEndedAt(o.opts.Now())
	err = o.store.TransitionStatus(ctx, id,
		[]models.ScanStatus{models.ScanStatusPending, models.ScanStatusInProgress},
		models.ScanStatusCancelled, update)
	if err != nil {
		// The scan finished between the read and the write
		if errors.Is(err, repos.ErrStatusConflict) {
			return nil
		}
		return fmt.Errorf("failed to cancel scan %s: %w", id, err)
	}

	o.registry.Signal(id)
	o.dropQueued(id)
	o.appendLog(ctx, id, "Scan cancelled")
	o.bus.Publish(events.Event{Type: events.EventScanCancelled, ScanID: id, Time: o.opts.Now()})
	logger.ForScan(id).Info("Scan cancelled")
	return nil
}

// Status returns a snapshot of the scan with its log
func (o *Orchestrator) Status(ctx context.Context, id string) (*models.Scan, error) {
	scan, err := o.store.GetScan(ctx, id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return nil, &NotFoundError{Kind: "scan", ID: id}
		}
		return nil, err
	}
	return scan, nil
}

// Health reports the running and queued scan counts
func (o *Orchestrator) Health() Health {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Health{
		ActiveScans:        o.running,
		QueuedScans:        o.queued,
		MaxConcurrentScans: o.opts.MaxConcurrentScans,
		Live:               !o.closed,
	}
}

// Recover picks up the scans a previous process left active. Pending scans
// without a live worker are queued again; in progress ones are marked failed.
func (o *Orchestrator) Recover(ctx context.Context) (RecoveryReport, error) {
	var report RecoveryReport

	scans, err := o.store.ListActiveScans(ctx)
	if err != nil {
		return report, err
	}

	for i := range scans {
		scan := scans[i]
		if o.registry.IsActive(scan.ID) {
			continue
		}
		switch scan.Status {
		case models.ScanStatusPending:
			o.mu.Lock()
			o.queued++
			o.mu.Unlock()
			if err := o.enqueue(&scan); err != nil {
				o.unreserve()
				return report, err
			}
			o.appendLog(ctx, scan.ID, "Scan requeued after restart")
			report.Requeued++
		case models.ScanStatusInProgress:
			now := o.opts.Now()
			update := models.NewScanUpdate().WithEndedAt(now).WithError(interruptedMessage)
			err := o.store.TransitionStatus(ctx, scan.ID,
				[]models.ScanStatus{models.ScanStatusInProgress}, models.ScanStatusFailed, update)
			if err != nil {
				if errors.Is(err, repos.ErrStatusConflict) {
					continue
				}
				return report, err
			}
			o.appendLog(ctx, scan.ID, "Scan failed: "+interruptedMessage)
			o.bus.Publish(events.Event{Type: events.EventScanFailed, ScanID: scan.ID, Message: interruptedMessage, Time: now})
			report.Interrupted++
		}
	}

	if report.Requeued > 0 || report.Interrupted > 0 {
		logger.InfoWithFields("Recovered active scans", map[string]interface{}{
			"requeued":    report.Requeued,
			"interrupted": report.Interrupted,
		})
	}
	return report, nil
}

// Shutdown stops accepting scans, stops the workers at their next checkpoint
// and waits for them until ctx ends. Queued scans stay pending for Recover.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.mu.Lock()
	o.closed = true
	for _, q := range o.waiting {
		o.registry.Deregister(q.scan.ID)
		o.wg.Done()
	}
	o.queued -= len(o.waiting)
	o.waiting = nil
	o.mu.Unlock()
	o.stop()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("All scan workers stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for scan workers: %w", ctx.Err())
	}
}

// reserve takes a queue place for a new scan
func (o *Orchestrator) reserve() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrShuttingDown
	}
	if o.opts.QueueLimit > 0 && o.queued >= o.opts.QueueLimit {
		return ErrQueueFull
	}
	o.queued++
	return nil
}

func (o *Orchestrator) unreserve() {
	o.mu.Lock()
	o.queued--
	o.mu.Unlock()
}

// enqueue registers a handle for scan and puts it at the back of the
// admission queue. The caller holds a queue place. The WaitGroup is only
// added to under o.mu while the orchestrator is open, so Shutdown never
// races a late Add.
func (o *Orchestrator) enqueue(scan *models.Scan) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrShuttingDown
	}
	h := NewHandle()
	if err := o.registry.Register(scan.ID, h); err != nil {
		return err
	}
	o.wg.Add(1)
	o.waiting = append(o.waiting, queuedScan{scan: scan, handle: h})
	o.dispatchLocked()
	return nil
}

// dispatchLocked starts queued scans in arrival order while slots are free.
// Callers hold o.mu.
func (o *Orchestrator) dispatchLocked() {
	for len(o.waiting) > 0 && !o.closed && o.sem.TryAcquire(1) {
		next := o.waiting[0]
		o.waiting = o.waiting[1:]
		o.queued--
		o.running++
		go o.run(next.scan, next.handle)
	}
}

// dropQueued removes a cancelled scan that is still waiting for a slot
func (o *Orchestrator) dropQueued(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, q := range o.waiting {
		if q.scan.ID != id {
			continue
		}
		o.waiting = append(o.waiting[:i], o.waiting[i+1:]...)
		o.queued--
		o.registry.Deregister(id)
		o.wg.Done()
		logger.ForScan(id).Debug("Scan left the queue before it started")
		return
	}
}

// abandon fails a scan recorded by a Start that lost the race with Shutdown
func (o *Orchestrator) abandon(ctx context.Context, id string) {
	update := models.NewScanUpdate().WithEndedAt(o.opts.Now()).WithError(ErrShuttingDown.Error())
	err := o.store.TransitionStatus(ctx, id,
		[]models.ScanStatus{models.ScanStatusPending}, models.ScanStatusFailed, update)
	if err != nil {
		logger.ForScan(id).Warnf("failed to mark abandoned scan: %v", err)
	}
}

// run works an admitted scan and hands its slot to the next queued one
func (o *Orchestrator) run(scan *models.Scan, h *Handle) {
	defer o.wg.Done()
	defer o.registry.Deregister(scan.ID)
	defer o.release()

	if h.IsCancelled() {
		logger.ForScan(scan.ID).Debug("Scan cancelled before it started")
		return
	}
	newWorker(o, scan, h).run(o.base)
}

func (o *Orchestrator) release() {
	o.sem.Release(1)
	o.mu.Lock()
	o.running--
	o.dispatchLocked()
	o.mu.Unlock()
}

// appendLog writes a scan log line. Log writes are best effort.
func (o *Orchestrator) appendLog(ctx context.Context, id, msg string) {
	entry := models.ScanLogEntry{Timestamp: o.opts.Now(), Message: msg}
	if err := o.store.AppendLog(ctx, id, entry); err != nil {
		logger.ForScan(id).Warnf("failed to append scan log: %v", err)
	}
}

// ValidateParams checks and normalizes scan parameters. Milestone types are
// de-duplicated and kept in the order given.
func ValidateParams(p models.ScanParams) (models.ScanParams, error) {
	p.Location = strings.TrimSpace(p.Location)
	if p.Location == "" {
		return p, &ValidationError{Field: "location", Message: "must not be empty"}
	}
	if math.IsNaN(p.RadiusKm) || math.IsInf(p.RadiusKm, 0) || p.RadiusKm <= 0 {
		return p, &ValidationError{Field: "radius_km", Message: "must be greater than 0"}
	}
	if p.LookbackDays < 0 {
		return p, &ValidationError{Field: "lookback_days", Message: "must not be negative"}
	}

	if len(p.MilestoneTypes) == 0 {
		return p, &ValidationError{Field: "milestone_types", Message: "at least one milestone type is required"}
	}
	types := make([]models.MilestoneType, 0, len(p.MilestoneTypes))
	seen := map[models.MilestoneType]bool{}
	for _, raw := range p.MilestoneTypes {
		mt, err := models.ParseMilestoneType(string(raw))
		if err != nil {
			return p, &ValidationError{Field: "milestone_types", Message: err.Error()}
		}
		if !seen[mt] {
			seen[mt] = true
			types = append(types, mt)
		}
	}
	p.MilestoneTypes = types

	if len(p.SeniorityLevels) > 0 {
		levels := make([]models.Seniority, 0, len(p.SeniorityLevels))
		for _, raw := range p.SeniorityLevels {
			s, err := models.ParseSeniority(string(raw))
			if err != nil {
				return p, &ValidationError{Field: "seniority_levels", Message: err.Error()}
			}
			levels = append(levels, s)
		}
		p.SeniorityLevels = levels
	}

	if p.CompanySizeMin != nil && *p.CompanySizeMin < 0 {
		return p, &ValidationError{Field: "company_size_min", Message: "must not be negative"}
	}
	if p.CompanySizeMin != nil && p.CompanySizeMax != nil && *p.CompanySizeMin > *p.CompanySizeMax {
		return p, &ValidationError{Field: "company_size_max", Message: "must not be less than company_size_min"}
	}
	return p, nil
}
