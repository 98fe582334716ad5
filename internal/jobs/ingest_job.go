package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"airspace-analytics/vatwatch/internal/common"
	"airspace-analytics/vatwatch/internal/config"
	"airspace-analytics/vatwatch/internal/db"
	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/detectors"
	"airspace-analytics/vatwatch/internal/geo"
	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/metrics"
	"airspace-analytics/vatwatch/internal/models/entities"
	"airspace-analytics/vatwatch/internal/providers"
	"airspace-analytics/vatwatch/internal/services"
)

// Feed polling never backs off beyond this
const maxBackoff = 5 * time.Minute

// How often the retention cleanup runs
const cleanupEvery = 30 * time.Minute

// IngestJob drives the whole pipeline: poll the feed, filter, buffer, flush,
// then run the detectors. Everything runs on one goroutine; the buffer is
// never shared.
type IngestJob struct {
	provider      *providers.FeedProvider
	buffer        *common.ObservationBuffer
	ingestRepo    *repositories.IngestRepository
	ctrlRepo      *repositories.ControllerRepository
	landing       *detectors.LandingDetector
	completion    *detectors.FlightCompletion
	matcher       *detectors.Matcher
	summarizer    *services.Summarizer
	status        *services.StatusService
	dashboard     *common.DashboardPublisher
	metrics       *metrics.MetricsRegistry
	pollInterval  time.Duration
	writeInterval time.Duration
	retentionH    int

	boundaryMu   sync.RWMutex
	boundary     *geo.Polygon
	boundaryPath string

	cycle        int64
	lastSnapshot time.Time
	lastFlush    time.Time
	lastCleanup  time.Time

	// FatalErr receives the first unrecoverable persistence error
	FatalErr chan error
}

// NewIngestJob wires the pipeline together. boundary may be nil when the
// geographic filter is disabled.
func NewIngestJob(
	cfg *config.Config,
	provider *providers.FeedProvider,
	buffer *common.ObservationBuffer,
	ingestRepo *repositories.IngestRepository,
	ctrlRepo *repositories.ControllerRepository,
	landing *detectors.LandingDetector,
	completion *detectors.FlightCompletion,
	matcher *detectors.Matcher,
	summarizer *services.Summarizer,
	status *services.StatusService,
	dashboard *common.DashboardPublisher,
	registry *metrics.MetricsRegistry,
	boundary *geo.Polygon,
) *IngestJob {
	return &IngestJob{
		provider:      provider,
		buffer:        buffer,
		ingestRepo:    ingestRepo,
		ctrlRepo:      ctrlRepo,
		landing:       landing,
		completion:    completion,
		matcher:       matcher,
		summarizer:    summarizer,
		status:        status,
		dashboard:     dashboard,
		metrics:       registry,
		pollInterval:  cfg.PollInterval,
		writeInterval: cfg.WriteInterval,
		retentionH:    int(cfg.Retention.Hours()),
		boundary:      boundary,
		boundaryPath:  cfg.BoundaryPath,
		FatalErr:      make(chan error, 1),
	}
}

// ReloadBoundary re-reads the boundary polygon from disk. Called on SIGHUP.
func (j *IngestJob) ReloadBoundary() error {
	if j.boundaryPath == "" {
		return nil
	}
	poly, err := geo.Reload(j.boundaryPath)
	if err != nil {
		return err
	}
	j.boundaryMu.Lock()
	j.boundary = poly
	j.boundaryMu.Unlock()
	log.Printf("[IngestJob] Boundary polygon reloaded from %s", j.boundaryPath)
	return nil
}

// RunScheduled polls the feed until ctx is cancelled. While the feed is
// unavailable the effective poll interval doubles, capped at five minutes,
// and snaps back to normal on the first successful cycle.
func (j *IngestJob) RunScheduled(ctx context.Context) {
	interval := j.pollInterval
	timer := time.NewTimer(0) // first cycle runs immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[IngestJob] Shutting down ingestion loop")
			return
		case <-timer.C:
		}

		err := j.Run(ctx)
		next := nextInterval(interval, j.pollInterval, err)
		switch {
		case err == nil:
			if interval != j.pollInterval {
				log.Printf("[IngestJob] Feed recovered, polling every %s again", j.pollInterval)
			}
		case providers.IsFeedUnavailable(err):
			log.Printf("[IngestJob] Feed unavailable, backing off to %s: %v", next, err)
		default:
			log.Printf("[IngestJob] Cycle error: %v", err)
		}
		interval = next

		timer.Reset(interval)
	}
}

// nextInterval computes the next poll delay. Unavailability doubles the
// delay up to the cap; anything else, including corrupt documents, keeps
// the normal cadence.
func nextInterval(current, base time.Duration, err error) time.Duration {
	if err == nil || !providers.IsFeedUnavailable(err) {
		return base
	}
	next := current * 2
	if next > maxBackoff {
		next = maxBackoff
	}
	return next
}

// Run executes one full ingestion cycle
func (j *IngestJob) Run(ctx context.Context) error {
	start := time.Now()
	j.cycle++
	defer func() {
		j.metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	fetchStart := time.Now()
	snap, err := j.provider.FetchSnapshot(ctx)
	j.metrics.FeedFetchDuration.WithLabelValues("feed").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		j.metrics.CyclesTotal.WithLabelValues("error").Inc()
		j.status.RecordCycle(j.cycle, services.CycleError, time.Now().UTC())
		return err
	}

	// The upstream document refreshes slower than we poll; an unchanged
	// update_timestamp means there is nothing new to process.
	if !snap.SnapshotTime.After(j.lastSnapshot) {
		j.metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		j.status.RecordCycle(j.cycle, services.CycleSkipped, time.Now().UTC())
		return nil
	}
	j.lastSnapshot = snap.SnapshotTime

	pilots, rejected := j.filterPilots(snap.Pilots)

	for _, p := range pilots {
		j.buffer.PutPilot(p)
	}
	for _, c := range snap.Controllers {
		j.buffer.PutController(c)
	}
	j.metrics.BufferSize.WithLabelValues("pilots").Set(float64(j.buffer.PilotCount()))
	j.metrics.BufferSize.WithLabelValues("controllers").Set(float64(j.buffer.ControllerCount()))

	transceivers := j.fetchTransceivers(ctx, snap, pilots)

	if time.Since(j.lastFlush) >= j.writeInterval {
		if err := j.flush(ctx, transceivers); err != nil {
			return err
		}
	}

	emitted := j.runDetectors(ctx, snap, pilots)

	if time.Since(j.lastCleanup) >= cleanupEvery {
		j.lastCleanup = time.Now()
		if n, err := j.ingestRepo.CleanupOld(ctx, j.retentionH); err != nil {
			log.Printf("[IngestJob] Retention cleanup failed: %v", err)
		} else if n > 0 {
			log.Printf("[IngestJob] Retention cleanup removed %d rows", n)
		}
	}

	j.metrics.CyclesTotal.WithLabelValues("ok").Inc()
	j.status.RecordCycle(j.cycle, services.CycleOK, time.Now().UTC())
	j.dashboard.PublishStats(ctx, common.CycleStats{
		Cycle:            j.cycle,
		CompletedAt:      time.Now().UTC(),
		PilotsSeen:       len(pilots),
		ControllersSeen:  len(snap.Controllers),
		FilterRejections: rejected,
		MatchesEmitted:   emitted,
	})

	log.Printf("[IngestJob] Cycle %d done in %s: %d pilots, %d controllers",
		j.cycle, time.Since(start).Truncate(time.Millisecond), len(pilots), len(snap.Controllers))
	return nil
}

// filterPilots applies the boundary polygon and reports how many pilots the
// cycle rejected. Controllers are never filtered: an enroute station can sit
// outside the boundary while covering it.
func (j *IngestJob) filterPilots(pilots []entities.PilotObs) ([]entities.PilotObs, int) {
	j.boundaryMu.RLock()
	boundary := j.boundary
	j.boundaryMu.RUnlock()

	if boundary == nil {
		return pilots, 0
	}

	rejected := 0
	kept := pilots[:0:0]
	for _, p := range pilots {
		if !boundary.Contains(p.Latitude, p.Longitude) {
			j.metrics.FilterRejectionsTotal.Inc()
			rejected++
			continue
		}
		kept = append(kept, p)
	}
	return kept, rejected
}

// fetchTransceivers pulls the companion document and resolves each set's
// entity type against the snapshot callsign sets. A transceiver failure only
// costs this cycle's radio data, never the cycle.
func (j *IngestJob) fetchTransceivers(ctx context.Context, snap *entities.Snapshot, pilots []entities.PilotObs) []entities.TransceiverObs {
	fetchStart := time.Now()
	sets, err := j.provider.FetchTransceivers(ctx)
	j.metrics.FeedFetchDuration.WithLabelValues("transceivers").Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		log.Printf("[IngestJob] Transceiver fetch failed, skipping radio data this cycle: %v", err)
		return nil
	}

	pilotSet := make(map[string]bool, len(pilots))
	for _, p := range pilots {
		pilotSet[p.Callsign] = true
	}
	ctrlSet := make(map[string]bool, len(snap.Controllers))
	for _, c := range snap.Controllers {
		ctrlSet[c.Callsign] = true
	}

	var out []entities.TransceiverObs
	for _, set := range sets {
		entityType := ""
		switch {
		case pilotSet[set.Callsign]:
			entityType = entities.EntityPilot
		case ctrlSet[set.Callsign]:
			entityType = entities.EntityATC
		default:
			// Not in either document this cycle; no way to attribute it
			continue
		}
		for _, t := range set.Transceivers {
			out = append(out, entities.TransceiverObs{
				EntityType:      entityType,
				Callsign:        set.Callsign,
				TransceiverID:   int(t.ID),
				FrequencyHz:     t.Frequency,
				Latitude:        t.LatDeg,
				Longitude:       t.LonDeg,
				HeightMslM:      t.HeightMsl,
				HeightAglM:      t.HeightAgl,
				ObservationTime: snap.SnapshotTime,
			})
		}
	}
	return out
}

// flush writes the buffered observations in one transaction. A transient
// failure keeps the buffer for the next cycle; a fatal one stops the service.
func (j *IngestJob) flush(ctx context.Context, transceivers []entities.TransceiverObs) error {
	pilots := j.buffer.SnapshotPilots()
	controllers := j.buffer.SnapshotControllers()

	counts, err := j.ingestRepo.FlushBatch(ctx, pilots, controllers, pilots, transceivers)
	if err != nil {
		if db.IsFatal(err) {
			select {
			case j.FatalErr <- fmt.Errorf("unrecoverable flush error: %w", err):
			default:
			}
			return err
		}
		// The transaction rolled back, the buffer still holds everything,
		// the next cycle retries.
		if db.IsTransient(err) {
			log.Printf("[IngestJob] Transient flush error, will retry next cycle: %v", err)
		} else {
			log.Printf("[IngestJob] Flush failed, will retry next cycle: %v", err)
		}
		j.metrics.CyclesTotal.WithLabelValues("flush_retry").Inc()
		return nil
	}
	j.lastFlush = time.Now()

	j.metrics.RecordsFlushed.WithLabelValues("pilots").Add(float64(counts.Pilots))
	j.metrics.RecordsFlushed.WithLabelValues("controllers").Add(float64(counts.Controllers))
	j.metrics.RecordsFlushed.WithLabelValues("flights").Add(float64(counts.Positions))
	j.metrics.RecordsFlushed.WithLabelValues("transceivers").Add(float64(counts.Transceivers))
	if counts.Dropped > 0 {
		j.metrics.RecordsDropped.WithLabelValues("invalid").Add(float64(counts.Dropped))
	}

	logging.WithCycle(j.cycle).Infow("Flush committed",
		"pilots", counts.Pilots,
		"controllers", counts.Controllers,
		"positions", counts.Positions,
		"transceivers", counts.Transceivers,
		"dropped", counts.Dropped,
	)
	return nil
}

// runDetectors runs the detection chain and returns how many frequency
// matches the cycle emitted. A detector failure is logged and counted but
// never aborts the cycle: ingestion always outranks detection.
func (j *IngestJob) runDetectors(ctx context.Context, snap *entities.Snapshot, pilots []entities.PilotObs) int {
	now := snap.SnapshotTime

	j.summarizeOfflineControllers(ctx, snap, now)

	landings := j.landing.Run(pilots, now)
	j.metrics.LandingsDetectedTotal.Add(float64(len(landings)))

	present := make(map[string]entities.PilotObs, len(pilots))
	for _, p := range pilots {
		present[p.Callsign] = p
	}

	completed, err := j.completion.Run(ctx, present, landings, now)
	if err != nil {
		log.Printf("[IngestJob] Completion detector failed: %v", err)
		j.metrics.DetectorErrorsTotal.WithLabelValues("completion").Inc()
	}
	for _, flight := range completed {
		// Summary first, terminal commit second: if either step fails the
		// flight keeps its prior state and the next cycle retries both.
		if _, err := j.summarizer.SummarizeFlight(ctx, flight.Callsign, flight.LogonTime,
			flight.CompletedAt, flight.Method, flight.Confidence); err != nil {
			log.Printf("[IngestJob] Flight summary failed for %s, completion deferred: %v", flight.Callsign, err)
			j.metrics.DetectorErrorsTotal.WithLabelValues("flight_summary").Inc()
			continue
		}
		if err := j.completion.Commit(ctx, flight); err != nil {
			log.Printf("[IngestJob] Completion commit failed for %s: %v", flight.Callsign, err)
			j.metrics.DetectorErrorsTotal.WithLabelValues("completion").Inc()
			continue
		}
		j.buffer.RemovePilot(flight.Callsign)
		j.metrics.FlightsCompletedTotal.WithLabelValues(flight.Method).Inc()
	}

	matchStart := time.Now()
	emitted, err := j.matcher.Run(ctx, now)
	j.metrics.MatcherDuration.Observe(time.Since(matchStart).Seconds())
	if err != nil {
		log.Printf("[IngestJob] Matcher failed: %v", err)
		j.metrics.DetectorErrorsTotal.WithLabelValues("matcher").Inc()
		return 0
	}
	j.metrics.MatchesEmittedTotal.Add(float64(emitted))
	return emitted
}

// summarizeOfflineControllers closes sessions for controllers that dropped
// out of the snapshot. The offline transition commits only after the session
// summary is stored; a session left online by a failed summary is re-detected
// from the database and retried next cycle.
func (j *IngestJob) summarizeOfflineControllers(ctx context.Context, snap *entities.Snapshot, now time.Time) {
	sessions, err := j.ctrlRepo.ListOnlineSessions(ctx)
	if err != nil {
		log.Printf("[IngestJob] Failed to list online sessions: %v", err)
		j.metrics.DetectorErrorsTotal.WithLabelValues("controller_offline").Inc()
		return
	}

	online := make(map[string]bool, len(snap.Controllers))
	for _, c := range snap.Controllers {
		online[c.Callsign] = true
	}

	var closed []string
	for _, session := range sessions {
		if online[session.Callsign] {
			continue
		}
		offlineAt := now
		session.OfflineAt = &offlineAt
		if _, err := j.summarizer.SummarizeController(ctx, session); err != nil {
			log.Printf("[IngestJob] Controller summary failed for %s, offline deferred: %v", session.Callsign, err)
			j.metrics.DetectorErrorsTotal.WithLabelValues("controller_summary").Inc()
			continue
		}
		closed = append(closed, session.Callsign)
	}

	if len(closed) > 0 {
		if _, err := j.ctrlRepo.MarkOffline(ctx, closed, now); err != nil {
			log.Printf("[IngestJob] Failed to mark controllers offline: %v", err)
			j.metrics.DetectorErrorsTotal.WithLabelValues("controller_offline").Inc()
			return
		}
		// Evict closed sessions so the next flush cannot upsert them back
		// to online from a stale buffered observation.
		for _, callsign := range closed {
			j.buffer.RemoveController(callsign)
		}
	}
}
