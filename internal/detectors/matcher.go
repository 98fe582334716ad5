package detectors

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"airspace-analytics/vatwatch/internal/db/repositories"
	"airspace-analytics/vatwatch/internal/geo"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// MatchParams holds the frequency matcher thresholds
type MatchParams struct {
	FreqToleranceHz int64
	TimeTolerance   time.Duration
	MaxDistanceNm   float64
	CollapseGap     time.Duration
	MinDuration     time.Duration
}

// hit is one pilot-controller co-occurrence at a single observation time
type hit struct {
	pilot    string
	ctrl     string
	freqHz   int64
	t        time.Time
	dist     float64
	pLat     float64
	pLon     float64
	cLat     float64
	cLon     float64
}

type hitKey struct {
	pilot  string
	ctrl   string
	bucket int64
}

// ClassifyFrequency maps a frequency to its communication band.
// VHF bands follow the common sector conventions; 20-30 MHz is oceanic HF.
func ClassifyFrequency(freqHz int64) string {
	mhz := float64(freqHz) / 1e6
	switch {
	case mhz >= 118 && mhz < 121:
		return entities.CommApproach
	case mhz >= 121 && mhz < 123:
		return entities.CommDeparture
	case mhz >= 123 && mhz < 125:
		return entities.CommTower
	case mhz >= 125 && mhz < 127:
		return entities.CommGround
	case mhz >= 127 && mhz <= 136:
		return entities.CommEnroute
	case mhz >= 20 && mhz <= 30:
		return entities.CommHFEnroute
	default:
		return entities.CommUnknown
	}
}

// MatchTransceivers runs one detection pass over a window of transceiver
// observations. ATC observations from observer stations are excluded via the
// pre-loaded facility map; a callsign absent from the map is kept, because a
// controller row can lag its first transceiver observation by one cycle.
// Output ordering is deterministic regardless of input order.
func MatchTransceivers(
	pilotObs, atcObs []entities.TransceiverObs,
	facilities map[string]int,
	p MatchParams,
) []entities.FrequencyMatch {
	if len(pilotObs) == 0 || len(atcObs) == 0 {
		return nil
	}

	atcByBucket := make(map[int64][]entities.TransceiverObs)
	for _, obs := range atcObs {
		if facility, known := facilities[obs.Callsign]; known && facility == 0 {
			continue
		}
		if strings.HasSuffix(obs.Callsign, "_OBS") {
			continue
		}
		bucket := obs.FrequencyHz / p.FreqToleranceHz
		atcByBucket[bucket] = append(atcByBucket[bucket], obs)
	}
	if len(atcByBucket) == 0 {
		return nil
	}

	pilotByBucket := make(map[int64][]entities.TransceiverObs)
	for _, obs := range pilotObs {
		bucket := obs.FrequencyHz / p.FreqToleranceHz
		pilotByBucket[bucket] = append(pilotByBucket[bucket], obs)
	}

	var (
		mu   sync.Mutex
		hits []hit
	)

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for bucket, pilots := range pilotByBucket {
		bucket, pilots := bucket, pilots
		g.Go(func() error {
			var local []hit
			for _, pObs := range pilots {
				// A pilot at the bucket edge can match ATC in a neighbor bucket.
				for _, b := range []int64{bucket - 1, bucket, bucket + 1} {
					for _, cObs := range atcByBucket[b] {
						local = append(local, pairObservations(pObs, cObs, p)...)
					}
				}
			}
			mu.Lock()
			hits = append(hits, local...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return collapseHits(hits, p)
}

func pairObservations(pObs, cObs entities.TransceiverObs, p MatchParams) []hit {
	delta := pObs.FrequencyHz - cObs.FrequencyHz
	if delta < 0 {
		delta = -delta
	}
	if delta > p.FreqToleranceHz {
		return nil
	}

	dt := pObs.ObservationTime.Sub(cObs.ObservationTime)
	if dt < 0 {
		dt = -dt
	}
	if dt > p.TimeTolerance {
		return nil
	}

	dist := geo.DistanceNm(pObs.Latitude, pObs.Longitude, cObs.Latitude, cObs.Longitude)
	if dist > p.MaxDistanceNm {
		return nil
	}

	return []hit{{
		pilot:  pObs.Callsign,
		ctrl:   cObs.Callsign,
		freqHz: pObs.FrequencyHz,
		t:      pObs.ObservationTime,
		dist:   dist,
		pLat:   pObs.Latitude,
		pLon:   pObs.Longitude,
		cLat:   cObs.Latitude,
		cLon:   cObs.Longitude,
	}}
}

// collapseHits merges per-observation hits into intervals: hits for the same
// pair and frequency bucket separated by at most the collapse gap join one
// interval, and intervals shorter than the minimum duration are discarded.
func collapseHits(hits []hit, p MatchParams) []entities.FrequencyMatch {
	if len(hits) == 0 {
		return nil
	}

	grouped := make(map[hitKey][]hit)
	for _, h := range hits {
		key := hitKey{pilot: h.pilot, ctrl: h.ctrl, bucket: h.freqHz / p.FreqToleranceHz}
		grouped[key] = append(grouped[key], h)
	}

	minDurS := int(p.MinDuration.Seconds())
	var matches []entities.FrequencyMatch

	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool {
			if !group[i].t.Equal(group[j].t) {
				return group[i].t.Before(group[j].t)
			}
			return group[i].dist < group[j].dist
		})

		start := 0
		for i := 1; i <= len(group); i++ {
			if i < len(group) && group[i].t.Sub(group[i-1].t) <= p.CollapseGap {
				continue
			}
			if m, ok := buildMatch(group[start:i], minDurS, p.MaxDistanceNm); ok {
				matches = append(matches, m)
			}
			start = i
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.PilotCallsign != b.PilotCallsign {
			return a.PilotCallsign < b.PilotCallsign
		}
		if a.ControllerCallsign != b.ControllerCallsign {
			return a.ControllerCallsign < b.ControllerCallsign
		}
		if a.FrequencyHz != b.FrequencyHz {
			return a.FrequencyHz < b.FrequencyHz
		}
		return a.FirstSeen.Before(b.FirstSeen)
	})

	return matches
}

func buildMatch(interval []hit, minDurS int, maxDistNm float64) (entities.FrequencyMatch, bool) {
	first := interval[0].t
	last := interval[len(interval)-1].t
	durationS := int(last.Sub(first).Seconds())
	if durationS < minDurS {
		return entities.FrequencyMatch{}, false
	}

	closest := interval[0]
	var distSum float64
	for _, h := range interval {
		distSum += h.dist
		if h.dist < closest.dist {
			closest = h
		}
	}
	avgDist := distSum / float64(len(interval))

	durationScore := math.Min(float64(durationS)/300.0, 1.0)
	proximityScore := 1.0 - avgDist/maxDistNm
	confidence := 0.5*durationScore + 0.5*proximityScore
	confidence = math.Max(0, math.Min(1, confidence))

	return entities.FrequencyMatch{
		PilotCallsign:       closest.pilot,
		ControllerCallsign:  closest.ctrl,
		FrequencyHz:         closest.freqHz,
		PilotLatitude:       closest.pLat,
		PilotLongitude:      closest.pLon,
		ControllerLatitude:  closest.cLat,
		ControllerLongitude: closest.cLon,
		DistanceNm:          avgDist,
		FirstSeen:           first,
		LastSeen:            last,
		DurationS:           durationS,
		Confidence:          confidence,
		CommunicationType:   ClassifyFrequency(closest.freqHz),
	}, true
}

// Matcher runs frequency matching against the stored observation window
type Matcher struct {
	transceivers *repositories.TransceiverRepository
	controllers  *repositories.ControllerRepository
	matches      *repositories.MatchRepository
	params       MatchParams
	lookback     time.Duration
}

// NewMatcher creates the repository-backed matcher
func NewMatcher(
	transceivers *repositories.TransceiverRepository,
	controllers *repositories.ControllerRepository,
	matches *repositories.MatchRepository,
	params MatchParams,
	lookback time.Duration,
) *Matcher {
	return &Matcher{
		transceivers: transceivers,
		controllers:  controllers,
		matches:      matches,
		params:       params,
		lookback:     lookback,
	}
}

// Run executes one detection pass over the lookback window ending at now
// and persists the resulting matches. Returns the number of matches written.
func (m *Matcher) Run(ctx context.Context, now time.Time) (int, error) {
	from := now.Add(-m.lookback)

	pilotObs, err := m.transceivers.ListWindow(ctx, entities.EntityPilot, from, now)
	if err != nil {
		return 0, fmt.Errorf("load pilot window: %w", err)
	}
	atcObs, err := m.transceivers.ListWindow(ctx, entities.EntityATC, from, now)
	if err != nil {
		return 0, fmt.Errorf("load atc window: %w", err)
	}

	facilities, err := m.controllers.GetFacilities(ctx)
	if err != nil {
		return 0, err
	}

	found := MatchTransceivers(pilotObs, atcObs, facilities, m.params)
	if len(found) == 0 {
		return 0, nil
	}

	if err := m.matches.InsertMatches(ctx, found); err != nil {
		return 0, err
	}
	return len(found), nil
}
