package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"airspace-analytics/vatwatch/internal/constants"
	"airspace-analytics/vatwatch/internal/logging"
	"airspace-analytics/vatwatch/internal/models/dtos"
	"airspace-analytics/vatwatch/internal/models/entities"
)

// FeedProvider pulls the VATSIM v3 data documents and normalizes them into
// typed records. The provider is stateless; it never deduplicates across calls.
type FeedProvider struct {
	FeedURL         string
	TransceiversURL string
	Client          *http.Client
}

// NewFeedProvider creates a feed provider with the configured hard timeout
func NewFeedProvider(feedURL, transceiversURL string, timeout time.Duration) *FeedProvider {
	return &FeedProvider{
		FeedURL:         feedURL,
		TransceiversURL: transceiversURL,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchSnapshot pulls the main feed document and coerces it into a Snapshot.
// Records failing coercion are dropped with a warning, never aborting the batch.
func (p *FeedProvider) FetchSnapshot(ctx context.Context) (*entities.Snapshot, error) {
	var doc dtos.FeedDocument
	if err := p.doGET(ctx, p.FeedURL, &doc); err != nil {
		return nil, err
	}

	if doc.General.UpdateTimestamp.IsZero() {
		return nil, &ProviderError{
			Code:    constants.ErrCodeFeedCorrupt,
			Message: "feed document missing general.update_timestamp",
		}
	}

	snap := &entities.Snapshot{
		SnapshotTime: doc.General.UpdateTimestamp.UTC(),
		Pilots:       make([]entities.PilotObs, 0, len(doc.Pilots)),
		Controllers:  make([]entities.ControllerObs, 0, len(doc.Controllers)),
	}

	for _, raw := range doc.Pilots {
		pilot, err := coercePilot(raw, snap.SnapshotTime)
		if err != nil {
			logging.Warn("Dropping pilot record", "callsign", raw.Callsign, "error", err.Error())
			continue
		}
		snap.Pilots = append(snap.Pilots, pilot)
	}

	for _, raw := range doc.Controllers {
		ctrl, err := coerceController(raw, snap.SnapshotTime)
		if err != nil {
			logging.Warn("Dropping controller record", "callsign", raw.Callsign, "error", err.Error())
			continue
		}
		snap.Controllers = append(snap.Controllers, ctrl)
	}

	return snap, nil
}

// FetchTransceivers pulls the per-callsign transceiver list. Entity types are
// not assigned here; the coordinator resolves them against the snapshot sets.
func (p *FeedProvider) FetchTransceivers(ctx context.Context) ([]dtos.FeedTransceiverSet, error) {
	var sets []dtos.FeedTransceiverSet
	if err := p.doGET(ctx, p.TransceiversURL, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (p *FeedProvider) doGET(ctx context.Context, url string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeFeedUnavailable,
			Message: "failed to create request",
			Err:     err,
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeFeedUnavailable,
			Message: constants.GetErrorMessage(constants.ErrCodeFeedUnavailable),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		code := constants.ErrCodeFeedUnavailable
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			code = constants.ErrCodeFeedCorrupt
		}
		return &ProviderError{
			Code:    code,
			Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeFeedCorrupt,
			Message: "failed to decode feed document",
			Err:     err,
		}
	}

	return nil
}

func coercePilot(raw dtos.FeedPilot, snapshotTime time.Time) (entities.PilotObs, error) {
	if raw.Callsign == "" {
		return entities.PilotObs{}, fmt.Errorf("empty callsign")
	}
	if raw.LogonTime.IsZero() {
		return entities.PilotObs{}, fmt.Errorf("missing logon_time")
	}

	pilot := entities.PilotObs{
		Callsign:        raw.Callsign,
		CID:             int(raw.CID),
		LogonTime:       raw.LogonTime.UTC(),
		Latitude:        raw.Latitude,
		Longitude:       raw.Longitude,
		AltitudeFt:      int(raw.Altitude),
		GroundspeedKt:   int(raw.Groundspeed),
		HeadingDeg:      int(raw.Heading),
		Transponder:     raw.Transponder,
		ObservationTime: snapshotTime,
		LastSeen:        snapshotTime,
	}

	if fp := raw.FlightPlan; fp != nil {
		pilot.AircraftType = fp.Aircraft
		if fp.AircraftFAA != "" {
			pilot.AircraftType = fp.AircraftFAA
		}
		pilot.Departure = fp.Departure
		pilot.Arrival = fp.Arrival
		pilot.Route = fp.Route
		pilot.CruiseTAS = fp.CruiseTAS
		pilot.PlannedAltitude = fp.Altitude
		pilot.Deptime = fp.Deptime
		pilot.Remarks = fp.Remarks
		pilot.FlightRules = fp.FlightRules
	}

	if err := pilot.Validate(); err != nil {
		return entities.PilotObs{}, err
	}
	return pilot, nil
}

func coerceController(raw dtos.FeedController, snapshotTime time.Time) (entities.ControllerObs, error) {
	if raw.Callsign == "" {
		return entities.ControllerObs{}, fmt.Errorf("empty callsign")
	}

	freqHz := int64(0)
	if raw.Frequency != "" {
		hz, err := dtos.FrequencyHz(raw.Frequency)
		if err != nil {
			return entities.ControllerObs{}, err
		}
		freqHz = hz
	}

	atis := ""
	for i, line := range raw.TextATIS {
		if i > 0 {
			atis += "\n"
		}
		atis += line
	}

	ctrl := entities.ControllerObs{
		Callsign:        raw.Callsign,
		CID:             int(raw.CID),
		Name:            raw.Name,
		Facility:        int(raw.Facility),
		Rating:          int(raw.Rating),
		FrequencyHz:     freqHz,
		VisualRangeNm:   int(raw.VisualRange),
		TextATIS:        atis,
		OnlineAt:        raw.LogonTime.UTC(),
		ObservationTime: snapshotTime,
		LastSeen:        snapshotTime,
	}

	if err := ctrl.Validate(); err != nil {
		return entities.ControllerObs{}, err
	}
	return ctrl, nil
}
