package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/telemetry-harvester/internal/logging"
	"github.com/signalsfoundry/telemetry-harvester/internal/observability"
	"github.com/signalsfoundry/telemetry-harvester/model"
	"github.com/signalsfoundry/telemetry-harvester/timectrl"
)

// HarvesterConfig carries the sampling parameters.
type HarvesterConfig struct {
	// Interval between sampling cycles.
	Interval time.Duration
	// CarrierGHz is the downlink carrier used for doppler and FSPL.
	CarrierGHz float64
	// ActiveSNRdB is the ACTIVE/DEGRADED classification threshold. Zero
	// selects the 15 dB default; a literal 0 dB threshold is reserved.
	ActiveSNRdB float64
}

// Harvester samples every tracked object once per cycle, derives the signal
// metrics, pushes samples onto the bus and records each position in the
// ghost vault. It is the sole producer into the bus and the sole writer of
// the vault.
type Harvester struct {
	objects []model.TrackedObject
	eph     Ephemeris
	bus     *TelemetryBus
	vault   *GhostVault
	cfg     HarvesterConfig

	clock   timectrl.Clock
	log     logging.Logger
	metrics *observability.PipelineCollector
	tracer  trace.Tracer
}

// NewHarvester wires a harvester over a fixed object set. log and metrics
// may be nil.
func NewHarvester(
	objects []model.TrackedObject,
	eph Ephemeris,
	bus *TelemetryBus,
	vault *GhostVault,
	cfg HarvesterConfig,
	clock timectrl.Clock,
	log logging.Logger,
	metrics *observability.PipelineCollector,
) *Harvester {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.ActiveSNRdB == 0 {
		cfg.ActiveSNRdB = 15.0
	}
	if clock == nil {
		clock = timectrl.WallClock{}
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Harvester{
		objects: objects,
		eph:     eph,
		bus:     bus,
		vault:   vault,
		cfg:     cfg,
		clock:   clock,
		log:     log,
		metrics: metrics,
		tracer:  otel.Tracer("telemetry-harvester/core.Harvester"),
	}
}

// Run samples until ctx is cancelled. Cancellation is observed at cycle
// boundaries (and while blocked on a full bus), so shutdown latency is
// bounded by one interval. Returns nil on clean stop.
func (h *Harvester) Run(ctx context.Context) error {
	h.log.Info(ctx, "harvester started",
		logging.Int("objects", len(h.objects)),
		logging.String("interval", h.cfg.Interval.String()),
	)

	ticker := time.NewTicker(h.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := h.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrBusClosed) {
				h.log.Info(ctx, "harvester stopping")
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			h.log.Info(ctx, "harvester stopping")
			return nil
		case <-ticker.C:
		}
	}
}

// cycle samples the whole catalog once. A failed ephemeris query skips that
// object only; a single bad object never aborts the cycle.
func (h *Harvester) cycle(ctx context.Context) error {
	ctx, span := h.tracer.Start(ctx, "harvest.cycle")
	defer span.End()

	start := time.Now()
	now := h.clock.Now()
	sampled, skipped := 0, 0

	for _, obj := range h.objects {
		sample, err := h.sample(obj, now)
		if err != nil {
			skipped++
			h.metrics.RecordHarvestError()
			h.log.Warn(ctx, "skipping object for this cycle",
				logging.Uint32("id", obj.ID),
				logging.String("name", obj.Name),
				logging.Err(err),
			)
			continue
		}

		if err := h.bus.Push(ctx, sample); err != nil {
			span.SetAttributes(attribute.String("abort", err.Error()))
			return err
		}
		h.vault.Append(obj.ID, model.GeoPoint{LatDeg: sample.LatDeg, LonDeg: sample.LonDeg})
		h.metrics.RecordSample(string(sample.Status))
		sampled++
	}

	h.metrics.SetBusDepth(h.bus.Depth())
	h.metrics.ObserveCycle(time.Since(start))
	span.SetAttributes(
		attribute.Int("objects.sampled", sampled),
		attribute.Int("objects.skipped", skipped),
	)
	return nil
}

// sample assembles one telemetry sample from an ephemeris observation.
func (h *Harvester) sample(obj model.TrackedObject, now time.Time) (model.TelemetrySample, error) {
	obs, err := h.eph.Observe(obj.ID, now)
	if err != nil {
		return model.TelemetrySample{}, fmt.Errorf("observe: %w", err)
	}

	fspl := PathLossDB(obs.RangeKm, h.cfg.CarrierGHz)
	snr := MockSNRdB(fspl)

	return model.TelemetrySample{
		ObjectID:   obj.ID,
		Name:       obj.Name,
		LatDeg:     obs.LatDeg,
		LonDeg:     obs.LonDeg,
		AltKm:      obs.AltKm,
		RangeKm:    obs.RangeKm,
		DopplerGHz: DopplerGHz(obs.RangeRateKmS, h.cfg.CarrierGHz),
		PathLossDB: fspl,
		SNRdB:      snr,
		Status:     ClassifyStatus(snr, h.cfg.ActiveSNRdB),
		Timestamp:  float64(now.UnixNano()) / 1e9,
	}, nil
}
