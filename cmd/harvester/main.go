package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/telemetry-harvester/catalog"
	"github.com/signalsfoundry/telemetry-harvester/core"
	"github.com/signalsfoundry/telemetry-harvester/internal/config"
	"github.com/signalsfoundry/telemetry-harvester/internal/logging"
	"github.com/signalsfoundry/telemetry-harvester/internal/observability"
	"github.com/signalsfoundry/telemetry-harvester/model"
	"github.com/signalsfoundry/telemetry-harvester/timectrl"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML config file (defaults apply when empty)")
	catalogSource := flag.String("catalog", "", "override the catalog source (TLE file path or URL)")
	listenAddr := flag.String("listen", "", "override the metrics/status listen address")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewFromEnv().Error(ctx, "invalid configuration", logging.Err(err))
		return 1
	}
	if *catalogSource != "" {
		cfg.Catalog.Source = *catalogSource
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "telemetry-harvester",
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.Err(err))
		return 1
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	collector, err := observability.NewPipelineCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.Err(err))
		return 1
	}

	// The catalog load is the one fatal startup step: without at least one
	// trackable object there is nothing to run.
	log.Info(ctx, "loading catalog", logging.String("source", cfg.Catalog.Source))
	entries, err := catalog.Load(ctx, cfg.Catalog.Source, cfg.Catalog.MaxObjects)
	if err != nil {
		log.Error(ctx, "catalog load failed", logging.Err(err))
		return 2
	}
	objects := make([]model.TrackedObject, len(entries))
	for i, e := range entries {
		objects[i] = e.Object
	}
	log.Info(ctx, "catalog loaded", logging.Int("objects", len(objects)))

	station := model.GroundStation{
		Name:   cfg.Station.Name,
		LatDeg: cfg.Station.LatDeg,
		LonDeg: cfg.Station.LonDeg,
		AltKm:  cfg.Station.AltKm,
	}
	eph := core.NewSGP4Ephemeris(entries, station)

	clock := timectrl.WallClock{}
	bus := core.NewTelemetryBus(cfg.BusCapacity)
	vault := core.NewGhostVault(cfg.GhostDepth)

	binLog, err := core.OpenBinaryLog(cfg.Sinks.BinaryPath)
	if err != nil {
		log.Error(ctx, "failed to open binary log", logging.Err(err))
		return 1
	}
	defer binLog.Close()

	structLog, err := core.OpenStructuredLog(cfg.Sinks.StructuredPath)
	if err != nil {
		log.Error(ctx, "failed to open structured log", logging.Err(err))
		return 1
	}
	defer structLog.Close()

	anomalyLog, err := core.OpenAnomalyLog(cfg.Sinks.AnomalyPath, clock)
	if err != nil {
		log.Error(ctx, "failed to open anomaly log", logging.Err(err))
		return 1
	}
	defer anomalyLog.Close()

	harvester := core.NewHarvester(objects, eph, bus, vault, core.HarvesterConfig{
		Interval:    cfg.SampleInterval.Std(),
		CarrierGHz:  cfg.CarrierGHz,
		ActiveSNRdB: cfg.SNRActiveDB,
	}, clock, log.With(logging.String("task", "harvester")), collector)

	mux := core.NewStorageMultiplexer(bus, binLog, structLog, anomalyLog, core.StorageMultiplexerConfig{
		PopTimeout:    cfg.Sinks.PopTimeout.Std(),
		DegradedSNRdB: cfg.SNRDegradedDB,
	}, log.With(logging.String("task", "storage")), collector)

	statusSrv := serveHTTP(cfg.ListenAddr, collector, bus, vault, log)

	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	controller := core.NewController(signalCtx)
	if err := controller.Run(harvester, mux, bus); err != nil {
		log.Error(ctx, "pipeline exited with error", logging.Err(err))
		return 1
	}

	if statusSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = statusSrv.Shutdown(shutdownCtx)
	}

	log.Info(ctx, "clean shutdown, all buffered samples persisted")
	return 0
}

// serveHTTP exposes Prometheus /metrics and the read-only /status view of
// the bus and the ghost vault. Status readers only ever see snapshot data.
func serveHTTP(addr string, collector *observability.PipelineCollector, bus *core.TelemetryBus, vault *core.GhostVault, log logging.Logger) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		type objectStatus struct {
			ID          uint32 `json:"id"`
			GhostPoints int    `json:"ghost_points"`
		}
		status := struct {
			BusDepth    int            `json:"bus_depth"`
			BusCapacity int            `json:"bus_capacity"`
			Objects     []objectStatus `json:"objects"`
		}{
			BusDepth:    bus.Depth(),
			BusCapacity: bus.Capacity(),
		}
		for _, id := range vault.Objects() {
			status.Objects = append(status.Objects, objectStatus{ID: id, GhostPoints: vault.Len(id)})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Warn(r.Context(), "status encode failed", logging.Err(err))
		}
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving /metrics and /status", logging.String("addr", addr))
	return srv
}
