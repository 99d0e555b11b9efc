// Package config holds the single configuration value object the pipeline
// is constructed from at startup. It is never mutated afterwards.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "2s" decode naturally.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Station is the fixed ground reference location.
type Station struct {
	Name   string  `yaml:"name"`
	LatDeg float64 `yaml:"lat_deg"`
	LonDeg float64 `yaml:"lon_deg"`
	AltKm  float64 `yaml:"alt_km"`
}

// Catalog describes the one-shot startup catalog fetch.
type Catalog struct {
	// Source is a TLE file path or an http(s) URL.
	Source string `yaml:"source"`
	// MaxObjects truncates the catalog; 0 keeps everything.
	MaxObjects int `yaml:"max_objects"`
}

// Sinks names the three output files and the consumer's pop timeout.
type Sinks struct {
	BinaryPath     string   `yaml:"binary_path"`
	StructuredPath string   `yaml:"structured_path"`
	AnomalyPath    string   `yaml:"anomaly_path"`
	PopTimeout     Duration `yaml:"pop_timeout"`
}

// Logging mirrors internal/logging.Config.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Tracing mirrors observability.TracingConfig.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"` // stdout | otlp
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Config is the full configuration surface of the harvester process.
type Config struct {
	SampleInterval Duration `yaml:"sample_interval"`
	BusCapacity    int      `yaml:"bus_capacity"`
	GhostDepth     int      `yaml:"ghost_depth"`

	// CarrierGHz is the downlink carrier used for doppler and FSPL.
	CarrierGHz float64 `yaml:"carrier_ghz"`
	// SNRActiveDB: samples above it are ACTIVE, otherwise DEGRADED.
	SNRActiveDB float64 `yaml:"snr_active_db"`
	// SNRDegradedDB: samples below it produce an anomaly-log line.
	SNRDegradedDB float64 `yaml:"snr_degraded_db"`

	Station Station `yaml:"station"`
	Catalog Catalog `yaml:"catalog"`
	Sinks   Sinks   `yaml:"sinks"`

	// ListenAddr serves Prometheus /metrics and the read-only /status view.
	ListenAddr string `yaml:"listen_addr"`

	Logging Logging `yaml:"logging"`
	Tracing Tracing `yaml:"tracing"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		SampleInterval: Duration(2 * time.Second),
		BusCapacity:    1000,
		GhostDepth:     50,
		CarrierGHz:     12.0, // Ku band
		SNRActiveDB:    15.0,
		SNRDegradedDB:  20.0,
		Station: Station{
			Name:   "Portland",
			LatDeg: 45.523062,
			LonDeg: -122.676482,
		},
		Catalog: Catalog{
			Source:     "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=tle",
			MaxObjects: 100,
		},
		Sinks: Sinks{
			BinaryPath:     "telemetry_core.bin",
			StructuredPath: "uplink_matrix.jsonl",
			AnomalyPath:    "system_audit.log",
			PopTimeout:     Duration(1 * time.Second),
		},
		ListenAddr: ":9090",
		Logging:    Logging{Level: "info", Format: "text"},
		Tracing:    Tracing{Exporter: "stdout", SampleRatio: 1.0},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %q: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.SampleInterval.Std() <= 0 {
		return fmt.Errorf("config: sample_interval must be positive, got %s", c.SampleInterval.Std())
	}
	if c.BusCapacity <= 0 {
		return fmt.Errorf("config: bus_capacity must be positive, got %d", c.BusCapacity)
	}
	if c.GhostDepth <= 0 {
		return fmt.Errorf("config: ghost_depth must be positive, got %d", c.GhostDepth)
	}
	if c.CarrierGHz <= 0 {
		return fmt.Errorf("config: carrier_ghz must be positive, got %g", c.CarrierGHz)
	}
	if c.Sinks.PopTimeout.Std() <= 0 {
		return fmt.Errorf("config: sinks.pop_timeout must be positive, got %s", c.Sinks.PopTimeout.Std())
	}
	if c.Catalog.Source == "" {
		return fmt.Errorf("config: catalog.source is required")
	}
	for name, path := range map[string]string{
		"sinks.binary_path":     c.Sinks.BinaryPath,
		"sinks.structured_path": c.Sinks.StructuredPath,
		"sinks.anomaly_path":    c.Sinks.AnomalyPath,
	} {
		if path == "" {
			return fmt.Errorf("config: %s is required", name)
		}
	}
	return nil
}
