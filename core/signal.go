package core

import (
	"math"

	"github.com/signalsfoundry/telemetry-harvester/model"
)

// SpeedOfLightKmS is the speed of light in km/s, matching the range-rate
// units coming out of the ephemeris.
const SpeedOfLightKmS = 299792.458

// PathLossDB returns the free-space path loss in dB:
// 20·log10(range_km) + 20·log10(freq_GHz) + 92.45.
// Zero range is a degenerate observation, not an error; it yields 0 dB.
func PathLossDB(rangeKm, freqGHz float64) float64 {
	if rangeKm <= 0 {
		return 0
	}
	return 20*math.Log10(rangeKm) + 20*math.Log10(freqGHz) + 92.45
}

// DopplerGHz returns the doppler shift of the carrier induced by the radial
// velocity: (range_rate / c) · carrier.
func DopplerGHz(rangeRateKmS, carrierGHz float64) float64 {
	return (rangeRateKmS / SpeedOfLightKmS) * carrierGHz
}

// MockSNRdB derives the simulated signal-to-noise ratio from path loss.
// There is no real link budget behind this; it only has to rank signal
// quality consistently.
func MockSNRdB(pathLossDB float64) float64 {
	return 100 - pathLossDB/2
}

// ClassifyStatus buckets a sample: ACTIVE above the threshold, DEGRADED at
// or below it.
func ClassifyStatus(snrDB, activeThresholdDB float64) model.Status {
	if snrDB > activeThresholdDB {
		return model.StatusActive
	}
	return model.StatusDegraded
}
