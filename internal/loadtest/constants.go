package loadtest

import "time"

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	progressInterval     = time.Second
	directoryPermission  = 0750
	logFilePermission    = 0600
)

// Light-curve shape constants.
const (
	minPoints       = 16
	cadenceDays     = 0.0204 // Kepler long cadence, 29.4 minutes
	noiseSigma      = 1e-4
	minTransitDepth = 0.002
	maxTransitDepth = 0.02
	transitWidth    = 0.06 // fraction of the baseline
	sunTeff         = 5772.0
	sunLogg         = 4.44
)
