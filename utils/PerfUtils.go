package utils

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// PerfLog reports how long an operation took since start, as a warning once threshold is exceeded.
func PerfLog(start time.Time, threshold time.Duration, operation string) time.Duration {
	took := time.Since(start)
	entry := log.WithFields(log.Fields{"operation": operation, "tookMs": took.Milliseconds()})
	if took > threshold {
		entry.Warnf("PERF: %s took longer than expected (%d ms)", operation, threshold.Milliseconds())
	} else {
		entry.Debugf("PERF: %s", operation)
	}
	return took
}
