// Package logger provides the structured logging interface used across wyniki.
//
// It wraps zerolog with a small interface so components can be handed a
// TestLogger or a no-op logger in tests. Console output is colored and human
// readable; when a log file is configured, JSON lines are also written to a
// lumberjack-rotated file.
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Orders enumerated", map[string]interface{}{
//	    "count": len(refs),
//	})
package logger
