// pkg/pipeline/result.go
package pipeline

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunResult summarizes one normalization run.
type RunResult struct {
	RunID       uuid.UUID
	StartedAt   time.Time
	CompletedAt time.Time

	RowsRead    int64
	RowsWritten int64

	CoercionTotal    int64
	CoercionsByField map[string]int64
}

// Duration returns the wall-clock duration of the run.
func (r *RunResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Log writes the run summary.
func (r *RunResult) Log(logger *zap.Logger) {
	logger.Info("Normalization run complete",
		zap.String("run_id", r.RunID.String()),
		zap.Int64("rows_read", r.RowsRead),
		zap.Int64("rows_written", r.RowsWritten),
		zap.Int64("coercions", r.CoercionTotal),
		zap.Duration("duration", r.Duration()))
}
