// pkg/normalizer/batch.go
package normalizer

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dataport/survey-ingress/pkg/model"
)

// Tally accumulates per-field coercion counts across a batch so data-quality
// fallbacks are visible in aggregate rather than lost row by row.
type Tally struct {
	mu      sync.Mutex
	byField map[string]int64
	total   int64
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{byField: make(map[string]int64)}
}

// Record counts a batch of coercions.
func (t *Tally) Record(coercions []model.Coercion) {
	if len(coercions) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range coercions {
		t.byField[c.Field]++
		t.total++
	}
}

// Total returns the number of coercions recorded.
func (t *Tally) Total() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// ByField returns a copy of the per-field counts.
func (t *Tally) ByField() map[string]int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	counts := make(map[string]int64, len(t.byField))
	for field, n := range t.byField {
		counts[field] = n
	}
	return counts
}

// Log writes one summary line per affected field.
func (t *Tally) Log(logger *zap.Logger) {
	counts := t.ByField()
	fields := make([]string, 0, len(counts))
	for field := range counts {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		logger.Info("Rows fell back to declared fallback",
			zap.String("field", field),
			zap.Int64("rows", counts[field]))
	}
}

// NormalizeBatch recodes a batch of rows across a worker pool. Rows are
// independent, so the only synchronization is collecting results; output
// order matches input order. Coercions and per-row detail records are
// gathered into the tally and the returned slice.
func (e *Engine) NormalizeBatch(
	ctx context.Context,
	raw []model.RawRow,
	workers int,
	tally *Tally,
) ([]model.NormalizedRow, []model.Coercion, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(raw) {
		workers = len(raw)
	}
	if workers <= 1 {
		return e.normalizeSequential(ctx, raw, tally)
	}

	out := make([]model.NormalizedRow, len(raw))
	perRow := make([][]model.Coercion, len(raw))
	indexes := make(chan int, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				row, coercions := e.NormalizeRow(raw[idx])
				out[idx] = row
				perRow[idx] = coercions
			}
		}()
	}

	var err error
feed:
	for idx := range raw {
		select {
		case indexes <- idx:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if err != nil {
		return nil, nil, err
	}

	var all []model.Coercion
	for _, coercions := range perRow {
		all = append(all, coercions...)
	}
	if tally != nil {
		tally.Record(all)
	}
	return out, all, nil
}

func (e *Engine) normalizeSequential(
	ctx context.Context,
	raw []model.RawRow,
	tally *Tally,
) ([]model.NormalizedRow, []model.Coercion, error) {
	out := make([]model.NormalizedRow, 0, len(raw))
	var all []model.Coercion
	for _, r := range raw {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		row, coercions := e.NormalizeRow(r)
		out = append(out, row)
		all = append(all, coercions...)
	}
	if tally != nil {
		tally.Record(all)
	}
	return out, all, nil
}
