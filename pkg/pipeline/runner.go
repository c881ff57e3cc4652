// pkg/pipeline/runner.go
package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dataport/survey-ingress/pkg/config"
	"github.com/dataport/survey-ingress/pkg/connector"
	"github.com/dataport/survey-ingress/pkg/model"
	"github.com/dataport/survey-ingress/pkg/normalizer"
	"github.com/dataport/survey-ingress/pkg/rules"
)

const readTimeout = 5 * time.Minute

// Runner executes one end-to-end normalization run: read the raw survey
// table, recode every row through the rule table, and write the normalized
// table plus the coercion audit trail.
type Runner struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *normalizer.Engine
}

// NewRunner loads and validates the rule table and prepares a runner. Rule
// configuration problems are reported here, before any database is touched.
func NewRunner(cfg *config.Config) (*Runner, error) {
	set, err := LoadRules(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := normalizer.NewEngine(set)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:    cfg,
		logger: zap.L().Named("pipeline"),
		engine: engine,
	}, nil
}

// LoadRules returns the configured rule table: the rule file when one is
// set, otherwise the built-in 2014 survey encoding.
func LoadRules(cfg *config.Config) (*rules.Set, error) {
	if cfg.RuleFile != "" {
		set, err := rules.Load(cfg.RuleFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load rule file %s: %w", cfg.RuleFile, err)
		}
		return set, nil
	}
	return rules.Survey2014(), nil
}

// Engine exposes the validated rule engine, mainly for the CLI.
func (r *Runner) Engine() *normalizer.Engine {
	return r.engine
}

// Run executes the pipeline.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
	logger := r.logger.With(zap.String("run_id", result.RunID.String()))

	logger.Info("Starting normalization run",
		zap.String("source", string(r.cfg.Source)),
		zap.String("source_table", r.cfg.SourceSchema+"."+r.cfg.SourceTable),
		zap.String("sink_table", r.cfg.SinkSchema+"."+r.cfg.SinkTable),
		zap.Int("rules", len(r.engine.Rules().Rules)))

	// Connect to source
	source, err := connector.NewSourceConnector(ctx, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to source: %w", err)
	}
	defer source.Close()

	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	// Connect to sink
	sink, err := connector.NewSinkConnector(ctx, r.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sink: %w", err)
	}
	defer sink.Close()

	if err := sink.Validate(); err != nil {
		return nil, fmt.Errorf("sink validation failed: %w", err)
	}

	// Read and schema-check the raw table
	raw, err := r.readRawRows(ctx, source)
	if err != nil {
		return nil, err
	}
	result.RowsRead = int64(len(raw))
	logger.Info("Read raw survey rows", zap.Int("rows", len(raw)))

	// Normalize
	tally := normalizer.NewTally()
	normalized, coercions, err := r.engine.NormalizeBatch(ctx, raw, r.cfg.WorkerPoolSize, tally)
	if err != nil {
		return nil, fmt.Errorf("normalization failed: %w", err)
	}
	tally.Log(logger)

	// Write the normalized table
	written, err := r.writeNormalized(ctx, sink, normalized)
	if err != nil {
		return nil, err
	}
	result.RowsWritten = written

	// Write the coercion audit trail
	if err := r.writeCoercions(ctx, sink, result.RunID, coercions); err != nil {
		return nil, err
	}

	result.CoercionTotal = tally.Total()
	result.CoercionsByField = tally.ByField()
	result.CompletedAt = time.Now()
	result.Log(logger)

	return result, nil
}

// readRawRows reads the full raw table into memory. The schema check runs
// against the result set's column list before any row is normalized, so a
// renamed or dropped source column fails the whole run up front.
func (r *Runner) readRawRows(ctx context.Context, source connector.SourceConnector) ([]model.RawRow, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s", r.cfg.SourceSchema, r.cfg.SourceTable)

	queryCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	rows, err := source.DBX().QueryxContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read raw table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read raw table columns: %w", err)
	}
	if err := r.engine.CheckSchema(normalizeColumnNames(columns)); err != nil {
		return nil, err
	}

	var raw []model.RawRow
	for rows.Next() {
		record := make(map[string]interface{})
		if err := rows.MapScan(record); err != nil {
			return nil, fmt.Errorf("failed to scan raw row: %w", err)
		}

		row, err := toRawRow(record)
		if err != nil {
			return nil, err
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw rows: %w", err)
	}

	return raw, nil
}

// toRawRow converts a scanned record into a raw row. Column names fold to
// lower case so a warehouse copy with upper-cased identifiers reads the
// same as the original table.
func toRawRow(record map[string]interface{}) (model.RawRow, error) {
	row := model.RawRow{Columns: make(map[string]string, len(record))}

	for name, value := range record {
		name = strings.ToLower(name)
		if name == "dataid" {
			id, err := toInt64(value)
			if err != nil {
				return model.RawRow{}, fmt.Errorf("invalid dataid %v: %w", value, err)
			}
			row.DataID = id
			continue
		}
		row.Columns[name] = toRawString(value)
	}

	return row, nil
}

func normalizeColumnNames(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = strings.ToLower(c)
	}
	return out
}

// toRawString renders a scanned value the way the source column stored it.
// NULL reads as the empty string, same as no response.
func toRawString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return strconv.ParseInt(string(v), 10, 64)
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported dataid type %T", value)
	}
}

// writeNormalized creates (or reuses) the sink table and replaces its
// contents with this run's output.
func (r *Runner) writeNormalized(
	ctx context.Context,
	sink *connector.PostgresConnector,
	normalized []model.NormalizedRow,
) (int64, error) {
	set := r.engine.Rules()

	if err := sink.EnsureSchema(ctx, r.cfg.SinkSchema); err != nil {
		return 0, err
	}
	if err := sink.CreateTableIfNotExists(
		ctx,
		r.cfg.SinkSchema,
		r.cfg.SinkTable,
		NormalizedColumnDefs(set),
		"dataid",
	); err != nil {
		return 0, err
	}
	if err := sink.TruncateTable(ctx, r.cfg.SinkSchema, r.cfg.SinkTable); err != nil {
		return 0, err
	}

	fields := set.Fields()
	columns := append([]string{"dataid"}, fields...)

	valueRows := make([][]interface{}, len(normalized))
	for i, row := range normalized {
		args := make([]interface{}, 0, len(columns))
		args = append(args, row.DataID)
		for _, field := range fields {
			args = append(args, row.Get(field).Arg())
		}
		valueRows[i] = args
	}

	written, err := sink.BatchInsert(
		ctx,
		r.cfg.SinkSchema,
		r.cfg.SinkTable,
		columns,
		valueRows,
		r.cfg.BatchSize,
	)
	if err != nil {
		return written, fmt.Errorf("failed to write normalized rows: %w", err)
	}
	return written, nil
}

// writeCoercions appends this run's coercion records to the audit table.
func (r *Runner) writeCoercions(
	ctx context.Context,
	sink *connector.PostgresConnector,
	runID uuid.UUID,
	coercions []model.Coercion,
) error {
	if err := sink.CreateTableIfNotExists(
		ctx,
		r.cfg.SinkSchema,
		r.cfg.CoercionTable,
		CoercionColumnDefs(),
		"",
	); err != nil {
		return err
	}

	if len(coercions) == 0 {
		return nil
	}

	columns := []string{"run_id", "dataid", "field", "raw_value", "policy", "reason"}
	valueRows := make([][]interface{}, len(coercions))
	for i, c := range coercions {
		valueRows[i] = []interface{}{runID.String(), c.DataID, c.Field, c.Raw, c.Policy, c.Reason}
	}

	if _, err := sink.BatchInsert(
		ctx,
		r.cfg.SinkSchema,
		r.cfg.CoercionTable,
		columns,
		valueRows,
		r.cfg.BatchSize,
	); err != nil {
		return fmt.Errorf("failed to write coercion records: %w", err)
	}
	return nil
}
