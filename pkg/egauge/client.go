// pkg/egauge/client.go
package egauge

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Freq is the native sampling frequency of an eGauge electricity table.
type Freq int

const (
	// FreqMinute is the one-minute interval table.
	FreqMinute Freq = iota
	// FreqQuarterHour is the fifteen-minute interval table.
	FreqQuarterHour
	// FreqHour is the one-hour interval table.
	FreqHour
)

// String returns the interval name of the frequency.
func (f Freq) String() string {
	switch f {
	case FreqMinute:
		return "minute"
	case FreqQuarterHour:
		return "15min"
	case FreqHour:
		return "hour"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// Interval returns the duration of one sample at this frequency.
func (f Freq) Interval() time.Duration {
	switch f {
	case FreqMinute:
		return time.Minute
	case FreqQuarterHour:
		return 15 * time.Minute
	case FreqHour:
		return time.Hour
	default:
		return 0
	}
}

// table returns the eGauge table and its local-time column for a frequency.
func (f Freq) table() (table, timeColumn string, err error) {
	switch f {
	case FreqMinute:
		return "electricity_egauge_minutes", "localminute", nil
	case FreqQuarterHour:
		return "electricity_egauge_15min", "local_15min", nil
	case FreqHour:
		return "electricity_egauge_hours", "localhour", nil
	default:
		return "", "", fmt.Errorf("unknown frequency %d", f)
	}
}

// DefaultLocation is the local timezone of the eGauge tables.
const DefaultLocation = "US/Central"

// Reading is one sample of circuit-level electricity use for a participant.
type Reading struct {
	DataID int64
	Time   time.Time
	// Values maps circuit column name to average power over the sample
	// interval, in kW. Circuits with no reading are absent.
	Values map[string]float64
}

// ReadSpec selects a slice of one participant's electricity data.
type ReadSpec struct {
	DataID int64
	// Start and End bound the read as [Start, End): rows at exactly End
	// are excluded, so back-to-back reads never overlap.
	Start time.Time
	End   time.Time
	// Columns lists the circuit columns to read, e.g. "use", "air1",
	// "furnace1". At least one is required.
	Columns []string
	Freq    Freq
}

// Client reads eGauge electricity tables.
type Client struct {
	db     *sqlx.DB
	schema string
	loc    *time.Location
	logger *zap.Logger
}

// NewClient creates an eGauge reader over an existing database handle.
// Timestamps are returned in the tables' local timezone.
func NewClient(db *sqlx.DB, schema string) (*Client, error) {
	loc, err := time.LoadLocation(DefaultLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", DefaultLocation, err)
	}
	return &Client{
		db:     db,
		schema: schema,
		loc:    loc,
		logger: zap.L().Named("egauge"),
	}, nil
}

// Read fetches the selected readings in ascending time order.
func (c *Client) Read(ctx context.Context, spec ReadSpec) ([]Reading, error) {
	if len(spec.Columns) == 0 {
		return nil, fmt.Errorf("at least one circuit column is required")
	}
	if !spec.End.After(spec.Start) {
		return nil, fmt.Errorf("end %v must be after start %v", spec.End, spec.Start)
	}

	table, timeColumn, err := spec.Freq.table()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT %s, %s FROM %s.%s WHERE dataid = $1 AND %s >= $2 AND %s < $3 ORDER BY %s ASC",
		timeColumn,
		strings.Join(spec.Columns, ", "),
		c.schema, table,
		timeColumn, timeColumn, timeColumn,
	)

	c.logger.Debug("Reading eGauge data",
		zap.Int64("dataid", spec.DataID),
		zap.String("table", table),
		zap.Time("start", spec.Start),
		zap.Time("end", spec.End),
		zap.Strings("columns", spec.Columns))

	rows, err := c.db.QueryContext(ctx, query, spec.DataID, spec.Start, spec.End)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var ts time.Time
		values := make([]sql.NullFloat64, len(spec.Columns))

		dest := make([]interface{}, 0, len(spec.Columns)+1)
		dest = append(dest, &ts)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}

		reading := Reading{
			DataID: spec.DataID,
			Time:   ts.In(c.loc),
			Values: make(map[string]float64, len(spec.Columns)),
		}
		for i, col := range spec.Columns {
			if values[i].Valid {
				reading.Values[col] = values[i].Float64
			}
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}

	return readings, nil
}
