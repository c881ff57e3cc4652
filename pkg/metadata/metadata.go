// pkg/metadata/metadata.go

// Package metadata reads the participant metadata table. The table mixes
// real attributes with a long run of availability flags stored as the
// literal string "yes" or a blank; those flag columns are coerced to
// booleans so callers can filter participants without string comparisons.
package metadata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Record is one participant's metadata.
type Record struct {
	DataID int64
	// Flags holds the yes/blank columns coerced to booleans.
	Flags map[string]bool
	// Attrs holds the remaining columns as trimmed strings; blank and
	// NULL both read as the empty string.
	Attrs map[string]string
}

// Client reads the metadata table.
type Client struct {
	db     *sqlx.DB
	schema string
	table  string
	logger *zap.Logger
}

// NewClient creates a metadata reader over an existing database handle.
func NewClient(db *sqlx.DB, schema, table string) *Client {
	return &Client{
		db:     db,
		schema: schema,
		table:  table,
		logger: zap.L().Named("metadata"),
	}
}

// Read fetches all metadata records.
func (c *Client) Read(ctx context.Context) ([]Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s.%s ORDER BY dataid", c.schema, c.table)

	queryCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	rows, err := c.db.QueryxContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata columns: %w", err)
	}

	raw := make([]map[string]interface{}, 0)
	for rows.Next() {
		record := make(map[string]interface{}, len(columns))
		if err := rows.MapScan(record); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}
		raw = append(raw, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metadata rows: %w", err)
	}

	flagColumns := classifyFlagColumns(columns, raw)
	records := make([]Record, 0, len(raw))
	for _, record := range raw {
		rec, err := toRecord(record, flagColumns)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	c.logger.Debug("Read metadata records",
		zap.Int("records", len(records)),
		zap.Int("flag_columns", len(flagColumns)))

	return records, nil
}

// classifyFlagColumns finds the columns whose only non-blank value is "yes".
// Those are availability flags and get coerced to booleans. A column that is
// blank in every row stays an attribute; there is nothing to coerce.
func classifyFlagColumns(columns []string, raw []map[string]interface{}) map[string]bool {
	flags := make(map[string]bool)
	for _, col := range columns {
		if strings.EqualFold(col, "dataid") {
			continue
		}
		sawYes := false
		isFlag := true
		for _, record := range raw {
			s := toString(record[col])
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "":
			case "yes":
				sawYes = true
			default:
				isFlag = false
			}
			if !isFlag {
				break
			}
		}
		if isFlag && sawYes {
			flags[col] = true
		}
	}
	return flags
}

func toRecord(record map[string]interface{}, flagColumns map[string]bool) (Record, error) {
	rec := Record{
		Flags: make(map[string]bool),
		Attrs: make(map[string]string),
	}

	for name, value := range record {
		if strings.EqualFold(name, "dataid") {
			id, err := toInt64(value)
			if err != nil {
				return Record{}, fmt.Errorf("invalid metadata dataid %v: %w", value, err)
			}
			rec.DataID = id
			continue
		}

		s := strings.TrimSpace(toString(value))
		if flagColumns[name] {
			rec.Flags[name] = strings.EqualFold(s, "yes")
		} else {
			rec.Attrs[name] = s
		}
	}

	return rec, nil
}

func toString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
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
		var id int64
		_, err := fmt.Sscan(string(v), &id)
		return id, err
	case string:
		var id int64
		_, err := fmt.Sscan(v, &id)
		return id, err
	default:
		return 0, fmt.Errorf("unsupported dataid type %T", value)
	}
}
