// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/dataport/survey-ingress/pkg/config"
)

// SourceConnector is the source-side contract: the pipeline only needs the
// sqlx handle for reads plus lifecycle management.
type SourceConnector interface {
	DatabaseConnector
	DBX() *sqlx.DB
}

// NewSourceConnector opens the raw-row source selected by the configuration.
func NewSourceConnector(ctx context.Context, cfg *config.Config) (SourceConnector, error) {
	switch cfg.Source {
	case config.SourcePostgres:
		return NewPostgresConnector(ctx, cfg.Postgres)
	case config.SourceSnowflake:
		return NewSnowflakeConnector(ctx, cfg.Snowflake)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source)
	}
}

// NewSinkConnector opens the PostgreSQL sink where normalized rows and the
// coercion audit table are written.
func NewSinkConnector(ctx context.Context, cfg *config.Config) (*PostgresConnector, error) {
	return NewPostgresConnector(ctx, cfg.Postgres)
}
