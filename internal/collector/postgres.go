package collector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	models "github.com/Schera-ole/hostagent/internal/model"
	"github.com/Schera-ole/hostagent/internal/rate"
)

const databaseStatQuery = `SELECT tup_returned, tup_fetched, tup_inserted, tup_updated, tup_deleted
FROM pg_stat_database
WHERE datname = $1
LIMIT 1`

const tableStatQuery = `SELECT c.relname, c.reltuples::bigint, pg_total_relation_size(c.oid)
FROM pg_class c
LEFT JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE c.relkind = 'r' AND c.relname NOT LIKE 'pg_%' AND c.relname NOT LIKE 'sql_%'
ORDER BY c.relname`

// PostgresDatabaseCollector reports tuple activity of the monitored database
// since the previous tick.
type PostgresDatabaseCollector struct {
	tracker  *rate.Tracker
	db       *sql.DB
	database string
}

func NewPostgresDatabaseCollector(tracker *rate.Tracker, db *sql.DB, database string) *PostgresDatabaseCollector {
	return &PostgresDatabaseCollector{tracker: tracker, db: db, database: database}
}

func (c *PostgresDatabaseCollector) Kind() models.Kind { return models.KindPostgresDatabase }

func (c *PostgresDatabaseCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	var returned, fetched, inserted, updated, deleted int64
	err := c.db.QueryRowContext(ctx, databaseStatQuery, c.database).
		Scan(&returned, &fetched, &inserted, &updated, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, collectionError(c.Kind(), fmt.Errorf("database %q not found in pg_stat_database", c.database))
	}
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}

	delta, ok := c.tracker.Observe(rate.Key{Kind: models.KindPostgresDatabase, ID: c.database}, h.Timestamp,
		uint64(returned), uint64(fetched), uint64(inserted), uint64(updated), uint64(deleted))
	if !ok {
		return nil, nil
	}
	v := delta.Values
	return []models.Sample{models.PostgresDatabaseSample{
		Header:   h,
		Returned: int64(v[0]),
		Fetched:  int64(v[1]),
		Inserted: int64(v[2]),
		Updated:  int64(v[3]),
		Deleted:  int64(v[4]),
	}}, nil
}

// PostgresTablesCollector reports the estimated row count and on-disk size of
// every ordinary user table.
type PostgresTablesCollector struct {
	db *sql.DB
}

func NewPostgresTablesCollector(db *sql.DB) *PostgresTablesCollector {
	return &PostgresTablesCollector{db: db}
}

func (c *PostgresTablesCollector) Kind() models.Kind { return models.KindPostgresTables }

func (c *PostgresTablesCollector) Collect(ctx context.Context, h models.Header) ([]models.Sample, error) {
	rows, err := c.db.QueryContext(ctx, tableStatQuery)
	if err != nil {
		return nil, collectionError(c.Kind(), err)
	}
	defer rows.Close()

	var samples []models.Sample
	for rows.Next() {
		s := models.PostgresTableSample{Header: h}
		if err := rows.Scan(&s.Name, &s.Rows, &s.TotalBytes); err != nil {
			return nil, collectionError(c.Kind(), err)
		}
		// reltuples is -1 until the table is first vacuumed or analyzed
		if s.Rows < 0 {
			s.Rows = 0
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, collectionError(c.Kind(), err)
	}
	return samples, nil
}
