package config

const (
	// StaleIntervals is how many intervals a tracked key may go unobserved
	// before its baseline is dropped, when STALE_AFTER is not set.
	StaleIntervals = 10

	// PostgresCollector enables both postgres_database and postgres_tables.
	PostgresCollector = "postgres"
)
