package clickhouse

import "fmt"

// Tables names the tables the engine reads and writes, unqualified.
type Tables struct {
	Bars      string
	Snapshots string
	Signals   string
}

// SchemaStatements returns idempotent DDL for the database and its tables.
func SchemaStatements(database string, t Tables) []string {
	q := func(name string) string { return database + "." + name }
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    instrument LowCardinality(String),
    timeframe  LowCardinality(String),
    ts         DateTime64(3, 'UTC'),
    open       Float64,
    high       Float64,
    low        Float64,
    close      Float64,
    volume     Float64
) ENGINE = ReplacingMergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (instrument, timeframe, ts)`, q(t.Bars)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    ts         DateTime64(3, 'UTC'),
    id         String,
    symbol     LowCardinality(String),
    name       String,
    price      Float64,
    market_cap Float64,
    change_24h Float64,
    volume_24h Float64
) ENGINE = MergeTree
PARTITION BY toYYYYMMDD(ts)
ORDER BY (id, ts)
TTL toDateTime(ts) + INTERVAL 30 DAY`, q(t.Snapshots)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    ts           DateTime64(3, 'UTC'),
    instrument   LowCardinality(String),
    strategy     LowCardinality(String),
    action       LowCardinality(String),
    confidence   Float64,
    target_price Nullable(Float64),
    stop_loss    Nullable(Float64),
    reason       String,
    regime_score Float64,
    is_bull_run  UInt8,
    quantity     Float64,
    notional     Float64,
    actionable   UInt8
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (instrument, ts)`, q(t.Signals)),
	}
}
