package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	domrepo "SignalDesk/internal/domain/repository"
	pkgch "SignalDesk/pkg/clickhouse"
	applogger "SignalDesk/pkg/logger"
)

// CHBarStore implements BarSource backed by ClickHouse.
type CHBarStore struct {
	db        *sql.DB
	bars      string
	snapshots string
	l         *applogger.Logger
}

func NewCHBarStore(ch *pkgch.Client, barsTable, snapshotsTable string) *CHBarStore {
	return &CHBarStore{
		db:        ch.DB(),
		bars:      ch.Table(barsTable),
		snapshots: ch.Table(snapshotsTable),
	}
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

// GetLatestBars returns up to n bars in ascending time order.
func (s *CHBarStore) GetLatestBars(ctx context.Context, instrument string, n int, tf domrepo.Timeframe) ([]models.Bar, error) {
	start := time.Now()
	if n <= 0 {
		return nil, nil
	}
	if !domrepo.IsValidTimeframe(tf) {
		return nil, fmt.Errorf("unsupported timeframe: %s", tf)
	}
	instrument = strings.ToUpper(instrument)
	fields := []applogger.Field{
		applogger.String("table", s.bars),
		applogger.String("instrument", instrument),
		applogger.String("tf", string(tf)),
		applogger.Int("limit", n),
	}

	const qtpl = `
        SELECT ts, open, high, low, close, volume
        FROM %s FINAL
        WHERE instrument = ? AND timeframe = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.bars), instrument, string(tf), n)
	if err != nil {
		s.logError("clickhouse latest_bars query error", err, fields...)
		return nil, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, n)
	for rows.Next() {
		var (
			b  models.Bar
			ts time.Time
		)
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			s.logError("clickhouse latest_bars scan error", err, fields...)
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = ts.UnixMilli()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse latest_bars rows error", err, fields...)
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse latest_bars ok", append(fields,
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)...)
	}
	return out, nil
}

// GetLatestSnapshots returns the newest row per instrument id, largest market cap first.
func (s *CHBarStore) GetLatestSnapshots(ctx context.Context, limit int) ([]models.InstrumentSnapshot, error) {
	start := time.Now()
	if limit <= 0 {
		return nil, nil
	}
	fields := []applogger.Field{
		applogger.String("table", s.snapshots),
		applogger.Int("limit", limit),
	}

	const qtpl = `
        SELECT id,
               argMax(symbol, ts)     AS sym,
               argMax(name, ts)       AS nm,
               argMax(price, ts)      AS px,
               argMax(market_cap, ts) AS mcap,
               argMax(change_24h, ts) AS chg,
               argMax(volume_24h, ts) AS vol
        FROM %s
        GROUP BY id
        ORDER BY mcap DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(qtpl, s.snapshots), limit)
	if err != nil {
		s.logError("clickhouse latest_snapshots query error", err, fields...)
		return nil, fmt.Errorf("get latest snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.InstrumentSnapshot, 0, limit)
	for rows.Next() {
		var sn models.InstrumentSnapshot
		if err := rows.Scan(&sn.ID, &sn.Symbol, &sn.Name, &sn.Price, &sn.MarketCap, &sn.Change24h, &sn.Volume24h); err != nil {
			s.logError("clickhouse latest_snapshots scan error", err, fields...)
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		s.logError("clickhouse latest_snapshots rows error", err, fields...)
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse latest_snapshots ok", append(fields,
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)...)
	}
	return out, nil
}

func (s *CHBarStore) logError(msg string, err error, fields ...applogger.Field) {
	if s.l == nil {
		return
	}
	s.l.Error(msg, append(fields, applogger.Error(err))...)
}

var _ domrepo.BarSource = (*CHBarStore)(nil)
