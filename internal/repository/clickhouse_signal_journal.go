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
)

const journalChunkSize = 2000

const journalColumns = "ts, instrument, strategy, action, confidence, target_price, stop_loss, reason, regime_score, is_bull_run, quantity, notional, actionable"

// CHSignalJournal appends evaluated signals to a ClickHouse table.
type CHSignalJournal struct {
	db    *sql.DB
	table string
}

func NewCHSignalJournal(ch *pkgch.Client, table string) *CHSignalJournal {
	return &CHSignalJournal{db: ch.DB(), table: ch.Table(table)}
}

// Append inserts records with multi-row VALUES statements.
func (j *CHSignalJournal) Append(ctx context.Context, records []models.SignalRecord) error {
	if len(records) == 0 {
		return nil
	}
	for start := 0; start < len(records); start += journalChunkSize {
		end := min(start+journalChunkSize, len(records))

		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*13)
		for _, r := range records[start:end] {
			if r.Instrument == "" || r.Timestamp == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				time.UnixMilli(r.Timestamp).UTC(),
				r.Instrument,
				r.Strategy,
				string(r.Signal.Action),
				r.Signal.Confidence,
				nullable(r.Signal.TargetPrice),
				nullable(r.Signal.StopLoss),
				r.Signal.Reason,
				r.RegimeScore,
				flag(r.IsBullRun),
				r.Size.Quantity,
				r.Size.Notional,
				flag(r.Size.Actionable),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", j.table, journalColumns, strings.Join(values, ","))
		if _, err := j.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("append signals: %w", err)
		}
	}
	return nil
}

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

var _ domrepo.SignalJournal = (*CHSignalJournal)(nil)
