package storage

import (
	"database/sql"
	"time"

	pq "github.com/lib/pq"

	"bondpulse/internal/domain/models"
)

// SnapshotsRepository defines contract for DB operations.
type SnapshotsRepository interface {
	CreateRun(startedAt time.Time) (int64, error)
	InsertSnapshotBatch(runID int64, records models.FinalDataset) error
	FinishRun(runID int64, rowCount int, status string) error
	LatestSnapshot(limit int) (models.FinalDataset, error)
}

type snapshotsRepository struct {
	db *sql.DB
}

func NewSnapshotsRepository(db *sql.DB) SnapshotsRepository {
	return &snapshotsRepository{db: db}
}

// CreateRun opens a new snapshot run and returns its identifier.
func (r *snapshotsRepository) CreateRun(startedAt time.Time) (int64, error) {
	var id int64
	err := r.db.QueryRow(`
		INSERT INTO snapshot_runs (started_at, status)
		VALUES ($1, 'running')
		RETURNING id
	`, startedAt).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// InsertSnapshotBatch inserts the full dataset for one run in a single
// transaction.
func (r *snapshotsRepository) InsertSnapshotBatch(runID int64, records models.FinalDataset) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	// Small optimization for bulk load
	if _, err := tx.Exec(`SET LOCAL synchronous_commit = OFF`); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare(pq.CopyIn(
		"bond_snapshots",
		"run_id",
		"category",
		"name",
		"isin",
		"issuer",
		"issuer_id",
		"issue_id",
		"is_collector",
		"nac",
		"duration",
		"yield_rate",
		"price",
		"outstanding_volume",
		"amount_of_deals",
		"trading_volume",
		"coupon_rate",
		"share_of_trading_volume",
		"start_week",
	))
	if err != nil {
		_ = tx.Rollback()
		return err
	}

	for _, rec := range records {
		if _, err := stmt.Exec(
			runID,
			string(rec.Category),
			rec.Name,
			rec.ISIN,
			rec.Issuer,
			toNullID(rec.IssuerID),
			toNullID(rec.IssueID),
			rec.IsCollector,
			toNullFloat(rec.NAC),
			toNullFloat(rec.Duration),
			toNullFloat(rec.YieldRate),
			toNullFloat(rec.Price),
			toNullFloat(rec.OutstandingVolume),
			toNullFloat(rec.AmountOfDeals),
			toNullFloat(rec.TradingVolume),
			toNullFloat(rec.CouponRate),
			toNullFloat(rec.ShareOfTradingVolume),
			rec.StartWeek,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return err
		}
	}

	if _, err := stmt.Exec(); err != nil {
		_ = stmt.Close()
		_ = tx.Rollback()
		return err
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// FinishRun closes a run with its final row count and status.
func (r *snapshotsRepository) FinishRun(runID int64, rowCount int, status string) error {
	_, err := r.db.Exec(`
		UPDATE snapshot_runs
		SET finished_at = NOW(), row_count = $2, status = $3
		WHERE id = $1
	`, runID, rowCount, status)
	return err
}

// LatestSnapshot returns up to limit rows from the most recent completed run,
// in insertion order. Returns (nil, nil) when no completed run exists.
func (r *snapshotsRepository) LatestSnapshot(limit int) (models.FinalDataset, error) {
	rows, err := r.db.Query(`
		SELECT category, name, isin, issuer, issuer_id, issue_id, is_collector,
			   nac, duration, yield_rate, price, outstanding_volume,
			   amount_of_deals, trading_volume, coupon_rate,
			   share_of_trading_volume, start_week
		FROM bond_snapshots
		WHERE run_id = (
			SELECT id FROM snapshot_runs
			WHERE status = 'completed'
			ORDER BY finished_at DESC
			LIMIT 1
		)
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out models.FinalDataset
	for rows.Next() {
		var (
			rec      models.FinalRecord
			category string
			issuerID sql.NullInt64
			issueID  sql.NullInt64
			nac      sql.NullFloat64
			duration sql.NullFloat64
			yield    sql.NullFloat64
			price    sql.NullFloat64
			outst    sql.NullFloat64
			deals    sql.NullFloat64
			trading  sql.NullFloat64
			coupon   sql.NullFloat64
			share    sql.NullFloat64
		)
		if err := rows.Scan(
			&category, &rec.Name, &rec.ISIN, &rec.Issuer,
			&issuerID, &issueID, &rec.IsCollector,
			&nac, &duration, &yield, &price, &outst,
			&deals, &trading, &coupon, &share, &rec.StartWeek,
		); err != nil {
			return nil, err
		}
		rec.Category = models.Category(category)
		rec.IssuerID = fromNullID(issuerID)
		rec.IssueID = fromNullID(issueID)
		rec.NAC = fromNullFloat(nac)
		rec.Duration = fromNullFloat(duration)
		rec.YieldRate = fromNullFloat(yield)
		rec.Price = fromNullFloat(price)
		rec.OutstandingVolume = fromNullFloat(outst)
		rec.AmountOfDeals = fromNullFloat(deals)
		rec.TradingVolume = fromNullFloat(trading)
		rec.CouponRate = fromNullFloat(coupon)
		rec.ShareOfTradingVolume = fromNullFloat(share)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// NULL mapping: missing numerics persist as NULL, never as zero, so the
// volume/measure distinction survives a round trip through the table.

func toNullFloat(v float64) interface{} {
	if models.IsMissing(v) {
		return nil
	}
	return v
}

func fromNullFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return models.Missing()
	}
	return v.Float64
}

func toNullID(id models.OptID) interface{} {
	if !id.Valid {
		return nil
	}
	return id.ID
}

func fromNullID(v sql.NullInt64) models.OptID {
	if !v.Valid {
		return models.OptID{}
	}
	return models.ID(v.Int64)
}
