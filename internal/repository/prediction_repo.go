package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/keibalab/autobet/internal/domain"
)

// PredictionRepository handles the scraped-prediction store. Records are
// written by the upstream scrapers (one per race and source), are immutable
// once written, and carry a unix-epoch TTL which reads must honour.
type PredictionRepository struct {
	db *sqlx.DB
}

// NewPredictionRepository creates a PredictionRepository.
func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Upsert inserts a scraped prediction. Predictions are immutable: a second
// write for the same (race_id, source) is silently ignored.
func (r *PredictionRepository) Upsert(ctx context.Context, p *domain.Prediction) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("prediction_repo.Upsert: %w", err)
	}
	query := `
		INSERT INTO predictions
			(race_id, source, entries, venue, race_number, scraped_at, ttl)
		VALUES
			(:race_id, :source, :entries, :venue, :race_number, :scraped_at, :ttl)
		ON CONFLICT (race_id, source) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("prediction_repo.Upsert: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetByRace returns every non-expired prediction for a race, one per source,
// in a fixed source order. Single-partition read: the executor calls this
// once per invocation.
func (r *PredictionRepository) GetByRace(ctx context.Context, raceID string) ([]domain.Prediction, error) {
	var preds []domain.Prediction
	err := r.db.SelectContext(ctx, &preds, `
		SELECT race_id, source, entries, venue, race_number, scraped_at, ttl
		FROM predictions
		WHERE race_id = $1
		  AND ttl > $2
		ORDER BY source ASC`,
		raceID, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("prediction_repo.GetByRace: %w", err)
	}
	return preds, nil
}

// DeleteExpired removes predictions past their TTL. Housekeeping only; reads
// already filter on TTL.
func (r *PredictionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM predictions WHERE ttl <= $1`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("prediction_repo.DeleteExpired: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
