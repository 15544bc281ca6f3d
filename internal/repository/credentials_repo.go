package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/keibalab/autobet/internal/domain"
)

// CredentialsRepository retrieves per-user gateway secrets. Read-only from
// the pipeline's point of view; rows are provisioned operationally. The
// tuple itself must never be logged.
type CredentialsRepository struct {
	db *sqlx.DB
}

// NewCredentialsRepository creates a CredentialsRepository.
func NewCredentialsRepository(db *sqlx.DB) *CredentialsRepository {
	return &CredentialsRepository{db: db}
}

// Get returns the gateway credential tuple for a user.
func (r *CredentialsRepository) Get(ctx context.Context, userID string) (domain.Credentials, error) {
	var creds domain.Credentials
	err := r.db.GetContext(ctx, &creds, `
		SELECT inet_id, subscriber_no, pin, pars_no
		FROM gateway_credentials
		WHERE user_id = $1`,
		userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Credentials{}, fmt.Errorf("%w: user %s", domain.ErrCredentialsNotFound, userID)
		}
		return domain.Credentials{}, fmt.Errorf("credentials_repo.Get: %w", err)
	}
	if !creds.IsComplete() {
		return domain.Credentials{}, fmt.Errorf("%w: incomplete tuple for user %s", domain.ErrConfiguration, userID)
	}
	return creds, nil
}
