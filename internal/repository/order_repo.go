package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/keibalab/autobet/internal/domain"
)

// OrderRepository persists purchase orders. Every status change is written
// through before the caller proceeds — the order record must outlive an
// executor crash.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts a new purchase order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders
			(id, user_id, race_id, bet_lines, total_amount, status, error_message, created_at, updated_at)
		VALUES
			(:id, :user_id, :race_id, :bet_lines, :total_amount, :status, :error_message, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("order_repo.Create: %w: %v", domain.ErrPersistence, err)
	}
	return nil
}

// UpdateStatus advances an order's status. The WHERE clause re-checks the
// one-way machine in the database so a stale writer cannot move an order
// backwards.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus, errMsg *string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchase_orders
		SET status        = $1,
		    error_message = COALESCE($2, error_message),
		    updated_at    = now()
		WHERE id = $3
		  AND status = CASE $1::text
		      WHEN 'SUBMITTED' THEN 'PENDING'
		      ELSE 'SUBMITTED'
		  END`,
		string(status), errMsg, id)
	if err != nil {
		return fmt.Errorf("order_repo.UpdateStatus: %w: %v", domain.ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order_repo.UpdateStatus: %w: order %s to %s", domain.ErrInvalidTransition, id, status)
	}
	return nil
}

// GetByID fetches an order by its primary key.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PurchaseOrder, error) {
	var o domain.PurchaseOrder
	err := r.db.GetContext(ctx, &o, `SELECT * FROM purchase_orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("order_repo.GetByID: %w", err)
	}
	return &o, nil
}

// GetByUserID returns a user's order history, newest first, paginated.
func (r *OrderRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*domain.PurchaseOrder, error) {
	var orders []*domain.PurchaseOrder
	err := r.db.SelectContext(ctx, &orders,
		`SELECT * FROM purchase_orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("order_repo.GetByUserID: %w", err)
	}
	return orders, nil
}

// GetByRaceID returns every order placed for a race, oldest first.
func (r *OrderRepository) GetByRaceID(ctx context.Context, raceID string) ([]*domain.PurchaseOrder, error) {
	var orders []*domain.PurchaseOrder
	err := r.db.SelectContext(ctx, &orders,
		`SELECT * FROM purchase_orders WHERE race_id = $1 ORDER BY created_at ASC`,
		raceID)
	if err != nil {
		return nil, fmt.Errorf("order_repo.GetByRaceID: %w", err)
	}
	return orders, nil
}
