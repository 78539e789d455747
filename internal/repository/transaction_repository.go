package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kantin-kiosk/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrTransactionExists = errors.New("transaction with this id already exists")
)

// TransactionRepository defines the interface for sales-history data access.
// Transactions are insert-only; there is no update path.
type TransactionRepository interface {
	Insert(ctx context.Context, trx *domain.Transaction) error
	List(ctx context.Context, sellerID *uuid.UUID) ([]*domain.Transaction, error)
}

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new instance of TransactionRepository
func NewTransactionRepository(db *sql.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// Insert persists a transaction snapshot. The cart lines are stored as a
// JSONB document so later product mutation cannot change the record.
func (r *transactionRepository) Insert(ctx context.Context, trx *domain.Transaction) error {
	items, err := json.Marshal(trx.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction items: %w", err)
	}

	query := `
		INSERT INTO transactions (id, date, time, items, total_amount, buyer_name, seller_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(
		ctx,
		query,
		trx.ID,
		trx.Date,
		trx.Time,
		items,
		trx.TotalAmount,
		trx.BuyerName,
		trx.SellerID,
		trx.Status,
		trx.CreatedAt,
	)

	if err != nil {
		// TRX ids are random; a collision means a duplicate submission
		if strings.Contains(err.Error(), "transactions_pkey") {
			return ErrTransactionExists
		}
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

// List retrieves transactions newest-first, optionally filtered to one
// seller (the dashboard scope for non-admin users).
func (r *transactionRepository) List(ctx context.Context, sellerID *uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT id, date, time, items, total_amount, buyer_name, seller_id, status, created_at
		FROM transactions
	`
	args := []interface{}{}

	if sellerID != nil {
		query += " WHERE seller_id = $1"
		args = append(args, *sellerID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []*domain.Transaction{}
	for rows.Next() {
		trx := &domain.Transaction{}
		var items []byte
		err := rows.Scan(
			&trx.ID,
			&trx.Date,
			&trx.Time,
			&items,
			&trx.TotalAmount,
			&trx.BuyerName,
			&trx.SellerID,
			&trx.Status,
			&trx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if err := json.Unmarshal(items, &trx.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transaction items: %w", err)
		}

		transactions = append(transactions, trx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
