package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionStatus is the lifecycle status of a persisted transaction.
// Every transaction written by the checkout workflow is already completed.
type TransactionStatus string

const TransactionCompleted TransactionStatus = "completed"

// TransactionItem is a snapshot of one cart line at commit time. It is
// stored as JSONB with the transaction and is independent of any later
// product mutation.
type TransactionItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
}

// Transaction is an immutable record of one completed checkout
type Transaction struct {
	ID          string            `json:"id" db:"id"`
	Date        string            `json:"date" db:"date"`
	Time        string            `json:"time" db:"time"`
	Items       []TransactionItem `json:"items" db:"items"`
	TotalAmount int64             `json:"total_amount" db:"total_amount"`
	BuyerName   string            `json:"buyer_name" db:"buyer_name"`
	SellerID    uuid.UUID         `json:"seller_id" db:"seller_id"`
	Status      TransactionStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}
