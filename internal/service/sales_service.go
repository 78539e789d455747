package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"kantin-kiosk/internal/domain"
	"kantin-kiosk/internal/repository"
)

// SalesService exposes the sales history to the dashboard
type SalesService interface {
	// ListForUser returns transactions newest-first. Admins see everything;
	// sellers only their own sales.
	ListForUser(ctx context.Context, userID uuid.UUID, role string) ([]*domain.Transaction, error)
}

type salesService struct {
	transactions repository.TransactionRepository
}

// NewSalesService creates a new instance of SalesService
func NewSalesService(transactions repository.TransactionRepository) SalesService {
	return &salesService{transactions: transactions}
}

func (s *salesService) ListForUser(ctx context.Context, userID uuid.UUID, role string) ([]*domain.Transaction, error) {
	var sellerID *uuid.UUID
	if role != domain.RoleAdmin {
		sellerID = &userID
	}

	transactions, err := s.transactions.List(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}
