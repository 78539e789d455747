package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kantin-kiosk/internal/domain"
	"kantin-kiosk/internal/oracle"
	"kantin-kiosk/internal/repository"
)

// CatalogRefresher is notified after a successful commit so stock levels
// shown to the next shopper reflect the sale.
type CatalogRefresher interface {
	InvalidateProducts(ctx context.Context)
}

// Workflow orchestrates the checkout state machine: cart review, identity
// confirmation, proof validation through the oracle, and the commit
// sequence against the stores.
type Workflow struct {
	validator     oracle.ProofValidator
	transactions  repository.TransactionRepository
	products      repository.ProductRepository
	refresher     CatalogRefresher
	oracleTimeout time.Duration
	maxProofBytes int
	logger        *zap.Logger
}

// NewWorkflow creates a checkout workflow. refresher may be nil when no
// listing cache is in use.
func NewWorkflow(
	validator oracle.ProofValidator,
	transactions repository.TransactionRepository,
	products repository.ProductRepository,
	refresher CatalogRefresher,
	oracleTimeout time.Duration,
	maxProofBytes int,
	logger *zap.Logger,
) *Workflow {
	if oracleTimeout <= 0 {
		oracleTimeout = 30 * time.Second
	}
	if maxProofBytes <= 0 {
		maxProofBytes = 8 << 20
	}
	return &Workflow{
		validator:     validator,
		transactions:  transactions,
		products:      products,
		refresher:     refresher,
		oracleTimeout: oracleTimeout,
		maxProofBytes: maxProofBytes,
		logger:        logger,
	}
}

// AddItem puts one unit of the product into the session cart. Cart mutation
// is only accepted while reviewing; once payment starts the cart is locked.
func (w *Workflow) AddItem(s *Session, product domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.step != StepReview {
		return ErrWrongStep
	}

	s.cart.AddItem(product)
	s.touch()
	return nil
}

// ChangeQuantity adjusts a cart line by delta, subject to the same step
// lock as AddItem.
func (w *Workflow) ChangeQuantity(s *Session, productID uuid.UUID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.step != StepReview {
		return ErrWrongStep
	}

	s.cart.ChangeQuantity(productID, delta)
	s.touch()
	return nil
}

// ConfirmIdentity moves Review -> Payment. Guards: non-empty buyer name,
// non-empty cart, and a single-seller cart (a transaction belongs to
// exactly one seller, so mixed carts are rejected here rather than
// silently attributed to the first line's seller).
func (w *Workflow) ConfirmIdentity(s *Session, buyerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.step != StepReview {
		return ErrWrongStep
	}

	buyerName = strings.TrimSpace(buyerName)
	if buyerName == "" {
		return ErrEmptyBuyerName
	}
	if s.cart.IsEmpty() {
		return ErrEmptyCart
	}
	if len(s.cart.Sellers()) > 1 {
		return ErrMixedSellers
	}

	s.buyerName = buyerName
	s.step = StepPayment
	s.touch()
	return nil
}

// SubmitProof accepts the captured payment-proof image, suspends the
// session in Validating while the oracle judges it, and on a valid verdict
// runs the commit sequence. The call returns when the session has settled
// in Success or Error.
func (w *Workflow) SubmitProof(ctx context.Context, s *Session, image []byte) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.step != StepPayment {
		s.mu.Unlock()
		return ErrWrongStep
	}
	if len(image) == 0 {
		s.mu.Unlock()
		return ErrEmptyProof
	}
	if len(image) > w.maxProofBytes {
		s.mu.Unlock()
		return ErrProofTooLarge
	}

	// Expected amount is the cart total at the moment of capture. The cart
	// cannot change after this point: mutation is rejected outside Review.
	s.proof = image
	s.step = StepValidating
	s.failureReason = ""
	expectedAmount := s.cart.Total()
	buyerName := s.buyerName
	s.mu.Unlock()

	octx, cancel := context.WithTimeout(ctx, w.oracleTimeout)
	defer cancel()

	result, err := w.validator.Validate(octx, image, expectedAmount, buyerName)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The session may have been expired by the manager while the oracle
	// call was in flight.
	if s.closed || s.step != StepValidating {
		s.discardProof()
		return ErrSessionClosed
	}

	if err != nil {
		s.step = StepError
		if errors.Is(err, context.DeadlineExceeded) {
			s.failureReason = ReasonValidationTimeout
		} else {
			s.failureReason = ReasonValidationFailed
		}
		w.logger.Error("Payment proof validation failed",
			zap.String("session_id", s.id),
			zap.Error(err),
		)
		s.touch()
		return nil
	}

	if !result.IsValid {
		s.step = StepError
		s.failureReason = result.Reason
		if s.failureReason == "" {
			s.failureReason = ReasonValidationFailed
		}
		w.logger.Info("Payment proof rejected",
			zap.String("session_id", s.id),
			zap.Int("confidence", result.ConfidenceScore),
			zap.String("reason", result.Reason),
		)
		s.touch()
		return nil
	}

	w.commit(ctx, s)
	s.touch()
	return nil
}

// commit runs the commit sequence with the session lock held: persist the
// transaction snapshot, best-effort stock decrements, clear the cart, and
// refresh the product listing. A failed insert moves to Error and keeps
// the cart so the user can retry without re-entering their name.
func (w *Workflow) commit(ctx context.Context, s *Session) {
	lines := s.cart.Lines()
	now := time.Now()

	trx := &domain.Transaction{
		ID:          newTransactionID(),
		Date:        now.Format("2006-01-02"),
		Time:        now.Format("15:04:05"),
		Items:       make([]domain.TransactionItem, 0, len(lines)),
		TotalAmount: s.cart.Total(),
		BuyerName:   s.buyerName,
		SellerID:    lines[0].Product.SellerID,
		Status:      domain.TransactionCompleted,
		CreatedAt:   now,
	}
	for _, l := range lines {
		trx.Items = append(trx.Items, domain.TransactionItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Price:       l.Product.Price,
			Quantity:    l.Quantity,
		})
	}

	if err := w.transactions.Insert(ctx, trx); err != nil {
		w.logger.Error("Failed to save transaction",
			zap.String("session_id", s.id),
			zap.String("transaction_id", trx.ID),
			zap.Error(err),
		)
		s.step = StepError
		s.failureReason = ReasonSaveFailed
		s.discardProof()
		return
	}

	// Best-effort per line: a failed decrement is logged and never rolls
	// back the transaction or blocks the remaining lines.
	for _, l := range lines {
		if err := w.products.DecrementStock(ctx, l.Product.ID, l.Quantity); err != nil {
			w.logger.Warn("Failed to decrement stock after sale",
				zap.String("transaction_id", trx.ID),
				zap.String("product_id", l.Product.ID.String()),
				zap.Int("quantity", l.Quantity),
				zap.Error(err),
			)
		}
	}

	s.cart.Clear()
	s.discardProof()
	s.committed = true
	s.transaction = trx
	s.step = StepSuccess

	if w.refresher != nil {
		w.refresher.InvalidateProducts(ctx)
	}

	w.logger.Info("Checkout committed",
		zap.String("session_id", s.id),
		zap.String("transaction_id", trx.ID),
		zap.Int64("total_amount", trx.TotalAmount),
		zap.String("buyer_name", trx.BuyerName),
	)
}

// Retry moves Error -> Payment for another capture attempt. The previous
// proof bytes are discarded.
func (w *Workflow) Retry(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.step != StepError {
		return ErrWrongStep
	}

	s.discardProof()
	s.failureReason = ""
	s.step = StepPayment
	s.touch()
	return nil
}

// Cancel closes the workflow without committing. The cart is left
// untouched. Allowed from any non-success step; a validating session
// settles as closed when the oracle call returns.
func (w *Workflow) Cancel(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.step == StepSuccess {
		return ErrWrongStep
	}

	s.discardProof()
	s.closed = true
	return nil
}

// Close ends the session after Success. Idempotent: closing twice never
// re-commits or clears anything twice.
func (w *Workflow) Close(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.discardProof()
	s.closed = true
}
