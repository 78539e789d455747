package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"kantin-kiosk/internal/cart"
	"kantin-kiosk/internal/domain"
)

// Session is one kiosk shopping session: the cart, the workflow step, and
// the transient proof image. All access goes through the session mutex;
// the workflow contract holds even if the kiosk UI fires overlapping
// requests.
type Session struct {
	mu sync.Mutex

	id        string
	step      Step
	cart      *cart.Cart
	buyerName string

	// proof holds the captured image bytes from submission until commit or
	// discard. Dropped on retry, cancel, close, and expiry.
	proof []byte

	failureReason string
	committed     bool
	closed        bool

	// transaction is the committed record, kept for the success screen
	transaction *domain.Transaction

	createdAt time.Time
	touchedAt time.Time
}

func newSession() *Session {
	now := time.Now()
	return &Session{
		id:        newSessionID(),
		step:      StepReview,
		cart:      cart.New(),
		createdAt: now,
		touchedAt: now,
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State is a read-only snapshot of the session for the transport layer
type State struct {
	ID            string              `json:"id"`
	Step          Step                `json:"step"`
	Lines         []cart.Line         `json:"lines"`
	Total         int64               `json:"total"`
	ItemCount     int                 `json:"item_count"`
	BuyerName     string              `json:"buyer_name"`
	FailureReason string              `json:"failure_reason,omitempty"`
	Transaction   *domain.Transaction `json:"transaction,omitempty"`
}

// Snapshot returns the current session state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		ID:            s.id,
		Step:          s.step,
		Lines:         s.cart.Lines(),
		Total:         s.cart.Total(),
		ItemCount:     s.cart.ItemCount(),
		BuyerName:     s.buyerName,
		FailureReason: s.failureReason,
		Transaction:   s.transaction,
	}
}

// discardProof drops the captured image bytes. Called on every exit path
// from Payment/Validating so the buffer never outlives the attempt.
func (s *Session) discardProof() {
	s.proof = nil
}

func (s *Session) touch() {
	s.touchedAt = time.Now()
}

func newSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is unrecoverable for id generation
		panic(err)
	}
	return hex.EncodeToString(b)
}

// newTransactionID generates a TRX-prefixed token unique enough for a
// single-kiosk deployment.
func newTransactionID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return "TRX-" + strings.ToUpper(hex.EncodeToString(b))
}
