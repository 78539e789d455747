package checkout

import "errors"

// Step is the checkout workflow state. The workflow is a linear state
// machine: Review -> Payment -> Validating -> Success or Error, with
// Error -> Payment as the retry path.
type Step string

const (
	StepReview     Step = "review"
	StepPayment    Step = "payment"
	StepValidating Step = "validating"
	StepSuccess    Step = "success"
	StepError      Step = "error"
)

// IsTerminal reports whether the step ends the happy path. Error is not
// terminal for the session: the user can retry or cancel.
func (s Step) IsTerminal() bool {
	return s == StepSuccess
}

func (s Step) String() string {
	return string(s)
}

// User-facing failure reasons. The oracle's own reason is used verbatim for
// negative verdicts; these cover everything else and are deliberately
// distinct strings so the UI (and tests) can tell the cases apart.
const (
	ReasonValidationFailed  = "could not validate the payment proof, retake the photo and try again"
	ReasonValidationTimeout = "payment validation timed out, retake the photo and try again"
	ReasonSaveFailed        = "payment accepted but the transaction could not be saved, please try again"
)

var (
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrSessionClosed   = errors.New("checkout session is closed")
	ErrWrongStep       = errors.New("operation not allowed in the current checkout step")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrEmptyBuyerName  = errors.New("buyer name is required")
	ErrMixedSellers    = errors.New("cart contains products from more than one seller")
	ErrEmptyProof      = errors.New("payment proof image is empty")
	ErrProofTooLarge   = errors.New("payment proof image exceeds the size limit")
)
