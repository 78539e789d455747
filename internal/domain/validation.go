package domain

// ValidationResult is the verdict returned by the payment-proof oracle for
// one capture attempt. It is ephemeral and never persisted.
type ValidationResult struct {
	IsValid           bool   `json:"isValid"`
	MerchantNameFound bool   `json:"merchantNameFound"`
	AmountMatch       bool   `json:"amountMatch"`
	DateFound         bool   `json:"dateFound"`
	SenderNameMatch   bool   `json:"senderNameMatch"`
	ConfidenceScore   int    `json:"confidenceScore"`
	Reason            string `json:"reason"`
}
