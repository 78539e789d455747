package oracle

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"kantin-kiosk/internal/domain"
)

const (
	// DefaultBaseURL is the default Gemini API endpoint
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-1.5-flash"
)

// ReasonMissingAPIKey is returned as the verdict reason when the oracle is
// not configured. Configuration absence is a verdict, not an error: the
// workflow must be able to show it to the user without special-casing.
const ReasonMissingAPIKey = "payment validation is not configured: missing AI API key, contact the administrator"

// ProofValidator judges a photographed payment proof against the expected
// transaction details.
type ProofValidator interface {
	Validate(ctx context.Context, image []byte, expectedAmount int64, buyerName string) (*domain.ValidationResult, error)
}

// GeminiValidator implements ProofValidator against the native Gemini
// generateContent API.
type GeminiValidator struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewGeminiValidator creates a validator. An empty apiKey is allowed; calls
// will return a non-valid verdict with a descriptive reason instead of
// reaching the API.
func NewGeminiValidator(apiKey, baseURL, model string, timeout time.Duration, logger *zap.Logger) *GeminiValidator {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &GeminiValidator{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// verdictSchema forces the model response into the ValidationResult shape
var verdictSchema = &schema{
	Type: "OBJECT",
	Properties: map[string]*schema{
		"isValid": {
			Type:        "BOOLEAN",
			Description: "True if the receipt is a valid proof of payment for the correct amount.",
		},
		"merchantNameFound": {
			Type:        "BOOLEAN",
			Description: "Whether the merchant or destination bank/entity was found.",
		},
		"amountMatch": {
			Type:        "BOOLEAN",
			Description: "Whether the numerical amount in the receipt matches the expected target amount.",
		},
		"dateFound": {
			Type:        "BOOLEAN",
			Description: "Whether a transaction date and time were identified.",
		},
		"senderNameMatch": {
			Type:        "BOOLEAN",
			Description: "Whether the sender/payer name matches the provided buyer name.",
		},
		"confidenceScore": {
			Type:        "NUMBER",
			Description: "Level of confidence in the validation, from 0 to 100.",
		},
		"reason": {
			Type:        "STRING",
			Description: "Human-readable explanation of the validation status.",
		},
	},
	Required: []string{"isValid", "merchantNameFound", "amountMatch", "dateFound", "confidenceScore", "reason"},
}

// Validate sends the captured proof image to Gemini and decodes the
// structured verdict. Transport, quota, and parse failures are returned as
// errors; the caller maps them to its generic failure reason. A missing API
// key is not an error.
func (v *GeminiValidator) Validate(ctx context.Context, image []byte, expectedAmount int64, buyerName string) (*domain.ValidationResult, error) {
	if v.apiKey == "" {
		v.logger.Error("Gemini API key is not configured")
		return &domain.ValidationResult{
			IsValid: false,
			Reason:  ReasonMissingAPIKey,
		}, nil
	}

	prompt := buildPrompt(expectedAmount, buyerName)

	reqBody := geminiRequest{
		Contents: []content{
			{
				Role: "user",
				Parts: []part{
					{InlineData: &inlineData{
						MimeType: "image/jpeg",
						Data:     base64.StdEncoding.EncodeToString(image),
					}},
					{Text: prompt},
				},
			},
		},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   verdictSchema,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", v.baseURL, v.model, v.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			v.logger.Error("Gemini API error",
				zap.Int("status", resp.StatusCode),
				zap.String("api_status", apiErr.Error.Status),
				zap.String("message", apiErr.Error.Message),
			)
			return nil, fmt.Errorf("gemini API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("gemini API returned status %d", resp.StatusCode)
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	text := strings.TrimSpace(geminiResp.Candidates[0].Content.Parts[0].Text)
	var result domain.ValidationResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, fmt.Errorf("failed to parse verdict JSON: %w", err)
	}

	v.logger.Info("Payment proof validated",
		zap.Bool("is_valid", result.IsValid),
		zap.Int("confidence", result.ConfidenceScore),
		zap.Duration("duration", time.Since(start)),
	)

	return &result, nil
}

func buildPrompt(expectedAmount int64, buyerName string) string {
	payer := buyerName
	if payer == "" {
		payer = "Any"
	}
	return fmt.Sprintf(`You are an automated receipt scanner assistant for a digital kiosk.
Analyze the provided image of a payment receipt/transfer proof.

Expected Transaction Details:
- Target Amount: Rp %d
- Payer Name: %q

Instructions:
1. Extract the transaction amount. Does it match %d?
2. Find the date and time of the transaction.
3. Look for the sender's name and check if it relates to %q.
4. Verify if this looks like a valid bank transfer or QRIS success screen.`,
		expectedAmount, payer, expectedAmount, payer)
}
