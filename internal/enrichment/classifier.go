package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/insighta/complaints-service/internal/config"
)

// Result is the normalized classifier output. Every field is optional; an
// absent field means "no update" for that axis.
type Result struct {
	Sentiment         *string  `json:"sentiment"`
	Intent            *string  `json:"intent"`
	IssueType         *string  `json:"issue_type"`
	Priority          *string  `json:"priority"`
	SuggestedCategory *string  `json:"suggested_category"`
	Confidence        *float64 `json:"confidence"`
}

// Classifier calls the external NLP capability.
type Classifier interface {
	Classify(ctx context.Context, ticketID, text string) (*Result, error)
}

type classifyRequest struct {
	TicketID string `json:"ticket_id,omitempty"`
	Text     string `json:"text"`
}

// HTTPClassifier posts ticket text to the classification endpoint with a
// bounded timeout.
type HTTPClassifier struct {
	url    string
	client *http.Client
}

// NewHTTPClassifier builds the client from configuration.
func NewHTTPClassifier(cfg config.EnrichmentConfig) *HTTPClassifier {
	return &HTTPClassifier{
		url:    cfg.ClassifierURL,
		client: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Classify sends the text and decodes the typed response.
func (c *HTTPClassifier) Classify(ctx context.Context, ticketID, text string) (*Result, error) {
	body, err := json.Marshal(classifyRequest{TicketID: ticketID, Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify call: unexpected status %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode classify response: %w", err)
	}
	return &result, nil
}
