package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/trustlens/review-analyzer/internal/models"
)

// Scorer produces a genuine/fake verdict for raw review text.
type Scorer interface {
	Score(ctx context.Context, reviewText string) (models.ScoringResult, error)
}

// TrustScorer calls the external ML scoring service over HTTP.
type TrustScorer struct {
	BaseURL string
	Client  *http.Client
}

// NewTrustScorer creates a client for the scoring service at baseURL
// (e.g. http://127.0.0.1:5001).
func NewTrustScorer(baseURL string) *TrustScorer {
	return &TrustScorer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// scoreRequest is the wire format the scoring service expects.
type scoreRequest struct {
	Text string `json:"text"`
}

// scoreResponse is the loosely-typed payload the scoring service returns.
// Fields are pointers so a missing key is distinguishable from a zero value;
// nothing beyond this struct ever sees the untyped payload.
type scoreResponse struct {
	PredictedLabel *string  `json:"predicted_label"`
	TrustScore     *float64 `json:"trust_score"`
}

// Score sends the review text to the scoring service and coerces the
// response into a typed ScoringResult. Any non-2xx status or schema
// mismatch is an error; the caller decides whether to surface or re-submit.
func (ts *TrustScorer) Score(ctx context.Context, reviewText string) (models.ScoringResult, error) {
	var zero models.ScoringResult

	if ts.BaseURL == "" {
		return zero, fmt.Errorf("scoring service URL not configured")
	}

	jsonBody, err := json.Marshal(scoreRequest{Text: reviewText})
	if err != nil {
		return zero, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		ts.BaseURL+"/predict",
		bytes.NewBuffer(jsonBody),
	)
	if err != nil {
		return zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("failed to call scoring service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return zero, fmt.Errorf("scoring service error (status %d): %s", resp.StatusCode, string(body))
	}

	var payload scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return zero, fmt.Errorf("failed to decode response: %w", err)
	}

	return coerceScore(payload)
}

// coerceScore validates the raw payload and converts it into the typed
// result. Missing fields, unknown labels and scores outside [0, 1] are all
// schema mismatches.
func coerceScore(payload scoreResponse) (models.ScoringResult, error) {
	var zero models.ScoringResult

	if payload.PredictedLabel == nil || payload.TrustScore == nil {
		return zero, fmt.Errorf("scoring service response missing predicted_label or trust_score")
	}

	label := models.PredictedLabel(strings.ToLower(strings.TrimSpace(*payload.PredictedLabel)))
	if !label.Valid() {
		return zero, fmt.Errorf("scoring service returned unknown label %q", *payload.PredictedLabel)
	}

	score := *payload.TrustScore
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 1 {
		return zero, fmt.Errorf("scoring service returned trust_score %v outside [0, 1]", score)
	}

	return models.ScoringResult{Label: label, TrustScore: score}, nil
}
