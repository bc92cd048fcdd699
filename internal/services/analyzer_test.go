package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/trustlens/review-analyzer/internal/models"
)

type fakeScorer struct {
	calls    int
	lastText string
	result   models.ScoringResult
	err      error
}

func (f *fakeScorer) Score(ctx context.Context, reviewText string) (models.ScoringResult, error) {
	f.calls++
	f.lastText = reviewText
	return f.result, f.err
}

type fakeExplainer struct {
	calls     int
	lastInput ExplainInput
	text      string
	err       error
}

func (f *fakeExplainer) Explain(ctx context.Context, input ExplainInput) (string, error) {
	f.calls++
	f.lastInput = input
	return f.text, f.err
}

type fakeStore struct {
	calls  int
	nextID int64
	err    error
}

func (f *fakeStore) Create(ctx context.Context, review *models.Review) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.nextID++
	review.ID = f.nextID
	review.CreatedAt = time.Now()
	return nil
}

func validRequest() AnalysisRequest {
	return AnalysisRequest{
		ReviewText:       "Amazing product, fast shipping, works perfectly!",
		ProductOrService: "AstroBook Pro",
		Platform:         "amazon",
		Language:         "en",
	}
}

func testUser() *models.User {
	return &models.User{ID: 7, Name: "Ada", Email: "ada@example.com"}
}

func newTestAnalyzer(scorer *fakeScorer, explainer *fakeExplainer, store *fakeStore) *AnalyzerService {
	return NewAnalyzerService(scorer, explainer, store)
}

func TestAnalyzeReturnsOracleVerdictUnchanged(t *testing.T) {
	scorer := &fakeScorer{result: models.ScoringResult{Label: models.LabelGenuine, TrustScore: 0.92}}
	explainer := &fakeExplainer{text: "Specific details and a natural tone point to a real customer."}
	store := &fakeStore{}
	svc := newTestAnalyzer(scorer, explainer, store)

	review, err := svc.Analyze(context.Background(), testUser(), validRequest())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if review.TrustScore != 0.92 {
		t.Errorf("TrustScore = %v, want 0.92 untouched", review.TrustScore)
	}
	if review.PredictedLabel != models.LabelGenuine {
		t.Errorf("PredictedLabel = %q, want genuine", review.PredictedLabel)
	}
	if review.Explanation != explainer.text {
		t.Errorf("Explanation = %q, want explainer output", review.Explanation)
	}
	if review.ID == 0 || review.CreatedAt.IsZero() {
		t.Errorf("record missing store-assigned id/timestamp: id=%d createdAt=%v", review.ID, review.CreatedAt)
	}
	if review.UserID != 7 {
		t.Errorf("UserID = %d, want 7", review.UserID)
	}
	if scorer.calls != 1 || explainer.calls != 1 || store.calls != 1 {
		t.Errorf("calls = scorer:%d explainer:%d store:%d, want 1 each", scorer.calls, explainer.calls, store.calls)
	}
}

func TestAnalyzeExplainerSeesExactVerdict(t *testing.T) {
	scorer := &fakeScorer{result: models.ScoringResult{Label: models.LabelFake, TrustScore: 0.13}}
	explainer := &fakeExplainer{text: "Generic superlatives and no concrete details."}
	svc := newTestAnalyzer(scorer, explainer, &fakeStore{})

	req := validRequest()
	if _, err := svc.Analyze(context.Background(), testUser(), req); err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if explainer.lastInput.TrustScore != 0.13 {
		t.Errorf("explainer got score %v, want 0.13", explainer.lastInput.TrustScore)
	}
	if explainer.lastInput.PredictedLabel != models.LabelFake {
		t.Errorf("explainer got label %q, want fake", explainer.lastInput.PredictedLabel)
	}
	if explainer.lastInput.ReviewText != req.ReviewText {
		t.Errorf("explainer got text %q, want submitted review text", explainer.lastInput.ReviewText)
	}
	if scorer.lastText != req.ReviewText {
		t.Errorf("scorer got text %q, want submitted review text", scorer.lastText)
	}
}

func TestAnalyzeExplainerFailureFallsBack(t *testing.T) {
	cases := []struct {
		name      string
		explainer *fakeExplainer
	}{
		{"error", &fakeExplainer{err: errors.New("model offline")}},
		{"empty output", &fakeExplainer{text: ""}},
		{"whitespace output", &fakeExplainer{text: "  \n "}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scorer := &fakeScorer{result: models.ScoringResult{Label: models.LabelGenuine, TrustScore: 0.8}}
			store := &fakeStore{}
			svc := newTestAnalyzer(scorer, tc.explainer, store)

			review, err := svc.Analyze(context.Background(), testUser(), validRequest())
			if err != nil {
				t.Fatalf("Analyze should succeed despite degraded explainer, got %v", err)
			}
			if review.Explanation != FallbackExplanation {
				t.Errorf("Explanation = %q, want fallback %q", review.Explanation, FallbackExplanation)
			}
			if store.calls != 1 {
				t.Errorf("store calls = %d, want 1", store.calls)
			}
		})
	}
}

func TestAnalyzeUnauthenticatedMakesNoCalls(t *testing.T) {
	for _, user := range []*models.User{nil, {ID: 0}} {
		scorer := &fakeScorer{}
		explainer := &fakeExplainer{}
		store := &fakeStore{}
		svc := newTestAnalyzer(scorer, explainer, store)

		_, err := svc.Analyze(context.Background(), user, validRequest())
		if !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("err = %v, want ErrUnauthenticated", err)
		}
		if scorer.calls != 0 || explainer.calls != 0 || store.calls != 0 {
			t.Errorf("calls = scorer:%d explainer:%d store:%d, want 0 each", scorer.calls, explainer.calls, store.calls)
		}
	}
}

func TestAnalyzeInvalidInputMakesNoCalls(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*AnalysisRequest)
	}{
		{"empty review text", func(r *AnalysisRequest) { r.ReviewText = "" }},
		{"blank review text", func(r *AnalysisRequest) { r.ReviewText = "   \n\t" }},
		{"review text too long", func(r *AnalysisRequest) { r.ReviewText = strings.Repeat("a", MaxReviewTextLength+1) }},
		{"empty product", func(r *AnalysisRequest) { r.ProductOrService = "" }},
		{"empty platform", func(r *AnalysisRequest) { r.Platform = " " }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			scorer := &fakeScorer{}
			explainer := &fakeExplainer{}
			store := &fakeStore{}
			svc := newTestAnalyzer(scorer, explainer, store)

			req := validRequest()
			tc.mutate(&req)

			_, err := svc.Analyze(context.Background(), testUser(), req)
			if !IsInvalidInput(err) {
				t.Fatalf("err = %v, want InvalidInputError", err)
			}
			if scorer.calls != 0 || explainer.calls != 0 || store.calls != 0 {
				t.Errorf("calls = scorer:%d explainer:%d store:%d, want 0 each", scorer.calls, explainer.calls, store.calls)
			}
		})
	}
}

func TestAnalyzeOracleFailureAbortsPipeline(t *testing.T) {
	scorer := &fakeScorer{err: errors.New("connection refused")}
	explainer := &fakeExplainer{}
	store := &fakeStore{}
	svc := newTestAnalyzer(scorer, explainer, store)

	_, err := svc.Analyze(context.Background(), testUser(), validRequest())
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("err = %v, want ErrOracleUnavailable", err)
	}
	if explainer.calls != 0 {
		t.Errorf("explainer calls = %d, want 0", explainer.calls)
	}
	if store.calls != 0 {
		t.Errorf("store calls = %d, want 0 (no partial record)", store.calls)
	}
}

func TestAnalyzePersistenceFailureAfterBothCalls(t *testing.T) {
	scorer := &fakeScorer{result: models.ScoringResult{Label: models.LabelGenuine, TrustScore: 0.85}}
	explainer := &fakeExplainer{text: "Looks authentic."}
	store := &fakeStore{err: errors.New("deadlock detected")}
	svc := newTestAnalyzer(scorer, explainer, store)

	review, err := svc.Analyze(context.Background(), testUser(), validRequest())
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("err = %v, want ErrPersistenceFailed", err)
	}
	if review != nil {
		t.Errorf("review = %+v, want nil (no unpersisted record returned)", review)
	}
	if scorer.calls != 1 {
		t.Errorf("scorer calls = %d, want exactly 1", scorer.calls)
	}
	if explainer.calls != 1 {
		t.Errorf("explainer calls = %d, want exactly 1", explainer.calls)
	}
}

func TestAnalyzeNoDeduplication(t *testing.T) {
	scorer := &fakeScorer{result: models.ScoringResult{Label: models.LabelGenuine, TrustScore: 0.9}}
	explainer := &fakeExplainer{text: "Reads like a real purchase."}
	store := &fakeStore{}
	svc := newTestAnalyzer(scorer, explainer, store)

	first, err := svc.Analyze(context.Background(), testUser(), validRequest())
	if err != nil {
		t.Fatalf("first Analyze: %v", err)
	}
	second, err := svc.Analyze(context.Background(), testUser(), validRequest())
	if err != nil {
		t.Fatalf("second Analyze: %v", err)
	}

	if store.calls != 2 {
		t.Errorf("store calls = %d, want 2", store.calls)
	}
	if first.ID == second.ID {
		t.Errorf("identical submissions shared id %d, want distinct records", first.ID)
	}
}

func TestAnalyzeTrimsRequestFields(t *testing.T) {
	scorer := &fakeScorer{result: models.ScoringResult{Label: models.LabelGenuine, TrustScore: 0.75}}
	explainer := &fakeExplainer{text: "ok"}
	store := &fakeStore{}
	svc := newTestAnalyzer(scorer, explainer, store)

	req := AnalysisRequest{
		ReviewText:       "  solid product  ",
		ProductOrService: " Widget ",
		Platform:         " yelp ",
	}
	review, err := svc.Analyze(context.Background(), testUser(), req)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if review.ReviewText != "solid product" || review.ProductOrService != "Widget" || review.Platform != "yelp" {
		t.Errorf("fields not trimmed: %+v", review)
	}
}

func TestAnalyzeClampsScore(t *testing.T) {
	// A conforming Scorer never returns out-of-range scores, but the clamp
	// guarantees the invariant even against a misbehaving implementation.
	scorer := &fakeScorer{result: models.ScoringResult{Label: models.LabelGenuine, TrustScore: 1.2}}
	explainer := &fakeExplainer{text: "ok"}
	svc := newTestAnalyzer(scorer, explainer, &fakeStore{})

	review, err := svc.Analyze(context.Background(), testUser(), validRequest())
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if review.TrustScore != 1.0 {
		t.Errorf("TrustScore = %v, want clamped to 1.0", review.TrustScore)
	}
}

func TestInvalidInputErrorMessage(t *testing.T) {
	err := &InvalidInputError{Field: "review text", Reason: "is required"}
	want := "invalid input: review text is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	wrapped := fmt.Errorf("analyze: %w", err)
	if !IsInvalidInput(wrapped) {
		t.Error("IsInvalidInput should see through wrapping")
	}
	if IsInvalidInput(errors.New("other")) {
		t.Error("IsInvalidInput matched an unrelated error")
	}
}
