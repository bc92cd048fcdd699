package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trustlens/review-analyzer/internal/models"
)

// FallbackExplanation is returned in place of a rationale when the explainer
// is unavailable or produces nothing. The score and label stay authoritative.
const FallbackExplanation = "Could not generate an explanation."

// MaxReviewTextLength bounds the submitted review text.
const MaxReviewTextLength = 10000

// AnalysisRequest is one review submission. It lives for the duration of a
// single Analyze call; its fields are redistributed into the stored Review.
// Language is accepted and validated with the submission but not persisted,
// and the scoring and explanation backends do not take it into account.
type AnalysisRequest struct {
	ReviewText       string `validate:"required,max=10000"`
	ProductOrService string `validate:"required,max=200"`
	Platform         string `validate:"required,max=100"`
	Language         string `validate:"omitempty,max=35"`
}

// normalized trims surrounding whitespace so blank-but-nonempty input fails
// the required rule like truly empty input does.
func (r AnalysisRequest) normalized() AnalysisRequest {
	r.ReviewText = strings.TrimSpace(r.ReviewText)
	r.ProductOrService = strings.TrimSpace(r.ProductOrService)
	r.Platform = strings.TrimSpace(r.Platform)
	r.Language = strings.TrimSpace(r.Language)
	return r
}

// ReviewStore persists completed analyses. Implemented by models.ReviewService.
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
}

// AnalyzerService runs the analysis pipeline: validate, score, explain,
// persist. It holds no mutable state, so one instance serves all requests.
type AnalyzerService struct {
	scorer    Scorer
	explainer Explainer
	reviews   ReviewStore
	validate  *validator.Validate
}

func NewAnalyzerService(scorer Scorer, explainer Explainer, reviews ReviewStore) *AnalyzerService {
	return &AnalyzerService{
		scorer:    scorer,
		explainer: explainer,
		reviews:   reviews,
		validate:  validator.New(),
	}
}

// Analyze runs one review through the full pipeline and returns the stored
// record. Exactly one row is written per successful call and none on failure;
// the scoring and explanation calls are not retried. Failures wrap one of the
// error kinds in errors.go.
func (s *AnalyzerService) Analyze(ctx context.Context, user *models.User, req AnalysisRequest) (*models.Review, error) {
	// Fail fast before touching any backend.
	if user == nil || user.ID <= 0 {
		return nil, ErrUnauthenticated
	}

	req = req.normalized()
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	result, err := s.scorer.Score(ctx, req.ReviewText)
	if err != nil {
		log.Printf("analysis scoring failed: user=%d err=%v", user.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	result = result.Clamp()

	explanation, err := s.explainer.Explain(ctx, ExplainInput{
		ReviewText:     req.ReviewText,
		PredictedLabel: result.Label,
		TrustScore:     result.TrustScore,
	})
	if err != nil || strings.TrimSpace(explanation) == "" {
		// Degraded, not fatal: the record still ships with the verdict.
		log.Printf("analysis explanation degraded: user=%d err=%v", user.ID, err)
		explanation = FallbackExplanation
	}

	review := &models.Review{
		UserID:           user.ID,
		ReviewText:       req.ReviewText,
		ProductOrService: req.ProductOrService,
		Platform:         req.Platform,
		TrustScore:       result.TrustScore,
		PredictedLabel:   result.Label,
		Explanation:      explanation,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		// The verdict was computed but never stored; keep it in the log so
		// the analysis is not lost without trace.
		log.Printf("analysis persistence failed: user=%d label=%s score=%.4f err=%v",
			user.ID, result.Label, result.TrustScore, err)
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	return review, nil
}

// validateRequest maps the first validator failure onto an InvalidInputError.
func (s *AnalyzerService) validateRequest(req AnalysisRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &InvalidInputError{
			Field:  fieldName(fe.Field()),
			Reason: reasonFor(fe),
		}
	}
	return &InvalidInputError{Field: "request", Reason: "is not valid"}
}

func fieldName(structField string) string {
	switch structField {
	case "ReviewText":
		return "review text"
	case "ProductOrService":
		return "product or service"
	case "Platform":
		return "platform"
	case "Language":
		return "language"
	}
	return structField
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return "is not valid"
}
