package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PredictedLabel is the classifier's verdict on a review.
type PredictedLabel string

const (
	LabelGenuine PredictedLabel = "genuine"
	LabelFake    PredictedLabel = "fake"
)

// Valid reports whether the label is one the scoring service may return.
func (l PredictedLabel) Valid() bool {
	return l == LabelGenuine || l == LabelFake
}

// ScoringResult is the typed form of the scoring service's output.
// TrustScore is always within [0, 1] once the result has passed boundary
// validation; higher means more likely genuine.
type ScoringResult struct {
	Label      PredictedLabel `json:"predicted_label"`
	TrustScore float64        `json:"trust_score"`
}

// Clamp pins the score to the closed unit interval.
func (r ScoringResult) Clamp() ScoringResult {
	if r.TrustScore < 0 {
		r.TrustScore = 0
	}
	if r.TrustScore > 1 {
		r.TrustScore = 1
	}
	return r
}

// Review is one completed analysis: the submitted text plus the score, label
// and explanation it produced. ID and CreatedAt are assigned by the database
// on insert; a review is never updated afterwards.
type Review struct {
	ID               int64          `json:"id"`
	UserID           int64          `json:"userId"`
	ReviewText       string         `json:"reviewText"`
	ProductOrService string         `json:"productOrService"`
	Platform         string         `json:"platform"`
	TrustScore       float64        `json:"trustScore"`
	PredictedLabel   PredictedLabel `json:"predictedLabel"`
	Explanation      string         `json:"explanation"`
	CreatedAt        time.Time      `json:"timestamp"`
}

type ReviewService struct {
	pool *pgxpool.Pool
}

func NewReviewService(pool *pgxpool.Pool) *ReviewService {
	return &ReviewService{pool: pool}
}

// Create inserts the review as a single row and fills in the
// database-assigned ID and CreatedAt on the passed struct.
func (s *ReviewService) Create(ctx context.Context, review *Review) error {
	query := `
		INSERT INTO reviews (user_id, review_text, product_or_service, platform,
		                     trust_score, predicted_label, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := s.pool.QueryRow(ctx, query,
		review.UserID,
		review.ReviewText,
		review.ProductOrService,
		review.Platform,
		review.TrustScore,
		review.PredictedLabel,
		review.Explanation,
	).Scan(&review.ID, &review.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

func (s *ReviewService) ByID(ctx context.Context, id int64) (*Review, error) {
	query := `
		SELECT id, user_id, review_text, product_or_service, platform,
		       trust_score, predicted_label, explanation, created_at
		FROM reviews
		WHERE id = $1
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	review := &Review{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.UserID,
		&review.ReviewText,
		&review.ProductOrService,
		&review.Platform,
		&review.TrustScore,
		&review.PredictedLabel,
		&review.Explanation,
		&review.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return review, nil
}

// ByUserID lists a user's analysis history, most recent first.
func (s *ReviewService) ByUserID(ctx context.Context, userID int64, limit int) ([]*Review, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, review_text, product_or_service, platform,
		       trust_score, predicted_label, explanation, created_at
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*Review
	for rows.Next() {
		review := &Review{}
		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.ReviewText,
			&review.ProductOrService,
			&review.Platform,
			&review.TrustScore,
			&review.PredictedLabel,
			&review.Explanation,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// CountByUser returns the number of analyses for a user.
func (s *ReviewService) CountByUser(ctx context.Context, userID int64) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	return count, nil
}

// CountByLabel returns counts of a user's analyses grouped by verdict.
func (s *ReviewService) CountByLabel(ctx context.Context, userID int64) (map[PredictedLabel]int, error) {
	query := `
		SELECT predicted_label, COUNT(*)
		FROM reviews
		WHERE user_id = $1
		GROUP BY predicted_label
	`

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews by label: %w", err)
	}
	defer rows.Close()

	counts := make(map[PredictedLabel]int)
	for rows.Next() {
		var label PredictedLabel
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan label count: %w", err)
		}
		counts[label] = count
	}

	return counts, nil
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	result, err := s.pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// HELPER FUNCS --------------------------------

// IsGenuine reports whether the classifier judged the review genuine.
func (r *Review) IsGenuine() bool {
	return r.PredictedLabel == LabelGenuine
}

// TrustPercent renders the score as a whole percentage for display.
func (r *Review) TrustPercent() int {
	return int(r.TrustScore*100 + 0.5)
}
