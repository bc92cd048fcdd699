package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/trustlens/review-analyzer/internal/middleware"
	"github.com/trustlens/review-analyzer/internal/models"
	"github.com/trustlens/review-analyzer/internal/services"
)

// APIController exposes the JSON surface: one analyze operation and the
// per-user history listing. Auth rides on the same session cookie as the
// HTML pages.
type APIController struct {
	analyzer        ReviewAnalyzer
	reviewService   *models.ReviewService
	historyPageSize int
}

func NewAPIController(analyzer ReviewAnalyzer, reviewService *models.ReviewService, historyPageSize int) *APIController {
	if historyPageSize <= 0 {
		historyPageSize = 50
	}
	return &APIController{
		analyzer:        analyzer,
		reviewService:   reviewService,
		historyPageSize: historyPageSize,
	}
}

type apiError struct {
	Message string `json:"message"`
}

// analyzeRequest is the JSON analyze payload.
type analyzeRequest struct {
	ReviewText       string `json:"reviewText"`
	ProductOrService string `json:"productOrService"`
	Platform         string `json:"platform"`
	Language         string `json:"language"`
}

// PostAnalyze runs the pipeline and returns the stored record as JSON.
func (c *APIController) PostAnalyze(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, apiError{Message: "Authentication required."})
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Message: "Request body must be valid JSON."})
		return
	}

	review, err := c.analyzer.Analyze(r.Context(), user, services.AnalysisRequest{
		ReviewText:       req.ReviewText,
		ProductOrService: req.ProductOrService,
		Platform:         req.Platform,
		Language:         req.Language,
	})
	if err != nil {
		status, msg := analysisErrorResponse(err)
		writeJSON(w, status, apiError{Message: msg})
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// GetHistory lists the caller's analyses, most recent first.
func (c *APIController) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, apiError{Message: "Authentication required."})
		return
	}

	reviews, err := c.reviewService.ByUserID(r.Context(), user.ID, c.historyPageSize)
	if err != nil {
		log.Printf("Failed to load history for user %d: %v", user.ID, err)
		writeJSON(w, http.StatusInternalServerError, apiError{Message: "An internal server error occurred."})
		return
	}
	if reviews == nil {
		reviews = []*models.Review{}
	}

	writeJSON(w, http.StatusOK, reviews)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}
