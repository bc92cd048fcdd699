package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/trustlens/review-analyzer/internal/middleware"
	"github.com/trustlens/review-analyzer/internal/models"
	"github.com/trustlens/review-analyzer/internal/services"
	"github.com/trustlens/review-analyzer/internal/views"
)

// ReviewAnalyzer runs the analysis pipeline. Implemented by
// services.AnalyzerService.
type ReviewAnalyzer interface {
	Analyze(ctx context.Context, user *models.User, req services.AnalysisRequest) (*models.Review, error)
}

// AnalyzeController handles review analysis pages and history.
type AnalyzeController struct {
	analyzer        ReviewAnalyzer
	reviewService   *models.ReviewService
	templates       AnalyzeTemplates
	historyPageSize int
}

// AnalyzeTemplates holds the templates for the analysis pages.
type AnalyzeTemplates struct {
	Form      *views.Template
	Result    *views.Template
	History   *views.Template
	Dashboard *views.Template
}

func NewAnalyzeController(
	analyzer ReviewAnalyzer,
	reviewService *models.ReviewService,
	templates AnalyzeTemplates,
	historyPageSize int,
) *AnalyzeController {
	if historyPageSize <= 0 {
		historyPageSize = 50
	}
	return &AnalyzeController{
		analyzer:        analyzer,
		reviewService:   reviewService,
		templates:       templates,
		historyPageSize: historyPageSize,
	}
}

// Platforms offered by the analyze form.
var platformOptions = []string{"amazon", "yelp", "google", "tripadvisor", "other"}

// Languages offered by the analyze form.
var languageOptions = []string{"en", "es", "fr", "de", "it"}

// AnalyzeFormData holds data for the analyze form template.
type AnalyzeFormData struct {
	ReviewText       string
	ProductOrService string
	Platform         string
	Language         string
	Platforms        []string
	Languages        []string
}

// GetAnalyze renders the analysis form.
func (c *AnalyzeController) GetAnalyze(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustCurrentUser(r)

	c.templates.Form.ExecuteHTTP(w, r, &views.TemplateData{
		Title:       "Analyze Review",
		CSRFToken:   csrf.Token(r),
		CurrentUser: user,
		Data: AnalyzeFormData{
			Language:  "en",
			Platforms: platformOptions,
			Languages: languageOptions,
		},
	})
}

// AnalysisResultData holds data for the result template.
type AnalysisResultData struct {
	Review *models.Review
}

// PostAnalyze handles the analysis form submission.
func (c *AnalyzeController) PostAnalyze(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustCurrentUser(r)

	if err := r.ParseForm(); err != nil {
		c.renderFormError(w, r, user, services.AnalysisRequest{}, http.StatusUnprocessableEntity, "Invalid form data")
		return
	}

	req := services.AnalysisRequest{
		ReviewText:       r.FormValue("review_text"),
		ProductOrService: r.FormValue("product_or_service"),
		Platform:         r.FormValue("platform"),
		Language:         r.FormValue("language"),
	}

	review, err := c.analyzer.Analyze(r.Context(), user, req)
	if err != nil {
		status, msg := analysisErrorResponse(err)
		if status == http.StatusUnauthorized {
			http.Redirect(w, r, "/signin", http.StatusSeeOther)
			return
		}
		c.renderFormError(w, r, user, req, status, msg)
		return
	}

	c.templates.Result.ExecuteHTTP(w, r, &views.TemplateData{
		Title:       "Analysis Result",
		CSRFToken:   csrf.Token(r),
		CurrentUser: user,
		Data:        AnalysisResultData{Review: review},
	})
}

// HistoryData holds data for the history template.
type HistoryData struct {
	Reviews []*models.Review
}

// GetHistory renders the user's analysis history, most recent first.
func (c *AnalyzeController) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustCurrentUser(r)

	reviews, err := c.reviewService.ByUserID(r.Context(), user.ID, c.historyPageSize)
	if err != nil {
		log.Printf("Failed to load history for user %d: %v", user.ID, err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	c.templates.History.ExecuteHTTP(w, r, &views.TemplateData{
		Title:       "Analysis History",
		CSRFToken:   csrf.Token(r),
		CurrentUser: user,
		Error:       r.URL.Query().Get("error"),
		Success:     r.URL.Query().Get("success"),
		Data:        HistoryData{Reviews: reviews},
	})
}

// DashboardData holds data for the dashboard template.
type DashboardData struct {
	TotalAnalyses int
	GenuineCount  int
	FakeCount     int
	Recent        []*models.Review
}

// GetDashboard renders the dashboard with counts and recent analyses.
func (c *AnalyzeController) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustCurrentUser(r)
	ctx := r.Context()

	total, err := c.reviewService.CountByUser(ctx, user.ID)
	if err != nil {
		log.Printf("Failed to count reviews for user %d: %v", user.ID, err)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	counts, err := c.reviewService.CountByLabel(ctx, user.ID)
	if err != nil {
		log.Printf("Failed to count reviews by label for user %d: %v", user.ID, err)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	recent, err := c.reviewService.ByUserID(ctx, user.ID, 5)
	if err != nil {
		log.Printf("Failed to load recent reviews for user %d: %v", user.ID, err)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	c.templates.Dashboard.ExecuteHTTP(w, r, &views.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrf.Token(r),
		CurrentUser: user,
		Data: DashboardData{
			TotalAnalyses: total,
			GenuineCount:  counts[models.LabelGenuine],
			FakeCount:     counts[models.LabelFake],
			Recent:        recent,
		},
	})
}

// DeleteReview removes one analysis from the user's history.
func (c *AnalyzeController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustCurrentUser(r)

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "Invalid review ID", http.StatusBadRequest)
		return
	}

	review, err := c.reviewService.ByID(r.Context(), id)
	if err != nil {
		http.Redirect(w, r, "/history?error=Analysis+not+found", http.StatusSeeOther)
		return
	}

	// Verify ownership
	if review.UserID != user.ID {
		http.Redirect(w, r, "/history?error=Access+denied", http.StatusSeeOther)
		return
	}

	if err := c.reviewService.Delete(r.Context(), id); err != nil {
		http.Redirect(w, r, "/history?error=Failed+to+delete", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/history?success=Analysis+deleted", http.StatusSeeOther)
}

// renderFormError re-renders the analyze form with an error message.
func (c *AnalyzeController) renderFormError(w http.ResponseWriter, r *http.Request, user *models.User, req services.AnalysisRequest, status int, msg string) {
	c.templates.Form.ExecuteHTTPWithStatus(w, r, status, &views.TemplateData{
		Title:       "Analyze Review",
		CSRFToken:   csrf.Token(r),
		CurrentUser: user,
		Error:       msg,
		Data: AnalyzeFormData{
			ReviewText:       req.ReviewText,
			ProductOrService: req.ProductOrService,
			Platform:         req.Platform,
			Language:         req.Language,
			Platforms:        platformOptions,
			Languages:        languageOptions,
		},
	})
}

// analysisErrorResponse maps a pipeline error onto an HTTP status and a
// user-facing message.
func analysisErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required"
	case services.IsInvalidInput(err):
		var iie *services.InvalidInputError
		errors.As(err, &iie)
		return http.StatusUnprocessableEntity, "The " + iie.Field + " " + iie.Reason
	case errors.Is(err, services.ErrOracleUnavailable):
		return http.StatusServiceUnavailable, "The review analysis service is currently unavailable. Please try again later."
	case errors.Is(err, services.ErrPersistenceFailed):
		return http.StatusInternalServerError, "Failed to analyze review due to an internal error."
	default:
		return http.StatusInternalServerError, "Failed to analyze review due to an internal error."
	}
}
