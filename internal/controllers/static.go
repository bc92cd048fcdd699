package controllers

import (
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/trustlens/review-analyzer/internal/middleware"
	"github.com/trustlens/review-analyzer/internal/views"
)

// StaticController renders pages that carry no form handling of their own.
type StaticController struct {
	Home    *views.Template
	Profile *views.Template
}

// GetHome renders the landing page. Signed-in users see links into the app,
// anonymous visitors see signin/signup.
func (c *StaticController) GetHome(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	c.Home.ExecuteHTTP(w, r, &views.TemplateData{
		Title:       "TrustLens",
		CSRFToken:   csrf.Token(r),
		CurrentUser: user,
	})
}

// GetProfile renders the account page.
func (c *StaticController) GetProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustCurrentUser(r)
	c.Profile.ExecuteHTTP(w, r, &views.TemplateData{
		Title:       "My Account",
		CSRFToken:   csrf.Token(r),
		CurrentUser: user,
	})
}
