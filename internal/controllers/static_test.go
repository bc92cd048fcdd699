package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/csrf"

	localcontext "github.com/trustlens/review-analyzer/context"
	"github.com/trustlens/review-analyzer/internal/models"
	"github.com/trustlens/review-analyzer/internal/views"
	"github.com/trustlens/review-analyzer/templates"
)

func parsePage(t *testing.T, page string) *views.Template {
	t.Helper()
	views.TemplateFS = templates.FS
	return views.MustParseFS(page)
}

// renderPage serves one GET through the CSRF middleware so csrf.Token is
// populated the same way it is in the real handler chain.
func renderPage(t *testing.T, h http.HandlerFunc, path string, user *models.User) string {
	t.Helper()

	protect := csrf.Protect([]byte(strings.Repeat("k", 32)), csrf.Secure(false))
	handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user != nil {
			r = r.WithContext(localcontext.SetUser(r.Context(), user))
		}
		h(w, r)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", w.Code, w.Body.String())
	}
	return w.Body.String()
}

// csrfFieldValues extracts every hidden CSRF input value rendered in the page.
func csrfFieldValues(body string) []string {
	const marker = `name="gorilla.csrf.Token" value="`
	var values []string
	rest := body
	for {
		idx := strings.Index(rest, marker)
		if idx < 0 {
			return values
		}
		rest = rest[idx+len(marker):]
		end := strings.Index(rest, `"`)
		if end < 0 {
			return values
		}
		values = append(values, rest[:end])
		rest = rest[end:]
	}
}

func TestHomeSignOutFormCarriesCSRFToken(t *testing.T) {
	ctrl := &StaticController{Home: parsePage(t, "pages/home.gohtml")}

	body := renderPage(t, ctrl.GetHome, "/", &models.User{ID: 7, Name: "Ada", Email: "ada@example.com"})

	if !strings.Contains(body, `action="/logout"`) {
		t.Fatal("signed-in home page renders no sign-out form")
	}
	values := csrfFieldValues(body)
	if len(values) == 0 {
		t.Fatal("sign-out form renders no CSRF field")
	}
	for _, v := range values {
		if v == "" {
			t.Error("sign-out form rendered an empty CSRF token; the POST would be rejected")
		}
	}
}

func TestHomeAnonymousHasNoSignOutForm(t *testing.T) {
	ctrl := &StaticController{Home: parsePage(t, "pages/home.gohtml")}

	body := renderPage(t, ctrl.GetHome, "/", nil)

	if strings.Contains(body, `action="/logout"`) {
		t.Error("anonymous home page renders a sign-out form")
	}
	if !strings.Contains(body, `href="/signin"`) {
		t.Error("anonymous home page renders no sign-in link")
	}
}

func TestProfileFormsCarryCSRFToken(t *testing.T) {
	ctrl := &StaticController{Profile: parsePage(t, "pages/profile.gohtml")}

	body := renderPage(t, ctrl.GetProfile, "/profile", &models.User{ID: 7, Name: "Ada", Email: "ada@example.com"})

	if !strings.Contains(body, `action="/profile/delete"`) {
		t.Fatal("profile page renders no delete-account form")
	}
	values := csrfFieldValues(body)
	if len(values) < 2 {
		t.Fatalf("profile page renders %d CSRF fields, want one per form (sign-out and delete)", len(values))
	}
	for _, v := range values {
		if v == "" {
			t.Error("profile form rendered an empty CSRF token")
		}
	}
}
