package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/trustlens/review-analyzer/internal/middleware"
	"github.com/trustlens/review-analyzer/internal/models"
	"github.com/trustlens/review-analyzer/internal/views"
)

// AuthController handles signup/signin flows
type AuthController struct {
	userService    *models.UserService
	sessionService *models.SessionService
	cookie         CookieConfig
	templates      AuthTemplates
}

// AuthTemplates holds the templates for the auth pages.
type AuthTemplates struct {
	SignUp *views.Template
	SignIn *views.Template
}

func NewAuthController(
	us *models.UserService,
	ss *models.SessionService,
	cookie CookieConfig,
	templates AuthTemplates,
) *AuthController {
	return &AuthController{
		userService:    us,
		sessionService: ss,
		cookie:         cookie,
		templates:      templates,
	}
}

// SignUpFormData holds re-render data for the signup form.
type SignUpFormData struct {
	Name  string
	Email string
}

// GetSignUp renders the signup form.
func (ac *AuthController) GetSignUp(w http.ResponseWriter, r *http.Request) {
	ac.templates.SignUp.ExecuteHTTP(w, r, &views.TemplateData{
		Title:     "Sign Up",
		CSRFToken: csrf.Token(r),
	})
}

// PostSignUp creates a new user and signs them in.
func (ac *AuthController) PostSignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ac.renderSignUpError(w, r, "", "", "Invalid form data")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")

	if name == "" {
		ac.renderSignUpError(w, r, name, email, "Name is required")
		return
	}
	if email == "" {
		ac.renderSignUpError(w, r, name, email, "Email is required")
		return
	}
	if password == "" {
		ac.renderSignUpError(w, r, name, email, "Password is required")
		return
	}
	if password != confirmPassword {
		ac.renderSignUpError(w, r, name, email, "Passwords do not match")
		return
	}

	user, err := ac.userService.Create(r.Context(), name, email, password)
	if err != nil {
		msg := "Failed to create account"
		if errors.Is(err, models.ErrEmailAlreadyExists) {
			msg = "An account with this email already exists"
		} else if errors.Is(err, models.ErrPasswordTooShort) {
			msg = "Password must be at least 8 characters"
		}
		ac.renderSignUpError(w, r, name, email, msg)
		return
	}

	ac.startSession(w, r, user)
}

// GetSignIn renders the signin form.
func (ac *AuthController) GetSignIn(w http.ResponseWriter, r *http.Request) {
	ac.templates.SignIn.ExecuteHTTP(w, r, &views.TemplateData{
		Title:     "Sign In",
		CSRFToken: csrf.Token(r),
	})
}

// PostSignIn authenticates an email/password pair.
func (ac *AuthController) PostSignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		ac.renderSignInError(w, r, "", "Invalid form data")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		ac.renderSignInError(w, r, email, "Email and password are required")
		return
	}

	user, err := ac.userService.Authenticate(r.Context(), email, password)
	if err != nil {
		ac.renderSignInError(w, r, email, "Invalid email or password")
		return
	}

	if err := ac.userService.UpdateLastLogin(r.Context(), user.ID); err != nil {
		log.Printf("Failed to update last login for user %d: %v", user.ID, err)
	}

	ac.startSession(w, r, user)
}

// PostLogout deletes the session and clears the cookie.
func (ac *AuthController) PostLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(ac.cookie.Name)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if err := ac.sessionService.Delete(r.Context(), cookie.Value); err != nil {
		log.Printf("Failed to delete session: %v", err)
	}
	deleteCookie(w, ac.cookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

// PostDeleteAccount permanently removes the signed-in user's account.
// Sessions and analysis history go with it through the cascading foreign
// keys, so clearing the cookie is all that remains client-side.
func (ac *AuthController) PostDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustCurrentUser(r)

	if err := ac.userService.Delete(r.Context(), user.ID); err != nil {
		log.Printf("Failed to delete account for user %d: %v", user.ID, err)
		http.Error(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}

	deleteCookie(w, ac.cookie)
	http.Redirect(w, r, "/", http.StatusFound)
}

// startSession issues a session cookie and redirects to the dashboard,
// honoring a ?redirect= target when present.
func (ac *AuthController) startSession(w http.ResponseWriter, r *http.Request, user *models.User) {
	session, err := ac.sessionService.Create(r.Context(), user.ID)
	if err != nil {
		log.Printf("Failed to create session for user %d: %v", user.ID, err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	setCookie(w, ac.cookie, session.Token)

	redirect := r.FormValue("redirect")
	if redirect == "" || !strings.HasPrefix(redirect, "/") {
		redirect = "/dashboard"
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func (ac *AuthController) renderSignUpError(w http.ResponseWriter, r *http.Request, name, email, msg string) {
	ac.templates.SignUp.ExecuteHTTPWithStatus(w, r, http.StatusUnprocessableEntity, &views.TemplateData{
		Title:     "Sign Up",
		CSRFToken: csrf.Token(r),
		Error:     msg,
		Data:      SignUpFormData{Name: name, Email: email},
	})
}

func (ac *AuthController) renderSignInError(w http.ResponseWriter, r *http.Request, email, msg string) {
	ac.templates.SignIn.ExecuteHTTPWithStatus(w, r, http.StatusUnprocessableEntity, &views.TemplateData{
		Title:     "Sign In",
		CSRFToken: csrf.Token(r),
		Error:     msg,
		Data:      SignUpFormData{Email: email},
	})
}
