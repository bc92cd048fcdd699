package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"

	"github.com/trustlens/review-analyzer/internal/config"
	"github.com/trustlens/review-analyzer/internal/controllers"
	"github.com/trustlens/review-analyzer/internal/middleware"
	"github.com/trustlens/review-analyzer/internal/models"
	"github.com/trustlens/review-analyzer/internal/services"
	"github.com/trustlens/review-analyzer/internal/views"
	"github.com/trustlens/review-analyzer/migrations"
	"github.com/trustlens/review-analyzer/templates"
)

func main() {
	cfg := config.MustLoad()
	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	// Setup the Database ---------------
	log.Println("Connecting to database...")
	db, err := models.NewDatabase(ctx, models.DefaultDatabaseConfig(cfg.Database.URL))
	if err != nil {
		return err
	}
	defer db.Close()
	log.Println("Database connected successfully")

	// run migrations
	if err := models.MigrateFS(cfg.Database.URL, migrations.FS, "."); err != nil {
		return err
	}

	// Setup Services ---------------
	userService := models.NewUserService(db.Pool)
	userService.BcryptCost = cfg.Security.BcryptCost
	sessionService := models.NewSessionService(db.Pool)
	sessionService.SessionDuration = cfg.Security.SessionDuration
	reviewService := models.NewReviewService(db.Pool)

	scorer := services.NewTrustScorer(cfg.APIs.ScoringServiceURL)
	explainer := services.NewOpenAIExplainer(cfg.APIs.OpenAIAPIKey, cfg.APIs.OpenAIModel)
	analyzer := services.NewAnalyzerService(scorer, explainer, reviewService)

	// Setup Templates ---------------
	views.TemplateFS = templates.FS

	cookieCfg := controllers.CookieConfig{
		Name:     cfg.Security.SessionCookieName,
		Duration: cfg.Security.SessionDuration,
		Secure:   cfg.Security.SecureCookies,
	}

	// Setup Controllers ---------------
	authCtrl := controllers.NewAuthController(
		userService,
		sessionService,
		cookieCfg,
		controllers.AuthTemplates{
			SignUp: views.MustParseFS("pages/signup.gohtml"),
			SignIn: views.MustParseFS("pages/signin.gohtml"),
		},
	)

	analyzeCtrl := controllers.NewAnalyzeController(
		analyzer,
		reviewService,
		controllers.AnalyzeTemplates{
			Form:      views.MustParseFS("pages/analyze.gohtml"),
			Result:    views.MustParseFS("pages/result.gohtml"),
			History:   views.MustParseFS("pages/history.gohtml"),
			Dashboard: views.MustParseFS("pages/dashboard.gohtml"),
		},
		cfg.Limits.HistoryPageSize,
	)

	apiCtrl := controllers.NewAPIController(analyzer, reviewService, cfg.Limits.HistoryPageSize)

	staticCtrl := &controllers.StaticController{
		Home:    views.MustParseFS("pages/home.gohtml"),
		Profile: views.MustParseFS("pages/profile.gohtml"),
	}

	// Middleware ---------------
	csrfMw := csrf.Protect(
		[]byte(cfg.Security.CSRFSecret),
		csrf.Secure(cfg.Security.SecureCookies),
		csrf.Path("/"),
	)
	authMw := middleware.NewAuthMiddleware(sessionService, cfg.Security.SessionCookieName)

	// Setup router and routes ---------------
	r := chi.NewRouter()
	r.Use(middleware.Logging)
	r.Use(authMw.SetUser)

	// ---- Public HTML routes ----
	r.Group(func(r chi.Router) {
		r.Use(csrfMw)

		r.Get("/", staticCtrl.GetHome)

		r.Group(func(r chi.Router) {
			r.Use(authMw.RequireNoUser)
			r.Get("/signup", authCtrl.GetSignUp)
			r.Post("/signup", authCtrl.PostSignUp)
			r.Get("/signin", authCtrl.GetSignIn)
			r.Post("/signin", authCtrl.PostSignIn)
		})

		// ---- Protected HTML routes ----
		r.Group(func(r chi.Router) {
			r.Use(authMw.RequireUser)

			r.Get("/dashboard", analyzeCtrl.GetDashboard)
			r.Get("/analyze", analyzeCtrl.GetAnalyze)
			r.Post("/analyze", analyzeCtrl.PostAnalyze)
			r.Get("/history", analyzeCtrl.GetHistory)
			r.Post("/history/{id}/delete", analyzeCtrl.DeleteReview)
			r.Get("/profile", staticCtrl.GetProfile)
			r.Post("/profile/delete", authCtrl.PostDeleteAccount)
			r.Post("/logout", authCtrl.PostLogout)
		})
	})

	// ---- JSON API ----
	// Session-cookie authenticated; CSRF is skipped because the API takes
	// JSON bodies, not form posts.
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", apiCtrl.PostAnalyze)
		r.Get("/history", apiCtrl.GetHistory)
	})

	// Start the Server ---------------
	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	fmt.Printf("Starting server at %s...\n", addr)
	return srv.ListenAndServe()
}
