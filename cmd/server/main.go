package main

import (
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/Navideft74/Arses-club/internal/handlers"
	authMiddleware "github.com/Navideft74/Arses-club/internal/middleware"
	"github.com/Navideft74/Arses-club/internal/services"
)

// TemplateRenderer is a custom html/template renderer for Echo
// Uses per-page template cloning to allow each page to define its own blocks
type TemplateRenderer struct {
	templates map[string]*template.Template
}

// NewTemplateRenderer creates a template renderer with per-page cloning
func NewTemplateRenderer() *TemplateRenderer {
	templates := make(map[string]*template.Template)

	// Parse base layout and partials as the foundation
	baseTemplate := template.Must(template.ParseGlob("web/templates/layouts/*.html"))
	template.Must(baseTemplate.ParseGlob("web/templates/partials/*.html"))

	// Find all page templates and clone base for each
	pages, err := filepath.Glob("web/templates/pages/*.html")
	if err != nil {
		log.Fatal(err)
	}

	for _, page := range pages {
		pageName := filepath.Base(page)
		// Clone the base template for this page
		pageTemplate := template.Must(baseTemplate.Clone())
		// Parse the page-specific template
		template.Must(pageTemplate.ParseFiles(page))
		templates[pageName] = pageTemplate
	}

	// Also parse standalone templates (login, verify) that don't use the base layout
	standalonePages, _ := filepath.Glob("web/templates/*.html")
	for _, page := range standalonePages {
		pageName := filepath.Base(page)
		if _, exists := templates[pageName]; !exists {
			templates[pageName] = template.Must(template.ParseFiles(page))
		}
	}

	return &TemplateRenderer{templates: templates}
}

// Render renders a template document
func (t *TemplateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	tmpl, ok := t.templates[name]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "Template not found: "+name)
	}
	// Page templates extend the "base" layout; standalone templates render
	// directly
	if tmpl.Lookup("base") != nil {
		if dataMap, ok := data.(map[string]interface{}); ok {
			if _, exists := dataMap["UserName"]; !exists {
				name, _ := c.Get("userName").(string)
				dataMap["UserName"] = name
			}
		} else if data == nil {
			name, _ := c.Get("userName").(string)
			data = map[string]interface{}{
				"UserName": name,
			}
		}
		return tmpl.ExecuteTemplate(w, "base", data)
	}
	return tmpl.Execute(w, data)
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	var logger *zap.Logger
	var err error
	if os.Getenv("ENV") == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Sessions live in Redis when available so logins survive restarts
	var sessions services.SessionStore
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		store, err := services.NewRedisSessionStore(redisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer store.Close()
		sessions = store
	} else {
		log.Println("Warning: REDIS_URL not set, sessions are in-memory and lost on restart")
		sessions = services.NewMemorySessionStore()
	}

	// SMS gateway; without credentials codes are only logged
	var sender services.SMSSender
	if os.Getenv("KAVENEGAR_API_KEY") != "" {
		sender = services.NewKavenegarService()
	} else {
		log.Println("Warning: KAVENEGAR_API_KEY not set, OTP codes are logged instead of sent")
		sender = services.NewLogSender(logger)
	}

	authService := services.NewAuthService(db, sender, logger)
	reservationService := services.NewReservationService(db, logger)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler

	// Template renderer with per-page cloning
	e.Renderer = NewTemplateRenderer()

	// Static file serving
	e.Static("/static", "web/static")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessions)
	dashboardHandler := handlers.NewDashboardHandler(db)
	reservationHandler := handlers.NewReservationHandler(db, reservationService)
	userHandler := handlers.NewUserHandler(db)

	// Public routes
	e.GET("/login", authHandler.LoginPage)
	e.POST("/login", authHandler.HandleLogin)
	e.GET("/verify", authHandler.VerifyPage)
	e.POST("/verify", authHandler.HandleVerify)
	e.POST("/logout", authHandler.HandleLogout)

	// Protected routes
	protected := e.Group("")
	protected.Use(authMiddleware.RequireAuth(sessions, authService))
	protected.GET("/dashboard", dashboardHandler.Dashboard)
	protected.GET("/profile/complete", authHandler.CompleteProfilePage)
	protected.POST("/profile/complete", authHandler.HandleCompleteProfile)
	protected.GET("/profile", authHandler.ProfilePage)
	protected.POST("/profile", authHandler.HandleUpdateProfile)

	// Court calendar
	protected.GET("/courts", reservationHandler.ListCourts)
	protected.GET("/courts/:court", reservationHandler.CourtCalendar)

	// Staff-only mutations
	admin := protected.Group("/admin")
	admin.Use(authMiddleware.RequireStaff())
	admin.GET("/users", userHandler.ListUsers)
	admin.POST("/reservations", reservationHandler.CreateReservation)
	admin.POST("/reservations/delete", reservationHandler.DeleteReservation)
	admin.POST("/slots/:id/book", reservationHandler.BookSlot)
	admin.POST("/slots/:id/release", reservationHandler.ReleaseSlot)
	admin.POST("/slots/:id/paid", reservationHandler.MarkPaid)
	admin.POST("/slots/:id/unpaid", reservationHandler.MarkUnpaid)

	// Redirect root to dashboard (or login if not authenticated)
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusTemporaryRedirect, "/dashboard")
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
