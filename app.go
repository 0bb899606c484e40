// Package cms is the content management backend for the Living Water
// site: session-authenticated admin CRUD for posts and categories,
// public read endpoints, image upload through an asset store, and a
// contact inbox.
package cms

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// App is the central application. It wires together the store, session
// store, asset store, handlers, and middleware.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Store    *Store
	Sessions *SessionStore
	Assets   AssetStore

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
}

// New creates a new App with the given configuration.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start initializes the stores, middleware, and routes, then starts the
// HTTP server. It blocks until the server stops.
func (a *App) Start() error {
	if err := a.init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) init() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("cms: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("cms: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("cms: init store: %w", err)
	}
	a.Store = store
	a.Sessions = NewSessionStore(store, a.Config.SessionTTL)

	if a.Assets == nil {
		a.Assets = NewDiskAssetStore(a.Config.StaticDir)
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Pre-built site pages and uploaded assets.
	e.Static("/public", a.Config.StaticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/", a.page("index.html"))
	e.GET("/about", a.page("about.html"))
	e.GET("/contact", a.page("contact.html"))
	e.GET("/login", a.page("login.html"))
	e.GET("/admin", a.page("admin.html"), a.requireSession)
	e.GET("/post/:slug", a.page("post.html"))
	e.GET("/category/:slug", a.page("category.html"))

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Auth and bootstrap.
	e.POST("/api/login", a.handleLogin)
	e.POST("/api/logout", a.handleLogout)
	e.GET("/api/check-auth", a.handleCheckAuth)
	e.POST("/api/init-admin", a.handleInitAdmin)
	e.POST("/api/reset-admin-password", a.handleResetAdminPassword)
	e.POST("/api/seed", a.handleSeed)

	// Public reads.
	e.GET("/api/categories", a.handleListCategories)
	e.GET("/api/categories/:slug", a.handleGetCategory)
	e.GET("/api/posts", a.handleListPosts)
	e.GET("/api/posts/slug/:slug", a.handleGetPostBySlug)
	e.POST("/api/contact", a.handleSubmitContact)

	// Admin, gated by a live session.
	e.POST("/api/categories", a.handleCreateCategory, a.requireSession)
	e.PUT("/api/categories/:id", a.handleUpdateCategory, a.requireSession)
	e.DELETE("/api/categories/:id", a.handleDeleteCategory, a.requireSession)
	e.GET("/api/admin/posts", a.handleAdminListPosts, a.requireSession)
	e.GET("/api/admin/posts/:id", a.handleAdminGetPost, a.requireSession)
	e.POST("/api/posts", a.handleCreatePost, a.requireSession)
	e.PUT("/api/posts/:id", a.handleUpdatePost, a.requireSession)
	e.DELETE("/api/posts/:id", a.handleDeletePost, a.requireSession)
	e.GET("/api/contact", a.handleListContacts, a.requireSession)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Sessions != nil {
		a.Sessions.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
