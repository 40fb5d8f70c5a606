package routers

import (
	"database/sql"
	"net/http"
	"time"

	"solarcatalog/access"
	"solarcatalog/config"
	"solarcatalog/controllers"
	"solarcatalog/mailer"
	"solarcatalog/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Route connects to postgres and redis and returns the full application.
func Route(cfg *config.Config) (*gin.Engine, error) {
	db, err := newDB(cfg.DBConnectionString)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisHost + ":" + cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	var sender mailer.Sender
	if cfg.SMTP.Server != "" {
		sender = mailer.NewSMTPSender(cfg.SMTP, cfg.WebURL)
	} else {
		zap.L().Warn("EMAIL_SMTP_SERVER not set, password reset mail disabled")
	}

	api, err := controllers.NewAPI(db, rdb, controllers.Options{
		BaseURL:        cfg.BaseURL,
		SessionKey:     cfg.SessionKey,
		SessionTTL:     cfg.SessionTTL,
		CacheTTL:       cfg.CatalogCacheTTL,
		WhatsappNumber: cfg.DefaultWhatsappNumber,
		SecureCookies:  !cfg.IsDevelopment(),
		Mailer:         sender,
	})
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(Logger(), gin.Recovery())

	return NewRouter(router, api), nil
}

// NewRouter registers every route of the application on router.
func NewRouter(router *gin.Engine, api *controllers.API) *gin.Engine {
	router.Use(CORS())
	router.Use(middlewares.Identity(api.Sessions))
	router.Use(middlewares.AdminGate(api.Gate))

	router.GET("/", api.Home)
	router.GET("/contact", api.Contact)
	router.GET("/healthz", api.Health)
	router.GET("/products", api.GetPublicProducts)
	router.GET("/products/:id", api.GetPublicProduct)
	router.GET("/images/:name", api.GetImage)

	login := router.Group(access.LoginPath)
	{
		login.GET("", api.LoginPage)
		login.POST("", api.Login)
		login.GET("/error", api.LoginError)
		login.POST("/forgot-password", api.ForgotPassword)
		login.GET("/verify-token/:token", api.VerifyTokenReset)
		login.POST("/reset-password/:token", api.UpdateUserReset)
	}

	admin := router.Group("/admin")
	admin.Use(middlewares.RequireAdmin(api.Gate))
	{
		admin.GET("", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/admin/dashboard")
		})
		admin.GET("/dashboard", api.GetDashboard)
		admin.GET("/check-session", api.CheckSession)
		admin.GET("/refresh-session", api.RefreshSession)
		admin.POST("/logout", api.Logout)
		admin.GET("/me", api.GetUser)
		admin.PUT("/me", api.UpdateUser)

		products := admin.Group("/products")
		{
			products.GET("", api.GetProducts)
			products.POST("", api.CreateProduct)
			// batch delete
			products.DELETE("", api.DeleteProducts)
			products.GET("/:id", api.GetProduct)
			products.PUT("/:id", api.UpdateProduct)
			products.PATCH("/:id/status", api.ToggleProductStatus)
			products.DELETE("/:id", api.DeleteProduct)
		}
	}

	return router
}

// CORS Cross Origin Resource Sharing
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, "+
			"Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// Logger writes one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		zap.L().Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()))
	}
}

func newDB(connString string) (*sql.DB, error) {
	if connString == "" {
		return nil, errors.New("please provide DB_CONNECTION_STRING environment variable")
	}

	conn, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to db")
	}

	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping db")
	}

	return conn, nil
}
