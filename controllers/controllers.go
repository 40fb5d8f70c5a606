package controllers

import (
	"database/sql"
	"net/http"
	"time"

	"solarcatalog/access"
	"solarcatalog/cache"
	"solarcatalog/mailer"
	"solarcatalog/models"
	"solarcatalog/sessions"
	"solarcatalog/store"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var genericOK = map[string]string{"message": "ok"}

type GenericResponse struct {
	Message string `json:"message"`
}

type Options struct {
	BaseURL        string
	SessionKey     string
	SessionTTL     time.Duration
	CacheTTL       time.Duration
	WhatsappNumber string
	SecureCookies  bool
	Mailer         mailer.Sender
}

type API struct {
	Products *store.ProductStore
	Roles    *store.RoleStore
	Users    *store.UserStore
	Images   *store.ImageStore
	Sessions *sessions.Manager
	Cache    *cache.ProductCache
	Gate     *access.Gate
	Mailer   mailer.Sender

	WhatsappNumber string
	SecureCookies  bool
}

func NewAPI(db *sql.DB, rdb *redis.Client, opts Options) (*API, error) {
	sess, err := sessions.NewManager(rdb, opts.SessionKey, opts.SessionTTL)
	if err != nil {
		return nil, err
	}

	roles := store.NewRoleStore(db)

	return &API{
		Products:       store.NewProductStore(db),
		Roles:          roles,
		Users:          store.NewUserStore(db),
		Images:         store.NewImageStore(db, opts.BaseURL),
		Sessions:       sess,
		Cache:          cache.NewProductCache(rdb, opts.CacheTTL),
		Gate:           access.NewGate(roles),
		Mailer:         opts.Mailer,
		WhatsappNumber: opts.WhatsappNumber,
		SecureCookies:  opts.SecureCookies,
	}, nil
}

func sendError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{
		"message": msg,
	})
}

func sendResult(c *gin.Context, code int, result models.MutationResult) {
	c.JSON(code, result)
}

// sendMutationError turns a failed create/update/delete into a structured
// result the admin form can show inline.
func sendMutationError(c *gin.Context, err error) {
	var verr *models.ValidationError

	switch {
	case errors.As(err, &verr):
		sendResult(c, http.StatusBadRequest, models.MutationResult{Message: verr.Message})
	case errors.Is(err, models.ErrNotFound):
		sendResult(c, http.StatusNotFound, models.MutationResult{Message: "product-not-found"})
	default:
		zap.L().Error("mutation failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		sendResult(c, http.StatusInternalServerError, models.MutationResult{Message: err.Error()})
	}
}

// invalidateCache drops the public pages after a successful mutation. A
// failure only delays the update until the entries expire.
func (api *API) invalidateCache(c *gin.Context) {
	if err := api.Cache.Invalidate(c.Request.Context()); err != nil {
		zap.L().Warn("invalidate catalog cache failed", zap.Error(err))
	}
}

func (api *API) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if err := api.Products.Db.PingContext(ctx); err != nil {
		zap.L().Error("health: database unreachable", zap.Error(err))
		sendError(c, http.StatusServiceUnavailable, "database-unavailable")
		return
	}

	if err := api.Cache.Redis.Ping(ctx).Err(); err != nil {
		zap.L().Error("health: redis unreachable", zap.Error(err))
		sendError(c, http.StatusServiceUnavailable, "redis-unavailable")
		return
	}

	c.JSON(http.StatusOK, genericOK)
}
