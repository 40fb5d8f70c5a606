package middlewares

import (
	"net/http"

	"solarcatalog/access"
	"solarcatalog/models"
	"solarcatalog/sessions"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	TokenCookie = "token"

	sessionKey    = "session"
	tokenKey      = "session-token"
	sessionErrKey = "session-error"
	adminKey      = "admin"
)

// Identity resolves the session of the request once and attaches it to the
// gin context. It never rejects a request; that is left to the gate.
func Identity(m *sessions.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := RequestToken(c)
		if token != "" {
			payload, err := m.Resolve(c.Request.Context(), token)
			switch {
			case err == nil:
				c.Set(sessionKey, payload)
				c.Set(tokenKey, token)
			case err != models.ErrUnauthenticated:
				zap.L().Error("identity: resolve session failed", zap.Error(err))
				c.Set(sessionErrKey, err)
			}
		}
		c.Next()
	}
}

// RequestToken reads the bearer token from the session cookie, falling back
// to the Authorization header.
func RequestToken(c *gin.Context) string {
	if token, err := c.Cookie(TokenCookie); err == nil && token != "" {
		return token
	}
	return c.GetHeader("Authorization")
}

// Session returns the session attached by Identity, if any.
func Session(c *gin.Context) (*models.SessionPayload, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	payload, ok := v.(*models.SessionPayload)
	return payload, ok && payload != nil
}

func SetSession(c *gin.Context, token string, payload *models.SessionPayload) {
	c.Set(sessionKey, payload)
	c.Set(tokenKey, token)
}

func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// Resolver exposes the request identity to access.Gate.
func Resolver(c *gin.Context) access.IdentityResolver {
	return func() (*models.User, error) {
		if v, ok := c.Get(sessionErrKey); ok {
			if err, ok := v.(error); ok {
				return nil, err
			}
		}
		payload, ok := Session(c)
		if !ok {
			return nil, nil
		}
		user := payload.User
		return &user, nil
	}
}

// AdminGate runs the access gate on every request path.
func AdminGate(g *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		var user *models.User
		resolve := func() (*models.User, error) {
			var err error
			user, err = Resolver(c)()
			return user, err
		}

		if g.Check(c.Request.Context(), c.Request.URL.Path, resolve) == access.Deny {
			RedirectToLogin(c)
			return
		}

		if user != nil && access.IsAdmin(user.Role) {
			SetAdmin(c, user)
		}
		c.Next()
	}
}

// RequireAdmin guards the admin route group. Requests already authorized by
// AdminGate in the same request are not looked up again.
func RequireAdmin(g *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := Admin(c); ok && access.IsAdmin(user.Role) {
			c.Next()
			return
		}

		user, err := Resolver(c)()
		if err == nil {
			err = g.Authorize(c.Request.Context(), user)
		}
		if err != nil {
			zap.L().Info("admin guard: denied", zap.String("path", c.Request.URL.Path), zap.Error(err))
			RedirectToLogin(c)
			return
		}

		SetAdmin(c, user)
		c.Next()
	}
}

// Admin returns the identity the gate authorized for this request.
func Admin(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(adminKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func SetAdmin(c *gin.Context, user *models.User) {
	c.Set(adminKey, user)
}

func RedirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusFound, access.LoginPath)
	c.Abort()
}
