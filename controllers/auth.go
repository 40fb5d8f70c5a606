package controllers

import (
	"net/http"
	"strings"

	"solarcatalog/access"
	"solarcatalog/middlewares"
	"solarcatalog/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const LoginErrorPath = access.LoginPath + "/error"

func (api *API) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, GenericResponse{Message: "login-required"})
}

func (api *API) LoginError(c *gin.Context) {
	c.JSON(http.StatusForbidden, GenericResponse{Message: "admin-access-required"})
}

// Login signs the user in and then runs the admin check. A user who signed
// in but is not an admin is signed out again before being redirected, so no
// session outlives a failed check.
func (api *API) Login(c *gin.Context) {
	var authRequest models.AuthRequest
	if err := c.ShouldBind(&authRequest); err != nil {
		zap.L().Info("login: bad request", zap.Error(err))
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	authRequest.Email = strings.TrimSpace(authRequest.Email)
	if authRequest.Email == "" || authRequest.Password == "" {
		sendError(c, http.StatusBadRequest, "missing-email-or-password")
		return
	}

	ctx := c.Request.Context()

	user, err := api.Users.Authenticate(ctx, authRequest.Email, authRequest.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			sendError(c, http.StatusUnauthorized, "invalid-email-or-password")
			return
		}
		zap.L().Error("login: authenticate failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := api.Sessions.Create(ctx, user)
	if err != nil {
		zap.L().Error("login: create session failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := api.Gate.Authorize(ctx, &user); err != nil {
		zap.L().Info("login: not an admin, signing out", zap.String("email", user.Email), zap.Error(err))
		api.signOut(c, token, models.SessionPayload{User: user})
		c.Redirect(http.StatusSeeOther, LoginErrorPath)
		return
	}

	api.setTokenCookie(c, token)
	c.JSON(http.StatusOK, models.AuthResponse{Token: token, User: user})
}

// signOut drops the session behind token. Failures are logged only, the
// caller is already on its way out.
func (api *API) signOut(c *gin.Context, token string, fallback models.SessionPayload) {
	ctx := c.Request.Context()

	payload := fallback
	if stored, err := api.Sessions.Resolve(ctx, token); err == nil {
		payload = *stored
	}

	if err := api.Sessions.Destroy(ctx, token, payload); err != nil {
		zap.L().Error("sign out failed", zap.String("email", payload.Email), zap.Error(err))
	}

	api.clearTokenCookie(c)
}

func (api *API) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.TokenCookie, token, int(api.Sessions.TTL.Seconds()), "/", "", api.SecureCookies, true)
}

func (api *API) clearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middlewares.TokenCookie, "", -1, "/", "", api.SecureCookies, true)
}

func (api *API) CheckSession(c *gin.Context) {
	payload, ok := middlewares.Session(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := api.Sessions.Active(c.Request.Context(), payload.Email); err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			sendError(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		zap.L().Error("check session failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

func (api *API) RefreshSession(c *gin.Context) {
	payload, ok := middlewares.Session(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp, err := api.Sessions.Refresh(c.Request.Context(), *payload)
	if err != nil {
		if errors.Is(err, models.ErrUnauthenticated) {
			sendError(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		zap.L().Error("refresh session failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if admin, ok := middlewares.Admin(c); ok {
		resp.User.Role = admin.Role
	}

	api.setTokenCookie(c, resp.Token)
	c.JSON(http.StatusOK, resp)
}

func (api *API) Logout(c *gin.Context) {
	payload, ok := middlewares.Session(c)
	if !ok {
		api.clearTokenCookie(c)
		c.JSON(http.StatusOK, genericOK)
		return
	}

	if err := api.Sessions.Destroy(c.Request.Context(), middlewares.Token(c), *payload); err != nil {
		zap.L().Error("logout failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	api.clearTokenCookie(c)
	c.JSON(http.StatusOK, genericOK)
}

// ForgotPassword always answers ok for a well formed request so that the
// endpoint cannot be used to discover accounts.
func (api *API) ForgotPassword(c *gin.Context) {
	var req models.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Info("forgot password: bad request", zap.Error(err))
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		sendError(c, http.StatusBadRequest, "missing-email")
		return
	}

	ctx := c.Request.Context()

	user, err := api.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusOK, genericOK)
			return
		}
		zap.L().Error("forgot password: find user failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := api.Sessions.CreateResetToken(ctx, user.Id)
	if err != nil {
		zap.L().Error("forgot password: create token failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if api.Mailer == nil {
		zap.L().Warn("forgot password: no mailer configured", zap.String("email", user.Email))
		c.JSON(http.StatusOK, genericOK)
		return
	}

	if err := api.Mailer.SendReset(user.Email, token); err != nil {
		zap.L().Error("forgot password: send mail failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, "failed-to-send-email")
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

func (api *API) VerifyTokenReset(c *gin.Context) {
	_, err := api.Sessions.ResetTokenUser(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			sendError(c, http.StatusNotFound, "invalid-token")
			return
		}
		zap.L().Error("verify reset token failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

func (api *API) UpdateUserReset(c *gin.Context) {
	token := c.Param("token")

	var req models.PasswordReset
	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Info("reset password: bad request", zap.Error(err))
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := validatePassword(req); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	userID, err := api.Sessions.ResetTokenUser(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			sendError(c, http.StatusNotFound, "invalid-token")
			return
		}
		zap.L().Error("reset password: read token failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := api.Users.UpdatePassword(ctx, userID, req.Password); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			sendError(c, http.StatusNotFound, "user-not-found")
			return
		}
		zap.L().Error("reset password: update failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := api.Sessions.ConsumeResetToken(ctx, token); err != nil {
		zap.L().Warn("reset password: consume token failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, genericOK)
}

func validatePassword(req models.PasswordReset) error {
	if req.Password == "" {
		return errors.New("missing-password")
	}

	if len(req.Password) < 8 {
		return errors.New("password-must-be-at-least-8-characters")
	}

	if req.Password != req.PasswordConfirmation {
		return errors.New("password-confirmation-mismatch")
	}

	return nil
}
