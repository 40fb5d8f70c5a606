package controllers

import (
	"net/http"
	"net/mail"
	"strings"

	"solarcatalog/middlewares"
	"solarcatalog/models"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GetUser returns the signed-in admin.
func (api *API) GetUser(c *gin.Context) {
	admin, ok := middlewares.Admin(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := api.Users.FindByID(c.Request.Context(), admin.Id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			sendError(c, http.StatusNotFound, "user-not-found")
			return
		}

		zap.L().Error("get user failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	user.Role = admin.Role
	c.JSON(http.StatusOK, user)
}

// UpdateUser changes the name, email and optionally the password of the
// signed-in admin.
func (api *API) UpdateUser(c *gin.Context) {
	admin, ok := middlewares.Admin(c)
	if !ok {
		sendError(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var form models.ProfileForm
	if err := c.ShouldBindJSON(&form); err != nil {
		zap.L().Info("update user: bad request", zap.Error(err))
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)

	if err := validateUser(form); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()

	taken, err := api.Users.EmailTaken(ctx, form.Email, admin.Id)
	if err != nil {
		zap.L().Error("update user: check email failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if taken {
		sendError(c, http.StatusConflict, "email-already-exist")
		return
	}

	if err := api.Users.UpdateProfile(ctx, admin.Id, form); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			sendError(c, http.StatusNotFound, "user-not-found")
			return
		}

		zap.L().Error("update user failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

func validateUser(form models.ProfileForm) error {
	if form.Email == "" {
		return errors.New("missing-email")
	}

	if form.Name == "" {
		return errors.New("missing-name")
	}

	if _, err := mail.ParseAddress(form.Email); err != nil {
		return errors.New("invalid-email")
	}

	if form.Password != "" && len(form.Password) < 8 {
		return errors.New("password-must-be-at-least-8-characters")
	}

	return nil
}
