package controllers

import (
	"net/http"

	"solarcatalog/catalog"
	"solarcatalog/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const recentProductsLimit = 5

func (api *API) GetDashboard(c *gin.Context) {
	products, err := api.Products.FetchAll(c.Request.Context(), "")
	if err != nil {
		zap.L().Error("fetch dashboard products failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	summary := catalog.Summarize(products)

	// products are ordered newest first
	recent := products
	if len(recent) > recentProductsLimit {
		recent = recent[:recentProductsLimit]
	}
	if recent == nil {
		recent = []models.Product{}
	}

	c.JSON(http.StatusOK, models.Dashboard{
		TotalProducts:    summary.Total,
		ActiveProducts:   summary.Active,
		InactiveProducts: summary.Inactive,
		Categories:       summary.Categories,
		RecentProducts:   recent,
	})
}
