package controllers

import (
	"context"
	"net/http"

	"solarcatalog/catalog"
	"solarcatalog/models"
	"solarcatalog/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	companyName    = "H.V. Electricals & Engineering Services"
	companyTagline = "Authorized Renew Power Dealer providing premium solar solutions across India."
	companyEmail   = "hvelectricalsprojects@gmail.com"
)

var companyPhones = []string{"+91-9529989096", "+91-8329026170", "+91-9156493579"}

var businessHours = []models.BusinessHours{
	{Days: "Monday - Saturday", Hours: "10:00 AM - 6:00 PM"},
	{Days: "Sunday", Hours: "Closed"},
}

func (api *API) contactInfo() models.ContactInfo {
	return models.ContactInfo{
		Company:       companyName,
		Tagline:       companyTagline,
		Phones:        companyPhones,
		Email:         companyEmail,
		Whatsapp:      api.WhatsappNumber,
		InquiryLink:   whatsapp.GeneralInquiry(api.WhatsappNumber),
		BusinessHours: businessHours,
	}
}

func (api *API) Home(c *gin.Context) {
	info := api.contactInfo()
	info.Categories = catalog.Categories
	c.JSON(http.StatusOK, info)
}

func (api *API) Contact(c *gin.Context) {
	c.JSON(http.StatusOK, api.contactInfo())
}

// activeProducts is the public fetch: cached listing first, then the store.
func (api *API) activeProducts(ctx context.Context) ([]models.Product, error) {
	products, gen, ok := api.Cache.ActiveProducts(ctx)
	if ok {
		return catalog.ActiveOnly(products), nil
	}

	products, err := api.Products.FetchAll(ctx, models.StatusActive)
	if err != nil {
		return nil, err
	}

	products = catalog.ActiveOnly(products)
	api.Cache.SetActiveProducts(ctx, gen, products)

	return products, nil
}

func (api *API) GetPublicProducts(c *gin.Context) {
	q := c.Query("q")
	category := c.Query("category")

	if category != "" && !catalog.IsCategory(category) {
		sendError(c, http.StatusBadRequest, "invalid-category")
		return
	}

	products, err := api.activeProducts(c.Request.Context())
	if err != nil {
		zap.L().Error("fetch public products failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	res := catalog.Filter(products, q, category)

	c.JSON(http.StatusOK, models.ProductList{
		Products:   res.Products,
		Count:      res.Count,
		Categories: catalog.Categories,
	})
}

func (api *API) GetPublicProduct(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	product, gen, ok := api.Cache.Product(ctx, id)
	if !ok {
		var err error
		product, err = api.Products.FetchByID(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				sendError(c, http.StatusNotFound, "product-not-found")
				return
			}
			zap.L().Error("fetch public product failed", zap.String("id", id), zap.Error(err))
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if !product.IsActive() {
		sendError(c, http.StatusNotFound, "product-not-found")
		return
	}

	if !ok {
		api.Cache.SetProduct(ctx, gen, product)
	}

	number := product.WhatsappNumber
	if number == "" {
		number = api.WhatsappNumber
	}

	c.JSON(http.StatusOK, models.ProductDetail{
		Product:     product,
		InquiryLink: whatsapp.ProductInquiry(number, product.Name),
		ContactLink: whatsapp.Link(number, ""),
	})
}

func (api *API) GetImage(c *gin.Context) {
	img, err := api.Images.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			sendError(c, http.StatusNotFound, "image-not-found")
			return
		}
		zap.L().Error("fetch image failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}
