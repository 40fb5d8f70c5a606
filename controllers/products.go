package controllers

import (
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"

	"solarcatalog/catalog"
	"solarcatalog/models"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const maxImageSize = 5 * 1024 * 1024

func (api *API) GetProducts(c *gin.Context) {
	q := c.Query("q")
	category := c.Query("category")
	asExcel, _ := strconv.ParseBool(c.Query("export_as_excel"))

	products, err := api.Products.FetchAll(c.Request.Context(), "")
	if err != nil {
		zap.L().Error("fetch products failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	res := catalog.Filter(products, q, category)

	if asExcel {
		handleExcelProducts(c, res.Products)
		return
	}

	c.JSON(http.StatusOK, models.ProductList{
		Products:   res.Products,
		Count:      res.Count,
		Categories: catalog.Categories,
	})
}

func (api *API) GetProduct(c *gin.Context) {
	product, err := api.Products.FetchByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			sendError(c, http.StatusNotFound, "product-not-found")
			return
		}
		zap.L().Error("fetch product failed", zap.Error(err))
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, product)
}

func (api *API) CreateProduct(c *gin.Context) {
	form, err := api.bindProductForm(c)
	if err != nil {
		sendMutationError(c, err)
		return
	}

	product, err := api.Products.Insert(c.Request.Context(), form)
	if err != nil {
		sendMutationError(c, err)
		return
	}

	api.invalidateCache(c)
	sendResult(c, http.StatusCreated, models.MutationResult{Success: true, Message: "product-created", Product: &product})
}

func (api *API) UpdateProduct(c *gin.Context) {
	id := c.Param("id")

	form, err := api.bindProductForm(c)
	if err != nil {
		sendMutationError(c, err)
		return
	}

	product, err := api.Products.Update(c.Request.Context(), id, form)
	if err != nil {
		sendMutationError(c, err)
		return
	}

	api.invalidateCache(c)
	sendResult(c, http.StatusOK, models.MutationResult{Success: true, Message: "product-updated", Product: &product})
}

// ToggleProductStatus flips active and inactive, touching nothing but the
// status and updated_at.
func (api *API) ToggleProductStatus(c *gin.Context) {
	id := c.Param("id")

	product, err := api.Products.ToggleStatus(c.Request.Context(), id)
	if err != nil {
		sendMutationError(c, err)
		return
	}

	api.invalidateCache(c)
	sendResult(c, http.StatusOK, models.MutationResult{Success: true, Message: "product-" + string(product.Status), Product: &product})
}

func (api *API) DeleteProduct(c *gin.Context) {
	id := c.Param("id")

	if err := api.Products.Delete(c.Request.Context(), id); err != nil {
		sendMutationError(c, err)
		return
	}

	api.invalidateCache(c)
	sendResult(c, http.StatusOK, models.MutationResult{Success: true, Message: "product-deleted"})
}

// DeleteProducts removes a batch of products, all or nothing.
func (api *API) DeleteProducts(c *gin.Context) {
	var req models.BatchDeleteRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		zap.L().Info("delete products: bad request", zap.Error(err))
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	ids := req.Data
	if len(ids) == 0 {
		sendError(c, http.StatusBadRequest, "missing-data")
		return
	}

	var errInvalid []models.RowError
	for i, id := range ids {
		if _, err := uuid.FromString(id); err != nil {
			errInvalid = append(errInvalid, models.RowError{
				Row:     i,
				Message: "invalid-id",
			})
		}
	}

	if len(errInvalid) > 0 {
		c.JSON(http.StatusBadRequest, models.RowResponseError{
			Message: "error",
			Detail:  errInvalid,
		})
		return
	}

	if err := api.Products.DeleteMany(c.Request.Context(), uniqueIDs(ids)); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			sendResult(c, http.StatusNotFound, models.MutationResult{Message: err.Error()})
			return
		}
		sendMutationError(c, err)
		return
	}

	api.invalidateCache(c)
	sendResult(c, http.StatusOK, models.MutationResult{Success: true, Message: "products-deleted"})
}

// uniqueIDs drops repeated ids, keeping the first occurrence. ids must
// already be valid uuids; spellings of the same uuid count as one.
func uniqueIDs(ids []string) []string {
	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		key := uuid.FromStringOrNil(id)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, id)
	}
	return unique
}

// bindProductForm reads the product form from a JSON or multipart body,
// applies the form defaults, validates it and stores an attached image.
// Nothing is written unless the form is valid.
func (api *API) bindProductForm(c *gin.Context) (models.ProductForm, error) {
	var form models.ProductForm

	multipart := strings.HasPrefix(c.ContentType(), "multipart/form-data")

	var err error
	if multipart {
		err = c.ShouldBind(&form)
	} else {
		err = c.ShouldBindJSON(&form)
	}
	if err != nil {
		return form, &models.ValidationError{Field: "body", Message: err.Error()}
	}

	api.applyDefaults(&form)

	if err := validateProduct(form); err != nil {
		return form, err
	}

	if multipart {
		url, err := api.uploadImage(c)
		if err != nil {
			return form, err
		}
		if url != "" {
			form.ImageUrl = url
		}
	}

	return form, nil
}

func (api *API) applyDefaults(form *models.ProductForm) {
	form.Name = strings.TrimSpace(form.Name)
	form.Description = strings.TrimSpace(form.Description)
	form.WhatsappNumber = strings.TrimSpace(form.WhatsappNumber)

	if form.Category == "" {
		form.Category = catalog.DefaultCategory
	}
	if form.Status == "" {
		form.Status = models.StatusActive
	}
	if form.WhatsappNumber == "" {
		form.WhatsappNumber = api.WhatsappNumber
	}
}

func validateProduct(form models.ProductForm) error {
	if form.Name == "" {
		return &models.ValidationError{Field: "name", Message: "missing-name"}
	}

	if !catalog.IsCategory(form.Category) {
		return &models.ValidationError{Field: "category", Message: "invalid-category"}
	}

	if form.Status != models.StatusActive && form.Status != models.StatusInactive {
		return &models.ValidationError{Field: "status", Message: "invalid-status"}
	}

	if !validWhatsappNumber(form.WhatsappNumber) {
		return &models.ValidationError{Field: "whatsapp_number", Message: "invalid-whatsapp-number"}
	}

	return nil
}

// validWhatsappNumber accepts international numbers written as digits, with
// an optional leading +.
func validWhatsappNumber(number string) bool {
	number = strings.TrimPrefix(number, "+")
	if len(number) < 8 || len(number) > 15 {
		return false
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// uploadImage stores the "image" part of a multipart form and returns its
// public URL, or "" when no image was attached.
func (api *API) uploadImage(c *gin.Context) (string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return "", nil
		}
		return "", &models.ValidationError{Field: "image", Message: err.Error()}
	}

	if header.Size > maxImageSize {
		zap.L().Info("image rejected",
			zap.String("file", header.Filename),
			zap.String("size", humanize.Bytes(uint64(header.Size))),
			zap.String("limit", humanize.Bytes(maxImageSize)))
		return "", &models.ValidationError{Field: "image", Message: "image-too-large"}
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", &models.ValidationError{Field: "image", Message: "invalid-image-type"}
	}

	f, err := header.Open()
	if err != nil {
		return "", errors.Wrap(err, "read-image")
	}
	defer f.Close()

	data, err := ioutil.ReadAll(f)
	if err != nil {
		return "", errors.Wrap(err, "read-image")
	}

	return api.Images.Put(c.Request.Context(), header.Filename, contentType, data)
}
