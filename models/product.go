package models

import "time"

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Product struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Id             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	ImageUrl       string    `json:"image_url"`
	WhatsappNumber string    `json:"whatsapp_number"`
	Status         Status    `json:"status"`
}

func (p Product) IsActive() bool {
	return p.Status == StatusActive
}

// ProductForm carries the editable fields of a product, as submitted by the
// admin form (JSON or multipart).
type ProductForm struct {
	Name           string `json:"name" form:"name"`
	Description    string `json:"description" form:"description"`
	Category       string `json:"category" form:"category"`
	ImageUrl       string `json:"image_url" form:"image_url"`
	WhatsappNumber string `json:"whatsapp_number" form:"whatsapp_number"`
	Status         Status `json:"status" form:"status"`
}

type ProductList struct {
	Products   []Product `json:"products"`
	Count      int       `json:"count"`
	Categories []string  `json:"categories"`
}

type ProductDetail struct {
	Product     Product `json:"product"`
	InquiryLink string  `json:"inquiry_link"`
	ContactLink string  `json:"contact_link"`
}

// MutationResult is returned by every create/update/delete so the admin UI can
// render an inline message instead of handling a fault.
type MutationResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Product *Product `json:"product,omitempty"`
}

type Dashboard struct {
	TotalProducts    int       `json:"total_products"`
	ActiveProducts   int       `json:"active_products"`
	InactiveProducts int       `json:"inactive_products"`
	Categories       int       `json:"categories"`
	RecentProducts   []Product `json:"recent_products"`
}
