package models

type RowError struct {
	Message string `json:"message"`
	Row     int    `json:"row"`
}

type BatchDeleteRequest struct {
	Data []string `json:"data"`
}

type RowResponseError struct {
	Message string     `json:"message"`
	Detail  []RowError `json:"detail"`
}

type ContactInfo struct {
	Company       string          `json:"company"`
	Tagline       string          `json:"tagline"`
	Phones        []string        `json:"phones"`
	Email         string          `json:"email"`
	Whatsapp      string          `json:"whatsapp"`
	InquiryLink   string          `json:"inquiry_link"`
	BusinessHours []BusinessHours `json:"business_hours"`
	Categories    []string        `json:"categories,omitempty"`
}

type BusinessHours struct {
	Days  string `json:"days"`
	Hours string `json:"hours"`
}
