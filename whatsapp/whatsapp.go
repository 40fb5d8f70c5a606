// Package whatsapp builds wa.me deep links.
package whatsapp

import (
	"net/url"
	"strings"
)

const (
	baseURL = "https://wa.me/"

	GeneralMessage = "Hello, I would like to inquire about your solar products and services."
	productPrefix  = "Hello, I am interested in "
)

// Link returns https://wa.me/{number}?text={message}, without the query when
// message is empty.
func Link(number, message string) string {
	link := baseURL + strings.TrimPrefix(strings.TrimSpace(number), "+")
	if message == "" {
		return link
	}
	return link + "?text=" + escape(message)
}

func ProductInquiry(number, productName string) string {
	return Link(number, productPrefix+productName)
}

func GeneralInquiry(number string) string {
	return Link(number, GeneralMessage)
}

// componentUnescape undoes the QueryEscape output that encodeURIComponent
// leaves alone.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escape percent-encodes like encodeURIComponent.
func escape(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}
