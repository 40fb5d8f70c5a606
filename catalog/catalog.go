// Package catalog holds the public product search and the category set the
// whole site agrees on.
package catalog

import (
	"strings"

	"solarcatalog/models"
)

// Categories is the fixed category set, in display order.
var Categories = []string{
	"Solar Panel",
	"Inverter",
	"ACDB-DCDB",
	"Cable",
	"Structure",
	"BOS Material",
	"Meter",
}

const DefaultCategory = "Solar Panel"

func IsCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Result struct {
	Products []models.Product
	Count    int
}

// Filter narrows products by category (exact match) and then by a
// case-insensitive substring of name, description or category. Empty
// arguments disable the matching stage. The input slice is never modified and
// the relative order of matches is kept.
func Filter(products []models.Product, searchTerm, category string) Result {
	term := strings.ToLower(searchTerm)
	out := make([]models.Product, 0, len(products))

	for _, p := range products {
		if category != "" && p.Category != category {
			continue
		}

		if term != "" && !matches(p, term) {
			continue
		}

		out = append(out, p)
	}

	return Result{Products: out, Count: len(out)}
}

func matches(p models.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Category), term)
}

// ActiveOnly drops everything that must not appear on a public page.
func ActiveOnly(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}

// DistinctCategories returns the categories present in products, first seen
// first.
func DistinctCategories(products []models.Product) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, p := range products {
		if seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

type Summary struct {
	Total      int
	Active     int
	Inactive   int
	Categories int
}

func Summarize(products []models.Product) Summary {
	s := Summary{Total: len(products), Categories: len(DistinctCategories(products))}
	for _, p := range products {
		if p.IsActive() {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	return s
}
