// Package models contains data structures used across handlers
package models

import "strings"

// Breadcrumb for navigation
type Breadcrumb struct {
	Name string
	Path string
}

// BrowserPage is the view model of the HTML browser.
type BrowserPage struct {
	Bucket      string
	Prefix      string
	UserEmail   string
	CSRFToken   string
	Breadcrumbs []Breadcrumb
	Listing     *ListingPage
}

// BuildBreadcrumbs splits a prefix into one crumb per folder level.
func BuildBreadcrumbs(prefix string) []Breadcrumb {
	var breadcrumbs []Breadcrumb
	if prefix == "" {
		return breadcrumbs
	}
	path := ""
	for _, part := range strings.Split(strings.TrimSuffix(prefix, "/"), "/") {
		if part == "" {
			continue
		}
		path += part + "/"
		breadcrumbs = append(breadcrumbs, Breadcrumb{
			Name: part,
			Path: path,
		})
	}
	return breadcrumbs
}
