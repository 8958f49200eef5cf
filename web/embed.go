// Package web holds the page templates and static assets compiled into
// the budget binary.
package web

import "embed"

// TemplatesFS embeds the layout, navigation and page templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and the notification script.
//
//go:embed static/*
var StaticFS embed.FS
