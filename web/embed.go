// Package web holds the embedded HTML templates and static assets of the
// account pages.
package web

import "embed"

// TemplatesFS embeds HTML templates for server-side rendering.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet and the category picker script.
//
//go:embed static/*
var StaticFS embed.FS
