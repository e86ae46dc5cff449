// Package web holds the dashboard's page templates and static files,
// compiled into the binaries.
package web

import "embed"

// TemplatesFS holds dashboard.html, explorer.html and the shared layout and
// partial definitions.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS
