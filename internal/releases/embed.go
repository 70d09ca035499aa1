// ABOUTME: Embeds the releases fragment templates
// ABOUTME: Provides templateFS for the handler

package releases

import "embed"

//go:embed templates/*.html
var templateFS embed.FS
