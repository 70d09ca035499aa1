// ABOUTME: Embeds the admin page templates and frame partials
// ABOUTME: Login, shell and the loading, denied, redirecting and panel frames

package webadmin

import "embed"

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS
