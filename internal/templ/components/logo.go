// Package components holds the passive presentation pieces shared by the auth
// pages: the logo, the rocket scene and the decorative side panel.
//
// Each constructor returns a templ.Component so pages can render it directly
// or through the html/template "component" func.
package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// LogoSize selects the wordmark's text size.
type LogoSize string

const (
	LogoSM LogoSize = "sm"
	LogoMD LogoSize = "md"
	LogoLG LogoSize = "lg"
)

// Tagline is shown under the wordmark when requested.
const Tagline = "Ignite Your Startup Journey"

var logoTextSizes = map[LogoSize]string{
	LogoSM: "text-xl",
	LogoMD: "text-2xl",
	LogoLG: "text-3xl",
}

// TextSize returns the Tailwind class for size, defaulting to md.
func (s LogoSize) TextSize() string {
	if c, ok := logoTextSizes[s]; ok {
		return c
	}
	return logoTextSizes[LogoMD]
}

// Logo renders the hypes.in wordmark.
func Logo(size LogoSize, showTagline bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html := `<div class="flex flex-col items-center animate-fade-down">` +
			`<div class="flex items-center"><span class="` + templ.EscapeString(Classes("font-display font-bold text-hypes-green", size.TextSize())) + `">` +
			`hypes<span class="text-hypes-gray-800">.in</span></span></div>`
		if showTagline {
			html += `<p class="text-sm text-hypes-gray-500 mt-1 animate-fade-in">` + templ.EscapeString(Tagline) + `</p>`
		}
		html += `</div>`
		_, err := io.WriteString(w, html)
		return err
	})
}
