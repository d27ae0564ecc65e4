package components

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

const (
	AsideHeadline = "Elevate Your Startup's Potential"
	AsideBody     = "Join the ecosystem where startups thrive through collaboration, visibility, and access to the right resources."
)

type shape struct {
	position string
	size     string
	duration int
	delay    int
}

var shapes = []shape{
	{"top-[20%] left-[20%]", "w-40 h-40", 8, 0},
	{"bottom-[30%] right-[15%]", "w-60 h-60", 10, 1},
	{"top-[60%] left-[5%]", "w-52 h-52", 9, 2},
}

// AuthAside renders the decorative right half of the auth layout: pulsing
// shapes, the headline, the rocket scene and the copyright footer.
func AuthAside(year int, rocket RocketProps) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<aside class="hidden lg:flex flex-col items-center justify-center bg-gradient-to-tr from-hypes-green to-hypes-green-light relative overflow-hidden" aria-hidden="true">`)
		b.WriteString(`<div class="absolute w-full h-full">`)
		for _, s := range shapes {
			b.WriteString(`<div class="`)
			b.WriteString(Classes("absolute rounded-full bg-white/10 animate-breathe", s.position, s.size))
			b.WriteString(`" style="animation-duration:` + strconv.Itoa(s.duration) + `s;animation-delay:` + strconv.Itoa(s.delay) + `s"></div>`)
		}
		b.WriteString(`</div>`)

		b.WriteString(`<div class="relative z-10 text-center px-8 max-w-md">`)
		b.WriteString(`<h2 class="text-3xl font-bold text-white font-display mb-6">` + templ.EscapeString(AsideHeadline) + `</h2>`)
		b.WriteString(`<p class="text-white/90 mb-12">` + templ.EscapeString(AsideBody) + `</p>`)
		b.WriteString(`<div class="flex justify-center mt-6"><div class="glass-effect p-1 rounded-xl"><div class="animate-float"><div class="card-3d">`)
		b.WriteString(`<div class="transform-gpu rotate-12"><div class="relative w-64 h-64 flex items-center justify-center">`)
		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
		b.Reset()

		if err := RocketAnimation(rocket).Render(ctx, w); err != nil {
			return err
		}

		b.WriteString(`</div></div></div></div></div></div></div>`)
		b.WriteString(`<div class="absolute bottom-5 text-white/70 text-sm">&copy; ` + strconv.Itoa(year) + ` hypes.in &bull; All rights reserved</div>`)
		b.WriteString(`</aside>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}
