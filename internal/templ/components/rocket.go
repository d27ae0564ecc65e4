package components

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/a-h/templ"
)

const (
	DefaultRocketSize  = 120
	DefaultRocketColor = "#10B981"
	particleCount      = 5
)

// Particle is one trail dot under the rocket.
type Particle struct {
	ID       int
	Size     float64 // px, in [2, 6)
	Delay    float64 // seconds, ID * 0.2
	Duration float64 // seconds, in [1.5, 2.5)
	Drift    float64 // px of horizontal drift, in [-10, 10)
}

// Particles returns the five trail particles. Sizes, durations and drift are
// random; delays are staggered by 0.2s.
func Particles(r *rand.Rand) []Particle {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	ps := make([]Particle, particleCount)
	for i := range ps {
		ps[i] = Particle{
			ID:       i,
			Size:     r.Float64()*4 + 2,
			Delay:    float64(i) * 0.2,
			Duration: r.Float64() + 1.5,
			Drift:    r.Float64()*20 - 10,
		}
	}
	return ps
}

// RocketProps configures RocketAnimation. Zero values take the defaults.
type RocketProps struct {
	Size  int
	Color string
	Rand  *rand.Rand
}

// RocketAnimation renders the floating rocket with its glow and particle trail.
func RocketAnimation(props RocketProps) templ.Component {
	if props.Size <= 0 {
		props.Size = DefaultRocketSize
	}
	if props.Color == "" {
		props.Color = DefaultRocketColor
	}
	particles := Particles(props.Rand)

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="relative h-40 w-40 flex items-center justify-center perspective-800"><div class="relative">`)
		b.WriteString(`<div class="relative z-10 animate-rocket">`)
		fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 24 24" fill="none" stroke="%s" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round" class="drop-shadow-lg" aria-hidden="true">`,
			props.Size, props.Size, templ.EscapeString(props.Color))
		b.WriteString(rocketPaths)
		b.WriteString(`</svg>`)
		b.WriteString(`<div class="absolute inset-0 rounded-full bg-hypes-green/20 filter blur-lg animate-pulse-glow"></div>`)
		b.WriteString(`</div>`)
		for _, p := range particles {
			fmt.Fprintf(&b,
				`<div class="particle absolute rounded-full bg-hypes-green/80" data-particle="%d" style="width:%.1fpx;height:%.1fpx;--drift:%.1fpx;animation-delay:%.1fs;animation-duration:%.2fs"></div>`,
				p.ID, p.Size, p.Size, p.Drift, p.Delay, p.Duration)
		}
		b.WriteString(`</div></div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// rocketPaths is the lucide "rocket" icon.
const rocketPaths = `<path d="M4.5 16.5c-1.5 1.26-2 5-2 5s3.74-.5 5-2c.71-.84.7-2.13-.09-2.91a2.18 2.18 0 0 0-2.91-.09z"/>` +
	`<path d="m12 15-3-3a22 22 0 0 1 2-3.95A12.88 12.88 0 0 1 22 2c0 2.72-.78 7.5-6 11a22.35 22.35 0 0 1-4 2z"/>` +
	`<path d="M9 12H4s.55-3.03 2-4c1.62-1.08 5 0 5 0"/>` +
	`<path d="M12 15v5s3.03-.55 4-2c1.08-1.62 0-5 0-5"/>`
