package handler

import (
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/a-h/templ"
	"github.com/hypesin/hypes/internal/templ/components"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
		"title": func(v any) string {
			// A Caser keeps state, so one per call.
			return cases.Title(language.English).String(fmt.Sprint(v))
		},

		// Errors are map[string]string keyed by field name.
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		"hasError": func(errs map[string]string, field string) bool {
			_, ok := errs[field]
			return ok
		},
		"inputClass": func(invalid bool, extra ...string) string {
			return components.InputClass(invalid, extra...)
		},

		// templ components
		"component": func(c templ.Component) (template.HTML, error) {
			return templ.ToGoHTML(context.Background(), c)
		},
		"logo": func(size string, tagline bool) templ.Component {
			return components.Logo(components.LogoSize(size), tagline)
		},
		"authAside": func() templ.Component {
			return components.AuthAside(time.Now().Year(), components.RocketProps{})
		},

		// dict builds a map for passing several values to a sub-template:
		// {{template "field" dict "Name" "email" "Value" .Form.Email}}
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, fmt.Errorf("dict: odd number of arguments")
			}
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
				}
				m[key] = pairs[i+1]
			}
			return m, nil
		},
	}
}
