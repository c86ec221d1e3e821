package bridge

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([^/{}]+)\}`)

// templatePlaceholders returns the placeholder names in a route template,
// in order of appearance.
func templatePlaceholders(path string) []string {
	matches := placeholderRe.FindAllStringSubmatch(path, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// AnalyzeRoute derives a parameter-location map from a route's declared
// metadata. It returns the map, the single-body flatten target (empty when
// body fields are embedded or there is more than one), and the ordered
// parameter list.
//
// Analysis is strict: a placeholder in the template without a declared path
// parameter, a declared path parameter missing from the template, or a name
// declared in two locations all fail. Callers treat failure as non-fatal —
// the capability still builds with an empty map and every argument is
// located by the runtime fallback rule instead.
func AnalyzeRoute(r Route) (ParameterMap, string, []ParameterSpec, error) {
	pm := make(ParameterMap)
	specs := make([]ParameterSpec, 0, len(r.PathParams)+len(r.QueryParams)+len(r.BodyFields))

	declared := make(map[string]bool, len(r.PathParams))
	for _, p := range r.PathParams {
		if _, dup := pm[p.Name]; dup {
			return nil, "", nil, fmt.Errorf("parameter %q declared more than once", p.Name)
		}
		pm[p.Name] = LocationPath
		declared[p.Name] = true
		specs = append(specs, p)
	}

	placeholders := templatePlaceholders(r.Path)
	for _, name := range placeholders {
		if !declared[name] {
			return nil, "", nil, fmt.Errorf("path template %q references undeclared parameter %q", r.Path, name)
		}
	}
	if len(placeholders) < len(r.PathParams) {
		for _, p := range r.PathParams {
			if !strings.Contains(r.Path, "{"+p.Name+"}") {
				return nil, "", nil, fmt.Errorf("declared path parameter %q missing from template %q", p.Name, r.Path)
			}
		}
	}

	for _, p := range r.QueryParams {
		if _, dup := pm[p.Name]; dup {
			return nil, "", nil, fmt.Errorf("parameter %q declared more than once", p.Name)
		}
		pm[p.Name] = LocationQuery
		specs = append(specs, p)
	}

	var flatten string
	for _, p := range r.BodyFields {
		if _, dup := pm[p.Name]; dup {
			return nil, "", nil, fmt.Errorf("parameter %q declared more than once", p.Name)
		}
		pm[p.Name] = LocationBody
		specs = append(specs, p)
	}
	if len(r.BodyFields) == 1 && !r.EmbedBody {
		flatten = r.BodyFields[0].Name
	}

	return pm, flatten, specs, nil
}
