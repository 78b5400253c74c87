// Package template implements {name}-style prompt templates with
// Python-format semantics: {{ and }} are literal braces, and every
// placeholder must have a matching substitution value.
package template

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kwhite/azchat/internal/core"
)

// Placeholders returns the placeholder names referenced by the template,
// in order of first appearance.
func Placeholders(tmpl string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	i := 0
	for i < len(tmpl) {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				i += 2
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return nil, core.WrapError(core.ErrTemplateInvalid,
					fmt.Errorf("unclosed placeholder at offset %d", i))
			}
			name := tmpl[i+1 : i+1+end]
			if name == "" {
				return nil, core.WrapError(core.ErrTemplateInvalid,
					fmt.Errorf("empty placeholder at offset %d", i))
			}
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			i += end + 2
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				i += 2
				continue
			}
			return nil, core.WrapError(core.ErrTemplateInvalid,
				fmt.Errorf("unmatched '}' at offset %d", i))
		default:
			i++
		}
	}

	return names, nil
}

// Render substitutes vars into the template. Every placeholder must have
// an entry in vars; extra entries are ignored. Validation happens before
// any substitution so a bad template fails fast.
func Render(tmpl string, vars map[string]string) (string, error) {
	names, err := Placeholders(tmpl)
	if err != nil {
		return "", err
	}

	var missing []string
	for _, name := range names {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", core.WrapError(core.ErrTemplateInvalid,
			fmt.Errorf("missing substitution keys: %s", strings.Join(missing, ", ")))
	}

	var sb strings.Builder
	sb.Grow(len(tmpl))

	i := 0
	for i < len(tmpl) {
		c := tmpl[i]
		switch {
		case c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{':
			sb.WriteByte('{')
			i += 2
		case c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}':
			sb.WriteByte('}')
			i += 2
		case c == '{':
			end := strings.IndexByte(tmpl[i+1:], '}')
			sb.WriteString(vars[tmpl[i+1:i+1+end]])
			i += end + 2
		default:
			sb.WriteByte(c)
			i++
		}
	}

	return sb.String(), nil
}
