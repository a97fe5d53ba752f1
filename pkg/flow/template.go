package flow

import (
	"fmt"
	"regexp"
)

// refPattern matches inline references of the form {{#nodeId.key#}}.
var refPattern = regexp.MustCompile(`\{\{#([^#]+)#\}\}`)

// Interpolate replaces every {{#nodeId.key#}} reference in text with the
// referenced variable's string value. Unresolved references yield "".
func Interpolate(text string, s *State) string {
	if s == nil {
		return refPattern.ReplaceAllString(text, "")
	}
	return refPattern.ReplaceAllStringFunc(text, func(m string) string {
		ref := refPattern.FindStringSubmatch(m)[1]
		return s.VarString(ref)
	})
}

// ResolveOperand resolves one side of a condition: template references are
// interpolated, a bare "nodeId.key" path that names an existing variable
// resolves to its value, and anything else is taken as a literal.
func ResolveOperand(s *State, raw string) string {
	if refPattern.MatchString(raw) {
		return Interpolate(raw, s)
	}
	if s != nil {
		if v, ok := s.Variable(raw); ok {
			if str, isStr := v.(string); isStr {
				return str
			}
			return toString(v)
		}
	}
	return raw
}

func toString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
