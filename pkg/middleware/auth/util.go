package auth

import "strings"

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
