package metrics

import (
	"strconv"
	"strings"
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func statusLabel(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code)
}
