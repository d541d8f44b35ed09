package formatting

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PrettyJSON formats any value as indented JSON for human-readable display.
// It falls back to fmt's %v representation when v cannot be marshaled.
func PrettyJSON(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// Truncate shortens s to max runes, marking the cut with an ellipsis.
// Newlines are flattened so a cell stays on one line.
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// OrDash returns s, or "-" when s is empty.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
