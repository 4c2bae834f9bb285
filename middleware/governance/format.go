// Small helpers for fast, consistent formatting of numeric values used in
// headers and denial bodies. strconv keeps float formatting free of
// scientific notation for common values.

package governance

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatPercent renders a percentage with two decimals, e.g. "99.97%".
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

// ceilSeconds rounds a wait up to whole seconds, minimum 1 for any
// positive wait, so a retry hint never tells the client to retry early.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	s := int(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
