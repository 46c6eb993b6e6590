package overpass

import (
	"fmt"
	"strings"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// bbox renders b in Overpass order: south,west,north,east.
func bbox(b domain.Bounds) string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
}

// WaysQuery selects highway ways in b and returns their tags only.
func WaysQuery(b domain.Bounds, timeoutSeconds int) string {
	return fmt.Sprintf("[out:json][timeout:%d];way[\"highway\"](%s);out tags;", timeoutSeconds, bbox(b))
}

// FeaturesQuery unions one node and one way selector per rule. Ways are
// reported by their center point.
func FeaturesQuery(b domain.Bounds, rules []domain.TagRule, timeoutSeconds int) string {
	box := bbox(b)
	var sb strings.Builder
	fmt.Fprintf(&sb, "[out:json][timeout:%d];(", timeoutSeconds)
	for _, r := range rules {
		sel := selector(r)
		fmt.Fprintf(&sb, "node%s(%s);way%s(%s);", sel, box, sel, box)
	}
	sb.WriteString(");out center tags;")
	return sb.String()
}

func selector(r domain.TagRule) string {
	switch m := r.Matcher.(type) {
	case domain.Exact:
		return fmt.Sprintf("[%s=%s]", quote(r.Key), quote(string(m)))
	default:
		return fmt.Sprintf("[%s]", quote(r.Key))
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
