package crawler

import (
	"net/url"
	"sort"
	"strings"

	"github.com/ACSiskin/PhORN/models"
)

// firstSegment returns the first path segment of a URL ("" for the root).
func firstSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	if idx := strings.Index(path, "/"); idx != -1 {
		return path[:idx]
	}
	return path
}

// topPaths returns the n most-scanned path segments, ordered by count
// descending with ties broken by segment name.
func topPaths(counter map[string]int, n int) []models.PathCount {
	out := make([]models.PathCount, 0, len(counter))
	for seg, cnt := range counter {
		out = append(out, models.PathCount{Segment: seg, Count: cnt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Segment < out[j].Segment
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
